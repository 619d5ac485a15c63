package blob

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
)

const driveDirectURL = "https://drive.google.com/uc?export=view&id="

// DriveStore keeps files in Drive folders shared as "anyone with the link".
type DriveStore struct {
	srv *drive.Service
}

func NewDriveStore(srv *drive.Service) *DriveStore {
	return &DriveStore{srv: srv}
}

func (d *DriveStore) Put(ctx context.Context, folder, name, contentType string, data []byte) (Object, error) {
	meta := &drive.File{Name: name, MimeType: contentType}
	if folder != "" {
		meta.Parents = []string{folder}
	}
	f, err := d.srv.Files.Create(meta).
		Media(bytes.NewReader(data), googleapi.ContentType(contentType)).
		Fields("id, webViewLink").
		SupportsAllDrives(true).
		Context(ctx).Do()
	if err != nil {
		return Object{}, fmt.Errorf("failed to create drive file %s: %w", name, err)
	}

	perm := &drive.Permission{Type: "anyone", Role: "reader"}
	if _, err := d.srv.Permissions.Create(f.Id, perm).SupportsAllDrives(true).Context(ctx).Do(); err != nil {
		slog.Warn("Failed to set sharing permissions", "fileId", f.Id, "error", err)
	}
	return Object{ID: f.Id, ViewURL: f.WebViewLink, DirectURL: driveDirectURL + f.Id}, nil
}

func (d *DriveStore) Trash(ctx context.Context, id string) error {
	_, err := d.srv.Files.Update(id, &drive.File{Trashed: true}).SupportsAllDrives(true).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to trash drive file %s: %w", id, err)
	}
	return nil
}

func (d *DriveStore) IDFromURL(url string) string { return FileIDFromURL(url) }
