package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path"
	"strings"

	"cloud.google.com/go/storage"
)

// GCSStore keeps files in a bucket; folder becomes the object prefix.
type GCSStore struct {
	bucket     *storage.BucketHandle
	bucketName string
}

func NewGCSStore(client *storage.Client, bucketName string) *GCSStore {
	return &GCSStore{bucket: client.Bucket(bucketName), bucketName: bucketName}
}

func (g *GCSStore) Put(ctx context.Context, folder, name, contentType string, data []byte) (Object, error) {
	objectName := path.Join(folder, name)
	w := g.bucket.Object(objectName).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return Object{}, fmt.Errorf("io.Copy to GCS failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return Object{}, fmt.Errorf("failed to close GCS writer (finalize upload): %w", err)
	}
	link := g.urlPrefix() + objectName
	return Object{ID: objectName, ViewURL: link, DirectURL: link}, nil
}

func (g *GCSStore) Trash(ctx context.Context, id string) error {
	err := g.bucket.Object(id).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		slog.Warn("Object already gone", "bucket", g.bucketName, "object", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete gs://%s/%s: %w", g.bucketName, id, err)
	}
	return nil
}

func (g *GCSStore) urlPrefix() string {
	return "https://storage.googleapis.com/" + g.bucketName + "/"
}

// IDFromURL returns the object name behind a public bucket URL.
func (g *GCSStore) IDFromURL(link string) string {
	name, ok := strings.CutPrefix(link, g.urlPrefix())
	if !ok || name == "" {
		return ""
	}
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	return name
}
