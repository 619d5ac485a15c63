// Package blob stores uploaded files (profile photos, documents, gallery
// images) in Google Drive or Cloud Storage behind one interface.
package blob

import (
	"context"
	"regexp"
)

// Object describes a stored file.
type Object struct {
	ID string
	// ViewURL opens the file in a browser viewer.
	ViewURL string
	// DirectURL serves the raw bytes, suitable for <img> tags.
	DirectURL string
}

// Store puts files into a folder (Drive folder id or GCS prefix) and trashes them by id.
type Store interface {
	Put(ctx context.Context, folder, name, contentType string, data []byte) (Object, error)
	Trash(ctx context.Context, id string) error
	// IDFromURL recovers the id of an object from a URL this store produced,
	// or "" when the URL is not one of its own.
	IDFromURL(url string) string
}

var driveIDPattern = regexp.MustCompile(`[-\w]{25,}`)

// FileIDFromURL extracts a Drive file id from any of its URL forms.
func FileIDFromURL(url string) string {
	return driveIDPattern.FindString(url)
}
