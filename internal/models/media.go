package models

import "time"

type MediaKind string

const (
	KindDocument MediaKind = "document"
	KindGallery  MediaKind = "gallery"
)

// MediaColumns is the header shared by the documents and gallery sheets.
var MediaColumns = []string{"Title", "URL", "Category", "Uploaded By", "Uploaded Date", "Description", "Delete"}

// DeletedMarker is written to the Delete column on soft delete.
const DeletedMarker = "Deleted"

// MediaItem is a document or gallery image row. JSON keys mirror the sheet
// headers, which is the shape clients already consume.
type MediaItem struct {
	Title        string    `json:"Title"`
	URL          string    `json:"URL"`
	Category     string    `json:"Category"`
	UploadedBy   string    `json:"Uploaded By"`
	UploadedDate time.Time `json:"Uploaded Date"`
	Description  string    `json:"Description"`
	Delete       string    `json:"Delete"`
}

func MediaItemFromMap(m map[string]any) MediaItem {
	item := MediaItem{
		Title:       stringValue(m, "Title"),
		URL:         stringValue(m, "URL"),
		Category:    stringValue(m, "Category"),
		UploadedBy:  stringValue(m, "Uploaded By"),
		Description: stringValue(m, "Description"),
		Delete:      stringValue(m, "Delete"),
	}
	item.UploadedDate = timeValue(m, "Uploaded Date")
	return item
}

func (i MediaItem) Row() map[string]any {
	return map[string]any{
		"Title":         i.Title,
		"URL":           i.URL,
		"Category":      i.Category,
		"Uploaded By":   i.UploadedBy,
		"Uploaded Date": i.UploadedDate.Format(time.RFC3339),
		"Description":   i.Description,
		"Delete":        i.Delete,
	}
}
