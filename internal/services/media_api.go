package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/storage"

	"github.com/Lllllllleong/policedirectory/internal/auth"
	"github.com/Lllllllleong/policedirectory/internal/blob"
	"github.com/Lllllllleong/policedirectory/internal/gcp"
	"github.com/Lllllllleong/policedirectory/internal/httpx"
	"github.com/Lllllllleong/policedirectory/internal/models"
	"github.com/Lllllllleong/policedirectory/internal/sheetdb"
	"github.com/Lllllllleong/policedirectory/internal/store"
	"github.com/Lllllllleong/policedirectory/internal/upload"
)

// base64 of a 20MB document plus JSON framing.
const maxMediaBody = 28 << 20

// Media actions as written to the Logs sheet.
const (
	ActionUploadFile    = "UPLOAD_FILE"
	ActionEdit          = "EDIT"
	ActionDelete        = "DELETE"
	ActionUploadGallery = "UPLOAD_GALLERY"
	ActionDeleteGallery = "DELETE_GALLERY"
)

var (
	logsColumns    = []string{"Timestamp", "Action", "Title", "User"}
	historyColumns = []string{"Timestamp", "Action", "Old Title", "New Title", "Old URL", "New URL", "User"}
)

// ArchiveFunc writes an object once, reporting whether it was new.
type ArchiveFunc func(ctx context.Context, objectName, contentType string, data []byte) (bool, error)

type MediaAPIConfig struct {
	SheetID           string
	DocumentsSheet    string
	GallerySheet      string
	LogsSheet         string
	HistorySheet      string
	DocumentsFolderID string
	GalleryFolderID   string
	ArchiveBucket     string
}

type MediaAPIFunction struct {
	book    sheetdb.Book
	files   blob.Store
	admins  *auth.AdminChecker
	archive ArchiveFunc
	now     func() time.Time
	config  MediaAPIConfig
}

// newMediaStore picks Drive (default) or a GCS bucket for uploaded files.
func newMediaStore(ctx context.Context, clients *googleClients) (blob.Store, error) {
	if gcp.GetEnv("MEDIA_BACKEND", "drive") == "gcs" {
		bucket := gcp.GetEnv("MEDIA_BUCKET", "")
		if bucket == "" {
			return nil, fmt.Errorf("MEDIA_BUCKET must be set when MEDIA_BACKEND is gcs")
		}
		client, err := storage.NewClient(ctx, clients.opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		return blob.NewGCSStore(client, bucket), nil
	}
	srv, err := clients.Drive(ctx)
	if err != nil {
		return nil, err
	}
	return blob.NewDriveStore(srv), nil
}

func NewMediaAPI(ctx context.Context) (*MediaAPIFunction, error) {
	config := MediaAPIConfig{
		SheetID:           gcp.GetEnv("MEDIA_SHEET_ID", ""),
		DocumentsSheet:    gcp.GetEnv("DOCUMENTS_SHEET_NAME", "Documents"),
		GallerySheet:      gcp.GetEnv("GALLERY_SHEET_NAME", "Gallery"),
		LogsSheet:         gcp.GetEnv("LOGS_SHEET_NAME", "Logs"),
		HistorySheet:      gcp.GetEnv("HISTORY_SHEET_NAME", "DocumentHistory"),
		DocumentsFolderID: gcp.GetEnv("DOCUMENTS_FOLDER_ID", ""),
		GalleryFolderID:   gcp.GetEnv("GALLERY_FOLDER_ID", ""),
		ArchiveBucket:     gcp.GetEnv("ARCHIVE_BUCKET", ""),
	}
	if config.SheetID == "" {
		return nil, fmt.Errorf("MEDIA_SHEET_ID environment variable must be set")
	}

	clients, err := newGoogleClients(ctx)
	if err != nil {
		return nil, err
	}
	fs, err := clients.Firestore(ctx)
	if err != nil {
		return nil, err
	}
	srv, err := clients.Sheets(ctx)
	if err != nil {
		return nil, err
	}
	files, err := newMediaStore(ctx, clients)
	if err != nil {
		return nil, err
	}

	var archive ArchiveFunc
	if config.ArchiveBucket != "" {
		storageClient, err := storage.NewClient(ctx, clients.opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		bucket := storageClient.Bucket(config.ArchiveBucket)
		archive = func(ctx context.Context, objectName, contentType string, data []byte) (bool, error) {
			return gcp.SaveToGCSAtomically(ctx, bucket, objectName, contentType, data)
		}
	}

	admins := store.NewFirestoreSet(fs).Admins
	checker := auth.NewAdminChecker(gcp.GetEnvList("ADMIN_EMAILS"), admins.IsActive)
	f := NewMediaAPIWith(config, sheetdb.NewSheetsBook(srv, config.SheetID), blob.WithRetry(files), checker, archive)
	slog.Info("Media API initialized.", "archive", config.ArchiveBucket != "")
	return f, nil
}

func NewMediaAPIWith(config MediaAPIConfig, book sheetdb.Book, files blob.Store, admins *auth.AdminChecker, archive ArchiveFunc) *MediaAPIFunction {
	if config.DocumentsSheet == "" {
		config.DocumentsSheet = "Documents"
	}
	if config.GallerySheet == "" {
		config.GallerySheet = "Gallery"
	}
	if config.LogsSheet == "" {
		config.LogsSheet = "Logs"
	}
	if config.HistorySheet == "" {
		config.HistorySheet = "DocumentHistory"
	}
	return &MediaAPIFunction{book: book, files: files, admins: admins, archive: archive, now: time.Now, config: config}
}

// mediaActions maps client action names to handlers' internal names.
var mediaActions = map[string]string{
	"uploaddocument": "upload",
	"upload":         "upload",
	"editdocument":   "edit",
	"edit":           "edit",
	"deletedocument": "delete",
	"delete":         "delete",
	"uploadgallery":  "uploadGallery",
	"deletegallery":  "deleteGallery",
}

func (f *MediaAPIFunction) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		switch action(r) {
		case "", "getDocuments":
			httpx.JSON(w, http.StatusOK, f.List(r.Context(), models.KindDocument))
		case "getGallery":
			httpx.JSON(w, http.StatusOK, f.List(r.Context(), models.KindGallery))
		default:
			httpx.JSONError(w, http.StatusBadRequest, "Invalid action", nil)
		}
	case http.MethodPost:
		var req models.MediaRequest
		if err := httpx.DecodeJSON(w, r, maxMediaBody, &req); err != nil {
			writeError(w, err)
			return
		}
		if a := action(r); a != "" {
			req.Action = a
		}
		res, err := f.Mutate(r.Context(), req)
		if err != nil {
			writeError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, res)
	default:
		httpx.JSONError(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
	}
}

func (f *MediaAPIFunction) sheetFor(kind models.MediaKind) string {
	if kind == models.KindGallery {
		return f.config.GallerySheet
	}
	return f.config.DocumentsSheet
}

func (f *MediaAPIFunction) table(ctx context.Context, kind models.MediaKind) (sheetdb.Table, error) {
	t, err := f.book.Table(ctx, f.sheetFor(kind), models.MediaColumns)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s sheet: %w", kind, err)
	}
	return t, nil
}

// List returns the live (not soft-deleted) items. Read failures yield an
// empty list so clients always receive an array.
func (f *MediaAPIFunction) List(ctx context.Context, kind models.MediaKind) []models.MediaItem {
	items := []models.MediaItem{}
	t, err := f.table(ctx, kind)
	if err != nil {
		slog.Error("Failed to open media sheet", "kind", kind, "error", err)
		return items
	}
	rows, err := t.Rows(ctx)
	if err != nil {
		slog.Error("Failed to read media sheet", "kind", kind, "error", err)
		return items
	}
	for _, row := range rows {
		item := models.MediaItemFromMap(row.Values)
		if item.Title == "" && item.URL == "" {
			continue
		}
		if strings.EqualFold(item.Delete, models.DeletedMarker) {
			continue
		}
		items = append(items, item)
	}
	return items
}

// Mutate applies an admin media action.
func (f *MediaAPIFunction) Mutate(ctx context.Context, req models.MediaRequest) (*models.MediaResponse, error) {
	act, ok := mediaActions[strings.ToLower(strings.TrimSpace(req.Action))]
	if !ok {
		return nil, badRequest("Unknown action: " + req.Action)
	}
	if err := f.admins.Require(ctx, req.UserEmail); err != nil {
		return nil, err
	}
	req.Title = strings.TrimSpace(req.Title)
	logCtx := slog.With("action", act, "user", req.UserEmail, "title", req.Title)

	var (
		res *models.MediaResponse
		err error
	)
	switch act {
	case "upload":
		res, err = f.uploadDocument(ctx, req)
	case "edit":
		res, err = f.editDocument(ctx, req)
	case "delete":
		res, err = f.softDelete(ctx, models.KindDocument, req)
	case "uploadGallery":
		res, err = f.uploadGallery(ctx, req)
	case "deleteGallery":
		res, err = f.softDelete(ctx, models.KindGallery, req)
	}
	if err != nil {
		logCtx.Warn("Media action failed", "error", err)
		return nil, err
	}
	res.Success = true
	res.Action = act
	logCtx.Info("Media action complete.")
	return res, nil
}

// decodeFile returns the payload bytes and the best known content type.
func decodeFile(payload, declared string) ([]byte, string, error) {
	data, urlMime, err := upload.DecodeBase64(payload)
	if err != nil {
		if errors.Is(err, upload.ErrNoFile) {
			return nil, "", err
		}
		return nil, "", httpx.WithStatus(http.StatusBadRequest, err)
	}
	ct := strings.TrimSpace(declared)
	if ct == "" {
		ct = urlMime
	}
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	ct, _, _ = strings.Cut(ct, ";")
	return data, ct, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "application/pdf":
		return ".pdf"
	case "image/jpeg":
		return ".jpg"
	}
	if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
		return exts[0]
	}
	return ""
}

type storedFile struct {
	obj   blob.Object
	pages int
}

func (f *MediaAPIFunction) storeDocument(ctx context.Context, title, payload, declared string) (storedFile, error) {
	data, ct, err := decodeFile(payload, declared)
	if err != nil {
		return storedFile{}, err
	}
	if err := upload.CheckSize(data, upload.MaxDocumentBytes); err != nil {
		return storedFile{}, err
	}
	var pages int
	if ct == "application/pdf" {
		data, pages, err = upload.PreparePDF(data)
		if err != nil {
			return storedFile{}, err
		}
	}

	ext := extensionFor(ct)
	name := title
	if ext != "" && !strings.HasSuffix(strings.ToLower(name), ext) {
		name += ext
	}
	obj, err := f.files.Put(ctx, f.config.DocumentsFolderID, name, ct, data)
	if err != nil {
		return storedFile{}, fmt.Errorf("failed to store document: %w", err)
	}
	f.archiveCopy(ctx, ext, ct, data)
	return storedFile{obj: obj, pages: pages}, nil
}

// archiveCopy keeps one content-addressed copy of each uploaded document.
func (f *MediaAPIFunction) archiveCopy(ctx context.Context, ext, ct string, data []byte) {
	if f.archive == nil {
		return
	}
	sum := sha256.Sum256(data)
	name := "documents/" + hex.EncodeToString(sum[:]) + ext
	written, err := f.archive(ctx, name, ct, data)
	if err != nil {
		slog.Warn("Failed to archive document", "object", name, "error", err)
		return
	}
	slog.Info("Document archived.", "object", name, "new", written)
}

func (f *MediaAPIFunction) uploadDocument(ctx context.Context, req models.MediaRequest) (*models.MediaResponse, error) {
	if req.Title == "" {
		return nil, badRequest("title required")
	}
	t, err := f.table(ctx, models.KindDocument)
	if err != nil {
		return nil, err
	}
	stored, err := f.storeDocument(ctx, req.Title, req.Payload(), req.MimeType)
	if err != nil {
		return nil, err
	}
	item := models.MediaItem{
		Title:        req.Title,
		URL:          stored.obj.ViewURL,
		Category:     strings.TrimSpace(req.Category),
		UploadedBy:   req.UserEmail,
		UploadedDate: f.now(),
		Description:  strings.TrimSpace(req.Description),
	}
	if _, err := t.Append(ctx, item.Row()); err != nil {
		return nil, fmt.Errorf("failed to append document row: %w", err)
	}
	f.audit(ctx, ActionUploadFile, req.UserEmail, "", item.Title, "", item.URL)
	return &models.MediaResponse{URL: item.URL, PageCount: stored.pages}, nil
}

// findLive returns the first not-deleted row titled title.
func findLive(ctx context.Context, t sheetdb.Table, title string) (sheetdb.Row, error) {
	rows, err := t.Rows(ctx)
	if err != nil {
		return sheetdb.Row{}, err
	}
	for _, row := range rows {
		if row.String("Title") == title && !strings.EqualFold(row.String("Delete"), models.DeletedMarker) {
			return row, nil
		}
	}
	return sheetdb.Row{}, fmt.Errorf("%q: %w", title, store.ErrNotFound)
}

func (f *MediaAPIFunction) editDocument(ctx context.Context, req models.MediaRequest) (*models.MediaResponse, error) {
	oldTitle := strings.TrimSpace(req.OldTitle)
	if oldTitle == "" {
		oldTitle = req.Title
	}
	if oldTitle == "" {
		return nil, badRequest("oldTitle required")
	}
	t, err := f.table(ctx, models.KindDocument)
	if err != nil {
		return nil, err
	}
	row, err := findLive(ctx, t, oldTitle)
	if err != nil {
		return nil, err
	}
	old := models.MediaItemFromMap(row.Values)

	updated := old
	if v := strings.TrimSpace(req.NewTitle); v != "" {
		updated.Title = v
	}
	if v := strings.TrimSpace(req.Category); v != "" {
		updated.Category = v
	}
	if v := strings.TrimSpace(req.Description); v != "" {
		updated.Description = v
	}

	var pages int
	replaced := false
	payload := req.NewFileData
	if payload == "" {
		payload = req.Payload()
	}
	if payload != "" {
		stored, err := f.storeDocument(ctx, updated.Title, payload, req.MimeType)
		if err != nil {
			return nil, err
		}
		updated.URL = stored.obj.ViewURL
		pages = stored.pages
		replaced = true
	}

	changes := map[string]any{
		"Title":       updated.Title,
		"URL":         updated.URL,
		"Category":    updated.Category,
		"Description": updated.Description,
	}
	if err := t.UpdateCells(ctx, row.Index, changes); err != nil {
		// The row still points at the old file; drop the new upload instead.
		if replaced {
			f.trash(ctx, updated.URL)
		}
		return nil, fmt.Errorf("failed to update document row: %w", err)
	}
	if replaced {
		f.trash(ctx, old.URL)
	}
	f.audit(ctx, ActionEdit, req.UserEmail, old.Title, updated.Title, old.URL, updated.URL)
	return &models.MediaResponse{URL: updated.URL, PageCount: pages}, nil
}

func (f *MediaAPIFunction) softDelete(ctx context.Context, kind models.MediaKind, req models.MediaRequest) (*models.MediaResponse, error) {
	if req.Title == "" {
		return nil, badRequest("title required")
	}
	t, err := f.table(ctx, kind)
	if err != nil {
		return nil, err
	}
	row, err := findLive(ctx, t, req.Title)
	if err != nil {
		return nil, err
	}
	if err := t.UpdateCells(ctx, row.Index, map[string]any{
		"Delete":      models.DeletedMarker,
		"Uploaded By": req.UserEmail,
	}); err != nil {
		return nil, fmt.Errorf("failed to mark %s deleted: %w", kind, err)
	}
	url := row.String("URL")
	f.trash(ctx, url)

	act := ActionDelete
	if kind == models.KindGallery {
		act = ActionDeleteGallery
	}
	f.audit(ctx, act, req.UserEmail, req.Title, "", url, "")
	return &models.MediaResponse{URL: url}, nil
}

func (f *MediaAPIFunction) uploadGallery(ctx context.Context, req models.MediaRequest) (*models.MediaResponse, error) {
	if req.Title == "" {
		return nil, badRequest("title required")
	}
	data, _, err := decodeFile(req.Payload(), "")
	if err != nil {
		return nil, err
	}
	if err := upload.CheckSize(data, upload.MaxImageBytes); err != nil {
		return nil, err
	}
	ct, err := upload.Sniff(data, upload.ImageTypes...)
	if err != nil {
		return nil, err
	}
	t, err := f.table(ctx, models.KindGallery)
	if err != nil {
		return nil, err
	}
	obj, err := f.files.Put(ctx, f.config.GalleryFolderID, req.Title+extensionFor(ct), ct, data)
	if err != nil {
		return nil, fmt.Errorf("failed to store gallery image: %w", err)
	}
	item := models.MediaItem{
		Title:        req.Title,
		URL:          obj.DirectURL,
		Category:     strings.TrimSpace(req.Category),
		UploadedBy:   req.UserEmail,
		UploadedDate: f.now(),
		Description:  strings.TrimSpace(req.Description),
	}
	if _, err := t.Append(ctx, item.Row()); err != nil {
		return nil, fmt.Errorf("failed to append gallery row: %w", err)
	}
	f.audit(ctx, ActionUploadGallery, req.UserEmail, "", item.Title, "", item.URL)
	return &models.MediaResponse{URL: item.URL}, nil
}

func (f *MediaAPIFunction) trash(ctx context.Context, url string) {
	id := f.files.IDFromURL(url)
	if id == "" {
		slog.Warn("Cannot resolve file from URL, not trashed", "url", url)
		return
	}
	if err := f.files.Trash(ctx, id); err != nil {
		slog.Warn("Failed to trash file", "fileId", id, "error", err)
	}
}

// audit appends to the Logs and DocumentHistory sheets. Failures are logged only.
func (f *MediaAPIFunction) audit(ctx context.Context, act, user, oldTitle, newTitle, oldURL, newURL string) {
	ts := f.now().Format(time.RFC3339)
	title := newTitle
	if title == "" {
		title = oldTitle
	}

	if logs, err := f.book.Table(ctx, f.config.LogsSheet, logsColumns); err != nil {
		slog.Warn("Failed to open logs sheet", "error", err)
	} else if _, err := logs.Append(ctx, map[string]any{
		"Timestamp": ts, "Action": act, "Title": title, "User": user,
	}); err != nil {
		slog.Warn("Failed to append media log", "error", err)
	}

	if history, err := f.book.Table(ctx, f.config.HistorySheet, historyColumns); err != nil {
		slog.Warn("Failed to open history sheet", "error", err)
	} else if _, err := history.Append(ctx, map[string]any{
		"Timestamp": ts, "Action": act,
		"Old Title": oldTitle, "New Title": newTitle,
		"Old URL": oldURL, "New URL": newURL,
		"User": user,
	}); err != nil {
		slog.Warn("Failed to append document history", "error", err)
	}
}
