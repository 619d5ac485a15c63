package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/storage"
	"golang.org/x/sync/errgroup"

	"github.com/Lllllllleong/policedirectory/internal/auth"
	"github.com/Lllllllleong/policedirectory/internal/gcp"
	"github.com/Lllllllleong/policedirectory/internal/httpx"
	"github.com/Lllllllleong/policedirectory/internal/models"
	"github.com/Lllllllleong/policedirectory/internal/sheetdb"
	"github.com/Lllllllleong/policedirectory/internal/store"
)

const progressEvery = 25

var (
	booleanFields = map[string]bool{"isdeleted": true, "isapproved": true, "isactive": true, "isverified": true, "isblocked": true}
	numericFields = map[string]bool{"mobile1": true, "mobile2": true, "landline": true, "pincode": true, "age": true, "experience": true}
)

type SheetSyncConfig struct {
	SheetID        string
	SheetName      string
	SnapshotBucket string
	APIToken       string
}

// SheetSyncFunction pushes the employees sheet into Firestore.
type SheetSyncFunction struct {
	sheet     sheetdb.Table
	employees store.Employees
	status    store.SyncStatus
	snapshot  ArchiveFunc
	now       func() time.Time
	config    SheetSyncConfig
}

func NewSheetSync(ctx context.Context) (*SheetSyncFunction, error) {
	config := SheetSyncConfig{
		SheetID:        gcp.GetEnv("EMPLOYEES_SHEET_ID", ""),
		SheetName:      gcp.GetEnv("EMPLOYEES_SHEET_NAME", "Emp Profiles"),
		SnapshotBucket: gcp.GetEnv("SNAPSHOT_BUCKET", ""),
		APIToken:       gcp.GetEnv("API_TOKEN", ""),
	}
	if config.SheetID == "" {
		return nil, fmt.Errorf("EMPLOYEES_SHEET_ID environment variable must be set")
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

	var snapshot ArchiveFunc
	if config.SnapshotBucket != "" {
		storageClient, err := storage.NewClient(ctx, clients.opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		bucket := storageClient.Bucket(config.SnapshotBucket)
		snapshot = func(ctx context.Context, objectName, contentType string, data []byte) (bool, error) {
			return gcp.SaveToGCSAtomically(ctx, bucket, objectName, contentType, data)
		}
	}

	repos := store.NewFirestoreSet(fs)
	f := NewSheetSyncWith(config, sheetdb.NewSheetsTable(srv, config.SheetID, config.SheetName), repos.Employees, repos.SyncStatus, snapshot)
	slog.Info("Sheet sync initialized.", "sheet", config.SheetName, "snapshots", snapshot != nil)
	return f, nil
}

func NewSheetSyncWith(config SheetSyncConfig, sheet sheetdb.Table, employees store.Employees, status store.SyncStatus, snapshot ArchiveFunc) *SheetSyncFunction {
	return &SheetSyncFunction{sheet: sheet, employees: employees, status: status, snapshot: snapshot, now: time.Now, config: config}
}

// ServeHTTP runs a sync. A configured API token is required.
func (f *SheetSyncFunction) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if f.config.APIToken != "" && !auth.TokenMatches(f.config.APIToken, auth.TokenFromRequest(r)) {
		httpx.JSONError(w, http.StatusUnauthorized, "Unauthorized: Invalid or missing token", nil)
		return
	}
	res, err := f.Process(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

// CoerceCell converts a sheet cell into its Firestore value. ok is false
// for empty cells, which are never written.
func CoerceCell(column string, v any) (any, bool) {
	if v == nil {
		return nil, false
	}
	if s, isString := v.(string); isString {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, false
		}
		v = s
	}

	if booleanFields[strings.ToLower(column)] {
		return models.BoolOf(v), true
	}

	switch t := v.(type) {
	case float64:
		return numberValue(t), true
	case int:
		return int64(t), true
	case string:
		if numericFields[column] {
			if n, err := strconv.ParseInt(t, 10, 64); err == nil {
				return n, true
			}
			if x, err := strconv.ParseFloat(t, 64); err == nil {
				return numberValue(x), true
			}
		}
		return t, true
	}
	return v, true
}

func numberValue(x float64) any {
	if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
		return int64(x)
	}
	return x
}

// RowDocument builds the Firestore fields for one sheet row.
func RowDocument(row sheetdb.Row) map[string]any {
	doc := make(map[string]any, len(row.Values))
	for column, v := range row.Values {
		if column == "" {
			continue
		}
		if value, ok := CoerceCell(column, v); ok {
			doc[column] = value
		}
	}
	return doc
}

// Process pushes every row with a kgid, ten writes at a time.
func (f *SheetSyncFunction) Process(ctx context.Context) (*models.SheetSyncResponse, error) {
	started := f.now()
	header, err := f.sheet.Header(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet header: %w", err)
	}
	if !slices.Contains(header, "kgid") {
		return nil, httpx.Errorf(http.StatusBadRequest, "kgid column not found in sheet %s", f.config.SheetName)
	}
	rows, err := f.sheet.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet rows: %w", err)
	}
	logCtx := slog.With("sheet", f.config.SheetName, "rows", len(rows))
	logCtx.Info("Starting sheet sync.")
	f.progress(ctx, map[string]any{"state": "running", "total": len(rows), "currentRow": 0, "uploaded": 0, "errors": 0, "startedAt": started})

	var (
		mu        sync.Mutex
		processed int
		uploaded  int
		failures  []models.SyncFailure
		pushed    = make(map[string]map[string]any, len(rows))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(10)
	for _, row := range rows {
		kgid := row.String("kgid")
		if kgid == "" {
			mu.Lock()
			processed++
			mu.Unlock()
			continue
		}
		g.Go(func() error {
			doc := RowDocument(row)
			doc["kgid"] = kgid
			err := f.employees.Merge(gctx, kgid, doc)

			mu.Lock()
			defer mu.Unlock()
			processed++
			if err != nil {
				failures = append(failures, models.SyncFailure{ID: kgid, Error: err.Error()})
				logCtx.Warn("Failed to push row", "kgid", kgid, "row", row.Index, "error", err)
			} else {
				uploaded++
				pushed[kgid] = doc
			}
			if processed%progressEvery == 0 {
				f.progress(gctx, map[string]any{"currentRow": processed, "uploaded": uploaded, "errors": len(failures)})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &models.SheetSyncResponse{
		Success:  true,
		Total:    len(rows),
		Uploaded: uploaded,
		Errors:   len(failures),
		Failures: failures,
	}
	if f.snapshot != nil && len(pushed) > 0 {
		name, err := f.writeSnapshot(ctx, started, pushed)
		if err != nil {
			logCtx.Warn("Failed to write snapshot", "error", err)
		} else {
			res.Snapshot = name
		}
	}
	f.progress(ctx, map[string]any{
		"state": "done", "currentRow": len(rows), "uploaded": uploaded, "errors": len(failures),
		"finishedAt": f.now(),
	})
	logCtx.Info("Sheet sync complete.", "uploaded", uploaded, "errors", len(failures), "duration", f.now().Sub(started).String())
	return res, nil
}

func (f *SheetSyncFunction) writeSnapshot(ctx context.Context, started time.Time, pushed map[string]map[string]any) (string, error) {
	data, err := json.Marshal(pushed)
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}
	name := fmt.Sprintf("employees/%s.json", started.UTC().Format("20060102T150405Z"))
	if _, err := f.snapshot(ctx, name, "application/json", data); err != nil {
		return "", err
	}
	return name, nil
}

func (f *SheetSyncFunction) progress(ctx context.Context, fields map[string]any) {
	if f.status == nil {
		return
	}
	if err := f.status.Update(ctx, "employees", fields); err != nil {
		slog.Warn("Failed to record sync progress", "error", err)
	}
}
