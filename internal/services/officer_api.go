package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Lllllllleong/policedirectory/internal/auth"
	"github.com/Lllllllleong/policedirectory/internal/directory"
	"github.com/Lllllllleong/policedirectory/internal/gcp"
	"github.com/Lllllllleong/policedirectory/internal/httpx"
	"github.com/Lllllllleong/policedirectory/internal/models"
	"github.com/Lllllllleong/policedirectory/internal/sheetdb"
	"github.com/Lllllllleong/policedirectory/internal/store"
)

// Officer upload states kept in the sheet's uploadStatus column.
const (
	OfficerStatusColumn  = "uploadStatus"
	OfficerPendingUpload = "Pending Upload"

	OfficerAdded          = "added"
	OfficerAddedWithError = "added_with_error"
	OfficerUpdated        = "updated"
	OfficerNotFound       = "not_found"
)

type OfficerAPIConfig struct {
	SheetID   string
	SheetName string
	APIToken  string
}

type OfficerAPIFunction struct {
	sheet    sheetdb.Table
	officers store.Officers
	now      func() time.Time
	config   OfficerAPIConfig
}

func NewOfficerAPI(ctx context.Context) (*OfficerAPIFunction, error) {
	config := OfficerAPIConfig{
		SheetID:   gcp.GetEnv("OFFICERS_SHEET_ID", ""),
		SheetName: gcp.GetEnv("OFFICERS_SHEET_NAME", "Office Profiles"),
		APIToken:  gcp.GetEnv("API_TOKEN", ""),
	}
	if config.SheetID == "" || config.APIToken == "" {
		return nil, fmt.Errorf("OFFICERS_SHEET_ID and API_TOKEN must be set")
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
	f := NewOfficerAPIWith(config, sheetdb.NewSheetsTable(srv, config.SheetID, config.SheetName), store.NewFirestoreSet(fs).Officers)
	slog.Info("Officer API initialized.", "sheet", config.SheetName)
	return f, nil
}

func NewOfficerAPIWith(config OfficerAPIConfig, sheet sheetdb.Table, officers store.Officers) *OfficerAPIFunction {
	return &OfficerAPIFunction{sheet: sheet, officers: officers, now: time.Now, config: config}
}

func (f *OfficerAPIFunction) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	act := action(r)
	switch r.Method {
	case http.MethodGet:
		switch act {
		case "", "getOfficers":
			f.list(w, r)
		case "syncOfficersSheetToFirebase":
			res, err := f.Sync(r.Context())
			if err != nil {
				writeError(w, err)
				return
			}
			httpx.JSON(w, http.StatusOK, res)
		case "search":
			f.search(w, r)
		default:
			httpx.JSONError(w, http.StatusBadRequest, "Invalid action", nil)
		}
	case http.MethodPost:
		if !auth.TokenMatches(f.config.APIToken, auth.TokenFromRequest(r)) {
			httpx.JSONError(w, http.StatusUnauthorized, "Unauthorized: Invalid or missing token", nil)
			return
		}
		var o models.Officer
		if err := httpx.DecodeJSON(w, r, maxEmployeeBody, &o); err != nil {
			writeError(w, err)
			return
		}
		var (
			res *models.OfficerMutationResponse
			err error
		)
		if act == "update" {
			res, err = f.Update(r.Context(), o)
		} else {
			res, err = f.Add(r.Context(), o)
		}
		if err != nil {
			writeError(w, err)
			return
		}
		status := http.StatusOK
		if res.Status == OfficerNotFound {
			status = http.StatusNotFound
		}
		httpx.JSON(w, status, res)
	default:
		httpx.JSONError(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
	}
}

func (f *OfficerAPIFunction) list(w http.ResponseWriter, r *http.Request) {
	rows, err := f.sheet.Rows(r.Context())
	if err != nil {
		writeError(w, fmt.Errorf("failed to read officers sheet: %w", err))
		return
	}
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		if row.String("agid") == "" {
			continue
		}
		obj := make(map[string]any, len(row.Values))
		for k, v := range row.Values {
			if v == nil {
				v = ""
			}
			obj[k] = v
		}
		out = append(out, obj)
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (f *OfficerAPIFunction) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := f.officers.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	results := directory.SearchOfficers(list, q.Get("q"), q.Get("filter"), limit)
	httpx.JSON(w, http.StatusOK, searchResponse[models.Officer]{Success: true, Count: len(results), Results: results})
}

func (f *OfficerAPIFunction) uploadedStatus() string {
	return "Uploaded at " + f.now().Format("2006-01-02 15:04:05")
}

// NextAGID returns the id following the last row's agid, or AGID0001 when
// the sheet is empty or the last id cannot be parsed.
func NextAGID(rows []sheetdb.Row) string {
	if len(rows) == 0 {
		return "AGID0001"
	}
	last := strings.ToUpper(rows[len(rows)-1].String("agid"))
	n, err := strconv.Atoi(strings.TrimPrefix(last, "AGID"))
	if !strings.HasPrefix(last, "AGID") || err != nil || n < 0 {
		return "AGID0001"
	}
	return fmt.Sprintf("AGID%04d", n+1)
}

func normalizeOfficer(o *models.Officer) {
	o.Name = directory.NormalizeName(o.Name)
	o.Email = directory.NormalizeEmail(o.Email)
	o.Mobile = directory.NormalizeMobile(o.Mobile)
	o.Rank = strings.TrimSpace(o.Rank)
	o.Station = strings.TrimSpace(o.Station)
	o.District = strings.TrimSpace(o.District)
}

func (f *OfficerAPIFunction) prepareSheet(ctx context.Context) error {
	header, err := f.sheet.Header(ctx)
	if err != nil {
		return err
	}
	if len(header) == 0 {
		return f.sheet.SetHeader(ctx, models.OfficerColumns)
	}
	_, err = f.sheet.EnsureColumn(ctx, OfficerStatusColumn)
	return err
}

// Add appends an officer with a fresh AGID and mirrors it to Firestore.
// A failed mirror still keeps the row, reported as added_with_error.
func (f *OfficerAPIFunction) Add(ctx context.Context, o models.Officer) (*models.OfficerMutationResponse, error) {
	normalizeOfficer(&o)
	if err := directory.ValidateOfficer(o); err != nil {
		return nil, err
	}
	if err := f.prepareSheet(ctx); err != nil {
		return nil, fmt.Errorf("failed to prepare officers sheet: %w", err)
	}
	rows, err := f.sheet.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read officers sheet: %w", err)
	}
	o.Agid = NextAGID(rows)
	o.UploadStatus = OfficerPendingUpload
	logCtx := slog.With("agid", o.Agid)

	index, err := f.sheet.Append(ctx, o.Row())
	if err != nil {
		return nil, fmt.Errorf("failed to append officer row: %w", err)
	}
	if err := f.officers.Put(ctx, o); err != nil {
		logCtx.Error("Failed to write officer to Firestore", "error", err)
		f.setStatus(ctx, index, "Failed: "+err.Error())
		return &models.OfficerMutationResponse{Status: OfficerAddedWithError, Agid: o.Agid, Error: err.Error()}, nil
	}
	f.setStatus(ctx, index, f.uploadedStatus())
	logCtx.Info("Officer added.")
	return &models.OfficerMutationResponse{Status: OfficerAdded, Agid: o.Agid}, nil
}

// Update rewrites the row with o.Agid and re-syncs it.
func (f *OfficerAPIFunction) Update(ctx context.Context, o models.Officer) (*models.OfficerMutationResponse, error) {
	o.Agid = strings.TrimSpace(o.Agid)
	if o.Agid == "" {
		return nil, badRequest("agid required")
	}
	normalizeOfficer(&o)
	if err := directory.ValidateOfficer(o); err != nil {
		return nil, err
	}
	row, found, err := sheetdb.FindRow(ctx, f.sheet, "agid", o.Agid)
	if err != nil {
		return nil, err
	}
	if !found {
		return &models.OfficerMutationResponse{Status: OfficerNotFound, Agid: o.Agid}, nil
	}
	if _, err := f.sheet.EnsureColumn(ctx, OfficerStatusColumn); err != nil {
		return nil, err
	}

	o.UploadStatus = OfficerPendingUpload
	if err := f.sheet.UpdateCells(ctx, row.Index, o.Row()); err != nil {
		return nil, fmt.Errorf("failed to update officer row: %w", err)
	}
	if err := f.officers.Put(ctx, o); err != nil {
		f.setStatus(ctx, row.Index, "Failed: "+err.Error())
		return &models.OfficerMutationResponse{Status: OfficerUpdated, Agid: o.Agid, Error: err.Error()}, nil
	}
	f.setStatus(ctx, row.Index, f.uploadedStatus())
	slog.Info("Officer updated.", "agid", o.Agid)
	return &models.OfficerMutationResponse{Status: OfficerUpdated, Agid: o.Agid}, nil
}

func (f *OfficerAPIFunction) setStatus(ctx context.Context, row int, status string) {
	if err := f.sheet.UpdateCells(ctx, row, map[string]any{OfficerStatusColumn: status}); err != nil {
		slog.Warn("Failed to write officer upload status", "row", row, "error", err)
	}
}

// Sync pushes every sheet row that has an agid to Firestore, recording the
// outcome in each row's status cell.
func (f *OfficerAPIFunction) Sync(ctx context.Context) (*models.OfficerSyncResponse, error) {
	if _, err := f.sheet.EnsureColumn(ctx, OfficerStatusColumn); err != nil {
		return nil, fmt.Errorf("failed to prepare officers sheet: %w", err)
	}
	rows, err := f.sheet.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read officers sheet: %w", err)
	}

	var (
		mu       sync.Mutex
		count    int
		failures []models.SyncFailure
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(10)
	for _, row := range rows {
		agid := row.String("agid")
		if agid == "" {
			continue
		}
		g.Go(func() error {
			o := models.OfficerFromMap(agid, row.Values)
			if err := f.officers.Put(gctx, o); err != nil {
				f.setStatus(gctx, row.Index, "Failed: "+err.Error())
				mu.Lock()
				failures = append(failures, models.SyncFailure{ID: agid, Error: err.Error()})
				mu.Unlock()
				return nil
			}
			f.setStatus(gctx, row.Index, f.uploadedStatus())
			mu.Lock()
			count++
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	msg := fmt.Sprintf("Synced %d officers to Firestore (%d errors)", count, len(failures))
	slog.Info(msg)
	return &models.OfficerSyncResponse{Success: true, Message: msg, Count: count, Errors: failures}, nil
}
