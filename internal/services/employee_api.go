package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Lllllllleong/policedirectory/internal/auth"
	"github.com/Lllllllleong/policedirectory/internal/blob"
	"github.com/Lllllllleong/policedirectory/internal/directory"
	"github.com/Lllllllleong/policedirectory/internal/gcp"
	"github.com/Lllllllleong/policedirectory/internal/httpx"
	"github.com/Lllllllleong/policedirectory/internal/models"
	"github.com/Lllllllleong/policedirectory/internal/sheetdb"
	"github.com/Lllllllleong/policedirectory/internal/store"
	"github.com/Lllllllleong/policedirectory/internal/upload"
)

const maxEmployeeBody = 64 << 10

type EmployeeAPIConfig struct {
	SheetID         string
	SheetName       string
	ProfileFolderID string
	APIToken        string
	UploadsPerHour  int
}

// EmployeeAPIFunction serves the employees sheet and its Firestore mirror.
type EmployeeAPIFunction struct {
	sheet     sheetdb.Table
	employees store.Employees
	photos    blob.Store
	limiter   *auth.Limiter
	now       func() time.Time
	config    EmployeeAPIConfig
}

func NewEmployeeAPI(ctx context.Context) (*EmployeeAPIFunction, error) {
	config := EmployeeAPIConfig{
		SheetID:         gcp.GetEnv("EMPLOYEES_SHEET_ID", ""),
		SheetName:       gcp.GetEnv("EMPLOYEES_SHEET_NAME", "Emp Profiles"),
		ProfileFolderID: gcp.GetEnv("PROFILE_FOLDER_ID", ""),
		APIToken:        gcp.GetEnv("API_TOKEN", ""),
		UploadsPerHour:  gcp.GetEnvInt("UPLOADS_PER_HOUR", 10),
	}
	if config.SheetID == "" || config.APIToken == "" {
		return nil, fmt.Errorf("EMPLOYEES_SHEET_ID and API_TOKEN must be set")
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
	photos, err := newMediaStore(ctx, clients)
	if err != nil {
		return nil, err
	}

	f := NewEmployeeAPIWith(config,
		sheetdb.NewSheetsTable(srv, config.SheetID, config.SheetName),
		store.NewFirestoreSet(fs).Employees,
		blob.WithRetry(photos),
	)
	slog.Info("Employee API initialized.", "sheet", config.SheetName)
	return f, nil
}

// NewEmployeeAPIWith assembles the function from already built dependencies.
func NewEmployeeAPIWith(config EmployeeAPIConfig, sheet sheetdb.Table, employees store.Employees, photos blob.Store) *EmployeeAPIFunction {
	if config.UploadsPerHour <= 0 {
		config.UploadsPerHour = 10
	}
	return &EmployeeAPIFunction{
		sheet:     sheet,
		employees: employees,
		photos:    photos,
		limiter:   auth.NewLimiter(config.UploadsPerHour, time.Hour),
		now:       time.Now,
		config:    config,
	}
}

func (f *EmployeeAPIFunction) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	act := action(r)
	switch r.Method {
	case http.MethodGet:
		switch act {
		case "", "getEmployees":
			f.getEmployees(w, r)
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
		switch act {
		case "addEmployee":
			f.addEmployee(w, r)
		case "updateEmployee":
			f.updateEmployee(w, r)
		case "deleteEmployee":
			f.deleteEmployee(w, r)
		case "uploadImage":
			f.uploadImage(w, r)
		default:
			httpx.JSONError(w, http.StatusBadRequest, "Unknown POST action", nil)
		}
	default:
		httpx.JSONError(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
	}
}

func (f *EmployeeAPIFunction) getEmployees(w http.ResponseWriter, r *http.Request) {
	rows, err := f.sheet.Rows(r.Context())
	if err != nil {
		writeError(w, fmt.Errorf("failed to read employees sheet: %w", err))
		return
	}
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Values)
	}
	httpx.JSON(w, http.StatusOK, out)
}

type searchResponse[T any] struct {
	Success bool                  `json:"success"`
	Count   int                   `json:"count"`
	Results []directory.Result[T] `json:"results"`
}

func (f *EmployeeAPIFunction) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := f.employees.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	list = directory.FilterEmployees(list, directory.Filter{
		District: q.Get("district"),
		Station:  q.Get("station"),
		Rank:     q.Get("rank"),
		Unit:     q.Get("unit"),
	})
	limit, _ := strconv.Atoi(q.Get("limit"))
	results := directory.SearchEmployees(list, q.Get("q"), q.Get("filter"), limit)
	for i := range results {
		results[i].Item = results[i].Item.Public()
	}
	httpx.JSON(w, http.StatusOK, searchResponse[models.Employee]{Success: true, Count: len(results), Results: results})
}

// normalizeEmployee tidies the free-text fields clients send.
func normalizeEmployee(e *models.Employee) {
	e.Kgid = strings.TrimSpace(e.Kgid)
	e.Name = directory.NormalizeName(e.Name)
	e.Email = directory.NormalizeEmail(e.Email)
	e.Mobile1 = directory.NormalizeMobile(e.Mobile1)
	e.Mobile2 = directory.NormalizeMobile(e.Mobile2)
}

func (f *EmployeeAPIFunction) header(ctx context.Context) ([]string, error) {
	header, err := f.sheet.Header(ctx)
	if err != nil {
		return nil, err
	}
	if len(header) == 0 {
		if err := f.sheet.SetHeader(ctx, models.EmployeeColumns); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
		header = models.EmployeeColumns
	}
	return header, nil
}

func (f *EmployeeAPIFunction) addEmployee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var e models.Employee
	if err := httpx.DecodeJSON(w, r, maxEmployeeBody, &e); err != nil {
		writeError(w, err)
		return
	}
	normalizeEmployee(&e)
	if err := directory.ValidateEmployee(e); err != nil {
		writeError(w, err)
		return
	}
	logCtx := slog.With("kgid", e.Kgid)

	if _, err := f.header(ctx); err != nil {
		writeError(w, err)
		return
	}
	if _, found, err := sheetdb.FindRow(ctx, f.sheet, "kgid", e.Kgid); err != nil {
		writeError(w, err)
		return
	} else if found {
		writeError(w, httpx.Errorf(http.StatusConflict, "employee %s already exists", e.Kgid))
		return
	}

	if _, err := f.sheet.Append(ctx, e.Row()); err != nil {
		writeError(w, fmt.Errorf("failed to append employee row: %w", err))
		return
	}
	if err := f.employees.Create(ctx, e); err != nil {
		writeError(w, err)
		return
	}
	logCtx.Info("Employee added.")
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true, "kgid": e.Kgid})
}

// kgidOf reads the kgid from a loosely typed payload, where numeric ids arrive as numbers.
func kgidOf(payload map[string]any) string {
	return models.StringOf(payload["kgid"])
}

func (f *EmployeeAPIFunction) updateEmployee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var payload map[string]any
	if err := httpx.DecodeJSON(w, r, maxEmployeeBody, &payload); err != nil {
		writeError(w, err)
		return
	}
	kgid := kgidOf(payload)
	if kgid == "" {
		writeError(w, badRequest("kgid required"))
		return
	}

	row, found, err := sheetdb.FindRow(ctx, f.sheet, "kgid", kgid)
	if err != nil {
		writeError(w, err)
		return
	}
	if !found {
		httpx.JSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "Not found"})
		return
	}

	merged := make(map[string]any, len(row.Values)+len(payload))
	for k, v := range row.Values {
		merged[k] = v
	}
	for k, v := range payload {
		merged[k] = v
	}
	e := models.EmployeeFromMap(kgid, merged)
	normalizeEmployee(&e)
	if err := changedViolations(directory.ValidateEmployee(e), payload); err != nil {
		writeError(w, err)
		return
	}

	header, err := f.sheet.Header(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	inSheet := make(map[string]bool, len(header))
	for _, h := range header {
		inSheet[h] = true
	}

	normalized := e.Fields()
	changes := make(map[string]any, len(payload))
	docChanges := make(map[string]any, len(payload))
	for k, raw := range payload {
		if k == "kgid" {
			continue
		}
		if v, ok := normalized[k]; ok {
			changes[k] = v
			docChanges[k] = v
			continue
		}
		// Sheet-only columns such as pincode pass through as sent.
		if inSheet[k] {
			changes[k] = raw
			if v, ok := CoerceCell(k, raw); ok {
				docChanges[k] = v
			} else {
				docChanges[k] = nil
			}
		}
	}
	if err := f.sheet.UpdateCells(ctx, row.Index, changes); err != nil {
		writeError(w, fmt.Errorf("failed to update employee row: %w", err))
		return
	}
	if err := f.employees.Merge(ctx, kgid, docChanges); err != nil {
		writeError(w, err)
		return
	}
	slog.Info("Employee updated.", "kgid", kgid, "fields", len(changes))
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true})
}

// changedViolations keeps only problems with fields the caller is changing,
// so legacy rows stay editable.
func changedViolations(err error, payload map[string]any) error {
	var v directory.Violations
	if !errors.As(err, &v) {
		return err
	}
	kept := directory.Violations{}
	for field, problem := range v {
		if _, ok := payload[field]; ok {
			kept[field] = problem
		}
	}
	return kept.Err()
}

func (f *EmployeeAPIFunction) deleteEmployee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var payload map[string]any
	if err := httpx.DecodeJSON(w, r, maxEmployeeBody, &payload); err != nil {
		writeError(w, err)
		return
	}
	kgid := kgidOf(payload)
	if kgid == "" {
		writeError(w, badRequest("kgid required"))
		return
	}

	row, found, err := sheetdb.FindRow(ctx, f.sheet, "kgid", kgid)
	if err != nil {
		writeError(w, err)
		return
	}
	if !found {
		httpx.JSONError(w, http.StatusNotFound, "Not found", nil)
		return
	}
	if err := f.sheet.DeleteRow(ctx, row.Index); err != nil {
		writeError(w, fmt.Errorf("failed to delete employee row: %w", err))
		return
	}
	if err := f.employees.Delete(ctx, kgid); err != nil && !errors.Is(err, store.ErrNotFound) {
		writeError(w, err)
		return
	}
	slog.Info("Employee deleted.", "kgid", kgid)
	httpx.JSON(w, http.StatusOK, map[string]any{"success": true})
}

func (f *EmployeeAPIFunction) uploadImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	fail := func(err error) {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			slog.Error("Photo upload failed", "error", err)
		}
		httpx.JSON(w, status, models.UploadImageResponse{Success: false, Error: err.Error()})
	}

	if err := f.limiter.Allow(clientKey(r, r.URL.Query().Get("userEmail"))); err != nil {
		fail(err)
		return
	}
	up, err := upload.ParseImageUpload(r)
	if err != nil {
		fail(err)
		return
	}
	if up.Kgid == "" {
		fail(badRequest("kgid is required (form field, query parameter or <kgid>.jpg filename)"))
		return
	}
	logCtx := slog.With("kgid", up.Kgid)

	photo, err := upload.ProcessPhoto(up.Data, upload.PhotoSize)
	if err != nil {
		fail(err)
		return
	}
	name := fmt.Sprintf("employee_%s_%d.jpg", up.Kgid, f.now().UnixMilli())
	obj, err := f.photos.Put(ctx, f.config.ProfileFolderID, name, "image/jpeg", photo)
	if err != nil {
		fail(fmt.Errorf("failed to store photo: %w", err))
		return
	}
	logCtx.Info("Photo stored.", "fileId", obj.ID, "bytes", len(photo))

	// The file is already public; a stale sheet or document only delays the new photo.
	if err := f.setPhotoURL(ctx, up.Kgid, obj.DirectURL); err != nil {
		logCtx.Warn("Failed to record photo URL", "error", err)
	}
	httpx.JSON(w, http.StatusOK, models.UploadImageResponse{Success: true, URL: obj.DirectURL, ID: obj.ID})
}

func (f *EmployeeAPIFunction) setPhotoURL(ctx context.Context, kgid, url string) error {
	var errs []error
	row, found, err := sheetdb.FindRow(ctx, f.sheet, "kgid", kgid)
	switch {
	case err != nil:
		errs = append(errs, err)
	case found:
		if _, err := f.sheet.EnsureColumn(ctx, "photoUrl"); err != nil {
			errs = append(errs, err)
		} else if err := f.sheet.UpdateCells(ctx, row.Index, map[string]any{"photoUrl": url}); err != nil {
			errs = append(errs, err)
		}
	}
	if err := f.employees.Merge(ctx, kgid, map[string]any{"photoUrl": url}); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
