package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/policedirectory/internal/httpx"
	"github.com/Lllllllleong/policedirectory/internal/models"
	"github.com/Lllllllleong/policedirectory/internal/sheetdb"
	"github.com/Lllllllleong/policedirectory/internal/store"
)

func TestCoerceCell(t *testing.T) {
	tests := []struct {
		column string
		in     any
		want   any
		ok     bool
	}{
		{"name", nil, nil, false},
		{"name", "   ", nil, false},
		{"name", " Ravi ", "Ravi", true},
		{"isApproved", "TRUE", true, true},
		{"isApproved", "no", false, true},
		{"isDeleted", float64(1), true, true},
		{"mobile1", "9876543210", int64(9876543210), true},
		{"mobile1", float64(9876543210), int64(9876543210), true},
		{"mobile2", "98765 43210", "98765 43210", true},
		{"experience", "2.5", 2.5, true},
		{"kgid", float64(123456), int64(123456), true},
		{"rank", "PC", "PC", true},
		{"age", 41, int64(41), true},
		{"isActive", false, false, true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s=%v", tt.column, tt.in), func(t *testing.T) {
			got, ok := CoerceCell(tt.column, tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRowDocumentSkipsEmptyCells(t *testing.T) {
	doc := RowDocument(sheetdb.Row{Values: map[string]any{
		"kgid": "123456", "name": "Ravi", "mobile2": nil, "": "stray", "landline": "0820 2520333",
	}})
	assert.Equal(t, map[string]any{"kgid": "123456", "name": "Ravi", "landline": "0820 2520333"}, doc)
}

// failingEmployees rejects merges for the listed KGIDs.
type failingEmployees struct {
	store.Employees
	fail map[string]bool
}

func (f failingEmployees) Merge(ctx context.Context, kgid string, fields map[string]any) error {
	if f.fail[kgid] {
		return errors.New("deadline exceeded")
	}
	return f.Employees.Merge(ctx, kgid, fields)
}

func employeeSheet() *sheetdb.MemoryTable {
	return sheetdb.NewMemoryTable("kgid", "name", "mobile1", "rank", "isApproved", "district").Seed(
		[]any{float64(123456), "Ravi Kumar", float64(9876543210), "HC", "TRUE", "Udupi"},
		[]any{"", "Blank Row", "", "", "", ""},
		[]any{"222222", "Suresh Rao", "9988776655", "PSI", false, "Mysuru"},
		[]any{"333333", "Broken Row", "", "PC", "", ""},
	)
}

func TestSheetSyncProcess(t *testing.T) {
	mem := store.NewMemory(fixedNow)
	var snapshots []string
	var snapshot map[string]map[string]any
	archive := func(ctx context.Context, objectName, contentType string, data []byte) (bool, error) {
		snapshots = append(snapshots, objectName)
		assert.Equal(t, "application/json", contentType)
		require.NoError(t, json.Unmarshal(data, &snapshot))
		return true, nil
	}
	f := NewSheetSyncWith(SheetSyncConfig{SheetName: "Emp Profiles"}, employeeSheet(),
		failingEmployees{mem.Employees, map[string]bool{"333333": true}}, mem.SyncStatus, archive)
	f.now = fixedNow

	res, err := f.Process(t.Context())
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 4, res.Total)
	assert.Equal(t, 2, res.Uploaded)
	assert.Equal(t, 1, res.Errors)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "333333", res.Failures[0].ID)
	assert.Equal(t, "employees/20250314T093000Z.json", res.Snapshot)
	assert.Equal(t, []string{res.Snapshot}, snapshots)
	assert.Len(t, snapshot, 2)

	doc := mem.Doc(store.EmployeesCollection, "123456")
	assert.Equal(t, int64(9876543210), doc["mobile1"])
	assert.Equal(t, true, doc["isApproved"])
	assert.Equal(t, "123456", doc["kgid"])
	assert.Equal(t, testNow, doc["updatedAt"])

	e, err := mem.Employees.Get(t.Context(), "123456")
	require.NoError(t, err)
	assert.Equal(t, "9876543210", e.Mobile1, "numeric mobiles read back as text")

	suresh, err := mem.Employees.Get(t.Context(), "222222")
	require.NoError(t, err)
	assert.False(t, suresh.IsApproved)

	status := mem.Doc(store.SyncStatusCollection, "employees")
	assert.Equal(t, "done", status["state"])
	assert.Equal(t, 2, status["uploaded"])
	assert.Equal(t, 1, status["errors"])
	assert.Equal(t, 4, status["currentRow"])
}

func TestSheetSyncMissingKgidColumn(t *testing.T) {
	sheet := sheetdb.NewMemoryTable("name", "rank").Seed([]any{"Ravi", "HC"})
	f := NewSheetSyncWith(SheetSyncConfig{SheetName: "Emp Profiles"}, sheet, store.NewMemory(fixedNow).Employees, nil, nil)
	_, err := f.Process(t.Context())
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httpx.StatusOf(err))
	assert.Contains(t, err.Error(), "kgid column not found")
}

func TestSheetSyncHTTP(t *testing.T) {
	mem := store.NewMemory(fixedNow)
	f := NewSheetSyncWith(SheetSyncConfig{APIToken: testToken}, employeeSheet(), mem.Employees, mem.SyncStatus, nil)

	rec := serve(t, f, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, mem.Doc(store.EmployeesCollection, "123456"))

	rec = serve(t, f, http.MethodGet, "/", testToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decodeBody[models.SheetSyncResponse](t, rec)
	assert.Equal(t, 3, res.Uploaded)
	assert.Empty(t, res.Snapshot, "no bucket configured")
}
