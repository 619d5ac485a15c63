package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/policedirectory/internal/cache"
	"github.com/Lllllllleong/policedirectory/internal/importer"
	"github.com/Lllllllleong/policedirectory/internal/models"
	"github.com/Lllllllleong/policedirectory/internal/sheetdb"
)

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"sync", "pull", "search", "export", "import", "stations"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)
	assert.NotNil(t, cmd.PersistentFlags().Lookup("cache"))
}

// run executes the CLI with args and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func TestSyncRejectsUnknownTarget(t *testing.T) {
	_, err := run(t, "sync", "vehicles")
	assert.Error(t, err)
}

func TestStations(t *testing.T) {
	out, err := run(t, "stations", "Udupi")
	require.NoError(t, err)
	assert.Contains(t, strings.Split(strings.TrimSpace(out), "\n"), "Malpe PS")

	_, err = run(t, "stations", "Atlantis")
	assert.Error(t, err)
}

func TestSearchAndExportFromCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	c, err := cache.Open(path)
	require.NoError(t, err)
	require.NoError(t, c.ReplaceEmployees(t.Context(), []models.Employee{
		{Kgid: "123456", Name: "Ravi Kumar", Rank: "HC", District: "Udupi", Station: "Malpe PS", Mobile1: "9876543210"},
		{Kgid: "222222", Name: "Suresh Rao", Rank: "PSI", District: "Mysuru", Station: "Nazarbad PS"},
	}))
	require.NoError(t, c.ReplaceOfficers(t.Context(), []models.Officer{
		{Agid: "AGID0001", Name: "Anil Hegde", Rank: "SP", District: "Udupi"},
	}))
	require.NoError(t, c.Close())

	out, err := run(t, "--cache", path, "search", "ravi")
	require.NoError(t, err)
	assert.Contains(t, out, "123456")
	assert.NotContains(t, out, "222222")

	out, err = run(t, "--cache", path, "search", "--officers", "anil")
	require.NoError(t, err)
	assert.Contains(t, out, "AGID0001")

	xlsx := filepath.Join(t.TempDir(), "udupi.xlsx")
	out, err = run(t, "--cache", path, "export", "--out", xlsx, "--district", "Udupi")
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 1 employees")
}

func TestSearchEmptyCache(t *testing.T) {
	_, err := run(t, "--cache", filepath.Join(t.TempDir(), "empty.db"), "search", "ravi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pmdctl pull")
}

const importCSV = `KGID,Name,Rank,Metal No,District,Station,Mobile
654321,meena shetty,PC,777,Udupi,Kaup PS,9988776655
7890,Nobody,XYZ,,Udupi,,123
222222,Suresh Rao,HC,12,Udupi,Malpe PS,
654321,Meena Again,PC,778,Udupi,Kaup PS,
`

func TestAppendEmployees(t *testing.T) {
	rows, err := importer.ReadRows(strings.NewReader(importCSV), "staff.csv")
	require.NoError(t, err)

	sheet := sheetdb.NewMemoryTable(models.EmployeeColumns...).Seed([]any{"222222", "Suresh Rao"})
	var report bytes.Buffer
	sum, err := appendEmployees(t.Context(), sheet, importer.Employees(rows), &report)
	require.NoError(t, err)
	assert.Equal(t, importSummary{Added: 1, Invalid: 1, Duplicate: 2}, sum)
	assert.Contains(t, report.String(), "line 3:")
	assert.Contains(t, report.String(), "line 4: kgid 222222 already exists")
	assert.Contains(t, report.String(), "line 5: kgid 654321 already exists")

	got, err := sheet.Rows(t.Context())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Meena Shetty", got[1].String("name"))
	assert.Equal(t, "Kaup PS", got[1].String("station"))
}

func TestAppendEmployeesCreatesHeader(t *testing.T) {
	sheet := sheetdb.NewMemoryTable()
	sum, err := appendEmployees(t.Context(), sheet, []importer.Record{
		{Line: 2, Employee: models.Employee{Kgid: "654321", Name: "Meena Shetty", Rank: "PC"}},
	}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Added)

	header, err := sheet.Header(t.Context())
	require.NoError(t, err)
	assert.Equal(t, models.EmployeeColumns, header)
}
