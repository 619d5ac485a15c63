package importer

import (
	"strings"
	"unicode"

	"github.com/Lllllllleong/policedirectory/internal/directory"
	"github.com/Lllllllleong/policedirectory/internal/models"
)

// headerAliases maps folded spreadsheet headings to employee fields.
var headerAliases = map[string]string{
	"kgid":          "kgid",
	"kgidno":        "kgid",
	"name":          "name",
	"fullname":      "name",
	"email":         "email",
	"emailid":       "email",
	"mobile":        "mobile1",
	"mobile1":       "mobile1",
	"mobileno":      "mobile1",
	"mobile2":       "mobile2",
	"altmobile":     "mobile2",
	"landline":      "landline",
	"landline2":     "landline2",
	"rank":          "rank",
	"designation":   "rank",
	"metalnumber":   "metalNumber",
	"metalno":       "metalNumber",
	"district":      "district",
	"station":       "station",
	"policestation": "station",
	"unit":          "unit",
	"bloodgroup":    "bloodGroup",
	"photourl":      "photoUrl",
}

func foldHeader(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(h) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Record is one imported row. Line is the 1-based sheet row, header included.
type Record struct {
	Line     int
	Employee models.Employee
	Err      error
}

// Employees maps rows (header first) to validated employee records. Blank
// rows are skipped; unknown columns are ignored.
func Employees(rows [][]string) []Record {
	if len(rows) == 0 {
		return nil
	}
	fields := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		fields[i] = headerAliases[foldHeader(h)]
	}

	var out []Record
	for i, row := range rows[1:] {
		values := map[string]any{}
		for c, cell := range row {
			if c >= len(fields) || fields[c] == "" {
				continue
			}
			if v := strings.TrimSpace(cell); v != "" {
				values[fields[c]] = v
			}
		}
		if len(values) == 0 {
			continue
		}

		e := models.EmployeeFromMap("", values)
		e.Name = directory.NormalizeName(e.Name)
		e.Email = directory.NormalizeEmail(e.Email)
		if m := directory.NormalizeMobile(e.Mobile1); m != "" {
			e.Mobile1 = m
		}
		if m := directory.NormalizeMobile(e.Mobile2); m != "" {
			e.Mobile2 = m
		}
		out = append(out, Record{Line: i + 2, Employee: e, Err: directory.ValidateEmployee(e)})
	}
	return out
}
