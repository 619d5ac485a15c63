package directory

import (
	"strings"

	"github.com/Lllllllleong/policedirectory/internal/models"
)

// Filter narrows a listing. Empty fields match everything.
type Filter struct {
	District      string
	Station       string
	Rank          string
	Unit          string
	IncludeHidden bool
}

func eq(want, got string) bool {
	return want == "" || strings.EqualFold(strings.TrimSpace(want), strings.TrimSpace(got))
}

func (f Filter) Match(e models.Employee) bool {
	if e.IsHidden && !f.IncludeHidden {
		return false
	}
	return eq(f.District, e.District) &&
		eq(f.Station, e.Station) &&
		eq(f.Rank, e.Rank) &&
		eq(f.Unit, EffectiveUnit(e.Unit, e.Station))
}

func FilterEmployees(employees []models.Employee, f Filter) []models.Employee {
	out := make([]models.Employee, 0, len(employees))
	for _, e := range employees {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	return out
}
