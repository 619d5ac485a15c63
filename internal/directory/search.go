package directory

import (
	"cmp"
	"slices"
	"strings"

	"github.com/Lllllllleong/policedirectory/internal/models"
)

const DefaultSearchLimit = 100

// Base match scores.
const (
	scoreExact    = 1.0
	scorePrefix   = 0.8
	scoreContains = 0.5
)

// Per-field weights applied on top of the base score.
const (
	weightName     = 1.0
	weightID       = 0.95
	weightMobile   = 0.9
	weightRank     = 0.7
	weightStation  = 0.6
	weightMetal    = 0.6
	weightDistrict = 0.5
	weightUnit     = 0.5
	weightEmail    = 0.5
	weightBlood    = 0.4
)

// Result is a search hit with its relevance score.
type Result[T any] struct {
	Item    T        `json:"item"`
	Score   float64  `json:"score"`
	Matched []string `json:"matchedFields,omitempty"`
}

func (r Result[T]) IsExactMatch() bool    { return r.Score >= 1.0 }
func (r Result[T]) IsHighRelevance() bool { return r.Score >= 0.7 }

type field struct {
	name   string
	weight float64
	values []string
}

func fieldScore(q string, values ...string) float64 {
	best := 0.0
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		switch {
		case v == q:
			return scoreExact
		case strings.HasPrefix(v, q):
			best = max(best, scorePrefix)
		case strings.Contains(v, q):
			best = max(best, scoreContains)
		}
	}
	return best
}

// score returns the best weighted score across fields and every field that matched.
func score(q string, fields []field) (float64, []string) {
	best := 0.0
	var matched []string
	for _, f := range fields {
		s := fieldScore(q, f.values...) * f.weight
		if s > 0 {
			matched = append(matched, f.name)
			best = max(best, s)
		}
	}
	return best, matched
}

func employeeFields(e models.Employee, filter string) []field {
	name := field{"name", weightName, []string{e.Name}}
	id := field{"kgid", weightID, []string{e.Kgid}}
	mobile := field{"mobile", weightMobile, []string{e.Mobile1, e.Mobile2}}
	rank := field{"rank", weightRank, []string{e.Rank}}
	station := field{"station", weightStation, []string{e.Station}}
	district := field{"district", weightDistrict, []string{e.District}}

	switch strings.ToLower(filter) {
	case "name":
		return []field{name}
	case "kgid", "id":
		return []field{id}
	case "mobile":
		return []field{mobile}
	case "rank":
		return []field{rank}
	case "station":
		return []field{station}
	case "district":
		return []field{district}
	case "metal", "metalnumber":
		return []field{{"metalNumber", weightMetal, []string{e.MetalNumber}}}
	case "blood", "bloodgroup":
		return []field{{"bloodGroup", weightBlood, []string{e.BloodGroup}}}
	case "email":
		return []field{{"email", weightEmail, []string{e.Email}}}
	case "unit":
		return []field{{"unit", weightUnit, []string{EffectiveUnit(e.Unit, e.Station)}}}
	default:
		return []field{name, id, mobile, rank, station, district,
			{"unit", weightUnit, []string{EffectiveUnit(e.Unit, e.Station)}}}
	}
}

func officerFields(o models.Officer, filter string) []field {
	name := field{"name", weightName, []string{o.Name}}
	id := field{"agid", weightID, []string{o.Agid}}
	mobile := field{"mobile", weightMobile, []string{o.Mobile, o.Landline}}
	rank := field{"rank", weightRank, []string{o.Rank}}

	switch strings.ToLower(filter) {
	case "name":
		return []field{name}
	case "agid", "id":
		return []field{id}
	case "mobile":
		return []field{mobile}
	case "rank":
		return []field{rank}
	case "station":
		return []field{{"station", weightStation, []string{o.Station}}}
	case "district":
		return []field{{"district", weightDistrict, []string{o.District}}}
	default:
		return []field{name, id, mobile, rank}
	}
}

func search[T any](items []T, query string, limit int, fields func(T) []field) []Result[T] {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	q := strings.ToLower(strings.TrimSpace(query))
	var results []Result[T]
	if q == "" {
		for _, it := range items {
			results = append(results, Result[T]{Item: it, Score: 1.0})
		}
	} else {
		for _, it := range items {
			if s, matched := score(q, fields(it)); s > 0 {
				results = append(results, Result[T]{Item: it, Score: s, Matched: matched})
			}
		}
		slices.SortStableFunc(results, func(a, b Result[T]) int {
			return cmp.Compare(b.Score, a.Score)
		})
	}
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// SearchEmployees ranks employees against query. filter selects a single
// field ("name", "kgid", "mobile", "rank", "station", "district", "metal",
// "blood", "email", "unit"); anything else searches all of them.
func SearchEmployees(employees []models.Employee, query, filter string, limit int) []Result[models.Employee] {
	return search(employees, query, limit, func(e models.Employee) []field {
		return employeeFields(e, filter)
	})
}

// SearchOfficers ranks officers against query, see SearchEmployees.
func SearchOfficers(officers []models.Officer, query, filter string, limit int) []Result[models.Officer] {
	return search(officers, query, limit, func(o models.Officer) []field {
		return officerFields(o, filter)
	})
}
