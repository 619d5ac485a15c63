package directory

import (
	"fmt"
	"net/mail"
	"regexp"
	"slices"
	"strings"

	"github.com/Lllllllleong/policedirectory/internal/models"
	"github.com/Lllllllleong/policedirectory/internal/refdata"
)

// Violations maps a field name to the rule it broke.
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

func (v Violations) Error() string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, v[k])
	}
	return "invalid record: " + strings.Join(parts, ", ")
}

// Err returns v as an error, or nil when there is nothing to report.
func (v Violations) Err() error {
	if v.Empty() {
		return nil
	}
	return v
}

var (
	kgidPattern   = regexp.MustCompile(`^[0-9A-Za-z]{3,20}$`)
	mobilePattern = regexp.MustCompile(`^[6-9][0-9]{9}$`)
)

func required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

func checkMobile(field, value string, v Violations) {
	if value == "" {
		return
	}
	if !mobilePattern.MatchString(NormalizeMobile(value)) {
		v[field] = "invalid_mobile"
	}
}

func checkEmail(value string, v Violations) {
	if value == "" {
		return
	}
	if _, err := mail.ParseAddress(value); err != nil {
		v["email"] = "invalid_email"
	}
}

// ValidateEmployee checks e against the posting rules of its rank.
func ValidateEmployee(e models.Employee) error {
	v := Violations{}
	required("kgid", e.Kgid, v)
	required("name", e.Name, v)
	required("rank", e.Rank, v)

	if e.Kgid != "" && !kgidPattern.MatchString(e.Kgid) {
		v["kgid"] = "invalid_kgid"
	}
	if e.Rank != "" && !refdata.IsKnownRank(e.Rank) {
		v["rank"] = "unknown_rank"
	}
	checkEmail(e.Email, v)
	checkMobile("mobile1", e.Mobile1, v)
	checkMobile("mobile2", e.Mobile2, v)

	if refdata.RequiresMetalNumber(e.Rank) {
		required("metalNumber", e.MetalNumber, v)
	}
	if !refdata.IsHighRanking(e.Rank) {
		required("district", e.District, v)
		if e.District != "" && !refdata.IsKnownDistrict(e.District) {
			v["district"] = "unknown_district"
		}
		if !refdata.IsMinisterial(e.Rank) {
			required("station", e.Station, v)
		}
	}
	if e.BloodGroup != "" && !refdata.IsKnownBloodGroup(e.BloodGroup) {
		v["bloodGroup"] = "unknown_blood_group"
	}
	return v.Err()
}

// ValidateOfficer checks the fields an officer row cannot do without.
func ValidateOfficer(o models.Officer) error {
	v := Violations{}
	required("name", o.Name, v)
	required("rank", o.Rank, v)
	checkMobile("mobile", o.Mobile, v)
	checkEmail(o.Email, v)
	return v.Err()
}

// Details exposes the field map for JSON error responses.
func (v Violations) Details() any { return map[string]string(v) }
