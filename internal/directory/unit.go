package directory

import "strings"

const DefaultUnit = "Law & Order"

type unitRule struct {
	unit     string
	keywords []string
}

// Evaluated in order; the first rule with a keyword in the station name wins.
var unitRules = []unitRule{
	{"Traffic", []string{"traffic"}},
	{"Control Room", []string{"control room"}},
	{"CEN Crime / Cyber", []string{"cen", "cencrime", "cyber"}},
	{"Women Police", []string{"women"}},
	{"DPO / Admin", []string{"dpo", "computer", "admin", "office"}},
	{"DAR", []string{"dar"}},
	{"DCRB", []string{"dcrb"}},
	{"DSB / Intelligence", []string{"dsb", "intelligence", "int"}},
	{"Special Units", []string{"fpb", "mcu", "smmc", "dcre", "lokayukta", "escom"}},
}

// EffectiveUnit returns the explicit unit when set, otherwise derives one
// from keywords in the station name. Keywords match whole words, so
// "Sadar Bazar PS" stays Law & Order.
func EffectiveUnit(unit, station string) string {
	if u := strings.TrimSpace(unit); u != "" {
		return u
	}
	w := words(station)
	for _, rule := range unitRules {
		for _, kw := range rule.keywords {
			if strings.Contains(w, " "+kw+" ") {
				return rule.unit
			}
		}
	}
	return DefaultUnit
}
