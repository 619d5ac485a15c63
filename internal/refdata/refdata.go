// Package refdata holds the static lookup tables used by the directory:
// ranks, blood groups, districts, functional units and stations.
package refdata

import (
	"slices"
	"strings"
)

var ranks = sortedCopy([]string{
	"APC", "CPC", "WPC", "PCW", "PC", "AHC", "CHC", "WHC", "HCW", "HC",
	"ASI", "ARSI", "WASI", "ASIW", "RSI", "PSI", "WPSI", "PSIW",
	"RPI", "CPI", "PI", "PIW", "WPI", "DYSP", "SDA", "FDA", "SS",
	"GHA", "AO", "Typist", "Steno", "PA",
	"DG & IGP", "ADGP", "IGP", "DIG", "Commandant", "DCP", "SP", "Addl SP",
})

var bloodGroups = sortedCopy([]string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-", "??"})

var districts = sortedCopy([]string{
	"Bagalkot", "Ballari", "Belagavi City", "Belagavi Dist", "Bengaluru City", "Bengaluru Dist", "Bidar",
	"Chamarajanagar", "Chikkaballapura", "Chikkamagaluru", "Chitradurga",
	"Dakshina Kannada", "Davanagere", "Dharwad", "Gadag", "Hassan", "Haveri",
	"Hubballi Dharwad City", "K.G.F", "Kalaburagi", "Kalaburagi City", "Kodagu", "Kolar", "Koppal", "Mandya",
	"Mangaluru City", "Mysuru City", "Mysuru Dist",
	"Raichur", "Ramanagara", "Shivamogga", "Tumakuru", "Udupi", "Uttara Kannada",
	"Vijayanagara", "Vijayapura", "Yadgir",
})

var units = []string{
	"Admin", "ASC Team", "BDDS", "C Room", "CAR", "CCB", "CCRB", "CDR", "CEN", "CID",
	"Coast Guard", "Computer", "Court", "CSB", "CSP", "DAR", "DCIB", "DCRB", "DCRE",
	"Dog Squad", "DSB", "ERSS", "ESCOM", "Excise", "Fire", "Forest", "FPB", "FRRO",
	"FSL", "Guest House", "Health", "Home Guard", "INT", "ISD", "KSRP", "Lokayukta", "L&O",
	"Ministrial", "Others", "Prison", "PTS", "Railway", "RTO",
	"S INT", "SCRB", "Social Media", "State INT", "Toll", "Traffic", "VVIP", "Wireless",
}

var ksrpBattalions = sortedCopy([]string{
	"1st Bn – Bengaluru", "2nd Bn – Belagavi", "3rd Bn – Bengaluru", "4th Bn – Bengaluru",
	"5th Bn – Mysuru", "6th Bn – Kalaburagi", "7th Bn – Mangaluru", "8th Bn – Shivamogga",
	"9th Bn – Bengaluru", "10th Bn – Shiggavi", "11th Bn – Hassan", "12th Bn – Tumakuru",
})

var stateIntSections = sortedCopy([]string{
	"District HQ", "Current Affairs", "Social Affairs", "C/Room", "Computer",
	"Administration (Store, EST, ACCTS, Admin)", "SITA", "BDDS", "VIP Sec",
	"Airport Surveiilance", "IAD",
})

var metalNumberRanks = setOf("APC", "CPC", "WPC", "PC", "AHC", "CHC", "WHC", "HC")

// Office staff; matched case-insensitively.
var ministerialRanks = setOf("SDA", "FDA", "SS", "STENO", "PA", "GHA", "AO", "AAO", "TYPIST")

var highRankingOfficers = setOf("DG & IGP", "ADGP", "IGP", "DIG", "Commandant", "DCP", "SP", "Addl SP")

var policeStationRanks = setOf("CPC", "WPC", "CHC", "WHC", "ASI", "PSI", "WASI", "WPSI", "CPI", "PI", "WPI")

func Ranks() []string            { return slices.Clone(ranks) }
func BloodGroups() []string      { return slices.Clone(bloodGroups) }
func Districts() []string        { return slices.Clone(districts) }
func Units() []string            { return slices.Clone(units) }
func KSRPBattalions() []string   { return slices.Clone(ksrpBattalions) }
func StateIntSections() []string { return slices.Clone(stateIntSections) }

// RequiresMetalNumber reports whether constables and head constables of rank
// must carry a metal (badge) number.
func RequiresMetalNumber(rank string) bool {
	_, ok := metalNumberRanks[strings.TrimSpace(rank)]
	return ok
}

func IsMinisterial(rank string) bool {
	_, ok := ministerialRanks[strings.ToUpper(strings.TrimSpace(rank))]
	return ok
}

// IsHighRanking officers need neither district nor station.
func IsHighRanking(rank string) bool {
	_, ok := highRankingOfficers[strings.TrimSpace(rank)]
	return ok
}

// IsPoliceStationRank reports whether rank is posted to PS stations.
func IsPoliceStationRank(rank string) bool {
	_, ok := policeStationRanks[strings.TrimSpace(rank)]
	return ok
}

func IsKnownRank(rank string) bool {
	return contains(ranks, strings.TrimSpace(rank))
}

func IsKnownDistrict(district string) bool {
	return contains(districts, strings.TrimSpace(district))
}

func IsKnownBloodGroup(group string) bool {
	return contains(bloodGroups, strings.ToUpper(strings.TrimSpace(group)))
}

func sortedCopy(in []string) []string {
	out := slices.Clone(in)
	slices.Sort(out)
	return out
}

func setOf(values ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(values))
	for _, v := range values {
		m[v] = struct{}{}
	}
	return m
}

func contains(sorted []string, v string) bool {
	_, found := slices.BinarySearch(sorted, v)
	return found
}
