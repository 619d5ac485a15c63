package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "officer@ksp.gov.in", NormalizeEmail("  Officer@KSP.gov.in "))
	assert.Equal(t, "a@b.in", NormalizeEmail("a@b.in "), "non-breaking space")
	assert.Equal(t, "a@b.in", NormalizeEmail("​a@b.in"), "zero width space")
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "Ravi Kumar", NormalizeName("  RAVI   kumar "))
	assert.Equal(t, "", NormalizeName("   "))
}

func TestNormalizeMobile(t *testing.T) {
	tests := map[string]string{
		"98765 43210":     "9876543210",
		"+91 98765-43210": "9876543210",
		"09876543210":     "9876543210",
		"080-2222":        "0802222",
		"":                "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeMobile(in), in)
	}
}

func TestEffectiveUnit(t *testing.T) {
	tests := []struct {
		unit, station, want string
	}{
		{"CID", "Udupi Town PS", "CID"},
		{"", "Udupi Traffic PS", "Traffic"},
		{"", "Control Room Udupi", "Control Room"},
		{"", "Udupi CEN Crime PS", "CEN Crime / Cyber"},
		{"", "Kalaburagi City CENCrime PS", "CEN Crime / Cyber"},
		{"", "Udupi Women PS", "Women Police"},
		{"", "Computer Sec Udupi", "DPO / Admin"},
		{"", "DAR Udupi", "DAR"},
		{"", "DCRB Udupi", "DCRB"},
		{"", "State INT Udupi", "DSB / Intelligence"},
		{"", "ESCOM Udupi", "Special Units"},
		{"", "Malpe PS", "Law & Order"},
		{"", "Sadar Bazar PS", "Law & Order"},
		{"", "", "Law & Order"},
	}
	for _, tt := range tests {
		t.Run(tt.station, func(t *testing.T) {
			assert.Equal(t, tt.want, EffectiveUnit(tt.unit, tt.station))
		})
	}
}
