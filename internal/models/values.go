package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Sheets (UNFORMATTED_VALUE) and Firestore both hand back loosely typed
// cells: numbers arrive as float64 or int64, flags as bools or strings.
// These helpers fold them into the Go field types.

func stringValue(m map[string]any, key string) string {
	return StringOf(m[key])
}

// StringOf renders a cell value as a trimmed string. Whole floats lose their
// ".0" so numeric mobiles and ids read back unchanged.
func StringOf(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return ""
	}
}

func boolValue(m map[string]any, key string, fallback bool) bool {
	v, ok := m[key]
	if !ok || v == nil {
		return fallback
	}
	return BoolOf(v)
}

// BoolOf accepts bools, "true"/"1"/"yes" strings and non-zero numbers.
func BoolOf(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		return s == "true" || s == "1" || s == "yes"
	case float64:
		return t != 0
	case int64:
		return t != 0
	case int:
		return t != 0
	default:
		return false
	}
}

func timeValue(m map[string]any, key string) time.Time {
	switch t := m[key].(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed
		}
	case float64:
		// Sheets returns dates as serial day numbers under UNFORMATTED_VALUE.
		if parsed, err := excelize.ExcelDateToTime(t, false); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
