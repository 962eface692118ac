package models

import (
	"strconv"
	"strings"
	"time"
)

// DateTimeLayout is the canonical layout of datetime cells.
const DateTimeLayout = "2006-01-02 15:04:05"

// dateLayouts are the textual layouts accepted when reading datetimes.
var dateLayouts = []string{
	DateTimeLayout,
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006",
	"1/2/06 15:04",
	"1/2/06",
	"02-01-2006",
}

// ParseDateTime parses s using the accepted datetime layouts.
func ParseDateTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDateTime renders t in the canonical layout.
func FormatDateTime(t time.Time) string {
	return t.Format(DateTimeLayout)
}

// ParseNumber parses s as a float.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// FormatNumber renders f in the shortest form that parses back to f.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ParseBool parses the spellings of a boolean found in lab sheets.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "yes", "y", "1", "oui", "vrai":
		return true, true
	case "false", "f", "no", "n", "0", "non", "faux":
		return false, true
	}
	return false, false
}

// FormatBool renders b as True or False.
func FormatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
