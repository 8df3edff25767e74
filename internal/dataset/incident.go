// Package dataset loads and normalizes the incident table and exposes the
// immutable in-memory collection the map is drawn from.
package dataset

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// Incident is one recorded mass-shooting event.
type Incident struct {
	ID        string  `json:"id"`
	Location  string  `json:"location"`
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
	Victims   int     `json:"victims"`
	Year      int     `json:"year"`
}

// Valid reports whether the incident survived row normalization: defined
// coordinates, a defined year, and a non-negative victim count. Invalid
// incidents are dropped at load time.
func (in Incident) Valid() bool {
	return !math.IsNaN(in.Longitude) && !math.IsNaN(in.Latitude) &&
		in.Year != 0 && in.Victims >= 0
}

// Column names are fixed contract strings of the incident table.
// normalizeCol makes matching tolerant of case and separator drift
// ("Total Victims" vs "total_victims").
const (
	colCase      = "case"
	colLocation  = "location"
	colDate      = "date"
	colLatitude  = "latitude"
	colLongitude = "longitude"
	colVictims   = "total victims"
)

// dateLayouts are tried in order when deriving the incident year.
var dateLayouts = []string{
	"1/2/2006",
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
}

// idNamespace seeds deterministic fallback IDs so a row without a case
// identifier keys the same shape across reloads.
var idNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("incident-map"))

// parseRow normalizes one raw row into an Incident. It never fails: bad
// numeric fields become NaN / -1 sentinels and an unparseable date yields
// year 0, leaving the drop decision to the caller.
func parseRow(cols map[string]int, row []string) Incident {
	in := Incident{
		ID:        field(cols, row, colCase),
		Location:  normalizeLabel(field(cols, row, colLocation)),
		Longitude: parseFloatOrNaN(field(cols, row, colLongitude)),
		Latitude:  parseFloatOrNaN(field(cols, row, colLatitude)),
		Victims:   parseIntOr(field(cols, row, colVictims), -1),
		Year:      parseYear(field(cols, row, colDate)),
	}

	if in.ID == "" {
		key := strings.Join(row, "|")
		in.ID = uuid.NewSHA1(idNamespace, []byte(key)).String()
	}

	return in
}

func field(cols map[string]int, row []string, name string) string {
	idx, ok := cols[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// normalizeCol lowercases and collapses separators for cross-format column
// matching: "Total_Victims" → "total victims".
func normalizeCol(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")
	return strings.Join(strings.Fields(s), " ")
}

// mapColumns builds a normalized column name → index map from the header row.
func mapColumns(header []string) map[string]int {
	m := make(map[string]int, len(header))
	for i, col := range header {
		m[normalizeCol(col)] = i
	}
	return m
}

// normalizeLabel NFC-normalizes a free-text location label and collapses
// internal whitespace. Labels come from hand-edited spreadsheets.
func normalizeLabel(s string) string {
	s = norm.NFC.String(s)
	return strings.Join(strings.Fields(s), " ")
}

// parseFloatOrNaN parses a coordinate field, returning NaN when the value is
// empty or non-numeric so one malformed row never aborts the batch.
func parseFloatOrNaN(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// parseIntOr parses an integer field, returning def if parsing fails.
// Victim counts in the source occasionally carry annotations ("8+"); the
// leading digits are taken when present.
func parseIntOr(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	digits := leadingDigits(s)
	if digits == "" {
		return def
	}
	v, err := strconv.Atoi(digits)
	if err != nil {
		return def
	}
	return v
}

func leadingDigits(s string) string {
	for i, r := range s {
		if r < '0' || r > '9' {
			return s[:i]
		}
	}
	return s
}

// parseYear derives the calendar year from the date field. Returns 0 when no
// layout matches; such records never match any integer year filter.
func parseYear(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Year()
		}
	}
	return 0
}
