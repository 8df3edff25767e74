package dataset

import (
	"sort"

	"github.com/rotisserie/eris"
)

// Collection is the immutable, year-ascending ordered incident sequence.
// Built once at load time; read-only for the rest of the session.
type Collection struct {
	incidents []Incident
	byYear    map[int][]Incident
	minYear   int
	maxYear   int
}

// NewCollection sorts the incidents by year ascending and indexes them by
// year. Duplicate IDs fail the load: ID is the reconciliation key and must
// be unique within the collection.
func NewCollection(incidents []Incident) (*Collection, error) {
	seen := make(map[string]struct{}, len(incidents))
	for _, in := range incidents {
		if _, dup := seen[in.ID]; dup {
			return nil, eris.Errorf("dataset: duplicate incident id %q", in.ID)
		}
		seen[in.ID] = struct{}{}
	}

	sorted := make([]Incident, len(incidents))
	copy(sorted, incidents)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Year < sorted[j].Year })

	c := &Collection{
		incidents: sorted,
		byYear:    make(map[int][]Incident),
	}
	for _, in := range sorted {
		c.byYear[in.Year] = append(c.byYear[in.Year], in)
	}
	if len(sorted) > 0 {
		c.minYear = sorted[0].Year
		c.maxYear = sorted[len(sorted)-1].Year
	}
	return c, nil
}

// Len returns the number of incidents.
func (c *Collection) Len() int { return len(c.incidents) }

// All returns the full year-ascending sequence. Callers must not mutate it.
func (c *Collection) All() []Incident { return c.incidents }

// ByYear returns the incidents whose year equals y. Years with no matches,
// including years outside [MinYear, MaxYear], return the empty set.
func (c *Collection) ByYear(y int) []Incident { return c.byYear[y] }

// MinYear returns the earliest incident year, or 0 for an empty collection.
func (c *Collection) MinYear() int { return c.minYear }

// MaxYear returns the latest incident year, or 0 for an empty collection.
func (c *Collection) MaxYear() int { return c.maxYear }

// Years returns the distinct years present, ascending.
func (c *Collection) Years() []int {
	years := make([]int, 0, len(c.byYear))
	for y := range c.byYear {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}
