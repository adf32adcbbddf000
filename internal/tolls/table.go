package tolls

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// RateTable is the static registry of toll facilities. It is loaded once
// per process, read-only thereafter, and safe for any number of
// concurrent readers. Updating a rate means redeploying the table.
type RateTable struct {
	facilities map[string]Facility
	ids        []string
	matchers   []facilityMatcher
}

type facilityMatcher struct {
	id       string
	patterns []*regexp.Regexp
}

// NewRateTable builds a registry from the configured facilities,
// compiling their road-name patterns up front.
func NewRateTable(facilities []Facility) (*RateTable, error) {
	t := &RateTable{
		facilities: make(map[string]Facility, len(facilities)),
	}

	for _, f := range facilities {
		if f.ID == "" {
			return nil, fmt.Errorf("facility with empty id")
		}
		if _, dup := t.facilities[f.ID]; dup {
			return nil, fmt.Errorf("duplicate facility id %q", f.ID)
		}
		if !f.RatePerMile.IsPositive() {
			return nil, fmt.Errorf("facility %q: base rate must be positive, got %s", f.ID, f.RatePerMile)
		}
		switch f.Mode {
		case PricingFixed:
		case PricingDynamic:
			if f.Dynamic == nil {
				return nil, fmt.Errorf("facility %q: dynamic pricing declared without parameters", f.ID)
			}
		default:
			return nil, fmt.Errorf("facility %q: unknown pricing mode %q", f.ID, f.Mode)
		}

		m := facilityMatcher{id: f.ID}
		for _, p := range f.Patterns {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				return nil, fmt.Errorf("facility %q: pattern %q: %w", f.ID, p, err)
			}
			m.patterns = append(m.patterns, re)
		}

		t.facilities[f.ID] = f
		t.ids = append(t.ids, f.ID)
		t.matchers = append(t.matchers, m)
	}

	sort.Strings(t.ids)
	return t, nil
}

// Lookup resolves a facility by id.
func (t *RateTable) Lookup(id string) (Facility, error) {
	f, ok := t.facilities[id]
	if !ok {
		return Facility{}, fmt.Errorf("%w: %q", ErrUnknownFacility, id)
	}
	return f, nil
}

// Match identifies the toll facility a road name belongs to, if any.
// Road names that match nothing are untolled.
func (t *RateTable) Match(roadName string) (Facility, bool) {
	name := strings.ToLower(strings.TrimSpace(roadName))
	if name == "" {
		return Facility{}, false
	}
	for _, m := range t.matchers {
		for _, re := range m.patterns {
			if re.MatchString(name) {
				return t.facilities[m.id], true
			}
		}
	}
	return Facility{}, false
}

// Facilities returns the registered facilities in id order.
func (t *RateTable) Facilities() []Facility {
	out := make([]Facility, 0, len(t.ids))
	for _, id := range t.ids {
		out = append(out, t.facilities[id])
	}
	return out
}

// Len returns the number of registered facilities.
func (t *RateTable) Len() int {
	return len(t.facilities)
}
