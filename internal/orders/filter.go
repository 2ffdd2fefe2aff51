package orders

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/schema"
)

var queryDecoder = schema.NewDecoder()

func init() {
	queryDecoder.IgnoreUnknownKeys(true)
}

// FilterState is one request's worth of filter parameters. The zero
// value matches every row.
type FilterState struct {
	MinValue *float64 `schema:"min_value"`
	MaxValue *float64 `schema:"max_value"`

	// Statuses is the selected status set. StatusFiltered records
	// whether a status filter was supplied at all: absent means the
	// predicate is vacuously true, present-but-empty selects nothing.
	Statuses       []string `schema:"status"`
	StatusFiltered bool     `schema:"-"`

	From *time.Time `schema:"-"`
	To   *time.Time `schema:"-"`

	// Query is a case-insensitive substring matched against name,
	// customer, city, address and every extra field.
	Query string `schema:"q"`
}

// FilterFromQuery decodes a FilterState from URL query parameters:
// min_value, max_value, status (repeatable), from, to (dates), q.
func FilterFromQuery(values url.Values) (FilterState, error) {
	var f FilterState

	if err := queryDecoder.Decode(&f, values); err != nil {
		return FilterState{}, fmt.Errorf("invalid filter parameters: %w", err)
	}

	// gorilla/schema cannot tell an absent key from an empty one, and
	// the distinction carries meaning here.
	_, f.StatusFiltered = values["status"]
	f.Statuses = compactStatuses(f.Statuses)

	if raw := strings.TrimSpace(values.Get("from")); raw != "" {
		f.From = ParseDate(raw)
		if f.From == nil {
			return FilterState{}, fmt.Errorf("invalid filter parameters: unparsable date %q", raw)
		}
	}
	if raw := strings.TrimSpace(values.Get("to")); raw != "" {
		f.To = ParseDate(raw)
		if f.To == nil {
			return FilterState{}, fmt.Errorf("invalid filter parameters: unparsable date %q", raw)
		}
	}

	f.Query = strings.TrimSpace(f.Query)
	return f, nil
}

func compactStatuses(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Apply filters the table with the conjunction of all configured
// predicates. Order is preserved, rows are never duplicated.
func Apply(rows []Row, f FilterState) []Row {
	// The date range only constrains when the table has parsed dates
	// at all; a board without a usable date column ignores it.
	anyDates := false
	if f.From != nil || f.To != nil {
		for _, r := range rows {
			if r.DateParsed != nil {
				anyDates = true
				break
			}
		}
	}

	statusSet := make(map[string]bool, len(f.Statuses))
	for _, s := range f.Statuses {
		statusSet[s] = true
	}

	query := strings.ToLower(f.Query)

	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if !matchValue(r, f) {
			continue
		}
		if f.StatusFiltered && !statusSet[r.Status] {
			continue
		}
		if anyDates && !matchDate(r, f) {
			continue
		}
		if query != "" && !matchQuery(r, query) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// matchValue checks the inclusive value range. Rows without a parsed
// value count as 0, so they pass only when the range includes 0.
func matchValue(r Row, f FilterState) bool {
	if f.MinValue == nil && f.MaxValue == nil {
		return true
	}
	v := 0.0
	if r.OrderValueNum != nil {
		v = *r.OrderValueNum
	}
	if f.MinValue != nil && v < *f.MinValue {
		return false
	}
	if f.MaxValue != nil && v > *f.MaxValue {
		return false
	}
	return true
}

func matchDate(r Row, f FilterState) bool {
	if r.DateParsed == nil {
		return false
	}
	d := *r.DateParsed
	if f.From != nil && d.Before(*f.From) {
		return false
	}
	if f.To != nil && d.After(*f.To) {
		return false
	}
	return true
}

func matchQuery(r Row, query string) bool {
	for _, field := range []string{r.Name, r.Customer, r.City, r.Address} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	for _, v := range r.Extras {
		if strings.Contains(strings.ToLower(v), query) {
			return true
		}
	}
	return false
}
