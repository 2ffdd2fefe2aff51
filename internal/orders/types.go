// Package orders turns raw monday.com board items into a flat,
// filterable row table: column resolution, field normalization,
// filtering, nearest-marker lookup, popup payloads and CSV export.
package orders

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
)

// ColumnMap holds the resolved board column IDs for each logical field.
// An empty string means the field could not be resolved; downstream
// extraction then yields absent values instead of failing.
type ColumnMap struct {
	Location   string   `json:"location,omitempty"`
	OrderValue string   `json:"order_value,omitempty"`
	Status     string   `json:"status,omitempty"`
	Date       string   `json:"date,omitempty"`
	Customer   string   `json:"customer,omitempty"`
	City       string   `json:"city,omitempty"`
	State      string   `json:"state,omitempty"`
	Country    string   `json:"country,omitempty"`
	Extras     []string `json:"extras,omitempty"`
}

// FieldIDs returns the sorted set of resolved column IDs. Used to key
// the snapshot cache: a changed column selection must not hit a stale
// cache entry.
func (m ColumnMap) FieldIDs() []string {
	seen := map[string]bool{}
	var ids []string
	for _, id := range append([]string{
		m.Location, m.OrderValue, m.Status, m.Date,
		m.Customer, m.City, m.State, m.Country,
	}, m.Extras...) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Row is one normalized order record. Pointer fields are absent when
// the source column was missing or its value did not parse.
type Row struct {
	ID            string            `json:"item_id"`
	Name          string            `json:"name"`
	CreatedAt     string            `json:"created_at,omitempty"`
	UpdatedAt     string            `json:"updated_at,omitempty"`
	Lat           *float64          `json:"lat,omitempty"`
	Lng           *float64          `json:"lng,omitempty"`
	Address       string            `json:"address,omitempty"`
	OrderValueRaw string            `json:"order_value,omitempty"`
	OrderValueNum *float64          `json:"order_value_num,omitempty"`
	Status        string            `json:"status,omitempty"`
	Date          string            `json:"date,omitempty"`
	DateParsed    *time.Time        `json:"date_parsed,omitempty"`
	Customer      string            `json:"customer,omitempty"`
	City          string            `json:"city,omitempty"`
	State         string            `json:"state,omitempty"`
	Country       string            `json:"country,omitempty"`
	Extras        map[string]string `json:"extras,omitempty"`
}

// Mappable reports whether the row carries plottable coordinates.
func (r Row) Mappable() bool {
	return r.Lat != nil && r.Lng != nil &&
		!math.IsNaN(*r.Lat) && !math.IsInf(*r.Lat, 0) &&
		!math.IsNaN(*r.Lng) && !math.IsInf(*r.Lng, 0)
}

// Valued reports whether the row carries a parsed numeric order value.
func (r Row) Valued() bool {
	return r.OrderValueNum != nil
}

// Snapshot is one full fetch of the board, normalized. Rows keep
// fetch/pagination order. All rows are retained regardless of
// mappability; consumers check Mappable where it matters, so an empty
// board, a board with no mappable rows, and an over-constrained filter
// stay distinguishable.
type Snapshot struct {
	ID        string    `json:"snapshot_id"`
	FetchedAt time.Time `json:"fetched_at"`
	Rows      []Row     `json:"rows"`
	Total     int       `json:"total"`
	Mappable  int       `json:"mappable"`
	Valued    int       `json:"valued"`
	Stale     bool      `json:"stale"`
}

// NewSnapshot wraps normalized rows with identity, timestamp and counts.
func NewSnapshot(rows []Row) *Snapshot {
	s := &Snapshot{
		ID:        uuid.NewString(),
		FetchedAt: time.Now().UTC(),
		Rows:      rows,
		Total:     len(rows),
	}
	for _, r := range rows {
		if r.Mappable() {
			s.Mappable++
		}
		if r.Valued() {
			s.Valued++
		}
	}
	return s
}
