package orders

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ignite/orders-map/internal/monday"
)

// Normalize flattens one raw board item into a Row using the resolved
// column map. It is a pure function: field-level parse failures yield
// absent fields, never errors, and the same input always produces the
// same output.
func Normalize(item monday.Item, cm ColumnMap) Row {
	values := make(map[string]monday.ColumnValue, len(item.ColumnValues))
	for _, cv := range item.ColumnValues {
		values[cv.ID] = cv
	}

	text := func(id string) string {
		if id == "" {
			return ""
		}
		return values[id].Text
	}

	row := Row{
		ID:        item.ID,
		Name:      item.Name,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
		Status:    text(cm.Status),
		Customer:  text(cm.Customer),
		City:      text(cm.City),
		State:     text(cm.State),
		Country:   text(cm.Country),
	}

	if cm.Location != "" {
		loc := values[cm.Location]
		row.Lat, row.Lng, row.Address = ParseLocation(loc.Value, loc.Text)
	}

	if cm.OrderValue != "" {
		row.OrderValueRaw = values[cm.OrderValue].Text
		row.OrderValueNum = ParseMoney(row.OrderValueRaw)
	}

	if cm.Date != "" {
		row.Date = values[cm.Date].Text
		row.DateParsed = ParseDate(row.Date)
	}

	for _, id := range cm.Extras {
		cv, ok := values[id]
		if !ok {
			continue
		}
		if row.Extras == nil {
			row.Extras = make(map[string]string, len(cm.Extras))
		}
		row.Extras[id] = cv.Text
	}

	return row
}

// ParseLocation extracts coordinates from a location column. The
// structured JSON value wins when it carries both a lat and a lng key;
// otherwise the display text is tried as "lat,lng" (split on the FIRST
// comma). Anything unparsable means no coordinates, never an error.
// The address is only available on the structured path.
func ParseLocation(raw json.RawMessage, text string) (lat, lng *float64, address string) {
	if len(raw) > 0 && string(raw) != "null" {
		var obj map[string]any
		if err := json.Unmarshal(raw, &obj); err == nil {
			latV, hasLat := obj["lat"]
			lngV, hasLng := obj["lng"]
			if hasLat && hasLng {
				la, okLat := coerceFloat(latV)
				ln, okLng := coerceFloat(lngV)
				if okLat && okLng {
					addr, _ := obj["address"].(string)
					return &la, &ln, addr
				}
			}
		}
	}

	if idx := strings.Index(text, ","); idx >= 0 {
		latS := strings.TrimSpace(text[:idx])
		lngS := strings.TrimSpace(text[idx+1:])
		la, errLat := strconv.ParseFloat(latS, 64)
		ln, errLng := strconv.ParseFloat(lngS, 64)
		if errLat == nil && errLng == nil && isFinite(la) && isFinite(ln) {
			return &la, &ln, ""
		}
	}

	return nil, nil, ""
}

// coerceFloat accepts the two encodings monday uses for coordinates:
// JSON numbers and numeric strings. Non-finite values are rejected.
func coerceFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, isFinite(x)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil && isFinite(f)
	default:
		return 0, false
	}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// firstNumber matches the first numeric substring of a currency text,
// so "Total: 1200.50 USD" still yields a value.
var firstNumber = regexp.MustCompile(`\d+(?:\.\d+)?`)

// ParseMoney parses a currency display text into a number. Currency
// symbols ($), thousands separators and spaces are stripped; an empty
// remainder is absent; a failed direct parse falls back to the first
// numeric substring. Unparsable text is absent, never an error.
func ParseMoney(text string) *float64 {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(text)
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return nil
	}

	if v, err := strconv.ParseFloat(cleaned, 64); err == nil && isFinite(v) {
		return &v
	}

	if m := firstNumber.FindString(cleaned); m != "" {
		if v, err := strconv.ParseFloat(m, 64); err == nil && isFinite(v) {
			return &v
		}
	}

	return nil
}

// dateLayouts are tried in order. Calendar dates only; times are
// truncated away.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"01/02/2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// ParseDate parses a display text into a calendar date (UTC midnight).
// Absent or unparsable text yields nil, never an error.
func ParseDate(text string) *time.Time {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d
		}
	}
	return nil
}

// BuildTable normalizes every item, keeping fetch order. All rows are
// retained; mappability is the consumer's concern (see Snapshot).
func BuildTable(items []monday.Item, cm ColumnMap) []Row {
	rows := make([]Row, 0, len(items))
	for _, item := range items {
		rows = append(rows, Normalize(item, cm))
	}
	return rows
}
