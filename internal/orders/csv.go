package orders

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"
)

// csvBaseHeader is the fixed part of the export header; extras follow
// as one extra__<field id> column each, in configured order.
var csvBaseHeader = []string{
	"item_id", "name", "created_at", "updated_at",
	"lat", "lng", "address",
	"order_value", "order_value_num",
	"status", "date", "date_parsed",
	"customer", "city", "state", "country",
}

// ExportCSV serializes rows to UTF-8 CSV: header row first, one line
// per row, fetch order preserved.
func ExportCSV(rows []Row, extras []string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := append(append([]string{}, csvBaseHeader...), extraHeaders(extras)...)
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("writing CSV header: %w", err)
	}

	for _, r := range rows {
		record := []string{
			r.ID, r.Name, r.CreatedAt, r.UpdatedAt,
			floatField(r.Lat), floatField(r.Lng), r.Address,
			r.OrderValueRaw, floatField(r.OrderValueNum),
			r.Status, r.Date, dateField(r.DateParsed),
			r.Customer, r.City, r.State, r.Country,
		}
		for _, id := range extras {
			record = append(record, r.Extras[id])
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("writing CSV row %s: %w", r.ID, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing CSV: %w", err)
	}
	return buf.Bytes(), nil
}

func extraHeaders(extras []string) []string {
	out := make([]string, len(extras))
	for i, id := range extras {
		out[i] = "extra__" + id
	}
	return out
}

func floatField(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func dateField(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
