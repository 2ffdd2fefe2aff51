package orders

import (
	"fmt"

	"github.com/ignite/orders-map/internal/config"
	"github.com/ignite/orders-map/internal/monday"
)

// ResolveColumns maps the configured logical fields to board column
// IDs. Each configured value is matched first as an exact column ID,
// then as an exact column title, so operators can use whichever is
// handy. Unresolved fields come back as warnings, never errors: a
// board with no resolvable location column still runs, it just has no
// mappable rows.
func ResolveColumns(cols []monday.Column, cfg config.ColumnsConfig) (ColumnMap, []string) {
	byID := make(map[string]monday.Column, len(cols))
	byTitle := make(map[string]monday.Column, len(cols))
	for _, c := range cols {
		byID[c.ID] = c
		// First title wins on duplicates
		if _, ok := byTitle[c.Title]; !ok {
			byTitle[c.Title] = c
		}
	}

	var warnings []string

	resolve := func(field, configured string, required bool) string {
		if configured == "" {
			return ""
		}
		if c, ok := byID[configured]; ok {
			return c.ID
		}
		if c, ok := byTitle[configured]; ok {
			return c.ID
		}
		if required {
			warnings = append(warnings, fmt.Sprintf(
				"required column %q (%s) not found on board; rows will have no %s", configured, field, field))
		} else {
			warnings = append(warnings, fmt.Sprintf(
				"column %q (%s) not found on board; field will be empty", configured, field))
		}
		return ""
	}

	m := ColumnMap{
		Location:   resolve("location", cfg.Location, true),
		OrderValue: resolve("order_value", cfg.OrderValue, true),
		Status:     resolve("status", cfg.Status, false),
		Date:       resolve("date", cfg.Date, false),
		Customer:   resolve("customer", cfg.Customer, false),
		City:       resolve("city", cfg.City, false),
		State:      resolve("state", cfg.State, false),
		Country:    resolve("country", cfg.Country, false),
	}

	for _, extra := range cfg.Extras {
		if id := resolve("extra", extra, false); id != "" {
			m.Extras = append(m.Extras, id)
		}
	}

	return m, warnings
}
