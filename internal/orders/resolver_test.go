package orders

import (
	"testing"

	"github.com/ignite/orders-map/internal/config"
	"github.com/ignite/orders-map/internal/monday"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boardColumns() []monday.Column {
	return []monday.Column{
		{ID: "location_1", Title: "Location", Type: "location"},
		{ID: "numbers_1", Title: "Order Value", Type: "numbers"},
		{ID: "status_1", Title: "Status", Type: "status"},
		{ID: "date_1", Title: "Date", Type: "date"},
		{ID: "text_1", Title: "Customer", Type: "text"},
	}
}

func TestResolveColumnsByIDFirst(t *testing.T) {
	// "location_1" is both the ID of one column and, pathologically,
	// could be a title of another; ID match must win.
	cols := append(boardColumns(), monday.Column{ID: "other", Title: "location_1", Type: "text"})

	m, warnings := ResolveColumns(cols, config.ColumnsConfig{
		Location:   "location_1",
		OrderValue: "Order Value",
	})

	assert.Empty(t, warnings)
	assert.Equal(t, "location_1", m.Location)
	assert.Equal(t, "numbers_1", m.OrderValue)
}

func TestResolveColumnsByTitle(t *testing.T) {
	m, warnings := ResolveColumns(boardColumns(), config.ColumnsConfig{
		Location:   "Location",
		OrderValue: "Order Value",
		Status:     "Status",
		Date:       "Date",
		Customer:   "Customer",
	})

	assert.Empty(t, warnings)
	assert.Equal(t, "location_1", m.Location)
	assert.Equal(t, "numbers_1", m.OrderValue)
	assert.Equal(t, "status_1", m.Status)
	assert.Equal(t, "date_1", m.Date)
	assert.Equal(t, "text_1", m.Customer)
}

func TestResolveColumnsDuplicateTitleFirstWins(t *testing.T) {
	cols := append(boardColumns(), monday.Column{ID: "status_2", Title: "Status", Type: "status"})

	m, _ := ResolveColumns(cols, config.ColumnsConfig{Status: "Status"})

	assert.Equal(t, "status_1", m.Status)
}

func TestResolveColumnsMissingRequiredWarns(t *testing.T) {
	m, warnings := ResolveColumns(boardColumns(), config.ColumnsConfig{
		Location:   "No Such Column",
		OrderValue: "Order Value",
	})

	assert.Empty(t, m.Location)
	assert.Equal(t, "numbers_1", m.OrderValue)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "required column")
	assert.Contains(t, warnings[0], "No Such Column")
}

func TestResolveColumnsExtras(t *testing.T) {
	m, warnings := ResolveColumns(boardColumns(), config.ColumnsConfig{
		Extras: []string{"text_1", "Date", "missing"},
	})

	assert.Equal(t, []string{"text_1", "date_1"}, m.Extras)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "missing")
}

func TestResolveColumnsUnconfiguredFieldsSilent(t *testing.T) {
	m, warnings := ResolveColumns(boardColumns(), config.ColumnsConfig{})

	assert.Empty(t, warnings)
	assert.Empty(t, m.Location)
	assert.Empty(t, m.FieldIDs())
}

func TestFieldIDsSortedAndDeduped(t *testing.T) {
	m := ColumnMap{
		Location:   "b",
		OrderValue: "a",
		Status:     "b",
		Extras:     []string{"c", "a"},
	}

	assert.Equal(t, []string{"a", "b", "c"}, m.FieldIDs())
}
