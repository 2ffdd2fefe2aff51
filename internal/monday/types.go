package monday

import "encoding/json"

// graphQLRequest is the body of every call to the monday.com API.
type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// graphQLError is a single entry of the "errors" list in a response.
type graphQLError struct {
	Message string `json:"message"`
}

// graphQLResponse is the envelope of every monday.com API response.
type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// Column describes one board column: its internal identifier, the
// human-readable title shown in the UI, and the column type.
type Column struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

// ColumnValue is the raw value of one column on one item. Text is the
// display text; Value is the column's raw JSON payload (may be null).
type ColumnValue struct {
	ID    string          `json:"id"`
	Text  string          `json:"text"`
	Value json.RawMessage `json:"value"`
}

// Item is one raw board record as returned by items_page.
type Item struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	CreatedAt    string        `json:"created_at"`
	UpdatedAt    string        `json:"updated_at"`
	ColumnValues []ColumnValue `json:"column_values"`
}

// itemsPage is one page of the cursor-paginated item listing. A null
// or empty cursor marks the final page.
type itemsPage struct {
	Cursor *string `json:"cursor"`
	Items  []Item  `json:"items"`
}

type columnsData struct {
	Boards []struct {
		Columns []Column `json:"columns"`
	} `json:"boards"`
}

type itemsData struct {
	Boards []struct {
		ItemsPage itemsPage `json:"items_page"`
	} `json:"boards"`
}
