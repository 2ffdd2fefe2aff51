package orders

import (
	"fmt"
	"html"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/osteele/liquid"
)

// defaultPopupTemplate renders the marker popup. All bindings are
// HTML-escaped before the template runs, so the template itself only
// deals with layout.
const defaultPopupTemplate = `<b>{{ title }}</b>` +
	`{% for f in fields %}<br>{{ f.label }}: {{ f.value }}{% endfor %}` +
	`{% if url != "" %}<br><a target="_blank" href="{{ url }}">Open in monday</a>{% endif %}`

// Popup is the payload the map client attaches to one marker.
type Popup struct {
	HTML    string `json:"html"`
	Tooltip string `json:"tooltip"`
	URL     string `json:"url,omitempty"`
}

// PopupBuilder renders popup payloads from rows. The template is
// parsed once; rendering is then cheap per row.
type PopupBuilder struct {
	tmpl      *liquid.Template
	boardID   int64
	subdomain string
}

// NewPopupBuilder compiles the popup template (the built-in one when
// tmpl is empty) and captures the deep-link parameters.
func NewPopupBuilder(tmpl string, boardID int64, subdomain string) (*PopupBuilder, error) {
	if tmpl == "" {
		tmpl = defaultPopupTemplate
	}
	parsed, err := liquid.NewEngine().ParseTemplate([]byte(tmpl))
	if err != nil {
		return nil, fmt.Errorf("parsing popup template: %w", err)
	}
	return &PopupBuilder{tmpl: parsed, boardID: boardID, subdomain: subdomain}, nil
}

// BoardURL is the deep link to the source board. Without a configured
// subdomain the public view.monday.com host is used.
func (b *PopupBuilder) BoardURL() string {
	host := "view.monday.com"
	if b.subdomain != "" {
		host = b.subdomain + ".monday.com"
	}
	return fmt.Sprintf("https://%s/boards/%d", host, b.boardID)
}

// ItemURL is the deep link back to one record on the board.
func (b *PopupBuilder) ItemURL(itemID string) string {
	return fmt.Sprintf("%s/pulses/%s", b.BoardURL(), itemID)
}

// Build renders the popup for one row: escaped field list, deep link
// and a short tooltip.
func (b *PopupBuilder) Build(row Row) (Popup, error) {
	fields := popupFields(row)
	escaped := make([]map[string]string, len(fields))
	for i, f := range fields {
		escaped[i] = map[string]string{
			"label": html.EscapeString(f[0]),
			"value": html.EscapeString(f[1]),
		}
	}

	bindings := map[string]any{
		"title":  html.EscapeString(row.Name),
		"fields": escaped,
		"url":    b.ItemURL(row.ID),
	}

	out, err := b.tmpl.Render(bindings)
	if err != nil {
		return Popup{}, fmt.Errorf("rendering popup for item %s: %w", row.ID, err)
	}

	return Popup{
		HTML:    string(out),
		Tooltip: fmt.Sprintf("%s • %s", row.Name, formatMoney(row.OrderValueNum)),
		URL:     b.ItemURL(row.ID),
	}, nil
}

// popupFields lists the label/value pairs shown in the popup, in
// display order, absent fields omitted.
func popupFields(row Row) [][2]string {
	var fields [][2]string
	add := func(label, value string) {
		if value != "" {
			fields = append(fields, [2]string{label, value})
		}
	}

	add("Customer", row.Customer)
	if row.OrderValueNum != nil {
		add("Order Value", formatMoney(row.OrderValueNum))
	} else {
		add("Order Value", row.OrderValueRaw)
	}
	add("Status", row.Status)
	add("Date", row.Date)
	var cityState []string
	for _, part := range []string{row.City, row.State} {
		if part != "" {
			cityState = append(cityState, part)
		}
	}
	add("Location", strings.Join(cityState, ", "))
	add("Address", row.Address)
	for _, id := range sortedKeys(row.Extras) {
		add(id, row.Extras[id])
	}
	return fields
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// formatMoney renders a value as whole dollars with thousands
// separators, "—" when absent. Matches the dashboard's KPI format.
func formatMoney(v *float64) string {
	if v == nil {
		return "—"
	}
	n := int64(math.Round(*v))
	neg := n < 0
	if neg {
		n = -n
	}
	s := strconv.FormatInt(n, 10)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	if neg {
		return "-$" + s
	}
	return "$" + s
}
