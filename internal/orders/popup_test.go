package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPopupBuilderBuild(t *testing.T) {
	b, err := NewPopupBuilder("", 123, "acme")
	require.NoError(t, err)

	popup, err := b.Build(Row{
		ID:            "77",
		Name:          "Order #77",
		Customer:      "Globex",
		OrderValueNum: fptr(1234567),
		Status:        "Shipped",
		City:          "Denver",
		State:         "CO",
	})
	require.NoError(t, err)

	assert.Contains(t, popup.HTML, "<b>Order #77</b>")
	assert.Contains(t, popup.HTML, "Customer: Globex")
	assert.Contains(t, popup.HTML, "Order Value: $1,234,567")
	assert.Contains(t, popup.HTML, "Location: Denver, CO")
	assert.Contains(t, popup.HTML, "https://acme.monday.com/boards/123/pulses/77")
	assert.Equal(t, "https://acme.monday.com/boards/123/pulses/77", popup.URL)
	assert.Equal(t, "Order #77 • $1,234,567", popup.Tooltip)
}

func TestPopupBuilderEscapesFieldValues(t *testing.T) {
	b, err := NewPopupBuilder("", 1, "")
	require.NoError(t, err)

	popup, err := b.Build(Row{
		ID:       "1",
		Name:     `<script>alert("x")</script>`,
		Customer: "a & b <co>",
	})
	require.NoError(t, err)

	assert.NotContains(t, popup.HTML, "<script>")
	assert.Contains(t, popup.HTML, "&lt;script&gt;")
	assert.Contains(t, popup.HTML, "a &amp; b &lt;co&gt;")
}

func TestPopupBuilderDefaultsToPublicViewHost(t *testing.T) {
	b, err := NewPopupBuilder("", 42, "")
	require.NoError(t, err)

	assert.Equal(t, "https://view.monday.com/boards/42/pulses/9", b.ItemURL("9"))
}

func TestPopupBuilderCustomTemplate(t *testing.T) {
	b, err := NewPopupBuilder(`{{ title }}!`, 1, "")
	require.NoError(t, err)

	popup, err := b.Build(Row{ID: "1", Name: "Hi"})
	require.NoError(t, err)
	assert.Equal(t, "Hi!", popup.HTML)
}

func TestPopupBuilderRejectsBrokenTemplate(t *testing.T) {
	_, err := NewPopupBuilder(`{% if %}`, 1, "")
	assert.Error(t, err)
}

func TestPopupBuilderRawValueWhenUnparsed(t *testing.T) {
	b, err := NewPopupBuilder("", 1, "")
	require.NoError(t, err)

	popup, err := b.Build(Row{ID: "1", Name: "Odd", OrderValueRaw: "TBD"})
	require.NoError(t, err)

	assert.Contains(t, popup.HTML, "Order Value: TBD")
	assert.Equal(t, "Odd • —", popup.Tooltip)
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "—", formatMoney(nil))
	assert.Equal(t, "$0", formatMoney(fptr(0)))
	assert.Equal(t, "$1,000", formatMoney(fptr(999.9)))
	assert.Equal(t, "$12,345,678", formatMoney(fptr(12345678)))
	assert.Equal(t, "-$1,500", formatMoney(fptr(-1500)))
}
