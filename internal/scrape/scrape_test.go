package scrape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testStrategies = []Strategy{
	{
		Name:       "detail-table",
		Rows:       "table.holdings tr.item",
		Branch:     "td.branch",
		CallNumber: "td.call",
		Status:     "td.status",
		Collection: "td.collection",
	},
	{
		Name:   "summary-cards",
		Rows:   "div.item-card",
		Branch: "span.location",
		Status: "span.availability",
	},
}

func TestApplyFirstStrategyWins(t *testing.T) {
	page := `<html><body>
<table class="holdings">
  <tr class="item">
    <td class="branch">Central Library</td>
    <td class="call">FIC ATW</td>
    <td class="status">Available</td>
    <td class="collection">Adult Fiction</td>
  </tr>
  <tr class="item">
    <td class="branch">George Bothwell Branch</td>
    <td class="call">FIC ATW</td>
    <td class="status">Due 2026-09-12</td>
  </tr>
</table>
<div class="item-card"><span class="location">ignored</span><span class="availability">ignored</span></div>
</body></html>`

	doc, err := Parse([]byte(page))
	require.NoError(t, err)

	rows := Apply(doc, testStrategies)
	require.Len(t, rows, 2)
	assert.Equal(t, "detail-table", rows[0].Strategy)
	assert.Equal(t, "Central Library", rows[0].Branch)
	assert.Equal(t, "FIC ATW", rows[0].CallNumber)
	assert.Equal(t, "Available", rows[0].Status)
	assert.Equal(t, "Adult Fiction", rows[0].Collection)
	assert.Equal(t, "Due 2026-09-12", rows[1].Status)
}

func TestApplyFallsBackToLaterStrategy(t *testing.T) {
	page := `<html><body>
<div class="item-card">
  <span class="location">Warman Branch</span>
  <span class="availability">Checked out</span>
</div>
</body></html>`

	doc, err := Parse([]byte(page))
	require.NoError(t, err)

	rows := Apply(doc, testStrategies)
	require.Len(t, rows, 1)
	assert.Equal(t, "summary-cards", rows[0].Strategy)
	assert.Equal(t, "Warman Branch", rows[0].Branch)
	assert.Equal(t, "Checked out", rows[0].Status)
}

func TestApplyNoMatchYieldsNoRows(t *testing.T) {
	doc, err := Parse([]byte(`<html><body><p>No results found.</p></body></html>`))
	require.NoError(t, err)
	assert.Empty(t, Apply(doc, testStrategies))
}

func TestApplySkipsNoiseRows(t *testing.T) {
	// Header rows match the row selector but carry neither branch nor status.
	page := `<html><body>
<table class="holdings">
  <tr class="item"><td class="header">Location</td></tr>
  <tr class="item">
    <td class="branch">Central Library</td>
    <td class="status">Available</td>
  </tr>
</table>
</body></html>`

	doc, err := Parse([]byte(page))
	require.NoError(t, err)

	rows := Apply(doc, testStrategies)
	require.Len(t, rows, 1)
	assert.Equal(t, "Central Library", rows[0].Branch)
}

func TestCollapse(t *testing.T) {
	assert.Equal(t, "FIC ATW 2019", Collapse("  FIC\n  ATW \t 2019  "))
	assert.Equal(t, "Central Library", Collapse("Central  Library"))
	assert.Equal(t, "", Collapse("   \n\t  "))
}
