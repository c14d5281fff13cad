package scada

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDisplayValue(t *testing.T) {
	cases := []struct {
		text string
		want *float64
	}{
		{"703,880", f(703880)},
		{"15.5", f(15.5)},
		{"15.5 m³/h", f(15.5)},
		{"  7.2  ", f(7.2)},
		{"", nil},
		{"---", nil},
		{"N/A", nil},
	}
	for _, c := range cases {
		got := ParseDisplayValue(c.text)
		if c.want == nil {
			assert.Nil(t, got, "text %q", c.text)
		} else {
			require.NotNil(t, got, "text %q", c.text)
			assert.Equal(t, *c.want, *got, "text %q", c.text)
		}
	}
}

func f(v float64) *float64 { return &v }

func TestGroupFoldsChannelsIntoStations(t *testing.T) {
	batch := Group([]ChannelValue{
		{CnlNum: 2907, Val: f(15.5), TextWithUnit: "15.5", Stat: 1},
		{CnlNum: 2910, Val: f(1234.5), TextWithUnit: "1,234.5", Stat: 1},
		{CnlNum: 2902, Val: f(12.8), TextWithUnit: "12.8", Stat: 1},
		{CnlNum: 9999, Val: f(1), TextWithUnit: "1", Stat: 1}, // unmapped
	})

	require.Len(t, batch, 2)
	// Alphabetical: GIẾNG SỐ 4 NM2 before GIẾNG SỐ 5 NM1.
	assert.Equal(t, "GIẾNG SỐ 4 NM2", batch[0].Name)
	require.Len(t, batch[0].Parameters, 1)
	assert.Equal(t, "Mực nước", batch[0].Parameters[0].Name)

	assert.Equal(t, "GIẾNG SỐ 5 NM1", batch[1].Name)
	require.Len(t, batch[1].Parameters, 2)
	assert.Nil(t, batch[1].Lat)
}

func TestGroupKeepsValuelessChannel(t *testing.T) {
	batch := Group([]ChannelValue{
		{CnlNum: 2930, Val: nil, TextWithUnit: "---", Stat: 0},
	})

	require.Len(t, batch, 1)
	require.Len(t, batch[0].Parameters, 1)
	assert.Nil(t, batch[0].Parameters[0].Value)
	assert.Equal(t, "---", batch[0].Parameters[0].DisplayText)
}

func TestChannelNumbersSortedAndComplete(t *testing.T) {
	nums := ChannelNumbers()
	require.NotEmpty(t, nums)
	for i := 1; i < len(nums); i++ {
		assert.Greater(t, nums[i], nums[i-1])
	}
	_, ok := LookupChannel(nums[0])
	assert.True(t, ok)
}

func TestParseChannelTable(t *testing.T) {
	html := `
	<html><body>
	<table><tr><td>nav</td></tr></table>
	<table>
		<tr><th>Item</th><th>Name</th><th>Current</th></tr>
		<tr><td>In channel: [2907]</td><td>Mực nước G5</td><td>15.5</td></tr>
		<tr><td>In channel: [2910]</td><td>Tổng G5</td><td>703,880</td></tr>
		<tr><td>In channel: [2930]</td><td>pH G5</td><td></td></tr>
		<tr><td>footer row without channel</td><td></td><td></td></tr>
	</table>
	</body></html>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	values := parseChannelTable(doc)
	require.Len(t, values, 3)

	assert.Equal(t, 2907, values[0].CnlNum)
	require.NotNil(t, values[0].Val)
	assert.Equal(t, 15.5, *values[0].Val)
	assert.Equal(t, 1, values[0].Stat)

	require.NotNil(t, values[1].Val)
	assert.Equal(t, 703880.0, *values[1].Val)

	assert.Nil(t, values[2].Val)
	assert.Equal(t, 0, values[2].Stat)
}
