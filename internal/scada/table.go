package scada

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var channelRefPattern = regexp.MustCompile(`\[(\d+)\]`)

// parseChannelTable extracts channel readings from the portal's table
// view. The page carries several layout tables; the one with the most
// rows is the data grid. Each data row names its channel in the first
// cell ("In channel: [2907]") and its current value under the
// "Current" column.
func parseChannelTable(doc *goquery.Document) []ChannelValue {
	var grid *goquery.Selection
	maxRows := 0
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		if rows := table.Find("tr").Length(); rows > maxRows {
			maxRows = rows
			grid = table
		}
	})
	if grid == nil || maxRows < 2 {
		return nil
	}

	currentCol := -1
	grid.Find("tr").First().Find("th, td").Each(func(i int, cell *goquery.Selection) {
		header := strings.TrimSpace(cell.Text())
		if header == "Current" || header == "Giá trị" {
			currentCol = i
		}
	})

	var values []ChannelValue
	grid.Find("tr").Slice(1, goquery.ToEnd).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() == 0 {
			return
		}

		first := strings.TrimSpace(cells.First().Text())
		m := channelRefPattern.FindStringSubmatch(first)
		if m == nil {
			return
		}
		num, err := strconv.Atoi(m[1])
		if err != nil {
			return
		}

		var text string
		if currentCol >= 0 && currentCol < cells.Length() {
			text = strings.TrimSpace(cells.Eq(currentCol).Text())
		}

		cv := ChannelValue{CnlNum: num, TextWithUnit: text}
		if v := ParseDisplayValue(text); v != nil {
			cv.Val = v
			cv.Stat = 1
		}
		values = append(values, cv)
	})
	return values
}

// ParseDisplayValue parses a channel's formatted display text into a
// number. Thousands separators are stripped ("703,880" -> 703880) and
// a trailing unit is ignored; text with no leading number yields nil.
func ParseDisplayValue(text string) *float64 {
	cleaned := strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	if cleaned == "" {
		return nil
	}

	// Cut a trailing unit ("15.5 m³/h" -> "15.5").
	if i := strings.IndexByte(cleaned, ' '); i > 0 {
		cleaned = cleaned[:i]
	}

	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &f
}
