package scada

import (
	"log"
	"sort"

	"github.com/hydronet/water-monitor/internal/store"
)

// Group folds channel readings into per-station batches using the
// channel mapping table. Channels without a mapping are logged and
// skipped; a channel with no parseable value keeps its display text so
// the row is stored with a null value rather than dropped. Portal
// stations carry no coordinates.
func Group(values []ChannelValue) []store.StationReadings {
	byStation := make(map[string][]store.ParameterReading)
	for _, cv := range values {
		ch, ok := LookupChannel(cv.CnlNum)
		if !ok {
			log.Printf("[SCADA] skipping unmapped channel %d (%q)", cv.CnlNum, cv.TextWithUnit)
			continue
		}

		reading := store.ParameterReading{
			Name:        ch.Parameter,
			Unit:        ch.Unit,
			DisplayText: cv.TextWithUnit,
		}
		if cv.Val != nil {
			v := *cv.Val
			reading.Value = &v
		}
		byStation[ch.Station] = append(byStation[ch.Station], reading)
	}

	names := make([]string, 0, len(byStation))
	for name := range byStation {
		names = append(names, name)
	}
	sort.Strings(names)

	batch := make([]store.StationReadings, 0, len(names))
	for _, name := range names {
		batch = append(batch, store.StationReadings{
			Name:       name,
			Parameters: byStation[name],
		})
	}
	return batch
}
