package timeutil

import (
	"strings"
	"time"
)

// Layouts accepted for source-supplied update times, tried in order.
// The portal feed emits "15:04 - 02/01/2006", the device bus emits
// RFC3339, and the external API emits either RFC3339 or a bare
// "2006-01-02 15:04:05".
var sourceLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"15:04 - 02/01/2006",
	"02/01/2006 15:04:05",
}

// Parse interprets a source-native timestamp string. Layouts without
// zone information are taken as wall-clock time in loc; zoned layouts
// are converted into loc. Returns false when no layout matches.
func Parse(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range sourceLayouts {
		if strings.Contains(layout, "Z07") {
			if t, err := time.Parse(layout, raw); err == nil {
				return t.In(loc), true
			}
			continue
		}
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Resolve picks the observation timestamp for a batch: the parsed
// source timestamp when one was supplied, otherwise the current
// wall-clock time in loc. A source timestamp is never replaced by
// the insert-time clock.
func Resolve(raw string, now time.Time, loc *time.Location) time.Time {
	if t, ok := Parse(raw, loc); ok {
		return t
	}
	return now.In(loc)
}
