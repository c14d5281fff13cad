package devicebus

import (
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/hydronet/water-monitor/internal/store"
)

// Coordinate is a device's fixed installation position.
type Coordinate struct {
	Lat float64
	Lng float64
}

// ParseCoordinates reads a device coordinate table from its
// configuration form: semicolon-separated "device=lat,lng" entries,
// e.g. "G30A=9.176,105.150;GS1_NM2=9.181,105.152". Empty input yields
// an empty table; a malformed entry is an error rather than a silent
// gap, since a typo here would strip a station off the map.
func ParseCoordinates(raw string) (map[string]Coordinate, error) {
	coords := make(map[string]Coordinate)
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		device, pos, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("coordinate entry %q: want device=lat,lng", entry)
		}
		latStr, lngStr, ok := strings.Cut(pos, ",")
		if !ok {
			return nil, fmt.Errorf("coordinate entry %q: want device=lat,lng", entry)
		}

		lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
		if err != nil {
			return nil, fmt.Errorf("coordinate entry %q: bad latitude: %w", entry, err)
		}
		lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
		if err != nil {
			return nil, fmt.Errorf("coordinate entry %q: bad longitude: %w", entry, err)
		}

		coords[strings.TrimSpace(device)] = Coordinate{Lat: lat, Lng: lng}
	}
	return coords, nil
}

// Accumulator keeps the last-seen value of every parameter per device.
// Broker frames are partial: one frame may carry a single tag for one
// device, so persisting frames directly would scatter a station's
// parameters across rows with holes. The accumulator folds frames into
// complete per-device state and hands out full batches instead.
type Accumulator struct {
	mu          sync.Mutex
	coordinates map[string]Coordinate
	devices     map[string]*deviceState
}

type deviceState struct {
	lastUpdate string
	params     map[string]paramState
}

type paramState struct {
	value float64
}

// NewAccumulator builds an empty accumulator. coordinates maps device
// codes to installation positions and may be nil.
func NewAccumulator(coordinates map[string]Coordinate) *Accumulator {
	return &Accumulator{
		coordinates: coordinates,
		devices:     make(map[string]*deviceState),
	}
}

// Apply folds one decoded message into the per-device state and
// returns the number of samples absorbed. Tags that do not parse, or
// samples without a value, are skipped.
func (a *Accumulator) Apply(msg Message) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	applied := 0
	for _, tv := range msg.Data {
		if tv.Value == nil {
			continue
		}
		device, parameterType, ok := ParseTag(tv.Tag)
		if !ok {
			log.Printf("[MQTT] skipping unparseable tag %q", tv.Tag)
			continue
		}

		st, ok := a.devices[device]
		if !ok {
			st = &deviceState{params: make(map[string]paramState)}
			a.devices[device] = st
			if _, hasCoords := a.coordinates[device]; !hasCoords {
				log.Printf("[MQTT] no coordinates configured for device %s (%s)", device, StationName(device))
			}
		}

		st.params[parameterType] = paramState{value: *tv.Value}
		st.lastUpdate = msg.Timestamp
		applied++
	}
	return applied
}

// Batch snapshots the accumulated state as one writable batch, one
// StationReadings per device, devices in stable order.
func (a *Accumulator) Batch() []store.StationReadings {
	a.mu.Lock()
	defer a.mu.Unlock()

	codes := make([]string, 0, len(a.devices))
	for code := range a.devices {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	batch := make([]store.StationReadings, 0, len(codes))
	for _, code := range codes {
		st := a.devices[code]

		types := make([]string, 0, len(st.params))
		for pt := range st.params {
			types = append(types, pt)
		}
		sort.Strings(types)

		readings := store.StationReadings{
			Name:       StationName(code),
			DeviceName: code,
			UpdateTime: st.lastUpdate,
		}
		if c, ok := a.coordinates[code]; ok {
			lat, lng := c.Lat, c.Lng
			readings.Lat, readings.Lng = &lat, &lng
		}
		for _, pt := range types {
			v := st.params[pt].value
			readings.Parameters = append(readings.Parameters, store.ParameterReading{
				Name:  ParameterName(pt),
				Value: &v,
				Unit:  ParameterUnit(pt),
			})
		}
		batch = append(batch, readings)
	}
	return batch
}

// DeviceCount reports how many devices have been observed.
func (a *Accumulator) DeviceCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.devices)
}
