package store

import "time"

// SourceKind identifies which origin system produced a reading. Each
// kind owns its own fact table; the three tables share a shape but
// are never joined.
type SourceKind string

const (
	// SourceExternal is the polled third-party monitoring API.
	SourceExternal SourceKind = "EXTERNAL"
	// SourceDeviceBus is the MQTT device bus.
	SourceDeviceBus SourceKind = "MQTT"
	// SourceScada is the scraped SCADA portal.
	SourceScada SourceKind = "SCADA"
)

// Kinds lists every source kind in a stable order.
var Kinds = []SourceKind{SourceExternal, SourceDeviceBus, SourceScada}

func (k SourceKind) table() string {
	switch k {
	case SourceExternal:
		return "external_data"
	case SourceDeviceBus:
		return "mqtt_data"
	case SourceScada:
		return "scada_data"
	}
	return ""
}

func (k SourceKind) idPrefix() string {
	switch k {
	case SourceExternal:
		return "ext"
	case SourceDeviceBus:
		return "mqtt"
	case SourceScada:
		return "scada"
	}
	return ""
}

// Valid reports whether k is one of the three known kinds.
func (k SourceKind) Valid() bool {
	return k.table() != ""
}

// ParameterReading is one (parameter, value, unit) tuple inside a
// station batch. Value may be nil when the source emitted display
// text only; DisplayText then carries the raw text for extraction.
type ParameterReading struct {
	Name        string
	Value       *float64
	DisplayText string
	Unit        string
}

// StationReadings is one station's slice of an ingestion batch, as
// delivered by a collaborator (poller, device-bus listener, crawler).
type StationReadings struct {
	Name       string
	DeviceName string
	Lat        *float64
	Lng        *float64
	// UpdateTime is the source-native timestamp, raw. Empty means
	// the source supplied none and the wall clock is used.
	UpdateTime string
	Parameters []ParameterReading
}

// Reading is one persisted fact row, tagged with its source kind.
type Reading struct {
	ID            int64      `json:"id"`
	StationName   string     `json:"station_name"`
	StationID     string     `json:"station_id"`
	DeviceName    *string    `json:"device_name,omitempty"`
	ParameterName string     `json:"parameter_name"`
	Value         *float64   `json:"value"`
	Unit          string     `json:"unit"`
	Timestamp     time.Time  `json:"timestamp"`
	UpdateTime    *string    `json:"update_time,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	Source        SourceKind `json:"source"`
}

// Station is one dimension row from the station registry.
type Station struct {
	ID        int64      `json:"id"`
	StationID string     `json:"station_id"`
	Name      string     `json:"station_name"`
	Kind      SourceKind `json:"station_type"`
	Lat       *float64   `json:"latitude,omitempty"`
	Lng       *float64   `json:"longitude,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ParameterLiveness is the per-parameter slice of a liveness record.
type ParameterLiveness struct {
	Name           string `json:"name"`
	DistinctValues int    `json:"distinctValues"`
	TotalRecords   int    `json:"totalRecords"`
	HasChange      bool   `json:"hasChange"`
}

// LivenessRecord is the derived online/offline signal for one
// station. A station absent from the map had no rows in the lookback
// window and is treated as offline by callers.
type LivenessRecord struct {
	HasChange  bool                `json:"hasChange"`
	LastUpdate time.Time           `json:"lastUpdate"`
	Parameters []ParameterLiveness `json:"parameters"`
}

// StatsQuery filters a historical-statistics query. Zero values mean
// "no filter": empty StationIDs selects all stations, empty Kind all
// kinds, empty Parameter all parameters, nil dates no bound.
type StatsQuery struct {
	StationIDs []string   `json:"stationIds"`
	Kind       SourceKind `json:"stationType,omitempty"`
	Parameter  string     `json:"parameterName,omitempty"`
	StartDate  *time.Time `json:"startDate,omitempty"`
	// EndDate is a calendar date; the query bound is exclusive at
	// EndDate + 1 day so the whole end day is included.
	EndDate *time.Time `json:"endDate,omitempty"`
	Limit   int        `json:"limit"`
}

// SnapshotParameter is one current parameter reading on a snapshot.
type SnapshotParameter struct {
	Name  string   `json:"name"`
	Value *float64 `json:"value"`
	Unit  string   `json:"unit"`
}

// StationSnapshot carries a station's most recent reading per
// parameter inside the freshness window, for map display.
type StationSnapshot struct {
	Name          string              `json:"station"`
	Source        SourceKind          `json:"type"`
	Parameters    []SnapshotParameter `json:"data"`
	LastTimestamp time.Time           `json:"timestamp"`
	UpdateTime    *string             `json:"updateTime,omitempty"`
}
