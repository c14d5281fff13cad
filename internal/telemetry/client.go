package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/hydronet/water-monitor/internal/store"
)

// CurrentResponse is the monitoring feed's current-stations payload.
type CurrentResponse struct {
	Timestamp     string        `json:"timestamp"`
	TotalStations int           `json:"totalStations"`
	Stations      []FeedStation `json:"stations"`
}

// FeedStation is one station's block in the feed. UpdateTime carries
// the portal's native clock ("15:04 - 02/01/2006").
type FeedStation struct {
	Station    string          `json:"station"`
	UpdateTime string          `json:"updateTime"`
	Lat        *float64        `json:"lat,omitempty"`
	Lng        *float64        `json:"lng,omitempty"`
	Data       []FeedParameter `json:"data"`
}

// FeedParameter is one measured value. Value is formatted text, the
// way the portal renders it.
type FeedParameter struct {
	STT   string `json:"stt"`
	Name  string `json:"name"`
	Time  string `json:"time"`
	Value string `json:"value"`
	Unit  string `json:"unit"`
	Limit string `json:"limit"`
}

// FetchCurrentStations retrieves the feed's current stations payload.
func FetchCurrentStations(ctx context.Context, client *http.Client, url string) (CurrentResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return CurrentResponse{}, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return CurrentResponse{}, fmt.Errorf("request current feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return CurrentResponse{}, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var payload CurrentResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return CurrentResponse{}, fmt.Errorf("decode payload: %w", err)
	}

	return payload, nil
}

// Convert turns a feed payload into writable batches. Values stay as
// display text; numeric extraction happens at write time so formatted
// numbers and unparseable placeholders share one code path.
func Convert(payload CurrentResponse) []store.StationReadings {
	batch := make([]store.StationReadings, 0, len(payload.Stations))
	for _, st := range payload.Stations {
		readings := store.StationReadings{
			Name:       st.Station,
			UpdateTime: st.UpdateTime,
			Lat:        st.Lat,
			Lng:        st.Lng,
		}
		for _, p := range st.Data {
			readings.Parameters = append(readings.Parameters, store.ParameterReading{
				Name:        p.Name,
				DisplayText: p.Value,
				Unit:        p.Unit,
			})
		}
		batch = append(batch, readings)
	}
	return batch
}
