package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchCurrentStations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"timestamp": "2025-03-01T10:00:00Z",
			"totalStations": 1,
			"stations": [{
				"station": "TRẠM QUAN TRẮC 1",
				"updateTime": "09:30 - 01/03/2025",
				"lat": 9.18, "lng": 105.15,
				"data": [
					{"stt":"1","name":"Mực nước","time":"09:30","value":"4.5","unit":"m","limit":""},
					{"stt":"2","name":"Tổng lưu lượng","time":"09:30","value":"703,880","unit":"m³","limit":""}
				]
			}]
		}`))
	}))
	defer srv.Close()

	payload, err := FetchCurrentStations(context.Background(), srv.Client(), srv.URL)
	require.NoError(t, err)
	require.Len(t, payload.Stations, 1)
	assert.Equal(t, "TRẠM QUAN TRẮC 1", payload.Stations[0].Station)
	assert.Equal(t, "09:30 - 01/03/2025", payload.Stations[0].UpdateTime)
}

func TestFetchCurrentStationsRejectsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := FetchCurrentStations(context.Background(), srv.Client(), srv.URL)
	assert.Error(t, err)
}

func TestConvertKeepsDisplayTextAndUpdateTime(t *testing.T) {
	lat, lng := 9.18, 105.15
	payload := CurrentResponse{Stations: []FeedStation{{
		Station:    "TRẠM QUAN TRẮC 1",
		UpdateTime: "09:30 - 01/03/2025",
		Lat:        &lat,
		Lng:        &lng,
		Data: []FeedParameter{
			{Name: "Mực nước", Value: "4.5", Unit: "m"},
			{Name: "pH", Value: "--", Unit: ""},
		},
	}}}

	batch := Convert(payload)
	require.Len(t, batch, 1)
	st := batch[0]
	assert.Equal(t, "09:30 - 01/03/2025", st.UpdateTime)
	require.NotNil(t, st.Lat)
	require.Len(t, st.Parameters, 2)
	assert.Equal(t, "4.5", st.Parameters[0].DisplayText)
	assert.Nil(t, st.Parameters[0].Value)
	assert.Equal(t, "--", st.Parameters[1].DisplayText)
}
