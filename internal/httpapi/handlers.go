package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hydronet/water-monitor/internal/store"
)

// StationStatus is one station's row on the map endpoint: registry
// identity plus current data and the derived online signal.
type StationStatus struct {
	ID             string                    `json:"id"`
	Name           string                    `json:"name"`
	Type           store.SourceKind          `json:"type"`
	Lat            *float64                  `json:"lat,omitempty"`
	Lng            *float64                  `json:"lng,omitempty"`
	Data           []store.SnapshotParameter `json:"data"`
	HasValueChange bool                      `json:"hasValueChange"`
	LastUpdate     *time.Time                `json:"lastUpdate,omitempty"`
	UpdateTime     *string                   `json:"updateTime,omitempty"`
	Timestamp      time.Time                 `json:"timestamp"`
}

// handleStations composes registry, latest snapshot and liveness into
// the map view. The lookback window is overridable per request via
// ?timeout= (minutes).
// GET /api/stations
func (s *Server) handleStations(c *gin.Context) {
	lookback := s.cfg.LivenessWindow
	if v := c.Query("timeout"); v != "" {
		minutes, err := strconv.Atoi(v)
		if err != nil || minutes <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid timeout"})
			return
		}
		lookback = time.Duration(minutes) * time.Minute
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	registry, err := s.store.ListStations(ctx)
	if err != nil {
		writeStoreErr(c, err)
		return
	}
	snapshots, err := s.store.LatestSnapshot(ctx, s.cfg.FreshnessWindow)
	if err != nil {
		writeStoreErr(c, err)
		return
	}
	liveness, err := s.store.EvaluateLiveness(ctx, lookback)
	if err != nil {
		writeStoreErr(c, err)
		return
	}

	stations := composeStations(registry, snapshots, liveness)
	c.JSON(http.StatusOK, gin.H{
		"timestamp":     time.Now(),
		"totalStations": len(stations),
		"stations":      stations,
	})
}

// composeStations joins the three views by station name. Only
// stations with fresh data appear; a station absent from the liveness
// map is reported with hasValueChange false and no lastUpdate.
func composeStations(registry []store.Station, snapshots map[string]store.StationSnapshot, liveness map[string]store.LivenessRecord) []StationStatus {
	stations := make([]StationStatus, 0, len(snapshots))
	for _, st := range registry {
		snap, ok := snapshots[st.Name]
		if !ok {
			continue
		}

		status := StationStatus{
			ID:         st.StationID,
			Name:       st.Name,
			Type:       st.Kind,
			Lat:        st.Lat,
			Lng:        st.Lng,
			Data:       snap.Parameters,
			UpdateTime: snap.UpdateTime,
			Timestamp:  snap.LastTimestamp,
		}
		if rec, live := liveness[st.Name]; live {
			status.HasValueChange = rec.HasChange
			last := rec.LastUpdate
			status.LastUpdate = &last
		}
		stations = append(stations, status)
	}
	return stations
}

// handleStats runs a filtered historical query.
// GET /api/stats
func (s *Server) handleStats(c *gin.Context) {
	q, err := parseStatsQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	rows, err := s.store.QueryStats(ctx, q)
	if err != nil {
		writeStoreErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  rows,
		"query": q,
		"meta":  gin.H{"count": len(rows)},
	})
}

func parseStatsQuery(c *gin.Context) (store.StatsQuery, error) {
	q := store.StatsQuery{}

	if ids := strings.TrimSpace(c.Query("stationIds")); ids != "" {
		for _, id := range strings.Split(ids, ",") {
			if id = strings.TrimSpace(id); id != "" {
				q.StationIDs = append(q.StationIDs, id)
			}
		}
	}

	if kind := c.Query("stationType"); kind != "" && kind != "all" {
		k := store.SourceKind(strings.ToUpper(kind))
		if !k.Valid() {
			return q, errInvalidParam("stationType")
		}
		q.Kind = k
	}

	q.Parameter = c.Query("parameter")

	if v := c.Query("startDate"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return q, errInvalidParam("startDate")
		}
		q.StartDate = &t
	}
	if v := c.Query("endDate"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return q, errInvalidParam("endDate")
		}
		q.EndDate = &t
	}

	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return q, errInvalidParam("limit")
		}
		q.Limit = n
	}

	return q, nil
}

type errInvalidParam string

func (e errInvalidParam) Error() string { return "invalid " + string(e) }

// handleStatsParameters lists the distinct parameter names on record.
// GET /api/stats/parameters
func (s *Server) handleStatsParameters(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	names, err := s.store.AvailableParameters(ctx)
	if err != nil {
		writeStoreErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": names,
		"meta": gin.H{"count": len(names)},
	})
}

// handleStatsStations returns the whole station registry.
// GET /api/stats/stations
func (s *Server) handleStatsStations(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	stations, err := s.store.ListStations(ctx)
	if err != nil {
		writeStoreErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": stations,
		"meta": gin.H{"count": len(stations)},
	})
}

// handleBusStatus reports device-bus connection health.
// GET /api/mqtt/status
func (s *Server) handleBusStatus(c *gin.Context) {
	if s.collab.BusStatus == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "device bus not configured"})
		return
	}
	c.JSON(http.StatusOK, s.collab.BusStatus())
}

// handleCleanup deletes rows older than ?days= from every fact table.
// POST /api/cleanup
func (s *Server) handleCleanup(c *gin.Context) {
	days := s.cfg.RetentionDays
	if v := c.Query("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid days"})
			return
		}
		days = n
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
	defer cancel()

	if err := s.store.CleanOldData(ctx, days); err != nil {
		writeStoreErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "days": days})
}

// handleUpdate triggers one manual ingestion cycle for a source.
// POST /api/update/external, POST /api/update/scada
func (s *Server) handleUpdate(trigger Trigger, name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if trigger == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": name + " source not configured"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 60*time.Second)
		defer cancel()

		if err := trigger(ctx); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "source": name})
	}
}
