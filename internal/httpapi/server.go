package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hydronet/water-monitor/internal/config"
	"github.com/hydronet/water-monitor/internal/devicebus"
	"github.com/hydronet/water-monitor/internal/store"
)

// Store is the persistence surface the API needs. Satisfied by
// *store.Store.
type Store interface {
	ListStations(ctx context.Context) ([]store.Station, error)
	EvaluateLiveness(ctx context.Context, lookback time.Duration) (map[string]store.LivenessRecord, error)
	LatestSnapshot(ctx context.Context, freshness time.Duration) (map[string]store.StationSnapshot, error)
	QueryStats(ctx context.Context, q store.StatsQuery) ([]store.Reading, error)
	AvailableParameters(ctx context.Context) ([]string, error)
	CleanOldData(ctx context.Context, daysToKeep int) error
}

// Trigger runs one manual ingestion cycle for a source.
type Trigger func(ctx context.Context) error

// Collaborators are the optional non-store dependencies: nil members
// disable their endpoints with a 503.
type Collaborators struct {
	BusStatus      func() devicebus.Status
	UpdateExternal Trigger
	UpdateScada    Trigger
}

// Server bundles router and dependencies for the REST API.
type Server struct {
	cfg    config.Config
	store  Store
	collab Collaborators
	engine *gin.Engine
}

// New constructs a server with routes and middleware.
func New(cfg config.Config, st Store, collab Collaborators) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(gin.Logger())
	engine.Use(corsMiddleware())

	server := &Server{cfg: cfg, store: st, collab: collab, engine: engine}
	server.registerRoutes()
	return server
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run starts the HTTP server and blocks until shutdown.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.ListenAddr(),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.engine.Group("/api")
	if s.cfg.BearerToken != "" {
		api.Use(bearerAuthMiddleware(s.cfg.BearerToken))
	}

	api.GET("/stations", s.handleStations)
	api.GET("/stats", s.handleStats)
	api.GET("/stats/parameters", s.handleStatsParameters)
	api.GET("/stats/stations", s.handleStatsStations)
	api.GET("/mqtt/status", s.handleBusStatus)
	api.POST("/cleanup", s.handleCleanup)
	api.POST("/update/external", s.handleUpdate(s.collab.UpdateExternal, "external"))
	api.POST("/update/scada", s.handleUpdate(s.collab.UpdateScada, "scada"))
}

func bearerAuthMiddleware(expected string) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		if token != expected {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// writeStoreErr maps store failures: exhaustion surfaces as 503 so
// load balancers can back off, everything else is a 500.
func writeStoreErr(c *gin.Context, err error) {
	if errors.Is(err, store.ErrUnavailable) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
