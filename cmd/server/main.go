package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/hydronet/water-monitor/internal/config"
	"github.com/hydronet/water-monitor/internal/devicebus"
	"github.com/hydronet/water-monitor/internal/httpapi"
	"github.com/hydronet/water-monitor/internal/scada"
	"github.com/hydronet/water-monitor/internal/scheduler"
	"github.com/hydronet/water-monitor/internal/store"
	"github.com/hydronet/water-monitor/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := store.Options{Location: loc}
	if cfg.RetentionCeiling > 0 {
		opts.Ceilings = map[store.SourceKind]int{}
		for _, k := range store.Kinds {
			opts.Ceilings[k] = cfg.RetentionCeiling
		}
	}

	st, err := store.New(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		log.Fatalf("db connection error: %v", err)
	}
	defer st.Close()

	if err := st.EnsureSchema(ctx); err != nil {
		log.Fatalf("schema error: %v", err)
	}

	collab := httpapi.Collaborators{}
	var tasks []scheduler.Task

	if cfg.FeedURL != "" {
		client := &http.Client{Timeout: 30 * time.Second}
		poll := func(ctx context.Context) error {
			payload, err := telemetry.FetchCurrentStations(ctx, client, cfg.FeedURL)
			if err != nil {
				return err
			}
			saved, err := st.WriteBatch(ctx, store.SourceExternal, telemetry.Convert(payload))
			if err != nil {
				return err
			}
			log.Printf("[EXTERNAL] saved %d readings from %d stations", saved, len(payload.Stations))
			return nil
		}
		collab.UpdateExternal = poll
		tasks = append(tasks, scheduler.Task{Name: "external-poll", Interval: cfg.PollInterval, Run: poll})
	} else {
		log.Printf("FEED_URL not set, external polling disabled")
	}

	if cfg.ScadaURL != "" {
		portal, err := scada.NewClient(cfg.ScadaURL, cfg.ScadaUsername, cfg.ScadaPassword)
		if err != nil {
			log.Fatalf("scada client error: %v", err)
		}
		crawl := func(ctx context.Context) error {
			if err := portal.Login(ctx); err != nil {
				return err
			}
			values, err := portal.FetchCurrent(ctx)
			if err != nil {
				return err
			}
			saved, err := st.WriteBatch(ctx, store.SourceScada, scada.Group(values))
			if err != nil {
				return err
			}
			log.Printf("[SCADA] saved %d readings from %d channels", saved, len(values))
			return nil
		}
		collab.UpdateScada = crawl
		tasks = append(tasks, scheduler.Task{Name: "scada-crawl", Interval: cfg.CrawlInterval, Run: crawl})
	} else {
		log.Printf("SCADA_URL not set, portal crawling disabled")
	}

	tasks = append(tasks, scheduler.Task{
		Name:     "cleanup",
		Interval: cfg.CleanupInterval,
		Run: func(ctx context.Context) error {
			return st.CleanOldData(ctx, cfg.RetentionDays)
		},
	})

	if cfg.MQTTBrokerURL != "" {
		coords, err := devicebus.ParseCoordinates(cfg.MQTTCoordinates)
		if err != nil {
			log.Fatalf("mqtt coordinates error: %v", err)
		}
		listener := devicebus.NewListener(devicebus.Options{
			BrokerURL:   cfg.MQTTBrokerURL,
			Topic:       cfg.MQTTTopic,
			Coordinates: coords,
		}, st)
		if err := listener.Start(); err != nil {
			// The broker may come up later; auto-reconnect keeps trying.
			log.Printf("mqtt connect failed, will keep retrying: %v", err)
		}
		defer listener.Stop()
		collab.BusStatus = listener.Status
	} else {
		log.Printf("MQTT_BROKER_URL not set, device bus disabled")
	}

	runner := scheduler.New(tasks, cfg.RetryDelay)
	runner.Start(ctx)
	defer runner.Wait()

	srv := httpapi.New(cfg, st, collab)
	log.Printf("water monitor listening on %s", cfg.ListenAddr())

	if err := srv.Run(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
