package devicebus

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/hydronet/water-monitor/internal/store"
)

// Writer persists one accumulated batch. Satisfied by *store.Store.
type Writer interface {
	WriteBatch(ctx context.Context, kind store.SourceKind, batch []store.StationReadings) (int, error)
}

// Options configure the broker connection.
type Options struct {
	BrokerURL    string
	Topic        string
	Coordinates  map[string]Coordinate
	WriteTimeout time.Duration
}

// Status is the listener's health view for the API.
type Status struct {
	Connected     bool       `json:"connected"`
	LastMessage   *time.Time `json:"lastMessage,omitempty"`
	TotalStations int        `json:"totalStations"`
}

// Listener subscribes to the telemetry topic and writes every decoded
// frame's accumulated state through the store.
type Listener struct {
	client mqtt.Client
	topic  string
	writer Writer
	accum  *Accumulator

	writeTimeout time.Duration

	mu          sync.Mutex
	lastMessage time.Time
}

// NewListener wires a paho client against the broker. The connection
// is not opened until Start.
func NewListener(opts Options, writer Writer) *Listener {
	l := &Listener{
		topic:        opts.Topic,
		writer:       writer,
		accum:        NewAccumulator(opts.Coordinates),
		writeTimeout: opts.WriteTimeout,
	}
	if l.writeTimeout <= 0 {
		l.writeTimeout = 30 * time.Second
	}

	cfg := mqtt.NewClientOptions().
		AddBroker(opts.BrokerURL).
		SetClientID("water-monitor-" + uuid.NewString()[:8]).
		SetCleanSession(true).
		SetConnectTimeout(10 * time.Second).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(l.onConnect).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.Printf("[MQTT] connection lost: %v", err)
		})

	l.client = mqtt.NewClient(cfg)
	return l
}

// Start opens the broker connection. Subscription happens in the
// connect handler so it is re-established after every reconnect. With
// connect-retry enabled the token may stay pending while the broker is
// down; the listener then keeps retrying in the background.
func (l *Listener) Start() error {
	token := l.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		log.Printf("[MQTT] broker not reachable yet, retrying in background")
		return nil
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connect mqtt broker: %w", err)
	}
	return nil
}

// Stop disconnects from the broker, letting in-flight work finish.
func (l *Listener) Stop() {
	l.client.Disconnect(250)
}

func (l *Listener) onConnect(c mqtt.Client) {
	log.Printf("[MQTT] connected, subscribing to %s", l.topic)
	if token := c.Subscribe(l.topic, 0, l.onMessage); token.Wait() && token.Error() != nil {
		log.Printf("[MQTT] subscribe %s failed: %v", l.topic, token.Error())
	}
}

func (l *Listener) onMessage(_ mqtt.Client, m mqtt.Message) {
	msg, ok := Decode(m.Payload())
	if !ok {
		return
	}
	if l.accum.Apply(msg) == 0 {
		return
	}

	l.mu.Lock()
	l.lastMessage = time.Now()
	l.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), l.writeTimeout)
	defer cancel()

	saved, err := l.writer.WriteBatch(ctx, store.SourceDeviceBus, l.accum.Batch())
	if err != nil {
		log.Printf("[MQTT] batch write failed: %v", err)
		return
	}
	log.Printf("[MQTT] saved %d readings across %d devices", saved, l.accum.DeviceCount())
}

// Status reports connection health and accumulated station count.
func (l *Listener) Status() Status {
	l.mu.Lock()
	last := l.lastMessage
	l.mu.Unlock()

	st := Status{
		Connected:     l.client.IsConnected(),
		TotalStations: l.accum.DeviceCount(),
	}
	if !last.IsZero() {
		st.LastMessage = &last
	}
	return st
}
