package mqtt

import (
	"errors"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sweeney/setpoint-scheduler/internal/logic"
	"go.uber.org/atomic"
)

const (
	bufferSize     = 64
	publishTimeout = 5 * time.Second
)

var errPublishTimeout = errors.New("mqtt: publish timeout")

// RealPublisher publishes to a broker. It connects in the background and
// keeps retrying; messages published while disconnected are queued and sent
// on the next connect.
type RealPublisher struct {
	client    paho.Client
	connected atomic.Bool

	mu  sync.Mutex
	buf *ringBuffer
}

// NewRealPublisher starts connecting to broker and returns immediately.
// The broker holds a retained SHUTDOWN/MQTT_DISCONNECT will for the session.
func NewRealPublisher(broker string) *RealPublisher {
	p := &RealPublisher{buf: newRingBuffer(bufferSize)}

	will, _ := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	})

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("setpoint-scheduler-" + uuid.NewString()[:8]).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(TopicSystem, string(will), 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			p.connected.Store(false)
			log.Warn().Err(err).Msg("mqtt connection lost")
		})

	p.client = paho.NewClient(opts)
	p.client.Connect()
	return p
}

func (p *RealPublisher) onConnect(c paho.Client) {
	p.connected.Store(true)

	p.mu.Lock()
	pending := p.buf.drainAll()
	p.mu.Unlock()

	log.Info().Int("queued", len(pending)).Msg("mqtt connected")
	for _, m := range pending {
		c.Publish(m.topic, m.qos, m.retained, m.payload)
	}
}

// IsConnected reports whether the client is connected.
func (p *RealPublisher) IsConnected() bool {
	return p.connected.Load()
}

// Publish sends a schedule event with QoS 1.
func (p *RealPublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	return p.send(bufferedMsg{topic: Topic, payload: payload, qos: 1})
}

// PublishSystem sends a lifecycle event with QoS 1.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.send(bufferedMsg{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
}

// send publishes m, or queues it when the client is not connected.
func (p *RealPublisher) send(m bufferedMsg) error {
	if !p.connected.Load() {
		p.mu.Lock()
		p.buf.push(m)
		p.mu.Unlock()
		log.Debug().Str("topic", m.topic).Msg("mqtt offline, message queued")
		return nil
	}

	token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
	if !token.WaitTimeout(publishTimeout) {
		return errPublishTimeout
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", m.topic, err)
	}
	return nil
}

// Close disconnects, allowing a second for in-flight messages.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000)
	p.connected.Store(false)
	return nil
}
