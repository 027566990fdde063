package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/cenkalti/backoff"
	"github.com/muurk/segclock/internal/logging"
	mqtt "github.com/soypat/natiu-mqtt"
	"go.uber.org/zap"
)

const (
	// DefaultTopic is used when Options.Topic is empty
	DefaultTopic = "segclock/display"

	// DefaultTimeout bounds connecting and each publish
	DefaultTimeout = 2 * time.Second

	decoderBufferSize = 1024
	connectAttempts   = 3
)

// ErrNotConnected is returned by Publish while the broker is unreachable and
// the reconnect backoff has not expired.
var ErrNotConnected = errors.New("mirror: not connected to broker")

// Message is the JSON document published for every paint.
type Message struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

// Options configures a Publisher.
type Options struct {
	// Broker is the host:port of the MQTT broker.
	Broker   string
	Topic    string
	ClientID string
	Username string
	Password string
	// Timeout is the connect and write deadline. Zero means DefaultTimeout.
	Timeout time.Duration
	Clock   clock.Clock

	// Dial overrides how the broker connection is opened.
	Dial func(ctx context.Context, network, addr string) (net.Conn, error)
}

// Publisher owns one MQTT connection and publishes Messages over it.
type Publisher struct {
	opts Options

	mu        sync.Mutex
	conn      net.Conn
	client    *mqtt.Client
	retry     backoff.BackOff
	nextRetry time.Time
	packetID  uint16
}

// NewPublisher creates a publisher. It does not connect; call Connect or let
// the first Publish do it.
func NewPublisher(opts Options) (*Publisher, error) {
	if opts.Broker == "" {
		return nil, fmt.Errorf("mirror: broker address is required")
	}
	if opts.Topic == "" {
		opts.Topic = DefaultTopic
	}
	if opts.ClientID == "" {
		opts.ClientID = "segclock"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Dial == nil {
		var d net.Dialer
		opts.Dial = d.DialContext
	}

	retry := backoff.NewExponentialBackOff()
	retry.InitialInterval = time.Second
	retry.MaxInterval = time.Minute
	retry.MaxElapsedTime = 0
	retry.Clock = opts.Clock

	return &Publisher{opts: opts, retry: retry}, nil
}

// Topic returns the topic messages are published to
func (p *Publisher) Topic() string {
	return p.opts.Topic
}

// Connect opens the broker connection and completes the MQTT handshake.
func (p *Publisher) Connect(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connectLocked(ctx)
}

func (p *Publisher) connectLocked(ctx context.Context) error {
	p.dropLocked()

	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	conn, err := p.opts.Dial(ctx, "tcp", p.opts.Broker)
	if err != nil {
		return fmt.Errorf("mirror: dial %s: %w", p.opts.Broker, err)
	}

	cfg := mqtt.ClientConfig{
		Decoder: mqtt.DecoderNoAlloc{UserBuffer: make([]byte, decoderBufferSize)},
		OnPub: func(_ mqtt.Header, _ mqtt.VariablesPublish, r io.Reader) error {
			// Nothing is subscribed; drain anything the broker sends anyway.
			_, err := io.Copy(io.Discard, r)
			return err
		},
	}
	client := mqtt.NewClient(cfg)

	var varconn mqtt.VariablesConnect
	varconn.SetDefaultMQTT([]byte(p.opts.ClientID))
	if p.opts.Username != "" {
		varconn.Username = []byte(p.opts.Username)
		varconn.Password = []byte(p.opts.Password)
	}

	deadline, _ := ctx.Deadline()
	conn.SetDeadline(deadline)
	if err := client.StartConnect(conn, &varconn); err != nil {
		conn.Close()
		return fmt.Errorf("mirror: connect: %w", err)
	}
	for i := 0; i < connectAttempts && !client.IsConnected(); i++ {
		if err := client.HandleNext(); err != nil {
			conn.Close()
			return fmt.Errorf("mirror: waiting for CONNACK: %w", err)
		}
	}
	if !client.IsConnected() {
		conn.Close()
		return fmt.Errorf("mirror: broker did not accept connection: %v", client.Err())
	}
	conn.SetDeadline(time.Time{})

	p.conn = conn
	p.client = client
	p.retry.Reset()
	logging.Info("Connected to MQTT broker",
		zap.String("broker", p.opts.Broker),
		zap.String("topic", p.opts.Topic),
	)
	return nil
}

// Publish sends one message. A lost connection is re-dialled at most once per
// backoff interval.
func (p *Publisher) Publish(kind, text string) error {
	payload, err := json.Marshal(Message{Kind: kind, Text: text})
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client == nil || !p.client.IsConnected() {
		now := p.opts.Clock.Now()
		if now.Before(p.nextRetry) {
			return ErrNotConnected
		}
		if err := p.connectLocked(context.Background()); err != nil {
			p.nextRetry = now.Add(p.retry.NextBackOff())
			return err
		}
	}

	flags, err := mqtt.NewPublishFlags(mqtt.QoS0, false, false)
	if err != nil {
		return err
	}
	vp := mqtt.VariablesPublish{
		TopicName:        []byte(p.opts.Topic),
		PacketIdentifier: p.nextPacketIDLocked(),
	}

	p.conn.SetWriteDeadline(p.opts.Clock.Now().Add(p.opts.Timeout))
	if err := p.client.PublishPayload(flags, vp, payload); err != nil {
		p.dropLocked()
		p.nextRetry = p.opts.Clock.Now().Add(p.retry.NextBackOff())
		return fmt.Errorf("mirror: publish: %w", err)
	}
	return nil
}

// Connected reports whether the broker handshake has completed and the
// connection has not since failed.
func (p *Publisher) Connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.client != nil && p.client.IsConnected()
}

// Close sends DISCONNECT and closes the connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client == nil {
		return nil
	}
	p.conn.SetWriteDeadline(p.opts.Clock.Now().Add(p.opts.Timeout))
	if err := p.client.Disconnect(errors.New("segclock shutting down")); err != nil {
		logging.Debug("MQTT disconnect", zap.Error(err))
	}
	err := p.conn.Close()
	p.conn = nil
	p.client = nil
	if errors.Is(err, net.ErrClosed) {
		err = nil
	}
	return err
}

// nextPacketIDLocked returns the identifier for the next PUBLISH. The
// client rejects zero even at QoS 0, so the counter skips it on wrap.
func (p *Publisher) nextPacketIDLocked() uint16 {
	p.packetID++
	if p.packetID == 0 {
		p.packetID = 1
	}
	return p.packetID
}

func (p *Publisher) dropLocked() {
	if p.conn != nil {
		p.conn.Close()
	}
	p.conn = nil
	p.client = nil
}
