package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

const (
	natsReconnectWait   = 2 * time.Second
	natsMaxReconnects   = 10
	domainEventsMaxAge  = 7 * 24 * time.Hour
	domainEventsReplica = 1
)

var errJetStreamNotReady = errors.New("not connected to NATS JetStream")

// NATSClient is a JetStream connection used to forward committed ledger events
type NATSClient struct {
	servers string
	nc      *nats.Conn
	js      nats.JetStreamContext
}

// NewNATSClient creates a client for a comma separated server list. Call Connect before use.
func NewNATSClient(servers string) *NATSClient {
	return &NATSClient{servers: servers}
}

// Connect dials NATS and opens a JetStream context. The context deadline, if any,
// bounds the dial.
func (c *NATSClient) Connect(ctx context.Context) error {
	nc, err := nats.Connect(c.servers, connectionOptions(ctx)...)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	c.nc, c.js = nc, js
	log.WithField("servers", c.servers).Info("Connected to NATS JetStream")
	return nil
}

func connectionOptions(ctx context.Context) []nats.Option {
	opts := []nats.Option{
		nats.Name("fireworks"),
		nats.MaxReconnects(natsMaxReconnects),
		nats.ReconnectWait(natsReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.WithError(err).Warn("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.WithField("server", nc.ConnectedUrl()).Info("NATS reconnected")
		}),
	}
	if deadline, ok := ctx.Deadline(); ok {
		opts = append(opts, nats.Timeout(time.Until(deadline)))
	}
	return opts
}

// Close drains pending publishes and closes the connection
func (c *NATSClient) Close() error {
	if c.nc == nil {
		return nil
	}
	if err := c.nc.Drain(); err != nil {
		c.nc.Close()
		return fmt.Errorf("failed to drain NATS connection: %w", err)
	}
	return nil
}

// IsConnected reports whether the underlying connection is up
func (c *NATSClient) IsConnected() bool {
	return c.nc != nil && c.nc.IsConnected()
}

// EnsureStream creates the stream, or widens an existing one so it captures every
// subject in subjects. Subjects already on the stream are kept.
func (c *NATSClient) EnsureStream(streamName string, subjects []string) error {
	if c.js == nil {
		return errJetStreamNotReady
	}

	info, err := c.js.StreamInfo(streamName)
	switch {
	case errors.Is(err, nats.ErrStreamNotFound):
		cfg := &nats.StreamConfig{
			Name:        streamName,
			Subjects:    subjects,
			Retention:   nats.LimitsPolicy,
			MaxAge:      domainEventsMaxAge,
			Storage:     nats.FileStorage,
			Replicas:    domainEventsReplica,
			Description: "Committed fireworks ledger events",
		}
		if _, err := c.js.AddStream(cfg); err != nil {
			return fmt.Errorf("failed to create stream %s: %w", streamName, err)
		}
		log.WithFields(log.Fields{"stream": streamName, "subjects": subjects}).Info("Created JetStream stream")
		return nil
	case err != nil:
		return fmt.Errorf("failed to inspect stream %s: %w", streamName, err)
	}

	cfg := info.Config
	missing := 0
	for _, subject := range subjects {
		if !slices.Contains(cfg.Subjects, subject) {
			cfg.Subjects = append(cfg.Subjects, subject)
			missing++
		}
	}
	if missing == 0 {
		return nil
	}
	if _, err := c.js.UpdateStream(&cfg); err != nil {
		return fmt.Errorf("failed to add %d subjects to stream %s: %w", missing, streamName, err)
	}
	log.WithFields(log.Fields{"stream": streamName, "added": missing}).Info("Updated JetStream stream subjects")
	return nil
}

// Publish sends data to subject and waits for the JetStream ack
func (c *NATSClient) Publish(ctx context.Context, subject string, data []byte) error {
	if c.js == nil {
		return errJetStreamNotReady
	}
	if _, err := c.js.Publish(subject, data, nats.Context(ctx)); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}
