// Package broker carries cache invalidations between server instances over NATS.
package broker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"squad/internal/application/querycache"
)

// DefaultSubject is where invalidated keys are published.
const DefaultSubject = "squad.invalidate"

// originHeader carries the publishing instance id so it can ignore its own messages.
const originHeader = "Squad-Origin"

// NATSBus implements querycache.Bus on a core NATS subject.
type NATSBus struct {
	nc       *nats.Conn
	subject  string
	instance string
}

// Compile-time check that *NATSBus satisfies querycache.Bus.
var _ querycache.Bus = (*NATSBus)(nil)

// DialNATS connects to url and returns a bus publishing on subject.
// PRE: url is a nats:// URL
// POST: the connection reconnects indefinitely; state changes are logged
func DialNATS(url, subject string) (*NATSBus, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	nc, err := nats.Connect(url,
		nats.Name("squad"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slog.Info("nats_reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &NATSBus{nc: nc, subject: subject, instance: uuid.NewString()}, nil
}

// Publish sends keys, newline-separated, tagged with this instance's id.
func (b *NATSBus) Publish(_ context.Context, keys []querycache.Key) error {
	if len(keys) == 0 {
		return nil
	}
	msg := nats.NewMsg(b.subject)
	msg.Header.Set(originHeader, b.instance)
	msg.Data = encodeKeys(keys)
	return b.nc.PublishMsg(msg)
}

// Listen subscribes to the subject and calls fn for messages from other instances.
func (b *NATSBus) Listen(fn func(keys []querycache.Key)) (func(), error) {
	sub, err := b.nc.Subscribe(b.subject, func(m *nats.Msg) {
		b.handle(m, fn)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", b.subject, err)
	}
	return func() {
		if err := sub.Unsubscribe(); err != nil {
			slog.Warn("nats_unsubscribe_failed", "subject", b.subject, "error", err)
		}
	}, nil
}

// Close drains pending messages and closes the connection.
func (b *NATSBus) Close() error {
	return b.nc.Drain()
}

func (b *NATSBus) handle(m *nats.Msg, fn func([]querycache.Key)) {
	if m.Header != nil && m.Header.Get(originHeader) == b.instance {
		return
	}
	keys := decodeKeys(m.Data)
	if len(keys) == 0 {
		return
	}
	fn(keys)
}

func encodeKeys(keys []querycache.Key) []byte {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = string(k)
	}
	return []byte(strings.Join(parts, "\n"))
}

func decodeKeys(data []byte) []querycache.Key {
	var keys []querycache.Key
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			keys = append(keys, querycache.Key(line))
		}
	}
	return keys
}
