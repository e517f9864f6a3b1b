package email

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jonboulle/clockwork"
)

// NoopSender logs sends and keeps them in memory instead of delivering.
// Used when no provider key is configured, and in tests.
type NoopSender struct {
	clock clockwork.Clock

	mu   sync.Mutex
	sent []SendRequest
}

// NewNoopSender creates a new NoopSender.
func NewNoopSender(clock clockwork.Clock) *NoopSender {
	return &NoopSender{clock: clock}
}

// Send records the email but does not deliver it.
func (s *NoopSender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	s.mu.Lock()
	s.sent = append(s.sent, req)
	n := len(s.sent)
	s.mu.Unlock()

	slog.InfoContext(ctx, "noop_email_send", "to", req.To, "subject", req.Subject)
	now := s.clock.Now()
	return SendResult{
		MessageID: fmt.Sprintf("noop-%d-%d", now.UnixNano(), n),
		SentAt:    now,
	}, nil
}

// Sent returns a copy of every recorded request, oldest first.
func (s *NoopSender) Sent() []SendRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SendRequest(nil), s.sent...)
}
