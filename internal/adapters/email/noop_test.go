package email

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

// TestNoopSender_RecordsSends verifies sends are kept in order with the clock's time.
func TestNoopSender_RecordsSends(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s := NewNoopSender(clockwork.NewFakeClockAt(at))

	for _, subject := range []string{"first", "second"} {
		res, err := s.Send(context.Background(), SendRequest{To: []string{"a@example.com"}, Subject: subject})
		if err != nil {
			t.Fatalf("send: %v", err)
		}
		if !res.SentAt.Equal(at) {
			t.Errorf("SentAt = %v, want %v", res.SentAt, at)
		}
		if res.MessageID == "" {
			t.Error("expected a message id")
		}
	}

	sent := s.Sent()
	if len(sent) != 2 || sent[0].Subject != "first" || sent[1].Subject != "second" {
		t.Errorf("sent = %+v", sent)
	}
}
