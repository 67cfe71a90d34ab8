package service

import (
	"context"
	"sync"

	"github.com/spec-kit/helpdesk/internal/notify"
)

type fakeTransport struct {
	mu   sync.Mutex
	sent []notify.Recipient
	err  error
}

func (t *fakeTransport) Name() string { return "fake" }

func (t *fakeTransport) Send(_ context.Context, to notify.Recipient, _ notify.Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = append(t.sent, to)
	return t.err
}
