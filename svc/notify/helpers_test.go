package notify_test

import (
	"context"
	"sync"

	"github.com/dmitrymomot/arnsnotify/pkg/email"
	"github.com/dmitrymomot/arnsnotify/svc/notify"
)

type funcProvider struct {
	name    string
	enabled bool
	fn      func(ctx context.Context, env notify.Envelope) error

	mu    sync.Mutex
	calls []notify.Envelope
}

func newFuncProvider(name string, fn func(ctx context.Context, env notify.Envelope) error) *funcProvider {
	return &funcProvider{name: name, enabled: true, fn: fn}
}

func (p *funcProvider) Name() string  { return p.name }
func (p *funcProvider) Enabled() bool { return p.enabled }

func (p *funcProvider) Deliver(ctx context.Context, env notify.Envelope) error {
	p.mu.Lock()
	p.calls = append(p.calls, env)
	p.mu.Unlock()
	if p.fn == nil {
		return nil
	}
	return p.fn(ctx, env)
}

func (p *funcProvider) Calls() []notify.Envelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]notify.Envelope(nil), p.calls...)
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []email.SendEmailParams
	err  map[string]error
}

func (m *recordingMailer) SendEmail(_ context.Context, params email.SendEmailParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.err[params.SendTo]; err != nil {
		return err
	}
	m.sent = append(m.sent, params)
	return nil
}

func (m *recordingMailer) Sent() []email.SendEmailParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]email.SendEmailParams(nil), m.sent...)
}

func (m *recordingMailer) SentTo() []string {
	var out []string
	for _, p := range m.Sent() {
		out = append(out, p.SendTo)
	}
	return out
}
