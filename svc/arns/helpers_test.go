package arns_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrymomot/arnsnotify/svc/arns"
	"github.com/dmitrymomot/arnsnotify/svc/notify"
)

func ms(t time.Time) *int64 {
	v := t.UnixMilli()
	return &v
}

// pagedRegistry serves items in pages of size and records every cursor it saw.
type pagedRegistry struct {
	items []arns.Record
	size  int

	mu      sync.Mutex
	cursors []string
	fail    error
}

func (r *pagedRegistry) GetLeasedRecords(_ context.Context, req arns.PageRequest) (arns.Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cursors = append(r.cursors, req.Cursor)
	if r.fail != nil {
		return arns.Page{}, r.fail
	}

	start := 0
	if req.Cursor != "" {
		if _, err := fmt.Sscanf(req.Cursor, "c%d", &start); err != nil {
			return arns.Page{}, err
		}
	}
	end := min(start+r.size, len(r.items))
	page := arns.Page{Items: r.items[start:end]}
	if end < len(r.items) {
		page.HasMore = true
		page.NextCursor = fmt.Sprintf("c%d", end)
	}
	return page, nil
}

func (r *pagedRegistry) Cursors() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.cursors...)
}

type funcRegistry func(ctx context.Context, req arns.PageRequest) (arns.Page, error)

func (f funcRegistry) GetLeasedRecords(ctx context.Context, req arns.PageRequest) (arns.Page, error) {
	return f(ctx, req)
}

type mapResolver struct {
	owners map[string]arns.Ownership
	failOn map[string]bool
}

func (r mapResolver) Resolve(_ context.Context, name string) (arns.Ownership, error) {
	if r.failOn[name] {
		return arns.Ownership{}, errors.New("resolver timeout")
	}
	return r.owners[name], nil
}

// recordingHandler captures envelopes handed to it.
type recordingHandler struct {
	mu   sync.Mutex
	envs []notify.Envelope
	gate chan struct{}
}

func (h *recordingHandler) Handle(_ context.Context, env notify.Envelope) notify.Report {
	if h.gate != nil {
		<-h.gate
	}
	h.mu.Lock()
	h.envs = append(h.envs, env)
	h.mu.Unlock()
	return notify.Report{}
}

func (h *recordingHandler) Envelopes() []notify.Envelope {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]notify.Envelope(nil), h.envs...)
}

type failingSubscribers struct{ err error }

func (f failingSubscribers) FindSubscribersByEvent(context.Context, notify.EventType) ([]notify.Subscriber, error) {
	return nil, f.err
}

func (f failingSubscribers) FindSubscriptionsByName(context.Context, string) ([]notify.Subscriber, error) {
	return nil, f.err
}

type stubLocker struct {
	ok       bool
	err      error
	unlocked int
	keys     []string
}

func (l *stubLocker) TryLock(_ context.Context, key string, _ time.Duration) (func(), bool, error) {
	l.keys = append(l.keys, key)
	if l.err != nil || !l.ok {
		return nil, false, l.err
	}
	return func() { l.unlocked++ }, true, nil
}
