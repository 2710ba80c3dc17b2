package notify

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for development and tests.
type MemoryStore struct {
	mu                sync.RWMutex
	events            map[int64]StoredEvent
	subscribers       map[string]Subscriber
	subscriberOrder   []string
	nameSubscriptions map[string][]string // name -> subscriber IDs
	webhooks          map[string]Webhook
	webhookOrder      []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events:            make(map[int64]StoredEvent),
		subscribers:       make(map[string]Subscriber),
		nameSubscriptions: make(map[string][]string),
		webhooks:          make(map[string]Webhook),
	}
}

// AddSubscriber stores s, assigning an ID when empty, and returns it.
func (m *MemoryStore) AddSubscriber(s Subscriber) Subscriber {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if _, ok := m.subscribers[s.ID]; !ok {
		m.subscriberOrder = append(m.subscriberOrder, s.ID)
	}
	s.EventTypes = slices.Clone(s.EventTypes)
	m.subscribers[s.ID] = s
	return s
}

func (m *MemoryStore) SubscribeToName(subscriberID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.subscribers[subscriberID]; !ok {
		return ErrSubscriberNotFound
	}
	if !slices.Contains(m.nameSubscriptions[name], subscriberID) {
		m.nameSubscriptions[name] = append(m.nameSubscriptions[name], subscriberID)
	}
	return nil
}

// AddWebhook stores w, assigning an ID when empty, and returns it.
func (m *MemoryStore) AddWebhook(w Webhook) (Webhook, error) {
	if !w.Type.Valid() || w.URL == "" {
		return Webhook{}, ErrInvalidWebhook
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.subscribers[w.SubscriberID]; !ok {
		return Webhook{}, ErrSubscriberNotFound
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if _, ok := m.webhooks[w.ID]; !ok {
		m.webhookOrder = append(m.webhookOrder, w.ID)
	}
	w.EventTypes = slices.Clone(w.EventTypes)
	m.webhooks[w.ID] = w
	return w, nil
}

func (m *MemoryStore) Webhook(id string) (Webhook, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	w, ok := m.webhooks[id]
	if !ok {
		return Webhook{}, ErrWebhookNotFound
	}
	return w, nil
}

// EventCount returns the number of stored event rows.
func (m *MemoryStore) EventCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.events)
}

func (m *MemoryStore) GetEvent(_ context.Context, nonce int64) (StoredEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.events[nonce]
	if !ok {
		return StoredEvent{}, ErrEventNotFound
	}
	return e, nil
}

func (m *MemoryStore) ClaimEvent(_ context.Context, e Event, claimedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.events[e.Nonce]; ok {
		return false, nil
	}
	m.events[e.Nonce] = StoredEvent{Event: e, ClaimedAt: claimedAt}
	return true, nil
}

func (m *MemoryStore) ReleaseEvent(_ context.Context, nonce int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.events[nonce]; ok && e.ProcessedAt == nil {
		delete(m.events, nonce)
	}
	return nil
}

func (m *MemoryStore) MarkEventProcessed(_ context.Context, nonce int64, processedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.events[nonce]
	if !ok {
		return ErrEventNotFound
	}
	e.ProcessedAt = &processedAt
	m.events[nonce] = e
	return nil
}

func (m *MemoryStore) FindSubscribersByEvent(_ context.Context, eventType EventType) ([]Subscriber, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Subscriber
	for _, id := range m.subscriberOrder {
		s := m.subscribers[id]
		if s.Verified && s.Wants(eventType) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *MemoryStore) FindSubscriptionsByName(_ context.Context, name string) ([]Subscriber, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Subscriber
	for _, id := range m.nameSubscriptions[name] {
		if s, ok := m.subscribers[id]; ok && s.Verified {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *MemoryStore) FindWebhooks(_ context.Context, eventType EventType, subscriberIDs []string) ([]Webhook, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Webhook
	for _, id := range m.webhookOrder {
		w := m.webhooks[id]
		if !w.Active || !slices.Contains(subscriberIDs, w.SubscriberID) || !slices.Contains(w.EventTypes, eventType) {
			continue
		}
		out = append(out, w)
	}
	return out, nil
}

func (m *MemoryStore) UpdateWebhookDeliveryState(_ context.Context, webhookID string, state DeliveryState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.webhooks[webhookID]
	if !ok {
		return ErrWebhookNotFound
	}
	w.LastStatus = state.Status
	w.LastError = state.Error
	triggeredAt := state.TriggeredAt
	w.LastTriggeredAt = &triggeredAt
	m.webhooks[webhookID] = w
	return nil
}
