package arns

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"
)

type receiptKey struct {
	name string
	typ  NoticeType
	end  int64
}

// MemoryStore is an in-memory Store for development and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	names    map[string]LeasedName
	receipts map[receiptKey]ExpirationReceipt
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		names:    make(map[string]LeasedName),
		receipts: make(map[receiptKey]ExpirationReceipt),
	}
}

func (m *MemoryStore) UpsertLeasedName(_ context.Context, u NameUpsert) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.names[u.Name]
	n.Name = u.Name
	n.ProcessID = u.ProcessID
	n.StartTimestamp = u.StartTimestamp
	n.EndTimestamp = u.EndTimestamp
	n.LastSyncedAt = u.SyncedAt
	if u.Ownership != nil {
		n.Owner = u.Ownership.Owner
		n.RootTxID = u.Ownership.RootTxID
	}
	m.names[u.Name] = n
	return nil
}

func (m *MemoryStore) GetLeasedName(_ context.Context, name string) (LeasedName, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n, ok := m.names[name]
	if !ok {
		return LeasedName{}, ErrNameNotFound
	}
	return n, nil
}

func (m *MemoryStore) ListNamesEndingBetween(_ context.Context, from, to time.Time) ([]LeasedName, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []LeasedName
	for _, n := range m.names {
		if n.EndTimestamp.Before(from) || n.EndTimestamp.After(to) {
			continue
		}
		out = append(out, n)
	}
	slices.SortFunc(out, func(a, b LeasedName) int {
		if c := a.EndTimestamp.Compare(b.EndTimestamp); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out, nil
}

func (m *MemoryStore) InsertExpirationReceiptIfAbsent(_ context.Context, r ExpirationReceipt) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := receiptKey{name: r.Name, typ: r.Type, end: r.EndTimestamp.UnixMilli()}
	if _, ok := m.receipts[key]; ok {
		return false, nil
	}
	m.receipts[key] = r
	return true, nil
}

func (m *MemoryStore) DeleteExpirationReceipt(_ context.Context, name string, t NoticeType, end time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.receipts, receiptKey{name: name, typ: t, end: end.UnixMilli()})
	return nil
}

// Receipts returns every stored receipt ordered by name, type and end.
func (m *MemoryStore) Receipts() []ExpirationReceipt {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]ExpirationReceipt, 0, len(m.receipts))
	for _, r := range m.receipts {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b ExpirationReceipt) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		if c := strings.Compare(string(a.Type), string(b.Type)); c != 0 {
			return c
		}
		return a.EndTimestamp.Compare(b.EndTimestamp)
	})
	return out
}
