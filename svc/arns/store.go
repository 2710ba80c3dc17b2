package arns

import (
	"context"
	"time"
)

// Store persists leased names and expiration receipts.
// InsertExpirationReceiptIfAbsent must be atomic on (name, type, end).
type Store interface {
	UpsertLeasedName(ctx context.Context, u NameUpsert) error
	// GetLeasedName returns ErrNameNotFound when name is unknown.
	GetLeasedName(ctx context.Context, name string) (LeasedName, error)
	// ListNamesEndingBetween returns names with from <= EndTimestamp <= to,
	// ordered by EndTimestamp then name.
	ListNamesEndingBetween(ctx context.Context, from, to time.Time) ([]LeasedName, error)
	InsertExpirationReceiptIfAbsent(ctx context.Context, r ExpirationReceipt) (bool, error)
	// DeleteExpirationReceipt removes a receipt whose notification could not
	// be dispatched, so the next run retries it.
	DeleteExpirationReceipt(ctx context.Context, name string, t NoticeType, end time.Time) error
}
