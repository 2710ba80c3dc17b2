package arns

import (
	"time"

	"github.com/dmitrymomot/arnsnotify/svc/notify"
)

// LeasedName is the local view of a leased registry name. Owner and RootTxID
// come from the resolver and may be empty until an enrichment succeeds.
type LeasedName struct {
	Name           string
	ProcessID      string
	Owner          string
	RootTxID       string
	StartTimestamp time.Time
	EndTimestamp   time.Time
	LastSyncedAt   time.Time
}

// Ownership is the resolver's answer for one name.
type Ownership struct {
	Owner    string `json:"owner"`
	RootTxID string `json:"txId"`
}

// NameUpsert writes a registry record. A nil Ownership leaves the stored
// owner and root tx id untouched.
type NameUpsert struct {
	Name           string
	ProcessID      string
	StartTimestamp time.Time
	EndTimestamp   time.Time
	Ownership      *Ownership
	SyncedAt       time.Time
}

type NoticeType string

const (
	NoticeGracePeriodStart  NoticeType = "grace_period_start"
	NoticeGracePeriodEnding NoticeType = "grace_period_ending"
)

// EventType maps a notice onto the event type subscribers opt into.
func (t NoticeType) EventType() notify.EventType {
	switch t {
	case NoticeGracePeriodStart:
		return notify.EventGracePeriodStart
	case NoticeGracePeriodEnding:
		return notify.EventGracePeriodEnding
	default:
		return notify.EventType(t)
	}
}

// ExpirationReceipt is unique on (Name, Type, EndTimestamp).
type ExpirationReceipt struct {
	Name         string
	Type         NoticeType
	EndTimestamp time.Time
	SentAt       time.Time
}
