package arns

import (
	"fmt"
	"time"
)

// WindowPolicy defines when expiration notices are due relative to a lease's
// end. The grace-period-start window is [end, end+GracePeriod); the
// grace-period-ending window is [end+GracePeriod-EndingLead, end+GracePeriod).
type WindowPolicy struct {
	GracePeriod time.Duration
	EndingLead  time.Duration
}

// DefaultWindowPolicy is a 14 day grace period with a 3 day final warning.
func DefaultWindowPolicy() WindowPolicy {
	return WindowPolicy{
		GracePeriod: 14 * 24 * time.Hour,
		EndingLead:  3 * 24 * time.Hour,
	}
}

func (p WindowPolicy) Validate() error {
	if p.GracePeriod <= 0 {
		return fmt.Errorf("%w: grace period must be positive", ErrInvalidWindowPolicy)
	}
	if p.EndingLead <= 0 || p.EndingLead > p.GracePeriod {
		return fmt.Errorf("%w: ending lead must be within the grace period", ErrInvalidWindowPolicy)
	}
	return nil
}

// ScanRange is the EndTimestamp range that can be in any window at now.
func (p WindowPolicy) ScanRange(now time.Time) (from, to time.Time) {
	return now.Add(-p.GracePeriod), now
}

// GracePeriodEnd returns when the grace period of a lease ending at end closes.
func (p WindowPolicy) GracePeriodEnd(end time.Time) time.Time {
	return end.Add(p.GracePeriod)
}

// Notices returns the notice types due at now for a lease ending at end.
// Both can be due at once when a name is first seen late in its grace period.
func (p WindowPolicy) Notices(end, now time.Time) []NoticeType {
	graceEnd := p.GracePeriodEnd(end)
	if now.Before(end) || !now.Before(graceEnd) {
		return nil
	}

	notices := []NoticeType{NoticeGracePeriodStart}
	if !now.Before(graceEnd.Add(-p.EndingLead)) {
		notices = append(notices, NoticeGracePeriodEnding)
	}
	return notices
}
