package arns

import "time"

// Metrics receives counters from the sync service and the monitor.
// pkg/metrics.Prometheus implements it.
type Metrics interface {
	RecordSyncRun(duration time.Duration, err error)
	RecordSyncItems(outcome string, n int)
	RecordResolverCall(duration time.Duration, err error)
	RecordExpirationRun(status string)
	RecordExpirationNotice(noticeType string, inserted bool)
}

type noopMetrics struct{}

func (noopMetrics) RecordSyncRun(time.Duration, error)      {}
func (noopMetrics) RecordSyncItems(string, int)             {}
func (noopMetrics) RecordResolverCall(time.Duration, error) {}
func (noopMetrics) RecordExpirationRun(string)              {}
func (noopMetrics) RecordExpirationNotice(string, bool)     {}
