package notify

import "time"

// Metrics receives counters from the processor and providers.
// pkg/metrics.Prometheus implements it.
type Metrics interface {
	RecordEvent(eventType, result string)
	RecordDelivery(provider, eventType, outcome string, duration time.Duration)
	RecordWebhookDelivery(webhookType string, success bool)
}

type noopMetrics struct{}

func (noopMetrics) RecordEvent(string, string)                           {}
func (noopMetrics) RecordDelivery(string, string, string, time.Duration) {}
func (noopMetrics) RecordWebhookDelivery(string, bool)                   {}
