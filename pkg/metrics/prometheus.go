// Package metrics exposes Prometheus collectors for event intake, delivery,
// leased-name sync and expiration scans.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus implements notify.Metrics and arns.Metrics.
type Prometheus struct {
	gatherer prometheus.Gatherer

	eventsTotal            *prometheus.CounterVec
	deliveriesTotal        *prometheus.CounterVec
	deliveryDuration       *prometheus.HistogramVec
	webhookDeliveriesTotal *prometheus.CounterVec
	syncRunsTotal          *prometheus.CounterVec
	syncDuration           prometheus.Histogram
	syncItemsTotal         *prometheus.CounterVec
	resolverCallsTotal     *prometheus.CounterVec
	resolverDuration       prometheus.Histogram
	expirationRunsTotal    *prometheus.CounterVec
	expirationNoticesTotal *prometheus.CounterVec
}

// New registers collectors on reg. A nil reg creates a private registry with
// the Go and process collectors attached.
func New(reg *prometheus.Registry, namespace string) *Prometheus {
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	factory := promauto.With(reg)

	return &Prometheus{
		gatherer: reg,

		eventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Events received, by event type and processing result.",
		}, []string{"event_type", "result"}),

		deliveriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Provider deliveries, by provider, event type and outcome.",
		}, []string{"provider", "event_type", "outcome"}),

		deliveryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "delivery_duration_seconds",
			Help:      "Latency of a single provider delivery.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),

		webhookDeliveriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_deliveries_total",
			Help:      "Subscriber webhook calls, by webhook type and success.",
		}, []string{"type", "success"}),

		syncRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "arns_sync_runs_total",
			Help:      "Leased-name sync runs, by success.",
		}, []string{"success"}),

		syncDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "arns_sync_duration_seconds",
			Help:      "Duration of a full leased-name sync.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),

		syncItemsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "arns_sync_items_total",
			Help:      "Registry records seen by the sync, by outcome.",
		}, []string{"outcome"}),

		resolverCallsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "arns_resolver_calls_total",
			Help:      "Owner resolver calls, by success.",
		}, []string{"success"}),

		resolverDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "arns_resolver_duration_seconds",
			Help:      "Latency of owner resolver calls.",
			Buckets:   prometheus.DefBuckets,
		}),

		expirationRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "arns_expiration_runs_total",
			Help:      "Expiration scans, by status (completed, failed, skipped).",
		}, []string{"status"}),

		expirationNoticesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "arns_expiration_notices_total",
			Help:      "Expiration notices, by notice type and whether they were new.",
		}, []string{"type", "new"}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Prometheus) RecordEvent(eventType, result string) {
	m.eventsTotal.WithLabelValues(eventType, result).Inc()
}

func (m *Prometheus) RecordDelivery(provider, eventType, outcome string, duration time.Duration) {
	m.deliveriesTotal.WithLabelValues(provider, eventType, outcome).Inc()
	m.deliveryDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

func (m *Prometheus) RecordWebhookDelivery(webhookType string, success bool) {
	m.webhookDeliveriesTotal.WithLabelValues(webhookType, strconv.FormatBool(success)).Inc()
}

func (m *Prometheus) RecordSyncRun(duration time.Duration, err error) {
	m.syncRunsTotal.WithLabelValues(strconv.FormatBool(err == nil)).Inc()
	m.syncDuration.Observe(duration.Seconds())
}

func (m *Prometheus) RecordSyncItems(outcome string, n int) {
	if n <= 0 {
		return
	}
	m.syncItemsTotal.WithLabelValues(outcome).Add(float64(n))
}

func (m *Prometheus) RecordResolverCall(duration time.Duration, err error) {
	m.resolverCallsTotal.WithLabelValues(strconv.FormatBool(err == nil)).Inc()
	m.resolverDuration.Observe(duration.Seconds())
}

func (m *Prometheus) RecordExpirationRun(status string) {
	m.expirationRunsTotal.WithLabelValues(status).Inc()
}

func (m *Prometheus) RecordExpirationNotice(noticeType string, inserted bool) {
	m.expirationNoticesTotal.WithLabelValues(noticeType, strconv.FormatBool(inserted)).Inc()
}
