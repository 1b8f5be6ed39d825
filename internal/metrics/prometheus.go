package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder exposes counters through a Prometheus registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	tokensIssued      prometheus.Counter
	tokenValidations  *prometheus.CounterVec
	subsCreated       *prometheus.CounterVec
	subsChanged       prometheus.Counter
	subsCancelled     prometheus.Counter
	subsConflicts     prometheus.Counter
	protectionToggles prometheus.Counter
	threatsReported   *prometheus.CounterVec
	threatsResolved   prometheus.Counter
	ownershipMisses   prometheus.Counter
	scansRequested    *prometheus.CounterVec

	alertsPublished    *prometheus.CounterVec
	alertsProcessed    *prometheus.CounterVec
	alertQueueDepth    prometheus.Gauge
	alertBatchSize     prometheus.Histogram
	alertBatchDuration prometheus.Histogram
	alertIngestLag     prometheus.Histogram

	webhookDeliveries      *prometheus.CounterVec
	webhookRetries         prometheus.Counter
	webhookDeliverySeconds prometheus.Histogram
	webhookQueueDepth      prometheus.Gauge
}

// NewPrometheus returns a Recorder backed by its own registry.
func NewPrometheus() *PrometheusRecorder {
	registry := prometheus.NewRegistry()

	r := &PrometheusRecorder{
		registry: registry,
		tokensIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aegis_csrf_tokens_issued_total",
			Help: "Anti-forgery tokens issued.",
		}),
		tokenValidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aegis_csrf_token_validations_total",
			Help: "Anti-forgery token validations by result.",
		}, []string{"result"}),
		subsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aegis_subscriptions_created_total",
			Help: "Subscriptions created by plan.",
		}, []string{"plan"}),
		subsChanged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aegis_subscriptions_changed_total",
			Help: "Subscription plan or billing changes.",
		}),
		subsCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aegis_subscriptions_cancelled_total",
			Help: "Subscription cancellations.",
		}),
		subsConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aegis_subscription_conflicts_total",
			Help: "Subscription creates rejected by the per-owner uniqueness constraint.",
		}),
		protectionToggles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aegis_protection_toggles_total",
			Help: "Protection switch updates.",
		}),
		threatsReported: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aegis_threats_reported_total",
			Help: "Threat records created by severity.",
		}, []string{"severity"}),
		threatsResolved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aegis_threats_resolved_total",
			Help: "Threat records transitioned to resolved.",
		}),
		ownershipMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aegis_ownership_misses_total",
			Help: "Owner-scoped queries that matched zero rows.",
		}),
		scansRequested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aegis_scans_requested_total",
			Help: "Media scans requested by verdict.",
		}, []string{"verdict"}),
		alertsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aegis_alerts_published_total",
			Help: "Threat events published to the alert stream by result.",
		}, []string{"result"}),
		alertsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aegis_alerts_processed_total",
			Help: "Threat events consumed from the alert stream by result.",
		}, []string{"result"}),
		alertQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "aegis_alert_queue_depth",
			Help: "Unprocessed entries in the alert stream.",
		}),
		alertBatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "aegis_alert_batch_size",
			Help:    "Threat events per consumed batch.",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}),
		alertBatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "aegis_alert_batch_duration_seconds",
			Help:    "Time spent dispatching a batch of threat events.",
			Buckets: prometheus.DefBuckets,
		}),
		alertIngestLag: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "aegis_alert_ingest_lag_seconds",
			Help:    "Delay between threat detection and alert dispatch.",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
		}),
		webhookDeliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aegis_webhook_deliveries_total",
			Help: "Webhook delivery attempts by result.",
		}, []string{"result"}),
		webhookRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "aegis_webhook_retries_total",
			Help: "Webhook deliveries scheduled for retry.",
		}),
		webhookDeliverySeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "aegis_webhook_delivery_duration_seconds",
			Help:    "Round-trip time of webhook delivery requests.",
			Buckets: prometheus.DefBuckets,
		}),
		webhookQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "aegis_webhook_queue_depth",
			Help: "Pending and retryable webhook deliveries.",
		}),
	}

	registry.MustRegister(
		r.tokensIssued,
		r.tokenValidations,
		r.subsCreated,
		r.subsChanged,
		r.subsCancelled,
		r.subsConflicts,
		r.protectionToggles,
		r.threatsReported,
		r.threatsResolved,
		r.ownershipMisses,
		r.scansRequested,
		r.alertsPublished,
		r.alertsProcessed,
		r.alertQueueDepth,
		r.alertBatchSize,
		r.alertBatchDuration,
		r.alertIngestLag,
		r.webhookDeliveries,
		r.webhookRetries,
		r.webhookDeliverySeconds,
		r.webhookQueueDepth,
	)

	return r
}

// Handler returns the /metrics HTTP handler for this registry.
func (r *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// IncTokenIssued increments the issued-token counter.
func (r *PrometheusRecorder) IncTokenIssued() {
	r.tokensIssued.Inc()
}

// IncTokenValidation increments the validation counter by result.
func (r *PrometheusRecorder) IncTokenValidation(result string) {
	r.tokenValidations.WithLabelValues(result).Inc()
}

// IncSubscriptionCreated increments the creation counter by plan.
func (r *PrometheusRecorder) IncSubscriptionCreated(planID string) {
	r.subsCreated.WithLabelValues(planID).Inc()
}

// IncSubscriptionChanged increments the change counter.
func (r *PrometheusRecorder) IncSubscriptionChanged() {
	r.subsChanged.Inc()
}

// IncSubscriptionCancelled increments the cancellation counter.
func (r *PrometheusRecorder) IncSubscriptionCancelled() {
	r.subsCancelled.Inc()
}

// IncSubscriptionConflict increments the conflict counter.
func (r *PrometheusRecorder) IncSubscriptionConflict() {
	r.subsConflicts.Inc()
}

// IncProtectionToggled increments the toggle counter.
func (r *PrometheusRecorder) IncProtectionToggled() {
	r.protectionToggles.Inc()
}

// IncThreatReported increments the threat counter by severity.
func (r *PrometheusRecorder) IncThreatReported(severity string) {
	r.threatsReported.WithLabelValues(severity).Inc()
}

// IncThreatResolved increments the resolved counter.
func (r *PrometheusRecorder) IncThreatResolved() {
	r.threatsResolved.Inc()
}

// IncOwnershipMiss increments the ownership-miss counter.
func (r *PrometheusRecorder) IncOwnershipMiss() {
	r.ownershipMisses.Inc()
}

// IncScanRequested increments the scan counter by verdict.
func (r *PrometheusRecorder) IncScanRequested(verdict string) {
	r.scansRequested.WithLabelValues(verdict).Inc()
}

// IncAlertPublished increments the publish counter by result.
func (r *PrometheusRecorder) IncAlertPublished(result string) {
	r.alertsPublished.WithLabelValues(result).Inc()
}

// IncAlertProcessed increments the consumer counter by result.
func (r *PrometheusRecorder) IncAlertProcessed(result string) {
	r.alertsProcessed.WithLabelValues(result).Inc()
}

// SetAlertQueueDepth records the stream backlog gauge.
func (r *PrometheusRecorder) SetAlertQueueDepth(depth int64) {
	r.alertQueueDepth.Set(float64(depth))
}

// ObserveAlertBatchSize records a consumed batch size.
func (r *PrometheusRecorder) ObserveAlertBatchSize(size int) {
	r.alertBatchSize.Observe(float64(size))
}

// ObserveAlertBatchDuration records a batch dispatch duration.
func (r *PrometheusRecorder) ObserveAlertBatchDuration(d time.Duration) {
	r.alertBatchDuration.Observe(d.Seconds())
}

// ObserveAlertIngestLag records detection-to-dispatch delay.
func (r *PrometheusRecorder) ObserveAlertIngestLag(lag time.Duration) {
	r.alertIngestLag.Observe(lag.Seconds())
}

// IncWebhookDelivery increments the delivery counter by result.
func (r *PrometheusRecorder) IncWebhookDelivery(result string) {
	r.webhookDeliveries.WithLabelValues(result).Inc()
}

// IncWebhookRetry increments the retry counter.
func (r *PrometheusRecorder) IncWebhookRetry(attempt int) {
	r.webhookRetries.Inc()
}

// ObserveWebhookDeliveryDuration records a delivery round-trip time.
func (r *PrometheusRecorder) ObserveWebhookDeliveryDuration(d time.Duration) {
	r.webhookDeliverySeconds.Observe(d.Seconds())
}

// SetWebhookQueueDepth records the pending delivery gauge.
func (r *PrometheusRecorder) SetWebhookQueueDepth(depth int64) {
	r.webhookQueueDepth.Set(float64(depth))
}
