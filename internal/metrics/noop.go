package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncTokenIssued is a no-op.
func (n *NoopRecorder) IncTokenIssued() {}

// IncTokenValidation is a no-op.
func (n *NoopRecorder) IncTokenValidation(result string) {}

// IncSubscriptionCreated is a no-op.
func (n *NoopRecorder) IncSubscriptionCreated(planID string) {}

// IncSubscriptionChanged is a no-op.
func (n *NoopRecorder) IncSubscriptionChanged() {}

// IncSubscriptionCancelled is a no-op.
func (n *NoopRecorder) IncSubscriptionCancelled() {}

// IncSubscriptionConflict is a no-op.
func (n *NoopRecorder) IncSubscriptionConflict() {}

// IncProtectionToggled is a no-op.
func (n *NoopRecorder) IncProtectionToggled() {}

// IncThreatReported is a no-op.
func (n *NoopRecorder) IncThreatReported(severity string) {}

// IncThreatResolved is a no-op.
func (n *NoopRecorder) IncThreatResolved() {}

// IncOwnershipMiss is a no-op.
func (n *NoopRecorder) IncOwnershipMiss() {}

// IncScanRequested is a no-op.
func (n *NoopRecorder) IncScanRequested(verdict string) {}

// IncAlertPublished is a no-op.
func (n *NoopRecorder) IncAlertPublished(result string) {}

// IncAlertProcessed is a no-op.
func (n *NoopRecorder) IncAlertProcessed(result string) {}

// SetAlertQueueDepth is a no-op.
func (n *NoopRecorder) SetAlertQueueDepth(depth int64) {}

// ObserveAlertBatchSize is a no-op.
func (n *NoopRecorder) ObserveAlertBatchSize(size int) {}

// ObserveAlertBatchDuration is a no-op.
func (n *NoopRecorder) ObserveAlertBatchDuration(d time.Duration) {}

// ObserveAlertIngestLag is a no-op.
func (n *NoopRecorder) ObserveAlertIngestLag(lag time.Duration) {}

// IncWebhookDelivery is a no-op.
func (n *NoopRecorder) IncWebhookDelivery(result string) {}

// IncWebhookRetry is a no-op.
func (n *NoopRecorder) IncWebhookRetry(attempt int) {}

// ObserveWebhookDeliveryDuration is a no-op.
func (n *NoopRecorder) ObserveWebhookDeliveryDuration(d time.Duration) {}

// SetWebhookQueueDepth is a no-op.
func (n *NoopRecorder) SetWebhookQueueDepth(depth int64) {}
