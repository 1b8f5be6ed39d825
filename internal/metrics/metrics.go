// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
type Recorder interface {
	// Anti-forgery token metrics
	IncTokenIssued()
	IncTokenValidation(result string) // result: "ok", "missing", "invalid"

	// Subscription metrics
	IncSubscriptionCreated(planID string)
	IncSubscriptionChanged()
	IncSubscriptionCancelled()
	IncSubscriptionConflict()

	// Protection / threat metrics
	IncProtectionToggled()
	IncThreatReported(severity string)
	IncThreatResolved()

	// Access-control metrics
	IncOwnershipMiss() // owner-filtered query matched zero rows

	// Scan stub metrics
	IncScanRequested(verdict string)

	// Alert pipeline metrics
	IncAlertPublished(result string) // result: "success", "dropped"
	IncAlertProcessed(result string) // result: "success", "failed", "dead_lettered"
	SetAlertQueueDepth(depth int64)
	ObserveAlertBatchSize(size int)
	ObserveAlertBatchDuration(d time.Duration)
	ObserveAlertIngestLag(lag time.Duration)

	// Webhook delivery metrics
	IncWebhookDelivery(result string) // result: "success", "failed", "exhausted"
	IncWebhookRetry(attempt int)
	ObserveWebhookDeliveryDuration(d time.Duration)
	SetWebhookQueueDepth(depth int64)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
