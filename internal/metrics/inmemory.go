package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	TokensIssued           uint64
	TokenValidationsOK     uint64
	TokenValidationsFailed uint64
	SubscriptionsCreated   uint64
	SubscriptionsChanged   uint64
	SubscriptionsCancelled uint64
	SubscriptionConflicts  uint64
	ProtectionToggles      uint64
	ThreatsReported        uint64
	ThreatsResolved        uint64
	OwnershipMisses        uint64
	ScansRequested         uint64
	AlertsPublished        uint64
	AlertsDropped          uint64
	AlertsProcessed        uint64
	AlertsDeadLettered     uint64
	AlertQueueDepth        int64
	WebhookDeliveries      uint64
	WebhookFailures        uint64
	WebhookRetries         uint64
	WebhookQueueDepth      int64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	tokensIssued           uint64
	tokenValidationsOK     uint64
	tokenValidationsFailed uint64
	subscriptionsCreated   uint64
	subscriptionsChanged   uint64
	subscriptionsCancelled uint64
	subscriptionConflicts  uint64
	protectionToggles      uint64
	threatsReported        uint64
	threatsResolved        uint64
	ownershipMisses        uint64
	scansRequested         uint64
	alertsPublished        uint64
	alertsDropped          uint64
	alertsProcessed        uint64
	alertsDeadLettered     uint64
	alertQueueDepth        int64
	webhookDeliveries      uint64
	webhookFailures        uint64
	webhookRetries         uint64
	webhookQueueDepth      int64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		TokensIssued:           atomic.LoadUint64(&m.tokensIssued),
		TokenValidationsOK:     atomic.LoadUint64(&m.tokenValidationsOK),
		TokenValidationsFailed: atomic.LoadUint64(&m.tokenValidationsFailed),
		SubscriptionsCreated:   atomic.LoadUint64(&m.subscriptionsCreated),
		SubscriptionsChanged:   atomic.LoadUint64(&m.subscriptionsChanged),
		SubscriptionsCancelled: atomic.LoadUint64(&m.subscriptionsCancelled),
		SubscriptionConflicts:  atomic.LoadUint64(&m.subscriptionConflicts),
		ProtectionToggles:      atomic.LoadUint64(&m.protectionToggles),
		ThreatsReported:        atomic.LoadUint64(&m.threatsReported),
		ThreatsResolved:        atomic.LoadUint64(&m.threatsResolved),
		OwnershipMisses:        atomic.LoadUint64(&m.ownershipMisses),
		ScansRequested:         atomic.LoadUint64(&m.scansRequested),
		AlertsPublished:        atomic.LoadUint64(&m.alertsPublished),
		AlertsDropped:          atomic.LoadUint64(&m.alertsDropped),
		AlertsProcessed:        atomic.LoadUint64(&m.alertsProcessed),
		AlertsDeadLettered:     atomic.LoadUint64(&m.alertsDeadLettered),
		AlertQueueDepth:        atomic.LoadInt64(&m.alertQueueDepth),
		WebhookDeliveries:      atomic.LoadUint64(&m.webhookDeliveries),
		WebhookFailures:        atomic.LoadUint64(&m.webhookFailures),
		WebhookRetries:         atomic.LoadUint64(&m.webhookRetries),
		WebhookQueueDepth:      atomic.LoadInt64(&m.webhookQueueDepth),
	}
}

// IncTokenIssued increments the issued-token counter.
func (m *InMemoryRecorder) IncTokenIssued() {
	atomic.AddUint64(&m.tokensIssued, 1)
}

// IncTokenValidation increments the validation counter by result.
func (m *InMemoryRecorder) IncTokenValidation(result string) {
	if result == "ok" {
		atomic.AddUint64(&m.tokenValidationsOK, 1)
		return
	}
	atomic.AddUint64(&m.tokenValidationsFailed, 1)
}

// IncSubscriptionCreated increments the subscription-created counter.
func (m *InMemoryRecorder) IncSubscriptionCreated(planID string) {
	atomic.AddUint64(&m.subscriptionsCreated, 1)
}

// IncSubscriptionChanged increments the subscription-changed counter.
func (m *InMemoryRecorder) IncSubscriptionChanged() {
	atomic.AddUint64(&m.subscriptionsChanged, 1)
}

// IncSubscriptionCancelled increments the subscription-cancelled counter.
func (m *InMemoryRecorder) IncSubscriptionCancelled() {
	atomic.AddUint64(&m.subscriptionsCancelled, 1)
}

// IncSubscriptionConflict increments the conflict counter.
func (m *InMemoryRecorder) IncSubscriptionConflict() {
	atomic.AddUint64(&m.subscriptionConflicts, 1)
}

// IncProtectionToggled increments the protection-toggle counter.
func (m *InMemoryRecorder) IncProtectionToggled() {
	atomic.AddUint64(&m.protectionToggles, 1)
}

// IncThreatReported increments the threat-reported counter.
func (m *InMemoryRecorder) IncThreatReported(severity string) {
	atomic.AddUint64(&m.threatsReported, 1)
}

// IncThreatResolved increments the threat-resolved counter.
func (m *InMemoryRecorder) IncThreatResolved() {
	atomic.AddUint64(&m.threatsResolved, 1)
}

// IncOwnershipMiss increments the ownership-miss counter.
func (m *InMemoryRecorder) IncOwnershipMiss() {
	atomic.AddUint64(&m.ownershipMisses, 1)
}

// IncScanRequested increments the scan counter.
func (m *InMemoryRecorder) IncScanRequested(verdict string) {
	atomic.AddUint64(&m.scansRequested, 1)
}

// IncAlertPublished increments the published or dropped alert counter.
func (m *InMemoryRecorder) IncAlertPublished(result string) {
	if result == "success" {
		atomic.AddUint64(&m.alertsPublished, 1)
		return
	}
	atomic.AddUint64(&m.alertsDropped, 1)
}

// IncAlertProcessed increments the processed or dead-lettered counter.
func (m *InMemoryRecorder) IncAlertProcessed(result string) {
	if result == "dead_lettered" {
		atomic.AddUint64(&m.alertsDeadLettered, 1)
		return
	}
	atomic.AddUint64(&m.alertsProcessed, 1)
}

// SetAlertQueueDepth records the alert stream backlog.
func (m *InMemoryRecorder) SetAlertQueueDepth(depth int64) {
	atomic.StoreInt64(&m.alertQueueDepth, depth)
}

// ObserveAlertBatchSize is counter-only in memory.
func (m *InMemoryRecorder) ObserveAlertBatchSize(size int) {}

// ObserveAlertBatchDuration is counter-only in memory.
func (m *InMemoryRecorder) ObserveAlertBatchDuration(d time.Duration) {}

// ObserveAlertIngestLag is counter-only in memory.
func (m *InMemoryRecorder) ObserveAlertIngestLag(lag time.Duration) {}

// IncWebhookDelivery increments the delivery counter by result.
func (m *InMemoryRecorder) IncWebhookDelivery(result string) {
	if result == "success" {
		atomic.AddUint64(&m.webhookDeliveries, 1)
		return
	}
	atomic.AddUint64(&m.webhookFailures, 1)
}

// IncWebhookRetry increments the retry counter.
func (m *InMemoryRecorder) IncWebhookRetry(attempt int) {
	atomic.AddUint64(&m.webhookRetries, 1)
}

// ObserveWebhookDeliveryDuration is counter-only in memory.
func (m *InMemoryRecorder) ObserveWebhookDeliveryDuration(d time.Duration) {}

// SetWebhookQueueDepth records the pending delivery backlog.
func (m *InMemoryRecorder) SetWebhookQueueDepth(depth int64) {
	atomic.StoreInt64(&m.webhookQueueDepth, depth)
}
