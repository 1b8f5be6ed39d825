// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/aegisguard/aegis/internal/model"
)

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Pagination provides cursor-based pagination info.
type Pagination struct {
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
}

// CSRFTokenResponse carries a freshly issued anti-forgery token.
type CSRFTokenResponse struct {
	CSRFToken string `json:"csrfToken"`
}

// CreateSubscriptionRequest represents the request body for creating a
// subscription.
type CreateSubscriptionRequest struct {
	PlanID       string `json:"plan_id"`
	BillingCycle string `json:"billing_cycle,omitempty"`
}

// UpdateSubscriptionRequest represents the request body for patching a
// subscription. Absent fields are left unchanged.
type UpdateSubscriptionRequest struct {
	PlanID       *string `json:"plan_id,omitempty"`
	BillingCycle *string `json:"billing_cycle,omitempty"`
	Status       *string `json:"status,omitempty"`
}

// SubscriptionResponse represents a subscription in API responses.
type SubscriptionResponse struct {
	ID           string     `json:"id"`
	PlanID       string     `json:"plan_id"`
	BillingCycle string     `json:"billing_cycle"`
	Status       string     `json:"status"`
	StartedAt    time.Time  `json:"started_at"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ToSubscriptionResponse converts a Subscription model to its DTO.
// The owner is implied by the session and never echoed back.
func ToSubscriptionResponse(sub *model.Subscription) *SubscriptionResponse {
	return &SubscriptionResponse{
		ID:           sub.ID,
		PlanID:       sub.PlanID,
		BillingCycle: string(sub.BillingCycle),
		Status:       string(sub.Status),
		StartedAt:    sub.StartedAt,
		CancelledAt:  sub.CancelledAt,
		CreatedAt:    sub.CreatedAt,
		UpdatedAt:    sub.UpdatedAt,
	}
}

// UpdateProtectionRequest represents the request body for patching
// protection toggles. Absent fields are left unchanged.
type UpdateProtectionRequest struct {
	DeepfakeAlerts     *bool `json:"deepfake_alerts,omitempty"`
	ImpersonationWatch *bool `json:"impersonation_watch,omitempty"`
	DataBreachMonitor  *bool `json:"data_breach_monitor,omitempty"`
}

// ProtectionResponse represents protection settings in API responses.
type ProtectionResponse struct {
	DeepfakeAlerts     bool      `json:"deepfake_alerts"`
	ImpersonationWatch bool      `json:"impersonation_watch"`
	DataBreachMonitor  bool      `json:"data_breach_monitor"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// ToProtectionResponse converts a Protection model to its DTO.
func ToProtectionResponse(prot *model.Protection) *ProtectionResponse {
	return &ProtectionResponse{
		DeepfakeAlerts:     prot.DeepfakeAlerts,
		ImpersonationWatch: prot.ImpersonationWatch,
		DataBreachMonitor:  prot.DataBreachMonitor,
		UpdatedAt:          prot.UpdatedAt,
	}
}

// ReportThreatRequest represents the request body for reporting a
// threat.
type ReportThreatRequest struct {
	Source      string     `json:"source"`
	Category    string     `json:"category"`
	Severity    string     `json:"severity,omitempty"`
	Description string     `json:"description,omitempty"`
	MediaURL    string     `json:"media_url,omitempty"`
	DetectedAt  *time.Time `json:"detected_at,omitempty"`
}

// UpdateThreatRequest represents the request body for patching a
// threat. Absent fields are left unchanged. There is deliberately no
// resolved_at field; resolution timestamps are stamped server-side.
type UpdateThreatRequest struct {
	Status   *string `json:"status,omitempty"`
	Severity *string `json:"severity,omitempty"`
}

// ThreatResponse represents a threat in API responses.
type ThreatResponse struct {
	ID          string     `json:"id"`
	Source      string     `json:"source"`
	Category    string     `json:"category"`
	Severity    string     `json:"severity"`
	Status      string     `json:"status"`
	Description string     `json:"description,omitempty"`
	MediaURL    string     `json:"media_url,omitempty"`
	DetectedAt  time.Time  `json:"detected_at"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ThreatListResponse represents a paginated list of threats.
type ThreatListResponse struct {
	Data       []ThreatResponse `json:"data"`
	Pagination *Pagination      `json:"pagination"`
}

// ToThreatResponse converts a Threat model to its DTO.
func ToThreatResponse(threat *model.Threat) *ThreatResponse {
	return &ThreatResponse{
		ID:          threat.ID,
		Source:      threat.Source,
		Category:    threat.Category,
		Severity:    string(threat.Severity),
		Status:      string(threat.Status),
		Description: threat.Description,
		MediaURL:    threat.MediaURL,
		DetectedAt:  threat.DetectedAt,
		ResolvedAt:  threat.ResolvedAt,
		CreatedAt:   threat.CreatedAt,
		UpdatedAt:   threat.UpdatedAt,
	}
}

// ToThreatListResponse converts a slice of Threat models to its DTO.
func ToThreatListResponse(threats []*model.Threat, nextCursor string, hasMore bool) *ThreatListResponse {
	responses := make([]ThreatResponse, len(threats))
	for i, threat := range threats {
		responses[i] = *ToThreatResponse(threat)
	}
	return &ThreatListResponse{
		Data: responses,
		Pagination: &Pagination{
			NextCursor: nextCursor,
			HasMore:    hasMore,
		},
	}
}

// ScanRequest represents the request body for an on-demand scan.
type ScanRequest struct {
	MediaURL string `json:"media_url"`
	Category string `json:"category,omitempty"`
}

// ScanResponse represents a scan verdict in API responses.
type ScanResponse struct {
	ID        string          `json:"id"`
	Verdict   string          `json:"verdict"`
	ScannedAt time.Time       `json:"scanned_at"`
	Threat    *ThreatResponse `json:"threat,omitempty"`
}

// PlanResponse represents a pricing plan in API responses.
type PlanResponse struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	PriceCentsMonthly int      `json:"price_cents_monthly"`
	PriceCentsAnnual  int      `json:"price_cents_annual"`
	ScansPerMonth     int      `json:"scans_per_month"`
	Features          []string `json:"features"`
}

// PlanListResponse represents the pricing catalog.
type PlanListResponse struct {
	Data []PlanResponse `json:"data"`
}

// ToPlanListResponse converts the plan catalog to its DTO.
func ToPlanListResponse(plans []model.Plan) *PlanListResponse {
	responses := make([]PlanResponse, len(plans))
	for i, plan := range plans {
		responses[i] = PlanResponse{
			ID:                plan.ID,
			Name:              plan.Name,
			PriceCentsMonthly: plan.PriceCentsMonthly,
			PriceCentsAnnual:  plan.PriceCentsAnnual,
			ScansPerMonth:     plan.ScansPerMonth,
			Features:          plan.Features,
		}
	}
	return &PlanListResponse{Data: responses}
}
