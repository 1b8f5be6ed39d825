package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"time"

	"github.com/aegisguard/aegis/internal/alert"
	"github.com/aegisguard/aegis/internal/audit"
	"github.com/aegisguard/aegis/internal/metrics"
	"github.com/aegisguard/aegis/internal/model"
	"github.com/aegisguard/aegis/internal/repository"
)

// ThreatService handles threat log business logic.
type ThreatService struct {
	repo    *repository.Repository
	audit   audit.Sink
	metrics metrics.Recorder
	alerts  *alert.Publisher
}

// NewThreatService creates a new ThreatService.
func NewThreatService(repo *repository.Repository, sink audit.Sink, recorder metrics.Recorder) *ThreatService {
	if sink == nil {
		sink = audit.NopSink{}
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &ThreatService{
		repo:    repo,
		audit:   sink,
		metrics: recorder,
	}
}

// WithAlerts attaches a stream publisher for threat lifecycle events.
// Without one, threats are recorded but no webhooks fire.
func (s *ThreatService) WithAlerts(publisher *alert.Publisher) *ThreatService {
	s.alerts = publisher
	return s
}

// ReportThreatInput defines input for reporting a threat.
type ReportThreatInput struct {
	Source      string
	Category    string
	Severity    string
	Description string
	MediaURL    string
	DetectedAt  *time.Time
}

// Report records a new threat for the owner. Status always starts
// open and resolved_at starts empty regardless of input.
func (s *ThreatService) Report(ctx context.Context, ownerID string, input ReportThreatInput) (*model.Threat, error) {
	if input.Source == "" {
		return nil, ErrInvalidSource
	}
	if !slices.Contains(model.ValidThreatCategories, input.Category) {
		return nil, ErrInvalidCategory
	}
	if len(input.Description) > maxDescriptionLength {
		return nil, ErrDescriptionTooLong
	}
	if input.MediaURL != "" {
		if err := validateMediaURL(input.MediaURL); err != nil {
			return nil, err
		}
	}

	// Severity defaults to medium
	severity := model.SeverityMedium
	if input.Severity != "" {
		severity = model.ThreatSeverity(input.Severity)
		if !severity.IsValid() {
			return nil, ErrInvalidSeverity
		}
	}

	now := time.Now().UTC()
	detectedAt := now
	if input.DetectedAt != nil {
		detectedAt = input.DetectedAt.UTC()
	}

	threat := &model.Threat{
		ID:          newULID(),
		OwnerID:     ownerID,
		Source:      input.Source,
		Category:    input.Category,
		Severity:    severity,
		Status:      model.ThreatOpen,
		Description: input.Description,
		MediaURL:    input.MediaURL,
		DetectedAt:  detectedAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.CreateThreat(ctx, threat); err != nil {
		return nil, fmt.Errorf("failed to report threat: %w", err)
	}

	s.metrics.IncThreatReported(string(threat.Severity))
	s.audit.Record(ctx, newEvent(ctx, audit.EventThreatReported, threat.Category))
	if s.alerts != nil {
		s.alerts.PublishAsync(alert.PayloadFromThreat(model.EventTypeThreatReported, threat))
	}

	return threat, nil
}

// Get retrieves a threat by ID, scoped to the owner. A hit on another
// owner's threat is indistinguishable from a missing row; both are
// reported as an ownership miss because the query cannot tell.
func (s *ThreatService) Get(ctx context.Context, id, ownerID string) (*model.Threat, error) {
	threat, err := s.repo.GetThreatByOwner(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.IncOwnershipMiss()
			s.audit.Record(ctx, newEvent(ctx, audit.EventOwnershipMiss, "threat "+id))
			return nil, ErrThreatNotFound
		}
		return nil, err
	}

	return threat, nil
}

// ListThreatsInput defines input for listing threats.
type ListThreatsInput struct {
	Status         string
	Cursor         string
	Limit          int
	DetectedAfter  *time.Time
	DetectedBefore *time.Time
}

// ListThreatsOutput defines output for listing threats.
type ListThreatsOutput struct {
	Threats    []*model.Threat
	NextCursor string
	HasMore    bool
}

// List retrieves a paginated list of the owner's threats, newest
// first.
func (s *ThreatService) List(ctx context.Context, ownerID string, input ListThreatsInput) (*ListThreatsOutput, error) {
	if input.Limit <= 0 || input.Limit > 100 {
		input.Limit = 20
	}

	filter := repository.ThreatFilter{
		OwnerID:        ownerID,
		DetectedAfter:  input.DetectedAfter,
		DetectedBefore: input.DetectedBefore,
	}

	if input.Status != "" {
		status := model.ThreatStatus(input.Status)
		if !status.IsValid() {
			return nil, ErrInvalidStatus
		}
		filter.Status = status
	}

	threats, nextCursor, err := s.repo.ListThreatsByOwner(ctx, filter, input.Cursor, input.Limit)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidCursor) {
			return nil, ErrInvalidCursor
		}
		return nil, err
	}

	return &ListThreatsOutput{
		Threats:    threats,
		NextCursor: nextCursor,
		HasMore:    nextCursor != "",
	}, nil
}

// UpdateThreatInput defines input for patching a threat.
// Nil fields are left unchanged.
type UpdateThreatInput struct {
	Status   *string
	Severity *string
}

// Update applies a partial update to the owner's threat. A transition
// to resolved stamps resolved_at server-side; client-supplied
// timestamps are never accepted.
func (s *ThreatService) Update(ctx context.Context, id, ownerID string, input UpdateThreatInput) (*model.Threat, error) {
	if input.Status == nil && input.Severity == nil {
		return nil, ErrEmptyPatch
	}

	patch := repository.ThreatPatch{}

	resolving := false
	if input.Status != nil {
		status := model.ThreatStatus(*input.Status)
		if !status.IsValid() {
			return nil, ErrInvalidStatus
		}
		patch.Status = &status
		resolving = status == model.ThreatResolved
	}

	if input.Severity != nil {
		severity := model.ThreatSeverity(*input.Severity)
		if !severity.IsValid() {
			return nil, ErrInvalidSeverity
		}
		patch.Severity = &severity
	}

	threat, err := s.repo.UpdateThreatByOwner(ctx, id, ownerID, patch)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.IncOwnershipMiss()
			s.audit.Record(ctx, newEvent(ctx, audit.EventOwnershipMiss, "threat "+id))
			return nil, ErrThreatNotFound
		}
		return nil, err
	}

	if resolving {
		s.metrics.IncThreatResolved()
		if s.alerts != nil {
			s.alerts.PublishAsync(alert.PayloadFromThreat(model.EventTypeThreatResolved, threat))
		}
	}
	s.audit.Record(ctx, newEvent(ctx, audit.EventThreatUpdated, "status "+string(threat.Status)))

	return threat, nil
}

// validateMediaURL checks that a media URL is absolute http(s).
func validateMediaURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return ErrInvalidMediaURL
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ErrInvalidMediaURL
	}
	if parsed.Host == "" {
		return ErrInvalidMediaURL
	}
	return nil
}
