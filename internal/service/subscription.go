package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aegisguard/aegis/internal/audit"
	"github.com/aegisguard/aegis/internal/metrics"
	"github.com/aegisguard/aegis/internal/model"
	"github.com/aegisguard/aegis/internal/repository"
)

// SubscriptionService handles subscription business logic.
type SubscriptionService struct {
	repo    *repository.Repository
	audit   audit.Sink
	metrics metrics.Recorder
}

// NewSubscriptionService creates a new SubscriptionService.
func NewSubscriptionService(repo *repository.Repository, sink audit.Sink, recorder metrics.Recorder) *SubscriptionService {
	if sink == nil {
		sink = audit.NopSink{}
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &SubscriptionService{
		repo:    repo,
		audit:   sink,
		metrics: recorder,
	}
}

// CreateSubscriptionInput defines input for creating a subscription.
type CreateSubscriptionInput struct {
	PlanID       string
	BillingCycle string
}

// Create creates the owner's subscription. At most one subscription
// exists per owner; a second create returns ErrSubscriptionExists
// regardless of the plan requested.
func (s *SubscriptionService) Create(ctx context.Context, ownerID string, input CreateSubscriptionInput) (*model.Subscription, error) {
	if model.PlanByID(input.PlanID) == nil {
		return nil, ErrUnknownPlan
	}

	// Billing cycle defaults to monthly
	cycle := model.BillingMonthly
	if input.BillingCycle != "" {
		cycle = model.BillingCycle(input.BillingCycle)
		if !cycle.IsValid() {
			return nil, ErrInvalidBillingCycle
		}
	}

	now := time.Now().UTC()
	sub := &model.Subscription{
		ID:           newULID(),
		OwnerID:      ownerID,
		PlanID:       input.PlanID,
		BillingCycle: cycle,
		Status:       model.SubscriptionActive,
		StartedAt:    now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.CreateSubscription(ctx, sub); err != nil {
		if errors.Is(err, repository.ErrSubscriptionExists) {
			s.metrics.IncSubscriptionConflict()
			s.audit.Record(ctx, newEvent(ctx, audit.EventSubscriptionConflict, "duplicate subscription create"))
			return nil, ErrSubscriptionExists
		}
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}

	s.metrics.IncSubscriptionCreated(sub.PlanID)
	s.audit.Record(ctx, newEvent(ctx, audit.EventSubscriptionCreated, "plan "+sub.PlanID))

	return sub, nil
}

// Get retrieves the owner's subscription.
func (s *SubscriptionService) Get(ctx context.Context, ownerID string) (*model.Subscription, error) {
	sub, err := s.repo.GetSubscriptionByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}

	return sub, nil
}

// UpdateSubscriptionInput defines input for patching a subscription.
// Nil fields are left unchanged.
type UpdateSubscriptionInput struct {
	PlanID       *string
	BillingCycle *string
	Status       *string
}

// Update applies a partial update to the owner's subscription.
// A status transition to cancelled stamps cancelled_at server-side.
func (s *SubscriptionService) Update(ctx context.Context, ownerID string, input UpdateSubscriptionInput) (*model.Subscription, error) {
	if input.PlanID == nil && input.BillingCycle == nil && input.Status == nil {
		return nil, ErrEmptyPatch
	}

	patch := repository.SubscriptionPatch{}

	if input.PlanID != nil {
		if model.PlanByID(*input.PlanID) == nil {
			return nil, ErrUnknownPlan
		}
		patch.PlanID = input.PlanID
	}

	if input.BillingCycle != nil {
		cycle := model.BillingCycle(*input.BillingCycle)
		if !cycle.IsValid() {
			return nil, ErrInvalidBillingCycle
		}
		patch.BillingCycle = &cycle
	}

	cancelling := false
	if input.Status != nil {
		status := model.SubscriptionStatus(*input.Status)
		if !status.IsValid() {
			return nil, ErrInvalidStatus
		}
		patch.Status = &status
		cancelling = status == model.SubscriptionCancelled
	}

	sub, err := s.repo.UpdateSubscriptionByOwner(ctx, ownerID, patch)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}

	if cancelling {
		s.metrics.IncSubscriptionCancelled()
	} else {
		s.metrics.IncSubscriptionChanged()
	}
	s.audit.Record(ctx, newEvent(ctx, audit.EventSubscriptionChanged, "status "+string(sub.Status)))

	return sub, nil
}

// Cancel transitions the owner's subscription to cancelled. The row
// is retained; cancellation is never a physical delete.
func (s *SubscriptionService) Cancel(ctx context.Context, ownerID string) (*model.Subscription, error) {
	status := string(model.SubscriptionCancelled)
	return s.Update(ctx, ownerID, UpdateSubscriptionInput{Status: &status})
}

// Plans returns the static pricing catalog.
func (s *SubscriptionService) Plans() []model.Plan {
	return model.Plans
}
