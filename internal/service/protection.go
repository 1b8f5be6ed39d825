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

// ProtectionService handles protection toggle business logic.
type ProtectionService struct {
	repo    *repository.Repository
	audit   audit.Sink
	metrics metrics.Recorder
}

// NewProtectionService creates a new ProtectionService.
func NewProtectionService(repo *repository.Repository, sink audit.Sink, recorder metrics.Recorder) *ProtectionService {
	if sink == nil {
		sink = audit.NopSink{}
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &ProtectionService{
		repo:    repo,
		audit:   sink,
		metrics: recorder,
	}
}

// Get returns the owner's protection settings, provisioning the row
// with defaults on first access. Concurrent first reads are safe: the
// upsert guarantees a single row per owner.
func (s *ProtectionService) Get(ctx context.Context, ownerID string) (*model.Protection, error) {
	defaults := model.DefaultProtection(newULID(), ownerID, time.Now().UTC())
	prot, err := s.repo.GetOrCreateProtectionByOwner(ctx, defaults)
	if err != nil {
		return nil, fmt.Errorf("failed to get protection settings: %w", err)
	}
	return prot, nil
}

// UpdateProtectionInput defines input for patching protection toggles.
// Nil fields are left unchanged.
type UpdateProtectionInput struct {
	DeepfakeAlerts     *bool
	ImpersonationWatch *bool
	DataBreachMonitor  *bool
}

// Update applies a partial update to the owner's protection toggles.
// A patch before any read provisions the row first, so toggling is
// never a 404 for a valid session.
func (s *ProtectionService) Update(ctx context.Context, ownerID string, input UpdateProtectionInput) (*model.Protection, error) {
	if input.DeepfakeAlerts == nil && input.ImpersonationWatch == nil && input.DataBreachMonitor == nil {
		return nil, ErrEmptyPatch
	}

	patch := repository.ProtectionPatch{
		DeepfakeAlerts:     input.DeepfakeAlerts,
		ImpersonationWatch: input.ImpersonationWatch,
		DataBreachMonitor:  input.DataBreachMonitor,
	}

	prot, err := s.repo.UpdateProtectionByOwner(ctx, ownerID, patch)
	if errors.Is(err, repository.ErrNotFound) {
		// First touch: provision defaults, then retry the patch once.
		if _, err := s.Get(ctx, ownerID); err != nil {
			return nil, err
		}
		prot, err = s.repo.UpdateProtectionByOwner(ctx, ownerID, patch)
		if err != nil {
			return nil, fmt.Errorf("failed to update protection settings: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to update protection settings: %w", err)
	}

	s.metrics.IncProtectionToggled()
	s.audit.Record(ctx, newEvent(ctx, audit.EventProtectionChanged, ""))

	return prot, nil
}
