package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/aegisguard/aegis/internal/model"
)

// CreateSubscription inserts a new subscription stamped with its owner.
// The unique constraint on owner_id makes this safe under concurrent
// creates: exactly one insert wins, the rest observe
// ErrSubscriptionExists.
func (r *Repository) CreateSubscription(ctx context.Context, sub *model.Subscription) error {
	query := `
		INSERT INTO subscriptions (id, owner_id, plan_id, billing_cycle, status, started_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		sub.ID,
		sub.OwnerID,
		sub.PlanID,
		sub.BillingCycle,
		sub.Status,
		sub.StartedAt,
		sub.CreatedAt,
		sub.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrSubscriptionExists
		}
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	return nil
}

// GetSubscriptionByOwner retrieves the owner's subscription.
func (r *Repository) GetSubscriptionByOwner(ctx context.Context, ownerID string) (*model.Subscription, error) {
	query := `
		SELECT id, owner_id, plan_id, billing_cycle, status, started_at, cancelled_at, created_at, updated_at
		FROM subscriptions
		WHERE owner_id = $1
	`

	sub, err := scanSubscription(r.pool.QueryRow(ctx, query, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	return sub, nil
}

// SubscriptionPatch holds the mutable subscription fields.
// Nil fields are left unchanged.
type SubscriptionPatch struct {
	PlanID       *string
	BillingCycle *model.BillingCycle
	Status       *model.SubscriptionStatus
}

// UpdateSubscriptionByOwner applies a patch to the owner's subscription
// in a single owner-filtered statement. A transition to cancelled
// stamps cancelled_at server-side; updated_at is always stamped.
// Returns ErrNotFound when the owner has no subscription.
func (r *Repository) UpdateSubscriptionByOwner(ctx context.Context, ownerID string, patch SubscriptionPatch) (*model.Subscription, error) {
	query := `
		UPDATE subscriptions
		SET plan_id       = COALESCE($2, plan_id),
		    billing_cycle = COALESCE($3, billing_cycle),
		    status        = COALESCE($4, status),
		    cancelled_at  = CASE WHEN $4 = 'cancelled' AND status <> 'cancelled' THEN $5 ELSE cancelled_at END,
		    updated_at    = $5
		WHERE owner_id = $1
		RETURNING id, owner_id, plan_id, billing_cycle, status, started_at, cancelled_at, created_at, updated_at
	`

	sub, err := scanSubscription(r.pool.QueryRow(ctx, query,
		ownerID,
		patch.PlanID,
		patch.BillingCycle,
		patch.Status,
		time.Now().UTC(),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update subscription: %w", err)
	}

	return sub, nil
}

// scanSubscription scans a single row into a Subscription model.
func scanSubscription(row pgx.Row) (*model.Subscription, error) {
	var sub model.Subscription
	err := row.Scan(
		&sub.ID,
		&sub.OwnerID,
		&sub.PlanID,
		&sub.BillingCycle,
		&sub.Status,
		&sub.StartedAt,
		&sub.CancelledAt,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	return &sub, err
}
