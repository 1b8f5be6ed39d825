package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/aegisguard/aegis/internal/model"
)

// GetOrCreateProtectionByOwner returns the owner's protection row,
// lazily provisioning it with defaults on first access. The upsert
// keeps concurrent first reads safe: both requests land on the same
// row and neither observes a uniqueness conflict.
func (r *Repository) GetOrCreateProtectionByOwner(ctx context.Context, defaults *model.Protection) (*model.Protection, error) {
	query := `
		INSERT INTO protection_status (id, owner_id, deepfake_alerts, impersonation_watch, data_breach_monitor, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (owner_id) DO UPDATE SET owner_id = EXCLUDED.owner_id
		RETURNING id, owner_id, deepfake_alerts, impersonation_watch, data_breach_monitor, created_at, updated_at
	`

	prot, err := scanProtection(r.pool.QueryRow(ctx, query,
		defaults.ID,
		defaults.OwnerID,
		defaults.DeepfakeAlerts,
		defaults.ImpersonationWatch,
		defaults.DataBreachMonitor,
		defaults.CreatedAt,
		defaults.UpdatedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to provision protection status: %w", err)
	}

	return prot, nil
}

// ProtectionPatch holds the mutable protection toggles.
// Nil fields are left unchanged.
type ProtectionPatch struct {
	DeepfakeAlerts     *bool
	ImpersonationWatch *bool
	DataBreachMonitor  *bool
}

// UpdateProtectionByOwner applies a toggle patch to the owner's
// singleton row and stamps updated_at server-side. Returns
// ErrNotFound when the owner was never provisioned.
func (r *Repository) UpdateProtectionByOwner(ctx context.Context, ownerID string, patch ProtectionPatch) (*model.Protection, error) {
	query := `
		UPDATE protection_status
		SET deepfake_alerts     = COALESCE($2, deepfake_alerts),
		    impersonation_watch = COALESCE($3, impersonation_watch),
		    data_breach_monitor = COALESCE($4, data_breach_monitor),
		    updated_at          = $5
		WHERE owner_id = $1
		RETURNING id, owner_id, deepfake_alerts, impersonation_watch, data_breach_monitor, created_at, updated_at
	`

	prot, err := scanProtection(r.pool.QueryRow(ctx, query,
		ownerID,
		patch.DeepfakeAlerts,
		patch.ImpersonationWatch,
		patch.DataBreachMonitor,
		time.Now().UTC(),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update protection status: %w", err)
	}

	return prot, nil
}

// scanProtection scans a single row into a Protection model.
func scanProtection(row pgx.Row) (*model.Protection, error) {
	var prot model.Protection
	err := row.Scan(
		&prot.ID,
		&prot.OwnerID,
		&prot.DeepfakeAlerts,
		&prot.ImpersonationWatch,
		&prot.DataBreachMonitor,
		&prot.CreatedAt,
		&prot.UpdatedAt,
	)
	return &prot, err
}
