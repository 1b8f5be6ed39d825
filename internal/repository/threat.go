package repository

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/aegisguard/aegis/internal/model"
)

// ThreatFilter defines filters for listing threats.
// OwnerID is mandatory; there is no unscoped listing path.
type ThreatFilter struct {
	OwnerID        string
	Status         model.ThreatStatus
	DetectedAfter  *time.Time
	DetectedBefore *time.Time
}

// PaginationCursor represents a decoded cursor for pagination.
type PaginationCursor struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateThreat inserts a new threat record stamped with its owner.
func (r *Repository) CreateThreat(ctx context.Context, threat *model.Threat) error {
	query := `
		INSERT INTO threat_logs (id, owner_id, source, category, severity, status, description, media_url, detected_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.pool.Exec(ctx, query,
		threat.ID,
		threat.OwnerID,
		threat.Source,
		threat.Category,
		threat.Severity,
		threat.Status,
		threat.Description,
		threat.MediaURL,
		threat.DetectedAt,
		threat.CreatedAt,
		threat.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create threat: %w", err)
	}

	return nil
}

// GetThreatByOwner retrieves one threat by (id, owner) in a single
// atomic predicate. A threat that exists under another owner returns
// ErrNotFound, identical to a missing row.
func (r *Repository) GetThreatByOwner(ctx context.Context, id, ownerID string) (*model.Threat, error) {
	query := `
		SELECT id, owner_id, source, category, severity, status, description, media_url, detected_at, resolved_at, created_at, updated_at
		FROM threat_logs
		WHERE id = $1 AND owner_id = $2
	`

	threat, err := scanThreat(r.pool.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get threat: %w", err)
	}

	return threat, nil
}

// ListThreatsByOwner retrieves a paginated list of the owner's threats.
func (r *Repository) ListThreatsByOwner(ctx context.Context, filter ThreatFilter, cursor string, limit int) ([]*model.Threat, string, error) {
	// Decode cursor if provided
	var cursorData *PaginationCursor
	if cursor != "" {
		var err error
		cursorData, err = decodeCursor(cursor)
		if err != nil {
			return nil, "", ErrInvalidCursor
		}
	}

	query := `
		SELECT id, owner_id, source, category, severity, status, description, media_url, detected_at, resolved_at, created_at, updated_at
		FROM threat_logs
		WHERE owner_id = $1
	`
	args := []any{filter.OwnerID}
	argIndex := 2

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, filter.Status)
		argIndex++
	}

	if cursorData != nil {
		query += fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", argIndex, argIndex+1)
		args = append(args, cursorData.CreatedAt, cursorData.ID)
		argIndex += 2
	}

	if filter.DetectedAfter != nil {
		query += fmt.Sprintf(" AND detected_at >= $%d", argIndex)
		args = append(args, *filter.DetectedAfter)
		argIndex++
	}

	if filter.DetectedBefore != nil {
		query += fmt.Sprintf(" AND detected_at <= $%d", argIndex)
		args = append(args, *filter.DetectedBefore)
		argIndex++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", argIndex)
	args = append(args, limit+1) // Fetch one extra to determine hasMore

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list threats: %w", err)
	}
	defer rows.Close()

	var threats []*model.Threat
	for rows.Next() {
		threat, err := scanThreat(rows)
		if err != nil {
			return nil, "", fmt.Errorf("failed to scan threat: %w", err)
		}
		threats = append(threats, threat)
	}

	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("error iterating threats: %w", err)
	}

	// Determine if there are more results
	var nextCursor string
	if len(threats) > limit {
		threats = threats[:limit] // Remove extra row
		last := threats[len(threats)-1]
		nextCursor = encodeCursor(&PaginationCursor{
			ID:        last.ID,
			CreatedAt: last.CreatedAt,
		})
	}

	return threats, nextCursor, nil
}

// ThreatPatch holds the mutable threat fields.
// Nil fields are left unchanged.
type ThreatPatch struct {
	Status   *model.ThreatStatus
	Severity *model.ThreatSeverity
}

// UpdateThreatByOwner applies a patch with the (id, owner) filter in
// the statement itself. A transition into resolved stamps resolved_at
// server-side; leaving resolved clears it. Returns ErrNotFound when
// no row matches, including rows held by other owners.
func (r *Repository) UpdateThreatByOwner(ctx context.Context, id, ownerID string, patch ThreatPatch) (*model.Threat, error) {
	query := `
		UPDATE threat_logs
		SET status      = COALESCE($3, status),
		    severity    = COALESCE($4, severity),
		    resolved_at = CASE
		        WHEN $3 = 'resolved' AND status <> 'resolved' THEN $5
		        WHEN $3 IS NOT NULL AND $3 <> 'resolved' THEN NULL
		        ELSE resolved_at
		    END,
		    updated_at  = $5
		WHERE id = $1 AND owner_id = $2
		RETURNING id, owner_id, source, category, severity, status, description, media_url, detected_at, resolved_at, created_at, updated_at
	`

	threat, err := scanThreat(r.pool.QueryRow(ctx, query,
		id,
		ownerID,
		patch.Status,
		patch.Severity,
		time.Now().UTC(),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update threat: %w", err)
	}

	return threat, nil
}

// scanThreat scans a single row into a Threat model.
func scanThreat(row pgx.Row) (*model.Threat, error) {
	var threat model.Threat
	err := row.Scan(
		&threat.ID,
		&threat.OwnerID,
		&threat.Source,
		&threat.Category,
		&threat.Severity,
		&threat.Status,
		&threat.Description,
		&threat.MediaURL,
		&threat.DetectedAt,
		&threat.ResolvedAt,
		&threat.CreatedAt,
		&threat.UpdatedAt,
	)
	return &threat, err
}

// encodeCursor encodes a pagination cursor to base64.
func encodeCursor(cursor *PaginationCursor) string {
	data, _ := json.Marshal(cursor)
	return base64.URLEncoding.EncodeToString(data)
}

// decodeCursor decodes a base64 pagination cursor.
func decodeCursor(s string) (*PaginationCursor, error) {
	data, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}

	var cursor PaginationCursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return nil, err
	}

	return &cursor, nil
}
