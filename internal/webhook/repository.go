package webhook

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/aegisguard/aegis/internal/model"
)

// Repository handles webhook database operations. API-facing reads and
// writes always carry the owner in the predicate; only the delivery
// worker looks endpoints up by bare ID.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new webhook repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// MaxEndpointsPerOwner bounds fan-out work per threat event.
const MaxEndpointsPerOwner = 10

// CreateEndpoint creates a new webhook endpoint. Creates for the same
// owner serialize on an advisory lock so concurrent inserts cannot
// slip past the per-owner cap together; a full owner gets
// ErrEndpointLimit.
func (r *Repository) CreateEndpoint(ctx context.Context, endpoint *model.WebhookEndpoint) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin endpoint insert: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock(hashtext('webhook_endpoints'), hashtext($1))`,
		endpoint.OwnerID,
	); err != nil {
		return fmt.Errorf("lock owner endpoints: %w", err)
	}

	var active int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM webhook_endpoints WHERE owner_id = $1 AND deleted_at IS NULL`,
		endpoint.OwnerID,
	).Scan(&active); err != nil {
		return fmt.Errorf("count owner endpoints: %w", err)
	}
	if active >= MaxEndpointsPerOwner {
		return ErrEndpointLimit
	}

	query := `
		INSERT INTO webhook_endpoints (
			id, owner_id, target_url, secret, enabled,
			event_types, name, description, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	eventTypes := make([]string, len(endpoint.EventTypes))
	for i, et := range endpoint.EventTypes {
		eventTypes[i] = string(et)
	}

	if _, err := tx.ExecContext(ctx, query,
		endpoint.ID,
		endpoint.OwnerID,
		endpoint.TargetURL,
		endpoint.Secret,
		endpoint.Enabled,
		pq.Array(eventTypes),
		endpoint.Name,
		endpoint.Description,
		endpoint.CreatedAt,
		endpoint.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert webhook endpoint: %w", err)
	}

	return tx.Commit()
}

// GetEndpoint retrieves a webhook endpoint by bare ID. Reserved for
// the delivery worker; API paths go through GetEndpointByOwner.
func (r *Repository) GetEndpoint(ctx context.Context, id string) (*model.WebhookEndpoint, error) {
	query := `
		SELECT id, owner_id, target_url, secret, enabled, event_types,
			   name, description, created_at, updated_at, deleted_at
		FROM webhook_endpoints
		WHERE id = $1 AND deleted_at IS NULL
	`
	return r.scanEndpointRow(r.db.QueryRowContext(ctx, query, id))
}

// GetEndpointByOwner retrieves a webhook endpoint by (id, owner).
// An endpoint under another owner returns ErrEndpointNotFound,
// identical to a missing row.
func (r *Repository) GetEndpointByOwner(ctx context.Context, id, ownerID string) (*model.WebhookEndpoint, error) {
	query := `
		SELECT id, owner_id, target_url, secret, enabled, event_types,
			   name, description, created_at, updated_at, deleted_at
		FROM webhook_endpoints
		WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL
	`
	return r.scanEndpointRow(r.db.QueryRowContext(ctx, query, id, ownerID))
}

// ListEndpointsByOwner retrieves all webhook endpoints for an owner.
func (r *Repository) ListEndpointsByOwner(ctx context.Context, ownerID string) ([]*model.WebhookEndpoint, error) {
	query := `
		SELECT id, owner_id, target_url, secret, enabled, event_types,
			   name, description, created_at, updated_at
		FROM webhook_endpoints
		WHERE owner_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query webhooks by owner: %w", err)
	}
	defer rows.Close()

	return scanEndpoints(rows)
}

// ListActiveEndpointsByOwnerAndEvent retrieves enabled endpoints for
// an owner that subscribe to the given event type.
func (r *Repository) ListActiveEndpointsByOwnerAndEvent(ctx context.Context, ownerID string, eventType model.EventType) ([]*model.WebhookEndpoint, error) {
	query := `
		SELECT id, owner_id, target_url, secret, enabled, event_types,
			   name, description, created_at, updated_at
		FROM webhook_endpoints
		WHERE owner_id = $1
		  AND deleted_at IS NULL
		  AND enabled = true
		  AND $2 = ANY(event_types)
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID, string(eventType))
	if err != nil {
		return nil, fmt.Errorf("query active webhooks: %w", err)
	}
	defer rows.Close()

	return scanEndpoints(rows)
}

// EndpointPatch holds the mutable endpoint fields.
// Nil fields are left unchanged.
type EndpointPatch struct {
	Name        *string
	Description *string
	TargetURL   *string
	Enabled     *bool
	EventTypes  []model.EventType
}

// UpdateEndpointByOwner applies a patch to an endpoint with the
// (id, owner) filter in the statement itself.
func (r *Repository) UpdateEndpointByOwner(ctx context.Context, id, ownerID string, patch EndpointPatch) (*model.WebhookEndpoint, error) {
	query := `
		UPDATE webhook_endpoints
		SET name        = COALESCE($3, name),
		    description = COALESCE($4, description),
		    target_url  = COALESCE($5, target_url),
		    enabled     = COALESCE($6, enabled),
		    event_types = COALESCE($7, event_types),
		    updated_at  = $8
		WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL
		RETURNING id, owner_id, target_url, secret, enabled, event_types,
		          name, description, created_at, updated_at, deleted_at
	`

	var eventTypes interface{}
	if patch.EventTypes != nil {
		types := make([]string, len(patch.EventTypes))
		for i, et := range patch.EventTypes {
			types[i] = string(et)
		}
		eventTypes = pq.Array(types)
	}

	return r.scanEndpointRow(r.db.QueryRowContext(ctx, query,
		id,
		ownerID,
		patch.Name,
		patch.Description,
		patch.TargetURL,
		patch.Enabled,
		eventTypes,
		time.Now().UTC(),
	))
}

// RotateEndpointSecret replaces the signing secret for an endpoint.
func (r *Repository) RotateEndpointSecret(ctx context.Context, id, ownerID, secret string) error {
	query := `
		UPDATE webhook_endpoints
		SET secret = $3, updated_at = $4
		WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, id, ownerID, secret, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("rotate endpoint secret: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrEndpointNotFound
	}

	return nil
}

// DeleteEndpointByOwner soft-deletes a webhook endpoint.
func (r *Repository) DeleteEndpointByOwner(ctx context.Context, id, ownerID string) error {
	query := `
		UPDATE webhook_endpoints
		SET deleted_at = $3, updated_at = $3
		WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, id, ownerID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("delete webhook endpoint: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrEndpointNotFound
	}

	return nil
}

// CreateDelivery creates a new delivery record. The (event, endpoint)
// uniqueness keeps redelivered stream entries idempotent.
func (r *Repository) CreateDelivery(ctx context.Context, delivery *model.WebhookDelivery) error {
	query := `
		INSERT INTO webhook_deliveries (
			id, endpoint_id, event_id, event_type, payload_json,
			status, attempt_count, max_attempts, next_retry_at,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (event_id, endpoint_id) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query,
		delivery.ID,
		delivery.EndpointID,
		delivery.EventID,
		string(delivery.EventType),
		delivery.PayloadJSON,
		string(delivery.Status),
		delivery.AttemptCount,
		delivery.MaxAttempts,
		delivery.NextRetryAt,
		delivery.CreatedAt,
		delivery.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert webhook delivery: %w", err)
	}
	return nil
}

// GetPendingDeliveries retrieves deliveries ready to be sent.
func (r *Repository) GetPendingDeliveries(ctx context.Context, limit int) ([]*model.WebhookDelivery, error) {
	query := `
		SELECT d.id, d.endpoint_id, d.event_id, d.event_type, d.payload_json,
			   d.status, d.attempt_count, d.max_attempts, d.next_retry_at,
			   d.last_attempt_at, d.last_http_status, d.last_error,
			   d.created_at, d.updated_at
		FROM webhook_deliveries d
		JOIN webhook_endpoints e ON d.endpoint_id = e.id
		WHERE d.status IN ('pending', 'failed')
		  AND d.next_retry_at <= $1
		  AND e.deleted_at IS NULL
		  AND e.enabled = true
		ORDER BY d.next_retry_at
		LIMIT $2
		FOR UPDATE OF d SKIP LOCKED
	`

	rows, err := r.db.QueryContext(ctx, query, time.Now().UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("query pending deliveries: %w", err)
	}
	defer rows.Close()

	return scanDeliveries(rows)
}

// UpdateDeliverySuccess marks a delivery as successful.
func (r *Repository) UpdateDeliverySuccess(ctx context.Context, id string, httpStatus int) error {
	query := `
		UPDATE webhook_deliveries
		SET status = 'success',
			attempt_count = attempt_count + 1,
			last_attempt_at = $2,
			last_http_status = $3,
			last_error = '',
			updated_at = $2
		WHERE id = $1
	`

	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, query, id, now, httpStatus)
	if err != nil {
		return fmt.Errorf("update delivery success: %w", err)
	}
	return nil
}

// UpdateDeliveryFailure marks a delivery as failed and schedules retry.
func (r *Repository) UpdateDeliveryFailure(ctx context.Context, id string, httpStatus *int, errMsg string, nextRetryAt time.Time, exhausted bool) error {
	status := "failed"
	if exhausted {
		status = "exhausted"
	}

	if len(errMsg) > 500 {
		errMsg = errMsg[:500]
	}

	query := `
		UPDATE webhook_deliveries
		SET status = $2,
			attempt_count = attempt_count + 1,
			last_attempt_at = $3,
			last_http_status = $4,
			last_error = $5,
			next_retry_at = $6,
			updated_at = $3
		WHERE id = $1
	`

	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, query, id, status, now, httpStatus, errMsg, nextRetryAt)
	if err != nil {
		return fmt.Errorf("update delivery failure: %w", err)
	}
	return nil
}

// ListDeliveriesByEndpoint retrieves delivery history for an endpoint
// the owner controls.
func (r *Repository) ListDeliveriesByEndpoint(ctx context.Context, endpointID, ownerID string, statuses []string, limit, offset int) ([]*model.WebhookDelivery, int, error) {
	// Ownership is checked once up front so history for a foreign
	// endpoint reads as missing rather than empty.
	if _, err := r.GetEndpointByOwner(ctx, endpointID, ownerID); err != nil {
		return nil, 0, err
	}

	var whereClause strings.Builder
	args := []interface{}{endpointID}
	argIdx := 2

	whereClause.WriteString("WHERE endpoint_id = $1")

	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, s := range statuses {
			placeholders[i] = fmt.Sprintf("$%d", argIdx)
			args = append(args, s)
			argIdx++
		}
		whereClause.WriteString(fmt.Sprintf(" AND status IN (%s)", strings.Join(placeholders, ",")))
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM webhook_deliveries %s`, whereClause.String())
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count deliveries: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, endpoint_id, event_id, event_type, payload_json,
			   status, attempt_count, max_attempts, next_retry_at,
			   last_attempt_at, last_http_status, last_error,
			   created_at, updated_at
		FROM webhook_deliveries
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, whereClause.String(), argIdx, argIdx+1)

	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query deliveries: %w", err)
	}
	defer rows.Close()

	deliveries, err := scanDeliveries(rows)
	if err != nil {
		return nil, 0, err
	}

	return deliveries, total, nil
}

// ResetDeliveryForRetry resets an exhausted delivery for manual retry.
// The join keeps the reset owner-scoped.
func (r *Repository) ResetDeliveryForRetry(ctx context.Context, deliveryID, ownerID string) error {
	query := `
		UPDATE webhook_deliveries d
		SET status = 'pending',
			next_retry_at = $3,
			updated_at = $3
		FROM webhook_endpoints e
		WHERE d.id = $1
		  AND d.endpoint_id = e.id
		  AND e.owner_id = $2
		  AND e.deleted_at IS NULL
		  AND d.status = 'exhausted'
	`

	result, err := r.db.ExecContext(ctx, query, deliveryID, ownerID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("reset delivery: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrDeliveryNotFound
	}

	return nil
}

// GetQueueDepth returns the count of pending and failed deliveries.
func (r *Repository) GetQueueDepth(ctx context.Context) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM webhook_deliveries
		WHERE status IN ('pending', 'failed')
	`

	var count int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count queue depth: %w", err)
	}
	return count, nil
}

func (r *Repository) scanEndpointRow(row *sql.Row) (*model.WebhookEndpoint, error) {
	var endpoint model.WebhookEndpoint
	var eventTypes []string

	err := row.Scan(
		&endpoint.ID,
		&endpoint.OwnerID,
		&endpoint.TargetURL,
		&endpoint.Secret,
		&endpoint.Enabled,
		pq.Array(&eventTypes),
		&endpoint.Name,
		&endpoint.Description,
		&endpoint.CreatedAt,
		&endpoint.UpdatedAt,
		&endpoint.DeletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEndpointNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan webhook endpoint: %w", err)
	}

	endpoint.EventTypes = make([]model.EventType, len(eventTypes))
	for i, et := range eventTypes {
		endpoint.EventTypes[i] = model.EventType(et)
	}

	return &endpoint, nil
}

func scanEndpoints(rows *sql.Rows) ([]*model.WebhookEndpoint, error) {
	var endpoints []*model.WebhookEndpoint
	for rows.Next() {
		var endpoint model.WebhookEndpoint
		var eventTypes []string

		if err := rows.Scan(
			&endpoint.ID,
			&endpoint.OwnerID,
			&endpoint.TargetURL,
			&endpoint.Secret,
			&endpoint.Enabled,
			pq.Array(&eventTypes),
			&endpoint.Name,
			&endpoint.Description,
			&endpoint.CreatedAt,
			&endpoint.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan webhook endpoint: %w", err)
		}

		endpoint.EventTypes = make([]model.EventType, len(eventTypes))
		for i, et := range eventTypes {
			endpoint.EventTypes[i] = model.EventType(et)
		}

		endpoints = append(endpoints, &endpoint)
	}

	return endpoints, rows.Err()
}

func scanDeliveries(rows *sql.Rows) ([]*model.WebhookDelivery, error) {
	var deliveries []*model.WebhookDelivery
	for rows.Next() {
		var d model.WebhookDelivery
		var eventType, status string

		if err := rows.Scan(
			&d.ID,
			&d.EndpointID,
			&d.EventID,
			&eventType,
			&d.PayloadJSON,
			&status,
			&d.AttemptCount,
			&d.MaxAttempts,
			&d.NextRetryAt,
			&d.LastAttemptAt,
			&d.LastHTTPStatus,
			&d.LastError,
			&d.CreatedAt,
			&d.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}

		d.EventType = model.EventType(eventType)
		d.Status = model.DeliveryStatus(status)
		deliveries = append(deliveries, &d)
	}

	return deliveries, rows.Err()
}
