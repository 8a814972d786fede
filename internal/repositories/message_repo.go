package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"portal/internal/common"
	"portal/internal/models"

	"github.com/google/uuid"
)

type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	UpdateDelivery(ctx context.Context, id uuid.UUID, status string, raw json.RawMessage) error
	ListByUser(ctx context.Context, userID uuid.UUID, tenantSlug string) ([]*models.Message, error)
}

type messageRepo struct {
	db DBTX
}

func NewMessageRepo(db DBTX) MessageRepository {
	return &messageRepo{db: db}
}

func (r *messageRepo) Create(ctx context.Context, m *models.Message) error {
	query := `
		INSERT INTO messages (id, user_id, tenant_slug, subject, body, delivery_status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query, m.ID, m.UserID, m.TenantSlug, m.Subject, m.Body, m.DeliveryStatus, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

func (r *messageRepo) UpdateDelivery(ctx context.Context, id uuid.UUID, status string, raw json.RawMessage) error {
	tag, err := r.db.Exec(ctx, `UPDATE messages SET delivery_status = $2, raw = $3 WHERE id = $1`, id, status, raw)
	if err != nil {
		return fmt.Errorf("update message delivery: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.NotFoundError("message")
	}
	return nil
}

func (r *messageRepo) ListByUser(ctx context.Context, userID uuid.UUID, tenantSlug string) ([]*models.Message, error) {
	query := `
		SELECT id, user_id, tenant_slug, subject, body, delivery_status, raw, created_at
		FROM messages
		WHERE user_id = $1 AND tenant_slug = $2
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID, tenantSlug)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		m := &models.Message{}
		if err := rows.Scan(&m.ID, &m.UserID, &m.TenantSlug, &m.Subject, &m.Body, &m.DeliveryStatus, &m.Raw, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
