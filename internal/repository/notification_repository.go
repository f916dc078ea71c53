package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairyhunter13/property-booking/internal/model"
)

// NotificationRepository stores in-app notifications and reads user contact details.
type NotificationRepository struct {
	pool PoolInterface
}

// NewNotificationRepository creates a new NotificationRepository with the given pool.
func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

// NewNotificationRepositoryWithPool creates a NotificationRepository with a custom pool interface.
func NewNotificationRepositoryWithPool(pool PoolInterface) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

// Insert stores a notification. The caller assigns the id.
func (r *NotificationRepository) Insert(ctx context.Context, n *model.Notification) error {
	data := n.Data
	if data == nil {
		data = map[string]string{}
	}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO notifications (id, user_id, type, title, body, data)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING is_read, created_at`,
		n.ID, n.UserID, n.Type, n.Title, n.Body, data,
	).Scan(&n.IsRead, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// ListByUser returns the latest notifications of a user.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error) {
	limit, _ = pagination(1, limit)
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, type, title, body, data, is_read, created_at
		 FROM notifications WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications of user %s: %w", userID, err)
	}
	defer rows.Close()

	notifications := []model.Notification{}
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Body, &n.Data, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return notifications, nil
}

// GetContact returns the delivery addresses of a user.
// Returns nil, nil if the user is not found.
func (r *NotificationRepository) GetContact(ctx context.Context, userID uuid.UUID) (*model.Contact, error) {
	c := model.Contact{UserID: userID}
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(name, ''), COALESCE(phone, ''), COALESCE(email, ''), COALESCE(fcm_token, '')
		 FROM users WHERE id = $1`, userID,
	).Scan(&c.Name, &c.Phone, &c.Email, &c.PushToken)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get contact of user %s: %w", userID, err)
	}
	return &c, nil
}
