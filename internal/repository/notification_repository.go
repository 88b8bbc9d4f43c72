package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/shift-service/internal/domain"
)

// NotificationRepository encapsulates notification persistence.
type NotificationRepository interface {
	CreateMany(ctx context.Context, notifications []domain.Notification) error
	ListForUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]domain.Notification, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

type notificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository instantiates repository.
func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepository{pool: pool}
}

// CreateMany inserts the rows in a single round trip and fills in their ids.
func (r *notificationRepository) CreateMany(ctx context.Context, notifications []domain.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	const query = `
        INSERT INTO notifications (user_id, type, title, message, shift_id)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`

	batch := &pgx.Batch{}
	for i := range notifications {
		n := &notifications[i]
		batch.Queue(query, n.UserID, n.Type, n.Title, n.Message, n.ShiftID).QueryRow(func(row pgx.Row) error {
			return row.Scan(&n.ID, &n.CreatedAt)
		})
	}
	return r.pool.SendBatch(ctx, batch).Close()
}

func (r *notificationRepository) ListForUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, user_id, type, title, message, shift_id, read, created_at
        FROM notifications WHERE user_id=$1`
	if unreadOnly {
		query += ` AND read = false`
	}
	query += ` ORDER BY created_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.ShiftID, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `UPDATE notifications SET read = true WHERE user_id=$1 AND read = false`, userID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
