package repository

import (
	"context"
	"time"

	"kiosk-inventory/internal/model"
	apperrors "kiosk-inventory/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type NotificationRepository interface {
	Create(ctx context.Context, notification *model.Notification) (*model.Notification, error)
	List(ctx context.Context, unreadOnly bool) ([]*model.Notification, error)
	// HasOpen reports whether an unread notification of the given type exists
	// for the ticket type.
	HasOpen(ctx context.Context, ticketTypeID uuid.UUID, notificationType model.NotificationType) (bool, error)
	MarkRead(ctx context.Context, id int) error
	// MarkAllReadForTicket resolves every open notification for the ticket
	// type, both low_stock and out_of_stock.
	MarkAllReadForTicket(ctx context.Context, ticketTypeID uuid.UUID) error
}

type NotificationRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &NotificationRepositoryImpl{
		pool: pool,
	}
}

func (r *NotificationRepositoryImpl) Create(ctx context.Context, notification *model.Notification) (*model.Notification, error) {
	query := `
		INSERT INTO notifications (ticket_type_id, kiosk_id, type, message)
		VALUES ($1, $2, $3, $4)
		RETURNING id, ticket_type_id, kiosk_id, type, message, is_read, created_at
	`

	err := r.pool.QueryRow(ctx, query,
		notification.TicketTypeID, notification.KioskID, notification.Type, notification.Message,
	).Scan(
		&notification.ID,
		&notification.TicketTypeID,
		&notification.KioskID,
		&notification.Type,
		&notification.Message,
		&notification.IsRead,
		&notification.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return notification, nil
}

func (r *NotificationRepositoryImpl) List(ctx context.Context, unreadOnly bool) ([]*model.Notification, error) {
	query := `
		SELECT id, ticket_type_id, kiosk_id, type, message, is_read, created_at
		FROM notifications
		WHERE ($1 = false OR is_read = false)
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, unreadOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := make([]*model.Notification, 0)
	for rows.Next() {
		var n model.Notification
		err := rows.Scan(
			&n.ID,
			&n.TicketTypeID,
			&n.KioskID,
			&n.Type,
			&n.Message,
			&n.IsRead,
			&n.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, &n)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return notifications, nil
}

func (r *NotificationRepositoryImpl) HasOpen(ctx context.Context, ticketTypeID uuid.UUID, notificationType model.NotificationType) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM notifications
			WHERE ticket_type_id = $1 AND type = $2 AND is_read = false
		)
	`

	var exists bool
	err := r.pool.QueryRow(ctx, query, ticketTypeID, notificationType).Scan(&exists)
	if err != nil {
		return false, err
	}

	return exists, nil
}

func (r *NotificationRepositoryImpl) MarkRead(ctx context.Context, id int) error {
	query := `
		UPDATE notifications
		SET is_read = true, read_at = $1
		WHERE id = $2 AND is_read = false
	`

	result, err := r.pool.Exec(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotificationNotFound
	}

	return nil
}

func (r *NotificationRepositoryImpl) MarkAllReadForTicket(ctx context.Context, ticketTypeID uuid.UUID) error {
	query := `
		UPDATE notifications
		SET is_read = true, read_at = $1
		WHERE ticket_type_id = $2 AND is_read = false
	`

	// zero rows is fine, there may be nothing open
	_, err := r.pool.Exec(ctx, query, time.Now().UTC(), ticketTypeID)
	return err
}
