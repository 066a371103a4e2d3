package repository

import (
	"context"

	"kiosk-inventory/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

type AuditRepository interface {
	Append(ctx context.Context, event *model.AuditEvent) error
	List(ctx context.Context, limit int) ([]*model.AuditEvent, error)
}

type AuditRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) AuditRepository {
	return &AuditRepositoryImpl{
		pool: pool,
	}
}

func (r *AuditRepositoryImpl) Append(ctx context.Context, event *model.AuditEvent) error {
	query := `
		INSERT INTO audit_events (action, actor_id, actor_name, target_id, target_type, details, kiosk_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		event.Action, event.ActorID, event.ActorName,
		event.TargetID, event.TargetType, event.Details,
		event.KioskID, event.Timestamp,
	)
	return err
}

func (r *AuditRepositoryImpl) List(ctx context.Context, limit int) ([]*model.AuditEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, action, actor_id, actor_name, target_id, target_type, details, kiosk_id, created_at
		FROM audit_events
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*model.AuditEvent, 0)
	for rows.Next() {
		var e model.AuditEvent
		err := rows.Scan(
			&e.ID,
			&e.Action,
			&e.ActorID,
			&e.ActorName,
			&e.TargetID,
			&e.TargetType,
			&e.Details,
			&e.KioskID,
			&e.Timestamp,
		)
		if err != nil {
			return nil, err
		}
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return events, nil
}
