package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"kiosk-inventory/internal/model"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// StockViewCache keeps derived kiosk views hot for dashboard polling. It is
// strictly best-effort: a miss or a Redis failure falls back to Postgres, and
// every mutation invalidates the whole ticket so stale quantities never
// outlive a write.
type StockViewCache interface {
	GetView(ctx context.Context, ticketTypeID uuid.UUID, kioskID string) (*model.TicketTypeView, error)
	SetView(ctx context.Context, view *model.TicketTypeView) error
	Invalidate(ctx context.Context, ticketTypeID uuid.UUID) error
}

type StockViewCacheImpl struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStockViewCache(client *redis.Client, ttl time.Duration) StockViewCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &StockViewCacheImpl{
		client: client,
		ttl:    ttl,
	}
}

// one hash per ticket, field per kiosk
func (c *StockViewCacheImpl) getViewsKey(ticketTypeID uuid.UUID) string {
	return fmt.Sprintf("ticket_type:%s:views", ticketTypeID)
}

func (c *StockViewCacheImpl) GetView(ctx context.Context, ticketTypeID uuid.UUID, kioskID string) (*model.TicketTypeView, error) {
	key := c.getViewsKey(ticketTypeID)
	raw, err := c.client.HGet(ctx, key, kioskID).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var view model.TicketTypeView
	if err := json.Unmarshal([]byte(raw), &view); err != nil {
		return nil, fmt.Errorf("unmarshal cached view: %w", err)
	}

	return &view, nil
}

func (c *StockViewCacheImpl) SetView(ctx context.Context, view *model.TicketTypeView) error {
	raw, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("marshal view: %w", err)
	}

	key := c.getViewsKey(view.ID)
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, view.KioskID, raw)
	pipe.Expire(ctx, key, c.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (c *StockViewCacheImpl) Invalidate(ctx context.Context, ticketTypeID uuid.UUID) error {
	return c.client.Del(ctx, c.getViewsKey(ticketTypeID)).Err()
}
