package queue

import (
	"context"
	"kiosk-inventory/internal/model"
)

type Delivery struct {
	Data *model.AuditEvent
	Ack  func()
	Nack func(requeue bool)
}

// AuditQueue is the best-effort side channel for audit events. Mutations
// publish fire-and-forget; the audit worker subscribes and persists.
type AuditQueue interface {
	PublishEvent(ctx context.Context, event *model.AuditEvent) error
	SubscribeEvents(ctx context.Context) (<-chan Delivery, error)
}

// AuditQueueImpl is the in-memory channel implementation, used in tests and
// single-process deployments without Redis.
type AuditQueueImpl struct {
	ch chan *model.AuditEvent
}

func NewAuditQueue(bufferSize int) AuditQueue {
	return &AuditQueueImpl{
		ch: make(chan *model.AuditEvent, bufferSize),
	}
}

func (q *AuditQueueImpl) PublishEvent(ctx context.Context, event *model.AuditEvent) error {
	select {
	case q.ch <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *AuditQueueImpl) SubscribeEvents(ctx context.Context) (<-chan Delivery, error) {
	out := make(chan Delivery)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-q.ch:
				if !ok {
					return
				}

				out <- Delivery{
					Data: event,
					Ack:  func() { /* nothing to acknowledge in memory */ },
					Nack: func(requeue bool) {
						if requeue {
							q.ch <- event
						}
					},
				}
			}
		}
	}()

	return out, nil
}
