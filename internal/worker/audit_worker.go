package worker

import (
	"context"
	"kiosk-inventory/internal/queue"
	"kiosk-inventory/internal/repository"
	"kiosk-inventory/pkg/logger"

	"go.uber.org/zap"
)

type AuditWorker interface {
	Start(ctx context.Context) error
}

// AuditWorkerImpl drains the audit queue into the append-only audit_events
// table. A failed append is nacked for delayed retry; the originating stock
// mutation already returned to its caller and is never affected.
type AuditWorkerImpl struct {
	repository repository.AuditRepository
	queue      queue.AuditQueue
}

func NewAuditWorker(repository repository.AuditRepository, queue queue.AuditQueue) AuditWorker {
	return &AuditWorkerImpl{
		repository: repository,
		queue:      queue,
	}
}

func (w *AuditWorkerImpl) Start(ctx context.Context) error {
	msgs, err := w.queue.SubscribeEvents(ctx)
	if err != nil {
		return err
	}

	go func() {
		for msg := range msgs {
			err := w.repository.Append(ctx, msg.Data)

			if err != nil {
				logger.WithComponent("audit").Warn("append audit event failed, will retry",
					zap.String("action", msg.Data.Action),
					zap.String("target_id", msg.Data.TargetID),
					zap.Error(err))
				msg.Nack(true)
			} else {
				msg.Ack()
			}
		}
	}()
	return nil
}
