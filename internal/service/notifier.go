package service

import (
	"context"
	"fmt"

	"kiosk-inventory/internal/model"
	"kiosk-inventory/internal/repository"
	"kiosk-inventory/pkg/logger"

	"go.uber.org/zap"
)

// StockEvent is the outcome of the notification decision table for one
// counter-quantity change.
type StockEvent int

const (
	StockEventNone StockEvent = iota
	StockEventOutOfStock
	StockEventLowStock
	StockEventRecovered
)

// DeriveStockEvent is the pure decision policy over a counter transition.
//
//	newCounter == 0                                      -> out of stock
//	0 < newCounter <= threshold, coming from above the
//	threshold or from empty                              -> low stock
//	crossed from at-or-below threshold to above it       -> recovered
func DeriveStockEvent(oldCounter, newCounter, threshold int) StockEvent {
	if newCounter == 0 {
		return StockEventOutOfStock
	}
	if newCounter <= threshold && (oldCounter > threshold || oldCounter == 0) {
		return StockEventLowStock
	}
	if oldCounter <= threshold && newCounter > threshold {
		return StockEventRecovered
	}
	return StockEventNone
}

// StockNotifier applies the derived event against stored notifications. It is
// invoked after every operation that changes a kiosk's counter quantity.
type StockNotifier interface {
	NotifyCounterChange(ctx context.Context, ticketType *model.TicketType, kioskID string, oldCounter, newCounter int)
}

type StockNotifierImpl struct {
	repo repository.NotificationRepository
}

func NewStockNotifier(repo repository.NotificationRepository) StockNotifier {
	return &StockNotifierImpl{repo: repo}
}

// NotifyCounterChange never returns an error: a stock mutation that committed
// must not be reported as failed because the alerting side had a fault.
// Failures are logged and swallowed.
func (n *StockNotifierImpl) NotifyCounterChange(ctx context.Context, ticketType *model.TicketType, kioskID string, oldCounter, newCounter int) {
	log := logger.WithComponent("notifier").With(
		zap.String("ticket_type_id", ticketType.ID.String()),
		zap.String("kiosk_id", kioskID))

	switch DeriveStockEvent(oldCounter, newCounter, ticketType.MinThreshold) {
	case StockEventOutOfStock:
		n.createIfNoneOpen(ctx, log, ticketType, kioskID, model.NotificationOutOfStock,
			fmt.Sprintf("%s is out of stock", ticketType.Name))

	case StockEventLowStock:
		n.createIfNoneOpen(ctx, log, ticketType, kioskID, model.NotificationLowStock,
			fmt.Sprintf("%s is low on stock (%d left, reorder at %d)", ticketType.Name, newCounter, ticketType.MinThreshold))

	case StockEventRecovered:
		if err := n.repo.MarkAllReadForTicket(ctx, ticketType.ID); err != nil {
			log.Warn("mark notifications read failed", zap.Error(err))
		}
	}
}

func (n *StockNotifierImpl) createIfNoneOpen(ctx context.Context, log *zap.Logger, ticketType *model.TicketType, kioskID string, notificationType model.NotificationType, message string) {
	open, err := n.repo.HasOpen(ctx, ticketType.ID, notificationType)
	if err != nil {
		log.Warn("check open notifications failed", zap.Error(err))
		return
	}
	if open {
		return
	}

	_, err = n.repo.Create(ctx, &model.Notification{
		TicketTypeID: ticketType.ID,
		KioskID:      kioskID,
		Type:         notificationType,
		Message:      message,
	})
	if err != nil {
		log.Warn("create notification failed", zap.String("type", string(notificationType)), zap.Error(err))
	}
}
