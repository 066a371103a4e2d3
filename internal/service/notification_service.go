package service

import (
	"context"

	"kiosk-inventory/internal/model"
	"kiosk-inventory/internal/repository"
)

// NotificationService backs the UI bell menu: listing alerts and dismissing
// them by hand. Automatic creation/resolution lives in StockNotifier.
type NotificationService interface {
	List(ctx context.Context, unreadOnly bool) ([]*model.Notification, error)
	MarkRead(ctx context.Context, id int) error
}

type NotificationServiceImpl struct {
	repo repository.NotificationRepository
}

func NewNotificationService(repo repository.NotificationRepository) NotificationService {
	return &NotificationServiceImpl{repo: repo}
}

func (s *NotificationServiceImpl) List(ctx context.Context, unreadOnly bool) ([]*model.Notification, error) {
	return s.repo.List(ctx, unreadOnly)
}

func (s *NotificationServiceImpl) MarkRead(ctx context.Context, id int) error {
	return s.repo.MarkRead(ctx, id)
}
