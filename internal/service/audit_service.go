package service

import (
	"context"

	"kiosk-inventory/internal/model"
	"kiosk-inventory/internal/repository"
)

// AuditService is the read side of the audit trail.
type AuditService interface {
	List(ctx context.Context, limit int) ([]*model.AuditEvent, error)
}

type AuditServiceImpl struct {
	repo repository.AuditRepository
}

func NewAuditService(repo repository.AuditRepository) AuditService {
	return &AuditServiceImpl{repo: repo}
}

func (s *AuditServiceImpl) List(ctx context.Context, limit int) ([]*model.AuditEvent, error) {
	return s.repo.List(ctx, limit)
}
