package service

import (
	"context"
	"sync"
	"time"

	"kiosk-inventory/internal/codec"
	"kiosk-inventory/internal/model"
	"kiosk-inventory/internal/queue"
	apperrors "kiosk-inventory/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// fakeCatalogRepo is an in-memory TicketTypeRepository. Amount maps are run
// through the codec on save, the same round trip the real JSONB column does,
// and every read hands out a deep copy so callers see store semantics rather
// than shared pointers.
type fakeCatalogRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]*model.TicketType
	saves   int
}

func newFakeCatalogRepo() *fakeCatalogRepo {
	return &fakeCatalogRepo{records: make(map[uuid.UUID]*model.TicketType)}
}

func copyTicketType(t *model.TicketType) *model.TicketType {
	clone := *t
	clone.Amount = make(map[string]model.KioskStock, len(t.Amount))
	for k, v := range t.Amount {
		clone.Amount[k] = v
	}
	clone.AmountIsOpened = make(map[string]bool, len(t.AmountIsOpened))
	for k, v := range t.AmountIsOpened {
		clone.AmountIsOpened[k] = v
	}
	if t.DefaultQtyPerPackage != nil {
		qty := *t.DefaultQtyPerPackage
		clone.DefaultQtyPerPackage = &qty
	}
	if t.DeletedAt != nil {
		deleted := *t.DeletedAt
		clone.DeletedAt = &deleted
	}
	return &clone
}

func (r *fakeCatalogRepo) Create(ctx context.Context, ticketType *model.TicketType) (*model.TicketType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := copyTicketType(ticketType)
	clone.CreatedAt = time.Now().UTC()
	clone.UpdatedAt = clone.CreatedAt
	r.records[clone.ID] = clone
	return copyTicketType(clone), nil
}

func (r *fakeCatalogRepo) List(ctx context.Context) ([]*model.TicketType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*model.TicketType, 0, len(r.records))
	for _, t := range r.records {
		if t.IsDeleted() {
			continue
		}
		out = append(out, copyTicketType(t))
	}
	return out, nil
}

func (r *fakeCatalogRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.TicketType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.records[id]
	if !ok || t.IsDeleted() {
		return nil, apperrors.ErrTicketTypeNotFound
	}
	return copyTicketType(t), nil
}

func (r *fakeCatalogRepo) FindByCode(ctx context.Context, code string) (*model.TicketType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range r.records {
		if t.Code == code && !t.IsDeleted() {
			return copyTicketType(t), nil
		}
	}
	return nil, apperrors.ErrTicketTypeNotFound
}

func (r *fakeCatalogRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// deleted records keep their codes reserved
	for _, t := range r.records {
		if t.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeCatalogRepo) UpdateGlobal(ctx context.Context, id uuid.UUID, values map[string]interface{}) (*model.TicketType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.records[id]
	if !ok || t.IsDeleted() {
		return nil, apperrors.ErrTicketTypeNotFound
	}

	for column, value := range values {
		switch column {
		case "name":
			t.Name = value.(string)
		case "nickname":
			t.Nickname = value.(string)
		case "min_threshold":
			t.MinThreshold = value.(int)
		case "default_quantity_per_package":
			qty := value.(int)
			t.DefaultQtyPerPackage = &qty
		case "is_active":
			t.IsActive = value.(bool)
		case "ticket_category":
			t.TicketCategory = value.(model.TicketCategory)
		case "color":
			t.Color = value.(string)
		case "image_url":
			t.ImageURL = value.(string)
		default:
			return nil, apperrors.ErrInvalidInput
		}
	}

	t.UpdatedAt = time.Now().UTC()
	return copyTicketType(t), nil
}

func (r *fakeCatalogRepo) SaveAmounts(ctx context.Context, id uuid.UUID, amount map[string]model.KioskStock, opened map[string]bool) (*model.TicketType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.records[id]
	if !ok || t.IsDeleted() {
		return nil, apperrors.ErrTicketTypeNotFound
	}

	stored := make(map[string]model.KioskStock, len(amount))
	for kioskID, stock := range amount {
		counter, vault := codec.DecodeAmount(codec.EncodeAmount(stock.Counter, stock.Vault))
		stored[kioskID] = model.KioskStock{Counter: counter, Vault: vault}
	}

	t.Amount = stored
	t.AmountIsOpened = make(map[string]bool, len(opened))
	for k, v := range opened {
		t.AmountIsOpened[k] = v
	}
	t.UpdatedAt = time.Now().UTC()
	r.saves++

	return copyTicketType(t), nil
}

func (r *fakeCatalogRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.records[id]
	if !ok || t.IsDeleted() {
		return apperrors.ErrTicketTypeNotFound
	}
	now := time.Now().UTC()
	t.DeletedAt = &now
	return nil
}

func (r *fakeCatalogRepo) saveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

// captureAuditQueue records published events so tests can assert "exactly one
// audit record per mutation".
type captureAuditQueue struct {
	mu     sync.Mutex
	events []*model.AuditEvent
}

func newCaptureAuditQueue() *captureAuditQueue {
	return &captureAuditQueue{}
}

func (q *captureAuditQueue) PublishEvent(ctx context.Context, event *model.AuditEvent) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = append(q.events, event)
	return nil
}

func (q *captureAuditQueue) SubscribeEvents(ctx context.Context) (<-chan queue.Delivery, error) {
	panic("not used in tests")
}

func (q *captureAuditQueue) published() []*model.AuditEvent {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*model.AuditEvent, len(q.events))
	copy(out, q.events)
	return out
}

// notifierCall records one NotifyCounterChange invocation.
type notifierCall struct {
	TicketTypeID uuid.UUID
	KioskID      string
	OldCounter   int
	NewCounter   int
}

type spyNotifier struct {
	mu    sync.Mutex
	calls []notifierCall
}

func newSpyNotifier() *spyNotifier {
	return &spyNotifier{}
}

func (n *spyNotifier) NotifyCounterChange(ctx context.Context, ticketType *model.TicketType, kioskID string, oldCounter, newCounter int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notifierCall{
		TicketTypeID: ticketType.ID,
		KioskID:      kioskID,
		OldCounter:   oldCounter,
		NewCounter:   newCounter,
	})
}

func (n *spyNotifier) recorded() []notifierCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notifierCall, len(n.calls))
	copy(out, n.calls)
	return out
}

// nopViewCache always misses; service reads fall through to the repo.
type nopViewCache struct{}

func (nopViewCache) GetView(ctx context.Context, ticketTypeID uuid.UUID, kioskID string) (*model.TicketTypeView, error) {
	return nil, nil
}

func (nopViewCache) SetView(ctx context.Context, view *model.TicketTypeView) error { return nil }

func (nopViewCache) Invalidate(ctx context.Context, ticketTypeID uuid.UUID) error { return nil }

// NotificationRepositoryMock is a hand-written testify mock for notifier
// tests.
type NotificationRepositoryMock struct {
	mock.Mock
}

func (m *NotificationRepositoryMock) Create(ctx context.Context, notification *model.Notification) (*model.Notification, error) {
	args := m.Called(ctx, notification)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Notification), args.Error(1)
}

func (m *NotificationRepositoryMock) List(ctx context.Context, unreadOnly bool) ([]*model.Notification, error) {
	args := m.Called(ctx, unreadOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Notification), args.Error(1)
}

func (m *NotificationRepositoryMock) HasOpen(ctx context.Context, ticketTypeID uuid.UUID, notificationType model.NotificationType) (bool, error) {
	args := m.Called(ctx, ticketTypeID, notificationType)
	return args.Bool(0), args.Error(1)
}

func (m *NotificationRepositoryMock) MarkRead(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *NotificationRepositoryMock) MarkAllReadForTicket(ctx context.Context, ticketTypeID uuid.UUID) error {
	args := m.Called(ctx, ticketTypeID)
	return args.Error(0)
}
