package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kiosk-inventory/internal/cache"
	"kiosk-inventory/internal/model"
	"kiosk-inventory/internal/queue"
	"kiosk-inventory/internal/repository"
	apperrors "kiosk-inventory/pkg/app_errors"
	"kiosk-inventory/pkg/lock"
	"kiosk-inventory/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InventoryService owns every read-modify-write sequence against the shared
// catalog records. Stock mutations are serialized per ticket type id through
// a keyed mutex, so two concurrent operations on the same record cannot
// clobber each other's amount-map update.
type InventoryService interface {
	List(ctx context.Context) ([]*model.TicketType, error)
	ListByKiosk(ctx context.Context, kioskID string, activeOnly bool) ([]*model.TicketTypeView, error)
	// GetByID returns (nil, nil) when the id does not resolve; a missing
	// record is not an error for readers.
	GetByID(ctx context.Context, id uuid.UUID, kioskID string) (*model.TicketTypeView, error)
	GetByCode(ctx context.Context, code string, kioskID string) (*model.TicketTypeView, error)

	Create(ctx context.Context, actor model.Actor, params model.CreateTicketTypeParams) (*model.TicketTypeView, error)
	UpdateGlobal(ctx context.Context, actor model.Actor, id uuid.UUID, params model.UpdateTicketTypeParams) (*model.TicketType, error)
	UpdateKioskStock(ctx context.Context, actor model.Actor, id uuid.UUID, kioskID string, params model.StockUpdateParams) (*model.TicketTypeView, error)
	TransferVaultToCounter(ctx context.Context, actor model.Actor, id uuid.UUID, kioskID string, quantity int) (*model.TicketTypeView, error)
	AddPackages(ctx context.Context, actor model.Actor, id uuid.UUID, kioskID string, destination model.StockSide, packageCount int) (*model.TicketTypeView, error)
	SetOpened(ctx context.Context, actor model.Actor, id uuid.UUID, kioskID string, opened bool) (*model.TicketTypeView, error)
	RemoveKioskInventory(ctx context.Context, actor model.Actor, id uuid.UUID, kioskID string) error
	DeleteCatalogEntry(ctx context.Context, actor model.Actor, id uuid.UUID) error
}

type InventoryServiceImpl struct {
	repo       repository.TicketTypeRepository
	codeGen    CodeGenerator
	notifier   StockNotifier
	auditQueue queue.AuditQueue
	viewCache  cache.StockViewCache
	locks      *lock.KeyedMutex
}

func NewInventoryService(
	repo repository.TicketTypeRepository,
	codeGen CodeGenerator,
	notifier StockNotifier,
	auditQueue queue.AuditQueue,
	viewCache cache.StockViewCache,
) InventoryService {
	return &InventoryServiceImpl{
		repo:       repo,
		codeGen:    codeGen,
		notifier:   notifier,
		auditQueue: auditQueue,
		viewCache:  viewCache,
		locks:      lock.NewKeyedMutex(),
	}
}

func (s *InventoryServiceImpl) List(ctx context.Context) ([]*model.TicketType, error) {
	return s.repo.List(ctx)
}

func (s *InventoryServiceImpl) ListByKiosk(ctx context.Context, kioskID string, activeOnly bool) ([]*model.TicketTypeView, error) {
	ticketTypes, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]*model.TicketTypeView, 0, len(ticketTypes))
	for _, t := range ticketTypes {
		if activeOnly && !t.IsActive {
			continue
		}
		views = append(views, t.ViewFor(kioskID))
	}
	return views, nil
}

func (s *InventoryServiceImpl) GetByID(ctx context.Context, id uuid.UUID, kioskID string) (*model.TicketTypeView, error) {
	if cached, err := s.viewCache.GetView(ctx, id, kioskID); err != nil {
		logger.WithComponent("service").Warn("view cache read failed", zap.Error(err))
	} else if cached != nil {
		return cached, nil
	}

	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrTicketTypeNotFound) {
			return nil, nil
		}
		return nil, err
	}

	view := t.ViewFor(kioskID)
	if err := s.viewCache.SetView(ctx, view); err != nil {
		logger.WithComponent("service").Warn("view cache write failed", zap.Error(err))
	}
	return view, nil
}

func (s *InventoryServiceImpl) GetByCode(ctx context.Context, code string, kioskID string) (*model.TicketTypeView, error) {
	t, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, apperrors.ErrTicketTypeNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return t.ViewFor(kioskID), nil
}

func (s *InventoryServiceImpl) Create(ctx context.Context, actor model.Actor, params model.CreateTicketTypeParams) (*model.TicketTypeView, error) {
	if params.Name == "" || params.Price < 0 {
		return nil, apperrors.ErrInvalidArgument
	}
	if params.SeedCounter < 0 || params.SeedVault < 0 {
		return nil, apperrors.ErrInvalidQuantity
	}
	if params.DefaultQtyPerPackage != nil && *params.DefaultQtyPerPackage <= 0 {
		return nil, apperrors.ErrInvalidArgument
	}

	category := params.TicketCategory
	if category == "" {
		category = model.TicketCategoryCustom
	}
	if !category.IsValid() {
		return nil, apperrors.ErrInvalidArgument
	}

	code := params.Code
	if code == "" {
		generated, err := s.codeGen.GenerateUniqueCode(ctx, category)
		if err != nil {
			return nil, err
		}
		code = generated
	} else {
		exists, err := s.repo.CodeExists(ctx, code)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, apperrors.ErrInvalidArgument
		}
	}

	ticketType := &model.TicketType{
		ID:                   uuid.New(),
		Name:                 params.Name,
		Nickname:             params.Nickname,
		Price:                params.Price,
		Code:                 code,
		MinThreshold:         params.MinThreshold,
		DefaultQtyPerPackage: params.DefaultQtyPerPackage,
		IsActive:             true,
		TicketCategory:       category,
		Color:                params.Color,
		ImageURL:             params.ImageURL,
		Amount:               map[string]model.KioskStock{},
		AmountIsOpened:       map[string]bool{},
	}

	if params.SeedKioskID != "" {
		ticketType.Amount[params.SeedKioskID] = model.KioskStock{
			Counter: params.SeedCounter,
			Vault:   params.SeedVault,
		}
		ticketType.AmountIsOpened[params.SeedKioskID] = false
	}

	created, err := s.repo.Create(ctx, ticketType)
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, actor, model.AuditActionCreate, created.ID, params.SeedKioskID,
		fmt.Sprintf("created %q code=%s price=%.2f", created.Name, created.Code, created.Price))

	if params.SeedKioskID != "" && params.SeedCounter > 0 {
		// a seeded counter is a stock entry; derive alerts the same way
		s.notifier.NotifyCounterChange(ctx, created, params.SeedKioskID, 0, params.SeedCounter)
	}

	return created.ViewFor(params.SeedKioskID), nil
}

func (s *InventoryServiceImpl) UpdateGlobal(ctx context.Context, actor model.Actor, id uuid.UUID, params model.UpdateTicketTypeParams) (*model.TicketType, error) {
	values := map[string]interface{}{}

	if params.Name != nil {
		if *params.Name == "" {
			return nil, apperrors.ErrInvalidArgument
		}
		values["name"] = *params.Name
	}
	if params.Nickname != nil {
		values["nickname"] = *params.Nickname
	}
	if params.MinThreshold != nil {
		if *params.MinThreshold < 0 {
			return nil, apperrors.ErrInvalidArgument
		}
		values["min_threshold"] = *params.MinThreshold
	}
	if params.DefaultQtyPerPackage != nil {
		if *params.DefaultQtyPerPackage <= 0 {
			return nil, apperrors.ErrInvalidArgument
		}
		values["default_quantity_per_package"] = *params.DefaultQtyPerPackage
	}
	if params.IsActive != nil {
		values["is_active"] = *params.IsActive
	}
	if params.TicketCategory != nil {
		if !params.TicketCategory.IsValid() {
			return nil, apperrors.ErrInvalidArgument
		}
		values["ticket_category"] = *params.TicketCategory
	}
	if params.Color != nil {
		values["color"] = *params.Color
	}
	if params.ImageURL != nil {
		values["image_url"] = *params.ImageURL
	}

	if len(values) == 0 {
		return nil, apperrors.ErrInvalidInput
	}

	updated, err := s.repo.UpdateGlobal(ctx, id, values)
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, actor, model.AuditActionUpdateGlobal, updated.ID, "",
		fmt.Sprintf("updated %d catalog fields", len(values)))
	s.invalidateViews(ctx, updated.ID)

	return updated, nil
}

func (s *InventoryServiceImpl) UpdateKioskStock(ctx context.Context, actor model.Actor, id uuid.UUID, kioskID string, params model.StockUpdateParams) (*model.TicketTypeView, error) {
	if kioskID == "" {
		return nil, apperrors.ErrInvalidArgument
	}
	if params.Counter == nil && params.Vault == nil {
		return nil, apperrors.ErrInvalidInput
	}

	unlock := s.locks.Lock(id.String())
	defer unlock()

	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// absent kiosk entry reads as (0,0); only the supplied sides change
	old, _ := t.StockFor(kioskID)
	next := old
	if params.Counter != nil {
		next.Counter = *params.Counter
	}
	if params.Vault != nil {
		next.Vault = *params.Vault
	}

	if next.Counter < 0 || next.Vault < 0 {
		return nil, apperrors.ErrInvalidQuantity
	}

	updated, err := s.saveKioskStock(ctx, t, kioskID, next, nil)
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, actor, model.AuditActionUpdateStock, updated.ID, kioskID,
		fmt.Sprintf("stock set counter %d->%d vault %d->%d", old.Counter, next.Counter, old.Vault, next.Vault))
	s.invalidateViews(ctx, updated.ID)

	if old.Counter != next.Counter {
		s.notifier.NotifyCounterChange(ctx, updated, kioskID, old.Counter, next.Counter)
	}

	return updated.ViewFor(kioskID), nil
}

func (s *InventoryServiceImpl) TransferVaultToCounter(ctx context.Context, actor model.Actor, id uuid.UUID, kioskID string, quantity int) (*model.TicketTypeView, error) {
	if kioskID == "" || quantity <= 0 {
		return nil, apperrors.ErrInvalidArgument
	}

	unlock := s.locks.Lock(id.String())
	defer unlock()

	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	old, _ := t.StockFor(kioskID)
	if quantity > old.Vault {
		return nil, apperrors.ErrInsufficientStock
	}

	next := model.KioskStock{
		Counter: old.Counter + quantity,
		Vault:   old.Vault - quantity,
	}

	// moved stock counts as unopened until the counter operator says so
	openedFalse := false
	updated, err := s.saveKioskStock(ctx, t, kioskID, next, &openedFalse)
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, actor, model.AuditActionTransfer, updated.ID, kioskID,
		fmt.Sprintf("transferred %d vault->counter, now counter=%d vault=%d", quantity, next.Counter, next.Vault))
	s.invalidateViews(ctx, updated.ID)

	s.notifier.NotifyCounterChange(ctx, updated, kioskID, old.Counter, next.Counter)

	return updated.ViewFor(kioskID), nil
}

func (s *InventoryServiceImpl) AddPackages(ctx context.Context, actor model.Actor, id uuid.UUID, kioskID string, destination model.StockSide, packageCount int) (*model.TicketTypeView, error) {
	if kioskID == "" || packageCount <= 0 || !destination.IsValid() {
		return nil, apperrors.ErrInvalidArgument
	}

	unlock := s.locks.Lock(id.String())
	defer unlock()

	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	unitsToAdd := packageCount * t.UnitsPerPackage()

	old, _ := t.StockFor(kioskID)
	next := old
	switch destination {
	case model.StockSideCounter:
		next.Counter += unitsToAdd
	case model.StockSideVault:
		next.Vault += unitsToAdd
	}

	updated, err := s.saveKioskStock(ctx, t, kioskID, next, nil)
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, actor, model.AuditActionAddPackages, updated.ID, kioskID,
		fmt.Sprintf("added %d packages (%d units) to %s", packageCount, unitsToAdd, destination))
	s.invalidateViews(ctx, updated.ID)

	if old.Counter != next.Counter {
		s.notifier.NotifyCounterChange(ctx, updated, kioskID, old.Counter, next.Counter)
	}

	return updated.ViewFor(kioskID), nil
}

func (s *InventoryServiceImpl) SetOpened(ctx context.Context, actor model.Actor, id uuid.UUID, kioskID string, opened bool) (*model.TicketTypeView, error) {
	if kioskID == "" {
		return nil, apperrors.ErrInvalidArgument
	}

	unlock := s.locks.Lock(id.String())
	defer unlock()

	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// only kiosks that actually hold stock can open it
	stock, ok := t.StockFor(kioskID)
	if !ok {
		return nil, apperrors.ErrInvalidArgument
	}

	updated, err := s.saveKioskStock(ctx, t, kioskID, stock, &opened)
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, actor, model.AuditActionSetOpened, updated.ID, kioskID,
		fmt.Sprintf("is_opened set to %t", opened))
	s.invalidateViews(ctx, updated.ID)

	return updated.ViewFor(kioskID), nil
}

// RemoveKioskInventory drops the kiosk's entry from both maps. A kiosk with
// no entry is a silent no-op, not an error, and emits no audit record since
// nothing changed.
func (s *InventoryServiceImpl) RemoveKioskInventory(ctx context.Context, actor model.Actor, id uuid.UUID, kioskID string) error {
	if kioskID == "" {
		return apperrors.ErrInvalidArgument
	}

	unlock := s.locks.Lock(id.String())
	defer unlock()

	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if _, ok := t.StockFor(kioskID); !ok {
		return nil
	}

	amount := cloneStock(t.Amount)
	openedMap := cloneOpened(t.AmountIsOpened)
	delete(amount, kioskID)
	delete(openedMap, kioskID)

	updated, err := s.repo.SaveAmounts(ctx, t.ID, amount, openedMap)
	if err != nil {
		return err
	}

	s.emitAudit(ctx, actor, model.AuditActionRemoveInventory, updated.ID, kioskID, "kiosk inventory entry removed")
	s.invalidateViews(ctx, updated.ID)

	return nil
}

func (s *InventoryServiceImpl) DeleteCatalogEntry(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	unlock := s.locks.Lock(id.String())
	defer unlock()

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.emitAudit(ctx, actor, model.AuditActionDelete, id, "", "catalog entry deleted")
	s.invalidateViews(ctx, id)

	return nil
}

// saveKioskStock writes one kiosk's entry back, keeping the opened map key in
// lockstep with the amount map key. openedOverride is nil to preserve the
// current flag.
func (s *InventoryServiceImpl) saveKioskStock(ctx context.Context, t *model.TicketType, kioskID string, stock model.KioskStock, openedOverride *bool) (*model.TicketType, error) {
	amount := cloneStock(t.Amount)
	openedMap := cloneOpened(t.AmountIsOpened)

	amount[kioskID] = stock
	if openedOverride != nil {
		openedMap[kioskID] = *openedOverride
	} else if _, ok := openedMap[kioskID]; !ok {
		openedMap[kioskID] = false
	}

	return s.repo.SaveAmounts(ctx, t.ID, amount, openedMap)
}

// emitAudit publishes fire-and-forget; a queue fault must not fail the
// committed mutation.
func (s *InventoryServiceImpl) emitAudit(ctx context.Context, actor model.Actor, action string, targetID uuid.UUID, kioskID, details string) {
	event := &model.AuditEvent{
		Action:     action,
		ActorID:    actor.ID,
		ActorName:  actor.Name,
		TargetID:   targetID.String(),
		TargetType: "ticket_type",
		Details:    details,
		KioskID:    kioskID,
		Timestamp:  time.Now().UTC(),
	}

	if err := s.auditQueue.PublishEvent(ctx, event); err != nil {
		logger.WithComponent("service").Warn("publish audit event failed",
			zap.String("action", action),
			zap.String("target_id", event.TargetID),
			zap.Error(err))
	}
}

func (s *InventoryServiceImpl) invalidateViews(ctx context.Context, id uuid.UUID) {
	if err := s.viewCache.Invalidate(ctx, id); err != nil {
		logger.WithComponent("service").Warn("view cache invalidate failed",
			zap.String("ticket_type_id", id.String()),
			zap.Error(err))
	}
}

func cloneStock(m map[string]model.KioskStock) map[string]model.KioskStock {
	out := make(map[string]model.KioskStock, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneOpened(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}
