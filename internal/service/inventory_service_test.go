package service

import (
	"context"
	"regexp"
	"testing"

	"kiosk-inventory/internal/model"
	apperrors "kiosk-inventory/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupInventoryService(t *testing.T) (InventoryService, *fakeCatalogRepo, *captureAuditQueue, *spyNotifier) {
	t.Helper()
	repo := newFakeCatalogRepo()
	auditQueue := newCaptureAuditQueue()
	notifier := newSpyNotifier()
	svc := NewInventoryService(repo, NewCodeGenerator(repo), notifier, auditQueue, nopViewCache{})
	return svc, repo, auditQueue, notifier
}

var testActor = model.Actor{ID: "u-1", Name: "Dana"}

func createTicket(t *testing.T, svc InventoryService, params model.CreateTicketTypeParams) *model.TicketTypeView {
	t.Helper()
	view, err := svc.Create(context.Background(), testActor, params)
	require.NoError(t, err)
	return view
}

func TestInventoryService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("generates code and defaults when no kiosk seed", func(t *testing.T) {
		svc, repo, auditQueue, _ := setupInventoryService(t)

		view := createTicket(t, svc, model.CreateTicketTypeParams{Name: "Lotto Silver", Price: 10})

		assert.Regexp(t, regexp.MustCompile(`^CUST-[A-Z0-9]{5}$`), view.Code)
		assert.Equal(t, 0, view.QuantityCounter)
		assert.Equal(t, 0, view.QuantityVault)
		assert.False(t, view.Stocked)
		assert.True(t, view.IsActive)

		stored, err := repo.FindByID(ctx, view.ID)
		require.NoError(t, err)
		assert.Empty(t, stored.Amount)
		assert.Empty(t, stored.AmountIsOpened)

		events := auditQueue.published()
		require.Len(t, events, 1)
		assert.Equal(t, model.AuditActionCreate, events[0].Action)
		assert.Equal(t, testActor.ID, events[0].ActorID)
	})

	t.Run("pais category gets PAIS prefix", func(t *testing.T) {
		svc, _, _, _ := setupInventoryService(t)

		view := createTicket(t, svc, model.CreateTicketTypeParams{
			Name:           "Pais Classic",
			Price:          25,
			TicketCategory: model.TicketCategoryPais,
		})

		assert.Regexp(t, regexp.MustCompile(`^PAIS-[A-Z0-9]{5}$`), view.Code)
	})

	t.Run("kiosk seed writes both maps together", func(t *testing.T) {
		svc, repo, _, notifier := setupInventoryService(t)

		view := createTicket(t, svc, model.CreateTicketTypeParams{
			Name:        "Scratch Gold",
			Price:       5,
			SeedKioskID: "K1",
			SeedCounter: 10,
			SeedVault:   40,
		})

		assert.Equal(t, 10, view.QuantityCounter)
		assert.Equal(t, 40, view.QuantityVault)
		assert.Equal(t, 50, view.Quantity)
		assert.True(t, view.Stocked)
		assert.False(t, view.IsOpened)

		stored, err := repo.FindByID(ctx, view.ID)
		require.NoError(t, err)
		assert.Equal(t, model.KioskStock{Counter: 10, Vault: 40}, stored.Amount["K1"])
		opened, ok := stored.AmountIsOpened["K1"]
		require.True(t, ok, "amount key must come with an amount_is_opened key")
		assert.False(t, opened)

		// a seeded counter goes through stock-event derivation
		calls := notifier.recorded()
		require.Len(t, calls, 1)
		assert.Equal(t, 0, calls[0].OldCounter)
		assert.Equal(t, 10, calls[0].NewCounter)
	})

	t.Run("rejects missing name and negative seed", func(t *testing.T) {
		svc, _, auditQueue, _ := setupInventoryService(t)

		_, err := svc.Create(ctx, testActor, model.CreateTicketTypeParams{Price: 10})
		assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)

		_, err = svc.Create(ctx, testActor, model.CreateTicketTypeParams{
			Name: "Bad", Price: 10, SeedKioskID: "K1", SeedCounter: -1,
		})
		assert.ErrorIs(t, err, apperrors.ErrInvalidQuantity)

		assert.Empty(t, auditQueue.published(), "failed creates must not audit")
	})

	t.Run("rejects duplicate explicit code", func(t *testing.T) {
		svc, _, _, _ := setupInventoryService(t)

		createTicket(t, svc, model.CreateTicketTypeParams{Name: "A", Price: 1, Code: "CUST-AAAAA"})

		_, err := svc.Create(ctx, testActor, model.CreateTicketTypeParams{Name: "B", Price: 1, Code: "CUST-AAAAA"})
		assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
	})
}

func TestInventoryService_UpdateGlobal(t *testing.T) {
	ctx := context.Background()

	t.Run("patches catalog fields, preserves price and code", func(t *testing.T) {
		svc, repo, auditQueue, _ := setupInventoryService(t)
		created := createTicket(t, svc, model.CreateTicketTypeParams{Name: "Old Name", Price: 10})

		newName := "New Name"
		threshold := 15
		updated, err := svc.UpdateGlobal(ctx, testActor, created.ID, model.UpdateTicketTypeParams{
			Name:         &newName,
			MinThreshold: &threshold,
		})
		require.NoError(t, err)

		assert.Equal(t, "New Name", updated.Name)
		assert.Equal(t, 15, updated.MinThreshold)
		assert.Equal(t, 10.0, updated.Price, "price is immutable")
		assert.Equal(t, created.Code, updated.Code, "code is immutable")

		stored, err := repo.FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, 10.0, stored.Price)
		assert.Equal(t, created.Code, stored.Code)

		events := auditQueue.published()
		require.Len(t, events, 2) // create + update
		assert.Equal(t, model.AuditActionUpdateGlobal, events[1].Action)
	})

	t.Run("empty patch is rejected", func(t *testing.T) {
		svc, _, _, _ := setupInventoryService(t)
		created := createTicket(t, svc, model.CreateTicketTypeParams{Name: "T", Price: 1})

		_, err := svc.UpdateGlobal(ctx, testActor, created.ID, model.UpdateTicketTypeParams{})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})

	t.Run("unknown id fails with NotFound", func(t *testing.T) {
		svc, _, _, _ := setupInventoryService(t)

		name := "X"
		_, err := svc.UpdateGlobal(ctx, testActor, uuid.New(), model.UpdateTicketTypeParams{Name: &name})
		assert.ErrorIs(t, err, apperrors.ErrTicketTypeNotFound)
	})
}

func TestInventoryService_UpdateKioskStock(t *testing.T) {
	ctx := context.Background()

	t.Run("partial update preserves the other side", func(t *testing.T) {
		svc, _, _, _ := setupInventoryService(t)
		created := createTicket(t, svc, model.CreateTicketTypeParams{
			Name: "T", Price: 1, SeedKioskID: "K1", SeedCounter: 3, SeedVault: 7,
		})

		counter := 5
		view, err := svc.UpdateKioskStock(ctx, testActor, created.ID, "K1", model.StockUpdateParams{Counter: &counter})
		require.NoError(t, err)

		assert.Equal(t, 5, view.QuantityCounter)
		assert.Equal(t, 7, view.QuantityVault, "vault must be preserved, not zeroed")
	})

	t.Run("absent kiosk entry defaults to zero before applying", func(t *testing.T) {
		svc, repo, _, _ := setupInventoryService(t)
		created := createTicket(t, svc, model.CreateTicketTypeParams{Name: "T", Price: 1})

		vault := 30
		view, err := svc.UpdateKioskStock(ctx, testActor, created.ID, "K2", model.StockUpdateParams{Vault: &vault})
		require.NoError(t, err)

		assert.Equal(t, 0, view.QuantityCounter)
		assert.Equal(t, 30, view.QuantityVault)

		stored, err := repo.FindByID(ctx, created.ID)
		require.NoError(t, err)
		_, ok := stored.AmountIsOpened["K2"]
		assert.True(t, ok, "new kiosk entry must create the opened flag too")
	})

	t.Run("negative result fails without mutating", func(t *testing.T) {
		svc, repo, _, _ := setupInventoryService(t)
		created := createTicket(t, svc, model.CreateTicketTypeParams{
			Name: "T", Price: 1, SeedKioskID: "K1", SeedCounter: 3, SeedVault: 7,
		})
		savesBefore := repo.saveCount()

		counter := -1
		_, err := svc.UpdateKioskStock(ctx, testActor, created.ID, "K1", model.StockUpdateParams{Counter: &counter})
		assert.ErrorIs(t, err, apperrors.ErrInvalidQuantity)
		assert.Equal(t, savesBefore, repo.saveCount(), "no write may be issued")
	})

	t.Run("notifier runs only when the counter changed", func(t *testing.T) {
		svc, _, _, notifier := setupInventoryService(t)
		created := createTicket(t, svc, model.CreateTicketTypeParams{
			Name: "T", Price: 1, SeedKioskID: "K1", SeedCounter: 3, SeedVault: 7,
		})
		notifierCallsBefore := len(notifier.recorded())

		vault := 50
		_, err := svc.UpdateKioskStock(ctx, testActor, created.ID, "K1", model.StockUpdateParams{Vault: &vault})
		require.NoError(t, err)
		assert.Len(t, notifier.recorded(), notifierCallsBefore, "vault-only change derives nothing")

		counter := 0
		_, err = svc.UpdateKioskStock(ctx, testActor, created.ID, "K1", model.StockUpdateParams{Counter: &counter})
		require.NoError(t, err)

		calls := notifier.recorded()
		require.Len(t, calls, notifierCallsBefore+1)
		last := calls[len(calls)-1]
		assert.Equal(t, 3, last.OldCounter)
		assert.Equal(t, 0, last.NewCounter)
	})

	t.Run("empty patch is rejected", func(t *testing.T) {
		svc, _, _, _ := setupInventoryService(t)
		created := createTicket(t, svc, model.CreateTicketTypeParams{Name: "T", Price: 1})

		_, err := svc.UpdateKioskStock(ctx, testActor, created.ID, "K1", model.StockUpdateParams{})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
}

func TestInventoryService_TransferVaultToCounter(t *testing.T) {
	ctx := context.Background()

	t.Run("conserves total and clears opened flag", func(t *testing.T) {
		svc, repo, _, notifier := setupInventoryService(t)
		created := createTicket(t, svc, model.CreateTicketTypeParams{
			Name: "T", Price: 1, SeedKioskID: "K1", SeedCounter: 20, SeedVault: 30,
		})

		// counter stock was opened before the transfer
		_, err := svc.SetOpened(ctx, testActor, created.ID, "K1", true)
		require.NoError(t, err)

		view, err := svc.TransferVaultToCounter(ctx, testActor, created.ID, "K1", 10)
		require.NoError(t, err)

		assert.Equal(t, 30, view.QuantityCounter)
		assert.Equal(t, 20, view.QuantityVault)
		assert.Equal(t, 50, view.Quantity, "transfer must conserve total stock")
		assert.False(t, view.IsOpened, "moved stock counts as unopened")

		stored, err := repo.FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.False(t, stored.AmountIsOpened["K1"])

		calls := notifier.recorded()
		last := calls[len(calls)-1]
		assert.Equal(t, 20, last.OldCounter)
		assert.Equal(t, 30, last.NewCounter)
	})

	t.Run("rejects transfer exceeding vault and leaves record unchanged", func(t *testing.T) {
		svc, repo, auditQueue, _ := setupInventoryService(t)
		created := createTicket(t, svc, model.CreateTicketTypeParams{
			Name: "T", Price: 1, SeedKioskID: "K1", SeedCounter: 20, SeedVault: 30,
		})
		before, err := repo.FindByID(ctx, created.ID)
		require.NoError(t, err)
		savesBefore := repo.saveCount()
		auditBefore := len(auditQueue.published())

		_, err = svc.TransferVaultToCounter(ctx, testActor, created.ID, "K1", 31)
		assert.ErrorIs(t, err, apperrors.ErrInsufficientStock)

		after, err := repo.FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, before.Amount, after.Amount)
		assert.Equal(t, before.AmountIsOpened, after.AmountIsOpened)
		assert.Equal(t, before.UpdatedAt, after.UpdatedAt)
		assert.Equal(t, savesBefore, repo.saveCount())
		assert.Len(t, auditQueue.published(), auditBefore)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		svc, _, _, _ := setupInventoryService(t)
		created := createTicket(t, svc, model.CreateTicketTypeParams{
			Name: "T", Price: 1, SeedKioskID: "K1", SeedCounter: 1, SeedVault: 1,
		})

		_, err := svc.TransferVaultToCounter(ctx, testActor, created.ID, "K1", 0)
		assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)

		_, err = svc.TransferVaultToCounter(ctx, testActor, created.ID, "K1", -5)
		assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
	})

	t.Run("kiosk without an entry has an empty vault", func(t *testing.T) {
		svc, _, _, _ := setupInventoryService(t)
		created := createTicket(t, svc, model.CreateTicketTypeParams{Name: "T", Price: 1})

		_, err := svc.TransferVaultToCounter(ctx, testActor, created.ID, "K9", 1)
		assert.ErrorIs(t, err, apperrors.ErrInsufficientStock)
	})
}

func TestInventoryService_AddPackages(t *testing.T) {
	ctx := context.Background()

	t.Run("multiplies by the configured package size", func(t *testing.T) {
		svc, _, _, _ := setupInventoryService(t)
		pkgSize := 12
		created := createTicket(t, svc, model.CreateTicketTypeParams{
			Name: "T", Price: 1, DefaultQtyPerPackage: &pkgSize,
			SeedKioskID: "K1", SeedCounter: 4, SeedVault: 6,
		})

		view, err := svc.AddPackages(ctx, testActor, created.ID, "K1", model.StockSideVault, 3)
		require.NoError(t, err)

		assert.Equal(t, 6+3*12, view.QuantityVault)
		assert.Equal(t, 4, view.QuantityCounter, "counter side must be preserved")
	})

	t.Run("defaults to one unit per package", func(t *testing.T) {
		svc, _, _, notifier := setupInventoryService(t)
		created := createTicket(t, svc, model.CreateTicketTypeParams{
			Name: "T", Price: 1, SeedKioskID: "K1", SeedCounter: 4, SeedVault: 6,
		})
		callsBefore := len(notifier.recorded())

		view, err := svc.AddPackages(ctx, testActor, created.ID, "K1", model.StockSideCounter, 5)
		require.NoError(t, err)

		assert.Equal(t, 9, view.QuantityCounter)
		assert.Equal(t, 6, view.QuantityVault)

		calls := notifier.recorded()
		require.Len(t, calls, callsBefore+1, "counter destination derives stock events")
		assert.Equal(t, 9, calls[len(calls)-1].NewCounter)
	})

	t.Run("rejects bad destination or count", func(t *testing.T) {
		svc, _, _, _ := setupInventoryService(t)
		created := createTicket(t, svc, model.CreateTicketTypeParams{Name: "T", Price: 1})

		_, err := svc.AddPackages(ctx, testActor, created.ID, "K1", model.StockSide("shelf"), 1)
		assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)

		_, err = svc.AddPackages(ctx, testActor, created.ID, "K1", model.StockSideVault, 0)
		assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
	})
}

func TestInventoryService_SetOpened(t *testing.T) {
	ctx := context.Background()

	t.Run("flips the flag for a stocked kiosk", func(t *testing.T) {
		svc, _, _, _ := setupInventoryService(t)
		created := createTicket(t, svc, model.CreateTicketTypeParams{
			Name: "T", Price: 1, SeedKioskID: "K1", SeedCounter: 1, SeedVault: 1,
		})

		view, err := svc.SetOpened(ctx, testActor, created.ID, "K1", true)
		require.NoError(t, err)
		assert.True(t, view.IsOpened)
		assert.Equal(t, 1, view.QuantityCounter, "quantities are untouched")
	})

	t.Run("rejects kiosks that never stocked the ticket", func(t *testing.T) {
		svc, _, _, _ := setupInventoryService(t)
		created := createTicket(t, svc, model.CreateTicketTypeParams{Name: "T", Price: 1})

		_, err := svc.SetOpened(ctx, testActor, created.ID, "K1", true)
		assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
	})
}

func TestInventoryService_RemoveKioskInventory(t *testing.T) {
	ctx := context.Background()

	t.Run("removes one kiosk without touching others", func(t *testing.T) {
		svc, repo, _, _ := setupInventoryService(t)
		created := createTicket(t, svc, model.CreateTicketTypeParams{
			Name: "T", Price: 1, SeedKioskID: "K1", SeedCounter: 5, SeedVault: 5,
		})
		counter, vault := 8, 2
		_, err := svc.UpdateKioskStock(ctx, testActor, created.ID, "K2", model.StockUpdateParams{Counter: &counter, Vault: &vault})
		require.NoError(t, err)

		require.NoError(t, svc.RemoveKioskInventory(ctx, testActor, created.ID, "K1"))

		stored, err := repo.FindByID(ctx, created.ID)
		require.NoError(t, err)
		_, ok := stored.Amount["K1"]
		assert.False(t, ok)
		_, ok = stored.AmountIsOpened["K1"]
		assert.False(t, ok, "opened flag goes with the amount entry")
		assert.Equal(t, model.KioskStock{Counter: 8, Vault: 2}, stored.Amount["K2"])
	})

	t.Run("no entry is a silent no-op", func(t *testing.T) {
		svc, repo, auditQueue, _ := setupInventoryService(t)
		created := createTicket(t, svc, model.CreateTicketTypeParams{Name: "T", Price: 1})
		savesBefore := repo.saveCount()
		auditBefore := len(auditQueue.published())

		require.NoError(t, svc.RemoveKioskInventory(ctx, testActor, created.ID, "K1"))
		assert.Equal(t, savesBefore, repo.saveCount())
		assert.Len(t, auditQueue.published(), auditBefore)
	})
}

func TestInventoryService_Reads(t *testing.T) {
	ctx := context.Background()

	t.Run("GetByID returns nil for unknown id", func(t *testing.T) {
		svc, _, _, _ := setupInventoryService(t)

		view, err := svc.GetByID(ctx, uuid.New(), "K1")
		require.NoError(t, err)
		assert.Nil(t, view)
	})

	t.Run("absent kiosk reads as zeros and unopened", func(t *testing.T) {
		svc, _, _, _ := setupInventoryService(t)
		created := createTicket(t, svc, model.CreateTicketTypeParams{
			Name: "T", Price: 1, SeedKioskID: "K1", SeedCounter: 5, SeedVault: 5,
		})

		view, err := svc.GetByID(ctx, created.ID, "K2")
		require.NoError(t, err)
		require.NotNil(t, view)
		assert.Equal(t, 0, view.QuantityCounter)
		assert.Equal(t, 0, view.QuantityVault)
		assert.Equal(t, 0, view.Quantity)
		assert.False(t, view.IsOpened)
		assert.False(t, view.Stocked)
	})

	t.Run("GetByCode resolves the handle printed on tickets", func(t *testing.T) {
		svc, _, _, _ := setupInventoryService(t)
		created := createTicket(t, svc, model.CreateTicketTypeParams{Name: "T", Price: 1})

		view, err := svc.GetByCode(ctx, created.Code, "K1")
		require.NoError(t, err)
		require.NotNil(t, view)
		assert.Equal(t, created.ID, view.ID)

		missing, err := svc.GetByCode(ctx, "CUST-ZZZZZ", "K1")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("ListByKiosk filters inactive when asked", func(t *testing.T) {
		svc, _, _, _ := setupInventoryService(t)
		active := createTicket(t, svc, model.CreateTicketTypeParams{Name: "Active", Price: 1})
		retired := createTicket(t, svc, model.CreateTicketTypeParams{Name: "Retired", Price: 1})

		inactive := false
		_, err := svc.UpdateGlobal(ctx, testActor, retired.ID, model.UpdateTicketTypeParams{IsActive: &inactive})
		require.NoError(t, err)

		views, err := svc.ListByKiosk(ctx, "K1", true)
		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.Equal(t, active.ID, views[0].ID)

		all, err := svc.ListByKiosk(ctx, "K1", false)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})
}

// Mirrors the full stocking lifecycle of one ticket across two kiosks.
func TestInventoryService_EndToEndScenario(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := setupInventoryService(t)

	created := createTicket(t, svc, model.CreateTicketTypeParams{Name: "T", Price: 10})
	assert.False(t, created.Stocked)

	counter, vault := 20, 30
	view, err := svc.UpdateKioskStock(ctx, testActor, created.ID, "K1", model.StockUpdateParams{Counter: &counter, Vault: &vault})
	require.NoError(t, err)
	assert.Equal(t, 20, view.QuantityCounter)
	assert.Equal(t, 30, view.QuantityVault)

	_, err = svc.TransferVaultToCounter(ctx, testActor, created.ID, "K1", 25)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientStock)

	view, err = svc.TransferVaultToCounter(ctx, testActor, created.ID, "K1", 10)
	require.NoError(t, err)
	assert.Equal(t, 30, view.QuantityCounter)
	assert.Equal(t, 20, view.QuantityVault)

	require.NoError(t, svc.RemoveKioskInventory(ctx, testActor, created.ID, "K1"))

	view, err = svc.GetByID(ctx, created.ID, "K1")
	require.NoError(t, err)
	assert.Equal(t, 0, view.QuantityCounter)
	assert.Equal(t, 0, view.QuantityVault)
	assert.False(t, view.Stocked)

	// K2 was never seeded and stays untouched
	view, err = svc.GetByID(ctx, created.ID, "K2")
	require.NoError(t, err)
	assert.Equal(t, 0, view.Quantity)
	assert.False(t, view.Stocked)
}

func TestInventoryService_DeleteCatalogEntry(t *testing.T) {
	ctx := context.Background()
	svc, _, auditQueue, _ := setupInventoryService(t)

	created := createTicket(t, svc, model.CreateTicketTypeParams{
		Name: "T", Price: 1, SeedKioskID: "K1", SeedCounter: 5, SeedVault: 5,
	})

	require.NoError(t, svc.DeleteCatalogEntry(ctx, testActor, created.ID))

	view, err := svc.GetByID(ctx, created.ID, "K1")
	require.NoError(t, err)
	assert.Nil(t, view, "deleted entries disappear for every kiosk")

	err = svc.DeleteCatalogEntry(ctx, testActor, created.ID)
	assert.ErrorIs(t, err, apperrors.ErrTicketTypeNotFound, "second delete fails")

	events := auditQueue.published()
	assert.Equal(t, model.AuditActionDelete, events[len(events)-1].Action)
}
