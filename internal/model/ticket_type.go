package model

import (
	"time"

	"github.com/google/uuid"
)

// TicketCategory decides only the code prefix at creation time.
type TicketCategory string

const (
	TicketCategoryPais   TicketCategory = "pais"
	TicketCategoryCustom TicketCategory = "custom"
)

func (c TicketCategory) IsValid() bool {
	switch c {
	case TicketCategoryPais, TicketCategoryCustom:
		return true
	}
	return false
}

// StockSide selects which side of a kiosk entry a stock operation targets.
type StockSide string

const (
	StockSideCounter StockSide = "counter"
	StockSideVault   StockSide = "vault"
)

func (s StockSide) IsValid() bool {
	switch s {
	case StockSideCounter, StockSideVault:
		return true
	}
	return false
}

// KioskStock is one kiosk's stock split for a ticket type. Counter holds the
// saleable front stock, Vault the backroom reserve.
type KioskStock struct {
	Counter int `json:"counter"`
	Vault   int `json:"vault"`
}

// TicketType is one catalog ticket design, shared by every kiosk that stocks
// it. The Amount map is keyed by kiosk id; an absent key means the kiosk has
// never stocked this design, which is distinct from a present entry holding
// zeros. AmountIsOpened keys are kept in lockstep with Amount keys.
type TicketType struct {
	ID                   uuid.UUID             `json:"id" db:"id"`
	Name                 string                `json:"name" db:"name"`
	Nickname             string                `json:"nickname" db:"nickname"`
	Price                float64               `json:"price" db:"price"`
	Code                 string                `json:"code" db:"code"`
	MinThreshold         int                   `json:"min_threshold" db:"min_threshold"`
	DefaultQtyPerPackage *int                  `json:"default_quantity_per_package,omitempty" db:"default_quantity_per_package"`
	IsActive             bool                  `json:"is_active" db:"is_active"`
	TicketCategory       TicketCategory        `json:"ticket_category" db:"ticket_category"`
	Color                string                `json:"color" db:"color"`
	ImageURL             string                `json:"image_url" db:"image_url"`
	Amount               map[string]KioskStock `json:"amount" db:"amount"`
	AmountIsOpened       map[string]bool       `json:"amount_is_opened" db:"amount_is_opened"`
	CreatedAt            time.Time             `json:"created_date" db:"created_at"`
	UpdatedAt            time.Time             `json:"updated_date" db:"updated_at"`
	DeletedAt            *time.Time            `json:"deleted_at,omitempty" db:"deleted_at"`
}

func (t *TicketType) IsDeleted() bool {
	return t.DeletedAt != nil
}

// StockFor returns the kiosk's stock entry and whether the kiosk has one.
func (t *TicketType) StockFor(kioskID string) (KioskStock, bool) {
	stock, ok := t.Amount[kioskID]
	return stock, ok
}

// UnitsPerPackage is the package multiplier for bulk stock entry, 1 when no
// default is configured.
func (t *TicketType) UnitsPerPackage() int {
	if t.DefaultQtyPerPackage == nil || *t.DefaultQtyPerPackage <= 0 {
		return 1
	}
	return *t.DefaultQtyPerPackage
}

// ViewFor computes the derived per-kiosk read model. It is never persisted;
// absent kiosk entries read as zero quantities with is_opened false.
func (t *TicketType) ViewFor(kioskID string) *TicketTypeView {
	stock, stocked := t.Amount[kioskID]
	return &TicketTypeView{
		ID:              t.ID,
		Name:            t.Name,
		Nickname:        t.Nickname,
		Price:           t.Price,
		Code:            t.Code,
		MinThreshold:    t.MinThreshold,
		IsActive:        t.IsActive,
		TicketCategory:  t.TicketCategory,
		Color:           t.Color,
		ImageURL:        t.ImageURL,
		KioskID:         kioskID,
		QuantityCounter: stock.Counter,
		QuantityVault:   stock.Vault,
		Quantity:        stock.Counter + stock.Vault,
		IsOpened:        t.AmountIsOpened[kioskID],
		Stocked:         stocked,
		UpdatedAt:       t.UpdatedAt,
	}
}

// TicketTypeView is the kiosk-scoped response shape served to the UI.
type TicketTypeView struct {
	ID              uuid.UUID      `json:"id"`
	Name            string         `json:"name"`
	Nickname        string         `json:"nickname"`
	Price           float64        `json:"price"`
	Code            string         `json:"code"`
	MinThreshold    int            `json:"min_threshold"`
	IsActive        bool           `json:"is_active"`
	TicketCategory  TicketCategory `json:"ticket_category"`
	Color           string         `json:"color"`
	ImageURL        string         `json:"image_url"`
	KioskID         string         `json:"kiosk_id"`
	QuantityCounter int            `json:"quantity_counter"`
	QuantityVault   int            `json:"quantity_vault"`
	Quantity        int            `json:"quantity"`
	IsOpened        bool           `json:"is_opened"`
	Stocked         bool           `json:"stocked"`
	UpdatedAt       time.Time      `json:"updated_date"`
}

// CreateTicketTypeParams carries catalog-wide creation input plus an optional
// single-kiosk stock seed.
type CreateTicketTypeParams struct {
	Name                 string
	Nickname             string
	Price                float64
	Code                 string // generated when empty
	MinThreshold         int
	DefaultQtyPerPackage *int
	TicketCategory       TicketCategory
	Color                string
	ImageURL             string

	SeedKioskID string
	SeedCounter int
	SeedVault   int
}

// UpdateTicketTypeParams patches kiosk-agnostic fields. Price and Code are
// deliberately absent, both are immutable after creation.
type UpdateTicketTypeParams struct {
	Name                 *string
	Nickname             *string
	MinThreshold         *int
	DefaultQtyPerPackage *int
	IsActive             *bool
	TicketCategory       *TicketCategory
	Color                *string
	ImageURL             *string
}

// StockUpdateParams overwrites only the supplied sides of a kiosk entry; a
// nil side keeps its current value.
type StockUpdateParams struct {
	Counter *int
	Vault   *int
}

// Actor identifies who performed a mutation, supplied by the caller (the auth
// layer sits outside this service).
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
