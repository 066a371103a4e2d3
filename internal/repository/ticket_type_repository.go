package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"kiosk-inventory/internal/codec"
	"kiosk-inventory/internal/model"
	apperrors "kiosk-inventory/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TicketTypeRepository interface {
	Create(ctx context.Context, ticketType *model.TicketType) (*model.TicketType, error)
	List(ctx context.Context) ([]*model.TicketType, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.TicketType, error)
	FindByCode(ctx context.Context, code string) (*model.TicketType, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	UpdateGlobal(ctx context.Context, id uuid.UUID, values map[string]interface{}) (*model.TicketType, error)
	SaveAmounts(ctx context.Context, id uuid.UUID, amount map[string]model.KioskStock, opened map[string]bool) (*model.TicketType, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type TicketTypeRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewTicketTypeRepository(pool *pgxpool.Pool) TicketTypeRepository {
	return &TicketTypeRepositoryImpl{
		pool: pool,
	}
}

const ticketTypeColumns = `id, name, nickname, price, code, min_threshold,
		default_quantity_per_package, is_active, ticket_category, color, image_url,
		amount, amount_is_opened, created_at, updated_at, deleted_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// The amount maps are stored as JSONB holding the legacy "<counter>,<vault>"
// encoded strings, so rows written by the previous system decode unchanged.
func marshalAmounts(amount map[string]model.KioskStock) ([]byte, error) {
	encoded := make(map[string]string, len(amount))
	for kioskID, stock := range amount {
		encoded[kioskID] = codec.EncodeAmount(stock.Counter, stock.Vault)
	}
	return json.Marshal(encoded)
}

func unmarshalAmounts(raw []byte) (map[string]model.KioskStock, error) {
	encoded := map[string]string{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return nil, err
		}
	}
	amount := make(map[string]model.KioskStock, len(encoded))
	for kioskID, s := range encoded {
		counter, vault := codec.DecodeAmount(s)
		amount[kioskID] = model.KioskStock{Counter: counter, Vault: vault}
	}
	return amount, nil
}

func scanTicketType(row rowScanner) (*model.TicketType, error) {
	var (
		t          model.TicketType
		amountRaw  []byte
		openedRaw  []byte
		defaultQty *int
	)

	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.Nickname,
		&t.Price,
		&t.Code,
		&t.MinThreshold,
		&defaultQty,
		&t.IsActive,
		&t.TicketCategory,
		&t.Color,
		&t.ImageURL,
		&amountRaw,
		&openedRaw,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.DeletedAt,
	)
	if err != nil {
		return nil, err
	}

	t.DefaultQtyPerPackage = defaultQty

	t.Amount, err = unmarshalAmounts(amountRaw)
	if err != nil {
		return nil, fmt.Errorf("unmarshal amount: %w", err)
	}

	t.AmountIsOpened = map[string]bool{}
	if len(openedRaw) > 0 {
		if err := json.Unmarshal(openedRaw, &t.AmountIsOpened); err != nil {
			return nil, fmt.Errorf("unmarshal amount_is_opened: %w", err)
		}
	}

	return &t, nil
}

func (r *TicketTypeRepositoryImpl) Create(ctx context.Context, ticketType *model.TicketType) (*model.TicketType, error) {
	amountJSON, err := marshalAmounts(ticketType.Amount)
	if err != nil {
		return nil, err
	}
	openedJSON, err := json.Marshal(ticketType.AmountIsOpened)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		INSERT INTO ticket_types (
			id, name, nickname, price, code, min_threshold,
			default_quantity_per_package, is_active, ticket_category, color, image_url,
			amount, amount_is_opened)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING %s
	`, ticketTypeColumns)

	row := r.pool.QueryRow(ctx, query,
		ticketType.ID, ticketType.Name, ticketType.Nickname, ticketType.Price,
		ticketType.Code, ticketType.MinThreshold, ticketType.DefaultQtyPerPackage,
		ticketType.IsActive, ticketType.TicketCategory, ticketType.Color,
		ticketType.ImageURL, amountJSON, openedJSON,
	)

	return scanTicketType(row)
}

func (r *TicketTypeRepositoryImpl) List(ctx context.Context) ([]*model.TicketType, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM ticket_types
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC
	`, ticketTypeColumns)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ticketTypes := make([]*model.TicketType, 0)

	for rows.Next() {
		t, err := scanTicketType(rows)
		if err != nil {
			return nil, err
		}
		ticketTypes = append(ticketTypes, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return ticketTypes, nil
}

func (r *TicketTypeRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*model.TicketType, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM ticket_types
		WHERE id = $1 AND deleted_at IS NULL
	`, ticketTypeColumns)

	t, err := scanTicketType(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrTicketTypeNotFound
		}
		return nil, err
	}

	return t, nil
}

func (r *TicketTypeRepositoryImpl) FindByCode(ctx context.Context, code string) (*model.TicketType, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM ticket_types
		WHERE code = $1 AND deleted_at IS NULL
	`, ticketTypeColumns)

	t, err := scanTicketType(r.pool.QueryRow(ctx, query, code))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrTicketTypeNotFound
		}
		return nil, err
	}

	return t, nil
}

// CodeExists checks the whole catalog including soft-deleted rows; codes are
// never reused for the lifetime of the catalog.
func (r *TicketTypeRepositoryImpl) CodeExists(ctx context.Context, code string) (bool, error) {
	query := `
		SELECT EXISTS(SELECT 1 FROM ticket_types WHERE code = $1)
	`

	var exists bool
	err := r.pool.QueryRow(ctx, query, code).Scan(&exists)
	if err != nil {
		return false, err
	}

	return exists, nil
}

func (r *TicketTypeRepositoryImpl) UpdateGlobal(ctx context.Context, id uuid.UUID, values map[string]interface{}) (*model.TicketType, error) {
	// price and code are immutable after creation; amount maps only change
	// through SaveAmounts
	allowedFields := map[string]bool{
		"name":                         true,
		"nickname":                     true,
		"min_threshold":                true,
		"default_quantity_per_package": true,
		"is_active":                    true,
		"ticket_category":              true,
		"color":                        true,
		"image_url":                    true,
	}

	sets := []string{}
	args := []interface{}{}
	argPos := 1

	for column, value := range values {
		if ok := allowedFields[column]; !ok {
			return nil, apperrors.ErrInvalidInput
		}
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argPos))
		args = append(args, value)
		argPos++
	}

	if len(sets) == 0 {
		return nil, apperrors.ErrInvalidInput
	}

	// add updated_at
	sets = append(sets, fmt.Sprintf("updated_at = $%d", argPos))
	args = append(args, time.Now().UTC())
	argPos++

	// add id
	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE ticket_types
		SET %s
		WHERE id = $%d AND deleted_at IS NULL
		RETURNING %s
	`, strings.Join(sets, ", "), argPos, ticketTypeColumns)

	t, err := scanTicketType(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrTicketTypeNotFound
		}
		return nil, err
	}

	return t, nil
}

// SaveAmounts replaces both per-kiosk maps in one statement, so readers
// observe the amount and opened flags move together.
func (r *TicketTypeRepositoryImpl) SaveAmounts(ctx context.Context, id uuid.UUID, amount map[string]model.KioskStock, opened map[string]bool) (*model.TicketType, error) {
	amountJSON, err := marshalAmounts(amount)
	if err != nil {
		return nil, err
	}
	openedJSON, err := json.Marshal(opened)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		UPDATE ticket_types
		SET amount = $1, amount_is_opened = $2, updated_at = $3
		WHERE id = $4 AND deleted_at IS NULL
		RETURNING %s
	`, ticketTypeColumns)

	t, err := scanTicketType(r.pool.QueryRow(ctx, query, amountJSON, openedJSON, time.Now().UTC(), id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrTicketTypeNotFound
		}
		return nil, err
	}

	return t, nil
}

func (r *TicketTypeRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE ticket_types
		SET deleted_at = $1, updated_at = $2
		WHERE id = $3 AND deleted_at IS NULL
	`

	result, err := r.pool.Exec(ctx, query, time.Now().UTC(), time.Now().UTC(), id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrTicketTypeNotFound
	}

	return nil
}
