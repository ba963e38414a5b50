// Package filing persists filed declaration box sets and numbers them per
// owner and year.
package filing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/autonomo/api/internal/declaration"
	"github.com/autonomo/api/internal/fiscal"
)

var (
	// ErrNotFound is returned when a filing does not exist.
	ErrNotFound = errors.New("filing not found")

	// ErrUnknownModel is returned for a model outside the supported set.
	ErrUnknownModel = errors.New("unknown declaration model")
)

// Filing is a declaration as stored.
type Filing struct {
	ID      uuid.UUID         `json:"id"`
	OwnerID uuid.UUID         `json:"owner_id"`
	Model   declaration.Model `json:"model"`
	Year    int               `json:"year"`
	Quarter int               `json:"quarter,omitempty"` // 0 for annual models
	Number  int               `json:"number"`
	Boxes   json.RawMessage   `json:"boxes"`
	Result  *decimal.Decimal  `json:"result,omitempty"`
	Action  fiscal.Action     `json:"action,omitempty"`
	FiledAt time.Time         `json:"filed_at"`
}

// DocumentNumber renders the number printed on the filed document.
func (f Filing) DocumentNumber() string {
	return fmt.Sprintf("%s-%d-%06d", f.Model, f.Year, f.Number)
}

// FileParams contains the input fields for filing a declaration. Result and
// Action are left empty for informative annual summaries.
type FileParams struct {
	OwnerID uuid.UUID
	Model   declaration.Model
	Year    int
	Quarter int
	Boxes   any
	Result  *decimal.Decimal
	Action  fiscal.Action
}

func (p FileParams) validate() error {
	if !p.Model.Valid() {
		return fiscal.NewFieldError("model", p.Model, ErrUnknownModel)
	}
	if err := fiscal.ValidateYear(p.Year); err != nil {
		return err
	}
	if p.Model.Annual() {
		if p.Quarter != 0 {
			return fiscal.NewFieldError("quarter", p.Quarter, fiscal.ErrInvalidPeriod)
		}
		return nil
	}
	if p.Quarter < 1 || p.Quarter > 4 {
		return fiscal.NewFieldError("quarter", p.Quarter, fiscal.ErrInvalidPeriod)
	}
	return nil
}

// Service stores filed declarations.
type Service struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewService creates a new filing service.
func NewService(pool *pgxpool.Pool, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		pool:   pool,
		logger: logger,
	}
}

const allocateNumberSQL = `
	INSERT INTO document_sequences (owner_id, year, last_number)
	VALUES ($1, $2, 1)
	ON CONFLICT (owner_id, year)
	DO UPDATE SET last_number = document_sequences.last_number + 1
	RETURNING last_number`

const insertDeclarationSQL = `
	INSERT INTO declarations (id, owner_id, model, year, quarter, number, boxes, result, action)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8::numeric, $9)
	RETURNING filed_at`

const selectDeclarationSQL = `
	SELECT id, owner_id, model, year, quarter, number, boxes, result::text, action, filed_at
	FROM declarations`

// File stores a box set and assigns it the next document number of its
// owner and year. The sequence row stays locked until the transaction
// ends, so concurrent filings for the same owner and year serialize.
func (s *Service) File(ctx context.Context, params FileParams) (*Filing, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	boxes, err := json.Marshal(params.Boxes)
	if err != nil {
		return nil, fmt.Errorf("encoding boxes: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	f := &Filing{
		ID:      uuid.New(),
		OwnerID: params.OwnerID,
		Model:   params.Model,
		Year:    params.Year,
		Quarter: params.Quarter,
		Boxes:   boxes,
		Result:  params.Result,
		Action:  params.Action,
	}

	if err := tx.QueryRow(ctx, allocateNumberSQL, f.OwnerID, f.Year).Scan(&f.Number); err != nil {
		return nil, fmt.Errorf("allocating document number: %w", err)
	}

	var result, action *string
	if f.Result != nil {
		r := f.Result.StringFixed(2)
		result = &r
	}
	if f.Action != "" {
		a := string(f.Action)
		action = &a
	}

	err = tx.QueryRow(ctx, insertDeclarationSQL,
		f.ID, f.OwnerID, string(f.Model), f.Year, nullableQuarter(f.Quarter), f.Number, boxes, result, action,
	).Scan(&f.FiledAt)
	if err != nil {
		return nil, fmt.Errorf("inserting declaration: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing filing: %w", err)
	}

	s.logger.Info("declaration filed",
		"id", f.ID,
		"owner_id", f.OwnerID,
		"model", f.Model,
		"document_number", f.DocumentNumber(),
	)

	return f, nil
}

// Get returns a single filing by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Filing, error) {
	row := s.pool.QueryRow(ctx, selectDeclarationSQL+` WHERE id = $1`, id)
	f, err := scanFiling(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting filing %s: %w", id, err)
	}
	return f, nil
}

// List returns the filings of an owner for a year in document order.
func (s *Service) List(ctx context.Context, ownerID uuid.UUID, year int) ([]Filing, error) {
	if err := fiscal.ValidateYear(year); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		selectDeclarationSQL+` WHERE owner_id = $1 AND year = $2 ORDER BY number`,
		ownerID, year,
	)
	if err != nil {
		return nil, fmt.Errorf("listing filings for owner %s: %w", ownerID, err)
	}
	defer rows.Close()

	var filings []Filing
	for rows.Next() {
		f, err := scanFiling(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning filing: %w", err)
		}
		filings = append(filings, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating filings: %w", err)
	}
	return filings, nil
}

func scanFiling(row pgx.Row) (*Filing, error) {
	var (
		f       Filing
		model   string
		quarter *int16
		result  *string
		action  *string
	)
	err := row.Scan(&f.ID, &f.OwnerID, &model, &f.Year, &quarter, &f.Number, &f.Boxes, &result, &action, &f.FiledAt)
	if err != nil {
		return nil, err
	}

	f.Model = declaration.Model(model)
	if quarter != nil {
		f.Quarter = int(*quarter)
	}
	if result != nil {
		r, err := decimal.NewFromString(*result)
		if err != nil {
			return nil, fmt.Errorf("parsing result %q: %w", *result, err)
		}
		f.Result = &r
	}
	if action != nil {
		f.Action = fiscal.Action(*action)
	}
	return &f, nil
}

func nullableQuarter(q int) *int16 {
	if q == 0 {
		return nil
	}
	v := int16(q)
	return &v
}
