package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jfacosta/facturapos-api/internal/domain"
	"github.com/jfacosta/facturapos-api/internal/domain/entity"
	"github.com/jfacosta/facturapos-api/internal/domain/repository"
)

var _ repository.ResolutionRepository = (*ResolutionRepo)(nil)

// ResolutionRepo implementa ResolutionRepository sobre PostgreSQL.
// Acepta pool o tx; GetForUpdate solo tiene efecto real dentro de una tx.
type ResolutionRepo struct {
	q Querier
}

// NewResolutionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewResolutionRepository(q Querier) *ResolutionRepo {
	return &ResolutionRepo{q: q}
}

const resolutionColumns = `
	id, company_id, resolution_number, resolution_date, prefix,
	from_number, to_number, current_number, technical_key,
	valid_from, valid_to, is_active, created_at, updated_at`

func (r *ResolutionRepo) Create(ctx context.Context, res *entity.Resolution) error {
	if res.ID == "" {
		res.ID = uuid.New().String()
	}
	const q = `
		INSERT INTO resolutions
			(id, company_id, resolution_number, resolution_date, prefix,
			 from_number, to_number, current_number, technical_key,
			 valid_from, valid_to, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now(), now())`
	_, err := r.q.Exec(ctx, q,
		res.ID, res.CompanyID, res.ResolutionNumber, res.ResolutionDate, res.Prefix,
		res.FromNumber, res.ToNumber, res.CurrentNumber, res.TechnicalKey,
		res.ValidFrom, res.ValidTo, res.IsActive,
	)
	if err != nil {
		return fmt.Errorf("insert resolution: %w", err)
	}
	return nil
}

func (r *ResolutionRepo) GetByID(ctx context.Context, id string) (*entity.Resolution, error) {
	q := `SELECT ` + resolutionColumns + ` FROM resolutions WHERE id = $1`
	res, err := scanResolution(r.q.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrResolutionNotFound
		}
		return nil, fmt.Errorf("get resolution: %w", err)
	}
	return res, nil
}

// GetActiveByCompany devuelve la resolución activa de la empresa. La
// activación desactiva las demás, así que hay a lo sumo una; el ORDER BY es
// solo un cinturón por si los datos vienen de fuera.
func (r *ResolutionRepo) GetActiveByCompany(ctx context.Context, companyID string) (*entity.Resolution, error) {
	q := `SELECT ` + resolutionColumns + `
		FROM resolutions
		WHERE company_id = $1 AND is_active = true
		ORDER BY created_at DESC
		LIMIT 1`
	res, err := scanResolution(r.q.QueryRow(ctx, q, companyID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNoActiveResolution
		}
		return nil, fmt.Errorf("get active resolution: %w", err)
	}
	return res, nil
}

// GetForUpdate re-lee la fila con bloqueo exclusivo. El lock se sostiene hasta
// el commit o rollback de la transacción que lo tomó: es el punto de
// serialización de la numeración.
func (r *ResolutionRepo) GetForUpdate(ctx context.Context, id string) (*entity.Resolution, error) {
	q := `SELECT ` + resolutionColumns + ` FROM resolutions WHERE id = $1 FOR UPDATE`
	res, err := scanResolution(r.q.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrResolutionNotFound
		}
		return nil, fmt.Errorf("lock resolution: %w", err)
	}
	return res, nil
}

func (r *ResolutionRepo) ListByCompany(ctx context.Context, companyID string) ([]*entity.Resolution, error) {
	q := `SELECT ` + resolutionColumns + `
		FROM resolutions WHERE company_id = $1 ORDER BY created_at DESC`
	rows, err := r.q.Query(ctx, q, companyID)
	if err != nil {
		return nil, fmt.Errorf("list resolutions: %w", err)
	}
	defer rows.Close()
	var list []*entity.Resolution
	for rows.Next() {
		res, err := scanResolution(rows)
		if err != nil {
			return nil, fmt.Errorf("scan resolution: %w", err)
		}
		list = append(list, res)
	}
	return list, rows.Err()
}

func (r *ResolutionRepo) Update(ctx context.Context, res *entity.Resolution) error {
	const q = `
		UPDATE resolutions
		SET resolution_number = $2, resolution_date = $3, prefix = $4,
		    from_number = $5, to_number = $6, current_number = $7,
		    technical_key = $8, valid_from = $9, valid_to = $10,
		    is_active = $11, updated_at = now()
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, q,
		res.ID, res.ResolutionNumber, res.ResolutionDate, res.Prefix,
		res.FromNumber, res.ToNumber, res.CurrentNumber, res.TechnicalKey,
		res.ValidFrom, res.ValidTo, res.IsActive,
	)
	if err != nil {
		return fmt.Errorf("update resolution: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrResolutionNotFound
	}
	return nil
}

func (r *ResolutionRepo) UpdateCurrentNumber(ctx context.Context, id string, currentNumber int64) error {
	const q = `UPDATE resolutions SET current_number = $2, updated_at = now() WHERE id = $1`
	tag, err := r.q.Exec(ctx, q, id, currentNumber)
	if err != nil {
		return fmt.Errorf("update current_number: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrResolutionNotFound
	}
	return nil
}

func (r *ResolutionRepo) DeactivateByCompany(ctx context.Context, companyID string) error {
	const q = `UPDATE resolutions SET is_active = false, updated_at = now() WHERE company_id = $1 AND is_active = true`
	if _, err := r.q.Exec(ctx, q, companyID); err != nil {
		return fmt.Errorf("deactivate resolutions: %w", err)
	}
	return nil
}

func scanResolution(row pgx.Row) (*entity.Resolution, error) {
	var res entity.Resolution
	err := row.Scan(
		&res.ID, &res.CompanyID, &res.ResolutionNumber, &res.ResolutionDate, &res.Prefix,
		&res.FromNumber, &res.ToNumber, &res.CurrentNumber, &res.TechnicalKey,
		&res.ValidFrom, &res.ValidTo, &res.IsActive, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}
