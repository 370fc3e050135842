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

var _ repository.CompanyRepository = (*CompanyRepo)(nil)

// CompanyRepo implementa CompanyRepository sobre PostgreSQL.
type CompanyRepo struct {
	q Querier
}

func NewCompanyRepository(q Querier) *CompanyRepo {
	return &CompanyRepo{q: q}
}

const companyColumns = `
	id, business_name, nit, dv, COALESCE(address, ''), COALESCE(city, ''),
	COALESCE(department, ''), COALESCE(country, ''), COALESCE(phone, ''),
	COALESCE(email, ''), COALESCE(tax_regime, ''), COALESCE(test_set_id, ''),
	COALESCE(software_id, ''), COALESCE(software_pin, ''),
	COALESCE(certificate_path, ''), COALESCE(certificate_password, ''),
	created_at, updated_at`

func (r *CompanyRepo) Create(ctx context.Context, company *entity.Company) error {
	if company.ID == "" {
		company.ID = uuid.New().String()
	}
	const q = `
		INSERT INTO companies
			(id, business_name, nit, dv, address, city, department, country, phone, email,
			 tax_regime, test_set_id, software_id, software_pin,
			 certificate_path, certificate_password, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, now(), now())`
	_, err := r.q.Exec(ctx, q,
		company.ID, company.BusinessName, company.NIT, company.DV,
		nullIfEmpty(company.Address), nullIfEmpty(company.City),
		nullIfEmpty(company.Department), nullIfEmpty(company.Country),
		nullIfEmpty(company.Phone), nullIfEmpty(company.Email),
		nullIfEmpty(company.TaxRegime), nullIfEmpty(company.TestSetID),
		nullIfEmpty(company.SoftwareID), nullIfEmpty(company.SoftwarePIN),
		nullIfEmpty(company.CertificatePath), nullIfEmpty(company.CertificatePassword),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: NIT %s", domain.ErrDuplicate, company.NIT)
		}
		return fmt.Errorf("insert company: %w", err)
	}
	return nil
}

func (r *CompanyRepo) GetByID(ctx context.Context, id string) (*entity.Company, error) {
	q := `SELECT ` + companyColumns + ` FROM companies WHERE id = $1`
	c, err := scanCompany(r.q.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCompanyNotFound
		}
		return nil, fmt.Errorf("get company: %w", err)
	}
	return c, nil
}

func (r *CompanyRepo) GetByNIT(ctx context.Context, nit string) (*entity.Company, error) {
	q := `SELECT ` + companyColumns + ` FROM companies WHERE nit = $1`
	c, err := scanCompany(r.q.QueryRow(ctx, q, nit))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCompanyNotFound
		}
		return nil, fmt.Errorf("get company by nit: %w", err)
	}
	return c, nil
}

func (r *CompanyRepo) Update(ctx context.Context, company *entity.Company) error {
	const q = `
		UPDATE companies
		SET business_name = $2, nit = $3, dv = $4, address = $5, city = $6,
		    department = $7, country = $8, phone = $9, email = $10,
		    tax_regime = $11, test_set_id = $12, software_id = $13, software_pin = $14,
		    certificate_path = $15, certificate_password = $16, updated_at = now()
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, q,
		company.ID, company.BusinessName, company.NIT, company.DV,
		nullIfEmpty(company.Address), nullIfEmpty(company.City),
		nullIfEmpty(company.Department), nullIfEmpty(company.Country),
		nullIfEmpty(company.Phone), nullIfEmpty(company.Email),
		nullIfEmpty(company.TaxRegime), nullIfEmpty(company.TestSetID),
		nullIfEmpty(company.SoftwareID), nullIfEmpty(company.SoftwarePIN),
		nullIfEmpty(company.CertificatePath), nullIfEmpty(company.CertificatePassword),
	)
	if err != nil {
		return fmt.Errorf("update company: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCompanyNotFound
	}
	return nil
}

func (r *CompanyRepo) List(ctx context.Context, limit, offset int) ([]*entity.Company, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `SELECT ` + companyColumns + ` FROM companies ORDER BY business_name LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()
	var list []*entity.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func scanCompany(row pgx.Row) (*entity.Company, error) {
	var c entity.Company
	err := row.Scan(
		&c.ID, &c.BusinessName, &c.NIT, &c.DV, &c.Address, &c.City,
		&c.Department, &c.Country, &c.Phone, &c.Email, &c.TaxRegime, &c.TestSetID,
		&c.SoftwareID, &c.SoftwarePIN, &c.CertificatePath, &c.CertificatePassword,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
