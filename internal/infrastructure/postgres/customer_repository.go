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

var _ repository.CustomerRepository = (*CustomerRepo)(nil)

// CustomerRepo implementa CustomerRepository sobre PostgreSQL.
type CustomerRepo struct {
	q Querier
}

func NewCustomerRepository(q Querier) *CustomerRepo {
	return &CustomerRepo{q: q}
}

const customerColumns = `
	id, company_id, document_type, document_number, COALESCE(dv, ''),
	COALESCE(business_name, ''), COALESCE(first_name, ''), COALESCE(last_name, ''),
	COALESCE(email, ''), COALESCE(phone, ''), COALESCE(address, ''),
	COALESCE(city, ''), COALESCE(department, ''), COALESCE(country, ''),
	COALESCE(tax_regime, ''), created_at, updated_at`

func (r *CustomerRepo) Create(ctx context.Context, customer *entity.Customer) error {
	if customer.ID == "" {
		customer.ID = uuid.New().String()
	}
	const q = `
		INSERT INTO customers
			(id, company_id, document_type, document_number, dv,
			 business_name, first_name, last_name, email, phone, address,
			 city, department, country, tax_regime, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, now(), now())`
	_, err := r.q.Exec(ctx, q,
		customer.ID, customer.CompanyID, customer.DocumentType, customer.DocumentNumber,
		nullIfEmpty(customer.DV), nullIfEmpty(customer.BusinessName),
		nullIfEmpty(customer.FirstName), nullIfEmpty(customer.LastName),
		nullIfEmpty(customer.Email), nullIfEmpty(customer.Phone), nullIfEmpty(customer.Address),
		nullIfEmpty(customer.City), nullIfEmpty(customer.Department), nullIfEmpty(customer.Country),
		nullIfEmpty(customer.TaxRegime),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: documento %s %s", domain.ErrDuplicate, customer.DocumentType, customer.DocumentNumber)
		}
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

func (r *CustomerRepo) GetByID(ctx context.Context, id string) (*entity.Customer, error) {
	q := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	c, err := scanCustomer(r.q.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

func (r *CustomerRepo) GetByDocument(ctx context.Context, companyID, documentType, documentNumber string) (*entity.Customer, error) {
	q := `SELECT ` + customerColumns + `
		FROM customers WHERE company_id = $1 AND document_type = $2 AND document_number = $3`
	c, err := scanCustomer(r.q.QueryRow(ctx, q, companyID, documentType, documentNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("get customer by document: %w", err)
	}
	return c, nil
}

func (r *CustomerRepo) Update(ctx context.Context, customer *entity.Customer) error {
	const q = `
		UPDATE customers
		SET document_type = $2, document_number = $3, dv = $4,
		    business_name = $5, first_name = $6, last_name = $7,
		    email = $8, phone = $9, address = $10, city = $11,
		    department = $12, country = $13, tax_regime = $14, updated_at = now()
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, q,
		customer.ID, customer.DocumentType, customer.DocumentNumber,
		nullIfEmpty(customer.DV), nullIfEmpty(customer.BusinessName),
		nullIfEmpty(customer.FirstName), nullIfEmpty(customer.LastName),
		nullIfEmpty(customer.Email), nullIfEmpty(customer.Phone), nullIfEmpty(customer.Address),
		nullIfEmpty(customer.City), nullIfEmpty(customer.Department), nullIfEmpty(customer.Country),
		nullIfEmpty(customer.TaxRegime),
	)
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCustomerNotFound
	}
	return nil
}

func (r *CustomerRepo) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.Customer, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `SELECT ` + customerColumns + `
		FROM customers WHERE company_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, q, companyID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()
	var list []*entity.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func (r *CustomerRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCustomerNotFound
	}
	return nil
}

func scanCustomer(row pgx.Row) (*entity.Customer, error) {
	var c entity.Customer
	err := row.Scan(
		&c.ID, &c.CompanyID, &c.DocumentType, &c.DocumentNumber, &c.DV,
		&c.BusinessName, &c.FirstName, &c.LastName,
		&c.Email, &c.Phone, &c.Address,
		&c.City, &c.Department, &c.Country,
		&c.TaxRegime, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
