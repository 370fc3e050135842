package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jfacosta/facturapos-api/internal/domain"
	"github.com/jfacosta/facturapos-api/internal/domain/entity"
	"github.com/jfacosta/facturapos-api/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implementa InvoiceRepository sobre PostgreSQL (pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

func (r *InvoiceRepo) Create(ctx context.Context, invoice *entity.Invoice) error {
	if invoice.ID == "" {
		invoice.ID = uuid.New().String()
	}
	const q = `
		INSERT INTO invoices
			(id, company_id, resolution_id, customer_id, prefix, number, full_number,
			 issue_date, issue_time, due_date, subtotal, tax_total, total, status,
			 cufe, qr_data, xml_content, dian_response, dian_sent_at,
			 payment_method, payment_means, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, now(), now())`
	_, err := r.q.Exec(ctx, q,
		invoice.ID, invoice.CompanyID, invoice.ResolutionID, invoice.CustomerID,
		invoice.Prefix, invoice.Number, invoice.FullNumber,
		invoice.IssueDate, invoice.IssueTime, nullIfEmpty(invoice.DueDate),
		invoice.Subtotal, invoice.TaxTotal, invoice.Total, invoice.Status,
		nullIfEmpty(invoice.CUFE), nullIfEmpty(invoice.QRData),
		nullIfEmpty(invoice.XMLContent), nullIfEmpty(invoice.DIANResponse), invoice.DIANSentAt,
		invoice.PaymentMethod, nullIfEmpty(invoice.PaymentMeans), nullIfEmpty(invoice.Notes),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateInvoiceNumber, invoice.FullNumber)
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

func (r *InvoiceRepo) CreateItem(ctx context.Context, item *entity.InvoiceItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	const q = `
		INSERT INTO invoice_items
			(id, invoice_id, line_number, code, name, description,
			 quantity, unit_measure, unit_price, iva_percentage, iva_amount, subtotal, total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, q,
		item.ID, item.InvoiceID, item.LineNumber,
		nullIfEmpty(item.Code), item.Name, nullIfEmpty(item.Description),
		item.Quantity, item.UnitMeasure, item.UnitPrice,
		item.IvaPercentage, item.IvaAmount, item.Subtotal, item.Total,
	)
	if err != nil {
		return fmt.Errorf("insert invoice item: %w", err)
	}
	return nil
}

func (r *InvoiceRepo) ExistsByNumber(ctx context.Context, companyID, prefix string, number int64) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM invoices WHERE company_id = $1 AND prefix = $2 AND number = $3)`
	var exists bool
	if err := r.q.QueryRow(ctx, q, companyID, prefix, number).Scan(&exists); err != nil {
		return false, fmt.Errorf("check invoice number: %w", err)
	}
	return exists, nil
}

const invoiceColumns = `
	id, company_id, resolution_id, customer_id, prefix, number, full_number,
	issue_date, issue_time, COALESCE(due_date, ''), subtotal, tax_total, total, status,
	COALESCE(cufe, ''), COALESCE(qr_data, ''), COALESCE(xml_content, ''),
	COALESCE(dian_response, ''), dian_sent_at,
	payment_method, COALESCE(payment_means, ''), COALESCE(notes, ''),
	created_at, updated_at`

func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	q := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`
	inv, err := scanInvoice(r.q.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

func (r *InvoiceRepo) GetItemsByInvoiceID(ctx context.Context, invoiceID string) ([]*entity.InvoiceItem, error) {
	const q = `
		SELECT id, invoice_id, line_number, COALESCE(code, ''), name, COALESCE(description, ''),
		       quantity, unit_measure, unit_price, iva_percentage, iva_amount, subtotal, total
		FROM invoice_items WHERE invoice_id = $1 ORDER BY line_number`
	rows, err := r.q.Query(ctx, q, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list invoice items: %w", err)
	}
	defer rows.Close()
	var items []*entity.InvoiceItem
	for rows.Next() {
		var it entity.InvoiceItem
		if err := rows.Scan(
			&it.ID, &it.InvoiceID, &it.LineNumber, &it.Code, &it.Name, &it.Description,
			&it.Quantity, &it.UnitMeasure, &it.UnitPrice,
			&it.IvaPercentage, &it.IvaAmount, &it.Subtotal, &it.Total,
		); err != nil {
			return nil, fmt.Errorf("scan invoice item: %w", err)
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

func (r *InvoiceRepo) ListByCompany(ctx context.Context, companyID string, filter repository.InvoiceFilter) ([]*entity.Invoice, error) {
	q := `SELECT ` + invoiceColumns + ` FROM invoices WHERE company_id = $1`
	args := []any{companyID}
	if filter.Status != "" {
		args = append(args, filter.Status)
		q += ` AND status = $` + strconv.Itoa(len(args))
	}
	if filter.CustomerID != "" {
		args = append(args, filter.CustomerID)
		q += ` AND customer_id = $` + strconv.Itoa(len(args))
	}
	if filter.FromDate != nil {
		args = append(args, filter.FromDate.Format("2006-01-02"))
		q += ` AND issue_date >= $` + strconv.Itoa(len(args))
	}
	if filter.ToDate != nil {
		args = append(args, filter.ToDate.Format("2006-01-02"))
		q += ` AND issue_date <= $` + strconv.Itoa(len(args))
	}
	q += ` ORDER BY created_at DESC`
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	q += ` LIMIT $` + strconv.Itoa(len(args))
	args = append(args, filter.Offset)
	q += ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.q.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()
	var list []*entity.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		list = append(list, inv)
	}
	return list, rows.Err()
}

func (r *InvoiceRepo) Update(ctx context.Context, invoice *entity.Invoice) error {
	const q = `
		UPDATE invoices
		SET status        = $2,
		    cufe          = COALESCE($3, cufe),
		    qr_data       = COALESCE($4, qr_data),
		    xml_content   = COALESCE($5, xml_content),
		    dian_response = COALESCE($6, dian_response),
		    dian_sent_at  = COALESCE($7, dian_sent_at),
		    notes         = COALESCE($8, notes),
		    updated_at    = now()
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, q,
		invoice.ID, invoice.Status,
		nullIfEmpty(invoice.CUFE), nullIfEmpty(invoice.QRData),
		nullIfEmpty(invoice.XMLContent), nullIfEmpty(invoice.DIANResponse),
		invoice.DIANSentAt, nullIfEmpty(invoice.Notes),
	)
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvoiceNotFound
	}
	return nil
}

func scanInvoice(row pgx.Row) (*entity.Invoice, error) {
	var inv entity.Invoice
	err := row.Scan(
		&inv.ID, &inv.CompanyID, &inv.ResolutionID, &inv.CustomerID,
		&inv.Prefix, &inv.Number, &inv.FullNumber,
		&inv.IssueDate, &inv.IssueTime, &inv.DueDate,
		&inv.Subtotal, &inv.TaxTotal, &inv.Total, &inv.Status,
		&inv.CUFE, &inv.QRData, &inv.XMLContent,
		&inv.DIANResponse, &inv.DIANSentAt,
		&inv.PaymentMethod, &inv.PaymentMeans, &inv.Notes,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}
