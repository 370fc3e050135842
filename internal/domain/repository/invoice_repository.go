package repository

import (
	"context"
	"time"

	"github.com/jfacosta/facturapos-api/internal/domain/entity"
)

// InvoiceFilter acota el listado de facturas.
type InvoiceFilter struct {
	Status     string
	CustomerID string
	FromDate   *time.Time
	ToDate     *time.Time
	Limit      int
	Offset     int
}

// InvoiceRepository define el puerto de persistencia para facturas y sus líneas.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice) error
	CreateItem(ctx context.Context, item *entity.InvoiceItem) error

	// ExistsByNumber verifica si ya hay una factura con (empresa, prefijo, número).
	// Es el chequeo defensivo previo al insert; el índice único de la tabla
	// es la garantía final.
	ExistsByNumber(ctx context.Context, companyID, prefix string, number int64) (bool, error)

	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
	GetItemsByInvoiceID(ctx context.Context, invoiceID string) ([]*entity.InvoiceItem, error)
	ListByCompany(ctx context.Context, companyID string, filter InvoiceFilter) ([]*entity.Invoice, error)

	// Update actualiza los campos mutables: status, cufe, qr_data, xml_content,
	// dian_response, dian_sent_at, notes.
	Update(ctx context.Context, invoice *entity.Invoice) error
}
