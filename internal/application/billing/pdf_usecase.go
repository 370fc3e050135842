package billing

import (
	"context"
	"fmt"

	"github.com/jfacosta/facturapos-api/internal/domain"
	"github.com/jfacosta/facturapos-api/internal/domain/entity"
	"github.com/jfacosta/facturapos-api/internal/domain/repository"
)

// PDFUseCase genera la representación gráfica (PDF) de una factura electrónica.
// Solo se permite generar el PDF si la factura ya tiene CUFE (es decir, no está
// en borrador).
type PDFUseCase struct {
	invoiceRepo  repository.InvoiceRepository
	companyRepo  repository.CompanyRepository
	customerRepo repository.CustomerRepository
	generator    InvoicePDFGenerator
}

// NewPDFUseCase construye el caso de uso inyectando todas sus dependencias.
func NewPDFUseCase(
	invoiceRepo repository.InvoiceRepository,
	companyRepo repository.CompanyRepository,
	customerRepo repository.CustomerRepository,
	generator InvoicePDFGenerator,
) *PDFUseCase {
	return &PDFUseCase{
		invoiceRepo:  invoiceRepo,
		companyRepo:  companyRepo,
		customerRepo: customerRepo,
		generator:    generator,
	}
}

// DownloadInvoicePDF recupera todos los datos de la factura, verifica que ya
// tiene CUFE/QR (no está en borrador) y genera el PDF con la representación
// gráfica DIAN.
//
// Retorna:
//   - (pdfBytes, filename, nil)  si todo sale bien.
//   - domain.ErrNotFound         si la factura no existe.
//   - domain.ErrForbidden        si la factura no pertenece a la empresa del token.
//   - domain.ErrInvalidInput     si la factura está en borrador (aún sin CUFE).
func (uc *PDFUseCase) DownloadInvoicePDF(
	ctx context.Context,
	companyID, invoiceID string,
) (pdfBytes []byte, filename string, err error) {
	inv, err := uc.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener factura: %w", err)
	}
	if inv.CompanyID != companyID {
		return nil, "", domain.ErrForbidden
	}

	if inv.Status == entity.InvoiceStatusDraft || inv.CUFE == "" {
		return nil, "", fmt.Errorf("%w: la factura está en estado %s, transmítala antes de descargar el PDF",
			domain.ErrInvalidInput, inv.Status)
	}

	company, err := uc.companyRepo.GetByID(ctx, companyID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener empresa: %w", err)
	}

	customer, err := uc.customerRepo.GetByID(ctx, inv.CustomerID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener cliente: %w", err)
	}

	items, err := uc.invoiceRepo.GetItemsByInvoiceID(ctx, invoiceID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener líneas: %w", err)
	}

	pdfBytes, err = uc.generator.GenerateInvoicePDF(ctx, inv, company, customer, items)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generación fallida: %w", err)
	}

	filename = fmt.Sprintf("factura_%s.pdf", inv.FullNumber)
	return pdfBytes, filename, nil
}
