package billing

import (
	"context"

	"github.com/jfacosta/facturapos-api/internal/application/dto"
	"github.com/jfacosta/facturapos-api/internal/domain"
	domaindian "github.com/jfacosta/facturapos-api/internal/domain/dian"
	"github.com/jfacosta/facturapos-api/internal/domain/repository"
	"github.com/jfacosta/facturapos-api/pkg/logger"
)

// ValidateInvoiceUseCase carga la factura con sus entidades relacionadas y
// corre el validador de cumplimiento. Solo lecturas: se puede invocar antes de
// transmitir, después, o cuantas veces haga falta.
type ValidateInvoiceUseCase struct {
	invoices    repository.InvoiceRepository
	companies   repository.CompanyRepository
	customers   repository.CustomerRepository
	resolutions repository.ResolutionRepository
	validator   *domaindian.Validator
	log         *logger.Logger
}

// NewValidateInvoiceUseCase construye el caso de uso.
func NewValidateInvoiceUseCase(
	invoices repository.InvoiceRepository,
	companies repository.CompanyRepository,
	customers repository.CustomerRepository,
	resolutions repository.ResolutionRepository,
	validator *domaindian.Validator,
	log *logger.Logger,
) *ValidateInvoiceUseCase {
	return &ValidateInvoiceUseCase{
		invoices:    invoices,
		companies:   companies,
		customers:   customers,
		resolutions: resolutions,
		validator:   validator,
		log:         log,
	}
}

// Validate arma el insumo y ejecuta todas las verificaciones. Las entidades
// relacionadas que no existan se reportan como errores de validación, no como
// fallo del caso de uso.
func (uc *ValidateInvoiceUseCase) Validate(ctx context.Context, companyID, invoiceID string) (*dto.ValidationReportResponse, error) {
	inv, err := uc.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}

	in := &domaindian.ValidationInput{Invoice: inv}
	if items, err := uc.invoices.GetItemsByInvoiceID(ctx, invoiceID); err == nil {
		in.Items = items
	}
	if company, err := uc.companies.GetByID(ctx, inv.CompanyID); err == nil {
		in.Company = company
	}
	if customer, err := uc.customers.GetByID(ctx, inv.CustomerID); err == nil {
		in.Customer = customer
	}
	if resolution, err := uc.resolutions.GetByID(ctx, inv.ResolutionID); err == nil {
		in.Resolution = resolution
	}

	result := uc.validator.Validate(in)
	if !result.Valid {
		uc.log.Warn().
			Str("invoice_id", invoiceID).
			Int("errors", len(result.Errors)).
			Msg("factura no pasa validación DIAN")
	}
	return &dto.ValidationReportResponse{
		InvoiceID: invoiceID,
		Valid:     result.Valid,
		Errors:    result.Errors,
		Warnings:  result.Warnings,
	}, nil
}
