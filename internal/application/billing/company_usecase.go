package billing

import (
	"context"
	"fmt"

	"github.com/jfacosta/facturapos-api/internal/application/dto"
	"github.com/jfacosta/facturapos-api/internal/domain"
	"github.com/jfacosta/facturapos-api/internal/domain/entity"
	"github.com/jfacosta/facturapos-api/internal/domain/repository"
	pkgdian "github.com/jfacosta/facturapos-api/pkg/dian"
)

// CompanyUseCase casos de uso de la empresa emisora.
type CompanyUseCase struct {
	companies repository.CompanyRepository
}

// NewCompanyUseCase construye el caso de uso.
func NewCompanyUseCase(companies repository.CompanyRepository) *CompanyUseCase {
	return &CompanyUseCase{companies: companies}
}

// Create registra la empresa. El DV lo declara el usuario y se verifica contra
// el algoritmo módulo 11: un DV equivocado aquí invalidaría todas las facturas.
func (uc *CompanyUseCase) Create(ctx context.Context, in dto.CreateCompanyRequest) (*dto.CompanyResponse, error) {
	if in.BusinessName == "" || in.NIT == "" || in.DV == "" {
		return nil, fmt.Errorf("%w: razón social, NIT y DV son obligatorios", domain.ErrInvalidInput)
	}
	if _, err := pkgdian.ValidateDV(in.NIT, in.DV); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if existing, _ := uc.companies.GetByNIT(ctx, in.NIT); existing != nil {
		return nil, fmt.Errorf("%w: ya existe una empresa con NIT %s", domain.ErrDuplicate, in.NIT)
	}

	country := in.Country
	if country == "" {
		country = "CO"
	}
	company := &entity.Company{
		BusinessName: in.BusinessName,
		NIT:          in.NIT,
		DV:           in.DV,
		Address:      in.Address,
		City:         in.City,
		Department:   in.Department,
		Country:      country,
		Phone:        in.Phone,
		Email:        in.Email,
		TaxRegime:    in.TaxRegime,
	}
	if err := uc.companies.Create(ctx, company); err != nil {
		return nil, err
	}
	return toCompanyResponse(company), nil
}

// Get obtiene la empresa.
func (uc *CompanyUseCase) Get(ctx context.Context, id string) (*dto.CompanyResponse, error) {
	company, err := uc.companies.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toCompanyResponse(company), nil
}

// Update actualiza datos generales; NIT y DV son inmutables.
func (uc *CompanyUseCase) Update(ctx context.Context, id string, in dto.UpdateCompanyRequest) (*dto.CompanyResponse, error) {
	company, err := uc.companies.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	applyIfSet(&company.BusinessName, in.BusinessName)
	applyIfSet(&company.Address, in.Address)
	applyIfSet(&company.City, in.City)
	applyIfSet(&company.Department, in.Department)
	applyIfSet(&company.Phone, in.Phone)
	applyIfSet(&company.Email, in.Email)
	applyIfSet(&company.TaxRegime, in.TaxRegime)
	if err := uc.companies.Update(ctx, company); err != nil {
		return nil, err
	}
	return toCompanyResponse(company), nil
}

// UpdateDIANSettings configura los datos de integración: set de pruebas,
// software y certificado de firma.
func (uc *CompanyUseCase) UpdateDIANSettings(ctx context.Context, id string, in dto.UpdateDIANSettingsRequest) (*dto.CompanyResponse, error) {
	company, err := uc.companies.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	applyIfSet(&company.TestSetID, in.TestSetID)
	applyIfSet(&company.SoftwareID, in.SoftwareID)
	applyIfSet(&company.SoftwarePIN, in.SoftwarePIN)
	applyIfSet(&company.CertificatePath, in.CertificatePath)
	applyIfSet(&company.CertificatePassword, in.CertificatePassword)
	if err := uc.companies.Update(ctx, company); err != nil {
		return nil, err
	}
	return toCompanyResponse(company), nil
}

func toCompanyResponse(c *entity.Company) *dto.CompanyResponse {
	return &dto.CompanyResponse{
		ID:           c.ID,
		BusinessName: c.BusinessName,
		NIT:          c.NIT,
		DV:           c.DV,
		Address:      c.Address,
		City:         c.City,
		Department:   c.Department,
		Country:      c.Country,
		Phone:        c.Phone,
		Email:        c.Email,
		TaxRegime:    c.TaxRegime,
		TestSetID:    c.TestSetID,
		SoftwareID:   c.SoftwareID,
		HasCert:      c.CertificatePath != "",
	}
}
