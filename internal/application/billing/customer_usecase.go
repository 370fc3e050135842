package billing

import (
	"context"
	"fmt"
	"strings"

	"github.com/jfacosta/facturapos-api/internal/application/dto"
	"github.com/jfacosta/facturapos-api/internal/domain"
	"github.com/jfacosta/facturapos-api/internal/domain/entity"
	"github.com/jfacosta/facturapos-api/internal/domain/repository"
	pkgdian "github.com/jfacosta/facturapos-api/pkg/dian"
)

// CustomerUseCase casos de uso de clientes (adquirientes).
type CustomerUseCase struct {
	customers repository.CustomerRepository
}

// NewCustomerUseCase construye el caso de uso.
func NewCustomerUseCase(customers repository.CustomerRepository) *CustomerUseCase {
	return &CustomerUseCase{customers: customers}
}

// Create registra un cliente. Para NIT el DV es obligatorio y se valida con el
// algoritmo módulo 11; para los demás tipos de documento el DV sobra.
func (uc *CustomerUseCase) Create(ctx context.Context, companyID string, in dto.CreateCustomerRequest) (*dto.CustomerResponse, error) {
	if !pkgdian.ValidDocumentTypes[in.DocumentType] {
		return nil, fmt.Errorf("%w: tipo de documento no reconocido: %q", domain.ErrInvalidInput, in.DocumentType)
	}
	if strings.TrimSpace(in.DocumentNumber) == "" {
		return nil, fmt.Errorf("%w: número de documento obligatorio", domain.ErrInvalidInput)
	}
	if in.DocumentType == entity.DocumentTypeNIT {
		if in.DV == "" {
			return nil, fmt.Errorf("%w: el NIT requiere dígito de verificación", domain.ErrInvalidInput)
		}
		if _, err := pkgdian.ValidateDV(in.DocumentNumber, in.DV); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
		if in.BusinessName == "" {
			return nil, fmt.Errorf("%w: persona jurídica requiere razón social", domain.ErrInvalidInput)
		}
	} else if in.FirstName == "" && in.BusinessName == "" {
		return nil, fmt.Errorf("%w: se requiere nombre o razón social", domain.ErrInvalidInput)
	}

	if existing, _ := uc.customers.GetByDocument(ctx, companyID, in.DocumentType, in.DocumentNumber); existing != nil {
		return nil, fmt.Errorf("%w: ya existe un cliente con ese documento", domain.ErrDuplicate)
	}

	customer := &entity.Customer{
		CompanyID:      companyID,
		DocumentType:   in.DocumentType,
		DocumentNumber: in.DocumentNumber,
		DV:             in.DV,
		BusinessName:   in.BusinessName,
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Email:          in.Email,
		Phone:          in.Phone,
		Address:        in.Address,
		City:           in.City,
		Department:     in.Department,
		Country:        "CO",
		TaxRegime:      in.TaxRegime,
	}
	if err := uc.customers.Create(ctx, customer); err != nil {
		return nil, err
	}
	return toCustomerResponse(customer), nil
}

// Get obtiene un cliente de la empresa.
func (uc *CustomerUseCase) Get(ctx context.Context, companyID, id string) (*dto.CustomerResponse, error) {
	customer, err := uc.customers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if customer.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return toCustomerResponse(customer), nil
}

// Update actualiza los datos de contacto; el documento es inmutable.
func (uc *CustomerUseCase) Update(ctx context.Context, companyID, id string, in dto.UpdateCustomerRequest) (*dto.CustomerResponse, error) {
	customer, err := uc.customers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if customer.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	applyIfSet(&customer.BusinessName, in.BusinessName)
	applyIfSet(&customer.FirstName, in.FirstName)
	applyIfSet(&customer.LastName, in.LastName)
	applyIfSet(&customer.Email, in.Email)
	applyIfSet(&customer.Phone, in.Phone)
	applyIfSet(&customer.Address, in.Address)
	applyIfSet(&customer.City, in.City)
	applyIfSet(&customer.Department, in.Department)
	applyIfSet(&customer.TaxRegime, in.TaxRegime)
	if err := uc.customers.Update(ctx, customer); err != nil {
		return nil, err
	}
	return toCustomerResponse(customer), nil
}

// List lista los clientes de la empresa.
func (uc *CustomerUseCase) List(ctx context.Context, companyID string, limit, offset int) ([]*dto.CustomerResponse, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	list, err := uc.customers.ListByCompany(ctx, companyID, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.CustomerResponse, 0, len(list))
	for _, c := range list {
		out = append(out, toCustomerResponse(c))
	}
	return out, nil
}

// Delete elimina un cliente. Las facturas ya emitidas conservan sus datos.
func (uc *CustomerUseCase) Delete(ctx context.Context, companyID, id string) error {
	customer, err := uc.customers.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if customer.CompanyID != companyID {
		return domain.ErrForbidden
	}
	return uc.customers.Delete(ctx, id)
}

func applyIfSet(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func toCustomerResponse(c *entity.Customer) *dto.CustomerResponse {
	return &dto.CustomerResponse{
		ID:             c.ID,
		CompanyID:      c.CompanyID,
		DocumentType:   c.DocumentType,
		DocumentNumber: c.DocumentNumber,
		DV:             c.DV,
		DisplayName:    c.DisplayName(),
		BusinessName:   c.BusinessName,
		FirstName:      c.FirstName,
		LastName:       c.LastName,
		Email:          c.Email,
		Phone:          c.Phone,
		Address:        c.Address,
		City:           c.City,
		Department:     c.Department,
		TaxRegime:      c.TaxRegime,
	}
}
