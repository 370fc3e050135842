package billing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jfacosta/facturapos-api/internal/application/billing"
	"github.com/jfacosta/facturapos-api/internal/application/dto"
	"github.com/jfacosta/facturapos-api/internal/domain"
)

func newCustomerUseCase(s *memStore) *billing.CustomerUseCase {
	return billing.NewCustomerUseCase(s.repos().Customers)
}

func TestCreateCustomer_NITValido(t *testing.T) {
	s := newMemStore()
	companyID, _, _ := seedBilling(s)
	uc := newCustomerUseCase(s)

	out, err := uc.Create(context.Background(), companyID, dto.CreateCustomerRequest{
		DocumentType:   "NIT",
		DocumentNumber: "800197268",
		DV:             "4",
		BusinessName:   "Distribuciones El Dorado S.A.",
		Email:          "compras@eldorado.co",
		Address:        "Cl 72 # 10-34",
		City:           "Bogotá",
	})
	require.NoError(t, err)
	assert.Equal(t, "Distribuciones El Dorado S.A.", out.DisplayName)
	assert.Equal(t, "CO", s.customers[out.ID].Country,
		"el país se fija en CO sin importar la entrada")
}

func TestCreateCustomer_NITConDVErrado(t *testing.T) {
	s := newMemStore()
	companyID, _, _ := seedBilling(s)
	uc := newCustomerUseCase(s)

	_, err := uc.Create(context.Background(), companyID, dto.CreateCustomerRequest{
		DocumentType:   "NIT",
		DocumentNumber: "800197268",
		DV:             "9", // el correcto es 4
		BusinessName:   "Distribuciones El Dorado S.A.",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreateCustomer_NITSinRazonSocial(t *testing.T) {
	s := newMemStore()
	companyID, _, _ := seedBilling(s)
	uc := newCustomerUseCase(s)

	_, err := uc.Create(context.Background(), companyID, dto.CreateCustomerRequest{
		DocumentType:   "NIT",
		DocumentNumber: "800197268",
		DV:             "4",
		FirstName:      "Pedro",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreateCustomer_TipoDocumentoDesconocido(t *testing.T) {
	s := newMemStore()
	companyID, _, _ := seedBilling(s)
	uc := newCustomerUseCase(s)

	_, err := uc.Create(context.Background(), companyID, dto.CreateCustomerRequest{
		DocumentType:   "DNI",
		DocumentNumber: "12345678",
		FirstName:      "Ana",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreateCustomer_DocumentoDuplicado(t *testing.T) {
	s := newMemStore()
	companyID, _, _ := seedBilling(s)
	uc := newCustomerUseCase(s)

	// La siembra ya registra la CC 1030612345.
	_, err := uc.Create(context.Background(), companyID, dto.CreateCustomerRequest{
		DocumentType:   "CC",
		DocumentNumber: "1030612345",
		FirstName:      "Laura",
		LastName:       "Pérez",
	})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestUpdateCustomer_ActualizacionParcial(t *testing.T) {
	s := newMemStore()
	companyID, customerID, _ := seedBilling(s)
	uc := newCustomerUseCase(s)

	before, err := uc.Get(context.Background(), companyID, customerID)
	require.NoError(t, err)

	out, err := uc.Update(context.Background(), companyID, customerID, dto.UpdateCustomerRequest{
		Phone: "3015557788",
	})
	require.NoError(t, err)
	assert.Equal(t, "3015557788", out.Phone)
	assert.Equal(t, before.Email, out.Email, "los campos no enviados no se tocan")
	assert.Equal(t, before.DocumentNumber, out.DocumentNumber)
}

func TestCustomer_OtraEmpresaEsForbidden(t *testing.T) {
	s := newMemStore()
	_, customerID, _ := seedBilling(s)
	uc := newCustomerUseCase(s)

	_, err := uc.Get(context.Background(), "otra-empresa", customerID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	err = uc.Delete(context.Background(), "otra-empresa", customerID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestDeleteCustomer_Elimina(t *testing.T) {
	s := newMemStore()
	companyID, customerID, _ := seedBilling(s)
	uc := newCustomerUseCase(s)

	require.NoError(t, uc.Delete(context.Background(), companyID, customerID))

	_, err := uc.Get(context.Background(), companyID, customerID)
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)
}
