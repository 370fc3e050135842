package billing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jfacosta/facturapos-api/internal/application/billing"
	"github.com/jfacosta/facturapos-api/internal/domain"
	"github.com/jfacosta/facturapos-api/internal/domain/entity"
)

func TestAllocateNext_ConsecutivosSecuenciales(t *testing.T) {
	store := newMemStore()
	companyID, _, resolutionID := seedBilling(store)
	seq := billing.NewResolutionSequencer()
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		res, number, fullNumber, err := seq.AllocateNext(ctx, store.repos(), companyID)
		require.NoError(t, err)
		assert.Equal(t, i, number)
		assert.Equal(t, billing.FormatFullNumber("SETP", i), fullNumber)
		assert.Equal(t, i, res.CurrentNumber)
	}

	stored, err := store.repos().Resolutions.GetByID(ctx, resolutionID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stored.CurrentNumber, "el watermark debe avanzar exactamente en 1 por asignación")
}

func TestAllocateNext_SinResolucionActiva(t *testing.T) {
	store := newMemStore()
	companyID, _, resolutionID := seedBilling(store)
	ctx := context.Background()
	require.NoError(t, store.repos().Resolutions.DeactivateByCompany(ctx, companyID))

	_, _, _, err := billing.NewResolutionSequencer().AllocateNext(ctx, store.repos(), companyID)
	assert.ErrorIs(t, err, domain.ErrNoActiveResolution)

	stored, _ := store.repos().Resolutions.GetByID(ctx, resolutionID)
	assert.Equal(t, int64(0), stored.CurrentNumber)
}

func TestAllocateNext_ResolucionAgotada(t *testing.T) {
	store := newMemStore()
	companyID, _, resolutionID := seedBilling(store)
	ctx := context.Background()

	// Dejar la resolución en el tope: current_number == to_number.
	res, err := store.repos().Resolutions.GetByID(ctx, resolutionID)
	require.NoError(t, err)
	require.NoError(t, store.repos().Resolutions.UpdateCurrentNumber(ctx, res.ID, res.ToNumber))

	_, _, _, err = billing.NewResolutionSequencer().AllocateNext(ctx, store.repos(), companyID)
	assert.ErrorIs(t, err, domain.ErrResolutionExhausted)

	stored, _ := store.repos().Resolutions.GetByID(ctx, resolutionID)
	assert.Equal(t, res.ToNumber, stored.CurrentNumber, "el agotamiento no debe mutar el consecutivo")
}

func TestAllocateNext_DuplicadoDefensivo(t *testing.T) {
	store := newMemStore()
	companyID, customerID, resolutionID := seedBilling(store)
	ctx := context.Background()

	// Simular un watermark corrupto: ya existe la factura SETP000001 pero
	// current_number sigue en 0.
	require.NoError(t, store.repos().Invoices.Create(ctx, &entity.Invoice{
		CompanyID:    companyID,
		ResolutionID: resolutionID,
		CustomerID:   customerID,
		Prefix:       "SETP",
		Number:       1,
		FullNumber:   "SETP000001",
		Status:       entity.InvoiceStatusDraft,
	}))

	_, _, _, err := billing.NewResolutionSequencer().AllocateNext(ctx, store.repos(), companyID)
	assert.ErrorIs(t, err, domain.ErrDuplicateInvoiceNumber)
}

func TestFormatFullNumber(t *testing.T) {
	assert.Equal(t, "SETP000001", billing.FormatFullNumber("SETP", 1))
	assert.Equal(t, "FE990123", billing.FormatFullNumber("FE", 990123))
	assert.Equal(t, "SETP1234567", billing.FormatFullNumber("SETP", 1234567), "más de 6 dígitos no se trunca")
	assert.Equal(t, "000042", billing.FormatFullNumber("", 42))
}
