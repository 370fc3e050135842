package billing_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jfacosta/facturapos-api/internal/application/billing"
	"github.com/jfacosta/facturapos-api/internal/application/dto"
	"github.com/jfacosta/facturapos-api/internal/domain"
	"github.com/jfacosta/facturapos-api/internal/domain/entity"
	"github.com/jfacosta/facturapos-api/internal/domain/repository"
	pkgdian "github.com/jfacosta/facturapos-api/pkg/dian"
)

func newInvoiceService(store *memStore) *billing.InvoiceService {
	return billing.NewInvoiceService(
		&memTxRunner{store: store},
		billing.NewResolutionSequencer(),
		&memInvoiceRepo{store},
		&memCustomerRepo{store},
		pkgdian.EnvironmentHabilitacion,
		testLogger(),
	).WithClock(func() time.Time { return testNow })
}

// solicitud de dos líneas: 2 × 50.000 al 19% + 1 × 80.000 al 19% →
// subtotal 180.000, IVA 34.200, total 214.200.
func validRequest(customerID string) dto.CreateInvoiceRequest {
	return dto.CreateInvoiceRequest{
		CustomerID: customerID,
		Items: []dto.CreateInvoiceItemRequest{
			{Code: "P-001", Name: "Camisa manga larga", Quantity: dec(2), UnitPrice: dec(50_000), IvaPercentage: dec(19)},
			{Code: "P-002", Name: "Pantalón clásico", Quantity: dec(1), UnitPrice: dec(80_000), IvaPercentage: dec(19)},
		},
		PaymentMethod: entity.PaymentMethodContado,
		PaymentMeans:  "Efectivo",
	}
}

func TestCreateInvoice_FacturaCompleta(t *testing.T) {
	store := newMemStore()
	companyID, customerID, _ := seedBilling(store)
	svc := newInvoiceService(store)

	resp, err := svc.CreateInvoice(context.Background(), companyID, validRequest(customerID))
	require.NoError(t, err)

	assert.Equal(t, "SETP", resp.Prefix)
	assert.Equal(t, int64(1), resp.Number)
	assert.Equal(t, "SETP000001", resp.FullNumber)
	assert.Equal(t, entity.InvoiceStatusDraft, resp.Status)
	assert.Equal(t, "2026-08-30", resp.IssueDate)
	assert.Equal(t, "14:30:00", resp.IssueTime)
	assert.Empty(t, resp.DueDate, "contado no lleva fecha de vencimiento")

	assert.True(t, resp.Subtotal.Equal(dec(180_000)), "subtotal: %s", resp.Subtotal)
	assert.True(t, resp.TaxTotal.Equal(dec(34_200)), "IVA: %s", resp.TaxTotal)
	assert.True(t, resp.Total.Equal(dec(214_200)), "total: %s", resp.Total)

	require.Len(t, resp.Items, 2)
	assert.Equal(t, 1, resp.Items[0].LineNumber)
	assert.True(t, resp.Items[0].IvaAmount.Equal(dec(19_000)))
	assert.True(t, resp.Items[1].IvaAmount.Equal(dec(15_200)))
	assert.Equal(t, pkgdian.UnitUnit, resp.Items[0].UnitMeasure, "sin unidad se asume la unidad DIAN 94")

	// El CUFE persistido debe coincidir con el recálculo sobre los mismos campos.
	assert.Len(t, resp.CUFE, pkgdian.CufeLength)
	expected, err := pkgdian.GenerateCufe(&pkgdian.CufeParams{
		FullNumber:      resp.FullNumber,
		IssueDate:       resp.IssueDate,
		IssueTime:       resp.IssueTime,
		Subtotal:        resp.Subtotal,
		TaxTotal:        resp.TaxTotal,
		Total:           resp.Total,
		IssuerNIT:       "900999999",
		CustomerDocType: "CC",
		CustomerDocNum:  "1030612345",
		TechnicalKey:    "fc8eac422eba16e22ffd8c6f94b3f40a6e38162c354673d3a603956897890cd",
	})
	require.NoError(t, err)
	assert.Equal(t, expected, resp.CUFE)

	// QR: NumFac|FecFac|ValFac|01|ValImp|CUFE|URL
	parts := strings.Split(resp.QRData, "|")
	require.Len(t, parts, 7)
	assert.Equal(t, "SETP000001", parts[0])
	assert.Equal(t, "214200.00", parts[2])
	assert.Equal(t, resp.CUFE, parts[5])
	assert.Contains(t, parts[6], "catalogo-vpfe.dian.gov.co")
}

func TestCreateInvoice_CreditoRequierePlazo(t *testing.T) {
	store := newMemStore()
	companyID, customerID, _ := seedBilling(store)
	svc := newInvoiceService(store)

	req := validRequest(customerID)
	req.PaymentMethod = entity.PaymentMethodCredito

	_, err := svc.CreateInvoice(context.Background(), companyID, req)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	req.DueDays = 30
	resp, err := svc.CreateInvoice(context.Background(), companyID, req)
	require.NoError(t, err)
	assert.Equal(t, "2026-09-29", resp.DueDate)
}

func TestCreateInvoice_LineasInvalidas(t *testing.T) {
	store := newMemStore()
	companyID, customerID, _ := seedBilling(store)
	svc := newInvoiceService(store)
	ctx := context.Background()

	req := validRequest(customerID)
	req.Items[0].Quantity = dec(0)
	_, err := svc.CreateInvoice(ctx, companyID, req)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	req = validRequest(customerID)
	req.Items[1].UnitPrice = dec(-100)
	_, err = svc.CreateInvoice(ctx, companyID, req)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	req = validRequest(customerID)
	req.Items[0].Name = "  "
	_, err = svc.CreateInvoice(ctx, companyID, req)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreateInvoice_ClienteDeOtraEmpresa(t *testing.T) {
	store := newMemStore()
	companyID, _, _ := seedBilling(store)
	ctx := context.Background()

	otro := &entity.Customer{CompanyID: "otra-empresa", DocumentType: "CC", DocumentNumber: "99"}
	require.NoError(t, store.repos().Customers.Create(ctx, otro))

	_, err := newInvoiceService(store).CreateInvoice(ctx, companyID, validRequest(otro.ID))
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// TestCreateInvoice_AtomicidadCufe fuerza un fallo del cálculo de CUFE después
// de que el consecutivo fue reservado y la cabecera persistida: el rollback
// debe devolver el consecutivo y no dejar rastro de la factura.
func TestCreateInvoice_AtomicidadCufe(t *testing.T) {
	store := newMemStore()
	companyID, customerID, resolutionID := seedBilling(store)
	ctx := context.Background()

	svc := newInvoiceService(store).WithCufeFunc(func(*pkgdian.CufeParams) (string, error) {
		return "", fmt.Errorf("fallo inyectado")
	})

	_, err := svc.CreateInvoice(ctx, companyID, validRequest(customerID))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fallo inyectado")

	res, _ := store.repos().Resolutions.GetByID(ctx, resolutionID)
	assert.Equal(t, int64(0), res.CurrentNumber, "el consecutivo reservado debe revertirse")
	invoices, _ := store.repos().Invoices.ListByCompany(ctx, companyID, repository.InvoiceFilter{})
	assert.Empty(t, invoices, "no debe quedar factura a medias")

	// El siguiente intento sano reutiliza el número que se liberó.
	resp, err := newInvoiceService(store).CreateInvoice(ctx, companyID, validRequest(customerID))
	require.NoError(t, err)
	assert.Equal(t, "SETP000001", resp.FullNumber)
}

func TestCreateInvoice_ConsecutivosUnicos(t *testing.T) {
	store := newMemStore()
	companyID, customerID, _ := seedBilling(store)
	svc := newInvoiceService(store)
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 1; i <= 5; i++ {
		resp, err := svc.CreateInvoice(ctx, companyID, validRequest(customerID))
		require.NoError(t, err)
		assert.False(t, seen[resp.FullNumber], "número repetido: %s", resp.FullNumber)
		seen[resp.FullNumber] = true
		assert.Equal(t, int64(i), resp.Number)
	}
}

func TestCreateInvoice_ResolucionAgotada(t *testing.T) {
	store := newMemStore()
	companyID, customerID, resolutionID := seedBilling(store)
	ctx := context.Background()

	res, _ := store.repos().Resolutions.GetByID(ctx, resolutionID)
	require.NoError(t, store.repos().Resolutions.UpdateCurrentNumber(ctx, res.ID, res.ToNumber))

	_, err := newInvoiceService(store).CreateInvoice(ctx, companyID, validRequest(customerID))
	assert.ErrorIs(t, err, domain.ErrResolutionExhausted)

	invoices, _ := store.repos().Invoices.ListByCompany(ctx, companyID, repository.InvoiceFilter{})
	assert.Empty(t, invoices)
}

func TestCancelInvoice(t *testing.T) {
	store := newMemStore()
	companyID, customerID, _ := seedBilling(store)
	svc := newInvoiceService(store)
	ctx := context.Background()

	resp, err := svc.CreateInvoice(ctx, companyID, validRequest(customerID))
	require.NoError(t, err)

	cancelled, err := svc.CancelInvoice(ctx, companyID, resp.ID, "venta anulada en caja")
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusCancelled, cancelled.Status)

	// Cancelar dos veces es conflicto.
	_, err = svc.CancelInvoice(ctx, companyID, resp.ID, "otra vez")
	assert.ErrorIs(t, err, domain.ErrConflict)

	// Una factura aceptada por la DIAN no se puede anular.
	inv, _ := store.repos().Invoices.GetByID(ctx, resp.ID)
	inv.Status = entity.InvoiceStatusAccepted
	require.NoError(t, store.repos().Invoices.Update(ctx, inv))
	_, err = svc.CancelInvoice(ctx, companyID, resp.ID, "tarde")
	assert.ErrorIs(t, err, domain.ErrInvoiceAlreadyAccepted)
}
