package billing_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jfacosta/facturapos-api/internal/application/billing"
	"github.com/jfacosta/facturapos-api/internal/domain"
	domaindian "github.com/jfacosta/facturapos-api/internal/domain/dian"
	"github.com/jfacosta/facturapos-api/internal/domain/entity"
	infradian "github.com/jfacosta/facturapos-api/internal/infrastructure/dian"
	"github.com/jfacosta/facturapos-api/pkg/config"
)

// errSubmitter simula un fallo de transporte (red caída, timeout del WS).
type errSubmitter struct{}

func (errSubmitter) SubmitZip(context.Context, []byte, string, string, string) (*infradian.SubmitResult, error) {
	return nil, fmt.Errorf("dial tcp: connection refused")
}

func newOrchestrator(store *memStore, submitter infradian.Submitter, appEnv string) *billing.DIANOrchestrator {
	validator := domaindian.NewValidatorWithClock(domaindian.DefaultRules(), func() time.Time { return testNow })
	return billing.NewDIANOrchestrator(
		&memInvoiceRepo{store},
		&memCompanyRepo{store},
		&memCustomerRepo{store},
		&memResolutionRepo{store},
		infradian.NewXMLBuilderService(),
		nil, // sin certificado no se firma; el firmador no se invoca
		submitter,
		validator,
		config.DIANConfig{AppEnv: appEnv, Environment: "2"},
		testLogger(),
	)
}

// createDraft crea una factura válida vía el servicio real, lista para transmitir.
func createDraft(t *testing.T, store *memStore, companyID, customerID string) string {
	t.Helper()
	resp, err := newInvoiceService(store).CreateInvoice(context.Background(), companyID, validRequest(customerID))
	require.NoError(t, err)
	return resp.ID
}

func TestSend_AceptadaEnModoDev(t *testing.T) {
	store := newMemStore()
	companyID, customerID, _ := seedBilling(store)
	invoiceID := createDraft(t, store, companyID, customerID)

	orch := newOrchestrator(store, infradian.NewMockClient(), infradian.AppEnvDev)
	resp, err := orch.Send(context.Background(), companyID, invoiceID)
	require.NoError(t, err)

	assert.Equal(t, entity.InvoiceStatusAccepted, resp.Status)
	assert.True(t, strings.HasPrefix(resp.TrackID, "DEMO-"), "track id simulado: %s", resp.TrackID)

	inv, err := store.repos().Invoices.GetByID(context.Background(), invoiceID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusAccepted, inv.Status)
	assert.NotEmpty(t, inv.XMLContent)
	require.NotNil(t, inv.DIANSentAt)
	assert.Contains(t, inv.DIANResponse, "simulated")

	// El XML persistido es UBL parseable y lleva el CUFE en cbc:UUID.
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(inv.XMLContent))
	root := doc.Root()
	require.NotNil(t, root)
	assert.Equal(t, "Invoice", root.Tag)
	uuid := root.FindElement("//UUID")
	require.NotNil(t, uuid)
	assert.Equal(t, inv.CUFE, uuid.Text())
	assert.NotNil(t, root.FindElement("//InvoiceControl"), "la extensión DIAN con la resolución es obligatoria")
	auth := root.FindElement("//InvoiceAuthorization")
	require.NotNil(t, auth)
	assert.Equal(t, "18764003688414", auth.Text())
}

func TestSend_RechazadaPorLaDIAN(t *testing.T) {
	store := newMemStore()
	companyID, customerID, _ := seedBilling(store)
	invoiceID := createDraft(t, store, companyID, customerID)

	mock := &infradian.MockClient{Accept: false, RejectMessage: "Regla FAD06: NIT del emisor no autorizado"}
	orch := newOrchestrator(store, mock, infradian.AppEnvDev)

	resp, err := orch.Send(context.Background(), companyID, invoiceID)
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusRejected, resp.Status)
	assert.Contains(t, resp.Message, "FAD06")

	inv, _ := store.repos().Invoices.GetByID(context.Background(), invoiceID)
	assert.Equal(t, entity.InvoiceStatusRejected, inv.Status)
}

// TestSend_FalloDeTransporte verifica que un error de red deja la factura en
// "error" con el detalle persistido, sin revertir número ni CUFE.
func TestSend_FalloDeTransporte(t *testing.T) {
	store := newMemStore()
	companyID, customerID, _ := seedBilling(store)
	invoiceID := createDraft(t, store, companyID, customerID)

	before, _ := store.repos().Invoices.GetByID(context.Background(), invoiceID)

	orch := newOrchestrator(store, errSubmitter{}, infradian.AppEnvDev)
	_, err := orch.Send(context.Background(), companyID, invoiceID)
	require.Error(t, err)

	inv, _ := store.repos().Invoices.GetByID(context.Background(), invoiceID)
	assert.Equal(t, entity.InvoiceStatusError, inv.Status)
	assert.Contains(t, inv.DIANResponse, "connection refused")
	assert.Equal(t, before.FullNumber, inv.FullNumber, "el número consumido sigue siendo válido")
	assert.Equal(t, before.CUFE, inv.CUFE)
}

func TestSend_EstadosNoTransmisibles(t *testing.T) {
	store := newMemStore()
	companyID, customerID, _ := seedBilling(store)
	invoiceID := createDraft(t, store, companyID, customerID)
	ctx := context.Background()
	orch := newOrchestrator(store, infradian.NewMockClient(), infradian.AppEnvDev)

	inv, _ := store.repos().Invoices.GetByID(ctx, invoiceID)
	inv.Status = entity.InvoiceStatusAccepted
	require.NoError(t, store.repos().Invoices.Update(ctx, inv))
	_, err := orch.Send(ctx, companyID, invoiceID)
	assert.ErrorIs(t, err, domain.ErrInvoiceAlreadyAccepted)

	inv.Status = entity.InvoiceStatusCancelled
	require.NoError(t, store.repos().Invoices.Update(ctx, inv))
	_, err = orch.Send(ctx, companyID, invoiceID)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestSend_OtraEmpresaEsForbidden(t *testing.T) {
	store := newMemStore()
	companyID, customerID, _ := seedBilling(store)
	invoiceID := createDraft(t, store, companyID, customerID)

	orch := newOrchestrator(store, infradian.NewMockClient(), infradian.AppEnvDev)
	_, err := orch.Send(context.Background(), "otra-empresa", invoiceID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// TestSend_ValidacionPreviaBloquea corrompe el CUFE persistido: el validador
// debe impedir la transmisión antes de tocar la red.
func TestSend_ValidacionPreviaBloquea(t *testing.T) {
	store := newMemStore()
	companyID, customerID, _ := seedBilling(store)
	invoiceID := createDraft(t, store, companyID, customerID)
	ctx := context.Background()

	inv, _ := store.repos().Invoices.GetByID(ctx, invoiceID)
	inv.CUFE = strings.Repeat("0", 96)
	require.NoError(t, store.repos().Invoices.Update(ctx, inv))

	orch := newOrchestrator(store, infradian.NewMockClient(), infradian.AppEnvDev)
	_, err := orch.Send(ctx, companyID, invoiceID)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	inv, _ = store.repos().Invoices.GetByID(ctx, invoiceID)
	assert.Equal(t, entity.InvoiceStatusDraft, inv.Status, "la validación fallida no muta el estado")
	assert.Empty(t, inv.XMLContent)
}
