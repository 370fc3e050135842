package dian_test

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jfacosta/facturapos-api/internal/domain/dian"
	"github.com/jfacosta/facturapos-api/internal/domain/entity"
	pkgdian "github.com/jfacosta/facturapos-api/pkg/dian"
)

// Reloj fijo para que los chequeos de fechas sean reproducibles.
var testNow = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

func newTestValidator() *dian.Validator {
	return dian.NewValidatorWithClock(dian.DefaultRules(), func() time.Time { return testNow })
}

// buildValidInput arma una factura de dos líneas con todos los valores
// coherentes: 2 × 50.000 al 19% + 1 × 80.000 al 19% →
// subtotal 180.000,00, IVA 34.200,00, total 214.200,00.
func buildValidInput(t *testing.T) *dian.ValidationInput {
	t.Helper()

	company := &entity.Company{
		ID:              "co-1",
		BusinessName:    "Comercial La Esquina SAS",
		NIT:             "900999999",
		DV:              "4",
		Address:         "Cra 10 # 20-30",
		City:            "Bogotá",
		Department:      "Cundinamarca",
		Phone:           "3015551234",
		Email:           "facturacion@laesquina.co",
		TaxRegime:       "Responsable de IVA",
		SoftwareID:      "soft-123",
		SoftwarePIN:     "54321",
		CertificatePath: "/certs/laesquina.p12",
	}
	customer := &entity.Customer{
		ID:             "cu-1",
		CompanyID:      "co-1",
		DocumentType:   "CC",
		DocumentNumber: "1030612345",
		FirstName:      "Laura",
		LastName:       "Pérez",
		Email:          "laura.perez@example.com",
		Phone:          "3109876543",
		Address:        "Cll 45 # 7-12",
		TaxRegime:      "No responsable",
	}
	resolution := &entity.Resolution{
		ID:               "res-1",
		CompanyID:        "co-1",
		ResolutionNumber: "18764003688414",
		Prefix:           "SETP",
		FromNumber:       1,
		ToNumber:         999999,
		CurrentNumber:    1,
		TechnicalKey:     "fc8eac422eba16e22ffd8c6f94b3f40a6e38162c354673d3a603956897890cd",
		ValidFrom:        time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		ValidTo:          time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
		IsActive:         true,
	}
	invoice := &entity.Invoice{
		ID:            "inv-1",
		CompanyID:     "co-1",
		ResolutionID:  "res-1",
		CustomerID:    "cu-1",
		Prefix:        "SETP",
		Number:        1,
		FullNumber:    "SETP000001",
		IssueDate:     "2026-08-15",
		IssueTime:     "10:30:00",
		Subtotal:      decimal.NewFromInt(180_000),
		TaxTotal:      decimal.NewFromInt(34_200),
		Total:         decimal.NewFromInt(214_200),
		Status:        entity.InvoiceStatusDraft,
		PaymentMethod: entity.PaymentMethodContado,
		PaymentMeans:  "Efectivo",
		Notes:         "Venta mostrador",
	}
	items := []*entity.InvoiceItem{
		{
			InvoiceID: "inv-1", LineNumber: 1,
			Code: "P-001", Name: "Camisa manga larga",
			Quantity: decimal.NewFromInt(2), UnitMeasure: pkgdian.UnitUnit,
			UnitPrice:     decimal.NewFromInt(50_000),
			IvaPercentage: decimal.NewFromInt(19),
			IvaAmount:     decimal.NewFromInt(19_000),
			Subtotal:      decimal.NewFromInt(100_000),
			Total:         decimal.NewFromInt(119_000),
		},
		{
			InvoiceID: "inv-1", LineNumber: 2,
			Code: "P-002", Name: "Pantalón clásico",
			Quantity: decimal.NewFromInt(1), UnitMeasure: pkgdian.UnitUnit,
			UnitPrice:     decimal.NewFromInt(80_000),
			IvaPercentage: decimal.NewFromInt(19),
			IvaAmount:     decimal.NewFromInt(15_200),
			Subtotal:      decimal.NewFromInt(80_000),
			Total:         decimal.NewFromInt(95_200),
		},
	}

	cufe, err := pkgdian.GenerateCufe(&pkgdian.CufeParams{
		FullNumber:      invoice.FullNumber,
		IssueDate:       invoice.IssueDate,
		IssueTime:       invoice.IssueTime,
		Subtotal:        invoice.Subtotal,
		TaxTotal:        invoice.TaxTotal,
		Total:           invoice.Total,
		IssuerNIT:       company.NIT,
		CustomerDocType: customer.DocumentType,
		CustomerDocNum:  customer.DocumentNumber,
		TechnicalKey:    resolution.TechnicalKey,
		TestSetID:       company.TestSetID,
	})
	require.NoError(t, err)
	invoice.CUFE = cufe

	return &dian.ValidationInput{
		Invoice:    invoice,
		Items:      items,
		Company:    company,
		Customer:   customer,
		Resolution: resolution,
	}
}

func TestValidate_FacturaCorrecta(t *testing.T) {
	result := newTestValidator().Validate(buildValidInput(t))

	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}

// Las advertencias (teléfono, régimen, código de producto, notas) nunca
// afectan Valid.
func TestValidate_AdvertenciasNoInvalidan(t *testing.T) {
	in := buildValidInput(t)
	in.Customer.Phone = ""
	in.Customer.TaxRegime = ""
	in.Items[0].Code = ""
	in.Invoice.Notes = ""

	result := newTestValidator().Validate(in)

	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
	assert.NotEmpty(t, result.Warnings)
}

func TestValidate_EmailClienteAusente(t *testing.T) {
	in := buildValidInput(t)
	in.Customer.Email = ""

	result := newTestValidator().Validate(in)

	assert.False(t, result.Valid)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "email")
}

// El NIT 900999999 produce DV 4 con el algoritmo módulo 11; un DV almacenado
// de 9 (como trae la empresa de los datos demo) debe reportarse con ambos
// valores para que el operador pueda corregirlo.
func TestValidate_DVEmisorDesfasado(t *testing.T) {
	in := buildValidInput(t)
	in.Company.DV = "9"

	result := newTestValidator().Validate(in)

	assert.False(t, result.Valid)
	found := false
	for _, e := range result.Errors {
		if strings.Contains(e, "esperado 4") && strings.Contains(e, "recibido 9") {
			found = true
		}
	}
	assert.True(t, found, "debe reportar el DV esperado y el recibido: %v", result.Errors)
}

func TestValidate_TotalDesfasadoPorUnCentavo(t *testing.T) {
	in := buildValidInput(t)
	in.Invoice.Total = decimal.RequireFromString("214200.02")

	result := newTestValidator().Validate(in)

	assert.False(t, result.Valid)
	hasTotals := false
	for _, e := range result.Errors {
		if containsAll(e, "totales", "total") {
			hasTotals = true
		}
	}
	assert.True(t, hasTotals, "debe reportar el desfase de totales: %v", result.Errors)
}

func TestValidate_ToleranciaDeUnCentavo(t *testing.T) {
	in := buildValidInput(t)
	// Un centavo de desfase queda dentro de la tolerancia, pero el CUFE
	// almacenado ya no coincide con los campos persistidos.
	in.Invoice.Total = decimal.RequireFromString("214200.01")

	result := newTestValidator().Validate(in)

	for _, e := range result.Errors {
		assert.NotContains(t, e, "totales", "el desfase de un centavo está dentro de la tolerancia")
	}
	assert.False(t, result.Valid, "el CUFE recalculado debe delatar el cambio")
}

func TestValidate_NumeroFueraDeRango(t *testing.T) {
	in := buildValidInput(t)
	in.Invoice.Number = 1_000_000
	in.Invoice.FullNumber = "SETP1000000"

	result := newTestValidator().Validate(in)

	assert.False(t, result.Valid)
	hasRange := false
	for _, e := range result.Errors {
		if containsAll(e, "rango") {
			hasRange = true
		}
	}
	assert.True(t, hasRange, "%v", result.Errors)
}

func TestValidate_ResolucionInactiva(t *testing.T) {
	in := buildValidInput(t)
	in.Resolution.IsActive = false

	result := newTestValidator().Validate(in)

	assert.False(t, result.Valid)
}

func TestValidate_FechaEmisionFutura(t *testing.T) {
	in := buildValidInput(t)
	in.Invoice.IssueDate = "2026-09-15"

	result := newTestValidator().Validate(in)

	assert.False(t, result.Valid)
	hasFuture := false
	for _, e := range result.Errors {
		if containsAll(e, "futuro") {
			hasFuture = true
		}
	}
	assert.True(t, hasFuture, "%v", result.Errors)
}

func TestValidate_FechaEmisionMuyVieja(t *testing.T) {
	in := buildValidInput(t)
	in.Invoice.IssueDate = "2026-01-15"

	result := newTestValidator().Validate(in)

	assert.False(t, result.Valid)
}

func TestValidate_CreditoSinVencimiento(t *testing.T) {
	in := buildValidInput(t)
	in.Invoice.PaymentMethod = entity.PaymentMethodCredito

	result := newTestValidator().Validate(in)

	assert.False(t, result.Valid)
	hasDue := false
	for _, e := range result.Errors {
		if containsAll(e, "crédito", "vencimiento") {
			hasDue = true
		}
	}
	assert.True(t, hasDue, "%v", result.Errors)
}

func TestValidate_CufeAlterado(t *testing.T) {
	in := buildValidInput(t)
	// longitud correcta, contenido alterado
	altered := []byte(in.Invoice.CUFE)
	if altered[0] == 'a' {
		altered[0] = 'b'
	} else {
		altered[0] = 'a'
	}
	in.Invoice.CUFE = string(altered)

	result := newTestValidator().Validate(in)

	assert.False(t, result.Valid)
	hasCufe := false
	for _, e := range result.Errors {
		if containsAll(e, "cufe") {
			hasCufe = true
		}
	}
	assert.True(t, hasCufe, "%v", result.Errors)
}

func TestValidate_CufeLongitudIncorrecta(t *testing.T) {
	in := buildValidInput(t)
	in.Invoice.CUFE = "abc123"

	result := newTestValidator().Validate(in)

	assert.False(t, result.Valid)
}

func TestValidate_AcumulaTodosLosErrores(t *testing.T) {
	in := buildValidInput(t)
	in.Customer.Email = ""
	in.Customer.Address = ""
	in.Items[0].Quantity = decimal.NewFromInt(-1)

	result := newTestValidator().Validate(in)

	assert.False(t, result.Valid)
	assert.GreaterOrEqual(t, len(result.Errors), 3, "debe acumular todos los errores, no solo el primero: %v", result.Errors)
}

func TestValidate_SinLineas(t *testing.T) {
	in := buildValidInput(t)
	in.Items = nil

	result := newTestValidator().Validate(in)

	assert.False(t, result.Valid)
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
