package dian_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jfacosta/facturapos-api/pkg/dian"
)

// ──────────────────────────────────────────────────────────────────────────────
// TestGenerateCufe valida que el cálculo SHA-384 del CUFE produce el hash
// exacto esperado para parámetros conocidos. Si alguien modifica la cadena de
// concatenación, el orden de los campos o el formato de los montos, este test
// falla de inmediato.
//
// Vector calculado manualmente con SHA-384:
//
//	Cadena = NumFac + FecFac + HorFac + ValFac + "01" + ValIva +
//	         "0" + "0.00" + "0" + "0.00" + ValTot + NitOfe + TipAdq + NumAdq +
//	         ClTec + TestSetId
//	       = "SETP990000001" + "20260115" + "14:30:00" + "180000.00" +
//	         "01" + "34200.00" + "0" + "0.00" + "0" + "0.00" + "214200.00" +
//	         "900999999" + "13" + "1030612345" +
//	         "fc8eac422eba16e22ffd8c6f94b3f40a6e38162c354673d3a603956897890cd" + ""
// ──────────────────────────────────────────────────────────────────────────────

const (
	testCufeExpected = "c3758e42e8d16934431ef9abe7a37e79becfdd8e3182fcda1f3d12e8f69c9ef68dc9896dd3eabfecef7833252644fcb1"

	// mismo vector con TestSetID = "abc123-testset"
	testCufeExpectedTestSet = "3846c162e440039bf7c3bf4020fd5cfe9eb217753612972123848577a87859009c65b3745aa3a759f2b6d6d8a3c4738d"

	testNumFac = "SETP990000001"
	testNitOfe = "900999999"
	testDocAdq = "1030612345"
	testClTec  = "fc8eac422eba16e22ffd8c6f94b3f40a6e38162c354673d3a603956897890cd"
)

func buildTestParams() *dian.CufeParams {
	return &dian.CufeParams{
		FullNumber:      testNumFac,
		IssueDate:       "2026-01-15",
		IssueTime:       "14:30:00",
		Subtotal:        decimal.NewFromInt(180_000),
		TaxTotal:        decimal.NewFromInt(34_200),
		Total:           decimal.NewFromInt(214_200),
		IssuerNIT:       testNitOfe,
		CustomerDocType: "CC",
		CustomerDocNum:  testDocAdq,
		TechnicalKey:    testClTec,
	}
}

func TestGenerateCufe_VectorExacto(t *testing.T) {
	cufe, err := dian.GenerateCufe(buildTestParams())
	require.NoError(t, err, "GenerateCufe no debe retornar error con parámetros válidos")
	assert.Equal(t, testCufeExpected, cufe,
		"El CUFE debe coincidir exactamente con el vector SHA-384 de referencia")
}

func TestGenerateCufe_TestSetAfectaHash(t *testing.T) {
	p := buildTestParams()
	p.TestSetID = "abc123-testset"

	cufe, err := dian.GenerateCufe(p)
	require.NoError(t, err)
	assert.Equal(t, testCufeExpectedTestSet, cufe)
}

// TestGenerateCufe_Determinista verifica que llamar GenerateCufe dos veces con
// los mismos parámetros produce siempre el mismo hash.
func TestGenerateCufe_Determinista(t *testing.T) {
	cufe1, err1 := dian.GenerateCufe(buildTestParams())
	cufe2, err2 := dian.GenerateCufe(buildTestParams())

	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, cufe1, cufe2, "El mismo input siempre debe producir el mismo CUFE")
}

// TestGenerateCufe_SensibleAlTotal verifica que un centavo de diferencia en el
// total cambia el hash completo.
func TestGenerateCufe_SensibleAlTotal(t *testing.T) {
	p1 := buildTestParams()
	p2 := buildTestParams()
	p2.Total = p2.Total.Add(decimal.New(1, -2)) // +0.01

	cufe1, _ := dian.GenerateCufe(p1)
	cufe2, _ := dian.GenerateCufe(p2)

	assert.NotEqual(t, cufe1, cufe2,
		"Totales distintos deben producir CUFEs distintos")
}

func TestGenerateCufe_NormalizaFecha(t *testing.T) {
	p1 := buildTestParams()
	p2 := buildTestParams()
	p2.IssueDate = "20260115" // ya sin separadores

	cufe1, err1 := dian.GenerateCufe(p1)
	cufe2, err2 := dian.GenerateCufe(p2)

	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, cufe1, cufe2, "La fecha se reduce a dígitos antes de concatenar")
}

// TestGenerateCufe_TipoDocumentoNoMapeado: las siglas desconocidas caen en el
// código 13, igual que "CC".
func TestGenerateCufe_TipoDocumentoNoMapeado(t *testing.T) {
	p1 := buildTestParams()
	p2 := buildTestParams()
	p2.CustomerDocType = "OTRO"

	cufe1, _ := dian.GenerateCufe(p1)
	cufe2, _ := dian.GenerateCufe(p2)

	assert.Equal(t, cufe1, cufe2)
}

// ── Errores de validación ─────────────────────────────────────────────────────

func TestGenerateCufe_ErrorSiNilParams(t *testing.T) {
	_, err := dian.GenerateCufe(nil)
	assert.Error(t, err)
}

func TestGenerateCufe_ErrorSiNumeroVacio(t *testing.T) {
	p := buildTestParams()
	p.FullNumber = ""
	_, err := dian.GenerateCufe(p)
	assert.Error(t, err)
}

func TestGenerateCufe_ErrorSiFechaInvalida(t *testing.T) {
	p := buildTestParams()
	p.IssueDate = "2026-01"
	_, err := dian.GenerateCufe(p)
	assert.Error(t, err)
}

func TestGenerateCufe_ErrorSiClaveTecnicaVacia(t *testing.T) {
	p := buildTestParams()
	p.TechnicalKey = ""
	_, err := dian.GenerateCufe(p)
	assert.Error(t, err)
}

// TestGenerateCufe_LongitudHash valida que el hash tenga exactamente 96
// caracteres hexadecimales (SHA-384).
func TestGenerateCufe_LongitudHash(t *testing.T) {
	cufe, err := dian.GenerateCufe(buildTestParams())
	require.NoError(t, err)
	assert.Len(t, cufe, dian.CufeLength)
}
