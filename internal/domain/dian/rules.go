// Package dian implementa la validación de cumplimiento de facturas
// electrónicas antes de su transmisión. El validador re-deriva cada valor
// calculado (totales, impuestos, CUFE, rangos de numeración, fechas) a partir
// del registro persistido y reporta toda discrepancia sin mutar nada.
package dian

import (
	"github.com/shopspring/decimal"

	pkgdian "github.com/jfacosta/facturapos-api/pkg/dian"
)

// ValidationRules parametriza el validador. Se pasa completo en la
// construcción para que Validate sea función pura de (factura, reglas).
type ValidationRules struct {
	// Porcentajes de IVA permitidos por línea.
	IvaPercentages []decimal.Decimal
	// Formas de pago aceptadas.
	PaymentMethods []string
	// Medios de pago aceptados.
	PaymentMeans []string
	// Unidades de medida aceptadas (códigos DIAN).
	UnitMeasures map[string]bool
	// Edad máxima de la fecha de emisión, en meses.
	MaxInvoiceAgeMonths int
	// Longitud máxima de la descripción de línea.
	MaxDescriptionLength int
	// Longitud exacta del CUFE en caracteres hexadecimales.
	CufeLength int
	// Total mínimo de la factura (estrictamente mayor).
	MinInvoiceTotal decimal.Decimal
	// Tolerancia de redondeo para comparaciones monetarias.
	Tolerance decimal.Decimal
}

// DefaultRules devuelve las reglas vigentes del régimen colombiano.
func DefaultRules() ValidationRules {
	return ValidationRules{
		IvaPercentages: []decimal.Decimal{
			decimal.Zero,
			decimal.NewFromInt(5),
			decimal.NewFromInt(19),
		},
		PaymentMethods: []string{"Contado", "Crédito"},
		PaymentMeans:   []string{"Efectivo", "Transferencia", "Tarjeta Crédito", "Tarjeta Débito"},
		UnitMeasures:   pkgdian.ValidUnitMeasures,
		MaxInvoiceAgeMonths:  3,
		MaxDescriptionLength: 300,
		CufeLength:           pkgdian.CufeLength,
		MinInvoiceTotal:      decimal.Zero,
		Tolerance:            decimal.New(1, -2), // un centavo
	}
}
