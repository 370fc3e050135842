package entity

import "github.com/shopspring/decimal"

// InvoiceItem es una línea de detalle de factura. Los montos llegan
// calculados desde el caso de uso; el repositorio los persiste tal cual.
type InvoiceItem struct {
	ID          string
	InvoiceID   string
	LineNumber  int
	Code        string
	Name        string
	Description string

	Quantity    decimal.Decimal
	UnitMeasure string // código DIAN de unidad: 94=unidad, KGM=kilogramo, etc.
	UnitPrice   decimal.Decimal

	IvaPercentage decimal.Decimal // 0, 5 o 19
	IvaAmount     decimal.Decimal
	Subtotal      decimal.Decimal // Quantity * UnitPrice
	Total         decimal.Decimal // Subtotal + IvaAmount
}
