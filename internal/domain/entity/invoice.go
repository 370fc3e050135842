package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados del ciclo de vida de la factura electrónica.
const (
	InvoiceStatusDraft     = "draft"     // creada y numerada, aún no transmitida
	InvoiceStatusSent      = "sent"      // entregada al WS DIAN, respuesta pendiente
	InvoiceStatusAccepted  = "accepted"  // aceptada por la DIAN
	InvoiceStatusRejected  = "rejected"  // rechazada por la DIAN
	InvoiceStatusCancelled = "cancelled" // anulada antes de aceptación
	InvoiceStatusError     = "error"     // fallo de transporte; la factura y su número siguen siendo válidos
)

// Formas de pago.
const (
	PaymentMethodContado = "Contado"
	PaymentMethodCredito = "Crédito"
)

// Invoice representa la cabecera de una factura electrónica de venta.
// (CompanyID, Prefix, Number) es único a nivel global: es la garantía legal
// de no duplicación de numeración.
type Invoice struct {
	ID           string
	CompanyID    string
	ResolutionID string
	CustomerID   string

	Prefix     string
	Number     int64
	FullNumber string // Prefix + Number con padding a 6 dígitos

	IssueDate string // YYYY-MM-DD
	IssueTime string // HH:mm:ss
	DueDate   string // YYYY-MM-DD; vacío si no aplica

	Subtotal decimal.Decimal
	TaxTotal decimal.Decimal
	Total    decimal.Decimal

	Status        string
	CUFE          string // SHA-384 en hexadecimal (96 caracteres)
	QRData        string // NumFac|FecFac|ValFac|CodImp|ValImp|CUFE|URL
	XMLContent    string // XML UBL 2.1 firmado
	DIANResponse  string // payload crudo devuelto por el WS DIAN (JSON o texto)
	DIANSentAt    *time.Time
	PaymentMethod string // Contado, Crédito
	PaymentMeans  string // Efectivo, Transferencia, Tarjeta
	Notes         string

	CreatedAt time.Time
	UpdatedAt time.Time
}
