package dto

import (
	"github.com/shopspring/decimal"
)

// CreateInvoiceItemRequest es una línea cruda de la solicitud de factura.
type CreateInvoiceItemRequest struct {
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitMeasure   string          `json:"unit_measure"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	IvaPercentage decimal.Decimal `json:"iva_percentage"`
}

// CreateInvoiceRequest es la solicitud de creación de factura electrónica.
type CreateInvoiceRequest struct {
	CustomerID    string                     `json:"customer_id"`
	Items         []CreateInvoiceItemRequest `json:"items"`
	PaymentMethod string                     `json:"payment_method"` // Contado, Crédito
	PaymentMeans  string                     `json:"payment_means"`  // Efectivo, Transferencia, ...
	// DueDays días de plazo; solo aplica a ventas a crédito.
	DueDays int `json:"due_days"`
	// IssueDate permite fijar la fecha de emisión (YYYY-MM-DD); vacío = hoy.
	IssueDate string `json:"issue_date"`
	Notes     string `json:"notes"`
}

// InvoiceItemResponse es una línea de factura en las respuestas.
type InvoiceItemResponse struct {
	ID            string          `json:"id"`
	LineNumber    int             `json:"line_number"`
	Code          string          `json:"code,omitempty"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitMeasure   string          `json:"unit_measure"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	IvaPercentage decimal.Decimal `json:"iva_percentage"`
	IvaAmount     decimal.Decimal `json:"iva_amount"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Total         decimal.Decimal `json:"total"`
}

// InvoiceResponse es la factura completa en las respuestas.
type InvoiceResponse struct {
	ID            string                `json:"id"`
	CompanyID     string                `json:"company_id"`
	CustomerID    string                `json:"customer_id"`
	CustomerName  string                `json:"customer_name,omitempty"`
	Prefix        string                `json:"prefix"`
	Number        int64                 `json:"number"`
	FullNumber    string                `json:"full_number"`
	IssueDate     string                `json:"issue_date"`
	IssueTime     string                `json:"issue_time"`
	DueDate       string                `json:"due_date,omitempty"`
	Subtotal      decimal.Decimal       `json:"subtotal"`
	TaxTotal      decimal.Decimal       `json:"tax_total"`
	Total         decimal.Decimal       `json:"total"`
	Status        string                `json:"status"`
	CUFE          string                `json:"cufe,omitempty"`
	QRData        string                `json:"qr_data,omitempty"`
	PaymentMethod string                `json:"payment_method"`
	PaymentMeans  string                `json:"payment_means,omitempty"`
	Notes         string                `json:"notes,omitempty"`
	DIANSentAt    string                `json:"dian_sent_at,omitempty"`
	Items         []InvoiceItemResponse `json:"items,omitempty"`
}

// CancelInvoiceRequest anula una factura que aún no fue aceptada.
type CancelInvoiceRequest struct {
	Reason string `json:"reason"`
}

// ValidationReportResponse es el reporte del validador de cumplimiento.
type ValidationReportResponse struct {
	InvoiceID string   `json:"invoice_id"`
	Valid     bool     `json:"valid"`
	Errors    []string `json:"errors"`
	Warnings  []string `json:"warnings"`
}

// SendInvoiceResponse es el resultado de la transmisión a la DIAN.
type SendInvoiceResponse struct {
	InvoiceID string `json:"invoice_id"`
	Status    string `json:"status"`
	TrackID   string `json:"track_id,omitempty"`
	Message   string `json:"message,omitempty"`
}
