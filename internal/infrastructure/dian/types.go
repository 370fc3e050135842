// Package dian implementa la generación del XML UBL 2.1, el empaquetado ZIP
// y la entrega al WS de factura electrónica de la DIAN (Colombia).
package dian

import (
	"github.com/jfacosta/facturapos-api/internal/domain/entity"
)

// InvoiceBuildContext agrupa todos los datos necesarios para construir el XML
// de la factura: cabecera, emisor, adquiriente, ítems y resolución de numeración.
type InvoiceBuildContext struct {
	Invoice    *entity.Invoice
	Company    *entity.Company    // Emisor (AccountingSupplierParty)
	Customer   *entity.Customer   // Adquiriente (AccountingCustomerParty)
	Items      []*entity.InvoiceItem
	Resolution *entity.Resolution // Resolución DIAN (obligatoria en DianExtensions)

	// Environment es el tipo de ambiente DIAN: "1" producción, "2" habilitación.
	Environment string
}
