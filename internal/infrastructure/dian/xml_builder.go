package dian

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/jfacosta/facturapos-api/internal/domain/entity"
	"github.com/jfacosta/facturapos-api/pkg/dian"
)

// Namespaces oficiales UBL 2.1 y DIAN (Anexo Técnico 1.9).
const (
	// Namespace por defecto (UBL Invoice)
	NsInvoice = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
	// Common Aggregate Components
	NsCac = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
	// Common Basic Components
	NsCbc = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"
	// Extension Components
	NsExt = "urn:oasis:names:specification:ubl:schema:xsd:CommonExtensionComponents-2"
	// DIAN Extensions (valor oficial para Anexo 1.8/1.9)
	NsSts = "dian:gov:co:facturaelectronica:v1"
	// XML Digital Signature
	NsDs = "http://www.w3.org/2000/09/xmldsig#"
	// XAdES (para la firma)
	NsXades = "http://uri.etsi.org/01903/v1.3.2#"
	// XML Schema Instance (para schemaLocation)
	nsXsi = "http://www.w3.org/2001/XMLSchema-instance"
	// Schema location UBL Invoice 2.1
	schemaLocationInvoice = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2 http://docs.oasis-open.org/ubl/os-UBL-2.1/xsd/maindoc/UBL-Invoice-2.1.xsd"
)

// Desfase horario fijo de Colombia (no observa horario de verano).
const colombiaUTCOffset = "-05:00"

// XMLBuilderService construye el XML UBL 2.1 de la factura (sin firma XAdES).
type XMLBuilderService struct{}

// NewXMLBuilderService crea el servicio.
func NewXMLBuilderService() *XMLBuilderService {
	return &XMLBuilderService{}
}

// Build genera el []byte del documento Invoice según UBL 2.1 y extensiones DIAN.
func (s *XMLBuilderService) Build(ctx *InvoiceBuildContext) ([]byte, error) {
	if ctx == nil || ctx.Invoice == nil || ctx.Company == nil || ctx.Customer == nil {
		return nil, fmt.Errorf("dian: faltan invoice, company o customer en el contexto")
	}
	if ctx.Resolution == nil {
		return nil, fmt.Errorf("dian: falta la resolución de numeración en el contexto")
	}
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	// Root <Invoice> con atributos obligatorios (Anexo 1.9). Id para Reference URI en firma XAdES.
	root := xml.StartElement{
		Name: xml.Name{Space: NsInvoice, Local: "Invoice"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "Id"}, Value: "invoice-id"},
			{Name: xml.Name{Local: "xmlns"}, Value: NsInvoice},
			{Name: xml.Name{Local: "xmlns:cac"}, Value: NsCac},
			{Name: xml.Name{Local: "xmlns:cbc"}, Value: NsCbc},
			{Name: xml.Name{Local: "xmlns:ds"}, Value: NsDs},
			{Name: xml.Name{Local: "xmlns:ext"}, Value: NsExt},
			{Name: xml.Name{Local: "xmlns:sts"}, Value: NsSts},
			{Name: xml.Name{Local: "xmlns:xades"}, Value: NsXades},
			{Name: xml.Name{Local: "xmlns:xsi"}, Value: nsXsi},
			{Name: xml.Name{Space: nsXsi, Local: "schemaLocation"}, Value: schemaLocationInvoice},
		},
	}
	if err := enc.EncodeToken(root); err != nil {
		return nil, err
	}

	// ---- CRÍTICO: ext:UBLExtensions siempre como primer hijo de Invoice (requerido por el firmador)
	// Extensión 1: DIAN (resolución, software, QR). Extensión 2: placeholder para ds:Signature
	if err := s.writeUBLExtensions(enc, ctx); err != nil {
		return nil, err
	}

	inv := ctx.Invoice

	writeCbc(enc, "UBLVersionID", "2.1")
	writeCbc(enc, "CustomizationID", "10")
	writeCbc(enc, "ProfileID", "DIAN 2.1: Factura Electrónica de Venta")
	writeCbc(enc, "ProfileExecutionID", ctx.Environment)
	writeCbc(enc, "ID", inv.FullNumber)
	// cbc:UUID = CUFE (Código Único de Factura Electrónica)
	if inv.CUFE != "" {
		writeCbcWithAttr(enc, "UUID", inv.CUFE, "schemeName", "CUFE-SHA384")
	}
	writeCbc(enc, "IssueDate", inv.IssueDate)
	writeCbc(enc, "IssueTime", inv.IssueTime+colombiaUTCOffset)
	writeCbc(enc, "InvoiceTypeCode", "01")
	if inv.Notes != "" {
		writeCbc(enc, "Note", inv.Notes)
	}
	writeCbc(enc, "DocumentCurrencyCode", "COP")
	writeCbc(enc, "LineCountNumeric", strconv.Itoa(len(ctx.Items)))

	if inv.DueDate != "" {
		writeCbc(enc, "DueDate", inv.DueDate)
	}

	// ---- cac:AccountingSupplierParty
	if err := s.writeSupplierParty(enc, ctx); err != nil {
		return nil, err
	}
	// ---- cac:AccountingCustomerParty
	if err := s.writeCustomerParty(enc, ctx); err != nil {
		return nil, err
	}
	// ---- cac:PaymentMeans (forma y medio de pago)
	s.writePaymentMeans(enc, ctx)
	// ---- cac:TaxTotal
	if err := s.writeTaxTotal(enc, ctx); err != nil {
		return nil, err
	}
	// ---- cac:LegalMonetaryTotal
	if err := s.writeLegalMonetaryTotal(enc, ctx); err != nil {
		return nil, err
	}
	// ---- cac:InvoiceLine (cada ítem)
	for _, item := range ctx.Items {
		if err := s.writeInvoiceLine(enc, item); err != nil {
			return nil, err
		}
	}

	if err := enc.EncodeToken(root.End()); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCbc(enc *xml.Encoder, local, value string) {
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsCbc, Local: local}})
	_ = enc.EncodeToken(xml.CharData(value))
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCbc, Local: local}})
}

func writeCbcAmount(enc *xml.Encoder, local, value string, currency string) {
	attr := []xml.Attr{}
	if currency != "" {
		attr = append(attr, xml.Attr{Name: xml.Name{Local: "currencyID"}, Value: currency})
	}
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsCbc, Local: local}, Attr: attr})
	_ = enc.EncodeToken(xml.CharData(value))
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCbc, Local: local}})
}

func writeCbcWithAttr(enc *xml.Encoder, local, value, attrLocal, attrValue string) {
	attr := []xml.Attr{}
	if attrValue != "" {
		attr = append(attr, xml.Attr{Name: xml.Name{Local: attrLocal}, Value: attrValue})
	}
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsCbc, Local: local}, Attr: attr})
	_ = enc.EncodeToken(xml.CharData(value))
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCbc, Local: local}})
}

func writeSts(enc *xml.Encoder, local, value string) {
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsSts, Local: local}})
	_ = enc.EncodeToken(xml.CharData(value))
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsSts, Local: local}})
}

func startCac(enc *xml.Encoder, local string) {
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsCac, Local: local}})
}

func endCac(enc *xml.Encoder, local string) {
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCac, Local: local}})
}

// writeUBLExtensions escribe siempre ext:UBLExtensions como primer hijo de Invoice.
// Extensión 1: sts:DianExtensions (resolución, proveedor de software, QR).
// Extensión 2: ExtensionContent vacío; el firmador inyectará aquí <ds:Signature>.
func (s *XMLBuilderService) writeUBLExtensions(enc *xml.Encoder, ctx *InvoiceBuildContext) error {
	res := ctx.Resolution

	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsExt, Local: "UBLExtensions"}})

	// 1. Extensión DIAN
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsExt, Local: "UBLExtension"}})
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsExt, Local: "ExtensionContent"}})
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsSts, Local: "DianExtensions"}})

	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsSts, Local: "InvoiceControl"}})
	writeSts(enc, "InvoiceAuthorization", res.ResolutionNumber)
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsSts, Local: "AuthorizationPeriod"}})
	writeCbc(enc, "StartDate", res.ValidFrom.Format("2006-01-02"))
	writeCbc(enc, "EndDate", res.ValidTo.Format("2006-01-02"))
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsSts, Local: "AuthorizationPeriod"}})
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsSts, Local: "AuthorizedInvoices"}})
	writeSts(enc, "Prefix", res.Prefix)
	writeSts(enc, "From", strconv.FormatInt(res.FromNumber, 10))
	writeSts(enc, "To", strconv.FormatInt(res.ToNumber, 10))
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsSts, Local: "AuthorizedInvoices"}})
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsSts, Local: "InvoiceControl"}})

	if ctx.Company.SoftwareID != "" {
		_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsSts, Local: "SoftwareProvider"}})
		writeSts(enc, "ProviderID", ctx.Company.NIT)
		writeSts(enc, "SoftwareID", ctx.Company.SoftwareID)
		_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsSts, Local: "SoftwareProvider"}})
	}
	if ctx.Invoice.QRData != "" {
		writeSts(enc, "QRCode", ctx.Invoice.QRData)
	}

	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsSts, Local: "DianExtensions"}})
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsExt, Local: "ExtensionContent"}})
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsExt, Local: "UBLExtension"}})

	// 2. Extensión para la firma (placeholder vacío; el signer inyectará <ds:Signature> aquí)
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsExt, Local: "UBLExtension"}})
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsExt, Local: "ExtensionContent"}})
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsExt, Local: "ExtensionContent"}})
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsExt, Local: "UBLExtension"}})

	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsExt, Local: "UBLExtensions"}})
	return nil
}

func (s *XMLBuilderService) writeSupplierParty(enc *xml.Encoder, ctx *InvoiceBuildContext) error {
	co := ctx.Company
	startCac(enc, "AccountingSupplierParty")
	writeCbc(enc, "AdditionalAccountID", "1") // 1 = persona jurídica
	startCac(enc, "Party")

	// Identificación fiscal (NIT con DV en atributo)
	startCac(enc, "PartyIdentification")
	_ = enc.EncodeToken(xml.StartElement{
		Name: xml.Name{Space: NsCbc, Local: "ID"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "schemeID"}, Value: co.DV},
			{Name: xml.Name{Local: "schemeName"}, Value: dian.DocTypeCodeNIT},
		},
	})
	_ = enc.EncodeToken(xml.CharData(co.NIT))
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCbc, Local: "ID"}})
	endCac(enc, "PartyIdentification")

	startCac(enc, "PartyName")
	writeCbc(enc, "Name", co.BusinessName)
	endCac(enc, "PartyName")

	if co.Address != "" {
		startCac(enc, "PhysicalLocation")
		startCac(enc, "Address")
		writeCbc(enc, "CityName", co.City)
		writeCbc(enc, "CountrySubentity", co.Department)
		startCac(enc, "AddressLine")
		writeCbc(enc, "Line", co.Address)
		endCac(enc, "AddressLine")
		startCac(enc, "Country")
		writeCbc(enc, "IdentificationCode", "CO")
		endCac(enc, "Country")
		endCac(enc, "Address")
		endCac(enc, "PhysicalLocation")
	}

	startCac(enc, "PartyTaxScheme")
	writeCbc(enc, "RegistrationName", co.BusinessName)
	writeCbc(enc, "TaxLevelCode", co.TaxRegime)
	startCac(enc, "TaxScheme")
	writeCbc(enc, "ID", dian.TaxCodeIVA)
	writeCbc(enc, "Name", "IVA")
	endCac(enc, "TaxScheme")
	endCac(enc, "PartyTaxScheme")

	endCac(enc, "Party")
	endCac(enc, "AccountingSupplierParty")
	return nil
}

func (s *XMLBuilderService) writeCustomerParty(enc *xml.Encoder, ctx *InvoiceBuildContext) error {
	cu := ctx.Customer
	docCode := dian.DocumentTypeCode(cu.DocumentType)

	startCac(enc, "AccountingCustomerParty")
	startCac(enc, "Party")

	startCac(enc, "PartyIdentification")
	attrs := []xml.Attr{{Name: xml.Name{Local: "schemeName"}, Value: docCode}}
	if docCode == dian.DocTypeCodeNIT && cu.DV != "" {
		attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "schemeID"}, Value: cu.DV})
	}
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Space: NsCbc, Local: "ID"}, Attr: attrs})
	_ = enc.EncodeToken(xml.CharData(cu.DocumentNumber))
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Space: NsCbc, Local: "ID"}})
	endCac(enc, "PartyIdentification")

	startCac(enc, "PartyName")
	writeCbc(enc, "Name", cu.DisplayName())
	endCac(enc, "PartyName")

	if cu.Email != "" {
		startCac(enc, "Contact")
		writeCbc(enc, "ElectronicMail", cu.Email)
		endCac(enc, "Contact")
	}

	endCac(enc, "Party")
	endCac(enc, "AccountingCustomerParty")
	return nil
}

func (s *XMLBuilderService) writePaymentMeans(enc *xml.Encoder, ctx *InvoiceBuildContext) {
	inv := ctx.Invoice
	startCac(enc, "PaymentMeans")
	writeCbc(enc, "ID", dian.PaymentFormCode(inv.PaymentMethod))
	writeCbc(enc, "PaymentMeansCode", dian.PaymentMeansCode(inv.PaymentMeans))
	if inv.DueDate != "" && dian.PaymentFormCode(inv.PaymentMethod) == dian.PaymentFormCodeCredito {
		writeCbc(enc, "PaymentDueDate", inv.DueDate)
	}
	endCac(enc, "PaymentMeans")
}

func (s *XMLBuilderService) writeTaxTotal(enc *xml.Encoder, ctx *InvoiceBuildContext) error {
	inv := ctx.Invoice
	percent := "19"
	if inv.Subtotal.IsPositive() {
		pct := inv.TaxTotal.Div(inv.Subtotal).Mul(decimal.NewFromInt(100)).Round(0)
		percent = pct.String()
	}
	startCac(enc, "TaxTotal")
	writeCbcAmount(enc, "TaxAmount", formatDecimal(inv.TaxTotal), "COP")
	startCac(enc, "TaxSubtotal")
	writeCbcAmount(enc, "TaxableAmount", formatDecimal(inv.Subtotal), "COP")
	writeCbcAmount(enc, "TaxAmount", formatDecimal(inv.TaxTotal), "COP")
	startCac(enc, "TaxCategory")
	writeCbc(enc, "Percent", percent)
	startCac(enc, "TaxScheme")
	writeCbc(enc, "ID", dian.TaxCodeIVA)
	writeCbc(enc, "Name", "IVA")
	endCac(enc, "TaxScheme")
	endCac(enc, "TaxCategory")
	endCac(enc, "TaxSubtotal")
	endCac(enc, "TaxTotal")
	return nil
}

func (s *XMLBuilderService) writeLegalMonetaryTotal(enc *xml.Encoder, ctx *InvoiceBuildContext) error {
	inv := ctx.Invoice
	startCac(enc, "LegalMonetaryTotal")
	writeCbcAmount(enc, "LineExtensionAmount", formatDecimal(inv.Subtotal), "COP")
	writeCbcAmount(enc, "TaxExclusiveAmount", formatDecimal(inv.Subtotal), "COP")
	writeCbcAmount(enc, "TaxInclusiveAmount", formatDecimal(inv.Total), "COP")
	writeCbcAmount(enc, "PayableAmount", formatDecimal(inv.Total), "COP")
	endCac(enc, "LegalMonetaryTotal")
	return nil
}

func (s *XMLBuilderService) writeInvoiceLine(enc *xml.Encoder, item *entity.InvoiceItem) error {
	unitCode := item.UnitMeasure
	if unitCode == "" {
		unitCode = dian.UnitUnit
	}
	startCac(enc, "InvoiceLine")
	writeCbc(enc, "ID", strconv.Itoa(item.LineNumber))
	writeCbcWithAttr(enc, "InvoicedQuantity", formatDecimal(item.Quantity), "unitCode", unitCode)
	writeCbcAmount(enc, "LineExtensionAmount", formatDecimal(item.Subtotal), "COP")

	// Impuesto de la línea
	startCac(enc, "TaxTotal")
	writeCbcAmount(enc, "TaxAmount", formatDecimal(item.IvaAmount), "COP")
	startCac(enc, "TaxSubtotal")
	writeCbcAmount(enc, "TaxableAmount", formatDecimal(item.Subtotal), "COP")
	writeCbcAmount(enc, "TaxAmount", formatDecimal(item.IvaAmount), "COP")
	startCac(enc, "TaxCategory")
	writeCbc(enc, "Percent", item.IvaPercentage.Round(2).String())
	startCac(enc, "TaxScheme")
	writeCbc(enc, "ID", dian.TaxCodeIVA)
	writeCbc(enc, "Name", "IVA")
	endCac(enc, "TaxScheme")
	endCac(enc, "TaxCategory")
	endCac(enc, "TaxSubtotal")
	endCac(enc, "TaxTotal")

	// cac:Item
	startCac(enc, "Item")
	desc := item.Description
	if desc == "" {
		desc = item.Name
	}
	writeCbc(enc, "Description", desc)
	if item.Code != "" {
		startCac(enc, "SellersItemIdentification")
		writeCbc(enc, "ID", item.Code)
		endCac(enc, "SellersItemIdentification")
	}
	endCac(enc, "Item")

	// cac:Price
	startCac(enc, "Price")
	writeCbcAmount(enc, "PriceAmount", formatDecimal(item.UnitPrice), "COP")
	writeCbcWithAttr(enc, "BaseQuantity", "1", "unitCode", unitCode)
	endCac(enc, "Price")

	endCac(enc, "InvoiceLine")
	return nil
}

func formatDecimal(d decimal.Decimal) string {
	return d.Round(2).StringFixed(2)
}
