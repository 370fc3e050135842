// Package dian contiene catálogos, el cálculo del CUFE y el dígito de
// verificación según la Factura Electrónica de Venta DIAN (Colombia).
package dian

// =============================================================================
// Tabla 3 - Tipos de documento de identidad (Anexo 1.9 - 13.2.1)
// La DIAN exige el código numérico, no la sigla.
// =============================================================================

const (
	DocTypeCodeNIT       = "31" // NIT - requiere dígito de verificación
	DocTypeCodeCC        = "13" // Cédula de ciudadanía
	DocTypeCodeCE        = "22" // Cédula de extranjería
	DocTypeCodePasaporte = "41" // Pasaporte
	DocTypeCodeTI        = "12" // Tarjeta de identidad
	DocTypeCodeRC        = "11" // Registro civil
)

// documentTypeCodes mapea la sigla usada en el sistema al código DIAN.
var documentTypeCodes = map[string]string{
	"NIT":       DocTypeCodeNIT,
	"CC":        DocTypeCodeCC,
	"CE":        DocTypeCodeCE,
	"Pasaporte": DocTypeCodePasaporte,
	"TI":        DocTypeCodeTI,
	"RC":        DocTypeCodeRC,
}

// DocumentTypeCode devuelve el código DIAN para la sigla dada.
// Las siglas no mapeadas caen en "13" (cédula de ciudadanía).
func DocumentTypeCode(documentType string) string {
	if code, ok := documentTypeCodes[documentType]; ok {
		return code
	}
	return DocTypeCodeCC
}

// ValidDocumentTypes contiene las siglas de documento aceptadas.
var ValidDocumentTypes = map[string]bool{
	"NIT": true, "CC": true, "CE": true, "Pasaporte": true, "TI": true, "RC": true,
}

// =============================================================================
// Tabla 6 - Unidades de Medida (Anexo 1.9 - 13.3.6, @unitCode)
// =============================================================================

const (
	UnitUnit        = "94"  // Unidad
	UnitKilogram    = "KGM" // Kilogramo
	UnitGram        = "GRM" // Gramo
	UnitLitre       = "LTR" // Litro
	UnitMetre       = "MTR" // Metro
	UnitSquareMetre = "MTK" // Metro cuadrado
	UnitCubicMetre  = "MTQ" // Metro cúbico
	UnitDozen       = "DZN" // Docena
	UnitHour        = "HUR" // Hora
	UnitDay         = "DAY" // Día
)

// ValidUnitMeasures códigos de unidad de medida aceptados en líneas de factura.
var ValidUnitMeasures = map[string]bool{
	UnitUnit: true, UnitKilogram: true, UnitGram: true, UnitLitre: true,
	UnitMetre: true, UnitSquareMetre: true, UnitCubicMetre: true,
	UnitDozen: true, UnitHour: true, UnitDay: true,
}

// =============================================================================
// Tabla 14 - Forma de Pago (Anexo 1.9 - 13.3.4.1)
// =============================================================================

const (
	PaymentFormCodeContado = "1" // Contado
	PaymentFormCodeCredito = "2" // Crédito
)

// PaymentFormCode devuelve el código DIAN para la forma de pago del sistema.
func PaymentFormCode(paymentMethod string) string {
	if paymentMethod == "Crédito" {
		return PaymentFormCodeCredito
	}
	return PaymentFormCodeContado
}

// =============================================================================
// Tabla 13 - Medios de Pago (Anexo 1.9 - 13.3.4.2), códigos de uso frecuente
// =============================================================================

const (
	PaymentMeansCodeEfectivo       = "10" // Efectivo
	PaymentMeansCodeTransferencia  = "47" // Transferencia Débito Bancaria
	PaymentMeansCodeTarjetaCredito = "48" // Tarjeta Crédito
	PaymentMeansCodeTarjetaDebito  = "49" // Tarjeta Débito
)

// paymentMeansCodes mapea el medio de pago del sistema al código DIAN.
var paymentMeansCodes = map[string]string{
	"Efectivo":        PaymentMeansCodeEfectivo,
	"Transferencia":   PaymentMeansCodeTransferencia,
	"Tarjeta Crédito": PaymentMeansCodeTarjetaCredito,
	"Tarjeta Débito":  PaymentMeansCodeTarjetaDebito,
}

// PaymentMeansCode devuelve el código DIAN para el medio de pago.
// Los medios no mapeados caen en efectivo.
func PaymentMeansCode(paymentMeans string) string {
	if code, ok := paymentMeansCodes[paymentMeans]; ok {
		return code
	}
	return PaymentMeansCodeEfectivo
}

// =============================================================================
// Tabla 11 - Tipos de Impuesto (Anexo 1.9 - 13.2.2)
// =============================================================================

const (
	TaxCodeIVA     = "01" // IVA
	TaxCodeINC     = "04" // Impuesto Nacional al Consumo
	TaxCodeReteIVA = "05" // Retención sobre el IVA
)

// Ambientes de operación del WS DIAN.
const (
	EnvironmentProduction   = "1" // Producción
	EnvironmentHabilitacion = "2" // Habilitación (pruebas)
)
