// Package dian: cálculo del CUFE (Código Único de Factura Electrónica).
// Algoritmo: SHA-384 sobre la cadena de concatenación en orden estricto,
// salida en hexadecimal minúscula (96 caracteres).

package dian

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// CufeLength es la longitud del CUFE en caracteres hexadecimales (SHA-384).
const CufeLength = 96

// CufeParams contiene los datos de la cadena CUFE en el orden en que se
// concatenan. Se construye desde Invoice + Company + Customer + Resolution
// en la capa de aplicación; el cálculo en sí es una función pura.
type CufeParams struct {
	FullNumber     string          // prefijo + consecutivo, sin espacios
	IssueDate      string          // fecha de emisión; se reduce a dígitos (YYYYMMDD)
	IssueTime      string          // HH:mm:ss
	Subtotal       decimal.Decimal
	TaxTotal       decimal.Decimal // IVA (código 01)
	Total          decimal.Decimal
	IssuerNIT      string // NIT emisor, solo dígitos, sin DV
	CustomerDocType string // sigla del sistema: NIT, CC, CE, Pasaporte, TI, RC
	CustomerDocNum string
	TechnicalKey   string // clave técnica de la resolución
	TestSetID      string // identificador del set de pruebas / ambiente
}

// GenerateCufe calcula el CUFE. Función pura: entradas idénticas producen
// siempre la misma salida.
//
// Cadena: NumFac + FecFac + HorFac + ValFac + "01" + ValIva +
// "0" + "0.00" + "0" + "0.00" + ValTot + NitOfe + TipAdq + NumAdq +
// ClTec + TestSetId. Los impuestos 2 y 3 (INC, bolsas) van siempre en cero.
func GenerateCufe(p *CufeParams) (string, error) {
	if p == nil {
		return "", fmt.Errorf("dian: CufeParams es obligatorio")
	}
	fullNumber := strings.Join(strings.Fields(p.FullNumber), "")
	if fullNumber == "" {
		return "", fmt.Errorf("dian: número de factura es obligatorio para el CUFE")
	}
	issueDate := onlyDigits(p.IssueDate)
	if len(issueDate) != 8 {
		return "", fmt.Errorf("dian: fecha de emisión inválida para el CUFE: %q", p.IssueDate)
	}
	if p.IssueTime == "" {
		return "", fmt.Errorf("dian: hora de emisión es obligatoria para el CUFE")
	}
	issuerNIT := onlyDigits(p.IssuerNIT)
	if issuerNIT == "" {
		return "", fmt.Errorf("dian: NIT del emisor es obligatorio para el CUFE")
	}
	if p.CustomerDocNum == "" {
		return "", fmt.Errorf("dian: documento del adquiriente es obligatorio para el CUFE")
	}
	if p.TechnicalKey == "" {
		return "", fmt.Errorf("dian: clave técnica es obligatoria para el CUFE")
	}

	var b strings.Builder
	b.WriteString(fullNumber)
	b.WriteString(issueDate)
	b.WriteString(p.IssueTime)
	b.WriteString(formatCufeAmount(p.Subtotal))
	b.WriteString(TaxCodeIVA)
	b.WriteString(formatCufeAmount(p.TaxTotal))
	b.WriteString("0")
	b.WriteString("0.00")
	b.WriteString("0")
	b.WriteString("0.00")
	b.WriteString(formatCufeAmount(p.Total))
	b.WriteString(issuerNIT)
	b.WriteString(DocumentTypeCode(p.CustomerDocType))
	b.WriteString(p.CustomerDocNum)
	b.WriteString(p.TechnicalKey)
	b.WriteString(p.TestSetID)

	hash := sha512.Sum384([]byte(b.String()))
	return hex.EncodeToString(hash[:]), nil
}

// formatCufeAmount formatea un monto para la cadena CUFE: punto decimal,
// exactamente 2 decimales, sin separador de miles.
func formatCufeAmount(d decimal.Decimal) string {
	return d.Round(2).StringFixed(2)
}

// onlyDigits deja solo los dígitos 0-9 de la cadena.
func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
