package entity

import (
	"strings"
	"time"
)

// Tipos de documento de identidad aceptados por la DIAN para el adquiriente.
const (
	DocumentTypeNIT       = "NIT"
	DocumentTypeCC        = "CC"        // Cédula de ciudadanía
	DocumentTypeCE        = "CE"        // Cédula de extranjería
	DocumentTypePasaporte = "Pasaporte" // Pasaporte
	DocumentTypeTI        = "TI"        // Tarjeta de identidad
	DocumentTypeRC        = "RC"        // Registro civil
)

// Customer representa un cliente (adquiriente) de la empresa.
type Customer struct {
	ID             string
	CompanyID      string
	DocumentType   string // NIT, CC, CE, Pasaporte, TI, RC
	DocumentNumber string
	DV             string // solo para NIT
	BusinessName   string
	FirstName      string
	LastName       string
	Email          string
	Phone          string
	Address        string
	City           string
	Department     string
	Country        string
	TaxRegime      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// DisplayName devuelve la razón social o, en su defecto, nombre y apellido.
func (c *Customer) DisplayName() string {
	if strings.TrimSpace(c.BusinessName) != "" {
		return c.BusinessName
	}
	return strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
}
