package entity

import "time"

// Company representa la empresa emisora de las facturas (enfoque Colombia).
// NIT y DV se almacenan por separado; el DV se valida contra el algoritmo
// módulo 11 de la DIAN, nunca se deriva en el momento de facturar.
type Company struct {
	ID           string
	BusinessName string
	NIT          string // solo dígitos
	DV           string // dígito de verificación (1 carácter)
	Address      string
	City         string
	Department   string
	Country      string
	Phone        string
	Email        string
	TaxRegime    string

	// Configuración DIAN (habilitación y firma)
	TestSetID           string
	SoftwareID          string
	SoftwarePIN         string
	CertificatePath     string
	CertificatePassword string

	CreatedAt time.Time
	UpdatedAt time.Time
}
