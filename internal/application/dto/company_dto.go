package dto

// CreateCompanyRequest alta de empresa emisora.
type CreateCompanyRequest struct {
	BusinessName string `json:"business_name"`
	NIT          string `json:"nit"`
	DV           string `json:"dv"`
	Address      string `json:"address"`
	City         string `json:"city"`
	Department   string `json:"department"`
	Country      string `json:"country"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	TaxRegime    string `json:"tax_regime"`
}

// UpdateCompanyRequest actualización parcial de la empresa; los campos vacíos
// no se tocan.
type UpdateCompanyRequest struct {
	BusinessName string `json:"business_name"`
	Address      string `json:"address"`
	City         string `json:"city"`
	Department   string `json:"department"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	TaxRegime    string `json:"tax_regime"`
}

// UpdateDIANSettingsRequest configura la integración DIAN de la empresa.
type UpdateDIANSettingsRequest struct {
	TestSetID           string `json:"test_set_id"`
	SoftwareID          string `json:"software_id"`
	SoftwarePIN         string `json:"software_pin"`
	CertificatePath     string `json:"certificate_path"`
	CertificatePassword string `json:"certificate_password"`
}

// CompanyResponse es la empresa en las respuestas. Nunca expone el PIN ni la
// contraseña del certificado.
type CompanyResponse struct {
	ID           string `json:"id"`
	BusinessName string `json:"business_name"`
	NIT          string `json:"nit"`
	DV           string `json:"dv"`
	Address      string `json:"address,omitempty"`
	City         string `json:"city,omitempty"`
	Department   string `json:"department,omitempty"`
	Country      string `json:"country,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty"`
	TaxRegime    string `json:"tax_regime,omitempty"`
	TestSetID    string `json:"test_set_id,omitempty"`
	SoftwareID   string `json:"software_id,omitempty"`
	HasCert      bool   `json:"has_certificate"`
}

// CreateResolutionRequest registra una resolución de numeración DIAN.
type CreateResolutionRequest struct {
	ResolutionNumber string `json:"resolution_number"`
	ResolutionDate   string `json:"resolution_date"` // YYYY-MM-DD
	Prefix           string `json:"prefix"`
	FromNumber       int64  `json:"from_number"`
	ToNumber         int64  `json:"to_number"`
	TechnicalKey     string `json:"technical_key"`
	ValidFrom        string `json:"valid_from"` // YYYY-MM-DD
	ValidTo          string `json:"valid_to"`   // YYYY-MM-DD
	// Activate activa la resolución de inmediato, desactivando las demás.
	Activate bool `json:"activate"`
}

// ResolutionResponse es la resolución en las respuestas.
type ResolutionResponse struct {
	ID               string `json:"id"`
	CompanyID        string `json:"company_id"`
	ResolutionNumber string `json:"resolution_number"`
	ResolutionDate   string `json:"resolution_date"`
	Prefix           string `json:"prefix"`
	FromNumber       int64  `json:"from_number"`
	ToNumber         int64  `json:"to_number"`
	CurrentNumber    int64  `json:"current_number"`
	Remaining        int64  `json:"remaining"`
	ValidFrom        string `json:"valid_from"`
	ValidTo          string `json:"valid_to"`
	IsActive         bool   `json:"is_active"`
}
