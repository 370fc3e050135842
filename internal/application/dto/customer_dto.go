package dto

// CreateCustomerRequest alta de cliente (adquiriente).
type CreateCustomerRequest struct {
	DocumentType   string `json:"document_type"` // NIT, CC, CE, Pasaporte, TI, RC
	DocumentNumber string `json:"document_number"`
	DV             string `json:"dv,omitempty"` // solo NIT
	BusinessName   string `json:"business_name,omitempty"`
	FirstName      string `json:"first_name,omitempty"`
	LastName       string `json:"last_name,omitempty"`
	Email          string `json:"email"`
	Phone          string `json:"phone,omitempty"`
	Address        string `json:"address"`
	City           string `json:"city,omitempty"`
	Department     string `json:"department,omitempty"`
	TaxRegime      string `json:"tax_regime,omitempty"`
}

// UpdateCustomerRequest actualización parcial; los campos vacíos no se tocan.
// El documento no se puede cambiar: identifica al cliente ante la DIAN.
type UpdateCustomerRequest struct {
	BusinessName string `json:"business_name"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	City         string `json:"city"`
	Department   string `json:"department"`
	TaxRegime    string `json:"tax_regime"`
}

// CustomerResponse es el cliente en las respuestas.
type CustomerResponse struct {
	ID             string `json:"id"`
	CompanyID      string `json:"company_id"`
	DocumentType   string `json:"document_type"`
	DocumentNumber string `json:"document_number"`
	DV             string `json:"dv,omitempty"`
	DisplayName    string `json:"display_name"`
	BusinessName   string `json:"business_name,omitempty"`
	FirstName      string `json:"first_name,omitempty"`
	LastName       string `json:"last_name,omitempty"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Address        string `json:"address,omitempty"`
	City           string `json:"city,omitempty"`
	Department     string `json:"department,omitempty"`
	TaxRegime      string `json:"tax_regime,omitempty"`
}
