package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrCompanyNotFound    = errors.New("empresa no encontrada")
	ErrCustomerNotFound   = errors.New("cliente no encontrado")
	ErrInvoiceNotFound    = errors.New("factura no encontrada")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")
	ErrInvalidCredentials = errors.New("credenciales inválidas")
	ErrCodeExpired        = errors.New("código de verificación expirado o inválido")
)

// Errores del flujo de numeración y facturación electrónica.
// Distinguirlos importa operativamente: "resolución agotada" se resuelve pidiendo
// una nueva resolución a la DIAN; "número duplicado" indica un bug de concurrencia
// o un consecutivo corrupto y debe investigarse, nunca reintentarse a ciegas.
var (
	ErrResolutionNotFound     = errors.New("resolución no encontrada")
	ErrNoActiveResolution     = errors.New("no hay resolución de facturación activa")
	ErrResolutionExhausted    = errors.New("resolución agotada")
	ErrDuplicateInvoiceNumber = errors.New("número de factura ya existe")
	ErrInvoiceAlreadyAccepted = errors.New("la factura ya fue aceptada por la DIAN")
)
