package entity

import "time"

// VerificationCode es un código de un solo uso enviado por correo para el
// segundo factor de autenticación.
type VerificationCode struct {
	ID        string
	UserID    string
	Code      string // 6 dígitos
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// Expired indica si el código ya no puede canjearse.
func (v *VerificationCode) Expired(now time.Time) bool {
	return now.After(v.ExpiresAt)
}

// Used indica si el código ya fue canjeado.
func (v *VerificationCode) Used() bool {
	return v.UsedAt != nil
}
