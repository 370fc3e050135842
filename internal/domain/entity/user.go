package entity

import "time"

// Roles de usuario.
const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)

// User es un usuario del sistema, asociado a una empresa emisora.
type User struct {
	ID           string
	CompanyID    string
	Email        string
	PasswordHash string
	FullName     string
	Role         string
	IsActive     bool
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
