package dto

import "time"

// RegisterRequest alta de usuario.
type RegisterRequest struct {
	CompanyID string `json:"company_id"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FullName  string `json:"full_name"`
	Role      string `json:"role"` // admin, cashier
}

// LoginRequest primer paso del login: email y contraseña.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginChallengeResponse respuesta al primer paso: el código fue enviado por
// correo y el cliente debe canjearlo en /verify.
type LoginChallengeResponse struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

// VerifyCodeRequest segundo paso del login: canje del código 2FA.
type VerifyCodeRequest struct {
	UserID string `json:"user_id"`
	Code   string `json:"code"`
}

// TokenResponse token emitido tras el segundo factor.
type TokenResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// UserResponse usuario en las respuestas; nunca expone el hash de contraseña.
type UserResponse struct {
	ID          string     `json:"id"`
	CompanyID   string     `json:"company_id"`
	Email       string     `json:"email"`
	FullName    string     `json:"full_name"`
	Role        string     `json:"role"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}
