// Package auth implementa registro y login en dos pasos: contraseña + código
// de verificación de un solo uso enviado por correo.
package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/jfacosta/facturapos-api/internal/application/dto"
	"github.com/jfacosta/facturapos-api/internal/domain"
	"github.com/jfacosta/facturapos-api/internal/domain/entity"
	"github.com/jfacosta/facturapos-api/internal/domain/repository"
	"github.com/jfacosta/facturapos-api/pkg/jwt"
	"github.com/jfacosta/facturapos-api/pkg/logger"
)

// Vigencia del código 2FA.
const codeTTL = 10 * time.Minute

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret     string
	ExpMinutes int
	Issuer     string
}

// Mailer es el puerto de salida del correo de verificación.
type Mailer interface {
	SendVerificationCode(to, code string) error
}

// UseCase casos de uso de autenticación.
type UseCase struct {
	users     repository.UserRepository
	codes     repository.VerificationCodeRepository
	companies repository.CompanyRepository
	mailer    Mailer
	jwtCfg    JWTConfig
	now       func() time.Time
	genCode   func() (string, error)
	log       *logger.Logger
}

// NewUseCase construye el caso de uso de auth.
func NewUseCase(
	users repository.UserRepository,
	codes repository.VerificationCodeRepository,
	companies repository.CompanyRepository,
	mailer Mailer,
	jwtCfg JWTConfig,
	log *logger.Logger,
) *UseCase {
	return &UseCase{
		users:     users,
		codes:     codes,
		companies: companies,
		mailer:    mailer,
		jwtCfg:    jwtCfg,
		now:       time.Now,
		genCode:   randomCode,
		log:       log,
	}
}

// WithClock fija el reloj; lo usan las pruebas.
func (uc *UseCase) WithClock(fn func() time.Time) *UseCase {
	uc.now = fn
	return uc
}

// WithCodeGenerator reemplaza la generación del código; lo usan las pruebas.
func (uc *UseCase) WithCodeGenerator(fn func() (string, error)) *UseCase {
	uc.genCode = fn
	return uc
}

// Register crea un usuario con la contraseña hasheada con bcrypt.
func (uc *UseCase) Register(ctx context.Context, in dto.RegisterRequest) (*dto.UserResponse, error) {
	if in.Email == "" || in.Password == "" || in.CompanyID == "" {
		return nil, fmt.Errorf("%w: email, contraseña y empresa son obligatorios", domain.ErrInvalidInput)
	}
	if len(in.Password) < 8 {
		return nil, fmt.Errorf("%w: la contraseña debe tener al menos 8 caracteres", domain.ErrInvalidInput)
	}
	if _, err := uc.companies.GetByID(ctx, in.CompanyID); err != nil {
		return nil, err
	}
	if existing, _ := uc.users.GetByEmail(ctx, in.Email); existing != nil {
		return nil, fmt.Errorf("%w: el email ya está registrado", domain.ErrDuplicate)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	role := in.Role
	if role == "" {
		role = entity.RoleCashier
	}
	now := uc.now()
	user := &entity.User{
		CompanyID:    in.CompanyID,
		Email:        in.Email,
		PasswordHash: string(hash),
		FullName:     in.FullName,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.users.Create(ctx, user); err != nil {
		return nil, err
	}
	uc.log.Info().Str("user_id", user.ID).Str("company_id", user.CompanyID).Msg("usuario registrado")
	return toUserResponse(user), nil
}

// Login verifica email/contraseña y, si son correctos, genera un código de un
// solo uso y lo envía por correo. El token solo se emite en VerifyCode.
//
// Contraseña incorrecta y usuario inexistente devuelven el mismo error: no se
// filtra cuáles emails existen.
func (uc *UseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginChallengeResponse, error) {
	user, err := uc.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, domain.ErrForbidden
	}

	code, err := uc.genCode()
	if err != nil {
		return nil, fmt.Errorf("generar código: %w", err)
	}
	vc := &entity.VerificationCode{
		UserID:    user.ID,
		Code:      code,
		ExpiresAt: uc.now().Add(codeTTL),
		CreatedAt: uc.now(),
	}
	if err := uc.codes.Create(ctx, vc); err != nil {
		return nil, err
	}
	if err := uc.mailer.SendVerificationCode(user.Email, code); err != nil {
		return nil, err
	}

	uc.log.Info().Str("user_id", user.ID).Msg("código de verificación enviado")
	return &dto.LoginChallengeResponse{
		UserID:  user.ID,
		Message: "código de verificación enviado al correo registrado",
	}, nil
}

// VerifyCode canjea el código 2FA: si es vigente y coincide, marca el código
// como usado, registra el login y emite el JWT.
func (uc *UseCase) VerifyCode(ctx context.Context, in dto.VerifyCodeRequest) (*dto.TokenResponse, error) {
	user, err := uc.users.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	vc, err := uc.codes.GetLatestByUser(ctx, user.ID)
	if err != nil {
		return nil, domain.ErrCodeExpired
	}
	now := uc.now()
	if vc.Used() || vc.Expired(now) || vc.Code != in.Code {
		return nil, domain.ErrCodeExpired
	}
	if err := uc.codes.MarkUsed(ctx, vc.ID); err != nil {
		return nil, err
	}

	user.LastLoginAt = &now
	user.UpdatedAt = now
	if err := uc.users.Update(ctx, user); err != nil {
		return nil, err
	}

	token, err := jwt.Generate(uc.jwtCfg.Secret, user.ID, user.CompanyID, user.Role, uc.jwtCfg.Issuer, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("user_id", user.ID).Msg("login verificado")
	return &dto.TokenResponse{Token: token, User: *toUserResponse(user)}, nil
}

// PurgeExpiredCodes elimina los códigos vencidos; pensado para un barrido
// periódico desde main.
func (uc *UseCase) PurgeExpiredCodes(ctx context.Context) (int64, error) {
	return uc.codes.DeleteExpired(ctx)
}

// randomCode genera seis dígitos con crypto/rand.
func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func toUserResponse(u *entity.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:          u.ID,
		CompanyID:   u.CompanyID,
		Email:       u.Email,
		FullName:    u.FullName,
		Role:        u.Role,
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
	}
}
