package repository

import (
	"context"

	"github.com/jfacosta/facturapos-api/internal/domain/entity"
)

// VerificationCodeRepository define el puerto de persistencia para códigos 2FA.
type VerificationCodeRepository interface {
	Create(ctx context.Context, code *entity.VerificationCode) error
	// GetLatestByUser devuelve el código más reciente sin canjear del usuario.
	GetLatestByUser(ctx context.Context, userID string) (*entity.VerificationCode, error)
	MarkUsed(ctx context.Context, id string) error
	// DeleteExpired elimina códigos vencidos; lo invoca un barrido periódico.
	DeleteExpired(ctx context.Context) (int64, error)
}
