package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jfacosta/facturapos-api/internal/domain"
	"github.com/jfacosta/facturapos-api/internal/domain/entity"
	"github.com/jfacosta/facturapos-api/internal/domain/repository"
)

var _ repository.VerificationCodeRepository = (*VerificationCodeRepo)(nil)

// VerificationCodeRepo implementa VerificationCodeRepository sobre PostgreSQL.
type VerificationCodeRepo struct {
	q Querier
}

func NewVerificationCodeRepository(q Querier) *VerificationCodeRepo {
	return &VerificationCodeRepo{q: q}
}

func (r *VerificationCodeRepo) Create(ctx context.Context, code *entity.VerificationCode) error {
	if code.ID == "" {
		code.ID = uuid.New().String()
	}
	const q = `
		INSERT INTO verification_codes (id, user_id, code, expires_at, created_at)
		VALUES ($1, $2, $3, $4, now())`
	if _, err := r.q.Exec(ctx, q, code.ID, code.UserID, code.Code, code.ExpiresAt); err != nil {
		return fmt.Errorf("insert verification code: %w", err)
	}
	return nil
}

func (r *VerificationCodeRepo) GetLatestByUser(ctx context.Context, userID string) (*entity.VerificationCode, error) {
	const q = `
		SELECT id, user_id, code, expires_at, used_at, created_at
		FROM verification_codes
		WHERE user_id = $1 AND used_at IS NULL
		ORDER BY created_at DESC
		LIMIT 1`
	var vc entity.VerificationCode
	err := r.q.QueryRow(ctx, q, userID).Scan(
		&vc.ID, &vc.UserID, &vc.Code, &vc.ExpiresAt, &vc.UsedAt, &vc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCodeExpired
		}
		return nil, fmt.Errorf("get verification code: %w", err)
	}
	return &vc, nil
}

func (r *VerificationCodeRepo) MarkUsed(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `UPDATE verification_codes SET used_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark verification code used: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCodeExpired
	}
	return nil
}

func (r *VerificationCodeRepo) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM verification_codes WHERE expires_at < now()`)
	if err != nil {
		return 0, fmt.Errorf("delete expired verification codes: %w", err)
	}
	return tag.RowsAffected(), nil
}
