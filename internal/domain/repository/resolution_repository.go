package repository

import (
	"context"

	"github.com/jfacosta/facturapos-api/internal/domain/entity"
)

// ResolutionRepository define el puerto de persistencia para resoluciones de
// numeración DIAN.
type ResolutionRepository interface {
	Create(ctx context.Context, res *entity.Resolution) error
	GetByID(ctx context.Context, id string) (*entity.Resolution, error)

	// GetActiveByCompany devuelve la resolución activa de la empresa.
	// Hay a lo sumo una: la activación de una resolución desactiva las demás.
	GetActiveByCompany(ctx context.Context, companyID string) (*entity.Resolution, error)

	// GetForUpdate re-lee la resolución con bloqueo de fila (FOR UPDATE).
	// Solo tiene sentido dentro de una transacción: es el punto de
	// serialización de la asignación de consecutivos.
	GetForUpdate(ctx context.Context, id string) (*entity.Resolution, error)

	ListByCompany(ctx context.Context, companyID string) ([]*entity.Resolution, error)
	Update(ctx context.Context, res *entity.Resolution) error

	// UpdateCurrentNumber persiste únicamente el consecutivo asignado.
	UpdateCurrentNumber(ctx context.Context, id string, currentNumber int64) error

	// DeactivateByCompany desactiva todas las resoluciones de la empresa.
	// Se invoca antes de activar una nueva para sostener la unicidad de
	// resolución activa.
	DeactivateByCompany(ctx context.Context, companyID string) error
}
