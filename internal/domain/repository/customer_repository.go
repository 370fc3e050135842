package repository

import (
	"context"

	"github.com/jfacosta/facturapos-api/internal/domain/entity"
)

// CustomerRepository define el puerto de persistencia para adquirientes.
type CustomerRepository interface {
	Create(ctx context.Context, customer *entity.Customer) error
	GetByID(ctx context.Context, id string) (*entity.Customer, error)
	// GetByDocument busca por tipo y número de documento dentro de una empresa.
	GetByDocument(ctx context.Context, companyID, documentType, documentNumber string) (*entity.Customer, error)
	Update(ctx context.Context, customer *entity.Customer) error
	ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.Customer, error)
	Delete(ctx context.Context, id string) error
}
