package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jfacosta/facturapos-api/internal/application/billing"
)

var _ billing.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL con
// repositorios atados a la tx. El lock FOR UPDATE que toma el secuenciador
// vive exactamente lo que vive la transacción.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace
// Commit si fn retorna nil o Rollback en caso contrario.
func (r *TxRunner) Run(ctx context.Context, fn func(repos billing.TxRepos) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	repos := billing.TxRepos{
		Companies:   NewCompanyRepository(tx),
		Customers:   NewCustomerRepository(tx),
		Resolutions: NewResolutionRepository(tx),
		Invoices:    NewInvoiceRepository(tx),
	}
	if err := fn(repos); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
