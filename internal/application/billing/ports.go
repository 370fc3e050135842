package billing

import (
	"context"

	"github.com/jfacosta/facturapos-api/internal/domain/entity"
	"github.com/jfacosta/facturapos-api/internal/domain/repository"
)

// TxRepos agrupa los repositorios atados a una misma transacción.
type TxRepos struct {
	Companies   repository.CompanyRepository
	Customers   repository.CustomerRepository
	Resolutions repository.ResolutionRepository
	Invoices    repository.InvoiceRepository
}

// TxRunner ejecuta una función dentro de una transacción de base de datos.
// El caller que arma la transacción es dueño del commit/rollback: si fn
// retorna error, nada de lo hecho adentro queda visible. Así la creación de
// factura puede anidarse en una transacción de venta mayor sin duplicar la
// lógica de cierre.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos TxRepos) error) error
}

// InvoicePDFGenerator genera la representación gráfica de la factura.
type InvoicePDFGenerator interface {
	GenerateInvoicePDF(
		ctx context.Context,
		invoice *entity.Invoice,
		company *entity.Company,
		customer *entity.Customer,
		items []*entity.InvoiceItem,
	) ([]byte, error)
}
