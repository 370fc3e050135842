package billing_test

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jfacosta/facturapos-api/internal/application/billing"
	"github.com/jfacosta/facturapos-api/internal/domain"
	"github.com/jfacosta/facturapos-api/internal/domain/entity"
	"github.com/jfacosta/facturapos-api/internal/domain/repository"
	"github.com/jfacosta/facturapos-api/pkg/logger"
)

// memStore es el almacén en memoria compartido por los repos falsos.
// Guarda copias por valor: los punteros que entrega nunca son los internos,
// así una mutación del caller sin Update no "persiste" por accidente.
type memStore struct {
	companies   map[string]entity.Company
	customers   map[string]entity.Customer
	resolutions map[string]entity.Resolution
	invoices    map[string]entity.Invoice
	items       map[string][]entity.InvoiceItem // por invoiceID
	seq         int
}

func newMemStore() *memStore {
	return &memStore{
		companies:   map[string]entity.Company{},
		customers:   map[string]entity.Customer{},
		resolutions: map[string]entity.Resolution{},
		invoices:    map[string]entity.Invoice{},
		items:       map[string][]entity.InvoiceItem{},
	}
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *memStore) clone() *memStore {
	c := newMemStore()
	c.seq = s.seq
	for k, v := range s.companies {
		c.companies[k] = v
	}
	for k, v := range s.customers {
		c.customers[k] = v
	}
	for k, v := range s.resolutions {
		c.resolutions[k] = v
	}
	for k, v := range s.invoices {
		c.invoices[k] = v
	}
	for k, v := range s.items {
		c.items[k] = append([]entity.InvoiceItem(nil), v...)
	}
	return c
}

func (s *memStore) repos() billing.TxRepos {
	return billing.TxRepos{
		Companies:   &memCompanyRepo{s},
		Customers:   &memCustomerRepo{s},
		Resolutions: &memResolutionRepo{s},
		Invoices:    &memInvoiceRepo{s},
	}
}

// memTxRunner simula la transacción con copy-on-error: toma una instantánea
// del almacén y la restaura completa si fn falla. Reproduce la semántica de
// rollback que las pruebas de atomicidad necesitan observar.
type memTxRunner struct {
	store *memStore
}

var _ billing.TxRunner = (*memTxRunner)(nil)

func (r *memTxRunner) Run(_ context.Context, fn func(billing.TxRepos) error) error {
	snapshot := r.store.clone()
	if err := fn(r.store.repos()); err != nil {
		*r.store = *snapshot
		return err
	}
	return nil
}

// ── Repos ─────────────────────────────────────────────────────────────────────

type memCompanyRepo struct{ s *memStore }

var _ repository.CompanyRepository = (*memCompanyRepo)(nil)

func (r *memCompanyRepo) Create(_ context.Context, c *entity.Company) error {
	if c.ID == "" {
		c.ID = r.s.nextID("co")
	}
	r.s.companies[c.ID] = *c
	return nil
}

func (r *memCompanyRepo) GetByID(_ context.Context, id string) (*entity.Company, error) {
	c, ok := r.s.companies[id]
	if !ok {
		return nil, domain.ErrCompanyNotFound
	}
	return &c, nil
}

func (r *memCompanyRepo) GetByNIT(_ context.Context, nit string) (*entity.Company, error) {
	for _, c := range r.s.companies {
		if c.NIT == nit {
			out := c
			return &out, nil
		}
	}
	return nil, domain.ErrCompanyNotFound
}

func (r *memCompanyRepo) Update(_ context.Context, c *entity.Company) error {
	if _, ok := r.s.companies[c.ID]; !ok {
		return domain.ErrCompanyNotFound
	}
	r.s.companies[c.ID] = *c
	return nil
}

func (r *memCompanyRepo) List(_ context.Context, _, _ int) ([]*entity.Company, error) {
	out := make([]*entity.Company, 0, len(r.s.companies))
	for _, c := range r.s.companies {
		cc := c
		out = append(out, &cc)
	}
	return out, nil
}

type memCustomerRepo struct{ s *memStore }

var _ repository.CustomerRepository = (*memCustomerRepo)(nil)

func (r *memCustomerRepo) Create(_ context.Context, c *entity.Customer) error {
	if c.ID == "" {
		c.ID = r.s.nextID("cu")
	}
	r.s.customers[c.ID] = *c
	return nil
}

func (r *memCustomerRepo) GetByID(_ context.Context, id string) (*entity.Customer, error) {
	c, ok := r.s.customers[id]
	if !ok {
		return nil, domain.ErrCustomerNotFound
	}
	return &c, nil
}

func (r *memCustomerRepo) GetByDocument(_ context.Context, companyID, docType, docNum string) (*entity.Customer, error) {
	for _, c := range r.s.customers {
		if c.CompanyID == companyID && c.DocumentType == docType && c.DocumentNumber == docNum {
			out := c
			return &out, nil
		}
	}
	return nil, domain.ErrCustomerNotFound
}

func (r *memCustomerRepo) Update(_ context.Context, c *entity.Customer) error {
	if _, ok := r.s.customers[c.ID]; !ok {
		return domain.ErrCustomerNotFound
	}
	r.s.customers[c.ID] = *c
	return nil
}

func (r *memCustomerRepo) ListByCompany(_ context.Context, companyID string, _, _ int) ([]*entity.Customer, error) {
	var out []*entity.Customer
	for _, c := range r.s.customers {
		if c.CompanyID == companyID {
			cc := c
			out = append(out, &cc)
		}
	}
	return out, nil
}

func (r *memCustomerRepo) Delete(_ context.Context, id string) error {
	delete(r.s.customers, id)
	return nil
}

type memResolutionRepo struct{ s *memStore }

var _ repository.ResolutionRepository = (*memResolutionRepo)(nil)

func (r *memResolutionRepo) Create(_ context.Context, res *entity.Resolution) error {
	if res.ID == "" {
		res.ID = r.s.nextID("res")
	}
	r.s.resolutions[res.ID] = *res
	return nil
}

func (r *memResolutionRepo) GetByID(_ context.Context, id string) (*entity.Resolution, error) {
	res, ok := r.s.resolutions[id]
	if !ok {
		return nil, domain.ErrResolutionNotFound
	}
	return &res, nil
}

func (r *memResolutionRepo) GetActiveByCompany(_ context.Context, companyID string) (*entity.Resolution, error) {
	for _, res := range r.s.resolutions {
		if res.CompanyID == companyID && res.IsActive {
			out := res
			return &out, nil
		}
	}
	return nil, domain.ErrNoActiveResolution
}

func (r *memResolutionRepo) GetForUpdate(ctx context.Context, id string) (*entity.Resolution, error) {
	// En memoria no hay lock de fila; las pruebas son secuenciales.
	return r.GetByID(ctx, id)
}

func (r *memResolutionRepo) ListByCompany(_ context.Context, companyID string) ([]*entity.Resolution, error) {
	var out []*entity.Resolution
	for _, res := range r.s.resolutions {
		if res.CompanyID == companyID {
			rr := res
			out = append(out, &rr)
		}
	}
	return out, nil
}

func (r *memResolutionRepo) Update(_ context.Context, res *entity.Resolution) error {
	if _, ok := r.s.resolutions[res.ID]; !ok {
		return domain.ErrResolutionNotFound
	}
	r.s.resolutions[res.ID] = *res
	return nil
}

func (r *memResolutionRepo) UpdateCurrentNumber(_ context.Context, id string, currentNumber int64) error {
	res, ok := r.s.resolutions[id]
	if !ok {
		return domain.ErrResolutionNotFound
	}
	res.CurrentNumber = currentNumber
	r.s.resolutions[id] = res
	return nil
}

func (r *memResolutionRepo) DeactivateByCompany(_ context.Context, companyID string) error {
	for id, res := range r.s.resolutions {
		if res.CompanyID == companyID && res.IsActive {
			res.IsActive = false
			r.s.resolutions[id] = res
		}
	}
	return nil
}

type memInvoiceRepo struct{ s *memStore }

var _ repository.InvoiceRepository = (*memInvoiceRepo)(nil)

func (r *memInvoiceRepo) Create(_ context.Context, inv *entity.Invoice) error {
	for _, existing := range r.s.invoices {
		if existing.CompanyID == inv.CompanyID && existing.Prefix == inv.Prefix && existing.Number == inv.Number {
			return domain.ErrDuplicateInvoiceNumber
		}
	}
	if inv.ID == "" {
		inv.ID = r.s.nextID("inv")
	}
	r.s.invoices[inv.ID] = *inv
	return nil
}

func (r *memInvoiceRepo) CreateItem(_ context.Context, item *entity.InvoiceItem) error {
	if item.ID == "" {
		item.ID = r.s.nextID("item")
	}
	r.s.items[item.InvoiceID] = append(r.s.items[item.InvoiceID], *item)
	return nil
}

func (r *memInvoiceRepo) ExistsByNumber(_ context.Context, companyID, prefix string, number int64) (bool, error) {
	for _, inv := range r.s.invoices {
		if inv.CompanyID == companyID && inv.Prefix == prefix && inv.Number == number {
			return true, nil
		}
	}
	return false, nil
}

func (r *memInvoiceRepo) GetByID(_ context.Context, id string) (*entity.Invoice, error) {
	inv, ok := r.s.invoices[id]
	if !ok {
		return nil, domain.ErrInvoiceNotFound
	}
	return &inv, nil
}

func (r *memInvoiceRepo) GetItemsByInvoiceID(_ context.Context, invoiceID string) ([]*entity.InvoiceItem, error) {
	stored := r.s.items[invoiceID]
	out := make([]*entity.InvoiceItem, 0, len(stored))
	for _, it := range stored {
		item := it
		out = append(out, &item)
	}
	return out, nil
}

func (r *memInvoiceRepo) ListByCompany(_ context.Context, companyID string, filter repository.InvoiceFilter) ([]*entity.Invoice, error) {
	var out []*entity.Invoice
	for _, inv := range r.s.invoices {
		if inv.CompanyID != companyID {
			continue
		}
		if filter.Status != "" && inv.Status != filter.Status {
			continue
		}
		if filter.CustomerID != "" && inv.CustomerID != filter.CustomerID {
			continue
		}
		ii := inv
		out = append(out, &ii)
	}
	return out, nil
}

func (r *memInvoiceRepo) Update(_ context.Context, inv *entity.Invoice) error {
	if _, ok := r.s.invoices[inv.ID]; !ok {
		return domain.ErrInvoiceNotFound
	}
	r.s.invoices[inv.ID] = *inv
	return nil
}

// ── Fixtures ──────────────────────────────────────────────────────────────────

// Reloj fijo para que fechas y CUFE sean reproducibles.
var testNow = time.Date(2026, 8, 30, 14, 30, 0, 0, time.UTC)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Env: "production", Level: "error"})
}

// seedBilling puebla empresa, cliente y resolución activa coherentes entre sí.
func seedBilling(s *memStore) (companyID, customerID, resolutionID string) {
	repos := s.repos()
	ctx := context.Background()

	company := &entity.Company{
		BusinessName: "Comercial La Esquina SAS",
		NIT:          "900999999",
		DV:           "4",
		Address:      "Cra 10 # 20-30",
		City:         "Bogotá",
		Department:   "Cundinamarca",
		Phone:        "3015551234",
		Email:        "facturacion@laesquina.co",
		TaxRegime:    "Responsable de IVA",
		SoftwareID:   "soft-123",
		SoftwarePIN:  "54321",
		// Ruta inexistente a propósito: en modo dev se transmite sin firmar.
		CertificatePath: "/certs/laesquina.p12",
	}
	_ = repos.Companies.Create(ctx, company)

	customer := &entity.Customer{
		CompanyID:      company.ID,
		DocumentType:   "CC",
		DocumentNumber: "1030612345",
		FirstName:      "Laura",
		LastName:       "Pérez",
		Email:          "laura.perez@example.com",
		Phone:          "3109876543",
		Address:        "Cll 45 # 7-12",
		TaxRegime:      "No responsable",
	}
	_ = repos.Customers.Create(ctx, customer)

	resolution := &entity.Resolution{
		CompanyID:        company.ID,
		ResolutionNumber: "18764003688414",
		Prefix:           "SETP",
		FromNumber:       1,
		ToNumber:         999999,
		CurrentNumber:    0,
		TechnicalKey:     "fc8eac422eba16e22ffd8c6f94b3f40a6e38162c354673d3a603956897890cd",
		ValidFrom:        time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		ValidTo:          time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
		IsActive:         true,
	}
	_ = repos.Resolutions.Create(ctx, resolution)

	return company.ID, customer.ID, resolution.ID
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }
