package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jfacosta/facturapos-api/internal/application/dto"
	"github.com/jfacosta/facturapos-api/internal/domain"
	"github.com/jfacosta/facturapos-api/internal/domain/entity"
	"github.com/jfacosta/facturapos-api/internal/domain/repository"
	"github.com/jfacosta/facturapos-api/pkg/dian"
	"github.com/jfacosta/facturapos-api/pkg/logger"
)

// CufeFunc calcula el CUFE; se inyecta para poder forzar su fallo en pruebas
// de atomicidad.
type CufeFunc func(*dian.CufeParams) (string, error)

// InvoiceService es la única operación transaccional que convierte una
// solicitud cruda de líneas en una factura persistida, numerada y con CUFE.
// O queda la factura completa, o no queda nada: nunca un número consumido sin
// factura, ni una factura sin número o sin CUFE.
type InvoiceService struct {
	txRunner    TxRunner
	sequencer   *ResolutionSequencer
	invoiceRepo repository.InvoiceRepository
	customers   repository.CustomerRepository
	cufeFn      CufeFunc
	now         func() time.Time
	environment string // "1" producción, "2" habilitación; solo afecta la URL del QR
	log         *logger.Logger
}

// NewInvoiceService construye el servicio de facturación.
func NewInvoiceService(
	txRunner TxRunner,
	sequencer *ResolutionSequencer,
	invoiceRepo repository.InvoiceRepository,
	customers repository.CustomerRepository,
	environment string,
	log *logger.Logger,
) *InvoiceService {
	return &InvoiceService{
		txRunner:    txRunner,
		sequencer:   sequencer,
		invoiceRepo: invoiceRepo,
		customers:   customers,
		cufeFn:      dian.GenerateCufe,
		now:         time.Now,
		environment: environment,
		log:         log,
	}
}

// WithCufeFunc reemplaza el cálculo de CUFE. Lo usan las pruebas de
// atomicidad para inyectar un fallo después de la asignación de número.
func (s *InvoiceService) WithCufeFunc(fn CufeFunc) *InvoiceService {
	s.cufeFn = fn
	return s
}

// WithClock fija el reloj; lo usan las pruebas.
func (s *InvoiceService) WithClock(fn func() time.Time) *InvoiceService {
	s.now = fn
	return s
}

// CreateInvoice abre su propia transacción y delega en CreateInvoiceInTx.
func (s *InvoiceService) CreateInvoice(ctx context.Context, companyID string, in dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	var inv *entity.Invoice
	var items []*entity.InvoiceItem
	var customerName string

	err := s.txRunner.Run(ctx, func(repos TxRepos) error {
		var err error
		inv, items, err = s.CreateInvoiceInTx(ctx, repos, companyID, in)
		if err != nil {
			return err
		}
		if customer, cerr := repos.Customers.GetByID(ctx, inv.CustomerID); cerr == nil {
			customerName = customer.DisplayName()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("invoice_id", inv.ID).
		Str("full_number", inv.FullNumber).
		Str("total", inv.Total.StringFixed(2)).
		Msg("factura creada")

	return toInvoiceResponse(inv, customerName, items), nil
}

// CreateInvoiceInTx ejecuta el ensamblaje dentro de una transacción del
// caller: valida entidades, calcula montos, reserva el consecutivo, persiste
// cabecera y líneas, y calcula y persiste el CUFE. El caller es dueño del
// commit/rollback; cualquier error aquí debe abortar su transacción completa.
func (s *InvoiceService) CreateInvoiceInTx(ctx context.Context, repos TxRepos, companyID string, in dto.CreateInvoiceRequest) (*entity.Invoice, []*entity.InvoiceItem, error) {
	if companyID == "" || in.CustomerID == "" || len(in.Items) == 0 {
		return nil, nil, fmt.Errorf("%w: se requieren empresa, cliente y al menos una línea", domain.ErrInvalidInput)
	}

	// 1. Resolver entidades; fallo temprano si falta alguna.
	company, err := repos.Companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, nil, err
	}
	customer, err := repos.Customers.GetByID(ctx, in.CustomerID)
	if err != nil {
		return nil, nil, err
	}
	if customer.CompanyID != companyID {
		return nil, nil, domain.ErrForbidden
	}

	// 2. Montos por línea y acumulados. Redondeo a 2 decimales en cada paso,
	// el mismo que re-aplica el validador.
	now := s.now()
	var subtotalTotal, taxTotal decimal.Decimal
	items := make([]*entity.InvoiceItem, 0, len(in.Items))
	for i, raw := range in.Items {
		if !raw.Quantity.IsPositive() {
			return nil, nil, fmt.Errorf("%w: línea %d: la cantidad debe ser mayor que cero", domain.ErrInvalidInput, i+1)
		}
		if raw.UnitPrice.IsNegative() {
			return nil, nil, fmt.Errorf("%w: línea %d: el precio unitario no puede ser negativo", domain.ErrInvalidInput, i+1)
		}
		if strings.TrimSpace(raw.Name) == "" {
			return nil, nil, fmt.Errorf("%w: línea %d: el nombre del producto es obligatorio", domain.ErrInvalidInput, i+1)
		}
		unitMeasure := raw.UnitMeasure
		if unitMeasure == "" {
			unitMeasure = dian.UnitUnit
		}
		lineSubtotal := raw.Quantity.Mul(raw.UnitPrice).Round(2)
		lineIva := lineSubtotal.Mul(raw.IvaPercentage).Div(decimal.NewFromInt(100)).Round(2)
		items = append(items, &entity.InvoiceItem{
			LineNumber:    i + 1,
			Code:          raw.Code,
			Name:          raw.Name,
			Description:   raw.Description,
			Quantity:      raw.Quantity,
			UnitMeasure:   unitMeasure,
			UnitPrice:     raw.UnitPrice,
			IvaPercentage: raw.IvaPercentage,
			IvaAmount:     lineIva,
			Subtotal:      lineSubtotal,
			Total:         lineSubtotal.Add(lineIva),
		})
		subtotalTotal = subtotalTotal.Add(lineSubtotal)
		taxTotal = taxTotal.Add(lineIva)
	}
	total := subtotalTotal.Add(taxTotal)

	// 3. Fechas: emisión (override o ahora), hora, vencimiento si hay plazo.
	issueDate := in.IssueDate
	if issueDate == "" {
		issueDate = now.Format("2006-01-02")
	} else if _, perr := time.Parse("2006-01-02", issueDate); perr != nil {
		return nil, nil, fmt.Errorf("%w: fecha de emisión inválida: %q", domain.ErrInvalidInput, in.IssueDate)
	}
	issueTime := now.Format("15:04:05")
	dueDate := ""
	if in.DueDays > 0 {
		base, _ := time.Parse("2006-01-02", issueDate)
		dueDate = base.AddDate(0, 0, in.DueDays).Format("2006-01-02")
	}
	paymentMethod := in.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = entity.PaymentMethodContado
	}
	if paymentMethod == entity.PaymentMethodCredito && dueDate == "" {
		return nil, nil, fmt.Errorf("%w: venta a crédito requiere días de plazo", domain.ErrInvalidInput)
	}

	// 4. Reservar el consecutivo. Un fallo aquí aborta todo: no se persiste
	// una factura sin número.
	resolution, number, fullNumber, err := s.sequencer.AllocateNext(ctx, repos, companyID)
	if err != nil {
		return nil, nil, err
	}

	// 5. Persistir cabecera en draft y todas las líneas.
	inv := &entity.Invoice{
		CompanyID:     companyID,
		ResolutionID:  resolution.ID,
		CustomerID:    customer.ID,
		Prefix:        resolution.Prefix,
		Number:        number,
		FullNumber:    fullNumber,
		IssueDate:     issueDate,
		IssueTime:     issueTime,
		DueDate:       dueDate,
		Subtotal:      subtotalTotal,
		TaxTotal:      taxTotal,
		Total:         total,
		Status:        entity.InvoiceStatusDraft,
		PaymentMethod: paymentMethod,
		PaymentMeans:  in.PaymentMeans,
		Notes:         in.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := repos.Invoices.Create(ctx, inv); err != nil {
		return nil, nil, err
	}
	for _, item := range items {
		item.InvoiceID = inv.ID
		if err := repos.Invoices.CreateItem(ctx, item); err != nil {
			return nil, nil, err
		}
	}

	// 6. CUFE sobre los campos ya definitivos; un fallo revierte también el
	// consecutivo reservado.
	cufe, err := s.cufeFn(&dian.CufeParams{
		FullNumber:      fullNumber,
		IssueDate:       issueDate,
		IssueTime:       issueTime,
		Subtotal:        subtotalTotal,
		TaxTotal:        taxTotal,
		Total:           total,
		IssuerNIT:       company.NIT,
		CustomerDocType: customer.DocumentType,
		CustomerDocNum:  customer.DocumentNumber,
		TechnicalKey:    resolution.TechnicalKey,
		TestSetID:       company.TestSetID,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("calcular CUFE: %w", err)
	}
	inv.CUFE = cufe
	inv.QRData = BuildQRData(inv, s.environment)
	if err := repos.Invoices.Update(ctx, inv); err != nil {
		return nil, nil, err
	}
	return inv, items, nil
}

// GetInvoice obtiene una factura con sus líneas.
func (s *InvoiceService) GetInvoice(ctx context.Context, companyID, id string) (*dto.InvoiceResponse, error) {
	inv, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	items, err := s.invoiceRepo.GetItemsByInvoiceID(ctx, id)
	if err != nil {
		return nil, err
	}
	customerName := ""
	if customer, cerr := s.customers.GetByID(ctx, inv.CustomerID); cerr == nil {
		customerName = customer.DisplayName()
	}
	return toInvoiceResponse(inv, customerName, items), nil
}

// ListInvoices lista las facturas de la empresa con filtros opcionales.
func (s *InvoiceService) ListInvoices(ctx context.Context, companyID string, filter repository.InvoiceFilter) ([]*dto.InvoiceResponse, error) {
	invoices, err := s.invoiceRepo.ListByCompany(ctx, companyID, filter)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, toInvoiceResponse(inv, "", nil))
	}
	return out, nil
}

// CancelInvoice anula una factura que aún no fue aceptada por la DIAN.
func (s *InvoiceService) CancelInvoice(ctx context.Context, companyID, id, reason string) (*dto.InvoiceResponse, error) {
	inv, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	if inv.Status == entity.InvoiceStatusAccepted {
		return nil, domain.ErrInvoiceAlreadyAccepted
	}
	if inv.Status == entity.InvoiceStatusCancelled {
		return nil, fmt.Errorf("%w: la factura ya está anulada", domain.ErrConflict)
	}
	inv.Status = entity.InvoiceStatusCancelled
	if reason != "" {
		inv.Notes = strings.TrimSpace(inv.Notes + "\nAnulación: " + reason)
	}
	if err := s.invoiceRepo.Update(ctx, inv); err != nil {
		return nil, err
	}
	s.log.Info().Str("invoice_id", id).Str("full_number", inv.FullNumber).Msg("factura anulada")
	return toInvoiceResponse(inv, "", nil), nil
}

// dianQRValidationURL es la URL pública de verificación del documento.
const dianQRValidationURL = "https://catalogo-vpfe.dian.gov.co/document/searchqr?documentkey="

// BuildQRData genera el contenido del QR:
// NumFac|FecFac|ValFac|CodImp|ValImp|Cufe|UrlValidacion.
func BuildQRData(inv *entity.Invoice, environment string) string {
	_ = environment // habilitación y producción comparten catálogo de consulta
	return strings.Join([]string{
		inv.FullNumber,
		inv.IssueDate,
		inv.Total.Round(2).StringFixed(2),
		dian.TaxCodeIVA,
		inv.TaxTotal.Round(2).StringFixed(2),
		inv.CUFE,
		dianQRValidationURL + inv.CUFE,
	}, "|")
}

func toInvoiceResponse(inv *entity.Invoice, customerName string, items []*entity.InvoiceItem) *dto.InvoiceResponse {
	resp := &dto.InvoiceResponse{
		ID:            inv.ID,
		CompanyID:     inv.CompanyID,
		CustomerID:    inv.CustomerID,
		CustomerName:  customerName,
		Prefix:        inv.Prefix,
		Number:        inv.Number,
		FullNumber:    inv.FullNumber,
		IssueDate:     inv.IssueDate,
		IssueTime:     inv.IssueTime,
		DueDate:       inv.DueDate,
		Subtotal:      inv.Subtotal,
		TaxTotal:      inv.TaxTotal,
		Total:         inv.Total,
		Status:        inv.Status,
		CUFE:          inv.CUFE,
		QRData:        inv.QRData,
		PaymentMethod: inv.PaymentMethod,
		PaymentMeans:  inv.PaymentMeans,
		Notes:         inv.Notes,
	}
	if inv.DIANSentAt != nil {
		resp.DIANSentAt = inv.DIANSentAt.Format(time.RFC3339)
	}
	for _, item := range items {
		resp.Items = append(resp.Items, dto.InvoiceItemResponse{
			ID:            item.ID,
			LineNumber:    item.LineNumber,
			Code:          item.Code,
			Name:          item.Name,
			Description:   item.Description,
			Quantity:      item.Quantity,
			UnitMeasure:   item.UnitMeasure,
			UnitPrice:     item.UnitPrice,
			IvaPercentage: item.IvaPercentage,
			IvaAmount:     item.IvaAmount,
			Subtotal:      item.Subtotal,
			Total:         item.Total,
		})
	}
	return resp
}
