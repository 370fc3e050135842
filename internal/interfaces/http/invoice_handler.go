package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jfacosta/facturapos-api/internal/application/billing"
	"github.com/jfacosta/facturapos-api/internal/application/dto"
	"github.com/jfacosta/facturapos-api/internal/domain"
	"github.com/jfacosta/facturapos-api/internal/domain/repository"
)

// InvoiceHandler maneja el ciclo de vida HTTP de la factura electrónica:
// creación, consulta, validación de cumplimiento, transmisión a la DIAN,
// anulación y descarga del PDF.
type InvoiceHandler struct {
	invoices     *billing.InvoiceService
	validator    *billing.ValidateInvoiceUseCase
	orchestrator *billing.DIANOrchestrator
	pdf          *billing.PDFUseCase
}

// NewInvoiceHandler construye el handler.
func NewInvoiceHandler(
	invoices *billing.InvoiceService,
	validator *billing.ValidateInvoiceUseCase,
	orchestrator *billing.DIANOrchestrator,
	pdf *billing.PDFUseCase,
) *InvoiceHandler {
	return &InvoiceHandler{
		invoices:     invoices,
		validator:    validator,
		orchestrator: orchestrator,
		pdf:          pdf,
	}
}

// Create godoc
// @Summary      Crear factura (numera y calcula CUFE, queda en borrador)
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateInvoiceRequest  true  "Factura"
// @Success      201   {object}  dto.InvoiceResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/v1/invoices [post]
func (h *InvoiceHandler) Create(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.CreateInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	invoice, err := h.invoices.CreateInvoice(c.Context(), companyID, in)
	if err != nil {
		if errors.Is(err, domain.ErrNoActiveResolution) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "NO_ACTIVE_RESOLUTION", Message: "no hay resolución de facturación activa"})
		}
		if errors.Is(err, domain.ErrResolutionExhausted) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "RESOLUTION_EXHAUSTED", Message: "la resolución activa agotó su rango de numeración"})
		}
		if errors.Is(err, domain.ErrDuplicateInvoiceNumber) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE_NUMBER", Message: "número de factura ya existe, reintente"})
		}
		return respondInvoiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(invoice)
}

// GetByID godoc
// @Summary      Obtener factura con sus líneas
// @Tags         invoices
// @Produce      json
// @Param        id  path  string  true  "ID de la factura"
// @Success      200  {object}  dto.InvoiceResponse
// @Router       /api/v1/invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id requerido"})
	}
	invoice, err := h.invoices.GetInvoice(c.Context(), companyID, id)
	if err != nil {
		return respondInvoiceError(c, err)
	}
	return c.JSON(invoice)
}

// List godoc
// @Summary      Listar facturas de la empresa
// @Tags         invoices
// @Produce      json
// @Param        status       query  string  false  "draft|sent|accepted|rejected|cancelled|error"
// @Param        customer_id  query  string  false  "Filtrar por cliente"
// @Param        from         query  string  false  "Fecha de emisión desde (YYYY-MM-DD)"
// @Param        to           query  string  false  "Fecha de emisión hasta (YYYY-MM-DD)"
// @Success      200  {array}  dto.InvoiceResponse
// @Router       /api/v1/invoices [get]
func (h *InvoiceHandler) List(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "parámetros de paginación inválidos"})
	}
	page.DefaultPage()

	filter := repository.InvoiceFilter{
		Status:     c.Query("status"),
		CustomerID: c.Query("customer_id"),
		Limit:      page.Limit,
		Offset:     page.Offset,
	}
	if from := c.Query("from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "from debe ser YYYY-MM-DD"})
		}
		filter.FromDate = &t
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "to debe ser YYYY-MM-DD"})
		}
		filter.ToDate = &t
	}

	list, err := h.invoices.ListInvoices(c.Context(), companyID, filter)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(list)
}

// Validate godoc
// @Summary      Validar cumplimiento DIAN sin transmitir
// @Tags         invoices
// @Produce      json
// @Param        id  path  string  true  "ID de la factura"
// @Success      200  {object}  dto.ValidationReportResponse
// @Router       /api/v1/invoices/{id}/validate [post]
func (h *InvoiceHandler) Validate(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	report, err := h.validator.Validate(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return respondInvoiceError(c, err)
	}
	return c.JSON(report)
}

// Send godoc
// @Summary      Firmar y transmitir la factura a la DIAN
// @Tags         invoices
// @Produce      json
// @Param        id  path  string  true  "ID de la factura"
// @Success      200  {object}  dto.SendInvoiceResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/v1/invoices/{id}/send [post]
func (h *InvoiceHandler) Send(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	out, err := h.orchestrator.Send(c.Context(), companyID, c.Params("id"))
	if err != nil {
		if errors.Is(err, domain.ErrInvoiceAlreadyAccepted) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "ALREADY_ACCEPTED", Message: "la factura ya fue aceptada por la DIAN"})
		}
		if errors.Is(err, domain.ErrConflict) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: "el estado actual de la factura no permite transmitirla"})
		}
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "COMPLIANCE", Message: err.Error()})
		}
		return respondInvoiceError(c, err)
	}
	return c.JSON(out)
}

// Cancel godoc
// @Summary      Anular factura (solo antes de ser aceptada)
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id    path  string                    true   "ID de la factura"
// @Param        body  body  dto.CancelInvoiceRequest  false  "Motivo"
// @Success      200   {object}  dto.InvoiceResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/v1/invoices/{id}/cancel [post]
func (h *InvoiceHandler) Cancel(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.CancelInvoiceRequest
	// El cuerpo es opcional; un body vacío anula sin motivo.
	_ = c.BodyParser(&in)
	invoice, err := h.invoices.CancelInvoice(c.Context(), companyID, c.Params("id"), in.Reason)
	if err != nil {
		if errors.Is(err, domain.ErrInvoiceAlreadyAccepted) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "ALREADY_ACCEPTED", Message: "una factura aceptada no puede anularse; emita una nota crédito"})
		}
		if errors.Is(err, domain.ErrConflict) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: "el estado actual de la factura no permite anularla"})
		}
		return respondInvoiceError(c, err)
	}
	return c.JSON(invoice)
}

// DownloadPDF godoc
// @Summary      Descargar la representación gráfica (PDF)
// @Tags         invoices
// @Produce      application/pdf
// @Param        id  path  string  true  "ID de la factura"
// @Success      200  {file}  file
// @Router       /api/v1/invoices/{id}/pdf [get]
func (h *InvoiceHandler) DownloadPDF(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	pdfBytes, filename, err := h.pdf.DownloadInvoicePDF(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return respondInvoiceError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(pdfBytes)
}

func respondInvoiceError(c *fiber.Ctx, err error) error {
	if errors.Is(err, domain.ErrInvalidInput) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	if errors.Is(err, domain.ErrForbidden) {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado"})
	}
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvoiceNotFound) ||
		errors.Is(err, domain.ErrCustomerNotFound) || errors.Is(err, domain.ErrCompanyNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}
