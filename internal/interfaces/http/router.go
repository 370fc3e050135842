package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jfacosta/facturapos-api/internal/application/auth"
	"github.com/jfacosta/facturapos-api/internal/application/billing"
	"github.com/jfacosta/facturapos-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC       *auth.UseCase
	CompanyUC    *billing.CompanyUseCase
	CustomerUC   *billing.CustomerUseCase
	ResolutionUC *billing.ResolutionUseCase
	Invoices     *billing.InvoiceService
	Validate     *billing.ValidateInvoiceUseCase
	Orchestrator *billing.DIANOrchestrator
	InvoicePDF   *billing.PDFUseCase
	JWTSecret    string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api/v1")

	// Auth (público): registro + login en dos pasos
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/verify", authHandler.Verify)

	// Alta de empresa (público; el primer admin se registra después contra ella)
	companyHandler := NewCompanyHandler(deps.CompanyUC)
	api.Post("/companies", companyHandler.Create)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Empresa del token
	companies := protected.Group("/companies")
	companies.Get("/me", companyHandler.Get)
	companies.Put("/me", RequireRole(entity.RoleAdmin), companyHandler.Update)
	companies.Put("/me/dian", RequireRole(entity.RoleAdmin), companyHandler.UpdateDIANSettings)

	// Resoluciones de numeración (solo admin)
	resolutions := protected.Group("/resolutions", RequireRole(entity.RoleAdmin))
	resolutionHandler := NewResolutionHandler(deps.ResolutionUC)
	resolutions.Post("/", resolutionHandler.Create)
	resolutions.Get("/", resolutionHandler.List)
	resolutions.Get("/active", resolutionHandler.GetActive)
	resolutions.Post("/:id/activate", resolutionHandler.Activate)

	// Clientes (adquirientes)
	customers := protected.Group("/customers")
	customerHandler := NewCustomerHandler(deps.CustomerUC)
	customers.Post("/", customerHandler.Create)
	customers.Get("/", customerHandler.List)
	customers.Get("/:id", customerHandler.GetByID)
	customers.Put("/:id", customerHandler.Update)
	customers.Delete("/:id", RequireRole(entity.RoleAdmin), customerHandler.Delete)

	// Facturas
	invoices := protected.Group("/invoices")
	invoiceHandler := NewInvoiceHandler(deps.Invoices, deps.Validate, deps.Orchestrator, deps.InvoicePDF)
	invoices.Post("/", invoiceHandler.Create)
	invoices.Get("/", invoiceHandler.List)
	invoices.Get("/:id", invoiceHandler.GetByID)
	invoices.Post("/:id/validate", invoiceHandler.Validate)
	invoices.Post("/:id/send", invoiceHandler.Send)
	invoices.Post("/:id/cancel", invoiceHandler.Cancel)
	invoices.Get("/:id/pdf", invoiceHandler.DownloadPDF)
}
