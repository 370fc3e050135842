package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jfacosta/facturapos-api/internal/application/auth"
	"github.com/jfacosta/facturapos-api/internal/application/billing"
	domaindian "github.com/jfacosta/facturapos-api/internal/domain/dian"
	infradian "github.com/jfacosta/facturapos-api/internal/infrastructure/dian"
	"github.com/jfacosta/facturapos-api/internal/infrastructure/dian/signer"
	"github.com/jfacosta/facturapos-api/internal/infrastructure/mail"
	infrapdf "github.com/jfacosta/facturapos-api/internal/infrastructure/pdf"
	"github.com/jfacosta/facturapos-api/internal/infrastructure/postgres"
	httpRouter "github.com/jfacosta/facturapos-api/internal/interfaces/http"
	"github.com/jfacosta/facturapos-api/pkg/config"
	"github.com/jfacosta/facturapos-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("dian_env", cfg.DIAN.AppEnv).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	companyRepo := postgres.NewCompanyRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	codeRepo := postgres.NewVerificationCodeRepository(pool)
	customerRepo := postgres.NewCustomerRepository(pool)
	resolutionRepo := postgres.NewResolutionRepository(pool)
	invoiceRepo := postgres.NewInvoiceRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Facturación: numeración consecutiva + CUFE dentro de una transacción
	sequencer := billing.NewResolutionSequencer()
	invoiceSvc := billing.NewInvoiceService(
		txRunner, sequencer, invoiceRepo, customerRepo,
		cfg.DIAN.Environment, log,
	)

	// Validador de cumplimiento: reglas del régimen colombiano
	rules := domaindian.DefaultRules()
	if cfg.DIAN.MaxInvoiceAgeMonths > 0 {
		rules.MaxInvoiceAgeMonths = cfg.DIAN.MaxInvoiceAgeMonths
	}
	validator := domaindian.NewValidator(rules)
	validateUC := billing.NewValidateInvoiceUseCase(
		invoiceRepo, companyRepo, customerRepo, resolutionRepo, validator, log,
	)

	// Cliente DIAN: SOAP real en test/prod, simulador en dev.
	var dianSubmitter infradian.Submitter
	if cfg.DIAN.AppEnv == infradian.AppEnvDev || cfg.DIAN.AppEnv == "" {
		dianSubmitter = infradian.NewMockClient()
	} else {
		dianSubmitter = infradian.NewSOAPClient()
	}

	// DIANOrchestrator: validar → XML UBL → XAdES-EPES → ZIP → SOAP → update DB
	xmlBuilder := infradian.NewXMLBuilderService()
	signerSvc := signer.NewXAdESService()
	orchestrator := billing.NewDIANOrchestrator(
		invoiceRepo, companyRepo, customerRepo, resolutionRepo,
		xmlBuilder, signerSvc, dianSubmitter, validator, cfg.DIAN, log,
	)

	companyUC := billing.NewCompanyUseCase(companyRepo)
	customerUC := billing.NewCustomerUseCase(customerRepo)
	resolutionUC := billing.NewResolutionUseCase(resolutionRepo, log)

	// PDF: representación gráfica de la factura electrónica DIAN
	pdfGenerator := infrapdf.NewMarotoPDFGenerator()
	invoicePDFUC := billing.NewPDFUseCase(
		invoiceRepo, companyRepo, customerRepo, pdfGenerator,
	)

	// Auth en dos pasos: contraseña + código por correo
	mailer := mail.NewSMTPMailer(cfg.SMTP)
	authUC := auth.NewUseCase(userRepo, codeRepo, companyRepo, mailer, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	}, log)

	// Purga periódica de códigos de verificación vencidos
	purgeCtx, stopPurge := context.WithCancel(ctx)
	defer stopPurge()
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-purgeCtx.Done():
				return
			case <-ticker.C:
				if n, err := authUC.PurgeExpiredCodes(purgeCtx); err != nil {
					log.Warn().Err(err).Msg("purga de códigos de verificación")
				} else if n > 0 {
					log.Info().Int64("purged", n).Msg("códigos de verificación vencidos eliminados")
				}
			}
		}
	}()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "FacturaPOS API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:       authUC,
		CompanyUC:    companyUC,
		CustomerUC:   customerUC,
		ResolutionUC: resolutionUC,
		Invoices:     invoiceSvc,
		Validate:     validateUC,
		Orchestrator: orchestrator,
		InvoicePDF:   invoicePDFUC,
		JWTSecret:    cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
