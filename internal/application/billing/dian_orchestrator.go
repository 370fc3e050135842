package billing

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	infradian "github.com/jfacosta/facturapos-api/internal/infrastructure/dian"
	"github.com/jfacosta/facturapos-api/internal/infrastructure/dian/signer"

	"github.com/jfacosta/facturapos-api/internal/application/dto"
	"github.com/jfacosta/facturapos-api/internal/domain"
	domaindian "github.com/jfacosta/facturapos-api/internal/domain/dian"
	"github.com/jfacosta/facturapos-api/internal/domain/entity"
	"github.com/jfacosta/facturapos-api/internal/domain/repository"
	"github.com/jfacosta/facturapos-api/pkg/config"
	pkgdian "github.com/jfacosta/facturapos-api/pkg/dian"
	"github.com/jfacosta/facturapos-api/pkg/logger"
)

// DIANOrchestrator orquesta el ciclo completo de transmisión electrónica:
//
//	Validación → XML UBL 2.1 → Firma XAdES-EPES → ZIP → Envío SOAP → Update DB
//
// La factura ya existe con número y CUFE asignados en la transacción de
// creación; la transmisión ocurre después y nunca la deshace: un fallo de
// transporte deja la factura en estado "error" con el detalle en
// dian_response, pero el número consumido y el CUFE siguen siendo válidos.
//
// Modos de operación (controlados por DIANConfig.AppEnv):
//   - "dev"  → Genera, firma si hay certificado, y simula la respuesta DIAN.
//   - "test" → Envía al ambiente de habilitación vpfe-hab.dian.gov.co.
//   - "prod" → Envía al ambiente de producción vpfe.dian.gov.co.
type DIANOrchestrator struct {
	invoiceRepo    repository.InvoiceRepository
	companyRepo    repository.CompanyRepository
	customerRepo   repository.CustomerRepository
	resolutionRepo repository.ResolutionRepository
	xmlBuilder     *infradian.XMLBuilderService
	signer         pkgdian.Signer
	submitter      infradian.Submitter // nil solo en dev
	validator      *domaindian.Validator
	cfg            config.DIANConfig
	log            *logger.Logger
}

// NewDIANOrchestrator construye el orquestador con todas sus dependencias.
// submitter puede ser nil: en ese caso solo funciona el modo dev.
func NewDIANOrchestrator(
	invoiceRepo repository.InvoiceRepository,
	companyRepo repository.CompanyRepository,
	customerRepo repository.CustomerRepository,
	resolutionRepo repository.ResolutionRepository,
	xmlBuilder *infradian.XMLBuilderService,
	sig pkgdian.Signer,
	submitter infradian.Submitter,
	validator *domaindian.Validator,
	cfg config.DIANConfig,
	log *logger.Logger,
) *DIANOrchestrator {
	return &DIANOrchestrator{
		invoiceRepo:    invoiceRepo,
		companyRepo:    companyRepo,
		customerRepo:   customerRepo,
		resolutionRepo: resolutionRepo,
		xmlBuilder:     xmlBuilder,
		signer:         sig,
		submitter:      submitter,
		validator:      validator,
		cfg:            cfg,
		log:            log,
	}
}

// SendAsync dispara la transmisión en una goroutine independiente, con su
// propio context.Background() + timeout 30 s, desacoplada del ciclo HTTP.
func (o *DIANOrchestrator) SendAsync(companyID, invoiceID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := o.Send(ctx, companyID, invoiceID); err != nil {
			o.log.Error().Err(err).
				Str("invoice_id", invoiceID).
				Msg("transmisión DIAN asíncrona fallida")
		}
	}()
}

// Send ejecuta la transmisión completa de una factura ya numerada.
// Estados de partida permitidos: draft, rejected, error (reintento).
// Siempre termina actualizando el estado en DB (sent, accepted, rejected o error).
func (o *DIANOrchestrator) Send(ctx context.Context, companyID, invoiceID string) (*dto.SendInvoiceResponse, error) {
	inv, err := o.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	switch inv.Status {
	case entity.InvoiceStatusAccepted:
		return nil, domain.ErrInvoiceAlreadyAccepted
	case entity.InvoiceStatusCancelled, entity.InvoiceStatusSent:
		return nil, fmt.Errorf("%w: la factura está en estado %q", domain.ErrConflict, inv.Status)
	}

	// markError deja la factura en "error" con el detalle; el número y el CUFE
	// consumidos siguen siendo válidos y la transmisión se puede reintentar.
	markError := func(step, msg string) {
		inv.Status = entity.InvoiceStatusError
		inv.DIANResponse = fmt.Sprintf(`{"step":%q,"error":%q}`, step, msg)
		if uErr := o.invoiceRepo.Update(ctx, inv); uErr != nil {
			o.log.Error().Err(uErr).
				Str("invoice_id", invoiceID).
				Msg("no se pudo persistir el estado de error")
		}
		o.log.Error().
			Str("invoice_id", invoiceID).
			Str("step", step).
			Str("detail", msg).
			Msg("transmisión DIAN fallida")
	}

	company, err := o.companyRepo.GetByID(ctx, inv.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("cargar empresa: %w", err)
	}
	customer, err := o.customerRepo.GetByID(ctx, inv.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("cargar cliente: %w", err)
	}
	resolution, err := o.resolutionRepo.GetByID(ctx, inv.ResolutionID)
	if err != nil {
		return nil, fmt.Errorf("cargar resolución: %w", err)
	}
	items, err := o.invoiceRepo.GetItemsByInvoiceID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("cargar ítems: %w", err)
	}

	// ---- Validación de cumplimiento previa al envío
	report := o.validator.Validate(&domaindian.ValidationInput{
		Invoice:    inv,
		Items:      items,
		Company:    company,
		Customer:   customer,
		Resolution: resolution,
	})
	if !report.Valid {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(report.Errors, "; "))
	}

	// ---- XML UBL 2.1
	xmlBytes, err := o.xmlBuilder.Build(&infradian.InvoiceBuildContext{
		Invoice:     inv,
		Company:     company,
		Customer:    customer,
		Items:       items,
		Resolution:  resolution,
		Environment: o.environment(),
	})
	if err != nil {
		markError("xml-build", err.Error())
		return nil, err
	}

	// ---- Firma digital XAdES-EPES
	appEnv := strings.ToLower(strings.TrimSpace(o.cfg.AppEnv))
	cert, err := o.loadCertificate(company)
	if err != nil {
		if appEnv != infradian.AppEnvDev && appEnv != "" {
			markError("cert-load", err.Error())
			return nil, err
		}
		// En dev un certificado ilegible no bloquea: se transmite sin firmar.
		o.log.Warn().Err(err).
			Str("invoice_id", invoiceID).
			Msg("certificado no disponible, se envía sin firmar")
		cert = tls.Certificate{}
	}
	signedXML := xmlBytes
	if len(cert.Certificate) > 0 && cert.PrivateKey != nil {
		signedXML, err = o.signer.Sign(xmlBytes, cert)
		if err != nil {
			markError("xml-sign", err.Error())
			return nil, err
		}
	} else if appEnv != infradian.AppEnvDev && appEnv != "" {
		err := fmt.Errorf("certificado vacío: verifica DIAN_CERT_PATH y DIAN_CERT_PASSWORD")
		markError("cert-load", err.Error())
		return nil, err
	}

	// Persistir el XML firmado y marcar como enviada antes de contactar a la
	// DIAN: si el proceso muere a mitad, el documento queda disponible.
	now := time.Now()
	inv.XMLContent = string(signedXML)
	inv.Status = entity.InvoiceStatusSent
	inv.DIANSentAt = &now
	if err := o.invoiceRepo.Update(ctx, inv); err != nil {
		return nil, fmt.Errorf("persistir XML firmado: %w", err)
	}

	// ---- ZIP con el nombre exigido por la DIAN
	xmlName, zipName := infradian.DIANFilenames(company, inv)
	zipBytes, err := infradian.CompressXMLToZip(signedXML, xmlName)
	if err != nil {
		markError("zip", err.Error())
		return nil, err
	}

	// ---- Envío según entorno
	var result *infradian.SubmitResult
	switch appEnv {
	case infradian.AppEnvDev, "":
		if o.submitter != nil {
			result, err = o.submitter.SubmitZip(ctx, zipBytes, zipName, infradian.AppEnvTest, company.TestSetID)
		} else {
			// Sin submitter: simulación mínima en memoria.
			result = &infradian.SubmitResult{
				TrackID:  "DEMO-" + inv.FullNumber,
				Accepted: true,
				Raw:      `{"simulated":true}`,
			}
		}
		o.log.Info().
			Str("invoice_id", invoiceID).
			Str("zip", zipName).
			Int("bytes", len(zipBytes)).
			Msg("modo dev: envío DIAN simulado")

	case infradian.AppEnvTest, infradian.AppEnvProd:
		if o.submitter == nil {
			err := fmt.Errorf("submitter DIAN no configurado para entorno %q", appEnv)
			markError("soap", err.Error())
			return nil, err
		}
		result, err = o.submitter.SubmitZip(ctx, zipBytes, zipName, appEnv, company.TestSetID)

	default:
		err := fmt.Errorf("DIAN_ENV desconocido: %q (usar dev|test|prod)", appEnv)
		markError("config", err.Error())
		return nil, err
	}

	if err != nil {
		// Fallo de transporte: la factura queda en "error" pero nunca se
		// revierte; el reintento reutiliza el mismo número y CUFE.
		markError("soap", err.Error())
		return nil, err
	}

	// ---- Persistir resultado final
	if result.Accepted {
		inv.Status = entity.InvoiceStatusAccepted
	} else {
		inv.Status = entity.InvoiceStatusRejected
	}
	inv.DIANResponse = result.Raw
	if err := o.invoiceRepo.Update(ctx, inv); err != nil {
		return nil, fmt.Errorf("persistir estado final: %w", err)
	}

	evt := o.log.Info()
	if !result.Accepted {
		evt = o.log.Warn()
	}
	evt.Str("invoice_id", invoiceID).
		Str("status", inv.Status).
		Str("track_id", result.TrackID).
		Msg("transmisión DIAN finalizada")

	msg := result.Errors
	if result.Accepted {
		msg = "documento aceptado"
	}
	return &dto.SendInvoiceResponse{
		InvoiceID: invoiceID,
		Status:    inv.Status,
		TrackID:   result.TrackID,
		Message:   msg,
	}, nil
}

func (o *DIANOrchestrator) environment() string {
	if o.cfg.Environment == "" {
		return pkgdian.EnvironmentHabilitacion
	}
	return o.cfg.Environment
}

// loadCertificate resuelve el certificado de firma: el configurado por empresa
// tiene prioridad sobre el global del servicio.
func (o *DIANOrchestrator) loadCertificate(company *entity.Company) (tls.Certificate, error) {
	if company.CertificatePath != "" {
		return signer.LoadCertificate(company.CertificatePath, "", company.CertificatePassword)
	}
	return signer.LoadCertificate(o.cfg.CertPath, o.cfg.CertKeyPath, o.cfg.CertPassword)
}
