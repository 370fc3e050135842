package dian

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ── Constantes de entorno ──────────────────────────────────────────────────────

const (
	// AppEnvTest es el identificador de ambiente de habilitación/pruebas DIAN.
	AppEnvTest = "test"
	// AppEnvProd es el identificador de ambiente de producción DIAN.
	AppEnvProd = "prod"
	// AppEnvDev es el identificador local: no envía al WS DIAN, simula la respuesta.
	AppEnvDev = "dev"

	soapURLTest = "https://vpfe-hab.dian.gov.co/WcfDianCustomerServices.svc"
	soapURLProd = "https://vpfe.dian.gov.co/WcfDianCustomerServices.svc"

	soapNS         = "http://schemas.xmlsoap.org/soap/envelope/"
	soapNSTempuri  = "http://tempuri.org/"
	soapActionBase = "http://tempuri.org/IWcfDianCustomerServices/"
)

// ── Puerto (interfaz) ──────────────────────────────────────────────────────────

// SubmitResult resultado de la entrega al WS DIAN.
type SubmitResult struct {
	TrackID  string // ZipKey devuelto por SendBillAsync / SendTestSetAsync
	Accepted bool   // true si la DIAN aceptó el documento (HasErrors == false)
	Errors   string // mensajes de error/rechazo de la DIAN (puede ser vacío)
	Raw      string // respuesta cruda del WS, se persiste para auditoría
}

// Submitter define el puerto de salida para la entrega de documentos al WS DIAN.
// La implementación concreta usa SOAP; para tests y para el modo dev se inyecta
// MockClient.
type Submitter interface {
	// SubmitZip envía el ZIP del documento electrónico al WS DIAN.
	// env debe ser "test" o "prod"; determina la URL y la operación SOAP.
	// testSetID solo aplica en habilitación (puede ser vacío).
	// filename es el nombre del archivo ZIP (ej: "900999999SETP000001.zip").
	SubmitZip(ctx context.Context, zipBytes []byte, filename, env, testSetID string) (*SubmitResult, error)
}

// ── Implementación SOAP ────────────────────────────────────────────────────────

// SOAPClient implementa Submitter usando el WS SOAP de la DIAN.
// Usa net/http de la stdlib; el contrato WCF de la DIAN no tiene cliente Go publicado.
type SOAPClient struct {
	httpClient *http.Client
}

var _ Submitter = (*SOAPClient)(nil)

// NewSOAPClient construye el cliente SOAP con un timeout de red generoso (60 s)
// ya que el WS DIAN puede tardar varios segundos en responder.
func NewSOAPClient() *SOAPClient {
	return &SOAPClient{
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// ── Estructuras SOAP ──────────────────────────────────────────────────────────

type soapEnvelope struct {
	XMLName xml.Name   `xml:"s:Envelope"`
	XmlnsS  string     `xml:"xmlns:s,attr"`
	Header  soapHeader `xml:"s:Header"`
	Body    soapBody   `xml:"s:Body"`
}

type soapHeader struct{}

type soapBody struct {
	Content interface{}
}

func (b soapBody) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name.Local = "s:Body"
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if err := e.Encode(b.Content); err != nil {
		return err
	}
	return e.EncodeToken(start.End())
}

// sendBillAsyncBody cuerpo para la operación SendBillAsync (producción).
type sendBillAsyncBody struct {
	XMLName     xml.Name `xml:"SendBillAsync"`
	Xmlns       string   `xml:"xmlns,attr"`
	FileName    string   `xml:"fileName"`
	ContentFile string   `xml:"contentFile"` // ZIP en Base64
}

// sendTestSetAsyncBody cuerpo para la operación SendTestSetAsync (habilitación).
type sendTestSetAsyncBody struct {
	XMLName     xml.Name `xml:"SendTestSetAsync"`
	Xmlns       string   `xml:"xmlns,attr"`
	FileName    string   `xml:"fileName"`
	ContentFile string   `xml:"contentFile"` // ZIP en Base64
	TestSetID   string   `xml:"testSetId"`   // ID del set de pruebas asignado por la DIAN
}

// ── Estructuras de respuesta SOAP ─────────────────────────────────────────────

type soapResponseEnvelope struct {
	Body soapResponseBody `xml:"Body"`
}

type soapResponseBody struct {
	SendBillResponse    *sendBillAsyncResponse    `xml:"SendBillAsyncResponse"`
	SendTestSetResponse *sendTestSetAsyncResponse `xml:"SendTestSetAsyncResponse"`
	Fault               *soapFault                `xml:"Fault"`
}

type sendBillAsyncResponse struct {
	Result sendBillAsyncResult `xml:"SendBillAsyncResult"`
}

type sendTestSetAsyncResponse struct {
	Result sendBillAsyncResult `xml:"SendTestSetAsyncResult"`
}

type sendBillAsyncResult struct {
	HasErrors        bool     `xml:"HasErrors"`
	ErrorMessageList []string `xml:"ErrorMessageList>string"`
	ZipKey           string   `xml:"ZipKey"`
}

type soapFault struct {
	FaultCode   string `xml:"faultcode"`
	FaultString string `xml:"faultstring"`
}

// ── SubmitZip ─────────────────────────────────────────────────────────────────

// SubmitZip envía el ZIP al WS DIAN usando la operación SOAP correspondiente al entorno.
func (c *SOAPClient) SubmitZip(ctx context.Context, zipBytes []byte, filename, env, testSetID string) (*SubmitResult, error) {
	soapURL, soapAction, body, err := c.buildRequest(zipBytes, filename, env, testSetID)
	if err != nil {
		return nil, err
	}

	envelope := soapEnvelope{
		XmlnsS: soapNS,
		Body:   soapBody{Content: body},
	}

	xmlPayload, err := xml.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("soap: serializar envelope: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, soapURL,
		bytes.NewReader(xmlPayload))
	if err != nil {
		return nil, fmt.Errorf("soap: crear request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", soapAction)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("soap: timeout o cancelación: %w", ctx.Err())
		}
		return nil, fmt.Errorf("soap: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // max 1 MB
	if err != nil {
		return nil, fmt.Errorf("soap: leer respuesta: %w", err)
	}

	return c.parseResponse(rawBody, env)
}

// buildRequest construye la URL, SOAPAction y body según el entorno.
func (c *SOAPClient) buildRequest(zipBytes []byte, filename, env, testSetID string) (url, action string, body interface{}, err error) {
	b64Content := base64.StdEncoding.EncodeToString(zipBytes)

	switch env {
	case AppEnvProd:
		url = soapURLProd
		action = soapActionBase + "SendBillAsync"
		body = &sendBillAsyncBody{
			Xmlns:       soapNSTempuri,
			FileName:    filename,
			ContentFile: b64Content,
		}
	case AppEnvTest:
		url = soapURLTest
		action = soapActionBase + "SendTestSetAsync"
		body = &sendTestSetAsyncBody{
			Xmlns:       soapNSTempuri,
			FileName:    filename,
			ContentFile: b64Content,
			TestSetID:   testSetID, // vacío: la DIAN asigna uno automáticamente
		}
	default:
		return "", "", nil, fmt.Errorf("soap: entorno desconocido %q (usar 'test' o 'prod')", env)
	}
	return url, action, body, nil
}

// parseResponse desempaqueta la respuesta SOAP y extrae TrackID y errores.
func (c *SOAPClient) parseResponse(rawBody []byte, env string) (*SubmitResult, error) {
	raw := string(rawBody)
	var envResp soapResponseEnvelope
	if err := xml.Unmarshal(rawBody, &envResp); err != nil {
		// Si no podemos parsear, devolvemos el raw como error pero no abortamos.
		return &SubmitResult{
			Accepted: false,
			Errors:   "no se pudo parsear respuesta SOAP",
			Raw:      raw,
		}, nil
	}

	// SOAP Fault (error de protocolo, autenticación, etc.)
	if envResp.Body.Fault != nil {
		return &SubmitResult{
			Accepted: false,
			Errors:   fmt.Sprintf("SOAP Fault [%s]: %s", envResp.Body.Fault.FaultCode, envResp.Body.Fault.FaultString),
			Raw:      raw,
		}, nil
	}

	var result *sendBillAsyncResult
	if env == AppEnvProd && envResp.Body.SendBillResponse != nil {
		result = &envResp.Body.SendBillResponse.Result
	} else if env == AppEnvTest && envResp.Body.SendTestSetResponse != nil {
		result = &envResp.Body.SendTestSetResponse.Result
	}

	if result == nil {
		return &SubmitResult{
			Accepted: false,
			Errors:   "respuesta SOAP vacía o inesperada",
			Raw:      raw,
		}, nil
	}

	return &SubmitResult{
		TrackID:  result.ZipKey,
		Accepted: !result.HasErrors,
		Errors:   strings.Join(result.ErrorMessageList, "; "),
		Raw:      raw,
	}, nil
}

// ── Cliente simulado (modo dev) ───────────────────────────────────────────────

// MockClient simula la respuesta del WS DIAN sin salir a la red.
// Se usa en el entorno "dev" y en los tests del orquestador.
type MockClient struct {
	// Accept controla si la entrega simulada se reporta como aceptada.
	Accept bool
	// RejectMessage mensaje de rechazo cuando Accept es false.
	RejectMessage string
}

var _ Submitter = (*MockClient)(nil)

// NewMockClient construye un cliente simulado que acepta todos los documentos.
func NewMockClient() *MockClient {
	return &MockClient{Accept: true}
}

// SubmitZip devuelve un TrackID sintético sin contactar a la DIAN.
func (m *MockClient) SubmitZip(_ context.Context, zipBytes []byte, filename, _, _ string) (*SubmitResult, error) {
	if len(zipBytes) == 0 {
		return nil, fmt.Errorf("mock: ZIP vacío")
	}
	if !m.Accept {
		return &SubmitResult{
			Accepted: false,
			Errors:   m.RejectMessage,
			Raw:      fmt.Sprintf(`{"simulated":true,"file":%q}`, filename),
		}, nil
	}
	return &SubmitResult{
		TrackID:  "DEMO-" + uuid.NewString(),
		Accepted: true,
		Raw:      fmt.Sprintf(`{"simulated":true,"file":%q}`, filename),
	}, nil
}
