// Package dian: interfaz para firma digital de documentos XML (XAdES, DIAN).

package dian

import "crypto/tls"

// Signer firma un XML de factura y devuelve el XML con la firma inyectada
// en el segundo ext:ExtensionContent.
type Signer interface {
	Sign(xmlBytes []byte, cert tls.Certificate) ([]byte, error)
}
