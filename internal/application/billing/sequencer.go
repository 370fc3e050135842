package billing

import (
	"context"
	"fmt"

	"github.com/jfacosta/facturapos-api/internal/domain"
	"github.com/jfacosta/facturapos-api/internal/domain/entity"
)

// ResolutionSequencer asigna el siguiente consecutivo de la resolución activa
// de una empresa. La corrección bajo concurrencia descansa por completo en el
// bloqueo de fila de la base de datos: la fila de la resolución se lee con
// FOR UPDATE y el lock se sostiene hasta que la transacción que incrementó
// current_number haga commit o rollback. Dos creaciones concurrentes sobre la
// misma resolución se serializan; sobre resoluciones distintas no se estorban.
type ResolutionSequencer struct{}

// NewResolutionSequencer construye el secuenciador.
func NewResolutionSequencer() *ResolutionSequencer {
	return &ResolutionSequencer{}
}

// AllocateNext reserva el siguiente número dentro de la transacción de repos.
// Debe invocarse con repositorios atados a una transacción abierta; fuera de
// una transacción el FOR UPDATE no serializa nada.
//
// Cualquier error aborta la transacción completa del caller, así un intento
// fallido nunca quema un número.
func (s *ResolutionSequencer) AllocateNext(ctx context.Context, repos TxRepos, companyID string) (*entity.Resolution, int64, string, error) {
	res, err := repos.Resolutions.GetActiveByCompany(ctx, companyID)
	if err != nil {
		return nil, 0, "", err
	}
	if res.Exhausted() {
		return nil, 0, "", fmt.Errorf("%w: resolución %s agotada en %d",
			domain.ErrResolutionExhausted, res.ResolutionNumber, res.ToNumber)
	}

	// Re-leer con lock: entre la consulta anterior y esta, otro proceso pudo
	// avanzar el consecutivo.
	res, err = repos.Resolutions.GetForUpdate(ctx, res.ID)
	if err != nil {
		return nil, 0, "", err
	}
	next := res.CurrentNumber + 1
	if next > res.ToNumber {
		return nil, 0, "", fmt.Errorf("%w: resolución %s agotada en %d",
			domain.ErrResolutionExhausted, res.ResolutionNumber, res.ToNumber)
	}

	fullNumber := FormatFullNumber(res.Prefix, next)

	// Chequeo defensivo: con el lock tomado no debería existir una factura con
	// este número; si existe, el watermark está corrupto o hay un bug de
	// concurrencia, y eso se reporta distinto de un error de negocio normal.
	exists, err := repos.Invoices.ExistsByNumber(ctx, companyID, res.Prefix, next)
	if err != nil {
		return nil, 0, "", err
	}
	if exists {
		return nil, 0, "", fmt.Errorf("%w: %s", domain.ErrDuplicateInvoiceNumber, fullNumber)
	}

	if err := repos.Resolutions.UpdateCurrentNumber(ctx, res.ID, next); err != nil {
		return nil, 0, "", err
	}
	res.CurrentNumber = next
	return res, next, fullNumber, nil
}

// FormatFullNumber arma el número completo: prefijo + consecutivo con padding
// a 6 dígitos.
func FormatFullNumber(prefix string, number int64) string {
	return fmt.Sprintf("%s%06d", prefix, number)
}
