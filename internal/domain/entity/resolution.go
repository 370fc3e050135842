package entity

import "time"

// Resolution representa la resolución de numeración autorizada por la DIAN.
// CurrentNumber es el consecutivo: avanza exactamente en 1 por cada factura
// confirmada y solo se muta dentro de la transacción que bloquea la fila
// (SELECT ... FOR UPDATE). Invariante: FromNumber-1 <= CurrentNumber <= ToNumber.
type Resolution struct {
	ID               string
	CompanyID        string
	ResolutionNumber string // número del acto administrativo (ej: "18764000000001")
	ResolutionDate   time.Time
	Prefix           string // prefijo autorizado (ej: "SETP", "FE")
	FromNumber       int64
	ToNumber         int64
	CurrentNumber    int64
	TechnicalKey     string // clave técnica; entra en la cadena del CUFE
	ValidFrom        time.Time
	ValidTo          time.Time
	IsActive         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Exhausted informa si la resolución ya no tiene números disponibles.
func (r *Resolution) Exhausted() bool {
	return r.CurrentNumber >= r.ToNumber
}

// InValidityWindow informa si la fecha dada cae dentro de la vigencia.
func (r *Resolution) InValidityWindow(at time.Time) bool {
	day := at.Truncate(24 * time.Hour)
	return !day.Before(r.ValidFrom.Truncate(24*time.Hour)) && !day.After(r.ValidTo.Truncate(24*time.Hour))
}
