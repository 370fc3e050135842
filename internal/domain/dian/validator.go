package dian

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jfacosta/facturapos-api/internal/domain/entity"
	pkgdian "github.com/jfacosta/facturapos-api/pkg/dian"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidationInput reúne la factura persistida y sus entidades relacionadas.
// El validador no consulta repositorios: la capa de aplicación carga todo.
type ValidationInput struct {
	Invoice    *entity.Invoice
	Items      []*entity.InvoiceItem
	Company    *entity.Company
	Customer   *entity.Customer
	Resolution *entity.Resolution
}

// Result es el reporte de validación. Las advertencias nunca afectan Valid.
type Result struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Validator re-deriva cada valor calculado de la factura contra las reglas.
// No tiene efectos secundarios y puede invocarse cualquier número de veces.
type Validator struct {
	rules ValidationRules
	now   func() time.Time
}

// NewValidator crea el validador con el reloj del sistema.
func NewValidator(rules ValidationRules) *Validator {
	return NewValidatorWithClock(rules, time.Now)
}

// NewValidatorWithClock permite fijar el reloj; lo usan las pruebas de fechas.
func NewValidatorWithClock(rules ValidationRules, clock func() time.Time) *Validator {
	return &Validator{rules: rules, now: clock}
}

// Validate ejecuta todas las verificaciones y acumula cada error aplicable,
// no solo el primero.
func (v *Validator) Validate(in *ValidationInput) *Result {
	r := &Result{Errors: []string{}, Warnings: []string{}}
	if in == nil || in.Invoice == nil {
		r.addError("factura: no hay factura para validar")
		r.Valid = false
		return r
	}

	v.checkCompany(in, r)
	v.checkCustomer(in, r)
	v.checkResolution(in, r)
	v.checkDates(in, r)
	v.checkItems(in, r)
	v.checkTotals(in, r)
	v.checkCufe(in, r)
	v.checkPayment(in, r)

	r.Valid = len(r.Errors) == 0
	return r
}

func (r *Result) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Result) addWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (v *Validator) checkCompany(in *ValidationInput, r *Result) {
	c := in.Company
	if c == nil {
		r.addError("emisor: empresa no encontrada")
		return
	}
	if c.NIT == "" {
		r.addError("emisor: NIT ausente")
	} else if !isNumeric(c.NIT) {
		r.addError("emisor: NIT debe ser numérico: %q", c.NIT)
	} else if err := checkDV(c.NIT, c.DV); err != nil {
		r.addError("emisor: %v", err)
	}
	if c.BusinessName == "" {
		r.addError("emisor: razón social ausente")
	}
	if c.Address == "" {
		r.addError("emisor: dirección ausente")
	}
	if c.City == "" {
		r.addError("emisor: ciudad ausente")
	}
	if c.Department == "" {
		r.addError("emisor: departamento ausente")
	}
	if !emailRe.MatchString(c.Email) {
		r.addError("emisor: email inválido o ausente")
	}
	if c.SoftwareID == "" || c.SoftwarePIN == "" {
		r.addError("emisor: software ID y PIN DIAN no configurados")
	}
	if c.CertificatePath == "" {
		r.addError("emisor: certificado de firma no configurado")
	}
	if c.Phone == "" {
		r.addWarning("emisor: teléfono no registrado")
	}
	if c.TaxRegime == "" {
		r.addWarning("emisor: régimen fiscal no registrado")
	}
}

func (v *Validator) checkCustomer(in *ValidationInput, r *Result) {
	c := in.Customer
	if c == nil {
		r.addError("adquiriente: cliente no encontrado")
		return
	}
	if !pkgdian.ValidDocumentTypes[c.DocumentType] {
		r.addError("adquiriente: tipo de documento no reconocido: %q", c.DocumentType)
	}
	if c.DocumentNumber == "" {
		r.addError("adquiriente: número de documento ausente")
	} else if c.DocumentType == "NIT" {
		// El DV solo aplica a personas jurídicas.
		if err := checkDV(c.DocumentNumber, c.DV); err != nil {
			r.addError("adquiriente: %v", err)
		}
	}
	if c.DisplayName() == "" {
		r.addError("adquiriente: nombre o razón social ausente")
	}
	if c.Address == "" {
		r.addError("adquiriente: dirección ausente")
	}
	if !emailRe.MatchString(c.Email) {
		r.addError("adquiriente: email inválido o ausente")
	}
	if c.Phone == "" {
		r.addWarning("adquiriente: teléfono no registrado")
	}
	if c.TaxRegime == "" {
		r.addWarning("adquiriente: régimen fiscal no registrado")
	}
}

func (v *Validator) checkResolution(in *ValidationInput, r *Result) {
	res := in.Resolution
	inv := in.Invoice
	if res == nil {
		r.addError("resolución: no encontrada")
		return
	}
	if !res.IsActive {
		r.addError("resolución: %s no está activa", res.ResolutionNumber)
	}
	if inv.Number < res.FromNumber || inv.Number > res.ToNumber {
		r.addError("resolución: número %d fuera del rango autorizado [%d, %d]",
			inv.Number, res.FromNumber, res.ToNumber)
	}
	if inv.Prefix != res.Prefix {
		r.addError("resolución: prefijo de la factura %q no coincide con el de la resolución %q",
			inv.Prefix, res.Prefix)
	}
	if !res.InValidityWindow(v.now()) {
		r.addError("resolución: %s fuera de su ventana de vigencia", res.ResolutionNumber)
	}
}

func (v *Validator) checkDates(in *ValidationInput, r *Result) {
	inv := in.Invoice
	now := v.now()

	issueDate, err := time.Parse("2006-01-02", inv.IssueDate)
	if err != nil {
		r.addError("fechas: fecha de emisión mal formada: %q", inv.IssueDate)
	} else {
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		if issueDate.After(today) {
			r.addError("fechas: fecha de emisión %s está en el futuro", inv.IssueDate)
		}
		if issueDate.Before(today.AddDate(0, -v.rules.MaxInvoiceAgeMonths, 0)) {
			r.addError("fechas: fecha de emisión %s supera la edad máxima de %d meses",
				inv.IssueDate, v.rules.MaxInvoiceAgeMonths)
		}
	}
	if _, err := time.Parse("15:04:05", inv.IssueTime); err != nil {
		r.addError("fechas: hora de emisión mal formada: %q", inv.IssueTime)
	}
	if inv.DueDate != "" {
		dueDate, err := time.Parse("2006-01-02", inv.DueDate)
		if err != nil {
			r.addError("fechas: fecha de vencimiento mal formada: %q", inv.DueDate)
		} else if issueDate, perr := time.Parse("2006-01-02", inv.IssueDate); perr == nil && dueDate.Before(issueDate) {
			r.addError("fechas: fecha de vencimiento %s es anterior a la emisión %s",
				inv.DueDate, inv.IssueDate)
		}
	}
}

func (v *Validator) checkItems(in *ValidationInput, r *Result) {
	if len(in.Items) == 0 {
		r.addError("líneas: la factura no tiene líneas")
		return
	}
	for _, item := range in.Items {
		line := item.LineNumber
		desc := item.Name
		if desc == "" {
			desc = item.Description
		}
		if strings.TrimSpace(desc) == "" {
			r.addError("línea %d: descripción ausente", line)
		} else if len([]rune(desc)) > v.rules.MaxDescriptionLength {
			r.addError("línea %d: descripción supera %d caracteres", line, v.rules.MaxDescriptionLength)
		}
		if !item.Quantity.IsPositive() {
			r.addError("línea %d: cantidad debe ser mayor que cero", line)
		}
		if item.UnitPrice.IsNegative() {
			r.addError("línea %d: precio unitario negativo", line)
		}
		if !v.rules.UnitMeasures[item.UnitMeasure] {
			r.addError("línea %d: unidad de medida no reconocida: %q", line, item.UnitMeasure)
		}
		expectedSubtotal := item.Quantity.Mul(item.UnitPrice).Round(2)
		if !v.withinTolerance(item.Subtotal, expectedSubtotal) {
			r.addError("línea %d: subtotal %s no coincide con cantidad × precio = %s",
				line, item.Subtotal.StringFixed(2), expectedSubtotal.StringFixed(2))
		}
		if !v.allowedIva(item.IvaPercentage) {
			r.addError("línea %d: porcentaje de IVA no permitido: %s", line, item.IvaPercentage.String())
		}
		expectedIva := item.Subtotal.Mul(item.IvaPercentage).Div(decimal.NewFromInt(100)).Round(2)
		if !v.withinTolerance(item.IvaAmount, expectedIva) {
			r.addError("línea %d: IVA %s no coincide con subtotal × tarifa = %s",
				line, item.IvaAmount.StringFixed(2), expectedIva.StringFixed(2))
		}
		if item.Code == "" {
			r.addWarning("línea %d: código de producto no registrado", line)
		}
	}
}

func (v *Validator) checkTotals(in *ValidationInput, r *Result) {
	inv := in.Invoice
	var sumSubtotal, sumTax decimal.Decimal
	for _, item := range in.Items {
		sumSubtotal = sumSubtotal.Add(item.Subtotal)
		sumTax = sumTax.Add(item.IvaAmount)
	}
	if !v.withinTolerance(inv.Subtotal, sumSubtotal) {
		r.addError("totales: subtotal %s no coincide con la suma de líneas %s",
			inv.Subtotal.StringFixed(2), sumSubtotal.StringFixed(2))
	}
	if !v.withinTolerance(inv.TaxTotal, sumTax) {
		r.addError("totales: IVA total %s no coincide con la suma de líneas %s",
			inv.TaxTotal.StringFixed(2), sumTax.StringFixed(2))
	}
	expectedTotal := inv.Subtotal.Add(inv.TaxTotal)
	if !v.withinTolerance(inv.Total, expectedTotal) {
		r.addError("totales: total %s no coincide con subtotal + IVA = %s",
			inv.Total.StringFixed(2), expectedTotal.StringFixed(2))
	}
	if !inv.Total.GreaterThan(v.rules.MinInvoiceTotal) {
		r.addError("totales: total %s no supera el mínimo %s",
			inv.Total.StringFixed(2), v.rules.MinInvoiceTotal.StringFixed(2))
	}
}

// checkCufe recalcula el CUFE desde los campos persistidos y lo compara byte a
// byte con el almacenado. Un desfase es error duro: indica manipulación o una
// regresión en la ruta de cálculo, no datos malos del usuario.
func (v *Validator) checkCufe(in *ValidationInput, r *Result) {
	inv := in.Invoice
	if len(inv.CUFE) != v.rules.CufeLength {
		r.addError("cufe: longitud %d distinta de la esperada %d", len(inv.CUFE), v.rules.CufeLength)
		return
	}
	if in.Company == nil || in.Customer == nil || in.Resolution == nil {
		return // ya reportado por los chequeos de entidades
	}
	recomputed, err := pkgdian.GenerateCufe(&pkgdian.CufeParams{
		FullNumber:      inv.FullNumber,
		IssueDate:       inv.IssueDate,
		IssueTime:       inv.IssueTime,
		Subtotal:        inv.Subtotal,
		TaxTotal:        inv.TaxTotal,
		Total:           inv.Total,
		IssuerNIT:       in.Company.NIT,
		CustomerDocType: in.Customer.DocumentType,
		CustomerDocNum:  in.Customer.DocumentNumber,
		TechnicalKey:    in.Resolution.TechnicalKey,
		TestSetID:       in.Company.TestSetID,
	})
	if err != nil {
		r.addError("cufe: no fue posible recalcular: %v", err)
		return
	}
	if recomputed != inv.CUFE {
		r.addError("cufe: el valor almacenado no coincide con el recalculado")
	}
}

func (v *Validator) checkPayment(in *ValidationInput, r *Result) {
	inv := in.Invoice
	if !containsString(v.rules.PaymentMethods, inv.PaymentMethod) {
		r.addError("pago: forma de pago no permitida: %q", inv.PaymentMethod)
	}
	if inv.PaymentMethod == entity.PaymentMethodCredito && inv.DueDate == "" {
		r.addError("pago: venta a crédito requiere fecha de vencimiento")
	}
	if inv.PaymentMeans != "" && !containsString(v.rules.PaymentMeans, inv.PaymentMeans) {
		r.addError("pago: medio de pago no permitido: %q", inv.PaymentMeans)
	}
	if inv.Notes == "" {
		r.addWarning("factura: sin notas")
	}
}

func (v *Validator) withinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(v.rules.Tolerance)
}

func (v *Validator) allowedIva(pct decimal.Decimal) bool {
	for _, allowed := range v.rules.IvaPercentages {
		if pct.Equal(allowed) {
			return true
		}
	}
	return false
}

func checkDV(document, storedDV string) error {
	if storedDV == "" {
		return fmt.Errorf("dígito de verificación no registrado para %s", document)
	}
	_, err := pkgdian.ValidateDV(document, storedDV)
	return err
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func containsString(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
