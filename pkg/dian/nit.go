package dian

import (
	"fmt"
	"unicode"
)

// dvPrimes son los pesos del módulo 11 para el dígito de verificación.
// Se aplican de derecha a izquierda sobre los dígitos del documento.
var dvPrimes = [15]int{3, 7, 13, 17, 19, 23, 29, 37, 41, 43, 47, 53, 59, 67, 71}

// ComputeDV calcula el dígito de verificación del NIT o documento dado.
// taxID puede venir con puntos o guiones ("900.999.999", "900999999-4").
func ComputeDV(taxID string) (int, error) {
	digits := extractDigits(taxID)
	if len(digits) == 0 {
		return 0, fmt.Errorf("dian: el documento no contiene dígitos: %q", taxID)
	}
	if len(digits) > len(dvPrimes) {
		return 0, fmt.Errorf("dian: el documento excede %d dígitos", len(dvPrimes))
	}
	var sum int
	for i := 0; i < len(digits); i++ {
		d := int(digits[len(digits)-1-i] - '0')
		sum += d * dvPrimes[i]
	}
	remainder := sum % 11
	if remainder > 1 {
		return 11 - remainder, nil
	}
	return remainder, nil
}

// ValidateDV verifica que el dígito de verificación almacenado coincida con
// el recalculado. Devuelve el esperado para poder reportar el desfase.
func ValidateDV(taxID string, storedDV string) (expected int, err error) {
	expected, err = ComputeDV(taxID)
	if err != nil {
		return 0, err
	}
	stored := extractDigits(storedDV)
	if len(stored) != 1 {
		return expected, fmt.Errorf("dian: dígito de verificación inválido: %q", storedDV)
	}
	if int(stored[0]-'0') != expected {
		return expected, fmt.Errorf("dian: dígito de verificación incorrecto: esperado %d, recibido %c", expected, stored[0])
	}
	return expected, nil
}

func extractDigits(s string) []byte {
	var out []byte
	for _, r := range s {
		if unicode.IsDigit(r) {
			out = append(out, byte(r))
		}
	}
	return out
}
