package domain

import "errors"

// Errores de dominio (sin dependencias externas).
// Los errores detallados se construyen con fmt.Errorf("%w: ...", ErrX) para que
// errors.Is siga clasificándolos en la capa HTTP.
var (
	ErrValidation        = errors.New("entrada inválida")
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrConflict          = errors.New("modificación concurrente detectada")
	ErrInvalidTransition = errors.New("transición de estado inválida")
)

// ErrInsufficientStock es un caso particular de validación.
var ErrInsufficientStock = &kindError{kind: ErrValidation, msg: "stock insuficiente"}

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }
