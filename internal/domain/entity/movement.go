package entity

import "time"

// MovementKind tipo de movimiento del libro de inventario.
type MovementKind string

const (
	MovementIn         MovementKind = "in"         // reposición
	MovementOut        MovementKind = "out"        // despacho de unidades reservadas
	MovementAdjustment MovementKind = "adjustment" // ajuste manual
)

// AdjustDirection sentido de un ajuste manual.
type AdjustDirection string

const (
	DirectionIncrease AdjustDirection = "increase"
	DirectionDecrease AdjustDirection = "decrease"
)

// Códigos de motivo admitidos para ajustes manuales.
const (
	ReasonDamaged         = "damaged"
	ReasonExpired         = "expired"
	ReasonLost            = "lost"
	ReasonFound           = "found"
	ReasonReturned        = "returned"
	ReasonCountCorrection = "count_correction"
	ReasonOther           = "other"
)

// IsAdjustmentReason indica si code es un motivo de ajuste válido.
func IsAdjustmentReason(code string) bool {
	switch code {
	case ReasonDamaged, ReasonExpired, ReasonLost, ReasonFound,
		ReasonReturned, ReasonCountCorrection, ReasonOther:
		return true
	}
	return false
}

// Movement entrada inmutable del libro. Se crea una vez y nunca se edita ni se borra.
// Quantity es el delta realmente aplicado (negativo en salidas y disminuciones).
type Movement struct {
	ID       string // ULID, ordenable por tiempo de creación
	Sequence int64  // asignado por el almacén, estrictamente creciente
	ItemID   string
	Kind     MovementKind
	Quantity int64

	Reason    string
	Reference string // id externo opcional (orden de compra, pedido, ...)

	// Estado resultante; permite rehacer la escritura del registro si se perdió.
	StockBefore     int64
	StockAfter      int64
	AvailableAfter  int64
	ExpectedVersion int64 // versión del registro leída antes de escribir

	OccurredAt time.Time
	CreatedBy  string
}
