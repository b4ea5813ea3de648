package inventory

import (
	"crypto/rand"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-engine/internal/domain"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
)

// DefaultRestockReason motivo usado cuando la reposición llega sin motivo.
const DefaultRestockReason = "restock"

// Change resultado de aplicar una operación sobre un registro (servicio de dominio puro).
// After lleva Version = Before.Version + 1; la escritura condicional usa Before.Version.
// Movement es nil cuando la operación no altera CurrentStock (reservas).
type Change struct {
	Before   *entity.StockRecord
	After    *entity.StockRecord
	Movement *entity.Movement
	Replayed bool // escritura rehecha a partir de un movimiento huérfano
}

// NoOp indica que no hay nada que escribir.
func (c *Change) NoOp() bool { return c.After == nil }

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewMovementID genera un ULID monótono para el instante t.
func NewMovementID(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// Restock suma quantity al stock actual y al disponible (mismo delta en ambos lados).
func Restock(rec *entity.StockRecord, quantity int64, reason, reference string, now time.Time) (*Change, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: la cantidad debe ser mayor que cero", domain.ErrValidation)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultRestockReason
	}
	after := next(rec, now)
	after.CurrentStock = rec.CurrentStock + quantity
	after.AvailableStock = rec.AvailableStock + quantity
	restockedAt := now
	after.LastRestockedAt = &restockedAt
	revalue(after)

	return &Change{
		Before:   rec,
		After:    after,
		Movement: newMovement(rec, after, entity.MovementIn, quantity, reason, reference, now),
	}, nil
}

// Adjust aplica un ajuste manual. El stock se recorta en cero y el movimiento registra
// el delta realmente aplicado, no el solicitado, para que el libro siga siendo reproducible.
// El disponible se recorta de forma independiente; ReservedStock nunca se reduce aquí.
func Adjust(rec *entity.StockRecord, quantity int64, direction entity.AdjustDirection, reason, reference string, now time.Time) (*Change, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: la cantidad debe ser mayor que cero", domain.ErrValidation)
	}
	var delta int64
	switch direction {
	case entity.DirectionIncrease:
		delta = quantity
	case entity.DirectionDecrease:
		delta = -quantity
	default:
		return nil, fmt.Errorf("%w: dirección %q desconocida", domain.ErrValidation, direction)
	}
	if !entity.IsAdjustmentReason(reason) {
		return nil, fmt.Errorf("%w: motivo de ajuste %q desconocido", domain.ErrValidation, reason)
	}

	newCurrent := max(0, rec.CurrentStock+delta)
	applied := newCurrent - rec.CurrentStock
	if applied == 0 {
		return nil, fmt.Errorf("%w: el stock ya está en cero, no hay nada que disminuir", domain.ErrValidation)
	}

	after := next(rec, now)
	after.CurrentStock = newCurrent
	after.AvailableStock = max(0, rec.AvailableStock+delta)
	revalue(after)

	return &Change{
		Before:   rec,
		After:    after,
		Movement: newMovement(rec, after, entity.MovementAdjustment, applied, reason, reference, now),
	}, nil
}

// Reserve compromete unidades disponibles; no toca CurrentStock ni el libro.
func Reserve(rec *entity.StockRecord, quantity int64, now time.Time) (*Change, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: la cantidad debe ser mayor que cero", domain.ErrValidation)
	}
	if rec.AvailableStock < quantity {
		return nil, fmt.Errorf("%w: disponible %d, solicitado %d", domain.ErrInsufficientStock, rec.AvailableStock, quantity)
	}
	after := next(rec, now)
	after.ReservedStock = rec.ReservedStock + quantity
	after.AvailableStock = rec.AvailableStock - quantity
	return &Change{Before: rec, After: after}, nil
}

// Release libera unidades reservadas.
func Release(rec *entity.StockRecord, quantity int64, now time.Time) (*Change, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: la cantidad debe ser mayor que cero", domain.ErrValidation)
	}
	if quantity > rec.ReservedStock {
		return nil, fmt.Errorf("%w: reservado %d, solicitado %d", domain.ErrValidation, rec.ReservedStock, quantity)
	}
	after := next(rec, now)
	after.ReservedStock = rec.ReservedStock - quantity
	after.AvailableStock = rec.AvailableStock + quantity
	return &Change{Before: rec, After: after}, nil
}

// Fulfill despacha unidades reservadas: baja stock y reserva en la misma cantidad.
func Fulfill(rec *entity.StockRecord, quantity int64, reference string, now time.Time) (*Change, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: la cantidad debe ser mayor que cero", domain.ErrValidation)
	}
	if quantity > rec.ReservedStock {
		return nil, fmt.Errorf("%w: reservado %d, solicitado %d", domain.ErrValidation, rec.ReservedStock, quantity)
	}
	if quantity > rec.CurrentStock {
		return nil, fmt.Errorf("%w: stock %d, solicitado %d", domain.ErrInsufficientStock, rec.CurrentStock, quantity)
	}
	after := next(rec, now)
	after.CurrentStock = rec.CurrentStock - quantity
	after.ReservedStock = rec.ReservedStock - quantity
	revalue(after)

	return &Change{
		Before:   rec,
		After:    after,
		Movement: newMovement(rec, after, entity.MovementOut, -quantity, "fulfillment", reference, now),
	}, nil
}

// Discontinue marca el ítem como descontinuado. Repetirlo no escribe nada.
func Discontinue(rec *entity.StockRecord, now time.Time) *Change {
	if rec.Status == entity.StatusDiscontinued {
		return &Change{Before: rec}
	}
	after := next(rec, now)
	after.Status = entity.StatusDiscontinued
	return &Change{Before: rec, After: after}
}

// Replay rehace la escritura del registro que acompañaba a un movimiento huérfano.
// rec debe estar exactamente en la versión que el movimiento esperaba.
func Replay(rec *entity.StockRecord, mov *entity.Movement) (*entity.StockRecord, error) {
	if mov.ExpectedVersion != rec.Version || mov.StockBefore != rec.CurrentStock {
		return nil, fmt.Errorf("movimiento %s no corresponde a la versión %d del ítem %s", mov.ID, rec.Version, rec.ItemID)
	}
	after := next(rec, mov.OccurredAt)
	after.CurrentStock = mov.StockAfter
	after.AvailableStock = mov.AvailableAfter
	switch mov.Kind {
	case entity.MovementIn:
		t := mov.OccurredAt
		after.LastRestockedAt = &t
	case entity.MovementOut:
		after.ReservedStock = rec.ReservedStock + mov.Quantity
	}
	revalue(after)
	return after, nil
}

// NewRecord construye un registro nuevo con su estado inicial derivado.
func NewRecord(itemID string, in entity.StockRecord, now time.Time) (*entity.StockRecord, error) {
	switch {
	case strings.TrimSpace(in.SKU) == "":
		return nil, fmt.Errorf("%w: sku es requerido", domain.ErrValidation)
	case in.MinStock < 0 || in.MaxStock < in.MinStock:
		return nil, fmt.Errorf("%w: se requiere 0 <= min_stock <= max_stock", domain.ErrValidation)
	case in.OpeningStock < 0:
		return nil, fmt.Errorf("%w: el stock inicial no puede ser negativo", domain.ErrValidation)
	case in.CostPrice.IsNegative() || in.SellingPrice.IsNegative():
		return nil, fmt.Errorf("%w: los precios no pueden ser negativos", domain.ErrValidation)
	}
	rec := &entity.StockRecord{
		ItemID:         itemID,
		SKU:            strings.TrimSpace(in.SKU),
		Name:           in.Name,
		Category:       in.Category,
		CurrentStock:   in.OpeningStock,
		AvailableStock: in.OpeningStock,
		OpeningStock:   in.OpeningStock,
		MinStock:       in.MinStock,
		MaxStock:       in.MaxStock,
		CostPrice:      in.CostPrice,
		SellingPrice:   in.SellingPrice,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	revalue(rec)
	return rec, nil
}

func next(rec *entity.StockRecord, now time.Time) *entity.StockRecord {
	after := rec.Clone()
	after.Version = rec.Version + 1
	after.UpdatedAt = now
	return after
}

// revalue recalcula TotalValue y Status a partir de CurrentStock.
func revalue(rec *entity.StockRecord) {
	rec.TotalValue = rec.CostPrice.Mul(decimal.NewFromInt(rec.CurrentStock))
	rec.Status = Classify(rec.CurrentStock, rec.MinStock, rec.Status)
}

func newMovement(before, after *entity.StockRecord, kind entity.MovementKind, qty int64, reason, reference string, now time.Time) *entity.Movement {
	return &entity.Movement{
		ID:              NewMovementID(now),
		ItemID:          before.ItemID,
		Kind:            kind,
		Quantity:        qty,
		Reason:          reason,
		Reference:       reference,
		StockBefore:     before.CurrentStock,
		StockAfter:      after.CurrentStock,
		AvailableAfter:  after.AvailableStock,
		ExpectedVersion: before.Version,
		OccurredAt:      now,
	}
}
