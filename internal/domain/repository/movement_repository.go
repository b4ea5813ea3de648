package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-engine/internal/domain/entity"
)

// MovementRepository puerto del libro de movimientos (solo inserción).
type MovementRepository interface {
	// Append asigna Sequence y persiste. Falla con domain.ErrValidation si Quantity es 0
	// o si el ítem no existe.
	Append(ctx context.Context, mov *entity.Movement) error
	// ListFor devuelve movimientos del ítem del más nuevo al más antiguo con
	// Sequence < beforeSeq (0 = sin cota).
	ListFor(ctx context.Context, itemID string, beforeSeq int64, limit int) ([]*entity.Movement, error)
	// ListPending devuelve, en orden de secuencia, los movimientos cuya ExpectedVersion
	// es >= fromVersion (candidatos a huérfanos).
	ListPending(ctx context.Context, itemID string, fromVersion int64) ([]*entity.Movement, error)
	ReplaySum(ctx context.Context, itemID string, upto time.Time) (int64, error)
}
