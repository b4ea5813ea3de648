package inventory

import (
	"context"
	"iter"
	"time"

	"github.com/jhoicas/stock-engine/internal/domain/entity"
	"github.com/jhoicas/stock-engine/internal/domain/repository"
)

const pageSize = 100

// ListRecords produce una secuencia perezosa de registros filtrados, ordenada por SKU.
// Se puede recorrer varias veces; cada recorrido vuelve a consultar el almacén por páginas.
func (uc *StockUseCase) ListRecords(ctx context.Context, filter entity.StockRecordFilter) iter.Seq2[*entity.StockRecord, error] {
	return scanRecords(ctx, uc.records, filter)
}

func scanRecords(ctx context.Context, records repository.StockRecordRepository, filter entity.StockRecordFilter) iter.Seq2[*entity.StockRecord, error] {
	return func(yield func(*entity.StockRecord, error) bool) {
		after := ""
		for {
			page, err := records.List(ctx, filter, after, pageSize)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, rec := range page {
				if !yield(rec, nil) {
					return
				}
			}
			if len(page) < pageSize {
				return
			}
			after = page[len(page)-1].SKU
		}
	}
}

// ListMovements produce hasta limit movimientos del ítem, del más nuevo al más antiguo.
// limit <= 0 recorre el libro completo. Falla con domain.ErrNotFound si el ítem no existe.
func (uc *StockUseCase) ListMovements(ctx context.Context, itemID string, limit int) (iter.Seq2[*entity.Movement, error], error) {
	if _, err := uc.records.Get(ctx, itemID); err != nil {
		return nil, err
	}
	return func(yield func(*entity.Movement, error) bool) {
		var before int64
		emitted := 0
		for {
			size := pageSize
			if limit > 0 {
				size = min(pageSize, limit-emitted)
			}
			page, err := uc.movements.ListFor(ctx, itemID, before, size)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, mov := range page {
				if !yield(mov, nil) {
					return
				}
				emitted++
			}
			if len(page) < size || (limit > 0 && emitted >= limit) {
				return
			}
			before = page[len(page)-1].Sequence
		}
	}, nil
}

// Collect materializa una secuencia; se usa en los bordes (HTTP, reportes).
func Collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	out := []T{}
	for v, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// ReplaySum suma las cantidades del libro del ítem hasta upto (inclusive).
func (uc *StockUseCase) ReplaySum(ctx context.Context, itemID string, upto time.Time) (int64, error) {
	if _, err := uc.records.Get(ctx, itemID); err != nil {
		return 0, err
	}
	return uc.movements.ReplaySum(ctx, itemID, upto)
}

// AuditReport compara el registro con la reconstrucción desde el libro.
type AuditReport struct {
	ItemID       string
	OpeningStock int64
	ReplaySum    int64
	CurrentStock int64
	Consistent   bool
}

// Audit verifica OpeningStock + ReplaySum == CurrentStock (reconciliando antes si hace falta).
func (uc *StockUseCase) Audit(ctx context.Context, itemID string) (*AuditReport, error) {
	rec, err := uc.GetRecord(ctx, itemID)
	if err != nil {
		return nil, err
	}
	sum, err := uc.movements.ReplaySum(ctx, itemID, uc.now())
	if err != nil {
		return nil, err
	}
	return &AuditReport{
		ItemID:       itemID,
		OpeningStock: rec.OpeningStock,
		ReplaySum:    sum,
		CurrentStock: rec.CurrentStock,
		Consistent:   rec.OpeningStock+sum == rec.CurrentStock,
	}, nil
}
