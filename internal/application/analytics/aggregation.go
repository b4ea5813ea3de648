// Package analytics contiene el motor de agregados del inventario: valor total y
// conteos por estado, mantenidos de forma incremental tras cada escritura.
package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-engine/internal/domain/entity"
	"github.com/jhoicas/stock-engine/internal/domain/inventory"
	"github.com/jhoicas/stock-engine/internal/domain/repository"
)

const rebuildPageSize = 500

// Aggregates instantánea de los agregados del inventario.
type Aggregates struct {
	TotalValue      decimal.Decimal
	LowStockCount   int64
	OutOfStockCount int64
	ItemCount       int64
	ComputedAt      time.Time
}

// Compute calcula los agregados sobre un conjunto de registros (función pura).
func Compute(records []*entity.StockRecord) Aggregates {
	var agg Aggregates
	for _, r := range records {
		agg.add(r, 1)
	}
	return agg
}

func (a *Aggregates) add(r *entity.StockRecord, sign int64) {
	if r == nil {
		return
	}
	if sign > 0 {
		a.TotalValue = a.TotalValue.Add(r.TotalValue)
	} else {
		a.TotalValue = a.TotalValue.Sub(r.TotalValue)
	}
	a.ItemCount += sign
	switch r.Status {
	case entity.StatusLowStock:
		a.LowStockCount += sign
	case entity.StatusOutOfStock:
		a.OutOfStockCount += sign
	}
}

// AggregationEngine mantiene en caché la instantánea de agregados. Cada commit del
// procesador aplica un delta (resta la contribución anterior del registro y suma la nueva),
// sin releer el almacén. El delta es conmutativo, así que el orden de las notificaciones
// no altera el resultado.
type AggregationEngine struct {
	records repository.StockRecordRepository

	mu   sync.RWMutex
	snap Aggregates
	now  func() time.Time
}

// NewAggregationEngine construye el motor; llamar Rebuild antes de servir tráfico.
func NewAggregationEngine(records repository.StockRecordRepository) *AggregationEngine {
	return &AggregationEngine{
		records: records,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Rebuild recalcula la instantánea recorriendo todo el almacén.
func (e *AggregationEngine) Rebuild(ctx context.Context) error {
	var agg Aggregates
	after := ""
	for {
		page, err := e.records.List(ctx, entity.StockRecordFilter{}, after, rebuildPageSize)
		if err != nil {
			return err
		}
		for _, r := range page {
			agg.add(r, 1)
		}
		if len(page) < rebuildPageSize {
			break
		}
		after = page[len(page)-1].SKU
	}
	agg.ComputedAt = e.now()

	e.mu.Lock()
	e.snap = agg
	e.mu.Unlock()
	return nil
}

// OnCommit aplica el delta de un cambio confirmado.
func (e *AggregationEngine) OnCommit(_ context.Context, ch *inventory.Change) {
	if ch == nil || ch.After == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.snap.add(ch.Before, -1)
	e.snap.add(ch.After, 1)
	e.snap.ComputedAt = e.now()
}

// OnConflict no altera los agregados.
func (e *AggregationEngine) OnConflict(string) {}

// Snapshot devuelve la instantánea vigente.
func (e *AggregationEngine) Snapshot() Aggregates {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snap
}
