package metrics_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-engine/internal/application/analytics"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
	"github.com/jhoicas/stock-engine/internal/domain/inventory"
	"github.com/jhoicas/stock-engine/internal/infrastructure/metrics"
)

type fixedSource struct{ agg analytics.Aggregates }

func (s fixedSource) Snapshot() analytics.Aggregates { return s.agg }

func TestOnCommit_CuentaMovimientosYEstados(t *testing.T) {
	m := metrics.New(nil)
	before := &entity.StockRecord{ItemID: "a", Status: entity.StatusInStock}
	after := &entity.StockRecord{ItemID: "a", Status: entity.StatusLowStock}

	m.OnCommit(context.Background(), &inventory.Change{
		Before:   before,
		After:    after,
		Movement: &entity.Movement{Kind: entity.MovementAdjustment, Quantity: -4},
	})
	m.OnCommit(context.Background(), &inventory.Change{
		Before: after, After: after,
		Movement: &entity.Movement{Kind: entity.MovementIn, Quantity: 2},
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.MovementsTotal.WithLabelValues("adjustment")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.UnitsMovedTotal.WithLabelValues("adjustment")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MovementsTotal.WithLabelValues("in")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StatusChangeTotal.WithLabelValues("low_stock")))
}

func TestOnConflict_PorOperacion(t *testing.T) {
	m := metrics.New(nil)
	m.OnConflict("restock")
	m.OnConflict("restock")
	m.OnConflict("reserve")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ConflictsTotal.WithLabelValues("restock")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConflictsTotal.WithLabelValues("reserve")))
}

func TestHandler_ExponeAgregados(t *testing.T) {
	m := metrics.New(fixedSource{agg: analytics.Aggregates{
		TotalValue: decimal.RequireFromString("1500.5"), LowStockCount: 2, OutOfStockCount: 1, ItemCount: 7,
	}})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "stock_engine_inventory_total_value 1500.5")
	assert.Contains(t, body, "stock_engine_low_stock_items 2")
	assert.Contains(t, body, "stock_engine_tracked_items 7")
}
