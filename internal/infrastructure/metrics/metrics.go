// Package metrics expone métricas Prometheus del motor de stock sobre un registro propio.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/stock-engine/internal/application/analytics"
	"github.com/jhoicas/stock-engine/internal/domain/inventory"
)

const namespace = "stock_engine"

// AggregateSource fuente de la instantánea de agregados (el AggregationEngine).
type AggregateSource interface {
	Snapshot() analytics.Aggregates
}

// Metrics observer del procesador: cuenta movimientos y conflictos, y publica los agregados
// como gauges leídos en cada scrape.
type Metrics struct {
	registry *prometheus.Registry

	MovementsTotal    *prometheus.CounterVec
	UnitsMovedTotal   *prometheus.CounterVec
	ConflictsTotal    *prometheus.CounterVec
	StatusChangeTotal *prometheus.CounterVec
	ReplaysTotal      prometheus.Counter
}

// New crea el registro, los colectores estándar de Go y los gauges de agregados.
func New(source AggregateSource) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		MovementsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "movements_total",
			Help:      "Movimientos agregados al libro, por tipo",
		}, []string{"kind"}),
		UnitsMovedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "units_moved_total",
			Help:      "Unidades movidas (valor absoluto), por tipo",
		}, []string{"kind"}),
		ConflictsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "version_conflicts_total",
			Help:      "Escrituras rechazadas por conflicto de versión, por operación",
		}, []string{"operation"}),
		StatusChangeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_changes_total",
			Help:      "Cambios de clasificación de stock, por estado destino",
		}, []string{"to"}),
		ReplaysTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciled_movements_total",
			Help:      "Movimientos huérfanos reaplicados al reconciliar",
		}),
	}
	registry.MustRegister(m.MovementsTotal, m.UnitsMovedTotal, m.ConflictsTotal, m.StatusChangeTotal, m.ReplaysTotal)

	if source != nil {
		registry.MustRegister(
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "inventory_total_value",
				Help:      "Valor total del inventario (stock actual por costo)",
			}, func() float64 {
				v, _ := source.Snapshot().TotalValue.Float64()
				return v
			}),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "low_stock_items",
				Help:      "Ítems en low_stock",
			}, func() float64 { return float64(source.Snapshot().LowStockCount) }),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "out_of_stock_items",
				Help:      "Ítems en out_of_stock",
			}, func() float64 { return float64(source.Snapshot().OutOfStockCount) }),
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "tracked_items",
				Help:      "Ítems rastreados",
			}, func() float64 { return float64(source.Snapshot().ItemCount) }),
		)
	}
	return m
}

// OnCommit registra el movimiento y el cambio de estado del cambio confirmado.
func (m *Metrics) OnCommit(_ context.Context, ch *inventory.Change) {
	if ch == nil {
		return
	}
	if ch.Replayed {
		m.ReplaysTotal.Inc()
	}
	if mov := ch.Movement; mov != nil {
		kind := string(mov.Kind)
		m.MovementsTotal.WithLabelValues(kind).Inc()
		qty := mov.Quantity
		if qty < 0 {
			qty = -qty
		}
		m.UnitsMovedTotal.WithLabelValues(kind).Add(float64(qty))
	}
	if ch.Before != nil && ch.After != nil && ch.Before.Status != ch.After.Status {
		m.StatusChangeTotal.WithLabelValues(string(ch.After.Status)).Inc()
	}
}

// OnConflict cuenta el conflicto de la operación.
func (m *Metrics) OnConflict(op string) {
	m.ConflictsTotal.WithLabelValues(op).Inc()
}

// Handler devuelve el handler HTTP de exposición.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry devuelve el registro de Prometheus.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
