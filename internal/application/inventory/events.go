package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/stock-engine/internal/application/ports"
	"github.com/jhoicas/stock-engine/internal/domain/inventory"
	"github.com/jhoicas/stock-engine/pkg/logger"
)

// EventStatusChanged se publica cuando una escritura cambia la clasificación del ítem.
const EventStatusChanged = "stock.status_changed"

// StatusChangedPayload cuerpo del evento stock.status_changed.
type StatusChangedPayload struct {
	ItemID       string `json:"item_id"`
	SKU          string `json:"sku"`
	From         string `json:"from"`
	To           string `json:"to"`
	CurrentStock int64  `json:"current_stock"`
	MinStock     int64  `json:"min_stock"`
	Version      int64  `json:"version"`
}

// StatusChangePublisher observer que publica los cambios de estado.
// Un fallo al publicar solo se registra: la operación ya está confirmada.
type StatusChangePublisher struct {
	publisher ports.EventPublisher
	log       *logger.Logger
}

// NewStatusChangePublisher construye el observer.
func NewStatusChangePublisher(publisher ports.EventPublisher, log *logger.Logger) *StatusChangePublisher {
	return &StatusChangePublisher{publisher: publisher, log: log.Component("status-events")}
}

// OnCommit publica si el estado antes y después difiere. Las altas no se publican.
func (p *StatusChangePublisher) OnCommit(ctx context.Context, ch *inventory.Change) {
	if ch.Before == nil || ch.After == nil || ch.Before.Status == ch.After.Status {
		return
	}
	ev := ports.Event{
		Type:       EventStatusChanged,
		Key:        ch.After.ItemID,
		OccurredAt: ch.After.UpdatedAt,
		Payload: StatusChangedPayload{
			ItemID:       ch.After.ItemID,
			SKU:          ch.After.SKU,
			From:         string(ch.Before.Status),
			To:           string(ch.After.Status),
			CurrentStock: ch.After.CurrentStock,
			MinStock:     ch.After.MinStock,
			Version:      ch.After.Version,
		},
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	if err := p.publisher.Publish(ctx, ev); err != nil {
		p.log.Error().Err(err).Str("item_id", ev.Key).Str("event", ev.Type).Msg("no se pudo publicar el evento")
	}
}

// OnConflict no aplica.
func (p *StatusChangePublisher) OnConflict(string) {}
