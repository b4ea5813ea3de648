package kafka

import (
	"context"
	"encoding/json"

	"github.com/jhoicas/stock-engine/internal/application/ports"
	"github.com/jhoicas/stock-engine/pkg/logger"
)

var _ ports.EventPublisher = (*LogPublisher)(nil)

// LogPublisher registra los eventos en el log. Se usa cuando no hay brokers configurados.
type LogPublisher struct {
	log *logger.Logger
}

// NewLogPublisher construye el publicador de solo log.
func NewLogPublisher(log *logger.Logger) *LogPublisher {
	return &LogPublisher{log: log.Component("events")}
}

// Publish escribe el evento a nivel info.
func (p *LogPublisher) Publish(_ context.Context, ev ports.Event) error {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return err
	}
	p.log.Info().
		Str("event", ev.Type).
		Str("key", ev.Key).
		Time("occurred_at", ev.OccurredAt).
		RawJSON("payload", payload).
		Msg("evento publicado")
	return nil
}

// Close no libera nada.
func (p *LogPublisher) Close() error { return nil }
