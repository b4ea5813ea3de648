package ports

import (
	"context"
	"time"
)

// Event mensaje de dominio publicado hacia otros sistemas.
// Key agrupa los eventos de un mismo agregado (partición en el broker).
type Event struct {
	Type       string
	Key        string
	OccurredAt time.Time
	Payload    any
}

// EventPublisher define el puerto de salida para publicar eventos de dominio.
// Cualquier adaptador (Kafka, log, mock) debe implementar esta interfaz.
type EventPublisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}
