// Package kafka publica los eventos del motor de stock en un tópico Kafka.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker"

	"github.com/jhoicas/stock-engine/internal/application/ports"
	"github.com/jhoicas/stock-engine/pkg/config"
	"github.com/jhoicas/stock-engine/pkg/logger"
)

var _ ports.EventPublisher = (*Publisher)(nil)

var (
	// ErrUnavailable el circuito está abierto y el evento no se encoló.
	ErrUnavailable = errors.New("publicador de eventos no disponible")
	// ErrQueueFull la cola de envío está llena; el evento se descarta.
	ErrQueueFull = errors.New("cola de eventos llena")
	// ErrClosed el publicador ya fue cerrado.
	ErrClosed = errors.New("publicador de eventos cerrado")
)

const (
	breakerFailures  = 5
	breakerTimeout   = 30 * time.Second
	defaultQueueSize = 1024
	writeTimeout     = 10 * time.Second
)

// messageWriter subconjunto de *kafka.Writer que usa el publicador.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// envelope cuerpo JSON de cada mensaje.
type envelope struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Source     string    `json:"source"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

// Publisher adaptador de ports.EventPublisher sobre kafka-go. Publish solo encola; una
// goroutine envía los mensajes en orden a través de un circuit breaker, así que el
// llamador nunca espera al broker.
type Publisher struct {
	writer messageWriter
	source string
	cb     *gobreaker.CircuitBreaker
	log    *logger.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan kafka.Message
	done   chan struct{}
}

// NewPublisher construye el publicador para los brokers y el tópico configurados.
func NewPublisher(cfg config.KafkaConfig, source string, log *logger.Logger) *Publisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireAll,
	}
	return newPublisher(w, source, defaultQueueSize, log)
}

func newPublisher(w messageWriter, source string, queueSize int, log *logger.Logger) *Publisher {
	log = log.Component("kafka-publisher")
	settings := gobreaker.Settings{
		Name:        "kafka-publisher",
		MaxRequests: 1,
		Timeout:     breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("cambio de estado del circuit breaker")
		},
	}
	p := &Publisher{
		writer: w,
		source: source,
		cb:     gobreaker.NewCircuitBreaker(settings),
		log:    log,
		queue:  make(chan kafka.Message, queueSize),
		done:   make(chan struct{}),
	}
	go p.run()
	return p
}

// Publish serializa el evento y lo encola con Key como clave de partición. No bloquea:
// con el circuito abierto devuelve ErrUnavailable y con la cola llena ErrQueueFull.
func (p *Publisher) Publish(_ context.Context, ev ports.Event) error {
	msg, err := buildMessage(p.source, ev)
	if err != nil {
		return err
	}
	if p.cb.State() == gobreaker.StateOpen {
		return fmt.Errorf("%w: %s", ErrUnavailable, ev.Type)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return fmt.Errorf("%w: %s", ErrClosed, ev.Type)
	}
	select {
	case p.queue <- msg:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrQueueFull, ev.Type)
	}
}

// Close deja de aceptar eventos, envía los que quedan en cola y cierra el writer.
func (p *Publisher) Close() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()
	<-p.done
	return p.writer.Close()
}

func (p *Publisher) run() {
	defer close(p.done)
	for msg := range p.queue {
		p.send(msg)
	}
}

func (p *Publisher) send(msg kafka.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	_, err := p.cb.Execute(func() (any, error) {
		return nil, p.writer.WriteMessages(ctx, msg)
	})
	if err != nil {
		p.log.Error().Err(err).Str("key", string(msg.Key)).Str("event", eventType(msg)).
			Msg("no se pudo enviar el evento a Kafka")
	}
}

func eventType(msg kafka.Message) string {
	for _, h := range msg.Headers {
		if h.Key == "event-type" {
			return string(h.Value)
		}
	}
	return ""
}

func buildMessage(source string, ev ports.Event) (kafka.Message, error) {
	occurred := ev.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now().UTC()
	}
	body := envelope{
		ID:         uuid.New().String(),
		Type:       ev.Type,
		Source:     source,
		OccurredAt: occurred,
		Data:       ev.Payload,
	}
	data, err := json.Marshal(body)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("serializar evento %s: %w", ev.Type, err)
	}
	return kafka.Message{
		Key:   []byte(ev.Key),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(ev.Type)},
			{Key: "event-id", Value: []byte(body.ID)},
			{Key: "content-type", Value: []byte("application/json")},
		},
		Time: occurred,
	}, nil
}
