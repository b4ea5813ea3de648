package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appinventory "github.com/jhoicas/stock-engine/internal/application/inventory"
	"github.com/jhoicas/stock-engine/internal/application/ports"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
	"github.com/jhoicas/stock-engine/internal/infrastructure/memory"
	"github.com/jhoicas/stock-engine/pkg/logger"
)

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

// blockedWriter no responde hasta que se libera o vence el contexto, como un broker colgado.
type blockedWriter struct {
	release chan struct{}
	calls   chan struct{}
}

func newBlockedWriter() *blockedWriter {
	return &blockedWriter{release: make(chan struct{}), calls: make(chan struct{}, 16)}
}

func (w *blockedWriter) WriteMessages(ctx context.Context, _ ...kafka.Message) error {
	select {
	case w.calls <- struct{}{}:
	default:
	}
	select {
	case <-w.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *blockedWriter) Close() error { return nil }

func sampleEvent() ports.Event {
	return ports.Event{
		Type:       "stock.status_changed",
		Key:        "item-1",
		OccurredAt: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
		Payload:    map[string]any{"from": "in_stock", "to": "low_stock"},
	}
}

func TestPublish_MensajeConClaveYCabeceras(t *testing.T) {
	w := &fakeWriter{}
	p := newPublisher(w, "stock-engine", defaultQueueSize, logger.Nop())

	require.NoError(t, p.Publish(context.Background(), sampleEvent()))
	require.NoError(t, p.Close())
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "item-1", string(msg.Key))
	require.NotEmpty(t, msg.Headers)
	assert.Equal(t, "event-type", msg.Headers[0].Key)
	assert.Equal(t, "stock.status_changed", string(msg.Headers[0].Value))

	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, "stock-engine", body["source"])
	assert.Equal(t, "low_stock", body["data"].(map[string]any)["to"])
}

func TestPublish_CircuitoAbiertoTrasFallosConsecutivos(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker caído")}
	p := newPublisher(w, "stock-engine", defaultQueueSize, logger.Nop())
	t.Cleanup(func() { _ = p.Close() })
	ctx := context.Background()

	for i := 0; i < breakerFailures; i++ {
		require.NoError(t, p.Publish(ctx, sampleEvent()))
	}
	require.Eventually(t, func() bool { return p.cb.State() == gobreaker.StateOpen },
		2*time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, p.Publish(ctx, sampleEvent()), ErrUnavailable)
}

func TestPublish_NoEsperaAlBrokerYDescartaConColaLlena(t *testing.T) {
	w := newBlockedWriter()
	p := newPublisher(w, "stock-engine", 1, logger.Nop())
	t.Cleanup(func() {
		close(w.release)
		_ = p.Close()
	})
	ctx := context.Background()

	// El primero queda en vuelo en el writer, el segundo ocupa la cola.
	require.NoError(t, p.Publish(ctx, sampleEvent()))
	<-w.calls
	start := time.Now()
	require.NoError(t, p.Publish(ctx, sampleEvent()))
	assert.ErrorIs(t, p.Publish(ctx, sampleEvent()), ErrQueueFull)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestPublish_TrasCloseFalla(t *testing.T) {
	p := newPublisher(&fakeWriter{}, "stock-engine", defaultQueueSize, logger.Nop())
	require.NoError(t, p.Close())
	assert.ErrorIs(t, p.Publish(context.Background(), sampleEvent()), ErrClosed)
}

func TestRestock_NoSeBloqueaConBrokerColgado(t *testing.T) {
	ctx := context.Background()
	w := newBlockedWriter()
	p := newPublisher(w, "stock-engine", defaultQueueSize, logger.Nop())
	t.Cleanup(func() {
		close(w.release)
		_ = p.Close()
	})

	store := memory.NewStore()
	uc := appinventory.NewStockUseCase(
		memory.NewTxRunner(store),
		memory.NewStockRecordRepository(store),
		memory.NewMovementRepository(store),
		logger.Nop(),
		appinventory.NewStatusChangePublisher(p, logger.Nop()),
	)
	rec, err := uc.CreateRecord(ctx, appinventory.CreateRecordInput{
		SKU: "SKU-K", Name: "Cable", MinStock: 2, MaxStock: 20, CostPrice: decimal.NewFromInt(3),
	})
	require.NoError(t, err)
	require.Equal(t, entity.StatusOutOfStock, rec.Status)

	start := time.Now()
	after, err := uc.Restock(ctx, appinventory.RestockInput{ItemID: rec.ItemID, Quantity: 10, Reason: "restock"})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, entity.StatusInStock, after.Status)
	assert.Less(t, elapsed, 500*time.Millisecond)

	// El evento sí llegó al writer, en segundo plano.
	select {
	case <-w.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("el evento de cambio de estado nunca se envió")
	}
}

func TestLogPublisher_NoFalla(t *testing.T) {
	p := NewLogPublisher(logger.Nop())
	assert.NoError(t, p.Publish(context.Background(), sampleEvent()))
	assert.NoError(t, p.Close())
}
