package inventory_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	appinventory "github.com/jhoicas/stock-engine/internal/application/inventory"
	"github.com/jhoicas/stock-engine/internal/application/analytics"
	"github.com/jhoicas/stock-engine/internal/domain"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
	"github.com/jhoicas/stock-engine/internal/domain/inventory"
	"github.com/jhoicas/stock-engine/internal/domain/repository"
	"github.com/jhoicas/stock-engine/internal/infrastructure/memory"
	"github.com/jhoicas/stock-engine/pkg/logger"
)

type fixture struct {
	store  *memory.Store
	engine *analytics.AggregationEngine
	spy    *spyObserver
	uc     *appinventory.StockUseCase
}

func newFixture(t *testing.T, wrap func(appinventory.TxRunner) appinventory.TxRunner) *fixture {
	t.Helper()
	store := memory.NewStore()
	records := memory.NewStockRecordRepository(store)
	var runner appinventory.TxRunner = memory.NewTxRunner(store)
	if wrap != nil {
		runner = wrap(runner)
	}
	engine := analytics.NewAggregationEngine(records)
	spy := &spyObserver{}
	uc := appinventory.NewStockUseCase(runner, records, memory.NewMovementRepository(store), logger.Nop(), engine, spy)
	return &fixture{store: store, engine: engine, spy: spy, uc: uc}
}

func (f *fixture) create(t *testing.T, sku string, opening, min int64) *entity.StockRecord {
	t.Helper()
	rec, err := f.uc.CreateRecord(context.Background(), appinventory.CreateRecordInput{
		SKU: sku, Name: "Ítem " + sku, Category: "general",
		MinStock: min, MaxStock: 100, OpeningStock: opening,
		CostPrice: decimal.RequireFromString("2.00"),
	})
	require.NoError(t, err)
	return rec
}

type spyObserver struct {
	mu        sync.Mutex
	commits   []*inventory.Change
	conflicts []string
}

func (s *spyObserver) OnCommit(_ context.Context, ch *inventory.Change) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commits = append(s.commits, ch)
}

func (s *spyObserver) OnConflict(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conflicts = append(s.conflicts, op)
}

func TestRestock_ActualizaRegistroYLibro(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	rec := f.create(t, "SKU-1", 5, 10)
	assert.Equal(t, entity.StatusLowStock, rec.Status)

	got, err := f.uc.Restock(ctx, appinventory.RestockInput{ItemID: rec.ItemID, Quantity: 10, Reference: "PO-1", UserID: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, int64(15), got.CurrentStock)
	assert.Equal(t, int64(15), got.AvailableStock)
	assert.Equal(t, entity.StatusInStock, got.Status)
	assert.Equal(t, int64(2), got.Version)

	seq, err := f.uc.ListMovements(ctx, rec.ItemID, 10)
	require.NoError(t, err)
	movs, err := appinventory.Collect(seq)
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, "user-1", movs[0].CreatedBy)
	assert.Equal(t, "restock", movs[0].Reason)
	assert.Equal(t, int64(1), movs[0].ExpectedVersion)
	assert.NotZero(t, movs[0].Sequence)
}

func TestRestock_Errores(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	rec := f.create(t, "SKU-1", 5, 1)

	_, err := f.uc.Restock(ctx, appinventory.RestockInput{ItemID: "missing", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.uc.Restock(ctx, appinventory.RestockInput{ItemID: rec.ItemID, Quantity: 0})
	assert.ErrorIs(t, err, domain.ErrValidation)

	got, err := f.uc.GetRecord(ctx, rec.ItemID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Version, "una validación fallida no escribe")
}

func TestAdjust_RecortaEnCeroYRegistraDeltaAplicado(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	rec := f.create(t, "SKU-1", 5, 1)

	got, err := f.uc.Adjust(ctx, appinventory.AdjustInput{
		ItemID: rec.ItemID, Quantity: 20, Direction: entity.DirectionDecrease, Reason: entity.ReasonLost,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.CurrentStock)
	assert.Equal(t, entity.StatusOutOfStock, got.Status)

	seq, err := f.uc.ListMovements(ctx, rec.ItemID, 1)
	require.NoError(t, err)
	movs, err := appinventory.Collect(seq)
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, int64(-5), movs[0].Quantity)
}

func TestDescontinuado_NoCambiaConRestockNiAdjust(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	rec := f.create(t, "SKU-1", 5, 10)

	d, err := f.uc.Discontinue(ctx, rec.ItemID, "admin")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusDiscontinued, d.Status)

	again, err := f.uc.Discontinue(ctx, rec.ItemID, "admin")
	require.NoError(t, err)
	assert.Equal(t, d.Version, again.Version, "repetir no escribe")

	got, err := f.uc.Restock(ctx, appinventory.RestockInput{ItemID: rec.ItemID, Quantity: 100})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusDiscontinued, got.Status)

	got, err = f.uc.Adjust(ctx, appinventory.AdjustInput{ItemID: rec.ItemID, Quantity: 105, Direction: entity.DirectionDecrease, Reason: entity.ReasonExpired})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusDiscontinued, got.Status)
	assert.Equal(t, int64(0), got.CurrentStock)
}

func TestReservas(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	rec := f.create(t, "SKU-1", 10, 1)

	got, err := f.uc.Reserve(ctx, appinventory.ReservationInput{ItemID: rec.ItemID, Quantity: 6})
	require.NoError(t, err)
	assert.Equal(t, int64(4), got.AvailableStock)

	_, err = f.uc.Reserve(ctx, appinventory.ReservationInput{ItemID: rec.ItemID, Quantity: 5})
	assert.ErrorIs(t, err, domain.ErrValidation)

	got, err = f.uc.Fulfill(ctx, appinventory.ReservationInput{ItemID: rec.ItemID, Quantity: 4, Reference: "ORD-1"})
	require.NoError(t, err)
	assert.Equal(t, int64(6), got.CurrentStock)
	assert.Equal(t, int64(2), got.ReservedStock)
	assert.Equal(t, int64(4), got.AvailableStock)

	got, err = f.uc.Release(ctx, appinventory.ReservationInput{ItemID: rec.ItemID, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.ReservedStock)
	assert.Equal(t, got.CurrentStock, got.AvailableStock)

	report, err := f.uc.Audit(ctx, rec.ItemID)
	require.NoError(t, err)
	assert.True(t, report.Consistent)
	assert.Equal(t, int64(-4), report.ReplaySum)
}

func TestLeyDeReplay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	rec := f.create(t, "SKU-1", 3, 2)

	ops := []func() error{
		func() error {
			_, err := f.uc.Restock(ctx, appinventory.RestockInput{ItemID: rec.ItemID, Quantity: 12})
			return err
		},
		func() error {
			_, err := f.uc.Adjust(ctx, appinventory.AdjustInput{ItemID: rec.ItemID, Quantity: 4, Direction: entity.DirectionDecrease, Reason: entity.ReasonDamaged})
			return err
		},
		func() error {
			_, err := f.uc.Adjust(ctx, appinventory.AdjustInput{ItemID: rec.ItemID, Quantity: 50, Direction: entity.DirectionDecrease, Reason: entity.ReasonLost})
			return err
		},
		func() error {
			_, err := f.uc.Adjust(ctx, appinventory.AdjustInput{ItemID: rec.ItemID, Quantity: 7, Direction: entity.DirectionIncrease, Reason: entity.ReasonFound})
			return err
		},
		func() error {
			_, err := f.uc.Restock(ctx, appinventory.RestockInput{ItemID: rec.ItemID, Quantity: 1, Reason: "devolución proveedor"})
			return err
		},
	}
	for _, op := range ops {
		require.NoError(t, op())
	}

	got, err := f.uc.GetRecord(ctx, rec.ItemID)
	require.NoError(t, err)
	assert.Equal(t, int64(8), got.CurrentStock)

	sum, err := f.uc.ReplaySum(ctx, rec.ItemID, time.Now().UTC().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, got.CurrentStock, rec.OpeningStock+sum)

	report, err := f.uc.Audit(ctx, rec.ItemID)
	require.NoError(t, err)
	assert.True(t, report.Consistent)
}

// gate detiene las dos primeras lecturas hasta que ambas ocurren, de modo que las dos
// transacciones leen la misma versión antes de que cualquiera escriba.
type gate struct {
	arrivals atomic.Int32
	wg       sync.WaitGroup
}

func newGate() *gate {
	g := &gate{}
	g.wg.Add(2)
	return g
}

func (g *gate) wait() {
	if g.arrivals.Add(1) <= 2 {
		g.wg.Done()
		g.wg.Wait()
	}
}

type gatedRunner struct {
	inner appinventory.TxRunner
	gate  *gate
}

func (r *gatedRunner) Run(ctx context.Context, fn func(repository.MovementRepository, repository.StockRecordRepository) error) error {
	return r.inner.Run(ctx, func(movRepo repository.MovementRepository, recordRepo repository.StockRecordRepository) error {
		return fn(movRepo, &gatedRecords{StockRecordRepository: recordRepo, gate: r.gate})
	})
}

type gatedRecords struct {
	repository.StockRecordRepository
	gate *gate
}

func (r *gatedRecords) Get(ctx context.Context, itemID string) (*entity.StockRecord, error) {
	rec, err := r.StockRecordRepository.Get(ctx, itemID)
	r.gate.wait()
	return rec, err
}

func TestRestockConcurrente_UnConflictoYSinActualizacionPerdida(t *testing.T) {
	ctx := context.Background()
	g := newGate()
	f := newFixture(t, func(inner appinventory.TxRunner) appinventory.TxRunner {
		return &gatedRunner{inner: inner, gate: g}
	})
	rec := f.create(t, "SKU-1", 5, 1)

	var conflicts atomic.Int32
	restock := func(ctx context.Context) (*entity.StockRecord, error) {
		got, err := f.uc.Restock(ctx, appinventory.RestockInput{ItemID: rec.ItemID, Quantity: 10})
		if errors.Is(err, domain.ErrConflict) {
			conflicts.Add(1)
		}
		return got, err
	}

	var eg errgroup.Group
	for i := 0; i < 2; i++ {
		eg.Go(func() error {
			_, err := appinventory.RetryOnConflict(ctx, 3, restock)
			return err
		})
	}
	require.NoError(t, eg.Wait())

	got, err := f.uc.GetRecord(ctx, rec.ItemID)
	require.NoError(t, err)
	assert.Equal(t, int64(25), got.CurrentStock)
	assert.Equal(t, int32(1), conflicts.Load())
	assert.Equal(t, []string{"restock"}, f.spy.conflicts)

	seq, err := f.uc.ListMovements(ctx, rec.ItemID, 0)
	require.NoError(t, err)
	movs, err := appinventory.Collect(seq)
	require.NoError(t, err)
	assert.Len(t, movs, 2, "el intento perdedor no deja movimiento")
}

func TestRecuperacionDeMovimientoHuerfano(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	rec := f.create(t, "SKU-1", 5, 10)
	require.NoError(t, f.engine.Rebuild(ctx))

	crash := errors.New("caída simulada")
	var fired atomic.Bool
	f.store.InjectFault(func(st memory.Stage) error {
		if st == memory.StageAfterLedger && fired.CompareAndSwap(false, true) {
			return crash
		}
		return nil
	})

	_, err := f.uc.Restock(ctx, appinventory.RestockInput{ItemID: rec.ItemID, Quantity: 10})
	require.ErrorIs(t, err, crash)
	assert.Equal(t, int64(1), f.engine.Snapshot().LowStockCount, "los agregados no ven la escritura caída")

	got, err := f.uc.GetRecord(ctx, rec.ItemID)
	require.NoError(t, err)
	assert.Equal(t, int64(15), got.CurrentStock)
	assert.Equal(t, int64(15), got.AvailableStock)
	assert.Equal(t, int64(2), got.Version)
	assert.Equal(t, entity.StatusInStock, got.Status)
	assert.NotNil(t, got.LastRestockedAt)

	snap := f.engine.Snapshot()
	assert.Equal(t, int64(0), snap.LowStockCount)
	assert.True(t, decimal.RequireFromString("30").Equal(snap.TotalValue))

	// la reconciliación es determinista: una segunda lectura no cambia nada
	again, err := f.uc.GetRecord(ctx, rec.ItemID)
	require.NoError(t, err)
	assert.Equal(t, got.Version, again.Version)

	report, err := f.uc.Audit(ctx, rec.ItemID)
	require.NoError(t, err)
	assert.True(t, report.Consistent)
}

func TestHuerfanoSeReconciliaAntesDeOperar(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	rec := f.create(t, "SKU-1", 5, 1)

	var fired atomic.Bool
	f.store.InjectFault(func(st memory.Stage) error {
		if fired.CompareAndSwap(false, true) {
			return errors.New("caída simulada")
		}
		return nil
	})
	_, err := f.uc.Adjust(ctx, appinventory.AdjustInput{ItemID: rec.ItemID, Quantity: 2, Direction: entity.DirectionDecrease, Reason: entity.ReasonDamaged})
	require.Error(t, err)

	got, err := f.uc.Restock(ctx, appinventory.RestockInput{ItemID: rec.ItemID, Quantity: 4})
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.CurrentStock)
	assert.Equal(t, int64(3), got.Version)
}

func TestListadosYAgregadosIdempotentes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.create(t, "SKU-B", 0, 1)
	f.create(t, "SKU-A", 5, 10)
	f.create(t, "SKU-C", 50, 10)
	require.NoError(t, f.engine.Rebuild(ctx))

	first, err := appinventory.Collect(f.uc.ListRecords(ctx, entity.StockRecordFilter{}))
	require.NoError(t, err)
	second, err := appinventory.Collect(f.uc.ListRecords(ctx, entity.StockRecordFilter{}))
	require.NoError(t, err)
	assert.Equal(t, first, second)
	require.Len(t, first, 3)
	assert.Equal(t, "SKU-A", first[0].SKU)

	a1, a2 := f.engine.Snapshot(), f.engine.Snapshot()
	assert.Equal(t, a1, a2)
	assert.Equal(t, int64(1), a1.LowStockCount)
	assert.Equal(t, int64(1), a1.OutOfStockCount)
	assert.True(t, decimal.RequireFromString("110").Equal(a1.TotalValue))

	low, err := appinventory.Collect(f.uc.ListRecords(ctx, entity.StockRecordFilter{Status: entity.StatusLowStock}))
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "SKU-A", low[0].SKU)
}

func TestAgregadosSeActualizanTrasCadaEscritura(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	rec := f.create(t, "SKU-1", 5, 10)

	_, err := f.uc.Restock(ctx, appinventory.RestockInput{ItemID: rec.ItemID, Quantity: 10})
	require.NoError(t, err)

	var records []*entity.StockRecord
	for r, err := range f.uc.ListRecords(ctx, entity.StockRecordFilter{}) {
		require.NoError(t, err)
		records = append(records, r)
	}
	full := analytics.Compute(records)
	snap := f.engine.Snapshot()
	assert.True(t, full.TotalValue.Equal(snap.TotalValue))
	assert.Equal(t, full.LowStockCount, snap.LowStockCount)
	assert.Equal(t, full.OutOfStockCount, snap.OutOfStockCount)
	assert.Equal(t, full.ItemCount, snap.ItemCount)
}

func TestListMovements_NoEncontradoYLimite(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	rec := f.create(t, "SKU-1", 0, 1)

	_, err := f.uc.ListMovements(ctx, "missing", 5)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	for i := 0; i < 5; i++ {
		_, err := f.uc.Restock(ctx, appinventory.RestockInput{ItemID: rec.ItemID, Quantity: int64(i + 1)})
		require.NoError(t, err)
	}
	seq, err := f.uc.ListMovements(ctx, rec.ItemID, 3)
	require.NoError(t, err)
	movs, err := appinventory.Collect(seq)
	require.NoError(t, err)
	require.Len(t, movs, 3)
	assert.Equal(t, int64(5), movs[0].Quantity, "del más nuevo al más antiguo")

	// la secuencia se puede recorrer de nuevo
	again, err := appinventory.Collect(seq)
	require.NoError(t, err)
	assert.Equal(t, movs, again)
}

func TestCreateRecord_SKUDuplicado(t *testing.T) {
	f := newFixture(t, nil)
	f.create(t, "SKU-1", 0, 1)
	_, err := f.uc.CreateRecord(context.Background(), appinventory.CreateRecordInput{SKU: "SKU-1", MaxStock: 1})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
