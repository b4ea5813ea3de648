package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-engine/internal/domain"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
	"github.com/jhoicas/stock-engine/internal/domain/repository"
	"github.com/jhoicas/stock-engine/internal/infrastructure/memory"
)

var t0 = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func seed(t *testing.T, s *memory.Store, id, sku, name string, current int64) *entity.StockRecord {
	t.Helper()
	rec := &entity.StockRecord{
		ItemID: id, SKU: sku, Name: name, Category: "ferreteria",
		CurrentStock: current, AvailableStock: current, OpeningStock: current,
		MinStock: 2, MaxStock: 50, CostPrice: decimal.NewFromInt(1),
		Status: entity.StatusInStock, Version: 1,
	}
	require.NoError(t, memory.NewStockRecordRepository(s).Create(context.Background(), rec))
	return rec
}

func movement(itemID string, qty, expected int64, at time.Time) *entity.Movement {
	return &entity.Movement{
		ID: itemID + "-" + at.String(), ItemID: itemID, Kind: entity.MovementIn,
		Quantity: qty, ExpectedVersion: expected, OccurredAt: at,
	}
}

func TestStockRecordRepo_CreateSKUDuplicado(t *testing.T) {
	s := memory.NewStore()
	seed(t, s, "a", "SKU-A", "Martillo", 1)

	err := memory.NewStockRecordRepository(s).Create(context.Background(), &entity.StockRecord{ItemID: "b", SKU: "SKU-A"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestStockRecordRepo_UpdateCondicional(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	rec := seed(t, s, "a", "SKU-A", "Martillo", 5)
	repo := memory.NewStockRecordRepository(s)

	next := rec.Clone()
	next.CurrentStock, next.Version = 6, 2
	require.NoError(t, repo.Update(ctx, next, 1))

	stale := rec.Clone()
	stale.Version = 2
	assert.ErrorIs(t, repo.Update(ctx, stale, 1), domain.ErrConflict)

	_, err := repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(6), got.CurrentStock)

	// la copia devuelta no comparte memoria con el almacén
	got.CurrentStock = 999
	again, _ := repo.Get(ctx, "a")
	assert.Equal(t, int64(6), again.CurrentStock)
}

func TestStockRecordRepo_ListPaginaYBusca(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	seed(t, s, "3", "SKU-C", "Café molido", 1)
	seed(t, s, "1", "SKU-A", "Martillo", 1)
	seed(t, s, "2", "SKU-B", "Cafetera", 1)
	repo := memory.NewStockRecordRepository(s)

	page, err := repo.List(ctx, entity.StockRecordFilter{}, "", 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "SKU-A", page[0].SKU)
	assert.Equal(t, "SKU-B", page[1].SKU)

	rest, err := repo.List(ctx, entity.StockRecordFilter{}, page[1].SKU, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "SKU-C", rest[0].SKU)

	found, err := repo.List(ctx, entity.StockRecordFilter{Search: "CAFE"}, "", 10)
	require.NoError(t, err)
	assert.Len(t, found, 2, "la búsqueda ignora mayúsculas y tildes")

	none, err := repo.List(ctx, entity.StockRecordFilter{Status: entity.StatusOutOfStock}, "", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMovementRepo_AppendValida(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	seed(t, s, "a", "SKU-A", "Martillo", 0)
	repo := memory.NewMovementRepository(s)

	assert.ErrorIs(t, repo.Append(ctx, movement("a", 0, 1, t0)), domain.ErrValidation)
	assert.ErrorIs(t, repo.Append(ctx, movement("zzz", 1, 1, t0)), domain.ErrValidation)

	m := movement("a", 3, 1, t0)
	require.NoError(t, repo.Append(ctx, m))
	assert.Equal(t, int64(1), m.Sequence)
}

func TestMovementRepo_ListForYReplaySum(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	seed(t, s, "a", "SKU-A", "Martillo", 0)
	repo := memory.NewMovementRepository(s)

	for i, q := range []int64{5, -2, 7} {
		require.NoError(t, repo.Append(ctx, movement("a", q, int64(i+1), t0.Add(time.Duration(i)*time.Hour))))
	}

	newest, err := repo.ListFor(ctx, "a", 0, 2)
	require.NoError(t, err)
	require.Len(t, newest, 2)
	assert.Equal(t, int64(7), newest[0].Quantity)
	assert.Equal(t, int64(-2), newest[1].Quantity)

	older, err := repo.ListFor(ctx, "a", newest[1].Sequence, 10)
	require.NoError(t, err)
	require.Len(t, older, 1)
	assert.Equal(t, int64(5), older[0].Quantity)

	sum, err := repo.ReplaySum(ctx, "a", t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(3), sum)

	pending, err := repo.ListPending(ctx, "a", 2)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestTxRunner_ConflictoNoEscribeNada(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	rec := seed(t, s, "a", "SKU-A", "Martillo", 5)
	runner := memory.NewTxRunner(s)

	// Otra escritura gana la carrera mientras la unidad de trabajo está abierta.
	err := runner.Run(ctx, func(movRepo repository.MovementRepository, recordRepo repository.StockRecordRepository) error {
		cur, err := recordRepo.Get(ctx, "a")
		require.NoError(t, err)

		winner := rec.Clone()
		winner.Version = 2
		require.NoError(t, memory.NewStockRecordRepository(s).Update(ctx, winner, 1))

		next := cur.Clone()
		next.CurrentStock, next.Version = 15, 2
		require.NoError(t, movRepo.Append(ctx, movement("a", 10, cur.Version, t0)))
		return recordRepo.Update(ctx, next, cur.Version)
	})
	assert.ErrorIs(t, err, domain.ErrConflict)

	movs, err := memory.NewMovementRepository(s).ListFor(ctx, "a", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, movs, "un conflicto no deja movimientos en el libro")
}

func TestTxRunner_FalloTrasElLibro(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	rec := seed(t, s, "a", "SKU-A", "Martillo", 5)
	runner := memory.NewTxRunner(s)
	crash := errors.New("caída simulada")
	s.InjectFault(func(st memory.Stage) error {
		if st == memory.StageAfterLedger {
			return crash
		}
		return nil
	})

	err := runner.Run(ctx, func(movRepo repository.MovementRepository, recordRepo repository.StockRecordRepository) error {
		next := rec.Clone()
		next.CurrentStock, next.Version = 15, 2
		require.NoError(t, movRepo.Append(ctx, movement("a", 10, 1, t0)))
		return recordRepo.Update(ctx, next, 1)
	})
	assert.ErrorIs(t, err, crash)

	got, err := memory.NewStockRecordRepository(s).Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Version, "el registro no se escribió")

	pending, err := memory.NewMovementRepository(s).ListPending(ctx, "a", got.Version)
	require.NoError(t, err)
	assert.Len(t, pending, 1, "el movimiento quedó huérfano en el libro")
}

func TestPurchaseOrderRepo_DeleteCondicional(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewPurchaseOrderRepository(memory.NewStore())
	require.NoError(t, repo.Create(ctx, &entity.PurchaseOrder{
		ID: "po-1", SupplierID: "sup-1", Status: entity.POStatusDraft, OrderedAt: t0, Version: 1,
	}))

	sent, err := repo.Get(ctx, "po-1")
	require.NoError(t, err)
	sent.Status, sent.Version = entity.POStatusSent, 2
	require.NoError(t, repo.Update(ctx, sent, 1))

	assert.ErrorIs(t, repo.Delete(ctx, "po-1", 1), domain.ErrConflict)
	_, err = repo.Get(ctx, "po-1")
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, "po-1", 2))
	assert.ErrorIs(t, repo.Delete(ctx, "po-1", 2), domain.ErrNotFound)
}
