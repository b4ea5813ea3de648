package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-engine/internal/domain"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
	"github.com/jhoicas/stock-engine/internal/domain/inventory"
	"github.com/jhoicas/stock-engine/internal/domain/repository"
	"github.com/jhoicas/stock-engine/pkg/logger"
)

// StockUseCase es el procesador de transacciones de stock: lee el registro con su versión,
// calcula el nuevo estado, agrega el movimiento al libro y escribe de forma condicional,
// todo dentro de una unidad de trabajo (TxRunner). Un conflicto de versión se devuelve
// como domain.ErrConflict; reintentar es responsabilidad del llamador.
type StockUseCase struct {
	txRunner  TxRunner
	records   repository.StockRecordRepository
	movements repository.MovementRepository
	observers []Observer
	log       *logger.Logger
	now       func() time.Time
}

// NewStockUseCase construye el procesador. Los observers se notifican tras cada commit.
func NewStockUseCase(
	txRunner TxRunner,
	records repository.StockRecordRepository,
	movements repository.MovementRepository,
	log *logger.Logger,
	observers ...Observer,
) *StockUseCase {
	return &StockUseCase{
		txRunner:  txRunner,
		records:   records,
		movements: movements,
		observers: observers,
		log:       log.Component("stock-processor"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateRecordInput datos para dar de alta un ítem rastreado.
type CreateRecordInput struct {
	SKU          string
	Name         string
	Category     string
	MinStock     int64
	MaxStock     int64
	OpeningStock int64
	CostPrice    decimal.Decimal
	SellingPrice decimal.Decimal
}

// RestockInput entrada de una reposición.
type RestockInput struct {
	ItemID    string
	Quantity  int64
	Reason    string
	Reference string
	UserID    string
}

// AdjustInput entrada de un ajuste manual.
type AdjustInput struct {
	ItemID    string
	Quantity  int64
	Direction entity.AdjustDirection
	Reason    string
	Reference string
	UserID    string
}

// ReservationInput entrada común de reserve, release y fulfill.
type ReservationInput struct {
	ItemID    string
	Quantity  int64
	Reference string
	UserID    string
}

// CreateRecord da de alta un registro con versión 1. Un SKU repetido es domain.ErrValidation.
func (uc *StockUseCase) CreateRecord(ctx context.Context, in CreateRecordInput) (*entity.StockRecord, error) {
	rec, err := inventory.NewRecord(uuid.New().String(), entity.StockRecord{
		SKU:          in.SKU,
		Name:         in.Name,
		Category:     in.Category,
		MinStock:     in.MinStock,
		MaxStock:     in.MaxStock,
		OpeningStock: in.OpeningStock,
		CostPrice:    in.CostPrice,
		SellingPrice: in.SellingPrice,
	}, uc.now())
	if err != nil {
		return nil, err
	}
	if err := uc.records.Create(ctx, rec); err != nil {
		return nil, err
	}
	uc.notify(ctx, []*inventory.Change{{After: rec}})
	return rec, nil
}

// Restock suma unidades al stock actual y al disponible y registra un movimiento "in".
func (uc *StockUseCase) Restock(ctx context.Context, in RestockInput) (*entity.StockRecord, error) {
	return uc.apply(ctx, "restock", in.ItemID, in.UserID, func(rec *entity.StockRecord, now time.Time) (*inventory.Change, error) {
		return inventory.Restock(rec, in.Quantity, in.Reason, in.Reference, now)
	})
}

// Adjust aplica un ajuste manual recortado en cero.
func (uc *StockUseCase) Adjust(ctx context.Context, in AdjustInput) (*entity.StockRecord, error) {
	return uc.apply(ctx, "adjust", in.ItemID, in.UserID, func(rec *entity.StockRecord, now time.Time) (*inventory.Change, error) {
		return inventory.Adjust(rec, in.Quantity, in.Direction, in.Reason, in.Reference, now)
	})
}

// Reserve compromete unidades disponibles.
func (uc *StockUseCase) Reserve(ctx context.Context, in ReservationInput) (*entity.StockRecord, error) {
	return uc.apply(ctx, "reserve", in.ItemID, in.UserID, func(rec *entity.StockRecord, now time.Time) (*inventory.Change, error) {
		return inventory.Reserve(rec, in.Quantity, now)
	})
}

// Release libera unidades reservadas.
func (uc *StockUseCase) Release(ctx context.Context, in ReservationInput) (*entity.StockRecord, error) {
	return uc.apply(ctx, "release", in.ItemID, in.UserID, func(rec *entity.StockRecord, now time.Time) (*inventory.Change, error) {
		return inventory.Release(rec, in.Quantity, now)
	})
}

// Fulfill despacha unidades reservadas y registra un movimiento "out".
func (uc *StockUseCase) Fulfill(ctx context.Context, in ReservationInput) (*entity.StockRecord, error) {
	return uc.apply(ctx, "fulfill", in.ItemID, in.UserID, func(rec *entity.StockRecord, now time.Time) (*inventory.Change, error) {
		return inventory.Fulfill(rec, in.Quantity, in.Reference, now)
	})
}

// Discontinue marca el ítem como descontinuado (idempotente).
func (uc *StockUseCase) Discontinue(ctx context.Context, itemID, userID string) (*entity.StockRecord, error) {
	return uc.apply(ctx, "discontinue", itemID, userID, func(rec *entity.StockRecord, now time.Time) (*inventory.Change, error) {
		return inventory.Discontinue(rec, now), nil
	})
}

// GetRecord devuelve el registro; si hay movimientos huérfanos los reconcilia antes.
func (uc *StockUseCase) GetRecord(ctx context.Context, itemID string) (*entity.StockRecord, error) {
	rec, err := uc.records.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}
	pending, err := uc.movements.ListPending(ctx, itemID, rec.Version)
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return rec, nil
	}
	return uc.Reconcile(ctx, itemID)
}

// Reconcile rehace, en orden de secuencia, las escrituras de registro que quedaron sin
// aplicar tras un movimiento ya agregado al libro.
func (uc *StockUseCase) Reconcile(ctx context.Context, itemID string) (*entity.StockRecord, error) {
	var (
		result  *entity.StockRecord
		changes []*inventory.Change
	)
	err := uc.txRunner.Run(ctx, func(movRepo repository.MovementRepository, recordRepo repository.StockRecordRepository) error {
		rec, replayed, err := loadReconciled(ctx, movRepo, recordRepo, itemID)
		if err != nil {
			return err
		}
		result, changes = rec, replayed
		return nil
	})
	if err != nil {
		uc.conflicted("reconcile", itemID, err)
		return nil, err
	}
	uc.logReplays(changes)
	uc.notify(ctx, changes)
	return result, nil
}

// apply ejecuta el ciclo leer-calcular-escribir condicional de una operación.
func (uc *StockUseCase) apply(
	ctx context.Context,
	op, itemID, userID string,
	compute func(rec *entity.StockRecord, now time.Time) (*inventory.Change, error),
) (*entity.StockRecord, error) {
	var (
		result  *entity.StockRecord
		changes []*inventory.Change
	)
	err := uc.txRunner.Run(ctx, func(movRepo repository.MovementRepository, recordRepo repository.StockRecordRepository) error {
		rec, replayed, err := loadReconciled(ctx, movRepo, recordRepo, itemID)
		if err != nil {
			return err
		}
		changes = replayed

		ch, err := compute(rec, uc.now())
		if err != nil {
			return err
		}
		if ch.NoOp() {
			result = rec
			return nil
		}
		if ch.Movement != nil {
			ch.Movement.CreatedBy = userID
			if err := movRepo.Append(ctx, ch.Movement); err != nil {
				return err
			}
		}
		if err := recordRepo.Update(ctx, ch.After, ch.Before.Version); err != nil {
			return err
		}
		changes = append(changes, ch)
		result = ch.After
		return nil
	})
	if err != nil {
		uc.conflicted(op, itemID, err)
		return nil, err
	}
	uc.logReplays(changes)
	uc.notify(ctx, changes)
	return result, nil
}

// loadReconciled lee el registro y aplica los movimientos huérfanos dentro de la misma unidad de trabajo.
// Un movimiento es huérfano si su ExpectedVersion es >= la versión almacenada.
func loadReconciled(
	ctx context.Context,
	movRepo repository.MovementRepository,
	recordRepo repository.StockRecordRepository,
	itemID string,
) (*entity.StockRecord, []*inventory.Change, error) {
	rec, err := recordRepo.Get(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}
	pending, err := movRepo.ListPending(ctx, itemID, rec.Version)
	if err != nil {
		return nil, nil, err
	}
	var changes []*inventory.Change
	for _, mov := range pending {
		after, err := inventory.Replay(rec, mov)
		if err != nil {
			return nil, nil, fmt.Errorf("reconciliar ítem %s: %w", itemID, err)
		}
		if err := recordRepo.Update(ctx, after, rec.Version); err != nil {
			return nil, nil, err
		}
		changes = append(changes, &inventory.Change{Before: rec, After: after, Movement: mov, Replayed: true})
		rec = after
	}
	return rec, changes, nil
}

func (uc *StockUseCase) notify(ctx context.Context, changes []*inventory.Change) {
	for _, ch := range changes {
		for _, o := range uc.observers {
			o.OnCommit(ctx, ch)
		}
	}
}

func (uc *StockUseCase) conflicted(op, itemID string, err error) {
	if !errors.Is(err, domain.ErrConflict) {
		return
	}
	uc.log.Debug().Str("op", op).Str("item_id", itemID).Msg("conflicto de versión")
	for _, o := range uc.observers {
		o.OnConflict(op)
	}
}

func (uc *StockUseCase) logReplays(changes []*inventory.Change) {
	for _, ch := range changes {
		if !ch.Replayed {
			continue
		}
		uc.log.Warn().
			Str("item_id", ch.After.ItemID).
			Str("movement_id", ch.Movement.ID).
			Int64("version", ch.After.Version).
			Msg("movimiento huérfano reconciliado")
	}
}
