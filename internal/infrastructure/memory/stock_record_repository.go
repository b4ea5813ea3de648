package memory

import (
	"context"
	"fmt"

	"github.com/jhoicas/stock-engine/internal/domain"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
	"github.com/jhoicas/stock-engine/internal/domain/repository"
)

var _ repository.StockRecordRepository = (*StockRecordRepo)(nil)

// StockRecordRepo implementa repository.StockRecordRepository.
// Con uow != nil las escrituras quedan pendientes hasta el commit de la unidad de trabajo.
type StockRecordRepo struct {
	s   *Store
	uow *unitOfWork
}

// NewStockRecordRepository construye el repositorio sobre el almacén.
func NewStockRecordRepository(s *Store) *StockRecordRepo {
	return &StockRecordRepo{s: s}
}

// Create inserta un registro nuevo. SKU repetido es domain.ErrValidation.
func (r *StockRecordRepo) Create(_ context.Context, rec *entity.StockRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, taken := r.s.skus[rec.SKU]; taken {
		return fmt.Errorf("%w: sku %s ya existe", domain.ErrValidation, rec.SKU)
	}
	if _, exists := r.s.records[rec.ItemID]; exists {
		return fmt.Errorf("%w: ítem %s ya existe", domain.ErrValidation, rec.ItemID)
	}
	r.s.records[rec.ItemID] = rec.Clone()
	r.s.skus[rec.SKU] = rec.ItemID
	return nil
}

// Get devuelve una copia del registro, viendo las escrituras pendientes de la unidad de trabajo.
func (r *StockRecordRepo) Get(_ context.Context, itemID string) (*entity.StockRecord, error) {
	if r.uow != nil {
		if rec, ok := r.uow.pendingRecord(itemID); ok {
			return rec.Clone(), nil
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rec, ok := r.s.records[itemID]
	if !ok {
		return nil, fmt.Errorf("%w: ítem %s", domain.ErrNotFound, itemID)
	}
	return rec.Clone(), nil
}

// Update escritura condicional por versión.
func (r *StockRecordRepo) Update(_ context.Context, rec *entity.StockRecord, expectedVersion int64) error {
	if r.uow != nil {
		r.uow.stageRecord(rec, expectedVersion)
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.writeRecord(rec, expectedVersion)
}

// List pagina por SKU.
func (r *StockRecordRepo) List(_ context.Context, filter entity.StockRecordFilter, afterSKU string, limit int) ([]*entity.StockRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.listRecords(filter, afterSKU, limit), nil
}
