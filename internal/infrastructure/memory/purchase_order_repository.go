package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/stock-engine/internal/domain"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
	"github.com/jhoicas/stock-engine/internal/domain/repository"
)

var _ repository.PurchaseOrderRepository = (*PurchaseOrderRepo)(nil)

// PurchaseOrderRepo implementa repository.PurchaseOrderRepository.
type PurchaseOrderRepo struct {
	s *Store
}

// NewPurchaseOrderRepository construye el repositorio sobre el almacén.
func NewPurchaseOrderRepository(s *Store) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{s: s}
}

func (r *PurchaseOrderRepo) Create(_ context.Context, po *entity.PurchaseOrder) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.orders[po.ID]; exists {
		return fmt.Errorf("%w: orden %s ya existe", domain.ErrValidation, po.ID)
	}
	r.s.orders[po.ID] = po.Clone()
	return nil
}

func (r *PurchaseOrderRepo) Get(_ context.Context, id string) (*entity.PurchaseOrder, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	po, ok := r.s.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: orden de compra %s", domain.ErrNotFound, id)
	}
	return po.Clone(), nil
}

func (r *PurchaseOrderRepo) Update(_ context.Context, po *entity.PurchaseOrder, expectedVersion int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.orders[po.ID]
	if !ok {
		return fmt.Errorf("%w: orden de compra %s", domain.ErrNotFound, po.ID)
	}
	if cur.Version != expectedVersion {
		return fmt.Errorf("%w: orden %s en versión %d, se esperaba %d", domain.ErrConflict, po.ID, cur.Version, expectedVersion)
	}
	r.s.orders[po.ID] = po.Clone()
	return nil
}

// List ordenadas por fecha de orden descendente; status vacío no filtra.
func (r *PurchaseOrderRepo) List(_ context.Context, status entity.PurchaseOrderStatus) ([]*entity.PurchaseOrder, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entity.PurchaseOrder, 0, len(r.s.orders))
	for _, po := range r.s.orders {
		if status == "" || po.Status == status {
			out = append(out, po.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OrderedAt.Equal(out[j].OrderedAt) {
			return out[i].OrderedAt.After(out[j].OrderedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *PurchaseOrderRepo) Delete(_ context.Context, id string, expectedVersion int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.orders[id]
	if !ok {
		return fmt.Errorf("%w: orden de compra %s", domain.ErrNotFound, id)
	}
	if cur.Version != expectedVersion {
		return fmt.Errorf("%w: orden %s en versión %d, se esperaba %d", domain.ErrConflict, id, cur.Version, expectedVersion)
	}
	delete(r.s.orders, id)
	return nil
}
