package memory

import (
	"context"
	"fmt"

	"github.com/jhoicas/stock-engine/internal/domain"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
	"github.com/jhoicas/stock-engine/internal/domain/repository"
)

var _ repository.SupplierRepository = (*SupplierRepo)(nil)

// SupplierRepo implementa repository.SupplierRepository.
type SupplierRepo struct {
	s *Store
}

// NewSupplierRepository construye el repositorio sobre el almacén.
func NewSupplierRepository(s *Store) *SupplierRepo {
	return &SupplierRepo{s: s}
}

func (r *SupplierRepo) Create(_ context.Context, sup *entity.Supplier) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.suppliers[sup.ID]; exists {
		return fmt.Errorf("%w: proveedor %s ya existe", domain.ErrValidation, sup.ID)
	}
	c := *sup
	r.s.suppliers[sup.ID] = &c
	return nil
}

func (r *SupplierRepo) Get(_ context.Context, id string) (*entity.Supplier, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sup, ok := r.s.suppliers[id]
	if !ok {
		return nil, fmt.Errorf("%w: proveedor %s", domain.ErrNotFound, id)
	}
	c := *sup
	return &c, nil
}
