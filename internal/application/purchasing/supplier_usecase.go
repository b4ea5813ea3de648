package purchasing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/stock-engine/internal/domain"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
	"github.com/jhoicas/stock-engine/internal/domain/repository"
)

// SupplierUseCase registro de proveedores (referencia mínima para las órdenes).
type SupplierUseCase struct {
	suppliers repository.SupplierRepository
}

// NewSupplierUseCase construye el caso de uso.
func NewSupplierUseCase(suppliers repository.SupplierRepository) *SupplierUseCase {
	return &SupplierUseCase{suppliers: suppliers}
}

// RegisterSupplier da de alta un proveedor. status vacío equivale a active.
func (uc *SupplierUseCase) RegisterSupplier(ctx context.Context, name string, leadTimeDays int, status entity.SupplierStatus) (*entity.Supplier, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: el nombre del proveedor es requerido", domain.ErrValidation)
	}
	if leadTimeDays < 0 {
		return nil, fmt.Errorf("%w: lead_time_days no puede ser negativo", domain.ErrValidation)
	}
	if status == "" {
		status = entity.SupplierActive
	}
	if status != entity.SupplierActive && status != entity.SupplierInactive {
		return nil, fmt.Errorf("%w: estado de proveedor %q desconocido", domain.ErrValidation, status)
	}
	s := &entity.Supplier{
		ID:           uuid.New().String(),
		Name:         name,
		LeadTimeDays: leadTimeDays,
		Status:       status,
		CreatedAt:    time.Now().UTC(),
	}
	if err := uc.suppliers.Create(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// GetSupplier devuelve el proveedor o domain.ErrNotFound.
func (uc *SupplierUseCase) GetSupplier(ctx context.Context, id string) (*entity.Supplier, error) {
	return uc.suppliers.Get(ctx, id)
}
