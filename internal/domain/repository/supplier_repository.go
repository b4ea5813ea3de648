package repository

import (
	"context"

	"github.com/jhoicas/stock-engine/internal/domain/entity"
)

// SupplierRepository puerto para la referencia de proveedores.
type SupplierRepository interface {
	Create(ctx context.Context, s *entity.Supplier) error
	Get(ctx context.Context, id string) (*entity.Supplier, error)
}
