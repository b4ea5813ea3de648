package repository

import (
	"context"

	"github.com/jhoicas/stock-engine/internal/domain/entity"
)

// PurchaseOrderRepository puerto de persistencia para órdenes de compra.
type PurchaseOrderRepository interface {
	Create(ctx context.Context, po *entity.PurchaseOrder) error
	Get(ctx context.Context, id string) (*entity.PurchaseOrder, error)
	// Update escritura condicional por versión (domain.ErrConflict si no coincide).
	Update(ctx context.Context, po *entity.PurchaseOrder, expectedVersion int64) error
	List(ctx context.Context, status entity.PurchaseOrderStatus) ([]*entity.PurchaseOrder, error)
	// Delete borra la orden solo si sigue en expectedVersion (domain.ErrConflict si no).
	Delete(ctx context.Context, id string, expectedVersion int64) error
}
