package repository

import (
	"context"

	"github.com/jhoicas/stock-engine/internal/domain/entity"
)

// StockRecordRepository define el puerto de persistencia para registros de stock.
// Update es una escritura condicional: solo se aplica si la versión almacenada es
// expectedVersion; en otro caso devuelve domain.ErrConflict.
type StockRecordRepository interface {
	Create(ctx context.Context, rec *entity.StockRecord) error
	Get(ctx context.Context, itemID string) (*entity.StockRecord, error)
	Update(ctx context.Context, rec *entity.StockRecord, expectedVersion int64) error
	// List pagina por SKU (keyset): devuelve hasta limit registros con sku > afterSKU.
	List(ctx context.Context, filter entity.StockRecordFilter, afterSKU string, limit int) ([]*entity.StockRecord, error)
}
