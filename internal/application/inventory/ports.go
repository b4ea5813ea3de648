package inventory

import (
	"context"

	"github.com/jhoicas/stock-engine/internal/domain/inventory"
	"github.com/jhoicas/stock-engine/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una unidad de trabajo, pasando repositorios atados a ella.
// Si fn devuelve error no se persiste nada. Si el commit detecta que otra escritura ganó
// la carrera devuelve domain.ErrConflict y tampoco se persiste nada.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		movRepo repository.MovementRepository,
		recordRepo repository.StockRecordRepository,
	) error) error
}

// Observer recibe cada cambio confirmado de un registro, después del commit y antes de
// devolver el control al llamador. Before es nil cuando el registro se acaba de crear.
type Observer interface {
	OnCommit(ctx context.Context, change *inventory.Change)
	OnConflict(op string)
}
