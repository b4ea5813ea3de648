package memory

import (
	"context"
	"fmt"

	"github.com/jhoicas/stock-engine/internal/application/inventory"
	"github.com/jhoicas/stock-engine/internal/domain"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
	"github.com/jhoicas/stock-engine/internal/domain/repository"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una unidad de trabajo en memoria.
// Las escrituras se acumulan y se confirman juntas: primero se verifican todas las
// versiones esperadas, luego se agregan los movimientos al libro y por último se
// escriben los registros.
type TxRunner struct {
	s *Store
}

// NewTxRunner construye el runner sobre el almacén.
func NewTxRunner(s *Store) *TxRunner {
	return &TxRunner{s: s}
}

// Run ejecuta fn con repos atados a la unidad de trabajo y confirma si fn no falla.
func (r *TxRunner) Run(ctx context.Context, fn func(
	movRepo repository.MovementRepository,
	recordRepo repository.StockRecordRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	uow := &unitOfWork{}
	movRepo := &MovementRepo{s: r.s, uow: uow}
	recordRepo := &StockRecordRepo{s: r.s, uow: uow}

	if err := fn(movRepo, recordRepo); err != nil {
		return err
	}
	return uow.commit(r.s)
}

type stagedRecord struct {
	rec             *entity.StockRecord
	expectedVersion int64
}

type unitOfWork struct {
	records   []stagedRecord
	movements []*entity.Movement
}

func (u *unitOfWork) stageRecord(rec *entity.StockRecord, expectedVersion int64) {
	u.records = append(u.records, stagedRecord{rec: rec.Clone(), expectedVersion: expectedVersion})
}

func (u *unitOfWork) stageMovement(mov *entity.Movement) {
	u.movements = append(u.movements, mov)
}

// pendingRecord última versión pendiente del ítem dentro de la unidad de trabajo.
func (u *unitOfWork) pendingRecord(itemID string) (*entity.StockRecord, bool) {
	for i := len(u.records) - 1; i >= 0; i-- {
		if u.records[i].rec.ItemID == itemID {
			return u.records[i].rec, true
		}
	}
	return nil, false
}

func (u *unitOfWork) commit(s *Store) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Las escrituras encadenadas sobre un mismo ítem se validan contra la versión
	// que dejó la escritura anterior de esta misma unidad.
	versions := make(map[string]int64)
	for _, st := range u.records {
		cur, ok := versions[st.rec.ItemID]
		if !ok {
			stored, exists := s.records[st.rec.ItemID]
			if !exists {
				return fmt.Errorf("%w: ítem %s", domain.ErrNotFound, st.rec.ItemID)
			}
			cur = stored.Version
		}
		if cur != st.expectedVersion {
			return fmt.Errorf("%w: ítem %s en versión %d, se esperaba %d", domain.ErrConflict, st.rec.ItemID, cur, st.expectedVersion)
		}
		versions[st.rec.ItemID] = st.rec.Version
	}

	for _, mov := range u.movements {
		if err := s.appendMovement(mov); err != nil {
			return err
		}
	}
	if s.fault != nil {
		if err := s.fault(StageAfterLedger); err != nil {
			return err
		}
	}
	for _, st := range u.records {
		s.records[st.rec.ItemID] = st.rec
	}
	return nil
}
