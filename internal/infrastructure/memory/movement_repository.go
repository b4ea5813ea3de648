package memory

import (
	"context"
	"time"

	"github.com/jhoicas/stock-engine/internal/domain/entity"
	"github.com/jhoicas/stock-engine/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo implementa repository.MovementRepository (libro solo de inserción).
type MovementRepo struct {
	s   *Store
	uow *unitOfWork
}

// NewMovementRepository construye el repositorio sobre el almacén.
func NewMovementRepository(s *Store) *MovementRepo {
	return &MovementRepo{s: s}
}

// Append valida y agrega el movimiento. Dentro de una unidad de trabajo la secuencia
// se asigna al confirmar.
func (r *MovementRepo) Append(_ context.Context, mov *entity.Movement) error {
	if r.uow != nil {
		r.s.mu.RLock()
		err := r.s.checkMovement(mov)
		r.s.mu.RUnlock()
		if err != nil {
			return err
		}
		r.uow.stageMovement(mov)
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.appendMovement(mov)
}

// ListFor del más nuevo al más antiguo, con Sequence < beforeSeq (0 = sin cota).
func (r *MovementRepo) ListFor(_ context.Context, itemID string, beforeSeq int64, limit int) ([]*entity.Movement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	all := r.s.movements[itemID]
	out := make([]*entity.Movement, 0)
	for i := len(all) - 1; i >= 0; i-- {
		m := all[i]
		if beforeSeq > 0 && m.Sequence >= beforeSeq {
			continue
		}
		c := *m
		out = append(out, &c)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// ListPending en orden de secuencia, los de ExpectedVersion >= fromVersion.
func (r *MovementRepo) ListPending(_ context.Context, itemID string, fromVersion int64) ([]*entity.Movement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.Movement
	for _, m := range r.s.movements[itemID] {
		if m.ExpectedVersion >= fromVersion {
			c := *m
			out = append(out, &c)
		}
	}
	return out, nil
}

// ReplaySum suma las cantidades con OccurredAt <= upto.
func (r *MovementRepo) ReplaySum(_ context.Context, itemID string, upto time.Time) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var sum int64
	for _, m := range r.s.movements[itemID] {
		if !m.OccurredAt.After(upto) {
			sum += m.Quantity
		}
	}
	return sum, nil
}
