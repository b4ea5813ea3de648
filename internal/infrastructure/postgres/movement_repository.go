package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-engine/internal/domain"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
	"github.com/jhoicas/stock-engine/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

const movementColumns = `sequence, id, item_id, kind, quantity, reason, reference, stock_before,
	stock_after, available_after, expected_version, occurred_at, created_by`

// MovementRepo libro de movimientos sobre PostgreSQL (usable con pool o tx).
// La tabla solo recibe INSERT; sequence es un BIGSERIAL.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Append inserta el movimiento y asigna Sequence.
func (r *MovementRepo) Append(ctx context.Context, mov *entity.Movement) error {
	if mov.Quantity == 0 {
		return fmt.Errorf("%w: un movimiento no puede tener cantidad cero", domain.ErrValidation)
	}
	query := `
		INSERT INTO stock_movements (id, item_id, kind, quantity, reason, reference, stock_before,
			stock_after, available_after, expected_version, occurred_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING sequence`
	err := r.q.QueryRow(ctx, query,
		mov.ID, mov.ItemID, string(mov.Kind), mov.Quantity, mov.Reason, mov.Reference, mov.StockBefore,
		mov.StockAfter, mov.AvailableAfter, mov.ExpectedVersion, mov.OccurredAt, mov.CreatedBy,
	).Scan(&mov.Sequence)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: ítem %s desconocido", domain.ErrValidation, mov.ItemID)
		}
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

// ListFor del más nuevo al más antiguo, con sequence < beforeSeq (0 = sin cota).
func (r *MovementRepo) ListFor(ctx context.Context, itemID string, beforeSeq int64, limit int) ([]*entity.Movement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM stock_movements
		WHERE item_id = $1 AND ($2 = 0 OR sequence < $2)
		ORDER BY sequence DESC`
	args := []any{itemID, beforeSeq}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}
	return r.list(ctx, query, args...)
}

// ListPending movimientos con expected_version >= fromVersion, en orden de secuencia.
func (r *MovementRepo) ListPending(ctx context.Context, itemID string, fromVersion int64) ([]*entity.Movement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM stock_movements
		WHERE item_id = $1 AND expected_version >= $2
		ORDER BY sequence`
	return r.list(ctx, query, itemID, fromVersion)
}

// ReplaySum suma las cantidades hasta upto inclusive.
func (r *MovementRepo) ReplaySum(ctx context.Context, itemID string, upto time.Time) (int64, error) {
	var sum int64
	err := r.q.QueryRow(ctx,
		`SELECT COALESCE(SUM(quantity), 0)::BIGINT FROM stock_movements WHERE item_id = $1 AND occurred_at <= $2`,
		itemID, upto,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("replay sum: %w", err)
	}
	return sum, nil
}

func (r *MovementRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Movement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()

	out := make([]*entity.Movement, 0)
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanMovement(row pgx.Row) (*entity.Movement, error) {
	var (
		m    entity.Movement
		kind string
	)
	err := row.Scan(
		&m.Sequence, &m.ID, &m.ItemID, &kind, &m.Quantity, &m.Reason, &m.Reference, &m.StockBefore,
		&m.StockAfter, &m.AvailableAfter, &m.ExpectedVersion, &m.OccurredAt, &m.CreatedBy,
	)
	if err != nil {
		return nil, err
	}
	m.Kind = entity.MovementKind(kind)
	return &m, nil
}
