package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-engine/internal/domain"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
	"github.com/jhoicas/stock-engine/internal/domain/repository"
)

var _ repository.PurchaseOrderRepository = (*PurchaseOrderRepo)(nil)

const purchaseOrderColumns = `id, supplier_id, total_amount, status, ordered_at, expected_at, delivered_at, version, updated_at`

// PurchaseOrderRepo órdenes de compra y sus líneas sobre PostgreSQL.
// Las escrituras de cabecera + líneas se hacen dentro de una (sub)transacción.
type PurchaseOrderRepo struct {
	q Querier
}

// NewPurchaseOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPurchaseOrderRepository(q Querier) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{q: q}
}

// Create inserta la cabecera y las líneas.
func (r *PurchaseOrderRepo) Create(ctx context.Context, po *entity.PurchaseOrder) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO purchase_orders (`+purchaseOrderColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			po.ID, po.SupplierID, po.TotalAmount, string(po.Status), po.OrderedAt, po.ExpectedAt,
			po.DeliveredAt, po.Version, po.UpdatedAt,
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				return fmt.Errorf("%w: proveedor %s desconocido", domain.ErrValidation, po.SupplierID)
			}
			return fmt.Errorf("insert purchase order: %w", err)
		}
		return insertLines(ctx, tx, po)
	})
}

// Get obtiene la orden con sus líneas.
func (r *PurchaseOrderRepo) Get(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	po, err := scanPurchaseOrder(r.q.QueryRow(ctx, `SELECT `+purchaseOrderColumns+` FROM purchase_orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: orden de compra %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("get purchase order: %w", err)
	}
	if err := r.loadLines(ctx, []*entity.PurchaseOrder{po}); err != nil {
		return nil, err
	}
	return po, nil
}

// Update escritura condicional por versión; reemplaza las líneas.
func (r *PurchaseOrderRepo) Update(ctx context.Context, po *entity.PurchaseOrder, expectedVersion int64) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE purchase_orders SET
				total_amount = $2, status = $3, expected_at = $4, delivered_at = $5,
				version = $6, updated_at = $7
			WHERE id = $1 AND version = $8`,
			po.ID, po.TotalAmount, string(po.Status), po.ExpectedAt, po.DeliveredAt,
			po.Version, po.UpdatedAt, expectedVersion,
		)
		if err != nil {
			return fmt.Errorf("update purchase order: %w", err)
		}
		if tag.RowsAffected() == 0 {
			var current int64
			err := tx.QueryRow(ctx, `SELECT version FROM purchase_orders WHERE id = $1`, po.ID).Scan(&current)
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: orden de compra %s", domain.ErrNotFound, po.ID)
			}
			if err != nil {
				return fmt.Errorf("check purchase order version: %w", err)
			}
			return fmt.Errorf("%w: orden %s en versión %d, se esperaba %d", domain.ErrConflict, po.ID, current, expectedVersion)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM purchase_order_lines WHERE order_id = $1`, po.ID); err != nil {
			return fmt.Errorf("delete purchase order lines: %w", err)
		}
		return insertLines(ctx, tx, po)
	})
}

// List ordenadas por fecha descendente; status vacío no filtra.
func (r *PurchaseOrderRepo) List(ctx context.Context, status entity.PurchaseOrderStatus) ([]*entity.PurchaseOrder, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+purchaseOrderColumns+`
		FROM purchase_orders
		WHERE ($1 = '' OR status = $1)
		ORDER BY ordered_at DESC, id`, string(status))
	if err != nil {
		return nil, fmt.Errorf("list purchase orders: %w", err)
	}
	defer rows.Close()

	out := make([]*entity.PurchaseOrder, 0)
	for rows.Next() {
		po, err := scanPurchaseOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan purchase order: %w", err)
		}
		out = append(out, po)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadLines(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete borra la orden si sigue en expectedVersion (las líneas caen en cascada).
func (r *PurchaseOrderRepo) Delete(ctx context.Context, id string, expectedVersion int64) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM purchase_orders WHERE id = $1 AND version = $2`, id, expectedVersion)
		if err != nil {
			return fmt.Errorf("delete purchase order: %w", err)
		}
		if tag.RowsAffected() > 0 {
			return nil
		}
		var current int64
		err = tx.QueryRow(ctx, `SELECT version FROM purchase_orders WHERE id = $1`, id).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: orden de compra %s", domain.ErrNotFound, id)
		}
		if err != nil {
			return fmt.Errorf("check purchase order version: %w", err)
		}
		return fmt.Errorf("%w: orden %s en versión %d, se esperaba %d", domain.ErrConflict, id, current, expectedVersion)
	})
}

func (r *PurchaseOrderRepo) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.q.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *PurchaseOrderRepo) loadLines(ctx context.Context, orders []*entity.PurchaseOrder) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	byID := make(map[string]*entity.PurchaseOrder, len(orders))
	for i, po := range orders {
		ids[i] = po.ID
		byID[po.ID] = po
	}
	rows, err := r.q.Query(ctx, `
		SELECT order_id, item_id, quantity, unit_cost
		FROM purchase_order_lines
		WHERE order_id = ANY($1)
		ORDER BY order_id, line_no`, ids)
	if err != nil {
		return fmt.Errorf("list purchase order lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			orderID string
			l       entity.PurchaseOrderLine
		)
		if err := rows.Scan(&orderID, &l.ItemID, &l.Quantity, &l.UnitCost); err != nil {
			return fmt.Errorf("scan purchase order line: %w", err)
		}
		if po, ok := byID[orderID]; ok {
			po.Lines = append(po.Lines, l)
		}
	}
	return rows.Err()
}

func insertLines(ctx context.Context, tx pgx.Tx, po *entity.PurchaseOrder) error {
	batch := &pgx.Batch{}
	for i, l := range po.Lines {
		batch.Queue(`
			INSERT INTO purchase_order_lines (order_id, line_no, item_id, quantity, unit_cost)
			VALUES ($1, $2, $3, $4, $5)`, po.ID, i+1, l.ItemID, l.Quantity, l.UnitCost)
	}
	results := tx.SendBatch(ctx, batch)
	defer results.Close()
	for range po.Lines {
		if _, err := results.Exec(); err != nil {
			if isForeignKeyViolation(err) {
				return fmt.Errorf("%w: línea con ítem desconocido", domain.ErrValidation)
			}
			return fmt.Errorf("insert purchase order line: %w", err)
		}
	}
	return nil
}

func scanPurchaseOrder(row pgx.Row) (*entity.PurchaseOrder, error) {
	var (
		po     entity.PurchaseOrder
		status string
	)
	err := row.Scan(&po.ID, &po.SupplierID, &po.TotalAmount, &status, &po.OrderedAt, &po.ExpectedAt,
		&po.DeliveredAt, &po.Version, &po.UpdatedAt)
	if err != nil {
		return nil, err
	}
	po.Status = entity.PurchaseOrderStatus(status)
	return &po, nil
}
