package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-engine/internal/domain"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
	"github.com/jhoicas/stock-engine/internal/domain/repository"
	"github.com/jhoicas/stock-engine/pkg/textnorm"
)

var _ repository.StockRecordRepository = (*StockRecordRepo)(nil)

const stockRecordColumns = `item_id, sku, name, category, current_stock, reserved_stock, available_stock,
	opening_stock, min_stock, max_stock, cost_price, selling_price, total_value, status,
	last_restocked_at, version, created_at, updated_at`

// StockRecordRepo implementación de StockRecordRepository sobre PostgreSQL (usable con pool o tx).
type StockRecordRepo struct {
	q Querier
}

// NewStockRecordRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockRecordRepository(q Querier) *StockRecordRepo {
	return &StockRecordRepo{q: q}
}

// Create inserta el registro. SKU repetido es domain.ErrValidation.
func (r *StockRecordRepo) Create(ctx context.Context, rec *entity.StockRecord) error {
	query := `
		INSERT INTO stock_records (` + stockRecordColumns + `, search_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`
	_, err := r.q.Exec(ctx, query,
		rec.ItemID, rec.SKU, rec.Name, rec.Category, rec.CurrentStock, rec.ReservedStock, rec.AvailableStock,
		rec.OpeningStock, rec.MinStock, rec.MaxStock, rec.CostPrice, rec.SellingPrice, rec.TotalValue, string(rec.Status),
		rec.LastRestockedAt, rec.Version, rec.CreatedAt, rec.UpdatedAt, searchKey(rec),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: sku %s ya existe", domain.ErrValidation, rec.SKU)
		}
		return fmt.Errorf("insert stock record: %w", err)
	}
	return nil
}

// Get obtiene un registro por item_id.
func (r *StockRecordRepo) Get(ctx context.Context, itemID string) (*entity.StockRecord, error) {
	query := `SELECT ` + stockRecordColumns + ` FROM stock_records WHERE item_id = $1`
	rec, err := scanStockRecord(r.q.QueryRow(ctx, query, itemID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: ítem %s", domain.ErrNotFound, itemID)
		}
		return nil, fmt.Errorf("get stock record: %w", err)
	}
	return rec, nil
}

// Update reemplaza el registro solo si la versión almacenada es expectedVersion.
func (r *StockRecordRepo) Update(ctx context.Context, rec *entity.StockRecord, expectedVersion int64) error {
	query := `
		UPDATE stock_records SET
			sku = $2, name = $3, category = $4, current_stock = $5, reserved_stock = $6,
			available_stock = $7, min_stock = $8, max_stock = $9, cost_price = $10,
			selling_price = $11, total_value = $12, status = $13, last_restocked_at = $14,
			version = $15, updated_at = $16, search_key = $17
		WHERE item_id = $1 AND version = $18`
	tag, err := r.q.Exec(ctx, query,
		rec.ItemID, rec.SKU, rec.Name, rec.Category, rec.CurrentStock, rec.ReservedStock,
		rec.AvailableStock, rec.MinStock, rec.MaxStock, rec.CostPrice,
		rec.SellingPrice, rec.TotalValue, string(rec.Status), rec.LastRestockedAt,
		rec.Version, rec.UpdatedAt, searchKey(rec), expectedVersion,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: sku %s ya existe", domain.ErrValidation, rec.SKU)
		}
		return fmt.Errorf("update stock record: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var current int64
	err = r.q.QueryRow(ctx, `SELECT version FROM stock_records WHERE item_id = $1`, rec.ItemID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: ítem %s", domain.ErrNotFound, rec.ItemID)
		}
		return fmt.Errorf("check stock record version: %w", err)
	}
	return fmt.Errorf("%w: ítem %s en versión %d, se esperaba %d", domain.ErrConflict, rec.ItemID, current, expectedVersion)
}

// List pagina por SKU con filtros opcionales de estado, categoría y búsqueda.
func (r *StockRecordRepo) List(ctx context.Context, filter entity.StockRecordFilter, afterSKU string, limit int) ([]*entity.StockRecord, error) {
	search := textnorm.Fold(filter.Search)
	pattern := ""
	if search != "" {
		pattern = likePattern(search)
	}
	query := `
		SELECT ` + stockRecordColumns + `
		FROM stock_records
		WHERE sku > $1
		  AND ($2 = '' OR status = $2)
		  AND ($3 = '' OR lower(category) = lower($3))
		  AND ($4 = '' OR search_key LIKE $4)
		ORDER BY sku
		LIMIT $5`
	rows, err := r.q.Query(ctx, query, afterSKU, string(filter.Status), filter.Category, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("list stock records: %w", err)
	}
	defer rows.Close()

	out := make([]*entity.StockRecord, 0)
	for rows.Next() {
		rec, err := scanStockRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanStockRecord(row pgx.Row) (*entity.StockRecord, error) {
	var (
		rec    entity.StockRecord
		status string
	)
	err := row.Scan(
		&rec.ItemID, &rec.SKU, &rec.Name, &rec.Category, &rec.CurrentStock, &rec.ReservedStock, &rec.AvailableStock,
		&rec.OpeningStock, &rec.MinStock, &rec.MaxStock, &rec.CostPrice, &rec.SellingPrice, &rec.TotalValue, &status,
		&rec.LastRestockedAt, &rec.Version, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.Status = entity.StockStatus(status)
	return &rec, nil
}

func searchKey(rec *entity.StockRecord) string {
	return textnorm.Fold(rec.SKU + " " + rec.Name)
}
