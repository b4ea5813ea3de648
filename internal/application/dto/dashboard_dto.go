package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// AggregatesDTO respuesta de GET /api/inventory/aggregates.
type AggregatesDTO struct {
	TotalValue      decimal.Decimal `json:"total_value"`        // suma de total_value de todos los registros
	LowStockCount   int64           `json:"low_stock_count"`    // registros en low_stock
	OutOfStockCount int64           `json:"out_of_stock_count"` // registros en out_of_stock
	ItemCount       int64           `json:"item_count"`
	ComputedAt      time.Time       `json:"computed_at"`
}
