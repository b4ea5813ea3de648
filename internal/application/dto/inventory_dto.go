package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateStockRecordRequest body para POST /api/inventory/records.
type CreateStockRecordRequest struct {
	SKU          string          `json:"sku" validate:"required,min=1,max=100"`
	Name         string          `json:"name" validate:"required,min=1,max=200"`
	Category     string          `json:"category" validate:"max=100"`
	MinStock     int64           `json:"min_stock" validate:"gte=0"`
	MaxStock     int64           `json:"max_stock" validate:"gtefield=MinStock"`
	OpeningStock int64           `json:"opening_stock" validate:"gte=0"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	SellingPrice decimal.Decimal `json:"selling_price"`
}

// RestockRequest body para POST /api/inventory/records/:id/restock.
type RestockRequest struct {
	Quantity  int64  `json:"quantity" validate:"required,gt=0"`
	Reason    string `json:"reason" validate:"max=200"`
	Reference string `json:"reference,omitempty" validate:"max=100"`
}

// AdjustRequest body para POST /api/inventory/records/:id/adjust.
type AdjustRequest struct {
	Quantity  int64  `json:"quantity" validate:"required,gt=0"`
	Direction string `json:"direction" validate:"required,oneof=increase decrease"`
	Reason    string `json:"reason" validate:"required,oneof=damaged expired lost found returned count_correction other"`
	Reference string `json:"reference,omitempty" validate:"max=100"`
}

// ReservationRequest body para reserve, release y fulfill.
type ReservationRequest struct {
	Quantity  int64  `json:"quantity" validate:"required,gt=0"`
	Reference string `json:"reference,omitempty" validate:"max=100"`
}

// StockRecordFilterRequest query de GET /api/inventory/records.
type StockRecordFilterRequest struct {
	Status   string `query:"status" validate:"omitempty,oneof=in_stock low_stock out_of_stock discontinued"`
	Category string `query:"category"`
	Search   string `query:"search"`
}

// StockRecordResponse salida de un registro de stock.
type StockRecordResponse struct {
	ItemID          string          `json:"item_id"`
	SKU             string          `json:"sku"`
	Name            string          `json:"name"`
	Category        string          `json:"category"`
	CurrentStock    int64           `json:"current_stock"`
	ReservedStock   int64           `json:"reserved_stock"`
	AvailableStock  int64           `json:"available_stock"`
	OpeningStock    int64           `json:"opening_stock"`
	MinStock        int64           `json:"min_stock"`
	MaxStock        int64           `json:"max_stock"`
	CostPrice       decimal.Decimal `json:"cost_price"`
	SellingPrice    decimal.Decimal `json:"selling_price"`
	TotalValue      decimal.Decimal `json:"total_value"`
	Status          string          `json:"status"`
	LastRestockedAt *time.Time      `json:"last_restocked_at,omitempty"`
	Version         int64           `json:"version"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// StockRecordListResponse listado de registros.
type StockRecordListResponse struct {
	Items []StockRecordResponse `json:"items"`
	Total int                   `json:"total"`
}

// MovementResponse entrada del libro de movimientos.
type MovementResponse struct {
	ID              string    `json:"id"`
	Sequence        int64     `json:"sequence"`
	ItemID          string    `json:"item_id"`
	Kind            string    `json:"kind"`
	Quantity        int64     `json:"quantity"`
	Reason          string    `json:"reason"`
	Reference       string    `json:"reference,omitempty"`
	StockBefore     int64     `json:"stock_before"`
	StockAfter      int64     `json:"stock_after"`
	ExpectedVersion int64     `json:"expected_version"`
	OccurredAt      time.Time `json:"occurred_at"`
	CreatedBy       string    `json:"created_by,omitempty"`
}

// AuditResponse salida de GET /api/inventory/records/:id/audit.
type AuditResponse struct {
	ItemID       string `json:"item_id"`
	OpeningStock int64  `json:"opening_stock"`
	ReplaySum    int64  `json:"replay_sum"`
	CurrentStock int64  `json:"current_stock"`
	Consistent   bool   `json:"consistent"`
}

// ReplenishmentSuggestionDTO sugerencia de reposición para un ítem en low_stock u out_of_stock.
type ReplenishmentSuggestionDTO struct {
	ItemID        string          `json:"item_id"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Status        string          `json:"status"`
	CurrentStock  int64           `json:"current_stock"`
	MinStock      int64           `json:"min_stock"`
	MaxStock      int64           `json:"max_stock"`
	Deficit       int64           `json:"deficit"`        // MinStock - CurrentStock
	SuggestedQty  int64           `json:"suggested_qty"`  // MaxStock - CurrentStock, mínimo 1
	UnitCost      decimal.Decimal `json:"unit_cost"`      // costo unitario del registro
	EstimatedCost decimal.Decimal `json:"estimated_cost"` // SuggestedQty * UnitCost
	Priority      int             `json:"priority"`       // 1 = más urgente
}
