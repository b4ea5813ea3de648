package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateSupplierRequest body para POST /api/suppliers.
type CreateSupplierRequest struct {
	Name         string `json:"name" validate:"required,min=1,max=200"`
	LeadTimeDays int    `json:"lead_time_days" validate:"gte=0,lte=365"`
	Status       string `json:"status" validate:"omitempty,oneof=active inactive"`
}

// SupplierResponse salida de un proveedor.
type SupplierResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	LeadTimeDays int       `json:"lead_time_days"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// PurchaseOrderLineRequest línea de una orden.
type PurchaseOrderLineRequest struct {
	ItemID   string          `json:"item_id" validate:"required"`
	Quantity int64           `json:"quantity" validate:"required,gt=0"`
	UnitCost decimal.Decimal `json:"unit_cost"`
}

// CreatePurchaseOrderRequest body para POST /api/purchase-orders.
type CreatePurchaseOrderRequest struct {
	SupplierID string                     `json:"supplier_id" validate:"required"`
	Lines      []PurchaseOrderLineRequest `json:"lines" validate:"required,min=1,dive"`
	ExpectedAt *time.Time                 `json:"expected_at,omitempty"`
}

// UpdatePurchaseOrderLinesRequest body para PUT /api/purchase-orders/:id/lines.
type UpdatePurchaseOrderLinesRequest struct {
	Lines []PurchaseOrderLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// TransitionPurchaseOrderRequest body para POST /api/purchase-orders/:id/transition.
type TransitionPurchaseOrderRequest struct {
	Status string `json:"status" validate:"required,oneof=draft sent confirmed shipped delivered cancelled"`
}

// PurchaseOrderLineResponse línea con subtotal.
type PurchaseOrderLineResponse struct {
	ItemID   string          `json:"item_id"`
	Quantity int64           `json:"quantity"`
	UnitCost decimal.Decimal `json:"unit_cost"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// PurchaseOrderResponse salida de una orden de compra.
type PurchaseOrderResponse struct {
	ID          string                      `json:"id"`
	SupplierID  string                      `json:"supplier_id"`
	Lines       []PurchaseOrderLineResponse `json:"lines"`
	TotalAmount decimal.Decimal             `json:"total_amount"`
	Status      string                      `json:"status"`
	OrderedAt   time.Time                   `json:"ordered_at"`
	ExpectedAt  *time.Time                  `json:"expected_at,omitempty"`
	DeliveredAt *time.Time                  `json:"delivered_at,omitempty"`
	Version     int64                       `json:"version"`
}
