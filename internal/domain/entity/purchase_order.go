package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseOrderStatus estado del ciclo de vida de una orden de compra.
type PurchaseOrderStatus string

const (
	POStatusDraft     PurchaseOrderStatus = "draft"
	POStatusSent      PurchaseOrderStatus = "sent"
	POStatusConfirmed PurchaseOrderStatus = "confirmed"
	POStatusShipped   PurchaseOrderStatus = "shipped"
	POStatusDelivered PurchaseOrderStatus = "delivered"
	POStatusCancelled PurchaseOrderStatus = "cancelled"
)

// IsValid indica si el estado es conocido.
func (s PurchaseOrderStatus) IsValid() bool {
	switch s {
	case POStatusDraft, POStatusSent, POStatusConfirmed,
		POStatusShipped, POStatusDelivered, POStatusCancelled:
		return true
	}
	return false
}

// IsTerminal delivered y cancelled no tienen transiciones de salida.
func (s PurchaseOrderStatus) IsTerminal() bool {
	return s == POStatusDelivered || s == POStatusCancelled
}

var poTransitions = map[PurchaseOrderStatus][]PurchaseOrderStatus{
	POStatusDraft:     {POStatusSent, POStatusCancelled},
	POStatusSent:      {POStatusConfirmed, POStatusCancelled},
	POStatusConfirmed: {POStatusShipped, POStatusCancelled},
	POStatusShipped:   {POStatusDelivered, POStatusCancelled},
	POStatusDelivered: {},
	POStatusCancelled: {},
}

// CanTransitionTo verifica la tabla de transiciones del ciclo de vida.
func (s PurchaseOrderStatus) CanTransitionTo(target PurchaseOrderStatus) bool {
	allowed, ok := poTransitions[s]
	if !ok {
		return false
	}
	for _, a := range allowed {
		if a == target {
			return true
		}
	}
	return false
}

// PurchaseOrderLine línea de la orden.
type PurchaseOrderLine struct {
	ItemID   string
	Quantity int64
	UnitCost decimal.Decimal
}

// Subtotal Quantity * UnitCost.
func (l PurchaseOrderLine) Subtotal() decimal.Decimal {
	return l.UnitCost.Mul(decimal.NewFromInt(l.Quantity))
}

// PurchaseOrder solicitud de reposición a un proveedor con ciclo de vida propio.
type PurchaseOrder struct {
	ID          string
	SupplierID  string
	Lines       []PurchaseOrderLine
	TotalAmount decimal.Decimal
	Status      PurchaseOrderStatus
	OrderedAt   time.Time
	ExpectedAt  *time.Time
	DeliveredAt *time.Time
	Version     int64
	UpdatedAt   time.Time
}

// Clone copia profunda (líneas y punteros de fecha).
func (po *PurchaseOrder) Clone() *PurchaseOrder {
	if po == nil {
		return nil
	}
	c := *po
	c.Lines = append([]PurchaseOrderLine(nil), po.Lines...)
	if po.ExpectedAt != nil {
		t := *po.ExpectedAt
		c.ExpectedAt = &t
	}
	if po.DeliveredAt != nil {
		t := *po.DeliveredAt
		c.DeliveredAt = &t
	}
	return &c
}
