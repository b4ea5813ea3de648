package inventory

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-engine/internal/domain"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
)

// ValidateLines exige al menos una línea, cantidades positivas y costos no negativos.
func ValidateLines(lines []entity.PurchaseOrderLine) error {
	if len(lines) == 0 {
		return fmt.Errorf("%w: la orden requiere al menos una línea", domain.ErrValidation)
	}
	for i, l := range lines {
		switch {
		case strings.TrimSpace(l.ItemID) == "":
			return fmt.Errorf("%w: línea %d sin item_id", domain.ErrValidation, i+1)
		case l.Quantity <= 0:
			return fmt.Errorf("%w: línea %d: la cantidad debe ser mayor que cero", domain.ErrValidation, i+1)
		case l.UnitCost.IsNegative():
			return fmt.Errorf("%w: línea %d: el costo unitario no puede ser negativo", domain.ErrValidation, i+1)
		}
	}
	return nil
}

// TotalAmount suma los subtotales de las líneas.
func TotalAmount(lines []entity.PurchaseOrderLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// NewPurchaseOrder construye una orden en draft. expectedAt nil usa orderedAt + leadTimeDays.
func NewPurchaseOrder(id string, supplier *entity.Supplier, lines []entity.PurchaseOrderLine, expectedAt *time.Time, now time.Time) (*entity.PurchaseOrder, error) {
	if err := ValidateLines(lines); err != nil {
		return nil, err
	}
	if expectedAt == nil {
		t := now.AddDate(0, 0, supplier.LeadTimeDays)
		expectedAt = &t
	} else if expectedAt.Before(now) {
		return nil, fmt.Errorf("%w: expected_at no puede ser anterior a la fecha de la orden", domain.ErrValidation)
	}
	po := &entity.PurchaseOrder{
		ID:          id,
		SupplierID:  supplier.ID,
		Lines:       append([]entity.PurchaseOrderLine(nil), lines...),
		TotalAmount: TotalAmount(lines),
		Status:      entity.POStatusDraft,
		OrderedAt:   now,
		ExpectedAt:  expectedAt,
		Version:     1,
		UpdatedAt:   now,
	}
	return po, nil
}

// ReplaceLines sustituye las líneas de una orden en draft y recalcula el total.
func ReplaceLines(po *entity.PurchaseOrder, lines []entity.PurchaseOrderLine, now time.Time) (*entity.PurchaseOrder, error) {
	if po.Status != entity.POStatusDraft {
		return nil, fmt.Errorf("%w: las líneas solo se editan en draft (estado actual %s)", domain.ErrInvalidTransition, po.Status)
	}
	if err := ValidateLines(lines); err != nil {
		return nil, err
	}
	after := nextOrder(po, now)
	after.Lines = append([]entity.PurchaseOrderLine(nil), lines...)
	after.TotalAmount = TotalAmount(lines)
	return after, nil
}

// TransitionOrder aplica la tabla de transiciones. Entrar en delivered fija DeliveredAt.
func TransitionOrder(po *entity.PurchaseOrder, target entity.PurchaseOrderStatus, now time.Time) (*entity.PurchaseOrder, error) {
	if !target.IsValid() {
		return nil, fmt.Errorf("%w: estado %q desconocido", domain.ErrValidation, target)
	}
	if !po.Status.CanTransitionTo(target) {
		return nil, fmt.Errorf("%w: %s → %s", domain.ErrInvalidTransition, po.Status, target)
	}
	after := nextOrder(po, now)
	after.Status = target
	if target == entity.POStatusDelivered {
		t := now
		after.DeliveredAt = &t
	}
	return after, nil
}

// CanDelete solo draft y cancelled admiten borrado.
func CanDelete(po *entity.PurchaseOrder) error {
	if po.Status != entity.POStatusDraft && po.Status != entity.POStatusCancelled {
		return fmt.Errorf("%w: no se puede borrar una orden en estado %s", domain.ErrInvalidTransition, po.Status)
	}
	return nil
}

func nextOrder(po *entity.PurchaseOrder, now time.Time) *entity.PurchaseOrder {
	after := po.Clone()
	after.Version = po.Version + 1
	after.UpdatedAt = now
	return after
}
