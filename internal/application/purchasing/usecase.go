// Package purchasing implementa el ciclo de vida de las órdenes de compra a proveedores.
// La entrega se expone como evento; este paquete nunca repone stock por su cuenta.
package purchasing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-engine/internal/application/ports"
	"github.com/jhoicas/stock-engine/internal/domain"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
	"github.com/jhoicas/stock-engine/internal/domain/inventory"
	"github.com/jhoicas/stock-engine/internal/domain/repository"
	"github.com/jhoicas/stock-engine/pkg/logger"
)

// EventDelivered se publica al entrar una orden en delivered.
const EventDelivered = "purchase_order.delivered"

// DeliveredLine línea incluida en el evento de entrega.
type DeliveredLine struct {
	ItemID   string          `json:"item_id"`
	Quantity int64           `json:"quantity"`
	UnitCost decimal.Decimal `json:"unit_cost"`
}

// DeliveredPayload cuerpo del evento purchase_order.delivered.
type DeliveredPayload struct {
	OrderID     string          `json:"order_id"`
	SupplierID  string          `json:"supplier_id"`
	DeliveredAt time.Time       `json:"delivered_at"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Lines       []DeliveredLine `json:"lines"`
}

// PurchaseOrderUseCase casos de uso de órdenes de compra.
type PurchaseOrderUseCase struct {
	orders    repository.PurchaseOrderRepository
	suppliers repository.SupplierRepository
	records   repository.StockRecordRepository
	publisher ports.EventPublisher
	generator PurchaseOrderPDFGenerator
	log       *logger.Logger
	now       func() time.Time
}

// NewPurchaseOrderUseCase construye el caso de uso inyectando todas sus dependencias.
func NewPurchaseOrderUseCase(
	orders repository.PurchaseOrderRepository,
	suppliers repository.SupplierRepository,
	records repository.StockRecordRepository,
	publisher ports.EventPublisher,
	generator PurchaseOrderPDFGenerator,
	log *logger.Logger,
) *PurchaseOrderUseCase {
	return &PurchaseOrderUseCase{
		orders:    orders,
		suppliers: suppliers,
		records:   records,
		publisher: publisher,
		generator: generator,
		log:       log.Component("purchasing"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreatePurchaseOrderInput entrada para crear una orden.
type CreatePurchaseOrderInput struct {
	SupplierID string
	Lines      []entity.PurchaseOrderLine
	ExpectedAt *time.Time
}

// Create crea una orden en draft para un proveedor activo.
//
// Retorna:
//   - domain.ErrNotFound    si el proveedor no existe.
//   - domain.ErrValidation  si el proveedor está inactivo, las líneas son inválidas
//     o algún ítem no existe en el almacén.
func (uc *PurchaseOrderUseCase) Create(ctx context.Context, in CreatePurchaseOrderInput) (*entity.PurchaseOrder, error) {
	supplier, err := uc.suppliers.Get(ctx, in.SupplierID)
	if err != nil {
		return nil, err
	}
	if supplier.Status != entity.SupplierActive {
		return nil, fmt.Errorf("%w: el proveedor %s está inactivo", domain.ErrValidation, supplier.ID)
	}
	if err := uc.checkItems(ctx, in.Lines); err != nil {
		return nil, err
	}
	po, err := inventory.NewPurchaseOrder(uuid.New().String(), supplier, in.Lines, in.ExpectedAt, uc.now())
	if err != nil {
		return nil, err
	}
	if err := uc.orders.Create(ctx, po); err != nil {
		return nil, err
	}
	return po, nil
}

// Get devuelve la orden o domain.ErrNotFound.
func (uc *PurchaseOrderUseCase) Get(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	return uc.orders.Get(ctx, id)
}

// List devuelve las órdenes, opcionalmente filtradas por estado.
func (uc *PurchaseOrderUseCase) List(ctx context.Context, status entity.PurchaseOrderStatus) ([]*entity.PurchaseOrder, error) {
	if status != "" && !status.IsValid() {
		return nil, fmt.Errorf("%w: estado %q desconocido", domain.ErrValidation, status)
	}
	return uc.orders.List(ctx, status)
}

// UpdateLines reemplaza las líneas de una orden en draft.
func (uc *PurchaseOrderUseCase) UpdateLines(ctx context.Context, id string, lines []entity.PurchaseOrderLine) (*entity.PurchaseOrder, error) {
	po, err := uc.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	after, err := inventory.ReplaceLines(po, lines, uc.now())
	if err != nil {
		return nil, err
	}
	if err := uc.checkItems(ctx, lines); err != nil {
		return nil, err
	}
	if err := uc.orders.Update(ctx, after, po.Version); err != nil {
		return nil, err
	}
	return after, nil
}

// Transition mueve la orden al estado indicado según la tabla de transiciones.
// Entrar en delivered fija DeliveredAt y publica purchase_order.delivered.
func (uc *PurchaseOrderUseCase) Transition(ctx context.Context, id string, target entity.PurchaseOrderStatus) (*entity.PurchaseOrder, error) {
	po, err := uc.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	after, err := inventory.TransitionOrder(po, target, uc.now())
	if err != nil {
		return nil, err
	}
	if err := uc.orders.Update(ctx, after, po.Version); err != nil {
		return nil, err
	}
	uc.log.Info().Str("order_id", id).Str("from", string(po.Status)).Str("to", string(target)).Msg("orden de compra actualizada")
	if target == entity.POStatusDelivered {
		uc.publishDelivered(ctx, after)
	}
	return after, nil
}

// Delete borra una orden en draft o cancelled. El borrado es condicional a la versión
// leída: si otra escritura la cambió entretanto devuelve domain.ErrConflict.
func (uc *PurchaseOrderUseCase) Delete(ctx context.Context, id string) error {
	po, err := uc.orders.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := inventory.CanDelete(po); err != nil {
		return err
	}
	if err := uc.orders.Delete(ctx, id, po.Version); err != nil {
		return err
	}
	uc.log.Info().Str("order_id", id).Str("status", string(po.Status)).Msg("orden de compra eliminada")
	return nil
}

// DownloadPDF genera el documento de la orden para el proveedor.
func (uc *PurchaseOrderUseCase) DownloadPDF(ctx context.Context, id string) (pdfBytes []byte, filename string, err error) {
	po, err := uc.orders.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	supplier, err := uc.suppliers.Get(ctx, po.SupplierID)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: obtener proveedor: %w", err)
	}

	enriched := make([]LineForPDF, 0, len(po.Lines))
	for _, l := range po.Lines {
		line := LineForPDF{PurchaseOrderLine: l, Name: "Ítem " + l.ItemID}
		if rec, rErr := uc.records.Get(ctx, l.ItemID); rErr == nil {
			line.SKU, line.Name = rec.SKU, rec.Name
		}
		enriched = append(enriched, line)
	}

	pdfBytes, err = uc.generator.GeneratePurchaseOrderPDF(ctx, po, supplier, enriched)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generación fallida: %w", err)
	}
	return pdfBytes, fmt.Sprintf("orden_compra_%s.pdf", po.ID), nil
}

func (uc *PurchaseOrderUseCase) checkItems(ctx context.Context, lines []entity.PurchaseOrderLine) error {
	for _, l := range lines {
		if _, err := uc.records.Get(ctx, l.ItemID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("%w: ítem %s desconocido", domain.ErrValidation, l.ItemID)
			}
			return err
		}
	}
	return nil
}

func (uc *PurchaseOrderUseCase) publishDelivered(ctx context.Context, po *entity.PurchaseOrder) {
	payload := DeliveredPayload{
		OrderID:     po.ID,
		SupplierID:  po.SupplierID,
		DeliveredAt: *po.DeliveredAt,
		TotalAmount: po.TotalAmount,
		Lines:       make([]DeliveredLine, 0, len(po.Lines)),
	}
	for _, l := range po.Lines {
		payload.Lines = append(payload.Lines, DeliveredLine{ItemID: l.ItemID, Quantity: l.Quantity, UnitCost: l.UnitCost})
	}
	ev := ports.Event{Type: EventDelivered, Key: po.ID, OccurredAt: *po.DeliveredAt, Payload: payload}
	if err := uc.publisher.Publish(ctx, ev); err != nil {
		uc.log.Error().Err(err).Str("order_id", po.ID).Str("event", ev.Type).Msg("no se pudo publicar el evento")
	}
}
