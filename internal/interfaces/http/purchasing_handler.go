package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-engine/internal/application/dto"
	"github.com/jhoicas/stock-engine/internal/application/purchasing"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
	"github.com/jhoicas/stock-engine/pkg/logger"
)

// PurchasingHandler maneja proveedores y órdenes de compra (protegido).
type PurchasingHandler struct {
	suppliers *purchasing.SupplierUseCase
	orders    *purchasing.PurchaseOrderUseCase
	errs      errorResponder
}

// NewPurchasingHandler construye el handler.
func NewPurchasingHandler(suppliers *purchasing.SupplierUseCase, orders *purchasing.PurchaseOrderUseCase, log *logger.Logger) *PurchasingHandler {
	return &PurchasingHandler{suppliers: suppliers, orders: orders, errs: errorResponder{log: log}}
}

// CreateSupplier godoc
// @Summary      Registrar proveedor
// @Tags         suppliers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSupplierRequest  true  "name, lead_time_days, status"
// @Success      201   {object}  dto.SupplierResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/suppliers [post]
func (h *PurchasingHandler) CreateSupplier(c *fiber.Ctx) error {
	var in dto.CreateSupplierRequest
	if err := parseBody(c, &in); err != nil {
		return h.errs.respond(c, err)
	}
	s, err := h.suppliers.RegisterSupplier(c.Context(), in.Name, in.LeadTimeDays, entity.SupplierStatus(in.Status))
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toSupplierResponse(s))
}

// GetSupplier GET /api/suppliers/:id
func (h *PurchasingHandler) GetSupplier(c *fiber.Ctx) error {
	s, err := h.suppliers.GetSupplier(c.Context(), c.Params("id"))
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.JSON(toSupplierResponse(s))
}

// CreateOrder godoc
// @Summary      Crear orden de compra (draft)
// @Tags         purchase-orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreatePurchaseOrderRequest  true  "supplier_id, lines, expected_at opcional"
// @Success      201   {object}  dto.PurchaseOrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/purchase-orders [post]
func (h *PurchasingHandler) CreateOrder(c *fiber.Ctx) error {
	var in dto.CreatePurchaseOrderRequest
	if err := parseBody(c, &in); err != nil {
		return h.errs.respond(c, err)
	}
	po, err := h.orders.Create(c.Context(), purchasing.CreatePurchaseOrderInput{
		SupplierID: in.SupplierID,
		Lines:      toLines(in.Lines),
		ExpectedAt: in.ExpectedAt,
	})
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toOrderResponse(po))
}

// ListOrders GET /api/purchase-orders?status=
func (h *PurchasingHandler) ListOrders(c *fiber.Ctx) error {
	orders, err := h.orders.List(c.Context(), entity.PurchaseOrderStatus(c.Query("status")))
	if err != nil {
		return h.errs.respond(c, err)
	}
	out := make([]dto.PurchaseOrderResponse, 0, len(orders))
	for _, po := range orders {
		out = append(out, toOrderResponse(po))
	}
	return c.JSON(out)
}

// GetOrder GET /api/purchase-orders/:id
func (h *PurchasingHandler) GetOrder(c *fiber.Ctx) error {
	po, err := h.orders.Get(c.Context(), c.Params("id"))
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.JSON(toOrderResponse(po))
}

// UpdateLines godoc
// @Summary      Reemplazar las líneas de una orden en draft
// @Tags         purchase-orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                               true  "order_id"
// @Param        body  body  dto.UpdatePurchaseOrderLinesRequest  true  "lines"
// @Success      200   {object}  dto.PurchaseOrderResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/purchase-orders/{id}/lines [put]
func (h *PurchasingHandler) UpdateLines(c *fiber.Ctx) error {
	var in dto.UpdatePurchaseOrderLinesRequest
	if err := parseBody(c, &in); err != nil {
		return h.errs.respond(c, err)
	}
	po, err := h.orders.UpdateLines(c.Context(), c.Params("id"), toLines(in.Lines))
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.JSON(toOrderResponse(po))
}

// Transition godoc
// @Summary      Avanzar el ciclo de vida de la orden
// @Tags         purchase-orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                              true  "order_id"
// @Param        body  body  dto.TransitionPurchaseOrderRequest  true  "status destino"
// @Success      200   {object}  dto.PurchaseOrderResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/purchase-orders/{id}/transition [post]
func (h *PurchasingHandler) Transition(c *fiber.Ctx) error {
	var in dto.TransitionPurchaseOrderRequest
	if err := parseBody(c, &in); err != nil {
		return h.errs.respond(c, err)
	}
	po, err := h.orders.Transition(c.Context(), c.Params("id"), entity.PurchaseOrderStatus(in.Status))
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.JSON(toOrderResponse(po))
}

// DeleteOrder DELETE /api/purchase-orders/:id (solo draft o cancelled).
func (h *PurchasingHandler) DeleteOrder(c *fiber.Ctx) error {
	if err := h.orders.Delete(c.Context(), c.Params("id")); err != nil {
		return h.errs.respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DownloadPDF godoc
// @Summary      Documento PDF de la orden para el proveedor
// @Tags         purchase-orders
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "order_id"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/purchase-orders/{id}/pdf [get]
func (h *PurchasingHandler) DownloadPDF(c *fiber.Ctx) error {
	data, filename, err := h.orders.DownloadPDF(c.Context(), c.Params("id"))
	if err != nil {
		return h.errs.respond(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(data)
}

func toLines(in []dto.PurchaseOrderLineRequest) []entity.PurchaseOrderLine {
	lines := make([]entity.PurchaseOrderLine, 0, len(in))
	for _, l := range in {
		lines = append(lines, entity.PurchaseOrderLine{ItemID: l.ItemID, Quantity: l.Quantity, UnitCost: l.UnitCost})
	}
	return lines
}

func toSupplierResponse(s *entity.Supplier) dto.SupplierResponse {
	return dto.SupplierResponse{
		ID:           s.ID,
		Name:         s.Name,
		LeadTimeDays: s.LeadTimeDays,
		Status:       string(s.Status),
		CreatedAt:    s.CreatedAt,
	}
}

func toOrderResponse(po *entity.PurchaseOrder) dto.PurchaseOrderResponse {
	lines := make([]dto.PurchaseOrderLineResponse, 0, len(po.Lines))
	for _, l := range po.Lines {
		lines = append(lines, dto.PurchaseOrderLineResponse{
			ItemID:   l.ItemID,
			Quantity: l.Quantity,
			UnitCost: l.UnitCost,
			Subtotal: l.Subtotal(),
		})
	}
	return dto.PurchaseOrderResponse{
		ID:          po.ID,
		SupplierID:  po.SupplierID,
		Lines:       lines,
		TotalAmount: po.TotalAmount,
		Status:      string(po.Status),
		OrderedAt:   po.OrderedAt,
		ExpectedAt:  po.ExpectedAt,
		DeliveredAt: po.DeliveredAt,
		Version:     po.Version,
	}
}
