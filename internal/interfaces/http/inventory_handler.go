package http

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-engine/internal/application/analytics"
	"github.com/jhoicas/stock-engine/internal/application/dto"
	"github.com/jhoicas/stock-engine/internal/application/inventory"
	"github.com/jhoicas/stock-engine/internal/domain"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
	"github.com/jhoicas/stock-engine/pkg/logger"
)

const (
	defaultMovementLimit = 50
	maxMovementLimit     = 500
)

// InventoryHandler maneja las peticiones HTTP de registros de stock, libro y agregados (protegido).
type InventoryHandler struct {
	uc            *inventory.StockUseCase
	replenishment *inventory.ReplenishmentUseCase
	aggregates    *analytics.AggregationEngine
	retries       int
	errs          errorResponder
}

// NewInventoryHandler construye el handler. retries acota los reintentos ante conflicto de versión.
func NewInventoryHandler(
	uc *inventory.StockUseCase,
	replenishment *inventory.ReplenishmentUseCase,
	aggregates *analytics.AggregationEngine,
	retries int,
	log *logger.Logger,
) *InventoryHandler {
	return &InventoryHandler{
		uc:            uc,
		replenishment: replenishment,
		aggregates:    aggregates,
		retries:       retries,
		errs:          errorResponder{log: log},
	}
}

// CreateRecord godoc
// @Summary      Dar de alta un ítem rastreado
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateStockRecordRequest  true  "sku, name, umbrales, precios y stock inicial"
// @Success      201   {object}  dto.StockRecordResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/inventory/records [post]
func (h *InventoryHandler) CreateRecord(c *fiber.Ctx) error {
	var in dto.CreateStockRecordRequest
	if err := parseBody(c, &in); err != nil {
		return h.errs.respond(c, err)
	}
	rec, err := h.uc.CreateRecord(c.Context(), inventory.CreateRecordInput{
		SKU:          in.SKU,
		Name:         in.Name,
		Category:     in.Category,
		MinStock:     in.MinStock,
		MaxStock:     in.MaxStock,
		OpeningStock: in.OpeningStock,
		CostPrice:    in.CostPrice,
		SellingPrice: in.SellingPrice,
	})
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toRecordResponse(rec))
}

// ListRecords godoc
// @Summary      Listar registros de stock
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        status    query  string  false  "in_stock | low_stock | out_of_stock | discontinued"
// @Param        category  query  string  false  "categoría exacta"
// @Param        search    query  string  false  "texto en SKU o nombre (sin tildes ni mayúsculas)"
// @Success      200  {object}  dto.StockRecordListResponse
// @Router       /api/inventory/records [get]
func (h *InventoryHandler) ListRecords(c *fiber.Ctx) error {
	var q dto.StockRecordFilterRequest
	if err := parseQuery(c, &q); err != nil {
		return h.errs.respond(c, err)
	}
	records, err := inventory.Collect(h.uc.ListRecords(c.Context(), entity.StockRecordFilter{
		Status:   entity.StockStatus(q.Status),
		Category: q.Category,
		Search:   q.Search,
	}))
	if err != nil {
		return h.errs.respond(c, err)
	}
	out := dto.StockRecordListResponse{Items: make([]dto.StockRecordResponse, 0, len(records)), Total: len(records)}
	for _, r := range records {
		out.Items = append(out.Items, toRecordResponse(r))
	}
	return c.JSON(out)
}

// GetRecord godoc
// @Summary      Obtener un registro (reconciliado)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "item_id"
// @Success      200  {object}  dto.StockRecordResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/records/{id} [get]
func (h *InventoryHandler) GetRecord(c *fiber.Ctx) error {
	rec, err := h.uc.GetRecord(c.Context(), c.Params("id"))
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.JSON(toRecordResponse(rec))
}

// Restock godoc
// @Summary      Reponer stock
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string              true  "item_id"
// @Param        body  body  dto.RestockRequest  true  "quantity > 0, reason opcional"
// @Success      200   {object}  dto.StockRecordResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/records/{id}/restock [post]
func (h *InventoryHandler) Restock(c *fiber.Ctx) error {
	var in dto.RestockRequest
	if err := parseBody(c, &in); err != nil {
		return h.errs.respond(c, err)
	}
	input := inventory.RestockInput{
		ItemID: c.Params("id"), Quantity: in.Quantity, Reason: in.Reason, Reference: in.Reference, UserID: GetUserID(c),
	}
	return h.write(c, func(ctx context.Context) (*entity.StockRecord, error) {
		return h.uc.Restock(ctx, input)
	})
}

// Adjust godoc
// @Summary      Ajuste manual (recortado en cero)
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string             true  "item_id"
// @Param        body  body  dto.AdjustRequest  true  "quantity, direction, reason"
// @Success      200   {object}  dto.StockRecordResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/records/{id}/adjust [post]
func (h *InventoryHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustRequest
	if err := parseBody(c, &in); err != nil {
		return h.errs.respond(c, err)
	}
	input := inventory.AdjustInput{
		ItemID:    c.Params("id"),
		Quantity:  in.Quantity,
		Direction: entity.AdjustDirection(in.Direction),
		Reason:    in.Reason,
		Reference: in.Reference,
		UserID:    GetUserID(c),
	}
	return h.write(c, func(ctx context.Context) (*entity.StockRecord, error) {
		return h.uc.Adjust(ctx, input)
	})
}

// Reserve POST /api/inventory/records/:id/reserve: compromete unidades disponibles.
func (h *InventoryHandler) Reserve(c *fiber.Ctx) error {
	return h.reservation(c, h.uc.Reserve)
}

// Release POST /api/inventory/records/:id/release: libera una reserva.
func (h *InventoryHandler) Release(c *fiber.Ctx) error {
	return h.reservation(c, h.uc.Release)
}

// Fulfill POST /api/inventory/records/:id/fulfill: despacha unidades reservadas.
func (h *InventoryHandler) Fulfill(c *fiber.Ctx) error {
	return h.reservation(c, h.uc.Fulfill)
}

// Discontinue godoc
// @Summary      Descontinuar un ítem (idempotente)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "item_id"
// @Success      200  {object}  dto.StockRecordResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/records/{id}/discontinue [post]
func (h *InventoryHandler) Discontinue(c *fiber.Ctx) error {
	itemID, userID := c.Params("id"), GetUserID(c)
	return h.write(c, func(ctx context.Context) (*entity.StockRecord, error) {
		return h.uc.Discontinue(ctx, itemID, userID)
	})
}

// ListMovements godoc
// @Summary      Movimientos del ítem, del más nuevo al más antiguo
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id     path   string  true   "item_id"
// @Param        limit  query  int     false  "máximo de movimientos (1-500, por defecto 50)"
// @Success      200  {array}   dto.MovementResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/records/{id}/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultMovementLimit)
	if limit < 1 || limit > maxMovementLimit {
		return h.errs.respond(c, fmt.Errorf("%w: limit debe estar entre 1 y %d", domain.ErrValidation, maxMovementLimit))
	}
	seq, err := h.uc.ListMovements(c.Context(), c.Params("id"), limit)
	if err != nil {
		return h.errs.respond(c, err)
	}
	out := make([]dto.MovementResponse, 0)
	for m, err := range seq {
		if err != nil {
			return h.errs.respond(c, err)
		}
		out = append(out, toMovementResponse(m))
	}
	return c.JSON(out)
}

// Audit godoc
// @Summary      Verificar opening_stock + replay del libro == current_stock
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "item_id"
// @Success      200  {object}  dto.AuditResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/records/{id}/audit [get]
func (h *InventoryHandler) Audit(c *fiber.Ctx) error {
	report, err := h.uc.Audit(c.Context(), c.Params("id"))
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.JSON(dto.AuditResponse{
		ItemID:       report.ItemID,
		OpeningStock: report.OpeningStock,
		ReplaySum:    report.ReplaySum,
		CurrentStock: report.CurrentStock,
		Consistent:   report.Consistent,
	})
}

// GetAggregates godoc
// @Summary      Agregados del inventario (valor total y conteos por estado)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.AggregatesDTO
// @Router       /api/inventory/aggregates [get]
func (h *InventoryHandler) GetAggregates(c *fiber.Ctx) error {
	snap := h.aggregates.Snapshot()
	return c.JSON(dto.AggregatesDTO{
		TotalValue:      snap.TotalValue,
		LowStockCount:   snap.LowStockCount,
		OutOfStockCount: snap.OutOfStockCount,
		ItemCount:       snap.ItemCount,
		ComputedAt:      snap.ComputedAt,
	})
}

// GetReplenishmentList godoc
// @Summary      Lista de reposición
// @Description  Ítems en low_stock u out_of_stock con la cantidad sugerida hasta max_stock,
//
//	ordenados por déficit descendente.
//
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.ReplenishmentSuggestionDTO
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/inventory/replenishment-list [get]
func (h *InventoryHandler) GetReplenishmentList(c *fiber.Ctx) error {
	list, err := h.replenishment.GenerateReplenishmentList(c.Context())
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.JSON(fiber.Map{
		"total":          len(list),
		"replenishments": list,
	})
}

func (h *InventoryHandler) reservation(
	c *fiber.Ctx,
	op func(context.Context, inventory.ReservationInput) (*entity.StockRecord, error),
) error {
	var in dto.ReservationRequest
	if err := parseBody(c, &in); err != nil {
		return h.errs.respond(c, err)
	}
	input := inventory.ReservationInput{
		ItemID: c.Params("id"), Quantity: in.Quantity, Reference: in.Reference, UserID: GetUserID(c),
	}
	return h.write(c, func(ctx context.Context) (*entity.StockRecord, error) {
		return op(ctx, input)
	})
}

// write ejecuta una escritura del procesador reintentando los conflictos de versión.
func (h *InventoryHandler) write(c *fiber.Ctx, fn func(context.Context) (*entity.StockRecord, error)) error {
	rec, err := inventory.RetryOnConflict(c.Context(), h.retries, fn)
	if err != nil {
		return h.errs.respond(c, err)
	}
	return c.JSON(toRecordResponse(rec))
}

func toRecordResponse(r *entity.StockRecord) dto.StockRecordResponse {
	return dto.StockRecordResponse{
		ItemID:          r.ItemID,
		SKU:             r.SKU,
		Name:            r.Name,
		Category:        r.Category,
		CurrentStock:    r.CurrentStock,
		ReservedStock:   r.ReservedStock,
		AvailableStock:  r.AvailableStock,
		OpeningStock:    r.OpeningStock,
		MinStock:        r.MinStock,
		MaxStock:        r.MaxStock,
		CostPrice:       r.CostPrice,
		SellingPrice:    r.SellingPrice,
		TotalValue:      r.TotalValue,
		Status:          string(r.Status),
		LastRestockedAt: r.LastRestockedAt,
		Version:         r.Version,
		UpdatedAt:       r.UpdatedAt,
	}
}

func toMovementResponse(m *entity.Movement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:              m.ID,
		Sequence:        m.Sequence,
		ItemID:          m.ItemID,
		Kind:            string(m.Kind),
		Quantity:        m.Quantity,
		Reason:          m.Reason,
		Reference:       m.Reference,
		StockBefore:     m.StockBefore,
		StockAfter:      m.StockAfter,
		ExpectedVersion: m.ExpectedVersion,
		OccurredAt:      m.OccurredAt,
		CreatedBy:       m.CreatedBy,
	}
}
