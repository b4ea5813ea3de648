package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-engine/internal/application/analytics"
	"github.com/jhoicas/stock-engine/internal/application/inventory"
	"github.com/jhoicas/stock-engine/internal/application/purchasing"
	"github.com/jhoicas/stock-engine/pkg/jwt"
	"github.com/jhoicas/stock-engine/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	StockUC         *inventory.StockUseCase
	ReplenishmentUC *inventory.ReplenishmentUseCase
	Aggregates      *analytics.AggregationEngine
	SupplierUC      *purchasing.SupplierUseCase
	PurchaseOrderUC *purchasing.PurchaseOrderUseCase
	ConflictRetries int
	JWTSecret       string
	Logger          *logger.Logger
}

// Router registra las rutas de la API. Todas requieren Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Logger.Component("http")
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	stockRoles := RequireRole(jwt.RoleAdmin, jwt.RoleBodeguero)
	purchaseRoles := RequireRole(jwt.RoleAdmin, jwt.RoleCompras)

	// Inventory: lectura para cualquier rol, escritura para admin y bodeguero
	inv := api.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.StockUC, deps.ReplenishmentUC, deps.Aggregates, deps.ConflictRetries, log)
	inv.Get("/aggregates", inventoryHandler.GetAggregates)
	inv.Get("/replenishment-list", inventoryHandler.GetReplenishmentList)
	inv.Get("/records", inventoryHandler.ListRecords)
	inv.Get("/records/:id", inventoryHandler.GetRecord)
	inv.Get("/records/:id/movements", inventoryHandler.ListMovements)
	inv.Get("/records/:id/audit", inventoryHandler.Audit)
	inv.Post("/records", stockRoles, inventoryHandler.CreateRecord)
	inv.Post("/records/:id/restock", stockRoles, inventoryHandler.Restock)
	inv.Post("/records/:id/adjust", stockRoles, inventoryHandler.Adjust)
	inv.Post("/records/:id/reserve", stockRoles, inventoryHandler.Reserve)
	inv.Post("/records/:id/release", stockRoles, inventoryHandler.Release)
	inv.Post("/records/:id/fulfill", stockRoles, inventoryHandler.Fulfill)
	inv.Post("/records/:id/discontinue", RequireRole(jwt.RoleAdmin), inventoryHandler.Discontinue)

	// Proveedores y órdenes de compra
	purchasingHandler := NewPurchasingHandler(deps.SupplierUC, deps.PurchaseOrderUC, log)
	suppliers := api.Group("/suppliers")
	suppliers.Post("/", purchaseRoles, purchasingHandler.CreateSupplier)
	suppliers.Get("/:id", purchasingHandler.GetSupplier)

	orders := api.Group("/purchase-orders")
	orders.Get("/", purchasingHandler.ListOrders)
	orders.Get("/:id", purchasingHandler.GetOrder)
	orders.Get("/:id/pdf", purchasingHandler.DownloadPDF)
	orders.Post("/", purchaseRoles, purchasingHandler.CreateOrder)
	orders.Put("/:id/lines", purchaseRoles, purchasingHandler.UpdateLines)
	orders.Post("/:id/transition", purchaseRoles, purchasingHandler.Transition)
	orders.Delete("/:id", purchaseRoles, purchasingHandler.DeleteOrder)
}
