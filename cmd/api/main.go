package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/stock-engine/internal/application/analytics"
	"github.com/jhoicas/stock-engine/internal/application/inventory"
	"github.com/jhoicas/stock-engine/internal/application/ports"
	"github.com/jhoicas/stock-engine/internal/application/purchasing"
	"github.com/jhoicas/stock-engine/internal/domain/repository"
	infrakafka "github.com/jhoicas/stock-engine/internal/infrastructure/kafka"
	"github.com/jhoicas/stock-engine/internal/infrastructure/memory"
	"github.com/jhoicas/stock-engine/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/stock-engine/internal/infrastructure/pdf"
	"github.com/jhoicas/stock-engine/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/stock-engine/internal/interfaces/http"
	"github.com/jhoicas/stock-engine/pkg/config"
	"github.com/jhoicas/stock-engine/pkg/logger"
)

// backend agrupa los adaptadores de almacenamiento elegidos por STORE_DRIVER.
type backend struct {
	txRunner  inventory.TxRunner
	records   repository.StockRecordRepository
	movements repository.MovementRepository
	orders    repository.PurchaseOrderRepository
	suppliers repository.SupplierRepository
	close     func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("store", cfg.Store.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	be, err := openBackend(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer be.close()

	// Publicador de eventos: Kafka si hay brokers, si no solo log.
	var publisher ports.EventPublisher = infrakafka.NewLogPublisher(log)
	if cfg.Kafka.Enabled() {
		publisher = infrakafka.NewPublisher(cfg.Kafka, cfg.App.Name, log)
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("publicando eventos en Kafka")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Error().Err(err).Msg("cerrar publicador de eventos")
		}
	}()

	// Motor de agregados: se reconstruye una vez y luego avanza con cada commit.
	engine := analytics.NewAggregationEngine(be.records)
	if err := engine.Rebuild(ctx); err != nil {
		log.Fatal().Err(err).Msg("reconstruir agregados")
	}
	promMetrics := metrics.New(engine)

	stockUC := inventory.NewStockUseCase(
		be.txRunner, be.records, be.movements, log,
		engine,
		promMetrics,
		inventory.NewStatusChangePublisher(publisher, log),
	)
	replenishmentUC := inventory.NewReplenishmentUseCase(be.records)
	supplierUC := purchasing.NewSupplierUseCase(be.suppliers)
	purchaseOrderUC := purchasing.NewPurchaseOrderUseCase(
		be.orders, be.suppliers, be.records, publisher,
		infrapdf.NewMarotoPDFGenerator(cfg.App.Name), log,
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Stock Engine API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "store": cfg.Store.Driver})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promMetrics.Handler()))

	httpRouter.Router(app, httpRouter.RouterDeps{
		StockUC:         stockUC,
		ReplenishmentUC: replenishmentUC,
		Aggregates:      engine,
		SupplierUC:      supplierUC,
		PurchaseOrderUC: purchaseOrderUC,
		ConflictRetries: cfg.Inventory.ConflictRetries,
		JWTSecret:       cfg.JWT.Secret,
		Logger:          log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

func openBackend(ctx context.Context, cfg *config.Config, log *logger.Logger) (*backend, error) {
	if cfg.Store.Driver == config.StoreMemory {
		store := memory.NewStore()
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		return &backend{
			txRunner:  memory.NewTxRunner(store),
			records:   memory.NewStockRecordRepository(store),
			movements: memory.NewMovementRepository(store),
			orders:    memory.NewPurchaseOrderRepository(store),
			suppliers: memory.NewSupplierRepository(store),
			close:     func() {},
		}, nil
	}

	if err := postgres.MigrateUp(cfg.DB.ConnectionString()); err != nil {
		return nil, err
	}
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	return &backend{
		txRunner:  postgres.NewTxRunner(pool),
		records:   postgres.NewStockRecordRepository(pool),
		movements: postgres.NewMovementRepository(pool),
		orders:    postgres.NewPurchaseOrderRepository(pool),
		suppliers: postgres.NewSupplierRepository(pool),
		close:     pool.Close,
	}, nil
}
