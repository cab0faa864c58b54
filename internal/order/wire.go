package order

import (
	"database/sql"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"popkiosk/internal/order/controller"
	"popkiosk/internal/order/repository"
	"popkiosk/internal/order/service"
	"popkiosk/internal/order/usecase"
	productrepo "popkiosk/internal/product/repository"
)

type Module struct {
	Controller *controller.OrdersController
}

// NewModule wires the shop and kiosk order stack: the MySQL shop store,
// the bounded Redis kiosk store, the status service and the use cases.
func NewModule(
	db *sql.DB,
	redisClient *redis.Client,
	products *productrepo.MySQLProductRepository,
	prices usecase.PriceProvider,
	notifier service.Notifier,
	maxKioskOrders int,
	logger *zap.Logger,
) *Module {
	shopRepo := repository.NewMySQLShopOrderRepository(db)
	kioskStore := repository.NewRedisKioskOrderStore(redisClient, maxKioskOrders)
	auditRepo := repository.NewMySQLAuditRepository(db)

	statusService := service.NewStatusService(shopRepo, kioskStore, auditRepo, notifier, logger)

	createShop := usecase.NewCreateShopOrderUseCase(shopRepo, products, notifier, logger)
	createKiosk := usecase.NewCreateKioskOrderUseCase(kioskStore, prices, notifier, logger)
	lookup := usecase.NewLookupOrdersUseCase(shopRepo, kioskStore)

	ordersController := controller.NewOrdersController(createShop, createKiosk, lookup, statusService, logger)

	return &Module{Controller: ordersController}
}
