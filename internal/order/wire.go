package order

import (
	"database/sql"

	"go.uber.org/zap"

	"deligo/internal/config"
	"deligo/internal/events"
	"deligo/internal/order/controller"
	"deligo/internal/order/repository"
	"deligo/internal/order/service"
	"deligo/internal/order/usecase"
)

type Module struct {
	Repository *repository.MySQLOrderRepository
	Checkout   *service.CheckoutService
	Lifecycle  *service.LifecycleService
	Queries    *service.QueryService
	UseCase    *usecase.OrderUseCase
	Controller *controller.OrderController
}

func NewModule(
	db *sql.DB,
	cfg *config.Config,
	users service.UserRepository,
	restaurants service.RestaurantFinder,
	vouchers service.VoucherEngine,
	payments service.PaymentCreator,
	settler service.PaymentSettler,
	publisher events.Publisher,
	logger *zap.Logger,
) *Module {
	orderRepo := repository.NewMySQLOrderRepository(db)

	checkoutSvc := service.NewCheckoutService(
		users, restaurants, vouchers, payments, orderRepo, publisher, logger,
		cfg.Order.MaxItems,
	)
	lifecycleSvc := service.NewLifecycleService(
		db, orderRepo, settler, vouchers, users, publisher, logger,
		cfg.Order.TxTimeout,
	)
	querySvc := service.NewQueryService(orderRepo, users, logger)

	uc := usecase.NewOrderUseCase(checkoutSvc, lifecycleSvc, logger, cfg.Order.MaxRetryAttempts)

	return &Module{
		Repository: orderRepo,
		Checkout:   checkoutSvc,
		Lifecycle:  lifecycleSvc,
		Queries:    querySvc,
		UseCase:    uc,
		Controller: controller.NewOrderController(uc, querySvc, logger),
	}
}
