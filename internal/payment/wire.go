package payment

import (
	"database/sql"
	"time"

	"go.uber.org/zap"

	balancerepo "deligo/internal/balance/repository"
	"deligo/internal/payment/controller"
	"deligo/internal/payment/repository"
	"deligo/internal/payment/service"
)

type Module struct {
	Service    *service.PaymentService
	Controller *controller.PaymentController
}

func NewModule(db *sql.DB, orders service.OrderPaymentAttacher, logger *zap.Logger, txTimeout time.Duration) *Module {
	paymentRepo := repository.NewMySQLPaymentRepository(db)
	balanceRepo := balancerepo.NewMySQLBalanceRepository(db)

	svc := service.NewPaymentService(db, paymentRepo, balanceRepo, orders, logger, txTimeout)

	return &Module{
		Service:    svc,
		Controller: controller.NewPaymentController(svc, logger),
	}
}
