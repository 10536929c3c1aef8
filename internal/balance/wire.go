package balance

import (
	"database/sql"
	"time"

	"go.uber.org/zap"

	"deligo/internal/balance/controller"
	"deligo/internal/balance/repository"
	"deligo/internal/balance/service"
)

type Module struct {
	Repository *repository.MySQLBalanceRepository
	Service    *service.BalanceService
	Controller *controller.BalanceController
}

func NewModule(db *sql.DB, logger *zap.Logger, txTimeout time.Duration) *Module {
	repo := repository.NewMySQLBalanceRepository(db)
	svc := service.NewBalanceService(db, repo, logger, txTimeout)

	return &Module{
		Repository: repo,
		Service:    svc,
		Controller: controller.NewBalanceController(svc, logger),
	}
}
