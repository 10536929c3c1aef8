package voucher

import (
	"database/sql"

	"go.uber.org/zap"

	"deligo/internal/voucher/controller"
	"deligo/internal/voucher/repository"
	"deligo/internal/voucher/service"
)

type Module struct {
	Service    *service.VoucherService
	Controller *controller.VoucherController
}

func NewModule(db *sql.DB, logger *zap.Logger) *Module {
	repo := repository.NewMySQLVoucherRepository(db)
	svc := service.NewVoucherService(repo, logger)

	return &Module{
		Service:    svc,
		Controller: controller.NewVoucherController(svc, logger),
	}
}
