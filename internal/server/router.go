package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"deligo/internal/balance/controller"
	"deligo/internal/config"
	"deligo/internal/domain"
	"deligo/internal/middleware"
	ordercontroller "deligo/internal/order/controller"
	paymentcontroller "deligo/internal/payment/controller"
	vouchercontroller "deligo/internal/voucher/controller"
)

type Controllers struct {
	Orders   *ordercontroller.OrderController
	Vouchers *vouchercontroller.VoucherController
	Payments *paymentcontroller.PaymentController
	Balance  *controller.BalanceController
}

func NewRouter(cfg *config.Config, ctrls Controllers, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst).Handler)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticator(cfg.Auth.JWTSecret, logger))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", ctrls.Orders.Checkout)
			r.Get("/", ctrls.Orders.ListMine)
			r.Get("/{orderId}", ctrls.Orders.Get)
			r.Get("/{orderId}/payment", ctrls.Payments.GetByOrder)
			r.Post("/{orderId}/cancel", ctrls.Orders.Cancel)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(domain.RoleShipper))
				r.Post("/{orderId}/accept", ctrls.Orders.Accept)
				r.Post("/{orderId}/complete", ctrls.Orders.Complete)
				r.Post("/{orderId}/reject", ctrls.Orders.Reject)
			})
		})

		r.Route("/shipper", func(r chi.Router) {
			r.Use(middleware.RequireRole(domain.RoleShipper))
			r.Get("/orders/pending", ctrls.Orders.PendingFeed)
			r.Get("/orders", ctrls.Orders.ShipperOrders)
			r.Get("/stats", ctrls.Orders.ShipperStats)
			r.Get("/revenue/current", ctrls.Orders.CurrentMonthRevenue)
			r.Get("/revenue/{year}", ctrls.Orders.MonthlyRevenue)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(domain.RoleAdmin))
			r.Get("/orders", ctrls.Orders.ListAll)
		})

		r.Get("/restaurants/{restaurantId}/orders", ctrls.Orders.ListByRestaurant)

		r.Route("/vouchers", func(r chi.Router) {
			r.Post("/preview", ctrls.Vouchers.Preview)
			r.Get("/available", ctrls.Vouchers.ListAvailable)
			r.Get("/expired", ctrls.Vouchers.ListExpired)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Get("/", ctrls.Payments.ListMine)
			r.Get("/{paymentId}", ctrls.Payments.Get)
		})

		r.Route("/balance", func(r chi.Router) {
			r.Get("/", ctrls.Balance.Get)
			r.Post("/topup", ctrls.Balance.TopUp)
			r.Post("/withdraw", ctrls.Balance.Withdraw)
		})
	})

	return r
}
