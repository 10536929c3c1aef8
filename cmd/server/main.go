package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"deligo/internal/balance"
	"deligo/internal/commons"
	"deligo/internal/events"
	"deligo/internal/infrastructure/logger"
	"deligo/internal/infrastructure/mysql"
	"deligo/internal/infrastructure/redis"
	"deligo/internal/order"
	orderrepo "deligo/internal/order/repository"
	"deligo/internal/payment"
	"deligo/internal/reconcile"
	"deligo/internal/restaurant/repository"
	"deligo/internal/server"
	userrepo "deligo/internal/user/repository"
	"deligo/internal/voucher"
)

func main() {
	_ = godotenv.Load()

	cfg, err := commons.LoadConfig("internal/config/config.yaml")
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	db, err := mysql.NewConnection(cfg.Database)
	if err != nil {
		zapLogger.Fatal("connecting to database", zap.Error(err))
	}
	defer db.Close()
	zapLogger.Info("database connected")

	redisClient, err := redis.NewClient(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("connecting to redis", zap.Error(err))
	}
	defer redisClient.Close()
	zapLogger.Info("redis connected")

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Kafka.Enabled {
		kafkaPublisher, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, zapLogger)
		if err != nil {
			zapLogger.Fatal("connecting to kafka", zap.Error(err))
		}
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		zapLogger.Info("kafka publisher ready", zap.String("topic", cfg.Kafka.Topic))
	}

	users := userrepo.NewMySQLUserRepository(db)
	restaurants := repository.NewCachedRestaurantRepository(
		repository.NewMySQLRestaurantRepository(db),
		redisClient, cfg.Redis.CacheTTL, zapLogger,
	)

	voucherModule := voucher.NewModule(db, zapLogger)
	balanceModule := balance.NewModule(db, zapLogger, cfg.Order.TxTimeout)

	// Payments attach themselves to orders inside their own transaction, so
	// the payment module gets an order repository of its own.
	paymentModule := payment.NewModule(db, orderrepo.NewMySQLOrderRepository(db), zapLogger, cfg.Order.TxTimeout)

	orderModule := order.NewModule(
		db, cfg,
		users, restaurants,
		voucherModule.Service,
		paymentModule.Service, paymentModule.Service,
		publisher, zapLogger,
	)

	reconciler := reconcile.NewReconciler(orderModule.Repository, voucherModule.Service, zapLogger, cfg.Order.ReconcileInterval)
	reconcileCtx, stopReconciler := context.WithCancel(context.Background())
	go reconciler.Run(reconcileCtx)

	router := server.NewRouter(cfg, server.Controllers{
		Orders:   orderModule.Controller,
		Vouchers: voucherModule.Controller,
		Payments: paymentModule.Controller,
		Balance:  balanceModule.Controller,
	}, zapLogger)

	srv := server.New(cfg.Server, router, zapLogger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil {
			zapLogger.Fatal("server error", zap.Error(err))
		}
	}()

	<-quit
	zapLogger.Info("received shutdown signal")
	stopReconciler()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("server shutdown failed", zap.Error(err))
	}

	zapLogger.Info("server stopped gracefully")
}
