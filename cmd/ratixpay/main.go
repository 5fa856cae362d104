package main

import (
	"context"
	"log"

	"github.com/ratixpay/ratixpay-backend/internal/database"
	router "github.com/ratixpay/ratixpay-backend/internal/http"
	"github.com/ratixpay/ratixpay-backend/internal/logger"
	"github.com/ratixpay/ratixpay-backend/internal/services"
	"github.com/ratixpay/ratixpay-backend/internal/utils"
)

func main() {
	ctx := context.Background()
	config := NewConfig()

	if err := logger.Initialize(config.logLevel, config.env); err != nil {
		log.Fatalf("Logger wasn't initialized due to %s", err)
	}

	db, err := database.New(ctx, config.dsn)

	if err != nil {
		log.Fatalf("Database wasn't initialized due to %s", err)
	}

	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Migrations weren't run due to %s", err)
	}

	log.Printf("Running server on %s\n", config.endpoint)

	fees := services.FeePolicy{
		WithdrawalFeePercent:  config.withdrawalFeePercent,
		SaleCommissionPercent: config.saleCommissionPercent,
	}

	var notifier services.Notifier = services.NopNotifier{}
	if config.redisEndpoint != "" {
		notifier = services.NewRedisNotifier(config.redisEndpoint)
	}

	gateway := services.NewE2PaymentsClient(config.gatewayEndpoint, config.gatewayWalletID)
	jobQueueService := services.NewJobQueueService(ctx, 100, 2)
	ledgerService := services.NewLedgerService(db, fees)

	tracker := services.NewPaymentTracker(db, gateway)
	tracker.Subscribe(services.NewPaymentEffects(db, ledgerService, notifier))

	if err := tracker.Start(ctx); err != nil {
		log.Fatalf("Payment tracking wasn't started due to %s", err)
	}

	paymentService := services.NewPaymentService(tracker, gateway, jobQueueService)
	saqueService := services.NewSaqueService(db, ledgerService, gateway, jobQueueService, notifier, fees)

	utils.HandleTerminationProcess(func() {
		tracker.Stop()
		jobQueueService.Shutdown()
		db.Close()
	})

	router.New(
		router.Config{Endpoint: config.endpoint},
		services.NewAuthService(db),
		services.NewJWTService(config.authSecretKey),
		paymentService,
		saqueService,
		ledgerService,
	).Run()
}
