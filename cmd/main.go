package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/cors"
	_ "time/tzdata"

	"github.com/ronnyabuto/rent-service/internal/app"
	"github.com/ronnyabuto/rent-service/internal/config"
	"github.com/ronnyabuto/rent-service/internal/constants"
	"github.com/ronnyabuto/rent-service/internal/controllers"
	"github.com/ronnyabuto/rent-service/internal/middleware"
	"github.com/ronnyabuto/rent-service/internal/repositories"
	"github.com/ronnyabuto/rent-service/internal/routes"
	"github.com/ronnyabuto/rent-service/internal/services"
	"github.com/ronnyabuto/rent-service/internal/utils"
)

func main() {
	utils.InitLogger(config.AppName)

	if err := godotenv.Load(); err != nil {
		utils.Logger.Debug("No .env file found; relying on process environment")
	}

	cfg := config.LoadConfig()
	defer cfg.Close()

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize rent-service:", err)
	}
	defer application.Close()

	// Repositories
	var (
		unitRepo  repositories.UnitRepository
		notifRepo repositories.PaymentNotificationRepository
		eventRepo repositories.PaymentEventRepository
	)
	if cfg.DevMode {
		unitRepo = repositories.NewMemoryUnitRepository()
		notifRepo = repositories.NewMemoryPaymentNotificationRepository()
		eventRepo = repositories.NewMemoryPaymentEventRepository()
	} else {
		unitRepo = repositories.NewUnitRepository(application.DB)
		notifRepo = repositories.NewPaymentNotificationRepository(application.DB)
		eventRepo = repositories.NewPaymentEventRepository(application.DB)
	}

	if cfg.LDFlag_SeedDbWithTestData || cfg.DevMode {
		if err := app.SeedDemoUnits(context.Background(), unitRepo); err != nil {
			utils.Logger.Fatal("Failed to seed demo units:", err)
		}
	}

	// Services
	matcher := services.NewMatcherService(unitRepo)
	notifier := services.NewNotificationService(cfg)
	paymentService := services.NewPaymentService(cfg, unitRepo, notifRepo, eventRepo, matcher, notifier)
	scoringService := services.NewScoringService(unitRepo, eventRepo)
	unitService := services.NewUnitService(unitRepo, eventRepo)

	// Controllers
	healthController := controllers.NewHealthController(application)
	paymentsController := controllers.NewPaymentsController(paymentService)
	scoresController := controllers.NewScoresController(scoringService)
	unitsController := controllers.NewUnitsController(unitService)

	// Router setup
	router := mux.NewRouter()

	// Public Routes
	router.HandleFunc(routes.Health, healthController.HealthCheckHandler).Methods(http.MethodGet)
	router.HandleFunc(routes.MpesaValidation, paymentsController.MpesaValidationHandler).Methods(http.MethodPost)
	router.HandleFunc(routes.MpesaConfirmation, paymentsController.MpesaConfirmationHandler).Methods(http.MethodPost)

	// Secured routes for property managers
	secured := router.NewRoute().Subrouter()
	secured.Use(middleware.AuthMiddleware(cfg.RSAPublicKey))
	secured.HandleFunc(routes.PaymentsUnmatched, paymentsController.ListUnmatchedHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.TenantScore, scoresController.GetTenantScoreHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.Units, unitsController.ListUnitsHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.UnitPayments, unitsController.ListUnitPaymentsHandler).Methods(http.MethodGet)
	secured.HandleFunc(routes.UnitOccupant, unitsController.AssignOccupantHandler).Methods(http.MethodPost)
	secured.HandleFunc(routes.UnitOccupant, unitsController.ClearOccupantHandler).Methods(http.MethodDelete)

	// Cron job setup
	c := cron.New(cron.WithLocation(time.UTC))

	retrySpec := constants.PendingRetryCronSpec
	if cfg.LDFlag_ShortRetryPeriod {
		retrySpec = constants.ShortPendingRetryCronSpec
		utils.Logger.Warnf("Using short pending-retry cron spec: '%s'", retrySpec)
	}

	_, err = c.AddFunc(retrySpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), constants.PendingRetryJobTimeout)
		defer cancel()
		utils.Logger.Info("Starting pending notification retry job...")
		if err := paymentService.RetryPendingNotifications(ctx); err != nil {
			utils.Logger.WithError(err).Error("Failed to retry pending notifications")
		}
	})
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to schedule pending retry cron")
	}

	_, err = c.AddFunc(constants.OverdueSweepCronSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), constants.OverdueSweepJobTimeout)
		defer cancel()
		utils.Logger.Info("Starting overdue sweep job...")
		if err := paymentService.MarkOverdueUnits(ctx, time.Now().UTC()); err != nil {
			utils.Logger.WithError(err).Error("Failed to mark overdue units")
		}
	})
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to schedule overdue sweep cron")
	}

	c.Start()
	utils.Logger.Info("Scheduled reconciliation cron jobs")

	co := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.AppUrl},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	utils.Logger.Infof("Starting %s on port: %s", cfg.AppName, cfg.AppPort)
	if err := http.ListenAndServe(":"+cfg.AppPort, co.Handler(router)); err != nil {
		utils.Logger.Fatal("rent-service failed to start:", err)
	}
}
