package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zlucky/raffle-backend/api/routes"
	"github.com/zlucky/raffle-backend/internal/config"
	"github.com/zlucky/raffle-backend/internal/handlers"
	"github.com/zlucky/raffle-backend/internal/services"
	mongorepo "github.com/zlucky/raffle-backend/internal/repositories/mongodb"
	"github.com/zlucky/raffle-backend/pkg/chapa"
	"github.com/zlucky/raffle-backend/pkg/mongodb"
	"github.com/zlucky/raffle-backend/pkg/qrcode"
	"github.com/zlucky/raffle-backend/pkg/smsgateway"
)

func main() {
	// .env is optional, deployments inject real environment variables.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	if cfg.JWT.Secret == "" {
		logger.Error("JWT.Secret is not configured")
		os.Exit(1)
	}

	connectCtx, cancelConnect := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelConnect()

	mongoClient, err := mongodb.NewClient(connectCtx, cfg.MongoDB.URI)
	if err != nil {
		logger.Error("failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			logger.Error("error disconnecting from MongoDB", "error", err)
		}
	}()

	db := mongoClient.Database(cfg.MongoDB.Database)
	txRunner := mongodb.NewTxRunner(mongoClient)

	userRepo := mongorepo.NewUserRepository(db)
	eventRepo := mongorepo.NewEventRepository(db)
	ticketRepo := mongorepo.NewTicketRepository(db)
	paymentRepo := mongorepo.NewPaymentRepository(db)
	winnerRepo := mongorepo.NewWinnerRepository(db)

	gateway := chapa.NewClient(cfg)
	smsGateway := smsgateway.NewAfroMessageGateway(cfg)
	qrGen := qrcode.NewHTTPGenerator(cfg)

	notifier := services.NewNotificationService(smsGateway)
	authService := services.NewAuthService(userRepo, cfg)
	eventService := services.NewEventService(txRunner, eventRepo, ticketRepo, qrGen, cfg)
	reservationService := services.NewReservationService(txRunner, eventRepo, ticketRepo, paymentRepo, gateway, cfg)
	paymentService := services.NewPaymentService(txRunner, eventRepo, ticketRepo, paymentRepo, gateway, notifier)
	sweeperService := services.NewSweeperService(txRunner, eventRepo, ticketRepo, paymentRepo)
	drawService := services.NewDrawService(txRunner, eventRepo, ticketRepo, winnerRepo, notifier)

	router := routes.SetupRouter(cfg, &routes.Handlers{
		Auth:        handlers.NewAuthHandler(authService),
		Event:       handlers.NewEventHandler(eventService),
		Reservation: handlers.NewReservationHandler(reservationService),
		Payment:     handlers.NewPaymentHandler(paymentService, cfg, logger),
		Draw:        handlers.NewDrawHandler(drawService),
		Sweep:       handlers.NewSweepHandler(sweeperService, cfg),
	}, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("listen failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
