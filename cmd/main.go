package main

import (
	"account-service/internal/config"
	"account-service/internal/domain/user"
	"account-service/internal/infrastructure/database/memory"
	"account-service/internal/infrastructure/database/postgres"
	"account-service/internal/infrastructure/geo"
	"account-service/internal/logger"
	"account-service/internal/notification"
	"account-service/internal/routes"
	"account-service/internal/usecase/account"
	"account-service/internal/usecase/otp"
	"account-service/internal/usecase/token"
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("Failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(cfg.Server.Environment); err != nil {
		os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("environment", cfg.Server.Environment),
		zap.String("db_driver", cfg.Database.Driver),
	)

	store, health, closeStore := openStore(cfg)
	defer closeStore()

	otps := otp.NewManager(store, otp.WithTTL(cfg.Security.OTPTTL))
	resetTokens := token.NewResetTokens(cfg.Security.SecretKey, cfg.Security.PasswordResetTimeout)

	var locator geo.Locator = geo.Disabled{}
	if cfg.GeoIP.Enabled {
		locator = geo.NewIPAPI(cfg.GeoIP.URL, cfg.GeoIP.Timeout)
	}

	service := account.NewService(store, otps, resetTokens, notification.New(cfg), locator, cfg)
	router := routes.SetupRoutes(cfg, service, health)

	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", zap.String("address", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", zap.Error(err))
		return
	}

	logger.Info("Server exited properly")
}

// openStore picks the backing store from DB_DRIVER. The memory store is
// for local runs and loses everything on exit.
func openStore(cfg *config.Config) (user.Store, routes.HealthChecker, func()) {
	if cfg.Database.Driver == "memory" {
		logger.Warn("Using in-memory store, data will not persist")
		store := memory.NewStore()
		return store, store, func() {}
	}

	db, err := postgres.NewDB(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(context.Background()); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
	}

	return postgres.NewStore(db), db, func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", zap.Error(err))
		}
	}
}
