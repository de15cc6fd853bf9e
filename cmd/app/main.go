package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"fulfillment/cmd"
	"fulfillment/internal/adapters/out/postgres/courierrepo"
	"fulfillment/internal/adapters/out/postgres/orderrepo"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/order"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	configs := getConfigs(logger)

	gormDB, err := openDatabase(configs)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	root, err := cmd.NewCompositionRoot(configs, gormDB, logger)
	if err != nil {
		log.Fatalf("Failed to build application: %v", err)
	}
	defer root.Close()

	jobManager := root.CreateJobManager()
	if err := jobManager.StartAll(); err != nil {
		log.Fatalf("Failed to start jobs: %v", err)
	}
	defer jobManager.StopAll()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer, err := root.CreateBasketConfirmedConsumer(configs)
	if err != nil {
		log.Fatalf("Failed to create basket consumer: %v", err)
	}
	go func() {
		if err := consumer.Run(ctx); err != nil {
			logger.Error("basket consumer stopped", "error", err)
		}
	}()
	defer func() {
		if err := consumer.Close(); err != nil {
			logger.Error("failed to close basket consumer", "error", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "Healthy")
	})
	root.CreateHTTPServer().RegisterRoutes(e)

	go func() {
		if err := e.Start("0.0.0.0:" + configs.HTTPPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("web server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("web server shutdown failed", "error", err)
	}
}

func getConfigs(logger *slog.Logger) cmd.Config {
	if err := godotenv.Load(".env"); err != nil {
		logger.Info("no .env file found, relying on process environment")
	}

	return cmd.Config{
		HTTPPort:                  envOr("HTTP_PORT", "8080"),
		DBHost:                    envOr("DB_HOST", "localhost"),
		DBPort:                    envOr("DB_PORT", "5432"),
		DBUser:                    envOr("DB_USER", "postgres"),
		DBPassword:                envOr("DB_PASSWORD", "postgres"),
		DBName:                    envOr("DB_NAME", "fulfillment"),
		DBSslMode:                 envOr("DB_SSLMODE", "disable"),
		DirectoryBaseURL:          envOr("DIRECTORY_BASE_URL", "http://localhost:8090"),
		KafkaHost:                 envOr("KAFKA_HOST", "localhost:9092"),
		KafkaConsumerGroup:        envOr("KAFKA_CONSUMER_GROUP", "fulfillment"),
		KafkaBasketConfirmedTopic: envOr("KAFKA_BASKET_CONFIRMED_TOPIC", "basket.confirmed"),
		KafkaOrderChangedTopic:    envOr("KAFKA_ORDER_CHANGED_TOPIC", "order.changed"),
		SweepInterval:             envDurationOr("SWEEP_INTERVAL", 10*time.Second),
		Timings:                   getTimings(),
		FeePolicy:                 getFeePolicy(),
	}
}

func getTimings() order.Timings {
	timings := order.DefaultTimings()
	timings.PendingAfter = envDurationOr("PENDING_AFTER", timings.PendingAfter)
	timings.VendorSoftWindow = envDurationOr("VENDOR_SOFT_WINDOW", timings.VendorSoftWindow)
	timings.VendorResponse = envDurationOr("VENDOR_RESPONSE_DEADLINE", timings.VendorResponse)
	timings.ConfirmToPreparing = envDurationOr("CONFIRM_TO_PREPARING", timings.ConfirmToPreparing)
	timings.CourierWindow = envDurationOr("COURIER_WINDOW", timings.CourierWindow)
	timings.PreparingWatchdog = envDurationOr("PREPARING_WATCHDOG", timings.PreparingWatchdog)
	timings.DeliveryWatchdog = envDurationOr("DELIVERY_WATCHDOG", timings.DeliveryWatchdog)
	return timings
}

func getFeePolicy() order.FeePolicy {
	deliveryCharge, err := kernel.NewMoney(envInt64Or("DELIVERY_CHARGE_PAISE", 4900))
	if err != nil {
		log.Fatalf("Invalid delivery charge: %v", err)
	}

	return order.FeePolicy{
		PlatformFeeBasisPoints: envInt64Or("PLATFORM_FEE_BASIS_POINTS", 500),
		TaxBasisPoints:         envInt64Or("TAX_BASIS_POINTS", 1800),
		DeliveryCharge:         deliveryCharge,
	}
}

func openDatabase(configs cmd.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		configs.DBHost, configs.DBPort, configs.DBUser,
		configs.DBPassword, configs.DBName, configs.DBSslMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&orderrepo.OrderDTO{},
		&orderrepo.ItemDTO{},
		&orderrepo.TimelineEntryDTO{},
		&courierrepo.CourierDTO{},
	)
	if err != nil {
		return nil, err
	}

	return db, nil
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("ignoring invalid duration", "key", key, "value", value)
		return fallback
	}
	return parsed
}

func envInt64Or(key string, fallback int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		slog.Warn("ignoring invalid integer", "key", key, "value", value)
		return fallback
	}
	return parsed
}
