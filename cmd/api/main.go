package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shopper-backend/internal/client"
	"shopper-backend/internal/config"
	"shopper-backend/internal/logger"
	"shopper-backend/internal/mailer"
	"shopper-backend/internal/repository"
	"shopper-backend/internal/server"
	"shopper-backend/internal/service"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment.Name, cfg.Log)

	db := client.InitDBClient(cfg.DatabaseURL)
	stripeClient := client.NewStripeClient(&cfg.Stripe)
	mail := mailer.NewMailer(cfg.SMTP, cfg.BaseURL, log)

	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)

	userService := service.NewUserService(
		userRepo, mail,
		cfg.Auth.Secret,
		time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute,
	)
	catalogService := service.NewCatalogService(productRepo)
	orderService := service.NewOrderService(db, orderRepo, productRepo, mail)
	paymentService := service.NewPaymentService(db, stripeClient, orderRepo, webhookEventRepo, log)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	// Init HTTP server
	srv := server.NewServer(userService, catalogService, orderService, paymentService, log)

	log.Info("starting HTTP server", "addr", serverAddr)
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	log.Info("signal received, starting graceful shutdown")

	if err := srv.Shutdown(); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}

	// let queued notification emails drain
	mail.Close()
}
