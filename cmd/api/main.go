package main

import (
	"bufio"
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/ticketbay/marketplace/internal/adapter/gateway"
	"github.com/ticketbay/marketplace/internal/adapter/handler"
	"github.com/ticketbay/marketplace/internal/adapter/notify"
	"github.com/ticketbay/marketplace/internal/adapter/repository/postgres"
	"github.com/ticketbay/marketplace/internal/config"
	"github.com/ticketbay/marketplace/internal/core/ports"
	"github.com/ticketbay/marketplace/internal/core/services"
	"github.com/ticketbay/marketplace/internal/platform/cache"
	"github.com/ticketbay/marketplace/internal/platform/database"
)

func loadEnv(filepath string) {
	file, err := os.Open(filepath)
	if err != nil {
		log.Println("No .env file found, using OS environment.")
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) == 2 {
			os.Setenv(strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]))
		}
	}
	if err := scanner.Err(); err != nil {
		log.Printf("Failed to read .env file: %v", err)
	}
}

func main() {
	loadEnv(".env")
	cfg := config.LoadConfig()

	db, err := database.NewPostgresDB(database.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
	})
	if err != nil {
		log.Fatalf("Failed to connect to db after retries: %v", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)
	defer db.Close()

	redisClient, err := cache.NewRedisClient(cache.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	log.Println("Redis connected successfully!")

	gatewayClient := gateway.NewClient(gateway.Config{
		BaseURL:       cfg.GatewayBaseURL,
		APIKey:        cfg.GatewayAPIKey,
		WebhookSecret: cfg.GatewayWebhookSecret,
		Timeout:       cfg.GatewayTimeout,
	})

	var notifier ports.Notifier = notify.NopNotifier{}
	if cfg.PubNubPublishKey != "" && cfg.PubNubSubscribeKey != "" {
		notifier = notify.NewPubNubNotifier(notify.Config{
			PublishKey:   cfg.PubNubPublishKey,
			SubscribeKey: cfg.PubNubSubscribeKey,
			UserID:       cfg.PubNubUserID,
		})
	}

	offerRepo := postgres.NewOfferRepository(db)
	listingRepo := postgres.NewListingRepository(db)
	matchRepo := postgres.NewMatchRepository(db)
	txnRepo := postgres.NewTransactionRepository(db)
	userRepo := postgres.NewUserRepository(db)

	matcherService := services.NewMatcherService(offerRepo, listingRepo, matchRepo, notifier, redisClient, cfg.PlatformFeeRate)
	ledgerService := services.NewLedgerService(txnRepo, userRepo, gatewayClient, notifier, cfg.Currency)
	webhookService := services.NewWebhookService(gatewayClient, txnRepo, ledgerService, notifier, redisClient)

	offerHandler := handler.NewOfferHandler(matcherService)
	txnHandler := handler.NewTransactionHandler(ledgerService, cfg.SellerRefreshURL, cfg.SellerReturnURL)
	webhookHandler := handler.NewWebhookHandler(webhookService)

	sweeperCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	go matcherService.RunExpirySweeper(sweeperCtx, cfg.OfferSweepInterval)

	router := handler.NewRouter(offerHandler, txnHandler, webhookHandler)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Server starting on port :%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server startup failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")
	stopSweeper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
