package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/compound-health-monitor/internal/application/alert"
	"github.com/compound-health-monitor/internal/application/monitor"
	"github.com/compound-health-monitor/internal/config"
	"github.com/compound-health-monitor/internal/infrastructure/channels"
	"github.com/compound-health-monitor/internal/infrastructure/compound"
	"github.com/compound-health-monitor/internal/infrastructure/market"
	"github.com/compound-health-monitor/internal/infrastructure/notifyapi"
	s3infra "github.com/compound-health-monitor/internal/infrastructure/s3"
	"github.com/compound-health-monitor/internal/infrastructure/smtp"
	"github.com/compound-health-monitor/internal/infrastructure/sns"
	"github.com/compound-health-monitor/internal/infrastructure/store"
	"github.com/compound-health-monitor/internal/infrastructure/store/dynamo"
	"github.com/compound-health-monitor/internal/infrastructure/store/file"
	transporthttp "github.com/compound-health-monitor/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Persisted store: flat JSON file by default, DynamoDB when configured.
	var users store.UserStore
	var notifications store.NotificationStore
	switch cfg.StoreBackend {
	case "dynamo":
		client := dynamo.NewClient(cfg)
		dynamo.Bootstrap(context.Background(), client, cfg.DynamoTables)
		users = dynamo.NewUserRepo(client, cfg.DynamoTables.Users)
		notifications = dynamo.NewNotificationRepo(client, cfg.DynamoTables.Notifications)
	default:
		db, err := file.Open(cfg.StoreFilePath)
		if err != nil {
			log.Fatalf("open store %s: %v", cfg.StoreFilePath, err)
		}
		users = db.Users()
		notifications = db.Notifications()
	}

	// Delivery provider: hosted notification API, or direct SNS/SMTP.
	var sender alert.Sender
	if cfg.NotifyProvider == "aws" {
		ch := &channels.Sender{Mail: smtp.NewMailer(cfg)}
		if sms, err := sns.NewSender(cfg); err == nil {
			ch.SMS = sms
		} else {
			log.Printf("WARN: SNS sender not available: %v", err)
		}
		sender = ch
	} else {
		sender = notifyapi.NewClient(cfg.NotifyAPIBaseURL, cfg.NotifyAPIClientID, cfg.NotifyAPIClientSecret)
	}

	chain, err := compound.Dial(cfg.EthRPCURL, cfg.ComptrollerAddress)
	if err != nil {
		log.Fatalf("dial eth rpc: %v", err)
	}

	prices := market.NewClient(cfg.MarketAPIURL, cfg.MarketCoinID, cfg.MarketVsCurrency, cfg.MarketLookback)

	var archive monitor.Archiver
	if cfg.ArchiveBucket != "" {
		archive = s3infra.NewArchive(s3infra.NewClient(cfg), cfg.ArchiveBucket)
	}

	alertSvc := alert.NewService(notifications, sender, cfg.TargetRatio)
	monitorSvc := monitor.NewService(monitor.ServiceDeps{
		Users:         users,
		Notifications: notifications,
		Positions:     chain,
		Prices:        prices,
		Dispatcher:    alertSvc,
		Archive:       archive,
		Params: monitor.Params{
			VolatilityCutoff: cfg.VolatilityCutoff,
			HistoryLimit:     cfg.HistoryLimit,
			Retention:        time.Duration(cfg.RetentionDays) * 24 * time.Hour,
		},
	})

	monCtx, stopMonitor := context.WithCancel(context.Background())
	defer stopMonitor()
	sched := monitor.NewScheduler(monitorSvc, cfg.MonitorInterval, cfg.CycleTimeout)
	go sched.Start(monCtx)

	router := transporthttp.NewRouter(cfg, &transporthttp.Deps{
		Users:         users,
		Notifications: notifications,
		Sender:        sender,
		TargetRatio:   cfg.TargetRatio,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	stopMonitor()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
