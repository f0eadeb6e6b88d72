package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"prodflow/config"
	"prodflow/engine"
	"prodflow/jobs"
	"prodflow/messaging"
	"prodflow/store"
	"prodflow/www"
)

var Version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "prodflow.yaml", "path to config file")
	envFile := flag.String("env", ".env", "optional dotenv file applied before config")
	flag.Parse()

	if *showVersion {
		fmt.Println("prodflow", Version)
		return
	}

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("prodflow: load %s: %v", *envFile, err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	// Database
	db, err := store.Open(&cfg.Database)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()
	log.Printf("prodflow: database open (%s)", cfg.Database.Driver)

	// Redis mirrors the path catalog for cold starts
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	mirror := redisClient
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("prodflow: redis not available (%v), catalog runs without mirror", err)
		mirror = nil
	} else {
		log.Printf("prodflow: redis connected (%s)", cfg.Redis.Address)
	}
	cancel()

	// Engine
	eng := engine.New(engine.Config{
		AppConfig: cfg,
		DB:        db,
		Redis:     mirror,
	})
	eng.Start(context.Background())
	defer eng.Stop()

	// Messaging (inbound approvals, outbound lifecycle events)
	if cfg.Messaging.Backend != "" {
		msgClient := messaging.NewClient(&cfg.Messaging)
		if err := msgClient.Connect(); err != nil {
			log.Printf("prodflow: messaging connect failed (%v)", err)
		} else {
			log.Printf("prodflow: messaging connected (%s)", cfg.Messaging.Backend)
		}
		defer msgClient.Close()

		consumer := messaging.NewConsumer(msgClient, cfg.Messaging.ApprovalsTopic, cfg.Messaging.StationID,
			messaging.NewApprovalHandler(eng.Operations()))
		if err := consumer.Start(); err != nil {
			log.Printf("prodflow: approvals subscribe failed: %v", err)
		} else {
			log.Printf("prodflow: listening for approvals on %s", cfg.Messaging.ApprovalsTopic)
		}

		drainer := messaging.NewOutboxDrainer(db, msgClient, cfg.Messaging.OutboxDrainInterval)
		drainer.Start()
		defer drainer.Stop()
	}

	// Scheduled jobs
	scheduler := jobs.New(cfg.Jobs, eng.Aggregator())
	if err := scheduler.Start(); err != nil {
		log.Fatalf("start jobs: %v", err)
	}
	defer scheduler.Stop()

	// Web server
	handler, stopWeb := www.NewRouter(eng)

	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("prodflow: web server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("web server: %v", err)
		}
	}()

	log.Printf("prodflow: ready")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Printf("prodflow: shutting down...")
	// Streams hold their requests open; end them before draining the server.
	stopWeb()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)

	log.Printf("prodflow: stopped")
}
