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

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"wmstriage/config"
	"wmstriage/engine"
	"wmstriage/messaging"
	"wmstriage/notify"
	"wmstriage/resolve"
	"wmstriage/store"
	"wmstriage/ticketstate"
	"wmstriage/www"
)

var (
	serveNoRedis     bool
	serveNoMessaging bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the triage HTTP service",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveNoRedis, "no-redis", false, "serve tickets from the database only")
	serveCmd.Flags().BoolVar(&serveNoMessaging, "no-messaging", false, "do not connect to the message broker")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Database
	db, err := store.Open(&cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	log.Printf("wmstriage: database open (%s)", cfg.Database.Driver)

	// Ticket cache
	var tickets resolve.Tickets = db
	if !serveNoRedis {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		redisStore := ticketstate.NewRedisStore(redisClient, cfg.Redis.TTL)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := redisStore.Ping(ctx)
		cancel()
		if err != nil {
			log.Printf("wmstriage: redis not available (%v), running without cache", err)
		} else {
			log.Printf("wmstriage: redis connected (%s)", cfg.Redis.Address)
			mgr := ticketstate.NewManager(db, redisStore, log.Printf)
			if err := mgr.SyncRedisFromSQL(); err != nil {
				log.Printf("wmstriage: redis sync from SQL: %v", err)
			}
			tickets = mgr
		}
	}

	// Messaging client
	var msgClient *messaging.Client
	if !serveNoMessaging {
		msgClient = messaging.NewClient(&cfg.Messaging)
		if err := msgClient.Connect(); err != nil {
			log.Printf("wmstriage: messaging connect failed (%v)", err)
		} else {
			log.Printf("wmstriage: messaging connected (%s)", cfg.Messaging.Backend)
		}
		defer msgClient.Close()
	}

	// Engine
	eng := engine.New(engine.Config{
		AppConfig: cfg,
		DB:        db,
		Tickets:   tickets,
		Notifier:  notify.New(&cfg.Notify),
		MsgClient: msgClient,
	})
	eng.Start()
	defer eng.Stop()

	if msgClient != nil {
		// Inbound confirmations from the external team
		consumer := messaging.NewConfirmationConsumer(msgClient, cfg.Messaging.ConfirmationsTopic, eng)
		if err := consumer.Start(); err != nil {
			log.Printf("wmstriage: confirmation consumer subscribe failed: %v", err)
		} else {
			log.Printf("wmstriage: confirmation consumer listening on %s", cfg.Messaging.ConfirmationsTopic)
		}

		// Outbox drainer (outbound requests and ticket updates)
		drainer := messaging.NewOutboxDrainer(db, msgClient, cfg.Messaging.OutboxDrainInterval)
		drainer.Start()
		defer drainer.Stop()
	}

	// Web server
	handler, stopWeb := www.NewRouter(eng, log.Printf)

	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("wmstriage: web server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	log.Printf("wmstriage: ready")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case err := <-errCh:
		stopWeb()
		return fmt.Errorf("web server: %w", err)
	}

	log.Printf("wmstriage: shutting down...")
	stopWeb()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)

	log.Printf("wmstriage: stopped")
	return nil
}
