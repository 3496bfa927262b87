package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"

	"event-chat/gateway"
	"event-chat/logs"
	"event-chat/moderation"
	"event-chat/observability"
	"event-chat/projection"
	"event-chat/repositories"
	"event-chat/runtime"
	"event-chat/runtime/workers"
	"event-chat/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components and manages the server lifecycle, so that
// deferred cleanup (database close notably) executes on every exit path.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.FromLevelString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Repositories & Live runtime
	users := repositories.NewUserRepository(db)
	events := repositories.NewEventRepository(db)
	messages := repositories.NewMessageRepository(db, log, config.LimitMessages)

	monitor := observability.NewMonitor(log)
	monitor.AttachDB(db)
	guard := moderation.NewGuard(config.MaxMessageLength)
	registry := runtime.NewRegistry()
	tracker := runtime.NewTracker()
	sup := workers.NewSupervisor(log, config.RestartInterval)

	relay := runtime.NewRelay(log, registry, tracker, users, events, messages,
		guard, sup, monitor, config.BufferSize, config.SinkTimeout)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Start the engine: room workers spawn on demand, the fanout and the
	// telemetry loop run for the lifetime of the process.
	timeline := projection.NewTimeline(config.TimelineLimit)
	relay.Start(ctx, timeline)
	sup.Start(ctx, workers.NewTelemetryWorker(log, monitor, config.MetricInterval))

	// 6. HTTP & websocket gateway
	chat := services.NewChatService(relay, events, guard)
	gw := gateway.NewGateway(log, chat, registry, monitor, timeline, config.ConnectionBufferSize)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{
		Addr:              address,
		Handler:           gw.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 7. Wait for stop or error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}
