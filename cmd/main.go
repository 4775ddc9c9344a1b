package main

import (
	"chat-rooms/api"
	"chat-rooms/auth"
	"chat-rooms/domain"
	"chat-rooms/internal"
	"chat-rooms/observability"
	"chat-rooms/repositories"
	"chat-rooms/runtime"
	"chat-rooms/runtime/workers"
	"chat-rooms/services"
	"chat-rooms/ws"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting, so every defer (database close, index
// close) executes before the process exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Storage (BadgerDB) & Search Index (Bluge)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	writer, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return fmt.Errorf("search index opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing search index...")
		_ = writer.Close()
	}()

	// 3. Core components
	monitor := observability.NewMonitor(log)
	registry := runtime.NewRegistry()
	messageRepository := repositories.NewMessageRepository(db, log)
	userRepository := repositories.NewUserRepository(db)
	searchIndex := repositories.NewSearchIndex(writer, log)

	indexQueue := make(chan domain.Message, config.IndexBufferSize)
	coordinator := runtime.NewCoordinator(log, registry, messageRepository,
		monitor, config.HistoryWindow, indexQueue)

	tokens := auth.NewTokenManager(config.AuthTokenSecret, config.AuthTokenDuration)
	authService := services.NewAuthService(userRepository, tokens)

	// 4. Supervision & Signals
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(
		workers.NewIndexerWorker(log, indexQueue, searchIndex, monitor),
		workers.NewHealthWorker(log, monitor, config.MetricInterval),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go sup.Run(ctx)

	// 5. Debug surface, on its own port, off by default
	if config.DebugPort > 0 {
		internal.StartDebugServer(db, config.DebugPort, "/inspect", nil, func() map[string]any {
			stats := monitor.Snapshot()
			stats["connections"] = registry.ConnectionCount()
			stats["rooms"] = registry.RoomCount()
			return stats
		})
		log.Info("Debug server started", "port", config.DebugPort)
	}

	// 6. HTTP server with the websocket endpoint
	wsHandler := ws.NewHandler(log, coordinator, tokens,
		config.ConnectionBufferSize, config.MaxMessageSize)
	handlers := api.NewHandlers(log, authService, searchIndex)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{
		Addr:              address,
		Handler:           api.Routes(handlers, wsHandler),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "err", err)
	}
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}
