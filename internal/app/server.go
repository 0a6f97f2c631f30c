package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nvaziri/roomhub/api/httpapi"
	"github.com/nvaziri/roomhub/api/ws"
	"github.com/nvaziri/roomhub/config"
	"github.com/nvaziri/roomhub/internal/nats"
	"github.com/nvaziri/roomhub/internal/redis"
	"github.com/nvaziri/roomhub/internal/registry"
	"github.com/nvaziri/roomhub/internal/router"
	"github.com/nvaziri/roomhub/internal/websocket"
	"github.com/nvaziri/roomhub/pkg/logger"
)

// App represents the main application structure holding all dependencies
type App struct {
	cfg         config.Config
	logger      logger.Logger
	natsClient  *nats.NATSClient
	redisClient *redis.RedisClient
	hub         *websocket.Hub
	httpServer  *http.Server
	rootCtx     context.Context
	cancel      context.CancelFunc
}

// NewApp initializes and connects all application dependencies
func NewApp(cfg config.Config) (*App, error) {
	baseLogger := logger.NewLogger(cfg.LogLevel, cfg.LogFile)
	rootCtx := logger.NewContext(context.Background(), baseLogger)
	rootCtx, rootCancel := context.WithCancel(rootCtx)

	log := baseLogger.WithModule("app")
	log.Infof("Initializing application components...")

	natsClient, err := nats.NewNATSClient(cfg.NATSURL)
	if err != nil {
		rootCancel()
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	redisClient, err := redis.NewRedisClient(rootCtx, cfg.RedisURL)
	if err != nil {
		rootCancel()
		natsClient.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	if err := redisClient.ClearActiveUsers(rootCtx); err != nil {
		log.Warnf("could not clear stale presence set: %v", err)
	}

	reg := registry.New()
	dispatcher := nats.NewDispatcher(natsClient, baseLogger.WithModule("dispatcher"))
	rt := router.New(reg, dispatcher, cfg.AdminSecret, baseLogger.WithModule("router"))

	hub := websocket.NewHub()
	go hub.Run()

	wsHandler := ws.HandleWebSocket(hub, rt, natsClient, redisClient, rootCtx)
	httpServer := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Port),
		Handler: httpapi.NewRouter(
			reg,
			redisClient,
			wsHandler,
			baseLogger.WithModule("httpapi"),
		),
	}

	app := &App{
		cfg:         cfg,
		logger:      log,
		natsClient:  natsClient,
		redisClient: redisClient,
		hub:         hub,
		httpServer:  httpServer,
		rootCtx:     rootCtx,
		cancel:      rootCancel,
	}

	log.Infof("Application initialized successfully")
	return app, nil
}

// Start runs the application and handles graceful shutdown on signal
func (a *App) Start() error {
	log := a.logger.WithFields(map[string]interface{}{
		"port": a.cfg.Port,
	})

	log.Infof("Starting application server")

	go func() {
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Warnf("Received shutdown signal: %s", sig.String())

	return a.Stop()
}

// Stop gracefully shuts down the server and closes all connections
func (a *App) Stop() error {
	a.logger.Infof("Initiating graceful shutdown")

	a.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Errorf("HTTP server shutdown error: %v", err)
	}

	a.logger.Infof("Closing client connections")
	a.hub.Close()

	a.logger.Infof("Closing NATS connection")
	a.natsClient.Close()

	a.logger.Infof("Closing Redis connection")
	if err := a.redisClient.Close(); err != nil {
		a.logger.Errorf("Redis close error: %v", err)
	}

	a.logger.Infof("Shutdown completed successfully")
	return nil
}
