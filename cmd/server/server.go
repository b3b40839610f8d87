package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"scribbly"
	"scribbly/internal/config"
	"scribbly/internal/game"
	"scribbly/internal/handlers"
	"scribbly/internal/metrics"
	"scribbly/internal/store"
)

// App holds the wired server components
type App struct {
	Config  *config.ServerConfig
	Logger  *zap.Logger
	Store   *store.MemoryStore
	Hub     *handlers.Hub
	Metrics *metrics.Collector
	Router  http.Handler
}

// SetupServer creates and configures the server
func SetupServer(cfg *config.ServerConfig, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	words, err := loadWords(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("loaded word dictionary", zap.Int("words", len(words)), zap.String("file", cfg.Game.WordsFile))

	conns := store.NewConnectionTracker()
	m := metrics.New()
	hub := handlers.NewHub(conns, m, logger)

	gameStore := store.NewMemoryStore(cfg, conns, game.Deps{
		Broadcaster: hub,
		Words:       game.NewWordSelector(words, nil),
		Recorder:    m,
	}, logger)
	m.TrackRooms(gameStore.Count)

	h := handlers.New(gameStore, hub, cfg, m, logger).WithVersion(version)

	return &App{
		Config:  cfg,
		Logger:  logger,
		Store:   gameStore,
		Hub:     hub,
		Metrics: m,
		Router:  handlers.SetupRouter(h, cfg, nil),
	}, nil
}

// loadWords reads the configured dictionary, falling back to the embedded one
func loadWords(cfg *config.ServerConfig) ([]string, error) {
	if cfg.Game.WordsFile != "" {
		return game.LoadDictionaryFile(cfg.Game.WordsFile)
	}
	words, err := game.LoadDictionary(scribbly.WordsYAML)
	if err != nil {
		return nil, fmt.Errorf("embedded dictionary: %w", err)
	}
	return words, nil
}

// Serve runs the game server on ln until ctx is cancelled, then closes every
// room and drains connections.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	// Cancelling connCtx ends hijacked websocket connections, which
	// http.Server.Shutdown does not track.
	connCtx, closeConns := context.WithCancel(context.Background())
	defer closeConns()

	server := &http.Server{
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout, // 0 for websocket/SSE support
		BaseContext:  func(net.Listener) context.Context { return connCtx },
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go a.Store.Run(sweepCtx)

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("starting server", zap.String("addr", ln.Addr().String()))
		errCh <- server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.Logger.Info("shutting down server")
	a.Store.CloseAll("The server is shutting down.")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()

	// Give the write pumps a moment to flush the closing notices
	time.Sleep(100 * time.Millisecond)
	closeConns()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	a.Logger.Info("server gracefully stopped")
	return nil
}

// ServeMetrics exposes the prometheus registry on its own listener until
// ctx is cancelled.
func (a *App) ServeMetrics(ctx context.Context, ln net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.Metrics.Handler())
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	a.Logger.Info("serving metrics", zap.String("addr", ln.Addr().String()))
	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
