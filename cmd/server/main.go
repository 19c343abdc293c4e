// Sticky Idea Pad - local board server.
//
// Wires the durable store, note repository and synchronization engine
// together and serves the board API. When the storage engine cannot be
// opened the board still runs, memory-only, for the session.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edwardcox/sticky-idea-pad/internal/api"
	"github.com/edwardcox/sticky-idea-pad/internal/board"
	"github.com/edwardcox/sticky-idea-pad/internal/config"
	"github.com/edwardcox/sticky-idea-pad/internal/identity"
	"github.com/edwardcox/sticky-idea-pad/internal/notes"
	"github.com/edwardcox/sticky-idea-pad/internal/obs"
	"github.com/edwardcox/sticky-idea-pad/internal/ratelimit"
	"github.com/edwardcox/sticky-idea-pad/internal/store"
)

func main() {
	devMode, addr := config.ParseFlags()

	obs.Init()
	log := obs.Pkg("main")

	cfg, err := config.Load(devMode, addr)
	if err != nil {
		log.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	var engine *board.Engine

	st, err := store.Open(cfg.DataDir, cfg.StoreKey)
	if err != nil {
		// Storage-availability detection: degrade to memory-only once,
		// up front, instead of failing every operation.
		log.Warn("durable store unavailable", "data_dir", cfg.DataDir, "err", err)
		engine = board.NewEngine(nil, board.Options{Debounce: cfg.SaveDebounce})
		engine.MarkUnavailable()
	} else {
		defer st.Close()
		repo := notes.NewRepository(st)
		engine = board.NewEngine(repo, board.Options{Debounce: cfg.SaveDebounce})
	}

	id := identity.Identity{UserID: cfg.UserID, Resolved: true}
	go engine.Load(context.Background(), id, cfg.DevMode)

	limiter := ratelimit.NewLimiter(ratelimit.DefaultConfig)
	defer limiter.Stop()

	namespace := identity.Namespace(id, cfg.DevMode)

	mux := http.NewServeMux()
	api.NewHandler(engine).RegisterRoutes(mux)

	handler := api.WithRequestID(
		ratelimit.Middleware(limiter, func(*http.Request) string { return namespace })(mux))

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("board server listening", "addr", cfg.ListenAddr, "namespace", namespace, "dev_mode", cfg.DevMode)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("server shutdown", "err", err)
	}

	// Persist any change still sitting behind the debounce timer.
	engine.Flush()
	engine.Close()
}
