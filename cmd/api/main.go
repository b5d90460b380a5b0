package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mentorlink/backend/internal/config"
	"github.com/mentorlink/backend/internal/handler"
	"github.com/mentorlink/backend/internal/identity"
	sessionModel "github.com/mentorlink/backend/internal/model/session"
	"github.com/mentorlink/backend/internal/service/booking"
	"github.com/mentorlink/backend/internal/storage/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	var store sessionModel.Store
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		sqliteStore, err := sqlite.Open(cfg.Storage.Path)
		if err != nil {
			log.Fatalf("failed to open session store at %s: %v", cfg.Storage.Path, err)
		}
		defer func() { _ = sqliteStore.Close() }()
		store = sqliteStore
		log.Printf("session store: sqlite at %s", cfg.Storage.Path)
	case config.DriverMemory:
		store = sessionModel.NewMemoryStore()
		log.Println("session store: in-memory (records do not survive restarts)")
	}

	// Display-name lookups degrade gracefully until a real identity
	// service is wired in; an empty directory leaves names blank.
	directory := identity.NewMemoryDirectory(nil)

	bookingSvc := booking.NewService(store, directory)
	router := handler.NewRouter(bookingSvc)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("MentorLink backend listening on %s", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
