package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tableside-pos/api/internal/config"
	"github.com/tableside-pos/api/internal/router"
	"github.com/tableside-pos/api/internal/service"
	"github.com/tableside-pos/api/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var st store.Store
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		log.Println("WARNING: using in-memory store, state is lost on restart")
		st = store.NewMemory()
	default:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Unable to connect to database: %v", err)
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			log.Fatalf("Unable to ping database: %v", err)
		}
		log.Println("Connected to database")
		st = store.NewPostgres(pool)
	}

	svc, err := service.NewPOSService(ctx, st,
		service.WithLocation(cfg.Location),
		service.WithGeoTimeout(cfg.GeoTimeout),
	)
	if err != nil {
		log.Fatalf("Unable to load state: %v", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router.New(cfg, svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("ERROR: shutdown: %v", err)
		}
	}()

	log.Printf("Starting server on :%s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
	log.Println("Server stopped")
}
