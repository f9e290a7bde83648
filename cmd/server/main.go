package main

import (
	"context"
	"log"
	"net/http"

	"github.com/angkringan-pos/api/internal/config"
	"github.com/angkringan-pos/api/internal/database"
	"github.com/angkringan-pos/api/internal/router"
	"github.com/angkringan-pos/api/internal/ws"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to create connection pool: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Unable to reach database: %v", err)
	}

	if err := database.InitSchema(ctx, pool); err != nil {
		log.Fatalf("Unable to initialize schema: %v", err)
	}

	queries := database.New(pool)

	hub := ws.NewHub()
	go hub.Run()

	r := router.New(queries, pool, hub)

	log.Printf("Starting server on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal(err)
	}
}
