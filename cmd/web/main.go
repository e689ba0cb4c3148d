package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"

	"github.com/AdamBeresnev/quiz-bracket/internal/config"
	"github.com/AdamBeresnev/quiz-bracket/internal/db"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	configFile := flag.String("config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	database := db.InitDB(cfg.DBPath)
	defer database.Close()

	if err := db.RunMigrations(database.DB); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	sessionManager := scs.New()
	sessionManager.Lifetime = cfg.SessionLifetime
	sessionManager.Store = sqlite3store.New(database.DB)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	app := newApplication(database, cfg, logger, registry, sessionManager, nil)
	if err := app.tournaments.Load(context.Background()); err != nil {
		log.Fatal("Failed to load tournament state:", err)
	}

	router := newRouter(app)

	logger.Info("server starting", "addr", cfg.ListenAddr, "db", cfg.DBPath)
	if err := http.ListenAndServe(cfg.ListenAddr, router); err != nil {
		log.Fatal(err)
	}
}
