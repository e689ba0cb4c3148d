package main

import (
	"log/slog"

	"github.com/AdamBeresnev/quiz-bracket/internal/bracket"
	"github.com/AdamBeresnev/quiz-bracket/internal/config"
	"github.com/AdamBeresnev/quiz-bracket/internal/middleware"
	"github.com/AdamBeresnev/quiz-bracket/internal/service"
	"github.com/AdamBeresnev/quiz-bracket/internal/store"
	"github.com/alexedwards/scs/v2"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
)

type application struct {
	cfg            *config.Config
	logger         *slog.Logger
	registry       *prometheus.Registry
	sessionManager *scs.SessionManager
	flashes        *middleware.Flashes

	tournaments *service.TournamentService
	leaderboard *service.LeaderboardService
	questions   *service.QuestionService
}

// newApplication wires stores and services over database. A nil src draws
// from a time-seeded generator.
func newApplication(database *sqlx.DB, cfg *config.Config, logger *slog.Logger, registry *prometheus.Registry, sessionManager *scs.SessionManager, src bracket.Source) *application {
	metrics := service.NewMetrics(registry)

	tournamentStore := store.NewTournamentStore(database)
	questionStore := store.NewQuestionStore(database)
	leaderboardStore := store.NewLeaderboardStore(database)

	return &application{
		cfg:            cfg,
		logger:         logger,
		registry:       registry,
		sessionManager: sessionManager,
		flashes:        middleware.NewFlashes(sessionManager),
		tournaments: service.NewTournamentService(database, tournamentStore, questionStore, leaderboardStore, service.Options{
			Source:        src,
			AnswerTimeout: cfg.AnswerTimeout,
			Logger:        logger,
			Metrics:       metrics,
		}),
		leaderboard: service.NewLeaderboardService(database, leaderboardStore, logger, metrics),
		questions:   service.NewQuestionService(database, questionStore, tournamentStore, logger),
	}
}
