package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/AdamBeresnev/quiz-bracket/internal/bracket"
	"github.com/AdamBeresnev/quiz-bracket/internal/store"
	"github.com/jmoiron/sqlx"
	"github.com/xuri/excelize/v2"
)

type LeaderboardService struct {
	db      *sqlx.DB
	store   *store.LeaderboardStore
	logger  *slog.Logger
	metrics *Metrics
}

func NewLeaderboardService(db *sqlx.DB, store *store.LeaderboardStore, logger *slog.Logger, metrics *Metrics) *LeaderboardService {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &LeaderboardService{db: db, store: store, logger: logger, metrics: metrics}
}

// List returns the history newest first.
func (s *LeaderboardService) List(ctx context.Context) ([]bracket.LeaderboardEntry, error) {
	entries, err := s.store.ListEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list leaderboard: %w", err)
	}
	s.metrics.Leaderboards.Set(float64(len(entries)))
	return entries, nil
}

// Clear removes the whole history and returns how many entries were removed.
func (s *LeaderboardService) Clear(ctx context.Context) (int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	removed, err := s.store.ClearEntries(ctx, tx)
	if err != nil {
		s.metrics.observe("clear_leaderboard", err)
		return 0, fmt.Errorf("failed to clear leaderboard: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}

	s.metrics.observe("clear_leaderboard", nil)
	s.metrics.Leaderboards.Set(0)
	s.logger.Info("leaderboard cleared", "removed", removed)
	return removed, nil
}

const (
	historySheet = "Leaderboard"
	scoresSheet  = "Scores"
)

// Export writes the history as an XLSX workbook: one row per tournament on
// the first sheet and one row per team score on the second.
func (s *LeaderboardService) Export(ctx context.Context, w io.Writer) error {
	entries, err := s.List(ctx)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", historySheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(scoresSheet); err != nil {
		return err
	}

	if err := setRow(f, historySheet, 1, []any{"Recorded At", "Competition", "Winner", "Final Scores"}); err != nil {
		return err
	}
	if err := setRow(f, scoresSheet, 1, []any{"Competition", "Recorded At", "Rank", "Team", "Score"}); err != nil {
		return err
	}

	scoreRow := 2
	for i, e := range entries {
		recorded := e.RecordedAt.UTC().Format("2006-01-02 15:04:05")
		if err := setRow(f, historySheet, i+2, []any{recorded, e.CompetitionName, e.WinnerName, formatStandings(e.FinalScores)}); err != nil {
			return err
		}
		for rank, line := range e.FinalScores {
			if err := setRow(f, scoresSheet, scoreRow, []any{e.CompetitionName, recorded, rank + 1, line.TeamName, line.Score}); err != nil {
				return err
			}
			scoreRow++
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func formatStandings(lines bracket.Standings) string {
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		parts = append(parts, fmt.Sprintf("%s: %d", l.TeamName, l.Score))
	}
	return strings.Join(parts, ", ")
}
