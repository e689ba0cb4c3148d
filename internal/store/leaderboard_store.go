package store

import (
	"context"

	"github.com/AdamBeresnev/quiz-bracket/internal/bracket"
	"github.com/jmoiron/sqlx"
)

type LeaderboardStore struct {
	db *sqlx.DB
}

func NewLeaderboardStore(db *sqlx.DB) *LeaderboardStore {
	return &LeaderboardStore{db: db}
}

// AppendEntry adds entry to the history. Entries are never updated.
func (s *LeaderboardStore) AppendEntry(ctx context.Context, tx *sqlx.Tx, entry *bracket.LeaderboardEntry) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO leaderboard_entries (id, recorded_at, competition_name, winner_name, final_scores)
		VALUES (:id, :recorded_at, :competition_name, :winner_name, :final_scores)`, entry)
	return err
}

// ListEntries returns the history newest first.
func (s *LeaderboardStore) ListEntries(ctx context.Context) ([]bracket.LeaderboardEntry, error) {
	entries := []bracket.LeaderboardEntry{}
	err := s.db.SelectContext(ctx, &entries, `SELECT id, recorded_at, competition_name, winner_name, final_scores
		FROM leaderboard_entries ORDER BY seq DESC`)
	return entries, err
}

// ClearEntries removes the whole history and reports how many entries went.
func (s *LeaderboardStore) ClearEntries(ctx context.Context, tx *sqlx.Tx) (int64, error) {
	res, err := tx.ExecContext(ctx, "DELETE FROM leaderboard_entries")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
