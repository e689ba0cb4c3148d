package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/AdamBeresnev/quiz-bracket/internal/bracket"
	"github.com/jmoiron/sqlx"
)

// ErrCorruptState is returned by LoadState when the stored record cannot be
// decoded or breaks the bracket invariants.
var ErrCorruptState = errors.New("stored tournament state is corrupt")

// ErrStaleState is returned by SaveState when the record was rewritten since
// the revision the caller started from.
var ErrStaleState = errors.New("stored tournament state changed concurrently")

type TournamentStore struct {
	db *sqlx.DB
}

func NewTournamentStore(db *sqlx.DB) *TournamentStore {
	return &TournamentStore{db: db}
}

type stateRow struct {
	ID        int       `db:"id"`
	State     string    `db:"state"`
	UpdatedAt time.Time `db:"updated_at"`
	Revision  int64     `db:"revision"`
}

// SaveState writes t over the revision base and returns the new revision.
// Every save bumps the revision, so readers holding an older one know to
// reload.
func (s *TournamentStore) SaveState(ctx context.Context, tx *sqlx.Tx, t *bracket.Tournament, base int64) (int64, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return 0, fmt.Errorf("encode tournament state: %w", err)
	}
	row := stateRow{ID: 1, State: string(data), UpdatedAt: time.Now().UTC(), Revision: base + 1}
	res, err := tx.NamedExecContext(ctx, `INSERT INTO tournament_state (id, state, updated_at, revision)
		VALUES (:id, :state, :updated_at, :revision)
		ON CONFLICT(id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at, revision = excluded.revision
		WHERE tournament_state.revision = excluded.revision - 1`, row)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: expected revision %d", ErrStaleState, base)
	}
	return row.Revision, nil
}

// LoadState returns the stored tournament and its revision, or sql.ErrNoRows
// when nothing has been saved yet. A corrupt record still reports its
// revision.
func (s *TournamentStore) LoadState(ctx context.Context) (*bracket.Tournament, int64, error) {
	var row stateRow
	if err := s.db.GetContext(ctx, &row, "SELECT id, state, updated_at, revision FROM tournament_state WHERE id = 1"); err != nil {
		return nil, 0, err
	}

	var t bracket.Tournament
	if err := json.Unmarshal([]byte(row.State), &t); err != nil {
		return nil, row.Revision, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	t.Normalize()
	if err := t.Check(); err != nil {
		return nil, row.Revision, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	return &t, row.Revision, nil
}

// Revision returns the revision of the stored record, 0 when there is none.
func (s *TournamentStore) Revision(ctx context.Context) (int64, error) {
	var rev int64
	err := s.db.GetContext(ctx, &rev, "SELECT revision FROM tournament_state WHERE id = 1")
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return rev, err
}
