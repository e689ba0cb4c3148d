package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/AdamBeresnev/quiz-bracket/internal/bracket"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func seedEntries(t *testing.T, f *fixture, entries ...*bracket.LeaderboardEntry) {
	t.Helper()
	ctx := context.Background()
	tx, err := f.db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	for _, e := range entries {
		require.NoError(t, f.leaderboard.AppendEntry(ctx, tx, e))
	}
	require.NoError(t, tx.Commit())
}

func leaderboardEntry(name, winner string, scores bracket.Standings) *bracket.LeaderboardEntry {
	return &bracket.LeaderboardEntry{
		ID:              uuid.New(),
		RecordedAt:      time.Date(2026, 5, 1, 19, 30, 0, 0, time.UTC),
		CompetitionName: name,
		WinnerName:      winner,
		FinalScores:     scores,
	}
}

func TestLeaderboardListAndClear(t *testing.T) {
	f := newFixture(t, Options{})
	svc := NewLeaderboardService(f.db, f.leaderboard, nil, f.metrics)
	ctx := context.Background()

	seedEntries(t, f,
		leaderboardEntry("Week 1", "Lions", bracket.Standings{{TeamName: "Lions", Score: 20}}),
		leaderboardEntry("Week 2", "Tigers", bracket.Standings{{TeamName: "Tigers", Score: 30}}),
	)

	entries, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Week 2", entries[0].CompetitionName)
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.Leaderboards))

	removed, err := svc.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
	assert.Zero(t, testutil.ToFloat64(f.metrics.Leaderboards))

	entries, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// Clearing an empty history is fine
	removed, err = svc.Clear(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestLeaderboardExport(t *testing.T) {
	f := newFixture(t, Options{})
	svc := NewLeaderboardService(f.db, f.leaderboard, nil, nil)

	seedEntries(t, f,
		leaderboardEntry("Week 1", "Lions", bracket.Standings{{TeamName: "Lions", Score: 20}, {TeamName: "Bears", Score: 10}}),
		leaderboardEntry("Week 2", "Tigers", bracket.Standings{{TeamName: "Tigers", Score: 30}, {TeamName: "Lions", Score: 0}}),
	)

	var buf bytes.Buffer
	require.NoError(t, svc.Export(context.Background(), &buf))

	book, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer book.Close()

	assert.Equal(t, []string{historySheet, scoresSheet}, book.GetSheetList())

	rows, err := book.GetRows(historySheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Recorded At", "Competition", "Winner", "Final Scores"}, rows[0])
	assert.Equal(t, []string{"2026-05-01 19:30:00", "Week 2", "Tigers", "Tigers: 30, Lions: 0"}, rows[1])
	assert.Equal(t, "Week 1", rows[2][1])

	scores, err := book.GetRows(scoresSheet)
	require.NoError(t, err)
	require.Len(t, scores, 5)
	assert.Equal(t, []string{"Week 2", "2026-05-01 19:30:00", "1", "Tigers", "30"}, scores[1])
	assert.Equal(t, []string{"Week 1", "2026-05-01 19:30:00", "2", "Bears", "10"}, scores[4])
}

func TestLeaderboardExportEmpty(t *testing.T) {
	f := newFixture(t, Options{})
	svc := NewLeaderboardService(f.db, f.leaderboard, nil, nil)

	var buf bytes.Buffer
	require.NoError(t, svc.Export(context.Background(), &buf))

	book, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows(historySheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

