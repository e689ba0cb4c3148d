package views

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/AdamBeresnev/quiz-bracket/internal/bracket"
	"github.com/AdamBeresnev/quiz-bracket/internal/quiz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inOrder keeps every draw in input order.
type inOrder struct{}

func (inOrder) Intn(n int) int { return n - 1 }

func round2Tournament(t *testing.T) *bracket.Tournament {
	t.Helper()
	tour, err := bracket.NewTournament("Cup", []string{"A", "B", "C", "D", "E"}, bracket.RoundConfig{StartRound: 1, Round1Teams: 5, Round2Teams: 3, FinalTeams: 2}, time.Now())
	require.NoError(t, err)
	require.NoError(t, tour.Advance(inOrder{}))
	for i := 0; i < 2; i++ {
		if i > 0 {
			require.NoError(t, tour.Advance(inOrder{}))
		}
		_, err := tour.DeclareMatchWinner(tour.CurrentRound, tour.CurrentMatchNumber, "", time.Now())
		require.NoError(t, err)
	}
	require.NoError(t, tour.Advance(inOrder{}))
	return tour
}

func TestPrepareBracketData(t *testing.T) {
	tour := round2Tournament(t)
	data := PrepareBracketData(tour)

	require.Len(t, data.Rounds, 2)

	r1 := data.Rounds[0]
	assert.Equal(t, "Round 1", r1.Title)
	assert.Equal(t, "E has a bye", r1.Note)
	assert.Equal(t, []MatchView{
		{Round: 1, Match: 1, Teams: [2]string{"A", "B"}, Winner: "A"},
		{Round: 1, Match: 2, Teams: [2]string{"C", "D"}, Winner: "C"},
	}, r1.Matches)

	r2 := data.Rounds[1]
	assert.Equal(t, "Round 2", r2.Title)
	assert.Equal(t, "E waits for the final", r2.Note)
	assert.Equal(t, []MatchView{{Round: 2, Match: 1, Teams: [2]string{"A", "C"}, Live: true}}, r2.Matches)

	assert.Equal(t, "A", data.TurnTeam)
	assert.Empty(t, data.Winner)
}

func TestPrepareBracketDataEmpty(t *testing.T) {
	data := PrepareBracketData(bracket.Empty())
	assert.Empty(t, data.Rounds)
	assert.Empty(t, data.TurnTeam)
}

func TestDashboardEscapesAndShowsQuestion(t *testing.T) {
	tour, err := bracket.NewTournament("<Cup>", []string{"Red", "Blue"}, bracket.RoundConfig{StartRound: 3, Round1Teams: 6, Round2Teams: 3, FinalTeams: 2}, time.Now())
	require.NoError(t, err)
	require.NoError(t, tour.Advance(inOrder{}))
	require.NoError(t, tour.ActivateQuestion(1))

	data := DashboardData{
		Tournament: tour,
		Question:   &quiz.Question{Text: "Question 1: Pick a colour??", Type: quiz.TypeMultipleChoice, OptionA: "red", OptionB: "blue", OptionC: "green", OptionD: "<b>gold</b>"},
		Remaining:  42 * time.Second,
		Counting:   true,
		Flashes:    []string{"scores are tied"},
		Leaderboard: []bracket.LeaderboardEntry{
			{CompetitionName: "Week 1", WinnerName: "Lions", RecordedAt: time.Date(2026, 2, 1, 20, 0, 0, 0, time.UTC)},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Dashboard(data).Render(context.Background(), &buf))
	html := buf.String()

	assert.Contains(t, html, "&lt;Cup&gt;")
	assert.NotContains(t, html, "<Cup>")
	assert.Contains(t, html, "Pick a colour?<")
	assert.Contains(t, html, "&lt;b&gt;gold&lt;/b&gt;")
	assert.Contains(t, html, `<li class="turn">Red: 0</li>`)
	assert.Contains(t, html, "42s")
	assert.Contains(t, html, "scores are tied")
	assert.Contains(t, html, "Lions")
}

func TestDashboardWithoutTournament(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Dashboard(DashboardData{}).Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), "No tournament running")
	assert.Contains(t, buf.String(), "No finished tournaments yet.")
}
