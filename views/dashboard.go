package views

import (
	"fmt"
	"time"

	"github.com/AdamBeresnev/quiz-bracket/internal/bracket"
	"github.com/AdamBeresnev/quiz-bracket/internal/quiz"
)

type DashboardData struct {
	Tournament  *bracket.Tournament
	Question    *quiz.Question
	Remaining   time.Duration
	Counting    bool
	Leaderboard []bracket.LeaderboardEntry
	Flashes     []string
}

func (d DashboardData) tournament() *bracket.Tournament {
	if d.Tournament == nil {
		return bracket.Empty()
	}
	return d.Tournament
}

func titleOr(t *bracket.Tournament, fallback string) string {
	if t.Name != "" {
		return t.Name
	}
	return fallback
}

// pairTeams returns the roster entries of the current pair, skipping names
// that are not on it.
func pairTeams(t *bracket.Tournament) []bracket.Team {
	teams := make([]bracket.Team, 0, len(t.CurrentPair))
	for _, name := range t.CurrentPair {
		if team := t.Team(name); team != nil {
			teams = append(teams, *team)
		}
	}
	return teams
}

func matchClass(m MatchView) string {
	switch {
	case m.Live:
		return "match live"
	case m.Winner != "":
		return "match done"
	}
	return "match"
}

func countdownLabel(left time.Duration) string {
	return fmt.Sprintf("%ds", int(left.Round(time.Second)/time.Second))
}
