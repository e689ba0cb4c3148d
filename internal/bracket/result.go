package bracket

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/AdamBeresnev/quiz-bracket/internal/apperr"
	"github.com/AdamBeresnev/quiz-bracket/internal/utils"
	"github.com/google/uuid"
)

type ScoreLine struct {
	TeamName string `json:"team_name"`
	Score    int    `json:"score"`
}

// Standings is a score snapshot sorted by descending score. It is stored as
// a JSON column.
type Standings []ScoreLine

func (s Standings) Value() (driver.Value, error) {
	if s == nil {
		s = Standings{}
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *Standings) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*s = Standings{}
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("cannot scan %T into Standings", src)
	}
	return json.Unmarshal(data, s)
}

type LeaderboardEntry struct {
	ID              uuid.UUID `db:"id" json:"id"`
	RecordedAt      time.Time `db:"recorded_at" json:"recorded_at"`
	CompetitionName string    `db:"competition_name" json:"competition_name"`
	WinnerName      string    `db:"winner_name" json:"winner_name"`
	FinalScores     Standings `db:"final_scores" json:"final_scores"`
}

// Standings returns every team's current score, highest first. Equal scores
// keep roster order.
func (t *Tournament) Standings() Standings {
	lines := make(Standings, 0, len(t.Teams))
	for _, team := range t.Teams {
		lines = append(lines, ScoreLine{TeamName: team.Name, Score: team.Score})
	}
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].Score > lines[j].Score
	})
	return lines
}

// FinalizeNow ends the tournament early with winner as champion. At most two
// teams may still be in play; if they are mid-match the match is recorded
// in winner's favour first.
func (t *Tournament) FinalizeNow(winner string, now time.Time) (*LeaderboardEntry, error) {
	if !t.IsActive {
		return nil, apperr.InvalidState("tournament is not active, it may already be finalized")
	}
	team := t.Team(winner)
	if team == nil {
		return nil, apperr.Validation("unknown team %q", winner)
	}
	if !team.InPlay() {
		return nil, apperr.Validation("team %q has been eliminated", winner)
	}
	if remaining := len(t.InPlay()); remaining > 2 {
		return nil, apperr.InvalidState("%d teams are still in play, finishing needs at most 2", remaining)
	}

	standings := t.Standings()
	if t.MatchLive() {
		pair := Pair{t.CurrentPair[0], t.CurrentPair[1]}
		if pair.Has(winner) && !t.hasOutcome(t.CurrentRound, t.CurrentMatchNumber) {
			if err := t.RecordMatchWinner(winner, pair.Other(winner)); err != nil {
				return nil, err
			}
		}
	}
	return t.finalize(winner, standings, now), nil
}

// finalize crowns winner, closes every other team and resets the live state,
// keeping the roster so the final statuses stay visible.
func (t *Tournament) finalize(winner string, standings Standings, now time.Time) *LeaderboardEntry {
	name := t.Name
	if name == "" {
		name = "Unknown Competition"
	}
	entry := &LeaderboardEntry{
		ID:              uuid.New(),
		RecordedAt:      now.UTC(),
		CompetitionName: name,
		WinnerName:      winner,
		FinalScores:     standings,
	}

	teams := t.Teams
	for i := range teams {
		team := &teams[i]
		team.Score = 0
		switch {
		case team.Name == winner:
			team.Status = TeamChampion
			team.IsEliminated = false
		case team.IsEliminated:
			team.Status = TeamEliminated
		default:
			team.Status = TeamFinished
			team.IsEliminated = true
		}
	}

	reset := Empty()
	reset.ID = t.ID
	reset.Name = t.Name
	reset.RoundConfig = t.RoundConfig
	reset.StartedAt = t.StartedAt
	reset.Teams = teams
	reset.Stage = StageCompleted
	reset.Winner = utils.Ptr(winner)
	*t = *reset
	return entry
}
