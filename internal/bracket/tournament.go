package bracket

import (
	"time"

	"github.com/AdamBeresnev/quiz-bracket/internal/apperr"
	"github.com/AdamBeresnev/quiz-bracket/internal/utils"
	"github.com/google/uuid"
)

type Stage string

const (
	StageIdle               Stage = "idle"
	StageAwaitingRound1Draw Stage = "awaiting_round1_draw"
	StageRound1             Stage = "round1"
	StageAwaitingRound2Draw Stage = "awaiting_round2_draw"
	StageRound2             Stage = "round2"
	StageAwaitingFinalSetup Stage = "awaiting_final_setup"
	StageFinal              Stage = "final"
	StageCompleted          Stage = "completed"
)

const (
	Round1     = 1
	Round2     = 2
	FinalRound = 3
)

// RoundConfig declares how many teams enter each round and which round the
// competition opens at.
type RoundConfig struct {
	StartRound  int `json:"start_round"`
	Round1Teams int `json:"round1_teams"`
	Round2Teams int `json:"round2_teams"`
	FinalTeams  int `json:"final_teams"`
}

func DefaultRoundConfig() RoundConfig {
	return RoundConfig{StartRound: Round1, Round1Teams: 6, Round2Teams: 3, FinalTeams: 2}
}

func (c RoundConfig) Validate() error {
	if c.Round2Teams != 3 || c.FinalTeams != 2 {
		return apperr.Validation("bracket must be shaped N/3/2, got %d/%d/%d", c.Round1Teams, c.Round2Teams, c.FinalTeams)
	}
	// Round 1 winners plus an optional bye must fill Round 2 exactly
	if (c.Round1Teams+1)/2 != c.Round2Teams {
		return apperr.Validation("round 1 with %d teams cannot produce %d survivors", c.Round1Teams, c.Round2Teams)
	}
	if c.StartRound < Round1 || c.StartRound > FinalRound {
		return apperr.Validation("start round %d is outside 1..3", c.StartRound)
	}
	return nil
}

// TeamsForRound returns the number of teams the config declares for round.
func (c RoundConfig) TeamsForRound(round int) int {
	switch round {
	case Round1:
		return c.Round1Teams
	case Round2:
		return c.Round2Teams
	case FinalRound:
		return c.FinalTeams
	}
	return 0
}

type Tournament struct {
	ID                 uuid.UUID      `json:"id"`
	Name               string         `json:"name"`
	RoundConfig        RoundConfig    `json:"round_config"`
	Stage              Stage          `json:"stage"`
	CurrentRound       int            `json:"current_round"`
	CurrentMatchNumber int            `json:"current_match_number"`
	CurrentPair        []string       `json:"current_pair"`
	CurrentTurnIndex   int            `json:"current_turn_index"`
	ActiveQuestionID   *int64         `json:"active_question_id"`
	Round1Matches      []Pair         `json:"round1_matches"`
	ByeTeam            *string        `json:"bye_team"`
	MatchWinners       []MatchOutcome `json:"match_winners"`
	IsRoundOver        bool           `json:"is_round_over"`
	IsActive           bool           `json:"is_active"`
	Winner             *string        `json:"winner"`
	Teams              []Team         `json:"teams"`
	StartedAt          time.Time      `json:"started_at"`
}

// Empty returns the initial form held when no tournament is running.
func Empty() *Tournament {
	return &Tournament{
		Stage:              StageIdle,
		RoundConfig:        DefaultRoundConfig(),
		CurrentRound:       Round1,
		CurrentMatchNumber: 1,
		CurrentPair:        []string{},
		Round1Matches:      []Pair{},
		MatchWinners:       []MatchOutcome{},
		Teams:              []Team{},
	}
}

// Clone returns a deep copy so a failed operation never touches the original.
func (t *Tournament) Clone() *Tournament {
	c := *t
	c.CurrentPair = append([]string{}, t.CurrentPair...)
	c.Round1Matches = append([]Pair{}, t.Round1Matches...)
	c.MatchWinners = append([]MatchOutcome{}, t.MatchWinners...)
	c.Teams = append([]Team{}, t.Teams...)
	c.ActiveQuestionID = utils.Clone(t.ActiveQuestionID)
	c.ByeTeam = utils.Clone(t.ByeTeam)
	c.Winner = utils.Clone(t.Winner)
	return &c
}

// Normalize fills collections and counters a decoded record may have left
// unset.
func (t *Tournament) Normalize() {
	if t.CurrentPair == nil {
		t.CurrentPair = []string{}
	}
	if t.Round1Matches == nil {
		t.Round1Matches = []Pair{}
	}
	if t.MatchWinners == nil {
		t.MatchWinners = []MatchOutcome{}
	}
	if t.Teams == nil {
		t.Teams = []Team{}
	}
	if t.Stage == "" {
		t.Stage = StageIdle
	}
	if t.RoundConfig == (RoundConfig{}) {
		t.RoundConfig = DefaultRoundConfig()
	}
	if t.CurrentRound == 0 {
		t.CurrentRound = Round1
	}
	if t.CurrentMatchNumber == 0 {
		t.CurrentMatchNumber = 1
	}
}

func (t *Tournament) Team(name string) *Team {
	for i := range t.Teams {
		if t.Teams[i].Name == name {
			return &t.Teams[i]
		}
	}
	return nil
}

// InPlay returns the names of all non-eliminated teams in roster order.
func (t *Tournament) InPlay() []string {
	var names []string
	for _, team := range t.Teams {
		if team.InPlay() {
			names = append(names, team.Name)
		}
	}
	return names
}

// MatchLive reports whether a pair is set and its match not yet resolved.
func (t *Tournament) MatchLive() bool {
	return len(t.CurrentPair) == 2 && !t.IsRoundOver
}

func (t *Tournament) CompletedMatches(round int) int {
	n := 0
	for _, w := range t.MatchWinners {
		if w.Round == round {
			n++
		}
	}
	return n
}

func (t *Tournament) hasOutcome(round, match int) bool {
	for _, w := range t.MatchWinners {
		if w.Round == round && w.Match == match {
			return true
		}
	}
	return false
}

func (t *Tournament) countStatus(status TeamStatus) int {
	n := 0
	for _, team := range t.Teams {
		if team.Status == status {
			n++
		}
	}
	return n
}
