package bracket

import (
	"github.com/AdamBeresnev/quiz-bracket/internal/apperr"
)

// liveRound is the round each match-playing stage runs.
var liveRound = map[Stage]int{
	StageRound1: Round1,
	StageRound2: Round2,
	StageFinal:  FinalRound,
}

// Check verifies the structural invariants of t and returns the first one
// broken as an invariant violation. A tournament that passes can be driven
// by every operation without touching a missing team or an out-of-range
// turn.
func (t *Tournament) Check() error {
	switch t.Stage {
	case StageIdle, StageCompleted:
		if t.IsActive {
			return apperr.Invariant("stage %s cannot be active", t.Stage)
		}
	case StageAwaitingRound1Draw, StageRound1, StageAwaitingRound2Draw, StageRound2, StageAwaitingFinalSetup, StageFinal:
		if !t.IsActive {
			return apperr.Invariant("stage %s must be active", t.Stage)
		}
		if err := t.RoundConfig.Validate(); err != nil {
			return apperr.Invariant("round config: %v", err)
		}
	default:
		return apperr.Invariant("unknown stage %q", t.Stage)
	}
	if t.CurrentRound < Round1 || t.CurrentRound > FinalRound {
		return apperr.Invariant("current round %d is outside 1..3", t.CurrentRound)
	}
	if round, ok := liveRound[t.Stage]; ok && t.CurrentRound != round {
		return apperr.Invariant("stage %s runs round %d, not %d", t.Stage, round, t.CurrentRound)
	}

	if err := t.checkTeams(); err != nil {
		return err
	}

	switch len(t.CurrentPair) {
	case 0:
	case 2:
		if t.CurrentPair[0] == t.CurrentPair[1] {
			return apperr.Invariant("team %q is paired with itself", t.CurrentPair[0])
		}
		if _, ok := liveRound[t.Stage]; !ok {
			return apperr.Invariant("stage %s cannot have a current pair", t.Stage)
		}
		for _, name := range t.CurrentPair {
			team := t.Team(name)
			if team == nil {
				return apperr.Invariant("paired team %q is not on the roster", name)
			}
			if !team.InPlay() {
				return apperr.Invariant("paired team %q has been eliminated", name)
			}
		}
	default:
		return apperr.Invariant("current pair has %d teams", len(t.CurrentPair))
	}
	if t.CurrentTurnIndex < 0 || t.CurrentTurnIndex > 1 {
		return apperr.Invariant("turn index %d is outside 0..1", t.CurrentTurnIndex)
	}
	if t.ActiveQuestionID != nil && !t.MatchLive() {
		return apperr.Invariant("question %d is active outside a match", *t.ActiveQuestionID)
	}

	for i, pair := range t.Round1Matches {
		for _, name := range pair {
			if t.Team(name) == nil {
				return apperr.Invariant("round 1 match %d lists %q, who is not on the roster", i+1, name)
			}
		}
	}
	if t.ByeTeam != nil && t.Team(*t.ByeTeam) == nil {
		return apperr.Invariant("bye team %q is not on the roster", *t.ByeTeam)
	}
	if t.Winner != nil && t.Team(*t.Winner) == nil {
		return apperr.Invariant("winner %q is not on the roster", *t.Winner)
	}

	type key struct{ round, match int }
	recorded := make(map[key]bool, len(t.MatchWinners))
	for _, w := range t.MatchWinners {
		k := key{w.Round, w.Match}
		if recorded[k] {
			return apperr.Invariant("match %d of round %d has more than one outcome", w.Match, w.Round)
		}
		recorded[k] = true
		if t.Team(w.Winner) == nil || t.Team(w.Loser) == nil {
			return apperr.Invariant("outcome of match %d of round %d names a team not on the roster", w.Match, w.Round)
		}
	}
	return nil
}

func (t *Tournament) checkTeams() error {
	seen := make(map[string]bool, len(t.Teams))
	counts := make(map[TeamStatus]int)
	for _, team := range t.Teams {
		if team.Name == "" {
			return apperr.Invariant("team %d has no name", team.ID)
		}
		if seen[team.Name] {
			return apperr.Invariant("team %q appears more than once", team.Name)
		}
		seen[team.Name] = true

		switch team.Status {
		case TeamActive, TeamBye, TeamFinalWaiting, TeamChampion:
			if team.IsEliminated {
				return apperr.Invariant("team %q is %s but marked eliminated", team.Name, team.Status)
			}
		case TeamEliminated, TeamFinished:
			if !team.IsEliminated {
				return apperr.Invariant("team %q is %s but still in play", team.Name, team.Status)
			}
		default:
			return apperr.Invariant("team %q has unknown status %q", team.Name, team.Status)
		}
		counts[team.Status]++
	}

	for _, status := range []TeamStatus{TeamBye, TeamFinalWaiting, TeamChampion} {
		if counts[status] > 1 {
			return apperr.Invariant("%d teams are %s", counts[status], status)
		}
	}
	return nil
}
