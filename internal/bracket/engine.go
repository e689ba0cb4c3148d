package bracket

import (
	"fmt"
	"strings"
	"time"

	"github.com/AdamBeresnev/quiz-bracket/internal/apperr"
	"github.com/AdamBeresnev/quiz-bracket/internal/utils"
	"github.com/google/uuid"
)

// NewTournament validates the roster against cfg and returns a tournament
// waiting for the first draw of its starting round.
func NewTournament(name string, teamNames []string, cfg RoundConfig, now time.Time) (*Tournament, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("competition name is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	expected := cfg.TeamsForRound(cfg.StartRound)
	if len(teamNames) != expected {
		return nil, apperr.Validation("round %d needs exactly %d teams, got %d", cfg.StartRound, expected, len(teamNames))
	}

	seen := make(map[string]bool, len(teamNames))
	teams := make([]Team, 0, len(teamNames))
	for i, raw := range teamNames {
		teamName := strings.TrimSpace(raw)
		if teamName == "" {
			return nil, apperr.Validation("team %d has an empty name", i+1)
		}
		if seen[teamName] {
			return nil, apperr.Validation("team name %q is used more than once", teamName)
		}
		seen[teamName] = true
		teams = append(teams, Team{ID: i + 1, Name: teamName, Status: TeamActive})
	}

	t := Empty()
	t.ID = uuid.New()
	t.Name = name
	t.RoundConfig = cfg
	t.Teams = teams
	t.IsActive = true
	t.CurrentRound = cfg.StartRound
	t.StartedAt = now.UTC()

	switch cfg.StartRound {
	case Round1:
		t.Stage = StageAwaitingRound1Draw
	case Round2:
		t.Stage = StageAwaitingRound2Draw
	case FinalRound:
		t.Stage = StageAwaitingFinalSetup
	}
	return t, nil
}

// Advance moves the bracket to its next match: the next Round 1 pair, the
// Round 2 draw or the final, depending on the stage.
func (t *Tournament) Advance(src Source) error {
	if !t.IsActive {
		return apperr.InvalidState("no tournament is active")
	}
	if t.MatchLive() {
		return apperr.InvalidState("match %d of round %d is still in progress", t.CurrentMatchNumber, t.CurrentRound)
	}

	switch t.Stage {
	case StageAwaitingRound1Draw:
		return t.drawRound1(src)
	case StageRound1:
		done := t.CompletedMatches(Round1)
		if done < len(t.Round1Matches) {
			return t.nextRound1Match(done)
		}
		return t.drawRound2(src)
	case StageAwaitingRound2Draw:
		return t.drawRound2(src)
	case StageRound2, StageAwaitingFinalSetup:
		return t.setupFinal()
	}
	return apperr.InvalidState("nothing to advance to in stage %s", t.Stage)
}

func (t *Tournament) drawRound1(src Source) error {
	if len(t.Round1Matches) > 0 {
		return apperr.Invariant("round 1 has already been drawn")
	}

	var eligible []string
	for _, team := range t.Teams {
		if team.InPlay() && team.Status == TeamActive {
			eligible = append(eligible, team.Name)
		}
	}
	if len(eligible) != t.RoundConfig.Round1Teams {
		return apperr.Invariant("round 1 draw expects %d teams, found %d", t.RoundConfig.Round1Teams, len(eligible))
	}

	draw, err := DrawPairs(src, eligible)
	if err != nil {
		return fmt.Errorf("round 1 draw: %w", err)
	}

	if draw.Leftover != nil {
		t.Team(*draw.Leftover).Status = TeamBye
		t.ByeTeam = utils.Ptr(*draw.Leftover)
	}
	t.Round1Matches = draw.Pairs
	t.Stage = StageRound1
	t.startMatch(Round1, 1, draw.Pairs[0])
	return nil
}

func (t *Tournament) nextRound1Match(done int) error {
	pair := t.Round1Matches[done]
	for _, name := range pair {
		team := t.Team(name)
		if team == nil || !team.InPlay() {
			return apperr.Invariant("round 1 match %d lists %q, who cannot play", done+1, name)
		}
	}
	t.startMatch(Round1, done+1, pair)
	return nil
}

func (t *Tournament) drawRound2(src Source) error {
	if t.countStatus(TeamFinalWaiting) > 0 {
		return apperr.Invariant("a final-waiting team has already been drawn")
	}
	eligible := t.InPlay()
	if len(eligible) != t.RoundConfig.Round2Teams {
		return apperr.Invariant("round 2 draw expects %d teams, found %d", t.RoundConfig.Round2Teams, len(eligible))
	}

	// Three names always draw one pair; the leftover waits for the final
	draw, err := DrawPairs(src, eligible)
	if err != nil {
		return fmt.Errorf("round 2 draw: %w", err)
	}
	if draw.Leftover == nil || len(draw.Pairs) != 1 {
		return apperr.Invariant("round 2 draw produced %d pairs", len(draw.Pairs))
	}

	t.Team(*draw.Leftover).Status = TeamFinalWaiting
	t.Stage = StageRound2
	t.startMatch(Round2, 1, draw.Pairs[0])
	return nil
}

func (t *Tournament) setupFinal() error {
	finalists := t.InPlay()
	if len(finalists) != t.RoundConfig.FinalTeams {
		return apperr.Invariant("final expects %d teams, found %d", t.RoundConfig.FinalTeams, len(finalists))
	}
	if t.Stage == StageRound2 {
		if t.CompletedMatches(Round2) != 1 {
			return apperr.Invariant("round 2 has %d recorded matches", t.CompletedMatches(Round2))
		}
		if t.countStatus(TeamFinalWaiting) != 1 {
			return apperr.Invariant("final needs the final-waiting team, found %d", t.countStatus(TeamFinalWaiting))
		}
	}

	t.Stage = StageFinal
	t.startMatch(FinalRound, 1, Pair{finalists[0], finalists[1]})
	return nil
}

func (t *Tournament) startMatch(round, match int, pair Pair) {
	t.CurrentRound = round
	t.CurrentMatchNumber = match
	t.CurrentPair = []string{pair[0], pair[1]}
	t.CurrentTurnIndex = 0
	t.ActiveQuestionID = nil
	t.IsRoundOver = false
}

// DeclareMatchWinner resolves the current match. Without an override the
// higher score wins; a tie falls back to the first-listed team and the
// resolution carries a warning. Resolving the final finalizes the tournament.
func (t *Tournament) DeclareMatchWinner(round, match int, override string, now time.Time) (*MatchResolution, error) {
	if !t.IsActive || !t.MatchLive() {
		return nil, apperr.InvalidState("no match is in progress")
	}
	if round != t.CurrentRound || match != t.CurrentMatchNumber {
		return nil, apperr.InvalidState("match %d of round %d is not the current match (round %d, match %d)", match, round, t.CurrentRound, t.CurrentMatchNumber)
	}
	if t.ActiveQuestionID != nil {
		return nil, apperr.InvalidState("question %d is still active", *t.ActiveQuestionID)
	}

	pair := Pair{t.CurrentPair[0], t.CurrentPair[1]}
	first, second := t.Team(pair[0]), t.Team(pair[1])
	if first == nil || second == nil {
		return nil, apperr.Invariant("current pair %v is not on the roster", pair)
	}

	var winner, warning string
	override = strings.TrimSpace(override)
	switch {
	case override != "":
		if !pair.Has(override) {
			return nil, apperr.Validation("%q is not playing match %d of round %d", override, match, round)
		}
		winner = override
	case first.Score > second.Score:
		winner = first.Name
	case second.Score > first.Score:
		winner = second.Name
	default:
		winner = first.Name
		warning = fmt.Sprintf("scores are tied at %d, defaulting to %q as the winner", first.Score, first.Name)
	}
	loser := pair.Other(winner)

	// Scores are zeroed by the record, so the final standings are taken first
	isFinal := t.Stage == StageFinal
	standings := t.Standings()

	if err := t.RecordMatchWinner(winner, loser); err != nil {
		return nil, err
	}

	res := &MatchResolution{
		Outcome: t.MatchWinners[len(t.MatchWinners)-1],
		Warning: warning,
	}
	if isFinal {
		res.Entry = t.finalize(winner, standings, now)
	}
	return res, nil
}

// RecordMatchWinner appends the outcome of the current match, eliminates the
// loser and zeroes both participants' scores for their next match.
func (t *Tournament) RecordMatchWinner(winner, loser string) error {
	if !t.MatchLive() {
		return apperr.InvalidState("no match is in progress")
	}
	pair := Pair{t.CurrentPair[0], t.CurrentPair[1]}
	if winner == loser || !pair.Has(winner) || !pair.Has(loser) {
		return apperr.Validation("%q vs %q does not match the current pair %v", winner, loser, pair)
	}
	if t.hasOutcome(t.CurrentRound, t.CurrentMatchNumber) {
		return apperr.Invariant("match %d of round %d already has a recorded winner", t.CurrentMatchNumber, t.CurrentRound)
	}
	w, l := t.Team(winner), t.Team(loser)
	if w == nil || l == nil {
		return apperr.Invariant("current pair %v is not on the roster", pair)
	}

	t.MatchWinners = append(t.MatchWinners, MatchOutcome{
		Round:  t.CurrentRound,
		Match:  t.CurrentMatchNumber,
		Winner: winner,
		Loser:  loser,
	})

	w.Score = 0
	l.Score = 0
	l.IsEliminated = true
	l.Status = TeamEliminated

	t.CurrentPair = []string{}
	t.ActiveQuestionID = nil
	t.IsRoundOver = true
	return nil
}
