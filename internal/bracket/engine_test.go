package bracket

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/AdamBeresnev/quiz-bracket/internal/apperr"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)

func startTournament(t *testing.T, src Source, teams ...string) *Tournament {
	t.Helper()
	cfg := DefaultRoundConfig()
	cfg.Round1Teams = len(teams)
	tour, err := NewTournament("Class Night Quiz", teams, cfg, testNow)
	require.NoError(t, err)
	require.NoError(t, tour.Advance(src))
	return tour
}

// answer activates question id and scores it for the team whose turn it is.
func answer(t *testing.T, tour *Tournament, id int64, correct bool) {
	t.Helper()
	require.NoError(t, tour.ActivateQuestion(id))
	consumed, err := tour.ScoreAnswer(correct)
	require.NoError(t, err)
	assert.Equal(t, id, consumed)
}

func declare(t *testing.T, tour *Tournament, override string) *MatchResolution {
	t.Helper()
	res, err := tour.DeclareMatchWinner(tour.CurrentRound, tour.CurrentMatchNumber, override, testNow)
	require.NoError(t, err)
	return res
}

func TestNewTournamentValidation(t *testing.T) {
	six := []string{"A", "B", "C", "D", "E", "F"}

	testCases := []struct {
		name        string
		tournament  string
		teams       []string
		cfg         RoundConfig
		expectedErr error
		stage       Stage
	}{
		{name: "six teams open round 1", tournament: "Quiz", teams: six, cfg: DefaultRoundConfig(), stage: StageAwaitingRound1Draw},
		{name: "five teams are allowed through a bye", tournament: "Quiz", teams: six[:5], cfg: RoundConfig{StartRound: 1, Round1Teams: 5, Round2Teams: 3, FinalTeams: 2}, stage: StageAwaitingRound1Draw},
		{name: "three teams open round 2", tournament: "Quiz", teams: six[:3], cfg: RoundConfig{StartRound: 2, Round1Teams: 6, Round2Teams: 3, FinalTeams: 2}, stage: StageAwaitingRound2Draw},
		{name: "two teams open the final", tournament: "Quiz", teams: six[:2], cfg: RoundConfig{StartRound: 3, Round1Teams: 6, Round2Teams: 3, FinalTeams: 2}, stage: StageAwaitingFinalSetup},
		{name: "blank competition name", tournament: "  ", teams: six, cfg: DefaultRoundConfig(), expectedErr: apperr.ErrValidation},
		{name: "empty team name", tournament: "Quiz", teams: []string{"A", "B", " ", "D", "E", "F"}, cfg: DefaultRoundConfig(), expectedErr: apperr.ErrValidation},
		{name: "duplicate team name", tournament: "Quiz", teams: []string{"A", "B", "C", "D", "E", "A "}, cfg: DefaultRoundConfig(), expectedErr: apperr.ErrValidation},
		{name: "too few teams for round 1", tournament: "Quiz", teams: six[:4], cfg: DefaultRoundConfig(), expectedErr: apperr.ErrValidation},
		{name: "round 1 that cannot yield 3 survivors", tournament: "Quiz", teams: six[:4], cfg: RoundConfig{StartRound: 1, Round1Teams: 4, Round2Teams: 3, FinalTeams: 2}, expectedErr: apperr.ErrValidation},
		{name: "unsupported bracket shape", tournament: "Quiz", teams: six, cfg: RoundConfig{StartRound: 1, Round1Teams: 6, Round2Teams: 4, FinalTeams: 2}, expectedErr: apperr.ErrValidation},
		{name: "start round out of range", tournament: "Quiz", teams: six, cfg: RoundConfig{StartRound: 4, Round1Teams: 6, Round2Teams: 3, FinalTeams: 2}, expectedErr: apperr.ErrValidation},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tour, err := NewTournament(tc.tournament, tc.teams, tc.cfg, testNow)
			if tc.expectedErr != nil {
				assert.True(t, errors.Is(err, tc.expectedErr), "got %v", err)
				assert.Nil(t, tour)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.stage, tour.Stage)
			assert.True(t, tour.IsActive)
			assert.Len(t, tour.Teams, len(tc.teams))
			for _, team := range tour.Teams {
				assert.Equal(t, TeamActive, team.Status)
				assert.Zero(t, team.Score)
			}
		})
	}
}

func TestExampleScenario(t *testing.T) {
	tour := startTournament(t, identitySource{}, "A", "B", "C", "D", "E", "F")

	require.Equal(t, []Pair{{"A", "B"}, {"C", "D"}, {"E", "F"}}, tour.Round1Matches)
	assert.Nil(t, tour.ByeTeam)
	assert.Equal(t, []string{"A", "B"}, tour.CurrentPair)

	// Round 1: A, C and F beat B, D and E
	answer(t, tour, 1, true)
	declare(t, tour, "")
	require.NoError(t, tour.Advance(identitySource{}))

	assert.Equal(t, []string{"C", "D"}, tour.CurrentPair)
	answer(t, tour, 2, true)
	declare(t, tour, "")
	require.NoError(t, tour.Advance(identitySource{}))

	assert.Equal(t, []string{"E", "F"}, tour.CurrentPair)
	answer(t, tour, 3, false)
	answer(t, tour, 4, true)
	declare(t, tour, "")

	assert.Equal(t, []string{"A", "C", "F"}, tour.InPlay())

	// Round 2: one of A, C, F waits for the final
	require.NoError(t, tour.Advance(identitySource{}))
	assert.Equal(t, StageRound2, tour.Stage)
	assert.Equal(t, []string{"A", "C"}, tour.CurrentPair)
	assert.Equal(t, TeamFinalWaiting, tour.Team("F").Status)

	declare(t, tour, "C")
	assert.Equal(t, []string{"C", "F"}, tour.InPlay())

	// Final
	require.NoError(t, tour.Advance(identitySource{}))
	assert.Equal(t, StageFinal, tour.Stage)
	assert.Equal(t, FinalRound, tour.CurrentRound)
	assert.Equal(t, []string{"C", "F"}, tour.CurrentPair)

	answer(t, tour, 5, false)
	answer(t, tour, 6, true)
	res := declare(t, tour, "")

	require.NotNil(t, res.Entry)
	assert.Empty(t, res.Warning)
	assert.Equal(t, MatchOutcome{Round: 3, Match: 1, Winner: "F", Loser: "C"}, res.Outcome)

	require.NotNil(t, tour.Winner)
	assert.Equal(t, "F", *tour.Winner)
	assert.False(t, tour.IsActive)
	assert.Equal(t, StageCompleted, tour.Stage)
	for _, team := range tour.Teams {
		assert.Zero(t, team.Score, team.Name)
	}
	assert.Equal(t, TeamChampion, tour.Team("F").Status)
	assert.Equal(t, []string{"F"}, tour.InPlay())

	assert.Equal(t, "F", res.Entry.WinnerName)
	assert.Equal(t, "Class Night Quiz", res.Entry.CompetitionName)
	expected := Standings{{"F", 10}, {"A", 0}, {"B", 0}, {"C", 0}, {"D", 0}, {"E", 0}}
	if diff := cmp.Diff(expected, res.Entry.FinalScores); diff != "" {
		t.Errorf("final scores mismatch (-want +got):\n%s", diff)
	}
}

func TestRoundCountInvariant(t *testing.T) {
	for seed := int64(1); seed <= 25; seed++ {
		rng := rand.New(rand.NewSource(seed))
		tour := startTournament(t, rng, "A", "B", "C", "D", "E", "F")

		for i := 0; i < 3; i++ {
			if i > 0 {
				require.NoError(t, tour.Advance(rng))
			}
			declare(t, tour, "")
		}
		assert.Len(t, tour.InPlay(), 3, "seed %d after round 1", seed)

		require.NoError(t, tour.Advance(rng))
		declare(t, tour, "")
		assert.Len(t, tour.InPlay(), 2, "seed %d after round 2", seed)

		require.NoError(t, tour.Advance(rng))
		res := declare(t, tour, "")
		require.NotNil(t, res.Entry)

		assert.Len(t, tour.InPlay(), 1, "seed %d after the final", seed)
		assert.Equal(t, TeamChampion, tour.Team(tour.InPlay()[0]).Status)
		assert.Equal(t, 1, tour.countStatus(TeamChampion))
	}
}

func TestByeCorrectness(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	tour := startTournament(t, rng, "A", "B", "C", "D", "E")

	require.NotNil(t, tour.ByeTeam)
	bye := *tour.ByeTeam
	assert.Equal(t, 1, tour.countStatus(TeamBye))
	assert.Equal(t, TeamBye, tour.Team(bye).Status)
	require.Len(t, tour.Round1Matches, 2)
	for _, p := range tour.Round1Matches {
		assert.False(t, p.Has(bye))
	}

	declare(t, tour, "")
	require.NoError(t, tour.Advance(rng))
	declare(t, tour, "")

	assert.False(t, tour.Team(bye).IsEliminated)
	assert.Len(t, tour.InPlay(), 3)
	assert.Contains(t, tour.InPlay(), bye)

	// The bye team takes part in the round 2 draw
	require.NoError(t, tour.Advance(rng))
	inRound2 := tour.Team(bye).Status == TeamFinalWaiting || Pair{tour.CurrentPair[0], tour.CurrentPair[1]}.Has(bye)
	assert.True(t, inRound2)
}

func TestTurnRotation(t *testing.T) {
	tour := startTournament(t, identitySource{}, "A", "B", "C", "D", "E", "F")

	outcomes := []bool{true, false, false, true, true, true, false}
	expectedTurn := 0
	for i, correct := range outcomes {
		assert.Equal(t, expectedTurn, tour.CurrentTurnIndex, "before answer %d", i)
		assert.Equal(t, tour.CurrentPair[expectedTurn], tour.TurnTeam())
		answer(t, tour, int64(i+1), correct)
		expectedTurn = 1 - expectedTurn
	}
	assert.Equal(t, 1, tour.CurrentTurnIndex)

	// A answered 1, 3, 5, 7 (true, false, true, false); B answered 2, 4, 6
	assert.Equal(t, 20, tour.Team("A").Score)
	assert.Equal(t, 20, tour.Team("B").Score)
}

func TestScoreResetOnMatchEnd(t *testing.T) {
	tour := startTournament(t, identitySource{}, "A", "B", "C", "D", "E", "F")
	answer(t, tour, 1, true)
	answer(t, tour, 2, true)
	answer(t, tour, 3, true)

	res := declare(t, tour, "")
	assert.Equal(t, "A", res.Outcome.Winner)

	assert.Zero(t, tour.Team("A").Score)
	assert.Zero(t, tour.Team("B").Score)
	assert.True(t, tour.Team("B").IsEliminated)
	assert.Equal(t, TeamEliminated, tour.Team("B").Status)
	assert.Empty(t, tour.CurrentPair)
	assert.True(t, tour.IsRoundOver)
	assert.Len(t, tour.MatchWinners, 1)
}

func TestTurnControllerErrors(t *testing.T) {
	tour := startTournament(t, identitySource{}, "A", "B", "C", "D", "E", "F")

	_, err := tour.ScoreAnswer(true)
	assert.True(t, errors.Is(err, apperr.ErrInvalidState))

	require.NoError(t, tour.ActivateQuestion(10))
	err = tour.ActivateQuestion(11)
	assert.True(t, errors.Is(err, apperr.ErrConflict))
	assert.Equal(t, int64(10), *tour.ActiveQuestionID)

	_, err = tour.DeclareMatchWinner(1, 1, "", testNow)
	assert.True(t, errors.Is(err, apperr.ErrInvalidState), "declaring with a live question")

	_, err = tour.ScoreAnswer(false)
	require.NoError(t, err)
	declare(t, tour, "")

	err = tour.ActivateQuestion(12)
	assert.True(t, errors.Is(err, apperr.ErrInvalidState), "activating between matches")
}

func TestDeclareMatchWinner(t *testing.T) {
	testCases := []struct {
		name           string
		round, match   int
		override       string
		setup          func(t *testing.T, tour *Tournament)
		expectedWinner string
		expectWarning  bool
		expectedErr    error
	}{
		{name: "tie falls back to the first team", round: 1, match: 1, expectedWinner: "A", expectWarning: true},
		{name: "higher score wins", round: 1, match: 1, setup: func(t *testing.T, tour *Tournament) {
			answer(t, tour, 1, false)
			answer(t, tour, 2, true)
		}, expectedWinner: "B"},
		{name: "override beats the scores", round: 1, match: 1, override: "B", setup: func(t *testing.T, tour *Tournament) {
			answer(t, tour, 1, true)
		}, expectedWinner: "B"},
		{name: "override must be a participant", round: 1, match: 1, override: "C", expectedErr: apperr.ErrValidation},
		{name: "wrong match number", round: 1, match: 2, expectedErr: apperr.ErrInvalidState},
		{name: "wrong round", round: 2, match: 1, expectedErr: apperr.ErrInvalidState},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tour := startTournament(t, identitySource{}, "A", "B", "C", "D", "E", "F")
			if tc.setup != nil {
				tc.setup(t, tour)
			}
			before := tour.Clone()

			res, err := tour.DeclareMatchWinner(tc.round, tc.match, tc.override, testNow)
			if tc.expectedErr != nil {
				assert.True(t, errors.Is(err, tc.expectedErr), "got %v", err)
				assert.Equal(t, before, tour, "failed declaration must not change state")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectedWinner, res.Outcome.Winner)
			assert.Equal(t, tc.expectWarning, res.Warning != "")
			assert.Nil(t, res.Entry)
		})
	}
}

func TestAdvanceGuards(t *testing.T) {
	tour := startTournament(t, identitySource{}, "A", "B", "C", "D", "E", "F")
	drawn := append([]Pair{}, tour.Round1Matches...)

	err := tour.Advance(identitySource{})
	assert.True(t, errors.Is(err, apperr.ErrInvalidState), "advancing during a live match")

	declare(t, tour, "")
	require.NoError(t, tour.Advance(rand.New(rand.NewSource(1))))
	assert.Equal(t, drawn, tour.Round1Matches, "round 1 pairs are fixed once drawn")
	assert.Equal(t, 2, tour.CurrentMatchNumber)
	assert.Equal(t, 0, tour.CurrentTurnIndex)
}

func TestRound2DrawInvariantViolation(t *testing.T) {
	tour := startTournament(t, identitySource{}, "A", "B", "C", "D", "E", "F")
	for i := 0; i < 3; i++ {
		if i > 0 {
			require.NoError(t, tour.Advance(identitySource{}))
		}
		declare(t, tour, "")
	}

	// Corrupt the roster so four teams look eligible
	tour.Team("B").IsEliminated = false
	before := tour.Clone()

	err := tour.Advance(identitySource{})
	assert.True(t, errors.Is(err, apperr.ErrInvariant), "got %v", err)
	assert.Equal(t, before, tour)
}

func TestFinalSetupInvariantViolation(t *testing.T) {
	tour := startTournament(t, identitySource{}, "A", "B", "C", "D", "E", "F")
	for i := 0; i < 3; i++ {
		if i > 0 {
			require.NoError(t, tour.Advance(identitySource{}))
		}
		declare(t, tour, "")
	}
	require.NoError(t, tour.Advance(identitySource{}))
	declare(t, tour, "")

	// Drop the final-waiting mark
	tour.Team("E").Status = TeamEliminated
	before := tour.Clone()

	err := tour.Advance(identitySource{})
	assert.True(t, errors.Is(err, apperr.ErrInvariant), "got %v", err)
	assert.Equal(t, before, tour)
}

func TestFinalizeNow(t *testing.T) {
	t.Run("rejected while three teams remain", func(t *testing.T) {
		cfg := RoundConfig{StartRound: Round2, Round1Teams: 6, Round2Teams: 3, FinalTeams: 2}
		tour, err := NewTournament("Semis", []string{"X", "Y", "Z"}, cfg, testNow)
		require.NoError(t, err)
		require.NoError(t, tour.Advance(identitySource{}))

		_, err = tour.FinalizeNow("X", testNow)
		assert.True(t, errors.Is(err, apperr.ErrInvalidState))
		assert.True(t, tour.IsActive)
	})

	t.Run("rejected during round 1", func(t *testing.T) {
		tour := startTournament(t, identitySource{}, "A", "B", "C", "D", "E", "F")
		_, err := tour.FinalizeNow("A", testNow)
		assert.True(t, errors.Is(err, apperr.ErrInvalidState))
		assert.True(t, tour.IsActive)
	})

	t.Run("records the live final and rejects a second call", func(t *testing.T) {
		cfg := RoundConfig{StartRound: FinalRound, Round1Teams: 6, Round2Teams: 3, FinalTeams: 2}
		tour, err := NewTournament("Finals Only", []string{"Red", "Blue"}, cfg, testNow)
		require.NoError(t, err)
		require.NoError(t, tour.Advance(identitySource{}))
		assert.Equal(t, StageFinal, tour.Stage)
		answer(t, tour, 1, true)

		_, err = tour.FinalizeNow("Green", testNow)
		assert.True(t, errors.Is(err, apperr.ErrValidation))

		entry, err := tour.FinalizeNow("Blue", testNow)
		require.NoError(t, err)
		assert.Equal(t, "Blue", entry.WinnerName)
		assert.Equal(t, Standings{{"Red", 10}, {"Blue", 0}}, entry.FinalScores)
		assert.Equal(t, TeamChampion, tour.Team("Blue").Status)
		assert.Equal(t, TeamEliminated, tour.Team("Red").Status)

		_, err = tour.FinalizeNow("Blue", testNow)
		assert.True(t, errors.Is(err, apperr.ErrInvalidState))
	})

	t.Run("eliminated team cannot be crowned", func(t *testing.T) {
		tour := startTournament(t, identitySource{}, "A", "B", "C", "D", "E", "F")
		for i := 0; i < 3; i++ {
			if i > 0 {
				require.NoError(t, tour.Advance(identitySource{}))
			}
			declare(t, tour, "")
		}
		require.NoError(t, tour.Advance(identitySource{}))
		declare(t, tour, "")

		_, err := tour.FinalizeNow("B", testNow)
		assert.True(t, errors.Is(err, apperr.ErrValidation))

		entry, err := tour.FinalizeNow("E", testNow)
		require.NoError(t, err)
		assert.Equal(t, "E", entry.WinnerName)
		assert.Equal(t, TeamFinished, tour.Team("A").Status)
		assert.True(t, tour.Team("A").IsEliminated)
	})
}

func TestStartAtRound2(t *testing.T) {
	cfg := RoundConfig{StartRound: Round2, Round1Teams: 6, Round2Teams: 3, FinalTeams: 2}
	tour, err := NewTournament("Semis", []string{"X", "Y", "Z"}, cfg, testNow)
	require.NoError(t, err)

	require.NoError(t, tour.Advance(identitySource{}))
	assert.Equal(t, StageRound2, tour.Stage)
	assert.Equal(t, []string{"X", "Y"}, tour.CurrentPair)
	assert.Equal(t, TeamFinalWaiting, tour.Team("Z").Status)
	assert.Empty(t, tour.Round1Matches)

	declare(t, tour, "Y")
	require.NoError(t, tour.Advance(identitySource{}))
	assert.Equal(t, []string{"Y", "Z"}, tour.CurrentPair)

	res := declare(t, tour, "Z")
	require.NotNil(t, res.Entry)
	assert.Equal(t, "Z", *tour.Winner)
}

func TestCloneIsIndependent(t *testing.T) {
	tour := startTournament(t, identitySource{}, "A", "B", "C", "D", "E", "F")
	require.NoError(t, tour.ActivateQuestion(4))

	c := tour.Clone()
	c.Teams[0].Score = 99
	c.CurrentPair[0] = "Z"
	*c.ActiveQuestionID = 5
	c.Round1Matches[0] = Pair{"Q", "R"}

	assert.Zero(t, tour.Teams[0].Score)
	assert.Equal(t, "A", tour.CurrentPair[0])
	assert.Equal(t, int64(4), *tour.ActiveQuestionID)
	assert.Equal(t, Pair{"A", "B"}, tour.Round1Matches[0])
}
