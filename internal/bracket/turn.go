package bracket

import (
	"github.com/AdamBeresnev/quiz-bracket/internal/apperr"
	"github.com/AdamBeresnev/quiz-bracket/internal/utils"
)

// PointsPerCorrectAnswer is awarded to the team whose turn it is.
const PointsPerCorrectAnswer = 10

// TurnTeam returns the name of the team due to answer, or "" when no match is live.
func (t *Tournament) TurnTeam() string {
	if !t.MatchLive() {
		return ""
	}
	return t.CurrentPair[t.CurrentTurnIndex]
}

func (t *Tournament) ActivateQuestion(id int64) error {
	if !t.IsActive || !t.MatchLive() {
		return apperr.InvalidState("no match is in progress")
	}
	if t.ActiveQuestionID != nil {
		return apperr.Conflict("question %d is already active, score it first", *t.ActiveQuestionID)
	}

	t.ActiveQuestionID = utils.Ptr(id)
	return nil
}

// ScoreAnswer scores the active question for the team whose turn it is and
// passes the turn. The consumed question id is returned so the caller can
// drop it from the repository.
func (t *Tournament) ScoreAnswer(isCorrect bool) (int64, error) {
	if t.ActiveQuestionID == nil {
		return 0, apperr.InvalidState("no question is active")
	}
	if !t.MatchLive() {
		return 0, apperr.Invariant("question %d is active outside a match", *t.ActiveQuestionID)
	}
	team := t.Team(t.CurrentPair[t.CurrentTurnIndex])
	if team == nil {
		return 0, apperr.Invariant("team %q of the current pair is not on the roster", t.CurrentPair[t.CurrentTurnIndex])
	}

	consumed := *t.ActiveQuestionID
	if isCorrect {
		team.Score += PointsPerCorrectAnswer
	}
	t.CurrentTurnIndex = (t.CurrentTurnIndex + 1) % len(t.CurrentPair)
	t.ActiveQuestionID = nil
	return consumed, nil
}
