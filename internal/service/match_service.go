package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/AdamBeresnev/quiz-bracket/internal/apperr"
	"github.com/AdamBeresnev/quiz-bracket/internal/bracket"
	"github.com/AdamBeresnev/quiz-bracket/internal/quiz"
)

// ActivateQuestion puts question id to the team whose turn it is and starts
// the answer countdown.
func (s *TournamentService) ActivateQuestion(ctx context.Context, id int64) (*bracket.Tournament, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.activateQuestion(ctx, id)
	s.metrics.observe("activate_question", err)
	return t, err
}

func (s *TournamentService) activateQuestion(ctx context.Context, id int64) (*bracket.Tournament, error) {
	if err := s.refresh(ctx); err != nil {
		return nil, err
	}
	// A missing match or a pending question is reported before the lookup
	if err := s.current.Clone().ActivateQuestion(id); err != nil {
		return nil, err
	}
	if _, err := s.questions.GetQuestion(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.Validation("question %d does not exist", id)
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	return s.apply(ctx, func(t *bracket.Tournament) (*change, error) {
		return &change{}, t.ActivateQuestion(id)
	}, func(t *bracket.Tournament) {
		s.armCountdown(id)
		s.logger.Info("question activated", "question_id", id, "team", t.TurnTeam())
	})
}

// ScoreAnswer scores the active question for the team whose turn it is and
// removes the question from the bank.
func (s *TournamentService) ScoreAnswer(ctx context.Context, isCorrect bool) (*bracket.Tournament, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.scoreAnswer(ctx, isCorrect, answerLabel(isCorrect))
	s.metrics.observe("score_answer", err)
	return t, err
}

func answerLabel(isCorrect bool) string {
	if isCorrect {
		return "correct"
	}
	return "incorrect"
}

func (s *TournamentService) scoreAnswer(ctx context.Context, isCorrect bool, result string) (*bracket.Tournament, error) {
	var team string
	return s.apply(ctx, func(t *bracket.Tournament) (*change, error) {
		team = t.TurnTeam()
		id, err := t.ScoreAnswer(isCorrect)
		if err != nil {
			return nil, err
		}
		return &change{consumedQuestion: &id}, nil
	}, func(t *bracket.Tournament) {
		s.stopCountdown()
		s.metrics.Answers.WithLabelValues(result).Inc()
		s.logger.Info("answer scored", "team", team, "result", result, "next_team", t.TurnTeam())
	})
}

// DeclareMatchWinner resolves the current match. When it was the final the
// resolution carries the new leaderboard entry.
func (s *TournamentService) DeclareMatchWinner(ctx context.Context, round, match int, override string) (*bracket.Tournament, *bracket.MatchResolution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var res *bracket.MatchResolution
	t, err := s.apply(ctx, func(t *bracket.Tournament) (*change, error) {
		r, err := t.DeclareMatchWinner(round, match, override, s.now())
		if err != nil {
			return nil, err
		}
		res = r
		return &change{entry: r.Entry}, nil
	}, func(t *bracket.Tournament) {
		s.metrics.Matches.WithLabelValues(strconv.Itoa(round)).Inc()
		if res.Warning != "" {
			s.logger.Warn("match decided by tie fallback", "round", round, "match", match, "warning", res.Warning)
		}
		s.logger.Info("match winner declared", "round", round, "match", match, "winner", res.Outcome.Winner, "loser", res.Outcome.Loser)
		if res.Entry != nil {
			s.metrics.Finalized.Inc()
			s.metrics.Leaderboards.Inc()
			s.logger.Info("tournament finalized", "name", res.Entry.CompetitionName, "winner", res.Entry.WinnerName)
		}
	})
	s.metrics.observe("declare_winner", err)
	if err != nil {
		return nil, nil, err
	}
	return t, res, nil
}

// ActiveQuestion returns the question currently put to a team, or nil.
func (s *TournamentService) ActiveQuestion(ctx context.Context) (*quiz.Question, error) {
	s.mu.Lock()
	err := s.refresh(ctx)
	id := s.current.ActiveQuestionID
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if id == nil {
		return nil, nil
	}

	q, err := s.questions.GetQuestion(ctx, *id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return q, err
}

// Remaining reports the time left on the answer countdown.
func (s *TournamentService) Remaining() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.countdown == nil {
		return 0, false
	}
	left := s.deadline.Sub(s.now())
	if left < 0 {
		left = 0
	}
	return left, true
}

// armCountdown scores question id as incorrect once the answer timeout
// passes, unless it was scored or the tournament reset first. The caller
// holds s.mu.
func (s *TournamentService) armCountdown(id int64) {
	s.stopCountdown()
	if s.answerTimeout < 0 {
		return
	}
	gen := s.generation
	s.deadline = s.now().Add(s.answerTimeout)
	s.countdown = time.AfterFunc(s.answerTimeout, func() {
		s.expire(gen, id)
	})
}

func (s *TournamentService) stopCountdown() {
	if s.countdown != nil {
		s.countdown.Stop()
		s.countdown = nil
	}
	s.generation++
}

func (s *TournamentService) expire(gen uint64, id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.refresh(context.Background()); err != nil {
		s.logger.Error("failed to check tournament revision", "error", err)
		return
	}
	active := s.current.ActiveQuestionID
	if gen != s.generation || active == nil || *active != id {
		return
	}
	if _, err := s.scoreAnswer(context.Background(), false, "timeout"); err != nil {
		s.logger.Error("failed to score timed out answer", "question_id", id, "error", err)
		return
	}
	s.logger.Info("answer timed out", "question_id", id)
}
