package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/AdamBeresnev/quiz-bracket/internal/apperr"
	"github.com/AdamBeresnev/quiz-bracket/internal/bracket"
	"github.com/AdamBeresnev/quiz-bracket/internal/quiz"
	"github.com/AdamBeresnev/quiz-bracket/internal/store"
	"github.com/jmoiron/sqlx"
)

// DefaultAnswerTimeout is how long a team has to answer an active question.
const DefaultAnswerTimeout = 60 * time.Second

type Options struct {
	Source        bracket.Source
	AnswerTimeout time.Duration
	Logger        *slog.Logger
	Metrics       *Metrics
	Now           func() time.Time
}

// TournamentService owns the live tournament of one process. Every operation
// runs under one lock: it is applied to a copy, persisted in one transaction
// and only then made current. The stored revision tells it when another
// process, such as quizctl, rewrote the record in the meantime.
type TournamentService struct {
	db          *sqlx.DB
	store       *store.TournamentStore
	questions   *store.QuestionStore
	leaderboard *store.LeaderboardStore

	src           bracket.Source
	answerTimeout time.Duration
	logger        *slog.Logger
	metrics       *Metrics
	now           func() time.Time

	mu         sync.Mutex
	current    *bracket.Tournament
	revision   int64
	countdown  *time.Timer
	generation uint64
	deadline   time.Time
}

func NewTournamentService(db *sqlx.DB, tournaments *store.TournamentStore, questions *store.QuestionStore, leaderboard *store.LeaderboardStore, opts Options) *TournamentService {
	if opts.Source == nil {
		opts.Source = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.AnswerTimeout == 0 {
		opts.AnswerTimeout = DefaultAnswerTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics(nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &TournamentService{
		db:            db,
		store:         tournaments,
		questions:     questions,
		leaderboard:   leaderboard,
		src:           opts.Source,
		answerTimeout: opts.AnswerTimeout,
		logger:        opts.Logger,
		metrics:       opts.Metrics,
		now:           opts.Now,
		current:       bracket.Empty(),
	}
}

// Load restores the persisted tournament. A missing record starts empty; a
// corrupt one is logged and replaced by the empty state.
func (s *TournamentService) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *TournamentService) load(ctx context.Context) error {
	t, rev, err := s.store.LoadState(ctx)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		t = bracket.Empty()
	case errors.Is(err, store.ErrCorruptState):
		s.logger.Warn("discarding stored tournament state", "error", err)
		t = bracket.Empty()
	case err != nil:
		return fmt.Errorf("failed to load tournament state: %w", err)
	}

	s.stopCountdown()
	s.current = t
	s.revision = rev
	if t.ActiveQuestionID != nil {
		s.armCountdown(*t.ActiveQuestionID)
	}
	s.logger.Info("tournament state loaded", "stage", t.Stage, "active", t.IsActive, "revision", rev)
	return nil
}

// refresh reloads the tournament when the stored revision no longer matches
// the one this process last read or wrote. The caller holds s.mu.
func (s *TournamentService) refresh(ctx context.Context) error {
	rev, err := s.store.Revision(ctx)
	if err != nil {
		return fmt.Errorf("failed to read tournament revision: %w", err)
	}
	if rev == s.revision {
		return nil
	}
	s.logger.Info("tournament state changed elsewhere, reloading", "revision", s.revision, "stored_revision", rev)
	return s.load(ctx)
}

// Current returns a copy of the stored tournament, reloading it first if
// another process changed it.
func (s *TournamentService) Current(ctx context.Context) (*bracket.Tournament, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.refresh(ctx); err != nil {
		return nil, err
	}
	return s.current.Clone(), nil
}

// Snapshot returns a copy of the tournament as this process last saw it.
func (s *TournamentService) Snapshot() *bracket.Tournament {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

type StartInput struct {
	Name        string
	TeamNames   []string
	RoundConfig bracket.RoundConfig
	// Questions replaces the question bank when not empty.
	Questions []quiz.Question
}

// StartTournament creates a tournament and draws its first match. A zero
// RoundConfig selects the default 6/3/2 bracket.
func (s *TournamentService) StartTournament(ctx context.Context, in StartInput) (*bracket.Tournament, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.startTournament(ctx, in)
	s.metrics.observe("start", err)
	return t, err
}

func (s *TournamentService) startTournament(ctx context.Context, in StartInput) (*bracket.Tournament, error) {
	if err := s.refresh(ctx); err != nil {
		return nil, err
	}
	if s.current.IsActive {
		return nil, apperr.Conflict("tournament %q is still running, reset it first", s.current.Name)
	}

	cfg := in.RoundConfig
	if cfg == (bracket.RoundConfig{}) {
		cfg = bracket.DefaultRoundConfig()
	}
	for i := range in.Questions {
		if err := in.Questions[i].Validate(); err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
	}
	if len(in.Questions) == 0 {
		n, err := s.questions.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to count questions: %w", err)
		}
		if n == 0 {
			return nil, apperr.Validation("question bank is empty, add questions before starting")
		}
	}

	return s.apply(ctx, func(t *bracket.Tournament) (*change, error) {
		started, err := bracket.NewTournament(in.Name, in.TeamNames, cfg, s.now())
		if err != nil {
			return nil, err
		}
		if err := started.Advance(s.src); err != nil {
			return nil, err
		}
		*t = *started
		return &change{questions: in.Questions}, nil
	}, func(t *bracket.Tournament) {
		s.logger.Info("tournament started", "name", t.Name, "teams", len(t.Teams), "start_round", t.RoundConfig.StartRound, "pair", t.CurrentPair)
	})
}

// AdvanceToNextMatch moves to the next pair, the Round 2 draw or the final.
func (s *TournamentService) AdvanceToNextMatch(ctx context.Context) (*bracket.Tournament, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.apply(ctx, func(t *bracket.Tournament) (*change, error) {
		return &change{}, t.Advance(s.src)
	}, func(t *bracket.Tournament) {
		s.logger.Info("match started", "round", t.CurrentRound, "match", t.CurrentMatchNumber, "pair", t.CurrentPair, "stage", t.Stage)
	})
	s.metrics.observe("advance", err)
	return t, err
}

// FinalizeNow ends the tournament with winner as champion and records it on
// the leaderboard.
func (s *TournamentService) FinalizeNow(ctx context.Context, winner string) (*bracket.Tournament, *bracket.LeaderboardEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entry *bracket.LeaderboardEntry
	t, err := s.apply(ctx, func(t *bracket.Tournament) (*change, error) {
		e, err := t.FinalizeNow(winner, s.now())
		if err != nil {
			return nil, err
		}
		entry = e
		return &change{entry: e}, nil
	}, func(t *bracket.Tournament) {
		s.stopCountdown()
		s.metrics.Finalized.Inc()
		s.metrics.Leaderboards.Inc()
		s.logger.Info("tournament finalized", "name", t.Name, "winner", winner)
	})
	s.metrics.observe("finalize", err)
	if err != nil {
		return nil, nil, err
	}
	return t, entry, nil
}

// ResetTournament discards the live tournament in any stage. The question
// bank and the leaderboard are kept.
func (s *TournamentService) ResetTournament(ctx context.Context) (*bracket.Tournament, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.apply(ctx, func(t *bracket.Tournament) (*change, error) {
		*t = *bracket.Empty()
		return &change{}, nil
	}, func(t *bracket.Tournament) {
		s.stopCountdown()
		s.logger.Info("tournament reset")
	})
	s.metrics.observe("reset", err)
	return t, err
}

// change lists the side effects that must be persisted together with the
// new tournament state.
type change struct {
	questions        []quiz.Question
	consumedQuestion *int64
	entry            *bracket.LeaderboardEntry
}

// apply runs op on a copy of the stored tournament and persists the result
// together with ch in one transaction. The copy becomes current only after
// the commit, then onCommit runs. The caller holds s.mu.
func (s *TournamentService) apply(ctx context.Context, op func(t *bracket.Tournament) (*change, error), onCommit func(t *bracket.Tournament)) (*bracket.Tournament, error) {
	if err := s.refresh(ctx); err != nil {
		return nil, err
	}
	next := s.current.Clone()
	ch, err := op(next)
	if err != nil {
		return nil, err
	}
	if err := next.Check(); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if len(ch.questions) > 0 {
		if err := s.questions.ReplaceQuestions(ctx, tx, ch.questions); err != nil {
			return nil, fmt.Errorf("failed to replace questions: %w", err)
		}
	}
	if ch.consumedQuestion != nil {
		err := s.questions.DeleteQuestion(ctx, tx, *ch.consumedQuestion)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to remove question %d: %w", *ch.consumedQuestion, err)
		}
	}
	if ch.entry != nil {
		if err := s.leaderboard.AppendEntry(ctx, tx, ch.entry); err != nil {
			return nil, fmt.Errorf("failed to append leaderboard entry: %w", err)
		}
	}
	rev, err := s.store.SaveState(ctx, tx, next, s.revision)
	if errors.Is(err, store.ErrStaleState) {
		return nil, apperr.Conflict("tournament was changed by another process, try again")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save tournament state: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.current = next
	s.revision = rev
	if onCommit != nil {
		onCommit(next)
	}
	return next.Clone(), nil
}
