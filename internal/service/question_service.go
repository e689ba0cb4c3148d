package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/AdamBeresnev/quiz-bracket/internal/apperr"
	"github.com/AdamBeresnev/quiz-bracket/internal/quiz"
	"github.com/AdamBeresnev/quiz-bracket/internal/store"
	"github.com/jmoiron/sqlx"
)

// QuestionService manages the bank. It reads the stored tournament so the
// question put to a team cannot be removed from under it.
type QuestionService struct {
	db          *sqlx.DB
	store       *store.QuestionStore
	tournaments *store.TournamentStore
	logger      *slog.Logger
}

func NewQuestionService(db *sqlx.DB, questions *store.QuestionStore, tournaments *store.TournamentStore, logger *slog.Logger) *QuestionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuestionService{db: db, store: questions, tournaments: tournaments, logger: logger}
}

// activeQuestion returns the id of the question the stored tournament has
// put to a team, or nil.
func (s *QuestionService) activeQuestion(ctx context.Context) (*int64, error) {
	t, _, err := s.tournaments.LoadState(ctx)
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, store.ErrCorruptState) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load tournament state: %w", err)
	}
	return t.ActiveQuestionID, nil
}

func (s *QuestionService) List(ctx context.Context) ([]quiz.Question, error) {
	return s.store.ListQuestions(ctx)
}

func (s *QuestionService) Get(ctx context.Context, id int64) (*quiz.Question, error) {
	q, err := s.store.GetQuestion(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("question %d not found", id)
	}
	return q, err
}

func (s *QuestionService) Create(ctx context.Context, q quiz.Question) (*quiz.Question, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		return s.store.CreateQuestion(ctx, tx, &q)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}
	s.logger.Info("question created", "question_id", q.ID, "type", q.Type)
	return &q, nil
}

func (s *QuestionService) Update(ctx context.Context, id int64, q quiz.Question) (*quiz.Question, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	q.ID = id
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		return s.store.UpdateQuestion(ctx, tx, &q)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("question %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update question: %w", err)
	}
	return &q, nil
}

func (s *QuestionService) Delete(ctx context.Context, id int64) error {
	active, err := s.activeQuestion(ctx)
	if err != nil {
		return err
	}
	if active != nil && *active == id {
		return apperr.Conflict("question %d is active, score it first", id)
	}

	err = s.withTx(ctx, func(tx *sqlx.Tx) error {
		return s.store.DeleteQuestion(ctx, tx, id)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("question %d not found", id)
	}
	return err
}

// Import parses a YAML or XLSX question bank, picked by the extension of
// filename, and appends it to the bank or replaces the bank.
func (s *QuestionService) Import(ctx context.Context, filename string, data []byte, replace bool) (int, error) {
	var (
		questions []quiz.Question
		err       error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		questions, err = quiz.ParseYAML(data)
	case ".xlsx":
		questions, err = quiz.ParseXLSX(data)
	default:
		return 0, apperr.Validation("unsupported question file %q, use .yaml or .xlsx", filename)
	}
	if err != nil {
		return 0, err
	}
	if replace {
		active, err := s.activeQuestion(ctx)
		if err != nil {
			return 0, err
		}
		if active != nil {
			return 0, apperr.Conflict("question %d is active, score it before replacing the bank", *active)
		}
	}

	err = s.withTx(ctx, func(tx *sqlx.Tx) error {
		if replace {
			return s.store.ReplaceQuestions(ctx, tx, questions)
		}
		for i := range questions {
			if err := s.store.CreateQuestion(ctx, tx, &questions[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to import questions: %w", err)
	}

	s.logger.Info("questions imported", "file", filename, "count", len(questions), "replace", replace)
	return len(questions), nil
}

func (s *QuestionService) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
