package store

import (
	"context"
	"database/sql"

	"github.com/AdamBeresnev/quiz-bracket/internal/quiz"
	"github.com/jmoiron/sqlx"
)

const questionColumns = "id, text, correct_answer, type, option_a, option_b, option_c, option_d, image_data"

type QuestionStore struct {
	db *sqlx.DB
}

func NewQuestionStore(db *sqlx.DB) *QuestionStore {
	return &QuestionStore{db: db}
}

func (s *QuestionStore) CreateQuestion(ctx context.Context, tx *sqlx.Tx, q *quiz.Question) error {
	res, err := tx.NamedExecContext(ctx, `INSERT INTO questions (text, correct_answer, type, option_a, option_b, option_c, option_d, image_data)
		VALUES (:text, :correct_answer, :type, :option_a, :option_b, :option_c, :option_d, :image_data)`, q)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	q.ID = id
	return nil
}

// UpdateQuestion returns sql.ErrNoRows when q.ID does not exist.
func (s *QuestionStore) UpdateQuestion(ctx context.Context, tx *sqlx.Tx, q *quiz.Question) error {
	res, err := tx.NamedExecContext(ctx, `UPDATE questions SET text = :text, correct_answer = :correct_answer, type = :type,
		option_a = :option_a, option_b = :option_b, option_c = :option_c, option_d = :option_d, image_data = :image_data
		WHERE id = :id`, q)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// DeleteQuestion returns sql.ErrNoRows when id does not exist.
func (s *QuestionStore) DeleteQuestion(ctx context.Context, tx *sqlx.Tx, id int64) error {
	res, err := tx.ExecContext(ctx, "DELETE FROM questions WHERE id = ?", id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// ReplaceQuestions swaps the whole bank for questions, assigning fresh ids.
func (s *QuestionStore) ReplaceQuestions(ctx context.Context, tx *sqlx.Tx, questions []quiz.Question) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM questions"); err != nil {
		return err
	}
	for i := range questions {
		if err := s.CreateQuestion(ctx, tx, &questions[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *QuestionStore) GetQuestion(ctx context.Context, id int64) (*quiz.Question, error) {
	var q quiz.Question
	err := s.db.GetContext(ctx, &q, "SELECT "+questionColumns+" FROM questions WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (s *QuestionStore) ListQuestions(ctx context.Context) ([]quiz.Question, error) {
	questions := []quiz.Question{}
	err := s.db.SelectContext(ctx, &questions, "SELECT "+questionColumns+" FROM questions ORDER BY id ASC")
	return questions, err
}

func (s *QuestionStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM questions")
	return n, err
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
