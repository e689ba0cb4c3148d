package quiz

import (
	"strings"

	"github.com/AdamBeresnev/quiz-bracket/internal/apperr"
	"github.com/AdamBeresnev/quiz-bracket/internal/media"
)

type QuestionType string

const (
	TypeDirect         QuestionType = "direct"
	TypeTrueFalse      QuestionType = "true/false"
	TypeMultipleChoice QuestionType = "multiple_choice"
	TypePicture        QuestionType = "picture"
)

type Question struct {
	ID            int64        `db:"id" json:"id" yaml:"-"`
	Text          string       `db:"text" json:"text" yaml:"text"`
	CorrectAnswer string       `db:"correct_answer" json:"correct_answer" yaml:"correct_answer"`
	Type          QuestionType `db:"type" json:"type" yaml:"type"`
	OptionA       string       `db:"option_a" json:"option_a,omitempty" yaml:"option_a,omitempty"`
	OptionB       string       `db:"option_b" json:"option_b,omitempty" yaml:"option_b,omitempty"`
	OptionC       string       `db:"option_c" json:"option_c,omitempty" yaml:"option_c,omitempty"`
	OptionD       string       `db:"option_d" json:"option_d,omitempty" yaml:"option_d,omitempty"`
	ImageData     string       `db:"image_data" json:"image_data,omitempty" yaml:"image_data,omitempty"`
}

func (t QuestionType) Valid() bool {
	switch t {
	case TypeDirect, TypeTrueFalse, TypeMultipleChoice, TypePicture:
		return true
	}
	return false
}

// Options returns the four multiple choice options in A..D order.
func (q *Question) Options() []string {
	return []string{q.OptionA, q.OptionB, q.OptionC, q.OptionD}
}

// Validate checks q and normalizes it in place: fields are trimmed, a
// multiple choice answer is upper-cased, a true/false answer becomes
// "True" or "False", and fields that do not apply to the type are cleared.
func (q *Question) Validate() error {
	q.Text = strings.TrimSpace(q.Text)
	q.CorrectAnswer = strings.TrimSpace(q.CorrectAnswer)
	q.ImageData = strings.TrimSpace(q.ImageData)
	if q.Type == "" {
		q.Type = TypeDirect
	}
	q.Type = QuestionType(strings.ToLower(strings.TrimSpace(string(q.Type))))

	if !q.Type.Valid() {
		return apperr.Validation("unknown question type %q", q.Type)
	}
	if q.Text == "" || q.CorrectAnswer == "" {
		return apperr.Validation("question text and correct answer are required")
	}

	switch q.Type {
	case TypeMultipleChoice:
		q.OptionA = strings.TrimSpace(q.OptionA)
		q.OptionB = strings.TrimSpace(q.OptionB)
		q.OptionC = strings.TrimSpace(q.OptionC)
		q.OptionD = strings.TrimSpace(q.OptionD)
		for _, opt := range q.Options() {
			if opt == "" {
				return apperr.Validation("all four options (A, B, C, D) are required for multiple choice")
			}
		}
		q.CorrectAnswer = strings.ToUpper(q.CorrectAnswer)
		if !strings.Contains("ABCD", q.CorrectAnswer) || len(q.CorrectAnswer) != 1 {
			return apperr.Validation("multiple choice answer must be A, B, C or D, got %q", q.CorrectAnswer)
		}
	case TypeTrueFalse:
		switch strings.ToLower(q.CorrectAnswer) {
		case "true":
			q.CorrectAnswer = "True"
		case "false":
			q.CorrectAnswer = "False"
		default:
			return apperr.Validation("true/false answer must be True or False, got %q", q.CorrectAnswer)
		}
	case TypePicture:
		if media.GetImageInfo(q.ImageData).Type == media.ImageTypeNone {
			return apperr.Validation("picture questions need an image")
		}
	}

	if q.Type != TypeMultipleChoice {
		q.OptionA, q.OptionB, q.OptionC, q.OptionD = "", "", "", ""
	}
	if q.Type != TypePicture {
		q.ImageData = ""
	}
	return nil
}
