package quiz

import (
	"errors"
	"testing"

	"github.com/AdamBeresnev/quiz-bracket/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseYAML(t *testing.T) {
	t.Run("list document", func(t *testing.T) {
		data := []byte(`
- text: Capital of Kenya?
  correct_answer: Nairobi
- text: The sun is a star
  correct_answer: "true"
  type: true/false
`)
		questions, err := ParseYAML(data)
		require.NoError(t, err)
		require.Len(t, questions, 2)
		assert.Equal(t, TypeDirect, questions[0].Type)
		assert.Equal(t, "True", questions[1].CorrectAnswer)
	})

	t.Run("mapping document", func(t *testing.T) {
		data := []byte(`
questions:
  - text: Pick the even number
    correct_answer: b
    type: multiple_choice
    option_a: "1"
    option_b: "2"
    option_c: "3"
    option_d: "5"
`)
		questions, err := ParseYAML(data)
		require.NoError(t, err)
		require.Len(t, questions, 1)
		assert.Equal(t, "B", questions[0].CorrectAnswer)
	})

	t.Run("invalid question", func(t *testing.T) {
		_, err := ParseYAML([]byte("- text: No answer\n"))
		assert.True(t, errors.Is(err, apperr.ErrValidation))
		assert.Contains(t, err.Error(), "question 1")
	})

	t.Run("empty bank", func(t *testing.T) {
		_, err := ParseYAML([]byte("questions: []\n"))
		assert.True(t, errors.Is(err, apperr.ErrValidation))
	})

	t.Run("not yaml", func(t *testing.T) {
		_, err := ParseYAML([]byte("{{{"))
		assert.True(t, errors.Is(err, apperr.ErrValidation))
	})
}

func buildWorkbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestParseXLSX(t *testing.T) {
	t.Run("header aliases and blank rows", func(t *testing.T) {
		data := buildWorkbook(t, [][]any{
			{"Question", "Answer", "Type", "A", "B", "C", "D"},
			{"Q1: Largest planet??", "Jupiter", "", "", "", "", ""},
			{},
			{"Pick red", "a", "multiple_choice", "red", "blue", "green", "gold"},
		})

		questions, err := ParseXLSX(data)
		require.NoError(t, err)
		require.Len(t, questions, 2)
		assert.Equal(t, "Q1: Largest planet??", questions[0].Text)
		assert.Equal(t, TypeDirect, questions[0].Type)
		assert.Equal(t, "A", questions[1].CorrectAnswer)
		assert.Equal(t, []string{"red", "blue", "green", "gold"}, questions[1].Options())
	})

	t.Run("missing answer column", func(t *testing.T) {
		data := buildWorkbook(t, [][]any{
			{"Question"},
			{"Who?"},
		})
		_, err := ParseXLSX(data)
		assert.True(t, errors.Is(err, apperr.ErrValidation))
	})

	t.Run("not a workbook", func(t *testing.T) {
		_, err := ParseXLSX([]byte("text,answer\n"))
		assert.True(t, errors.Is(err, apperr.ErrValidation))
	})
}
