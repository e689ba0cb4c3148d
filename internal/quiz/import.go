package quiz

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/AdamBeresnev/quiz-bracket/internal/apperr"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

type questionFile struct {
	Questions []Question `yaml:"questions"`
}

// ParseYAML reads a question bank. The document is either a list of
// questions or a mapping with a "questions" list.
func ParseYAML(data []byte) ([]Question, error) {
	var questions []Question
	if err := yaml.Unmarshal(data, &questions); err != nil {
		var file questionFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, apperr.Validation("failed to parse question YAML: %v", err)
		}
		questions = file.Questions
	}
	return validateAll(questions)
}

// Header names accepted in the first row of a question sheet.
var xlsxColumns = map[string][]string{
	"text":           {"text", "question"},
	"correct_answer": {"correct_answer", "answer", "correct answer"},
	"type":           {"type"},
	"option_a":       {"option_a", "a", "option a"},
	"option_b":       {"option_b", "b", "option b"},
	"option_c":       {"option_c", "c", "option c"},
	"option_d":       {"option_d", "d", "option d"},
	"image_data":     {"image_data", "image", "image url"},
}

// ParseXLSX reads questions from the first sheet of a workbook. The first
// row names the columns; "text" and "answer" are required.
func ParseXLSX(data []byte) ([]Question, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, apperr.Validation("failed to open XLSX file: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperr.Validation("XLSX file has no sheets")
	}
	sheetName := sheets[0]
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheetName, err)
	}
	if len(rows) < 2 {
		return nil, apperr.Validation("sheet %q has no question rows", sheetName)
	}

	cols := headerIndex(rows[0])
	if _, ok := cols["text"]; !ok {
		return nil, apperr.Validation("sheet %q has no question text column", sheetName)
	}
	if _, ok := cols["correct_answer"]; !ok {
		return nil, apperr.Validation("sheet %q has no answer column", sheetName)
	}

	var questions []Question
	for _, row := range rows[1:] {
		cell := func(field string) string {
			i, ok := cols[field]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i]
		}
		if strings.TrimSpace(strings.Join(row, "")) == "" {
			continue
		}
		questions = append(questions, Question{
			Text:          cell("text"),
			CorrectAnswer: cell("correct_answer"),
			Type:          QuestionType(cell("type")),
			OptionA:       cell("option_a"),
			OptionB:       cell("option_b"),
			OptionC:       cell("option_c"),
			OptionD:       cell("option_d"),
			ImageData:     cell("image_data"),
		})
	}
	return validateAll(questions)
}

func headerIndex(header []string) map[string]int {
	idx := make(map[string]int)
	for i, raw := range header {
		name := strings.ToLower(strings.TrimSpace(raw))
		for field, aliases := range xlsxColumns {
			for _, alias := range aliases {
				if name == alias {
					if _, seen := idx[field]; !seen {
						idx[field] = i
					}
				}
			}
		}
	}
	return idx
}

func validateAll(questions []Question) ([]Question, error) {
	if len(questions) == 0 {
		return nil, apperr.Validation("no questions found")
	}
	for i := range questions {
		if err := questions[i].Validate(); err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
	}
	return questions, nil
}
