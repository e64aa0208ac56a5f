package quiz

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"biblekwiz-backend/models"
)

var requiredColumns = []string{"question", "option_a", "option_b", "option_c", "option_d", "correct_option"}

// ParseQuestionsCSV reads admin-supplied question rows from CSV. Every
// row is validated before anything is returned so a bad paste never
// results in a partial import.
func ParseQuestionsCSV(reader io.Reader) ([]models.Question, error) {
	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("csv must include a header row and at least one data row")
	}

	headers := make(map[string]int, len(records[0]))
	for idx, col := range records[0] {
		headers[normalizeHeader(col)] = idx
	}
	for _, col := range requiredColumns {
		if _, ok := headers[col]; !ok {
			return nil, fmt.Errorf("missing required column %q", col)
		}
	}

	questions := make([]models.Question, 0, len(records)-1)
	for i, record := range records[1:] {
		lineNo := i + 2

		q, err := buildQuestion(func(col string) string {
			return readValue(record, headers[col])
		})
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		questions = append(questions, q)
	}

	return questions, nil
}

func buildQuestion(get func(col string) string) (models.Question, error) {
	q := models.Question{
		Question: strings.TrimSpace(get("question")),
		OptionA:  strings.TrimSpace(get("option_a")),
		OptionB:  strings.TrimSpace(get("option_b")),
		OptionC:  strings.TrimSpace(get("option_c")),
		OptionD:  strings.TrimSpace(get("option_d")),
	}
	if q.Question == "" {
		return q, fmt.Errorf("question text is required")
	}
	if q.OptionA == "" || q.OptionB == "" || q.OptionC == "" || q.OptionD == "" {
		return q, fmt.Errorf("all four options are required")
	}

	correct, err := normalizeCorrectOption(get("correct_option"))
	if err != nil {
		return q, err
	}
	q.CorrectOption = correct
	return q, nil
}

func normalizeCorrectOption(raw string) (string, error) {
	value := strings.ToUpper(strings.TrimSpace(raw))
	value = strings.TrimPrefix(value, "OPTION")
	value = strings.TrimSpace(value)
	switch value {
	case "A", "B", "C", "D":
		return value, nil
	default:
		return "", fmt.Errorf("correct_option must be one of A-D, got %q", raw)
	}
}

func normalizeHeader(col string) string {
	h := strings.ToLower(strings.TrimSpace(col))
	return strings.ReplaceAll(h, " ", "_")
}

func readValue(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return record[idx]
}
