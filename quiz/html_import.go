package quiz

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"biblekwiz-backend/models"
)

// ParseQuestionsHTML extracts question rows from an HTML table, the
// shape produced by exporting a spreadsheet to HTML. The first row is
// the header; column names match the CSV importer's.
func ParseQuestionsHTML(reader io.Reader) ([]models.Question, error) {
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	rows := doc.Find("table").First().Find("tr")
	if rows.Length() < 2 {
		return nil, fmt.Errorf("html must include a table with a header row and at least one data row")
	}

	headers := make(map[string]int)
	rows.First().Find("th, td").Each(func(idx int, cell *goquery.Selection) {
		headers[normalizeHeader(cell.Text())] = idx
	})
	for _, col := range requiredColumns {
		if _, ok := headers[col]; !ok {
			return nil, fmt.Errorf("missing required column %q", col)
		}
	}

	questions := make([]models.Question, 0, rows.Length()-1)
	var rowErr error
	rows.Slice(1, rows.Length()).EachWithBreak(func(i int, row *goquery.Selection) bool {
		cells := row.Find("td").Map(func(_ int, cell *goquery.Selection) string {
			return cell.Text()
		})
		if len(cells) == 0 {
			// Spreadsheet exports often carry an empty trailing row.
			return true
		}

		q, err := buildQuestion(func(col string) string {
			return readValue(cells, headers[col])
		})
		if err != nil {
			rowErr = fmt.Errorf("table row %d: %w", i+2, err)
			return false
		}
		questions = append(questions, q)
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("no question rows found in table")
	}

	return questions, nil
}

// looksLikeHTML decides which importer a pasted payload belongs to.
func looksLikeHTML(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	return strings.HasPrefix(trimmed, "<") && strings.Contains(strings.ToLower(trimmed), "<table")
}

// ParseQuestions dispatches a raw admin paste to the HTML or CSV
// importer.
func ParseQuestions(raw string) ([]models.Question, error) {
	if looksLikeHTML(raw) {
		return ParseQuestionsHTML(strings.NewReader(raw))
	}
	return ParseQuestionsCSV(strings.NewReader(raw))
}
