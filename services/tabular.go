package services

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"quizadmin/models"

	"github.com/xuri/excelize/v2"
)

const (
	correctMarker = " ✅"
	minOptionCols = 4
	defaultSheet  = "Sheet1"
)

// Sheet is one worksheet of the human-readable export: a header row followed
// by data rows.
type Sheet struct {
	Name string
	Rows [][]string
}

// Sheets projects the four collections into review sheets. Correct options
// carry a marker instead of a separate column, so the result cannot be
// imported back.
func (s *ExchangeService) Sheets() []Sheet {
	c := s.content.Snapshot()
	return []Sheet{
		{Name: "True-False", Rows: trueFalseRows(c.TrueFalse)},
		{Name: "Single Choice", Rows: choiceRows(c.SingleChoice)},
		{Name: "Multiple Choice", Rows: multiChoiceRows(c.MultiChoice)},
		{Name: "Essay Questions", Rows: qaRows(c.QA)},
	}
}

func trueFalseRows(items []models.TrueFalseQuestion) [][]string {
	rows := [][]string{{"ID", "Question", "Answer", "Page", "Explanation"}}
	for i, q := range items {
		answer := "True"
		if q.AnswerIndex != 0 {
			answer = "False"
		}
		rows = append(rows, []string{strconv.Itoa(i + 1), q.Question, answer, q.Page, q.Explanation})
	}
	return rows
}

func optionHeader(n int) []string {
	header := []string{"ID", "Question"}
	for i := 0; i < n; i++ {
		header = append(header, fmt.Sprintf("Option %d", i+1))
	}
	return header
}

func optionCells(options []string, n int, correct func(i int) bool) []string {
	cells := make([]string, n)
	for i := 0; i < n && i < len(options); i++ {
		cells[i] = options[i]
		if correct(i) {
			cells[i] += correctMarker
		}
	}
	return cells
}

func choiceRows(items []models.ChoiceQuestion) [][]string {
	n := minOptionCols
	for _, q := range items {
		n = max(n, len(q.Options))
	}
	rows := [][]string{append(optionHeader(n), "Page", "Explanation")}
	for i, q := range items {
		row := []string{strconv.Itoa(i + 1), q.Question}
		row = append(row, optionCells(q.Options, n, func(j int) bool { return j == q.AnswerIndex })...)
		rows = append(rows, append(row, q.Page, q.Explanation))
	}
	return rows
}

func multiChoiceRows(items []models.MultiChoiceQuestion) [][]string {
	n := minOptionCols
	for _, q := range items {
		n = max(n, len(q.Options))
	}
	rows := [][]string{append(optionHeader(n), "Correct Answers", "Page", "Explanation")}
	for i, q := range items {
		row := []string{strconv.Itoa(i + 1), q.Question}
		row = append(row, optionCells(q.Options, n, q.IsCorrect)...)
		answers := make([]string, len(q.Answers))
		for j, a := range q.Answers {
			answers[j] = strconv.Itoa(a + 1)
		}
		rows = append(rows, append(row, strings.Join(answers, ", "), q.Page, q.Explanation))
	}
	return rows
}

func qaRows(items []models.QAItem) [][]string {
	rows := [][]string{{"Type", "Text", "Answer", "Section", "Page", "Explanation"}}
	for _, q := range items {
		switch q.Type {
		case models.QAItemHeader:
			rows = append(rows, []string{"Header", q.Text, "", "", "", ""})
		case models.QAItemNote:
			rows = append(rows, []string{"Note", q.Text, "", "", "", ""})
		default:
			rows = append(rows, []string{"Essay question", q.Question, q.Answer, q.Section, q.Page, q.Explanation})
		}
	}
	return rows
}

// WriteWorkbook renders Sheets as an xlsx workbook. Each column is as wide
// as its longest cell plus two.
func (s *ExchangeService) WriteWorkbook(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range s.Sheets() {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, sheet.Name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return err
		}
		if err := writeSheet(f, sheet); err != nil {
			return fmt.Errorf("sheet %s: %w", sheet.Name, err)
		}
	}
	f.SetActiveSheet(0)
	return f.Write(w)
}

func writeSheet(f *excelize.File, sheet Sheet) error {
	var widths []int
	for r, row := range sheet.Rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for c, v := range row {
			values[c] = v
			if c >= len(widths) {
				widths = append(widths, 0)
			}
			widths[c] = max(widths[c], utf8.RuneCountInString(v))
		}
		if err := f.SetSheetRow(sheet.Name, cell, &values); err != nil {
			return err
		}
	}
	for c, width := range widths {
		col, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet.Name, col, col, float64(width+2)); err != nil {
			return err
		}
	}
	return nil
}
