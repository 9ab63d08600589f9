package catalog

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Workbook sheet names and layout. Row 1 of each sheet is a header.
//
//	Flashcards: chapter_id | card_id | front | back
//	Questions:  chapter_id | question_id | question | options | answer
//
// Options are separated by OptionSeparator; answer is the 1-based number of
// the correct option, which is how authors count in a spreadsheet.
const (
	SheetFlashcards = "Flashcards"
	SheetQuestions  = "Questions"
	OptionSeparator = "|"
)

// ImportResult summarizes a workbook import.
type ImportResult struct {
	Rows       int
	Flashcards int
	Questions  int
	Chapters   []int // chapters whose content was replaced
	Errors     []string
}

// ImportWorkbook reads chapter content from an xlsx workbook and returns a new
// catalog where every chapter mentioned in the workbook has its flashcards and
// questions replaced. Chapters, creatures and projects not mentioned are kept
// from base. Row-level problems are collected in the result; the import fails
// only if the file cannot be read or the merged catalog does not validate.
func ImportWorkbook(path string, base *Catalog) (*Catalog, *ImportResult, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	result := &ImportResult{}
	cards := make(map[int][]FlashCard)
	questions := make(map[int][]Question)

	sheets := f.GetSheetList()
	if !slices.Contains(sheets, SheetFlashcards) && !slices.Contains(sheets, SheetQuestions) {
		return nil, nil, fmt.Errorf("workbook has neither a %q nor a %q sheet", SheetFlashcards, SheetQuestions)
	}

	if slices.Contains(sheets, SheetFlashcards) {
		rows, err := f.GetRows(SheetFlashcards)
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", SheetFlashcards, err)
		}
		for i, row := range rows {
			if i == 0 || isBlankRow(row) {
				continue
			}
			result.Rows++
			chID, card, err := parseCardRow(row)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("%s row %d: %v", SheetFlashcards, i+1, err))
				continue
			}
			cards[chID] = append(cards[chID], card)
			result.Flashcards++
		}
	}

	if slices.Contains(sheets, SheetQuestions) {
		rows, err := f.GetRows(SheetQuestions)
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", SheetQuestions, err)
		}
		for i, row := range rows {
			if i == 0 || isBlankRow(row) {
				continue
			}
			result.Rows++
			chID, q, err := parseQuestionRow(row)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("%s row %d: %v", SheetQuestions, i+1, err))
				continue
			}
			questions[chID] = append(questions[chID], q)
			result.Questions++
		}
	}

	chapters := make([]Chapter, len(base.chapters))
	copy(chapters, base.chapters)
	for i := range chapters {
		id := chapters[i].ID
		fc, hasCards := cards[id]
		qs, hasQuestions := questions[id]
		if !hasCards && !hasQuestions {
			continue
		}
		if hasCards {
			chapters[i].Flashcards = fc
		}
		if hasQuestions {
			chapters[i].Questions = qs
		}
		result.Chapters = append(result.Chapters, id)
		delete(cards, id)
		delete(questions, id)
	}
	for id := range cards {
		result.Errors = append(result.Errors, fmt.Sprintf("%s: unknown chapter %d", SheetFlashcards, id))
	}
	for id := range questions {
		result.Errors = append(result.Errors, fmt.Sprintf("%s: unknown chapter %d", SheetQuestions, id))
	}

	merged, err := New(chapters, base.creatures, base.projects)
	if err != nil {
		return nil, result, err
	}
	return merged, result, nil
}

func parseCardRow(row []string) (int, FlashCard, error) {
	if len(row) < 4 {
		return 0, FlashCard{}, fmt.Errorf("want 4 columns, got %d", len(row))
	}
	chID, err := cellInt(row[0], "chapter_id")
	if err != nil {
		return 0, FlashCard{}, err
	}
	id, err := cellInt(row[1], "card_id")
	if err != nil {
		return 0, FlashCard{}, err
	}
	front, back := strings.TrimSpace(row[2]), strings.TrimSpace(row[3])
	if front == "" || back == "" {
		return 0, FlashCard{}, fmt.Errorf("front and back must not be empty")
	}
	return chID, FlashCard{ID: id, Front: front, Back: back}, nil
}

func parseQuestionRow(row []string) (int, Question, error) {
	if len(row) < 5 {
		return 0, Question{}, fmt.Errorf("want 5 columns, got %d", len(row))
	}
	chID, err := cellInt(row[0], "chapter_id")
	if err != nil {
		return 0, Question{}, err
	}
	id, err := cellInt(row[1], "question_id")
	if err != nil {
		return 0, Question{}, err
	}
	prompt := strings.TrimSpace(row[2])
	if prompt == "" {
		return 0, Question{}, fmt.Errorf("question must not be empty")
	}
	var options []string
	for _, opt := range strings.Split(row[3], OptionSeparator) {
		if opt = strings.TrimSpace(opt); opt != "" {
			options = append(options, opt)
		}
	}
	answer, err := cellInt(row[4], "answer")
	if err != nil {
		return 0, Question{}, err
	}
	if answer < 1 || answer > len(options) {
		return 0, Question{}, fmt.Errorf("answer %d out of range 1..%d", answer, len(options))
	}
	return chID, Question{ID: id, Prompt: prompt, Options: options, Answer: answer - 1}, nil
}

func cellInt(s, column string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", column, s)
	}
	return n, nil
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
