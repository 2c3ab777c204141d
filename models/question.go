package models

import "strings"

// UnitType tags which question collection a unit renders.
type UnitType string

const (
	TypeTrueFalse    UnitType = "mcq-single-tf"
	TypeSingleChoice UnitType = "mcq-single"
	TypeMultiChoice  UnitType = "mcq-multi"
	TypeQA           UnitType = "qa-display"
)

// QA item types. Headers and notes are structural markers without an id.
const (
	QAItemQuestion = "qa"
	QAItemHeader   = "header"
	QAItemNote     = "note"
)

// DefaultTrueFalseOptions is used when an incoming true/false question has no options.
var DefaultTrueFalseOptions = []string{"True", "False"}

// Question is one entry of a question collection.
type Question interface {
	Kind() UnitType
	// DedupKey is compared for equality when detecting duplicates on merge.
	DedupKey() string
	// Title is the text shown for the entry in lists and logs.
	Title() string
}

type TrueFalseQuestion struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	AnswerIndex int      `json:"answerIndex"`
	Explanation string   `json:"explanation"`
	Page        string   `json:"page"`
}

func (q TrueFalseQuestion) Kind() UnitType   { return TypeTrueFalse }
func (q TrueFalseQuestion) DedupKey() string { return strings.TrimSpace(q.Question) }
func (q TrueFalseQuestion) Title() string    { return q.Question }

type ChoiceQuestion struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	AnswerIndex int      `json:"answerIndex"`
	Explanation string   `json:"explanation"`
	Page        string   `json:"page"`
}

func (q ChoiceQuestion) Kind() UnitType   { return TypeSingleChoice }
func (q ChoiceQuestion) DedupKey() string { return strings.TrimSpace(q.Question) }
func (q ChoiceQuestion) Title() string    { return q.Question }

type MultiChoiceQuestion struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Answers     []int    `json:"answers"`
	Explanation string   `json:"explanation"`
	Page        string   `json:"page"`
}

func (q MultiChoiceQuestion) Kind() UnitType   { return TypeMultiChoice }
func (q MultiChoiceQuestion) DedupKey() string { return strings.TrimSpace(q.Question) }
func (q MultiChoiceQuestion) Title() string    { return q.Question }

// IsCorrect reports whether option i is one of the correct answers.
func (q MultiChoiceQuestion) IsCorrect(i int) bool {
	for _, a := range q.Answers {
		if a == i {
			return true
		}
	}
	return false
}

// QAItem is either a marker (header or note carrying Text) or a free-response question.
type QAItem struct {
	Type        string `json:"type"`
	Text        string `json:"text,omitempty"`
	Question    string `json:"question,omitempty"`
	Answer      string `json:"answer,omitempty"`
	Section     string `json:"section,omitempty"`
	Explanation string `json:"explanation,omitempty"`
	Page        string `json:"page,omitempty"`
}

func (q QAItem) Kind() UnitType { return TypeQA }

// IsMarker reports whether the item is a header or note.
func (q QAItem) IsMarker() bool {
	return q.Type == QAItemHeader || q.Type == QAItemNote
}

// DedupKey only matches items of the same item type.
func (q QAItem) DedupKey() string {
	if q.IsMarker() {
		return q.Type + "\x00" + strings.TrimSpace(q.Text)
	}
	return q.Type + "\x00" + strings.TrimSpace(q.Question)
}

func (q QAItem) Title() string {
	if q.IsMarker() {
		return q.Text
	}
	return q.Question
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

func cloneInts(s []int) []int {
	if s == nil {
		return nil
	}
	return append([]int(nil), s...)
}
