package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

var ErrIndexOutOfRange = errors.New("question index out of range")

// Kind binds a unit type to its collection: decoding, duplicate detection,
// positional mutation and export projection all go through this table.
type Kind interface {
	Type() UnitType
	// Collection names the collection in persisted paths.
	Collection() string
	// Decode reads one incoming question leniently, applying defaults.
	Decode(raw json.RawMessage) (Question, error)
	Len(c *Collections) int
	Items(c *Collections) []Question
	Contains(c *Collections, q Question) bool
	Append(c *Collections, q Question) error
	// InsertAt clamps i into [0, Len] and shifts later entries.
	InsertAt(c *Collections, i int, q Question) error
	RemoveAt(c *Collections, i int) (Question, error)
	SetAt(c *Collections, i int, q Question) error
	// Project renders the collection in export form with positional ids.
	Project(c *Collections) []any
}

type kind[T Question] struct {
	typ        UnitType
	collection string
	field      func(c *Collections) *[]T
	decode     func(r rawQuestion) T
	project    func(items []T) []any
}

func (k kind[T]) Type() UnitType     { return k.typ }
func (k kind[T]) Collection() string { return k.collection }

func (k kind[T]) Decode(raw json.RawMessage) (Question, error) {
	var r rawQuestion
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("decode %s question: %w", k.typ, err)
	}
	return k.decode(r), nil
}

func (k kind[T]) Len(c *Collections) int { return len(*k.field(c)) }

func (k kind[T]) Items(c *Collections) []Question {
	items := *k.field(c)
	out := make([]Question, len(items))
	for i, q := range items {
		out[i] = q
	}
	return out
}

func (k kind[T]) Contains(c *Collections, q Question) bool {
	key := q.DedupKey()
	for _, existing := range *k.field(c) {
		if existing.DedupKey() == key {
			return true
		}
	}
	return false
}

func (k kind[T]) cast(q Question) (T, error) {
	v, ok := q.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%T does not belong to collection %s", q, k.typ)
	}
	return v, nil
}

func (k kind[T]) Append(c *Collections, q Question) error {
	v, err := k.cast(q)
	if err != nil {
		return err
	}
	p := k.field(c)
	*p = append(*p, v)
	return nil
}

func (k kind[T]) InsertAt(c *Collections, i int, q Question) error {
	v, err := k.cast(q)
	if err != nil {
		return err
	}
	p := k.field(c)
	if i < 0 {
		i = 0
	}
	if i > len(*p) {
		i = len(*p)
	}
	items := append(*p, v)
	copy(items[i+1:], items[i:])
	items[i] = v
	*p = items
	return nil
}

func (k kind[T]) RemoveAt(c *Collections, i int) (Question, error) {
	p := k.field(c)
	if i < 0 || i >= len(*p) {
		return nil, ErrIndexOutOfRange
	}
	removed := (*p)[i]
	*p = append((*p)[:i], (*p)[i+1:]...)
	return removed, nil
}

func (k kind[T]) SetAt(c *Collections, i int, q Question) error {
	v, err := k.cast(q)
	if err != nil {
		return err
	}
	p := k.field(c)
	if i < 0 || i >= len(*p) {
		return ErrIndexOutOfRange
	}
	(*p)[i] = v
	return nil
}

func (k kind[T]) Project(c *Collections) []any {
	return k.project(*k.field(c))
}

// Exported shapes. Ids are 1-based positions rendered as strings.

type TrueFalseExport struct {
	ID          string   `json:"id"`
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	AnswerIndex int      `json:"answerIndex"`
	Explanation string   `json:"explanation"`
	Page        string   `json:"page"`
}

type ChoiceExport struct {
	ID          string   `json:"id"`
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	AnswerIndex int      `json:"answerIndex"`
	Explanation string   `json:"explanation"`
	Page        string   `json:"page"`
}

type MultiChoiceExport struct {
	ID          string   `json:"id"`
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Answers     []int    `json:"answers"`
	Explanation string   `json:"explanation"`
	Page        string   `json:"page"`
}

type QAMarkerExport struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type QAExport struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Question    string `json:"question"`
	Answer      string `json:"answer"`
	Section     string `json:"section"`
	Explanation string `json:"explanation"`
	Page        string `json:"page"`
}

func positionalID(i int) string { return strconv.Itoa(i + 1) }

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return cloneStrings(s)
}

func nonNilInts(s []int) []int {
	if s == nil {
		return []int{}
	}
	return cloneInts(s)
}

var kinds = map[UnitType]Kind{
	TypeTrueFalse: kind[TrueFalseQuestion]{
		typ:        TypeTrueFalse,
		collection: "trueFalse",
		field:      func(c *Collections) *[]TrueFalseQuestion { return &c.TrueFalse },
		decode: func(r rawQuestion) TrueFalseQuestion {
			opts := r.options()
			if opts == nil {
				opts = cloneStrings(DefaultTrueFalseOptions)
			}
			answer := r.AnswerIndex.Value
			if answer != 0 && answer != 1 {
				answer = 0
			}
			return TrueFalseQuestion{
				Question:    string(r.Question),
				Options:     opts,
				AnswerIndex: answer,
				Explanation: string(r.Explanation),
				Page:        string(r.Page),
			}
		},
		project: func(items []TrueFalseQuestion) []any {
			out := make([]any, len(items))
			for i, q := range items {
				opts := q.Options
				if opts == nil {
					opts = DefaultTrueFalseOptions
				}
				out[i] = TrueFalseExport{
					ID:          positionalID(i),
					Question:    q.Question,
					Options:     cloneStrings(opts),
					AnswerIndex: q.AnswerIndex,
					Explanation: q.Explanation,
					Page:        q.Page,
				}
			}
			return out
		},
	},
	TypeSingleChoice: kind[ChoiceQuestion]{
		typ:        TypeSingleChoice,
		collection: "mcq",
		field:      func(c *Collections) *[]ChoiceQuestion { return &c.SingleChoice },
		decode: func(r rawQuestion) ChoiceQuestion {
			opts := r.options()
			if opts == nil {
				opts = []string{}
			}
			return ChoiceQuestion{
				Question:    string(r.Question),
				Options:     opts,
				AnswerIndex: r.AnswerIndex.Value,
				Explanation: string(r.Explanation),
				Page:        string(r.Page),
			}
		},
		project: func(items []ChoiceQuestion) []any {
			out := make([]any, len(items))
			for i, q := range items {
				out[i] = ChoiceExport{
					ID:          positionalID(i),
					Question:    q.Question,
					Options:     nonNilStrings(q.Options),
					AnswerIndex: q.AnswerIndex,
					Explanation: q.Explanation,
					Page:        q.Page,
				}
			}
			return out
		},
	},
	TypeMultiChoice: kind[MultiChoiceQuestion]{
		typ:        TypeMultiChoice,
		collection: "multiSelect",
		field:      func(c *Collections) *[]MultiChoiceQuestion { return &c.MultiChoice },
		decode: func(r rawQuestion) MultiChoiceQuestion {
			opts := r.options()
			if opts == nil {
				opts = []string{}
			}
			return MultiChoiceQuestion{
				Question:    string(r.Question),
				Options:     opts,
				Answers:     r.answers(),
				Explanation: string(r.Explanation),
				Page:        string(r.Page),
			}
		},
		project: func(items []MultiChoiceQuestion) []any {
			out := make([]any, len(items))
			for i, q := range items {
				out[i] = MultiChoiceExport{
					ID:          positionalID(i),
					Question:    q.Question,
					Options:     nonNilStrings(q.Options),
					Answers:     nonNilInts(q.Answers),
					Explanation: q.Explanation,
					Page:        q.Page,
				}
			}
			return out
		},
	},
	TypeQA: kind[QAItem]{
		typ:        TypeQA,
		collection: "qa",
		field:      func(c *Collections) *[]QAItem { return &c.QA },
		decode: func(r rawQuestion) QAItem {
			t := string(r.Type)
			if t == QAItemHeader || t == QAItemNote {
				text := string(r.Text)
				if text == "" {
					text = string(r.Question)
				}
				return QAItem{Type: t, Text: text}
			}
			if t == "" {
				t = QAItemQuestion
			}
			return QAItem{
				Type:        t,
				Question:    string(r.Question),
				Answer:      string(r.Answer),
				Section:     string(r.Section),
				Explanation: string(r.Explanation),
				Page:        string(r.Page),
			}
		},
		project: func(items []QAItem) []any {
			out := make([]any, 0, len(items))
			n := 0
			for _, q := range items {
				if q.IsMarker() {
					out = append(out, QAMarkerExport{Type: q.Type, Text: q.Text})
					continue
				}
				n++
				// the first two free-response ids keep the legacy "qa_" prefix
				id := strconv.Itoa(n)
				if n <= 2 {
					id = "qa_" + id
				}
				t := q.Type
				if t == "" {
					t = QAItemQuestion
				}
				out = append(out, QAExport{
					ID:          id,
					Type:        t,
					Question:    q.Question,
					Answer:      q.Answer,
					Section:     q.Section,
					Explanation: q.Explanation,
					Page:        q.Page,
				})
			}
			return out
		},
	},
}

// LookupKind returns the collection binding for a unit type.
func LookupKind(t UnitType) (Kind, bool) {
	k, ok := kinds[t]
	return k, ok
}

// Kinds lists the four bindings in a fixed order.
func Kinds() []Kind {
	return []Kind{kinds[TypeTrueFalse], kinds[TypeSingleChoice], kinds[TypeMultiChoice], kinds[TypeQA]}
}
