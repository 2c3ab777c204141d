package models

// Collections holds the four ordered question collections. Position inside a
// collection is meaningful: exported ids and deleted-content keys derive from it.
type Collections struct {
	TrueFalse    []TrueFalseQuestion   `json:"trueFalse"`
	SingleChoice []ChoiceQuestion      `json:"mcq"`
	MultiChoice  []MultiChoiceQuestion `json:"multiSelect"`
	QA           []QAItem              `json:"qa"`
}

// Clone returns a deep copy.
func (c Collections) Clone() Collections {
	out := Collections{
		TrueFalse:    make([]TrueFalseQuestion, len(c.TrueFalse)),
		SingleChoice: make([]ChoiceQuestion, len(c.SingleChoice)),
		MultiChoice:  make([]MultiChoiceQuestion, len(c.MultiChoice)),
		QA:           append([]QAItem(nil), c.QA...),
	}
	for i, q := range c.TrueFalse {
		q.Options = cloneStrings(q.Options)
		out.TrueFalse[i] = q
	}
	for i, q := range c.SingleChoice {
		q.Options = cloneStrings(q.Options)
		out.SingleChoice[i] = q
	}
	for i, q := range c.MultiChoice {
		q.Options = cloneStrings(q.Options)
		q.Answers = cloneInts(q.Answers)
		out.MultiChoice[i] = q
	}
	if out.QA == nil {
		out.QA = []QAItem{}
	}
	return out
}

// Total counts every entry across the four collections, QA markers included.
func (c Collections) Total() int {
	return len(c.TrueFalse) + len(c.SingleChoice) + len(c.MultiChoice) + len(c.QA)
}

// Items returns the collection a unit type renders, or nil for an unknown type.
func (c *Collections) Items(t UnitType) []Question {
	k, ok := LookupKind(t)
	if !ok {
		return nil
	}
	return k.Items(c)
}
