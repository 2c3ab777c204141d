package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// flexString accepts a JSON string, number or bool. null and anything else decode to "".
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] == '{' || data[0] == '[' || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(data)
	return nil
}

// flexInt accepts a JSON number or a numeric string. Valid is false when the
// value could not be read as an integer.
type flexInt struct {
	Value int
	Valid bool
}

func (f *flexInt) UnmarshalJSON(data []byte) error {
	*f = flexInt{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	s := string(data)
	if data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
	}
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		*f = flexInt{Value: n, Valid: true}
		return nil
	}
	// parseInt semantics: "2.7" reads as 2
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		*f = flexInt{Value: int(v), Valid: true}
	}
	return nil
}

// flexList decodes a JSON array element by element. Anything that is not an
// array leaves the list nil.
type flexList[T any] []T

func (f *flexList[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		*f = nil
		return nil
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		*f = nil
		return nil
	}
	*f = items
	return nil
}

// rawQuestion is the permissive shape every incoming question is first read into.
type rawQuestion struct {
	Type        flexString           `json:"type"`
	Text        flexString           `json:"text"`
	Question    flexString           `json:"question"`
	Answer      flexString           `json:"answer"`
	Section     flexString           `json:"section"`
	Explanation flexString           `json:"explanation"`
	Page        flexString           `json:"page"`
	Options     flexList[flexString] `json:"options"`
	AnswerIndex flexInt              `json:"answerIndex"`
	Answers     flexList[flexInt]    `json:"answers"`
}

func (r rawQuestion) options() []string {
	if r.Options == nil {
		return nil
	}
	out := make([]string, len(r.Options))
	for i, o := range r.Options {
		out[i] = string(o)
	}
	return out
}

func (r rawQuestion) answers() []int {
	out := []int{}
	for _, a := range r.Answers {
		if a.Valid {
			out = append(out, a.Value)
		}
	}
	return out
}
