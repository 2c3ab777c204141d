package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, typ UnitType, body string) Question {
	t.Helper()
	k, ok := LookupKind(typ)
	require.True(t, ok)
	q, err := k.Decode(json.RawMessage(body))
	require.NoError(t, err)
	return q
}

func TestDecodeTrueFalseDefaults(t *testing.T) {
	q := decode(t, TypeTrueFalse, `{"question":"Sky is blue?"}`).(TrueFalseQuestion)
	assert.Equal(t, []string{"True", "False"}, q.Options)
	assert.Equal(t, 0, q.AnswerIndex)

	q = decode(t, TypeTrueFalse, `{"question":"x","answerIndex":"1"}`).(TrueFalseQuestion)
	assert.Equal(t, 1, q.AnswerIndex)

	q = decode(t, TypeTrueFalse, `{"question":"x","answerIndex":7}`).(TrueFalseQuestion)
	assert.Equal(t, 0, q.AnswerIndex, "out of range answers fall back to the first option")
}

func TestDecodeChoiceIsLenient(t *testing.T) {
	q := decode(t, TypeSingleChoice, `{"question":12,"options":[1,"b",null],"answerIndex":"2","page":3}`).(ChoiceQuestion)
	assert.Equal(t, "12", q.Question)
	assert.Equal(t, []string{"1", "b", ""}, q.Options)
	assert.Equal(t, 2, q.AnswerIndex)
	assert.Equal(t, "3", q.Page)

	q = decode(t, TypeSingleChoice, `{"question":"q","options":"nope"}`).(ChoiceQuestion)
	assert.Equal(t, []string{}, q.Options)
}

func TestDecodeMultiChoiceAnswers(t *testing.T) {
	q := decode(t, TypeMultiChoice, `{"question":"q","options":["a","b","c"],"answers":["0",2,"x",1.9]}`).(MultiChoiceQuestion)
	assert.Equal(t, []int{0, 2, 1}, q.Answers)
	assert.True(t, q.IsCorrect(2))
	assert.False(t, q.IsCorrect(3))

	q = decode(t, TypeMultiChoice, `{"question":"q"}`).(MultiChoiceQuestion)
	assert.Equal(t, []int{}, q.Answers)
}

func TestDecodeQAMarkers(t *testing.T) {
	h := decode(t, TypeQA, `{"type":"header","question":"Chapter 1"}`).(QAItem)
	assert.True(t, h.IsMarker())
	assert.Equal(t, "Chapter 1", h.Text)

	q := decode(t, TypeQA, `{"question":"Why?","answer":"Because"}`).(QAItem)
	assert.Equal(t, QAItemQuestion, q.Type)
	assert.False(t, q.IsMarker())
}

func TestDedupKeyTrimsAndSeparatesQATypes(t *testing.T) {
	a := ChoiceQuestion{Question: "  What? "}
	b := ChoiceQuestion{Question: "What?"}
	assert.Equal(t, a.DedupKey(), b.DedupKey())

	header := QAItem{Type: QAItemHeader, Text: "Intro"}
	note := QAItem{Type: QAItemNote, Text: "Intro"}
	assert.NotEqual(t, header.DedupKey(), note.DedupKey())
}

func TestInsertAtClampsAndShifts(t *testing.T) {
	k, _ := LookupKind(TypeSingleChoice)
	var c Collections
	for _, s := range []string{"a", "b", "c"} {
		require.NoError(t, k.Append(&c, ChoiceQuestion{Question: s}))
	}

	require.NoError(t, k.InsertAt(&c, 1, ChoiceQuestion{Question: "x"}))
	require.NoError(t, k.InsertAt(&c, 99, ChoiceQuestion{Question: "end"}))
	require.NoError(t, k.InsertAt(&c, -3, ChoiceQuestion{Question: "start"}))

	var got []string
	for _, q := range c.SingleChoice {
		got = append(got, q.Question)
	}
	assert.Equal(t, []string{"start", "a", "x", "b", "c", "end"}, got)
}

func TestKindRejectsForeignQuestion(t *testing.T) {
	k, _ := LookupKind(TypeTrueFalse)
	var c Collections
	assert.Error(t, k.Append(&c, ChoiceQuestion{Question: "q"}))
	assert.Empty(t, c.TrueFalse)
}

func TestRemoveAtOutOfRange(t *testing.T) {
	k, _ := LookupKind(TypeQA)
	var c Collections
	_, err := k.RemoveAt(&c, 0)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestProjectQAIds(t *testing.T) {
	k, _ := LookupKind(TypeQA)
	c := Collections{QA: []QAItem{
		{Type: QAItemHeader, Text: "Part A"},
		{Type: QAItemQuestion, Question: "one"},
		{Type: QAItemQuestion, Question: "two"},
		{Type: QAItemNote, Text: "remember"},
		{Type: QAItemQuestion, Question: "three"},
	}}

	out := k.Project(&c)
	require.Len(t, out, 5)
	assert.Equal(t, QAMarkerExport{Type: QAItemHeader, Text: "Part A"}, out[0])
	assert.Equal(t, "qa_1", out[1].(QAExport).ID)
	assert.Equal(t, "qa_2", out[2].(QAExport).ID)
	assert.Equal(t, "3", out[4].(QAExport).ID)
}

func TestProjectChoiceIdsArePositional(t *testing.T) {
	k, _ := LookupKind(TypeSingleChoice)
	c := Collections{SingleChoice: []ChoiceQuestion{{Question: "a"}, {Question: "b"}}}

	out := k.Project(&c)
	require.Len(t, out, 2)
	assert.Equal(t, "1", out[0].(ChoiceExport).ID)
	assert.Equal(t, "2", out[1].(ChoiceExport).ID)
	assert.Equal(t, []string{}, out[1].(ChoiceExport).Options)
}

func TestCloneIsDeep(t *testing.T) {
	c := Collections{MultiChoice: []MultiChoiceQuestion{{Question: "q", Options: []string{"a"}, Answers: []int{0}}}}
	clone := c.Clone()
	clone.MultiChoice[0].Options[0] = "changed"
	clone.MultiChoice[0].Answers[0] = 5

	assert.Equal(t, "a", c.MultiChoice[0].Options[0])
	assert.Equal(t, 0, c.MultiChoice[0].Answers[0])
	assert.NotNil(t, clone.QA)
}

func TestRolePermissions(t *testing.T) {
	assert.True(t, RoleSuperAdmin.Can(PermDeleteActivityLog))
	assert.True(t, RoleAdmin.Can(PermDelete))
	assert.False(t, RoleAdmin.Can(PermBackup))
	assert.False(t, RoleEditor.Can(PermDelete))
	assert.False(t, RoleStudent.Can(PermAccessAdmin))
	assert.False(t, Role("ghost").Can(PermEdit))

	var nobody *Actor
	assert.False(t, nobody.Can(PermEdit))
}
