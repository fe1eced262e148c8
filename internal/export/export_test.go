package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labelflow/internal/dataset"
	"labelflow/internal/mapping"
	"labelflow/internal/question"
)

func annotated(t *testing.T) *dataset.RecordSet {
	t.Helper()

	rs, err := dataset.IngestBytes([]byte(`[{"text":"great","lang":"en"},{"text":"bad","lang":"de"}]`))
	require.NoError(t, err)

	rs.At(0).Set("Sentiment", "pos")
	rs.At(0).Set("Topics", "A, C")
	rs.At(0).Set("Quality", 4)

	return rs
}

var testQuestions = []question.Question{
	{ID: "sentiment", Title: "Sentiment", Type: question.TypeLabel, Labels: []string{"pos", "neg"}, Description: "Tone"},
	{ID: "topics", Title: "Topics", Type: question.TypeMultiLabel, Labels: []string{"A", "B", "C"}},
	{ID: "quality", Title: "Quality", Type: question.TypeRating, Labels: []string{"ignored"}},
}

func TestProject(t *testing.T) {
	p, err := Project(annotated(t), []string{"text"}, testQuestions)
	require.NoError(t, err)

	assert.Equal(t, []FieldSpec{{Name: "text", Title: "text"}}, p.Fields)

	require.Len(t, p.Questions, 3)
	assert.Equal(t, []string{"pos", "neg"}, p.Questions[0].Labels)
	assert.Equal(t, "Tone", p.Questions[0].Description)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, p.Questions[2].Values)
	assert.Empty(t, p.Questions[2].Labels, "rating ignores labels")

	require.Len(t, p.Records, 2)

	first, err := json.Marshal(p.Records[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"fields":{"text":"great"},"annotations":{"Sentiment":"pos","Topics":"A, C","Quality":4}}`, string(first))

	second, err := json.Marshal(p.Records[1])
	require.NoError(t, err)
	assert.JSONEq(t, `{"fields":{"text":"bad"},"annotations":{"Sentiment":null,"Topics":null,"Quality":null}}`, string(second))
}

func TestProject_Deterministic(t *testing.T) {
	rs := annotated(t)
	selected := []string{"lang", "text"}

	encode := func() []byte {
		p, err := Project(rs, selected, testQuestions)
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, p.Encode(&buf))

		return buf.Bytes()
	}

	a, b := encode(), encode()
	assert.Equal(t, a, b)

	before := rs.Clone()
	encode()
	assert.Equal(t, before, rs, "projection does not mutate the record set")
}

func TestProject_Failures(t *testing.T) {
	empty, err := dataset.IngestBytes([]byte(`[]`))
	require.NoError(t, err)

	tests := []struct {
		name      string
		rs        *dataset.RecordSet
		selected  []string
		questions []question.Question
		wantErr   error
	}{
		{name: "no questions", rs: annotated(t), selected: []string{"text"}, wantErr: ErrIncompleteData},
		{name: "no records", rs: empty, selected: []string{"text"}, questions: testQuestions, wantErr: ErrIncompleteData},
		{name: "nil record set", selected: []string{"text"}, questions: testQuestions, wantErr: ErrIncompleteData},
		{name: "no selection", rs: annotated(t), questions: testQuestions, wantErr: mapping.ErrEmptySelection},
		{name: "answer field selected", rs: annotated(t), selected: []string{"Sentiment"}, questions: testQuestions, wantErr: mapping.ErrUnknownField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Project(tt.rs, tt.selected, tt.questions)
			assert.Nil(t, p)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestProject_RatingMissingIsNull(t *testing.T) {
	rs, err := dataset.IngestBytes([]byte(`[{"text":"a"},{"text":"b"}]`))
	require.NoError(t, err)

	qs := []question.Question{{Title: "Score", Type: question.TypeRating}}

	p, err := Project(rs, []string{"text"}, qs)
	require.NoError(t, err)

	for _, r := range p.Records {
		v, ok := r.Annotations.Get("Score")
		assert.True(t, ok)
		assert.Nil(t, v)
	}

	assert.Equal(t, "Score", p.Questions[0].Name, "name falls back to the title")
}

func TestCoerce(t *testing.T) {
	multi := testQuestions[1]
	rating := testQuestions[2]
	label := testQuestions[0]

	tests := []struct {
		name string
		q    question.Question
		in   any
		want any
	}{
		{name: "multi list", q: multi, in: []string{"A", "C"}, want: "A, C"},
		{name: "multi any list", q: multi, in: []any{"A", "B"}, want: "A, B"},
		{name: "multi joined string", q: multi, in: "A, C", want: "A, C"},
		{name: "multi empty string", q: multi, in: "", want: ""},
		{name: "multi odd list passes through", q: multi, in: []any{"A", 1}, want: []any{"A", 1}},
		{name: "rating int", q: rating, in: 3, want: 3},
		{name: "rating json number", q: rating, in: json.Number("5"), want: 5},
		{name: "rating float", q: rating, in: 2.0, want: 2},
		{name: "rating text passes through", q: rating, in: "great", want: "great"},
		{name: "label verbatim", q: label, in: "pos", want: "pos"},
		{name: "missing", q: label, in: nil, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Coerce(tt.q, tt.in))
		})
	}
}

func TestPayload_WriteFile(t *testing.T) {
	p, err := Project(annotated(t), []string{"text"}, testQuestions)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, p.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var back map[string]any
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Len(t, back["records"], 2)
}
