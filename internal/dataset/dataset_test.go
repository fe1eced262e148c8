package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngest_FlatArray(t *testing.T) {
	rs, err := IngestBytes([]byte(`[{"x":1,"y":"a"},{"x":2,"y":"b"}]`))
	require.NoError(t, err)

	require.Equal(t, 2, rs.Len())
	assert.Equal(t, []string{"x", "y"}, rs.ColumnNames())

	v, ok := rs.At(0).Get("x")
	require.True(t, ok)
	assert.Equal(t, json.Number("1"), v)

	v, _ = rs.At(1).Get("y")
	assert.Equal(t, "b", v)
}

func TestIngest_NestedObjectsAreJoined(t *testing.T) {
	rs, err := IngestBytes([]byte(`[{"id":1,"meta":{"lang":"en","source":{"kind":"web"}},"tags":["a","b"]}]`))
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "meta_lang", "meta_source_kind", "tags"}, rs.ColumnNames())

	rec := rs.At(0)
	lang, _ := rec.Get("meta_lang")
	assert.Equal(t, "en", lang)

	tags, _ := rec.Get("tags")
	assert.Equal(t, `["a","b"]`, tags, "arrays stay as compact JSON text")
}

func TestIngest_MissingFieldsAreNull(t *testing.T) {
	rs, err := IngestBytes([]byte(`[{"a":1},{"b":true},{"a":3,"c":null}]`))
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, rs.ColumnNames())

	for i := range rs.Len() {
		rec := rs.At(i)
		assert.Equal(t, []string{"a", "b", "c"}, rec.Keys(), "record %d:\n%s", i, spew.Sdump(rec))
	}

	v, ok := rs.At(1).Get("a")
	assert.True(t, ok)
	assert.Nil(t, v)

	b, _ := rs.At(1).Get("b")
	assert.Equal(t, true, b)
}

func TestIngest_SingleObject(t *testing.T) {
	rs, err := IngestBytes([]byte(`{"text":"hello","score":0.5}`))
	require.NoError(t, err)

	require.Equal(t, 1, rs.Len())
	assert.Equal(t, []string{"text", "score"}, rs.ColumnNames())
}

func TestIngest_EmptyArray(t *testing.T) {
	rs, err := IngestBytes([]byte(`[]`))
	require.NoError(t, err)
	assert.Equal(t, 0, rs.Len())
	assert.Empty(t, rs.ColumnNames())
}

func TestIngest_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		index int
	}{
		{name: "malformed", input: `[{"x":1}`, index: -1},
		{name: "empty input", input: ``, index: -1},
		{name: "scalar document", input: `42`, index: -1},
		{name: "string document", input: `"text"`, index: -1},
		{name: "array of scalars", input: `[{"x":1}, 3]`, index: 1},
		{name: "nested array element", input: `[[{"x":1}]]`, index: 0},
		{name: "flattened key collision", input: `[{"x":1},{"a_b":1,"a":{"b":2}}]`, index: 1},
		{name: "nested key collision", input: `{"a":{"b":{"c":1},"b_c":2}}`, index: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := IngestBytes([]byte(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrIngest)

			var ie *IngestError
			require.ErrorAs(t, err, &ie)
			assert.Equal(t, tt.index, ie.Index)
		})
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk gone") }

func TestIngest_ReadFailureIsNotIngestError(t *testing.T) {
	_, err := Ingest(failingReader{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrIngest)
	assert.Contains(t, err.Error(), "disk gone")
}

func TestRenameColumns_Idempotent(t *testing.T) {
	rs, err := IngestBytes([]byte(`[{"x":1,"y":"a"},{"x":2,"y":"b"}]`))
	require.NoError(t, err)

	display := func(original string) string {
		if original == "x" {
			return "X"
		}

		return original
	}

	rs.RenameColumns(display)
	first := rs.Clone()

	rs.RenameColumns(display)

	assert.Equal(t, first, rs)
	assert.Equal(t, []string{"X", "y"}, rs.ColumnNames())
	assert.Equal(t, []string{"x", "y"}, rs.Originals())

	v, _ := rs.At(0).Get("X")
	assert.Equal(t, json.Number("1"), v)
	assert.False(t, rs.At(0).Has("x"))
}

func TestRenameColumns_Chained(t *testing.T) {
	rs, err := IngestBytes([]byte(`[{"a":1,"b":2}]`))
	require.NoError(t, err)

	names := map[string]string{"a": "b", "b": "c"}
	display := func(o string) string {
		if n, ok := names[o]; ok {
			return n
		}

		return o
	}

	rs.RenameColumns(display)
	rs.RenameColumns(display)

	rec := rs.At(0)
	assert.Equal(t, []string{"b", "c"}, rec.Keys())

	a, _ := rec.Get("b")
	b, _ := rec.Get("c")
	assert.Equal(t, json.Number("1"), a)
	assert.Equal(t, json.Number("2"), b)
}

func TestRenameColumns_KeepsAnswerFields(t *testing.T) {
	rs, err := IngestBytes([]byte(`[{"text":"t"}]`))
	require.NoError(t, err)

	rs.At(0).Set("Sentiment", "pos")
	rs.RenameColumns(func(string) string { return "body" })

	assert.Equal(t, []string{"body", "Sentiment"}, rs.At(0).Keys())
	assert.Equal(t, []string{"body", "Sentiment"}, rs.Fields())
}

func TestRecord_JSONRoundTripKeepsOrder(t *testing.T) {
	rec := NewRecord()
	rec.Set("z", "last-name-first")
	rec.Set("a", json.Number("3"))
	rec.Set("m", []string{"A", "C"})
	rec.Set("n", nil)

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Equal(t, `{"z":"last-name-first","a":3,"m":["A","C"],"n":null}`, string(data))

	var back Record
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, rec.Keys(), back.Keys())
	assert.Equal(t, rec.Map(), back.Map())
}

func TestRestore_FillsMissingColumns(t *testing.T) {
	partial := NewRecord()
	partial.Set("Q", "yes")

	rs, err := Restore([]Column{{Original: "x", Name: "X"}}, []*Record{partial})
	require.NoError(t, err)

	assert.Equal(t, []string{"X", "Q"}, rs.At(0).Keys())

	_, err = Restore([]Column{{Original: "a", Name: "n"}, {Original: "b", Name: "n"}}, nil)
	assert.Error(t, err)
}

func TestWriteCSV(t *testing.T) {
	rs, err := IngestBytes([]byte(`[{"id":1,"text":"hello, world"},{"id":2.5,"text":null}]`))
	require.NoError(t, err)

	rs.At(0).Set("Topics", "A, C")
	rs.At(0).Set("Score", 4)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rs))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id,text,Topics,Score", lines[0])
	assert.Equal(t, `1,"hello, world","A, C",4`, lines[1])
	assert.Equal(t, "2.5,,,", lines[2])
}

func TestWriteCSVFile(t *testing.T) {
	rs, err := IngestBytes([]byte(`[{"a":"x"}]`))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "labeled.csv")
	require.NoError(t, WriteCSVFile(path, rs))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\nx\n", string(data))
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"s", "s"},
		{json.Number("10"), "10"},
		{3, "3"},
		{int64(7), "7"},
		{1.5, "1.5"},
		{float64(2), "2"},
		{true, "true"},
		{[]string{"A", "B"}, "A, B"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatValue(tt.in))
	}
}
