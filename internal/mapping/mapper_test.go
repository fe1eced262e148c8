package mapping

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labelflow/internal/dataset"
)

func TestFieldMapping_Rename(t *testing.T) {
	tests := []struct {
		name      string
		setup     map[string]string
		original  string
		newName   string
		wantErr   error
		wantNames []string
	}{
		{
			name:      "simple rename",
			original:  "x",
			newName:   "X",
			wantNames: []string{"X", "y", "z"},
		},
		{
			name:      "name is trimmed",
			original:  "x",
			newName:   "  X ",
			wantNames: []string{"X", "y", "z"},
		},
		{
			name:      "overwrite existing entry",
			setup:     map[string]string{"x": "first"},
			original:  "x",
			newName:   "second",
			wantNames: []string{"second", "y", "z"},
		},
		{
			name:      "back to original removes entry",
			setup:     map[string]string{"x": "X"},
			original:  "x",
			newName:   "x",
			wantNames: []string{"x", "y", "z"},
		},
		{
			name:      "same name again is a no-op",
			setup:     map[string]string{"x": "X"},
			original:  "x",
			newName:   "X",
			wantNames: []string{"X", "y", "z"},
		},
		{
			name:      "empty name",
			original:  "x",
			newName:   "   ",
			wantErr:   ErrInvalidRename,
			wantNames: []string{"x", "y", "z"},
		},
		{
			name:      "collides with other original",
			original:  "x",
			newName:   "y",
			wantErr:   ErrInvalidRename,
			wantNames: []string{"x", "y", "z"},
		},
		{
			name:      "collides with other display name",
			setup:     map[string]string{"y": "Label"},
			original:  "x",
			newName:   "Label",
			wantErr:   ErrInvalidRename,
			wantNames: []string{"x", "Label", "z"},
		},
		{
			name:      "name freed by earlier rename",
			setup:     map[string]string{"y": "Y"},
			original:  "x",
			newName:   "y",
			wantNames: []string{"y", "Y", "z"},
		},
		{
			name:      "unknown original",
			original:  "w",
			newName:   "W",
			wantErr:   ErrUnknownField,
			wantNames: []string{"x", "y", "z"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewFieldMapping([]string{"x", "y", "z"})
			for o, n := range tt.setup {
				require.NoError(t, m.Rename(o, n))
			}

			err := m.Rename(tt.original, tt.newName)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}

			assert.Equal(t, tt.wantNames, m.DisplayNames())
		})
	}
}

func TestFieldMapping_UnknownFieldSuggests(t *testing.T) {
	m := NewFieldMapping([]string{"review_text", "rating", "meta_lang"})

	err := m.Rename("review_txt", "Review")
	require.Error(t, err)

	var ufe *UnknownFieldError
	require.ErrorAs(t, err, &ufe)
	assert.Equal(t, "review_txt", ufe.Name)
	assert.Equal(t, []string{"review_text"}, ufe.Suggestions)
	assert.Contains(t, err.Error(), `did you mean "review_text"`)
}

func TestFieldMapping_OriginalAndEntries(t *testing.T) {
	m := NewFieldMapping([]string{"a", "b"})
	require.NoError(t, m.Rename("a", "Alpha"))

	o, ok := m.Original("Alpha")
	require.True(t, ok)
	assert.Equal(t, "a", o)

	_, ok = m.Original("a")
	assert.False(t, ok, "a is no longer displayed under its original name")

	assert.Equal(t, map[string]string{"a": "Alpha"}, m.Entries())

	c := m.Clone()
	require.NoError(t, c.Rename("b", "Beta"))
	assert.Equal(t, "b", m.Display("b"))
}

func TestApplyRenames(t *testing.T) {
	rs, err := dataset.IngestBytes([]byte(`[{"x":1,"y":"a"},{"x":2,"y":"b"}]`))
	require.NoError(t, err)

	require.Equal(t, 2, rs.Len())
	assert.Equal(t, []string{"x", "y"}, rs.ColumnNames())

	sel, err := Select([]string{"x", "y"})
	require.NoError(t, err)

	m := NewFieldMapping(rs.Originals())
	require.NoError(t, m.Rename("x", "X"))
	sel = sel.Renamed("x", "X")

	ApplyRenames(rs, m)
	once := rs.Clone()
	ApplyRenames(rs, m)
	assert.Equal(t, once, rs, "applying the same mapping twice changes nothing")

	data, err := json.Marshal(rs.At(0))
	require.NoError(t, err)
	assert.JSONEq(t, `{"X":1,"y":"a"}`, string(data))

	assert.NoError(t, sel.Resolve(rs.ColumnNames()))
	assert.Equal(t, []string{"X", "y"}, sel.Names())
}

func TestApplyRenames_Swap(t *testing.T) {
	rs, err := dataset.IngestBytes([]byte(`[{"a":1,"b":2}]`))
	require.NoError(t, err)

	m := NewFieldMapping(rs.Originals())
	require.NoError(t, m.Rename("a", "tmp"))
	require.NoError(t, m.Rename("b", "a"))
	require.NoError(t, m.Rename("a", "b"))

	ApplyRenames(rs, m)

	b, _ := rs.At(0).Get("b")
	a, _ := rs.At(0).Get("a")
	assert.Equal(t, json.Number("1"), b)
	assert.Equal(t, json.Number("2"), a)
}

func TestSelect(t *testing.T) {
	_, err := Select(nil)
	assert.ErrorIs(t, err, ErrEmptySelection)

	_, err = Select([]string{" ", ""})
	assert.ErrorIs(t, err, ErrEmptySelection)

	sel, err := Select([]string{"b", "a", "b", " c "})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, sel.Names())
	assert.True(t, sel.Contains("a"))
	assert.Equal(t, 3, sel.Len())

	err = sel.Resolve([]string{"a", "b", "cc"})
	require.ErrorIs(t, err, ErrUnknownField)

	var ufe *UnknownFieldError
	require.ErrorAs(t, err, &ufe)
	assert.Equal(t, "c", ufe.Name)

	assert.ErrorIs(t, Selection{}.Resolve([]string{"a"}), ErrEmptySelection)
}

func TestSelection_RenamedCollapses(t *testing.T) {
	sel, err := Select([]string{"a", "b"})
	require.NoError(t, err)

	assert.Equal(t, []string{"b"}, sel.Renamed("a", "b").Names())
	assert.Equal(t, []string{"a", "b"}, sel.Names(), "original selection untouched")
}

func TestFieldMapping_RenameAll(t *testing.T) {
	tests := []struct {
		name      string
		setup     map[string]string
		renames   map[string]string
		wantErr   error
		wantNames []string
	}{
		{
			name:      "chain",
			renames:   map[string]string{"x": "y", "y": "z", "z": "w"},
			wantNames: []string{"y", "z", "w"},
		},
		{
			name:      "swap",
			renames:   map[string]string{"x": "y", "y": "x"},
			wantNames: []string{"y", "x", "z"},
		},
		{
			name:      "on top of existing entries",
			setup:     map[string]string{"z": "Z"},
			renames:   map[string]string{"x": "z"},
			wantNames: []string{"z", "y", "Z"},
		},
		{
			name:      "final names collide",
			renames:   map[string]string{"x": "y"},
			wantErr:   ErrInvalidRename,
			wantNames: []string{"x", "y", "z"},
		},
		{
			name:      "two entries to one name",
			renames:   map[string]string{"x": "A", "y": "A"},
			wantErr:   ErrInvalidRename,
			wantNames: []string{"x", "y", "z"},
		},
		{
			name:      "blank name",
			renames:   map[string]string{"x": " ", "y": "x"},
			wantErr:   ErrInvalidRename,
			wantNames: []string{"x", "y", "z"},
		},
		{
			name:      "unknown original",
			renames:   map[string]string{"q": "Q"},
			wantErr:   ErrUnknownField,
			wantNames: []string{"x", "y", "z"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewFieldMapping([]string{"x", "y", "z"})
			for o, n := range tt.setup {
				require.NoError(t, m.Rename(o, n))
			}

			before := m.DisplayNames()
			if tt.wantErr == nil {
				before = tt.wantNames
			}

			err := m.RenameAll(tt.renames)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			assert.Equal(t, before, m.DisplayNames())
		})
	}
}

func TestSelection_Translate(t *testing.T) {
	from := NewFieldMapping([]string{"x", "y", "z"})
	to := from.Clone()
	require.NoError(t, to.RenameAll(map[string]string{"x": "y", "y": "x"}))

	sel, err := Select([]string{"y", "z", "x"})
	require.NoError(t, err)

	assert.Equal(t, []string{"x", "z", "y"}, sel.Translate(from, to).Names())
}
