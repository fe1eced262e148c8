package mapping

import (
	"errors"
	"slices"
	"strings"

	"labelflow/internal/common"
	"labelflow/internal/dataset"
)

// ErrEmptySelection is returned when no field is selected.
var ErrEmptySelection = errors.New("no fields selected")

// ApplyRenames rewrites the keys of every record so each column carries its
// display name under m. Fields without an entry keep their original name.
// Applying the same mapping twice yields the same record set.
func ApplyRenames(rs *dataset.RecordSet, m *FieldMapping) {
	rs.RenameColumns(m.Display)
}

// Selection is the ordered set of display names chosen for presentation and
// export.
type Selection struct {
	names []string
}

// Select builds a selection from display names. Blank names are dropped and
// duplicates collapse, keeping the first position.
func Select(names []string) (Selection, error) {
	kept := make([]string, 0, len(names))

	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			kept = append(kept, n)
		}
	}

	if len(kept) == 0 {
		return Selection{}, ErrEmptySelection
	}

	return Selection{names: common.Unique(kept)}, nil
}

// Names returns the selected display names in order.
func (s Selection) Names() []string {
	return slices.Clone(s.names)
}

// Len returns the number of selected names.
func (s Selection) Len() int {
	return len(s.names)
}

// IsEmpty reports whether nothing is selected.
func (s Selection) IsEmpty() bool {
	return len(s.names) == 0
}

// Contains reports whether name is selected.
func (s Selection) Contains(name string) bool {
	return slices.Contains(s.names, name)
}

// Renamed returns the selection with from replaced by to.
func (s Selection) Renamed(from, to string) Selection {
	out := Selection{names: slices.Clone(s.names)}
	for i, n := range out.names {
		if n == from {
			out.names[i] = to
		}
	}

	out.names = common.Unique(out.names)

	return out
}

// Translate follows a change of mapping: each selected name that is a
// display name under from is replaced by the display name of the same
// original under to. Other names are kept.
func (s Selection) Translate(from, to *FieldMapping) Selection {
	out := Selection{names: make([]string, len(s.names))}

	for i, n := range s.names {
		out.names[i] = n
		if o, ok := from.Original(n); ok {
			out.names[i] = to.Display(o)
		}
	}

	out.names = common.Unique(out.names)

	return out
}

// Resolve checks that every selected name is one of the available field
// names, returning an UnknownFieldError for the first one that is not.
func (s Selection) Resolve(available []string) error {
	if s.IsEmpty() {
		return ErrEmptySelection
	}

	for _, n := range s.names {
		if !slices.Contains(available, n) {
			return NewUnknownFieldError(n, available)
		}
	}

	return nil
}

// FromColumns rebuilds the mapping recorded in the column names of a record
// set, for instance after restoring a snapshot.
func FromColumns(columns []dataset.Column) *FieldMapping {
	m := &FieldMapping{
		originals: make([]string, len(columns)),
		names:     make(map[string]string),
	}

	for i, c := range columns {
		m.originals[i] = c.Original
		if c.Name != c.Original {
			m.names[c.Original] = c.Name
		}
	}

	return m
}
