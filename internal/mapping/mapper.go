package mapping

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"labelflow/internal/match"
)

var (
	// ErrInvalidRename is matched by every InvalidRenameError.
	ErrInvalidRename = errors.New("invalid rename")
	// ErrUnknownField is matched by every UnknownFieldError.
	ErrUnknownField = errors.New("unknown field")
)

// suggestionLimit caps "did you mean" hints.
const suggestionLimit = 3

// InvalidRenameError reports a rejected rename.
type InvalidRenameError struct {
	Original string
	Name     string
	Reason   string
}

func (e *InvalidRenameError) Error() string {
	return fmt.Sprintf("cannot rename %q to %q: %s", e.Original, e.Name, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidRename) match.
func (e *InvalidRenameError) Is(target error) bool {
	return target == ErrInvalidRename
}

// UnknownFieldError reports a field name with no backing field.
type UnknownFieldError struct {
	Name        string
	Suggestions []string
}

func (e *UnknownFieldError) Error() string {
	msg := fmt.Sprintf("unknown field %q", e.Name)
	if len(e.Suggestions) > 0 {
		msg += fmt.Sprintf(" (did you mean %q?)", e.Suggestions[0])
	}

	return msg
}

// Is makes errors.Is(err, ErrUnknownField) match.
func (e *UnknownFieldError) Is(target error) bool {
	return target == ErrUnknownField
}

// NewUnknownFieldError builds an UnknownFieldError with suggestions drawn
// from known.
func NewUnknownFieldError(name string, known []string) *UnknownFieldError {
	return &UnknownFieldError{Name: name, Suggestions: match.Suggest(name, known, suggestionLimit)}
}

// FieldMapping translates the original flat field names of a record set into
// display names. Fields without an entry display under their original name.
type FieldMapping struct {
	originals []string
	names     map[string]string
}

// NewFieldMapping returns an identity mapping over the given originals.
func NewFieldMapping(originals []string) *FieldMapping {
	return &FieldMapping{
		originals: slices.Clone(originals),
		names:     make(map[string]string),
	}
}

// Rename sets the display name of original. The name is trimmed; it must not
// be empty and must not equal the current display name of any other field.
// Renaming a field back to its original name removes the entry. On failure
// the mapping is unchanged.
func (m *FieldMapping) Rename(original, name string) error {
	if !slices.Contains(m.originals, original) {
		return NewUnknownFieldError(original, m.originals)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return &InvalidRenameError{Original: original, Name: name, Reason: "name must not be empty"}
	}

	for _, other := range m.originals {
		if other != original && m.Display(other) == name {
			return &InvalidRenameError{
				Original: original,
				Name:     name,
				Reason:   fmt.Sprintf("field %q is already displayed as %q", other, name),
			}
		}
	}

	if name == original {
		delete(m.names, original)
	} else {
		m.names[original] = name
	}

	return nil
}

// RenameAll installs every entry of renames at once on top of the current
// mapping. Entries may chain or swap names; only the resulting display names
// must be unique. Names are trimmed and must not be empty. On failure the
// mapping is unchanged and the first problem, in original-name order, is
// returned.
func (m *FieldMapping) RenameAll(renames map[string]string) error {
	next, errs := m.planRenames(renames)
	if len(errs) > 0 {
		return errs[0]
	}

	m.names = next

	return nil
}

// planRenames computes the entries that result from applying renames
// together, with every problem found.
func (m *FieldMapping) planRenames(renames map[string]string) (map[string]string, []error) {
	next := maps.Clone(m.names)
	if next == nil {
		next = make(map[string]string)
	}

	var errs []error

	for _, o := range slices.Sorted(maps.Keys(renames)) {
		if !slices.Contains(m.originals, o) {
			errs = append(errs, NewUnknownFieldError(o, m.originals))
			continue
		}

		name := strings.TrimSpace(renames[o])
		if name == "" {
			errs = append(errs, &InvalidRenameError{Original: o, Name: renames[o], Reason: "name must not be empty"})
			continue
		}

		if name == o {
			delete(next, o)
		} else {
			next[o] = name
		}
	}

	owner := make(map[string]string, len(m.originals))

	for _, o := range m.originals {
		d := o
		if n, ok := next[o]; ok {
			d = n
		}

		first, taken := owner[d]
		if !taken {
			owner[d] = o
			continue
		}

		culprit := o
		if _, renamed := renames[o]; !renamed {
			culprit = first
		}

		errs = append(errs, &InvalidRenameError{
			Original: culprit,
			Name:     d,
			Reason:   fmt.Sprintf("fields %q and %q would both be displayed as %q", first, o, d),
		})
	}

	return next, errs
}

// Display returns the display name of original.
func (m *FieldMapping) Display(original string) string {
	if n, ok := m.names[original]; ok {
		return n
	}

	return original
}

// Original returns the original field currently displayed as name.
func (m *FieldMapping) Original(name string) (string, bool) {
	for _, o := range m.originals {
		if m.Display(o) == name {
			return o, true
		}
	}

	return "", false
}

// Originals returns the original field names in column order.
func (m *FieldMapping) Originals() []string {
	return slices.Clone(m.originals)
}

// DisplayNames returns the display names in column order.
func (m *FieldMapping) DisplayNames() []string {
	names := make([]string, len(m.originals))
	for i, o := range m.originals {
		names[i] = m.Display(o)
	}

	return names
}

// Entries returns the non-identity entries as a new map.
func (m *FieldMapping) Entries() map[string]string {
	return maps.Clone(m.names)
}

// Clone returns an independent copy.
func (m *FieldMapping) Clone() *FieldMapping {
	return &FieldMapping{
		originals: slices.Clone(m.originals),
		names:     maps.Clone(m.names),
	}
}
