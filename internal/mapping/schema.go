package mapping

import (
	"slices"
	"strings"

	"labelflow/internal/question"
)

// CurrentVersion is the mapping file version written by this package.
const CurrentVersion = "1"

// MappingFile represents the root of a YAML mapping file.
type MappingFile struct {
	// Version is the schema version (currently "1").
	Version string `yaml:"version"`
	// Dataset names the dataset on the annotation platform.
	Dataset string `yaml:"dataset,omitempty"`
	// Guidelines are shown to annotators and uploaded with the dataset.
	Guidelines string `yaml:"guidelines,omitempty"`
	// Rename maps original flat field names to display names.
	Rename map[string]string `yaml:"rename,omitempty"`
	// Select lists the display names shown and exported.
	Select StringOrArray `yaml:"select,omitempty"`
	// Questions asked for every record, in order.
	Questions []QuestionDef `yaml:"questions,omitempty"`
}

// QuestionDef is the YAML form of a question.
type QuestionDef struct {
	ID          string        `yaml:"id,omitempty"`
	Title       string        `yaml:"title"`
	Type        string        `yaml:"type"`
	Description string        `yaml:"description,omitempty"`
	Labels      StringOrArray `yaml:"labels,omitempty"`
}

// Question converts the definition into a validated question.
func (d QuestionDef) Question() (question.Question, error) {
	typ, err := question.ParseType(d.Type)
	if err != nil {
		return question.Question{}, &question.InvalidQuestionError{Title: d.Title, Reason: err.Error()}
	}

	q := question.Question{
		ID:          strings.TrimSpace(d.ID),
		Title:       strings.TrimSpace(d.Title),
		Type:        typ,
		Description: d.Description,
		Labels:      slices.Clone([]string(d.Labels)),
	}

	if err := question.Validate(q); err != nil {
		return question.Question{}, err
	}

	return q, nil
}

// DefFromQuestion converts a question into its YAML form.
func DefFromQuestion(q question.Question) QuestionDef {
	return QuestionDef{
		ID:          q.ID,
		Title:       q.Title,
		Type:        string(q.Type),
		Description: q.Description,
		Labels:      StringOrArray(slices.Clone(q.Labels)),
	}
}

// RenamePair is one original -> display name entry.
type RenamePair struct {
	Original string
	Name     string
}

// Renames returns the rename entries sorted by original name.
func (mf *MappingFile) Renames() []RenamePair {
	originals := make([]string, 0, len(mf.Rename))
	for o := range mf.Rename {
		originals = append(originals, o)
	}

	slices.Sort(originals)

	pairs := make([]RenamePair, len(originals))
	for i, o := range originals {
		pairs[i] = RenamePair{Original: o, Name: mf.Rename[o]}
	}

	return pairs
}

// QuestionList converts every question definition, stopping at the first
// invalid one.
func (mf *MappingFile) QuestionList() ([]question.Question, error) {
	qs := make([]question.Question, 0, len(mf.Questions))

	for _, d := range mf.Questions {
		q, err := d.Question()
		if err != nil {
			return nil, err
		}

		qs = append(qs, q)
	}

	return qs, nil
}
