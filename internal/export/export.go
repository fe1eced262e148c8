// Package export projects an annotated record set and its questions into the
// field/question/record schema of an external annotation platform.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"labelflow/internal/common"
	"labelflow/internal/dataset"
	"labelflow/internal/mapping"
	"labelflow/internal/question"
)

// ErrIncompleteData is returned when there is nothing to export.
var ErrIncompleteData = errors.New("incomplete data")

// FieldSpec describes one exported field. The display name serves as both
// machine name and title.
type FieldSpec struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

// QuestionSpec describes one exported question. Label and multi-label
// questions carry Labels; rating questions carry the fixed Values domain.
type QuestionSpec struct {
	Name        string        `json:"name"`
	Title       string        `json:"title"`
	Type        question.Type `json:"type"`
	Description string        `json:"description,omitempty"`
	Labels      []string      `json:"labels,omitempty"`
	Values      []int         `json:"values,omitempty"`
}

// Record is one exported record: the selected field values and the
// annotations keyed by question title, both in a fixed order.
type Record struct {
	Fields      *dataset.Record `json:"fields"`
	Annotations *dataset.Record `json:"annotations"`
}

// Payload is the artifact handed to an uploader.
type Payload struct {
	Fields    []FieldSpec    `json:"fields"`
	Questions []QuestionSpec `json:"questions"`
	Records   []Record       `json:"records"`
}

// Project builds the export payload. It reads its inputs without modifying
// them and returns equal payloads for equal inputs.
//
// Project fails with ErrIncompleteData when there are no records or no
// questions, with mapping.ErrEmptySelection when no field is selected and
// with mapping.ErrUnknownField when a selected name is not a column.
// Records lacking an answer export a null annotation.
func Project(rs *dataset.RecordSet, selected []string, questions []question.Question) (*Payload, error) {
	if rs.Len() == 0 {
		return nil, fmt.Errorf("%w: no records", ErrIncompleteData)
	}

	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: no questions", ErrIncompleteData)
	}

	if len(selected) == 0 {
		return nil, mapping.ErrEmptySelection
	}

	for _, name := range selected {
		if !rs.HasColumn(name) {
			return nil, mapping.NewUnknownFieldError(name, rs.ColumnNames())
		}
	}

	p := &Payload{
		Fields:    make([]FieldSpec, len(selected)),
		Questions: make([]QuestionSpec, len(questions)),
		Records:   make([]Record, 0, rs.Len()),
	}

	for i, name := range selected {
		p.Fields[i] = FieldSpec{Name: name, Title: name}
	}

	for i, q := range questions {
		p.Questions[i] = specFor(q)
	}

	for _, rec := range rs.Records() {
		out := Record{Fields: dataset.NewRecord(), Annotations: dataset.NewRecord()}

		for _, name := range selected {
			v, _ := rec.Get(name)
			out.Fields.Set(name, v)
		}

		for _, q := range questions {
			v, _ := rec.Get(q.Title)
			out.Annotations.Set(q.Title, Coerce(q, v))
		}

		p.Records = append(p.Records, out)
	}

	return p, nil
}

func specFor(q question.Question) QuestionSpec {
	spec := QuestionSpec{
		Name:        q.ID,
		Title:       q.Title,
		Type:        q.Type,
		Description: q.Description,
	}

	if spec.Name == "" {
		spec.Name = q.Title
	}

	if q.Type == question.TypeRating {
		spec.Values = append([]int(nil), question.RatingScale...)
	} else {
		spec.Labels = append([]string(nil), q.Labels...)
	}

	return spec
}

// Coerce reads a stored answer back as the value its question type expects.
// Multi-label lists are joined with question.LabelSeparator; integral
// ratings become int. Anything else, including values edited outside the
// session, passes through verbatim. A missing answer is nil.
func Coerce(q question.Question, v any) any {
	if v == nil {
		return nil
	}

	switch q.Type {
	case question.TypeMultiLabel:
		switch list := v.(type) {
		case []string:
			return strings.Join(list, question.LabelSeparator)
		case []any:
			parts := make([]string, 0, len(list))
			for _, item := range list {
				s, ok := item.(string)
				if !ok {
					return v
				}

				parts = append(parts, s)
			}

			return strings.Join(parts, question.LabelSeparator)
		}
	case question.TypeRating:
		if n, ok := question.ToInt(v); ok {
			return n
		}
	case question.TypeLabel:
	}

	return v
}

// Encode writes the payload as indented JSON.
func (p *Payload) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	return enc.Encode(p)
}

// WriteFile writes the encoded payload to path atomically.
func (p *Payload) WriteFile(path string) error {
	if err := common.WriteFileAtomic(path, 0o644, p.Encode); err != nil {
		return fmt.Errorf("write export %s: %w", path, err)
	}

	return nil
}
