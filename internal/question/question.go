// Package question holds the annotation questions asked for every record and
// turns raw user input into typed answers.
package question

import (
	"errors"
	"fmt"
	"strings"

	"labelflow/internal/match"
)

// Type is the kind of answer a question expects.
type Type string

const (
	// TypeLabel picks exactly one label.
	TypeLabel Type = "label"
	// TypeMultiLabel picks any subset of the labels.
	TypeMultiLabel Type = "multi_label"
	// TypeRating picks an integer on the fixed RatingScale.
	TypeRating Type = "rating"
)

// RatingScale is the fixed answer domain of rating questions.
var RatingScale = []int{1, 2, 3, 4, 5}

var (
	// ErrInvalidQuestion is matched by every InvalidQuestionError.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrInvalidAnswer is matched by every InvalidAnswerError.
	ErrInvalidAnswer = errors.New("invalid answer")
)

// ParseType accepts the canonical names as well as the spellings people
// write by hand ("Label", "Multi-label", "multiLabel", "RATING").
func ParseType(s string) (Type, error) {
	switch match.NormalizeName(s) {
	case "label", "single", "singlelabel":
		return TypeLabel, nil
	case "multilabel", "multi":
		return TypeMultiLabel, nil
	case "rating":
		return TypeRating, nil
	}

	return "", fmt.Errorf("%w: unknown question type %q", ErrInvalidQuestion, s)
}

// IsValid reports whether t is one of the known types.
func (t Type) IsValid() bool {
	return t == TypeLabel || t == TypeMultiLabel || t == TypeRating
}

// Question is a single annotation prompt. Its Title doubles as the name of
// the answer field written into each record.
type Question struct {
	ID          string   `json:"id"                    yaml:"id,omitempty"`
	Title       string   `json:"title"                 yaml:"title"`
	Type        Type     `json:"type"                  yaml:"type"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Labels      []string `json:"labels,omitempty"      yaml:"labels,omitempty"`
}

// InvalidQuestionError reports a question rejected by Validate or a Registry.
type InvalidQuestionError struct {
	Title  string
	Reason string
}

func (e *InvalidQuestionError) Error() string {
	if e.Title == "" {
		return "invalid question: " + e.Reason
	}

	return fmt.Sprintf("invalid question %q: %s", e.Title, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidQuestion) match.
func (e *InvalidQuestionError) Is(target error) bool {
	return target == ErrInvalidQuestion
}

// Validate checks that the question's labels fit its type: label and
// multi-label questions need at least one label, rating questions take none.
func Validate(q Question) error {
	invalid := func(format string, args ...any) error {
		return &InvalidQuestionError{Title: q.Title, Reason: fmt.Sprintf(format, args...)}
	}

	if strings.TrimSpace(q.Title) == "" {
		return invalid("title is required")
	}

	switch q.Type {
	case TypeLabel, TypeMultiLabel:
		if len(q.Labels) == 0 {
			return invalid("%s question needs at least one label", q.Type)
		}
	case TypeRating:
		if len(q.Labels) > 0 {
			return invalid("rating question uses the fixed 1-5 scale and takes no labels")
		}
	default:
		return invalid("unknown type %q", q.Type)
	}

	seen := make(map[string]struct{}, len(q.Labels))

	for _, l := range q.Labels {
		if strings.TrimSpace(l) == "" {
			return invalid("labels must not be blank")
		}

		if _, dup := seen[l]; dup {
			return invalid("duplicate label %q", l)
		}

		seen[l] = struct{}{}
	}

	return nil
}

// HasLabel reports whether l is one of the question's labels.
func (q Question) HasLabel(l string) bool {
	for _, have := range q.Labels {
		if have == l {
			return true
		}
	}

	return false
}

// Clone returns a copy that does not share the label slice.
func (q Question) Clone() Question {
	q.Labels = append([]string(nil), q.Labels...)
	return q
}
