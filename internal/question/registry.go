package question

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gosimple/slug"
)

// ErrRegistryFrozen is returned when a question is added after annotation
// has begun.
var ErrRegistryFrozen = errors.New("question registry is frozen")

// Registry is the ordered list of questions asked for every record. It is
// append-only while the session is being configured and frozen once
// annotation starts.
type Registry struct {
	questions []Question
	frozen    bool
}

// NewRegistry returns an empty, unfrozen registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add validates q and appends it. Titles must be unique because each title
// names the answer field written into records. An empty ID is derived from
// the title.
func (r *Registry) Add(q Question) error {
	if r.frozen {
		return ErrRegistryFrozen
	}

	q = q.Clone()
	q.Title = strings.TrimSpace(q.Title)

	if err := Validate(q); err != nil {
		return err
	}

	if _, exists := r.Lookup(q.Title); exists {
		return &InvalidQuestionError{Title: q.Title, Reason: "a question with this title already exists"}
	}

	if q.ID == "" {
		q.ID = slug.Make(q.Title)
	}

	for _, have := range r.questions {
		if have.ID == q.ID {
			return &InvalidQuestionError{Title: q.Title, Reason: fmt.Sprintf("id %q is already used by %q", q.ID, have.Title)}
		}
	}

	r.questions = append(r.questions, q)

	return nil
}

// Lookup returns the question with the given title.
func (r *Registry) Lookup(title string) (Question, bool) {
	for _, q := range r.questions {
		if q.Title == title {
			return q.Clone(), true
		}
	}

	return Question{}, false
}

// Questions returns a copy of the questions in order.
func (r *Registry) Questions() []Question {
	out := make([]Question, len(r.questions))
	for i, q := range r.questions {
		out[i] = q.Clone()
	}

	return out
}

// Titles returns the question titles in order.
func (r *Registry) Titles() []string {
	titles := make([]string, len(r.questions))
	for i, q := range r.questions {
		titles[i] = q.Title
	}

	return titles
}

// Len returns the number of questions.
func (r *Registry) Len() int {
	return len(r.questions)
}

// Freeze stops further additions.
func (r *Registry) Freeze() {
	r.frozen = true
}

// Frozen reports whether the registry is frozen.
func (r *Registry) Frozen() bool {
	return r.frozen
}
