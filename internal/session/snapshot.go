package session

import (
	"fmt"

	"labelflow/internal/dataset"
	"labelflow/internal/mapping"
	"labelflow/internal/question"
)

// Snapshot is the complete state of a session in a form that survives JSON
// encoding.
type Snapshot struct {
	ID         string              `json:"id"`
	Name       string              `json:"name,omitempty"`
	Guidelines string              `json:"guidelines,omitempty"`
	Columns    []dataset.Column    `json:"columns"`
	Records    []*dataset.Record   `json:"records"`
	Selection  []string            `json:"selection,omitempty"`
	Questions  []question.Question `json:"questions,omitempty"`
	Cursor     Cursor              `json:"cursor"`
	Annotating bool                `json:"annotating"`
}

// Snapshot captures the session. The snapshot shares nothing with the
// session.
func (s *Session) Snapshot() Snapshot {
	records := s.records.Records()
	for i, rec := range records {
		records[i] = rec.Clone()
	}

	return Snapshot{
		ID:         s.id,
		Name:       s.name,
		Guidelines: s.guidelines,
		Columns:    s.records.Columns(),
		Records:    records,
		Selection:  s.selection.Names(),
		Questions:  s.registry.Questions(),
		Cursor:     s.cursor,
		Annotating: s.annotating,
	}
}

// Restore rebuilds a session from a snapshot.
func Restore(snap Snapshot, opts ...Option) (*Session, error) {
	rs, err := dataset.Restore(snap.Columns, snap.Records)
	if err != nil {
		return nil, err
	}

	opts = append(opts, WithID(snap.ID), WithName(snap.Name))
	s := New(rs, opts...)
	s.guidelines = snap.Guidelines

	if len(snap.Selection) > 0 {
		sel, err := mapping.Select(snap.Selection)
		if err != nil {
			return nil, err
		}

		if err := sel.Resolve(rs.ColumnNames()); err != nil {
			return nil, fmt.Errorf("restore selection: %w", err)
		}

		s.selection = sel
	}

	for _, q := range snap.Questions {
		if err := s.registry.Add(q); err != nil {
			return nil, fmt.Errorf("restore questions: %w", err)
		}
	}

	if snap.Annotating {
		if snap.Cursor.Position < 0 || snap.Cursor.Position >= rs.Len() {
			return nil, fmt.Errorf("restore: cursor %d outside %d records: %w", snap.Cursor.Position, rs.Len(), ErrOutOfRange)
		}

		s.registry.Freeze()
		s.annotating = true
		s.cursor = snap.Cursor
	}

	return s, nil
}
