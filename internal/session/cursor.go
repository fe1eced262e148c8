package session

import (
	"fmt"
	"strings"

	"labelflow/internal/common"
)

// Stage is the workflow stage of a session.
type Stage int

const (
	// StageEmpty means no dataset is loaded.
	StageEmpty Stage = iota
	// StageConfiguring means fields are being renamed and selected and
	// questions added.
	StageConfiguring
	// StageAnnotating means the cursor is active.
	StageAnnotating
	// StageComplete means the last record has been submitted and the cursor
	// still rests on it.
	StageComplete
)

func (s Stage) String() string {
	switch s {
	case StageEmpty:
		return "empty"
	case StageConfiguring:
		return "configuring"
	case StageAnnotating:
		return "annotating"
	case StageComplete:
		return "complete"
	}

	return common.UnknownStr
}

// MarshalText writes the stage name.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Direction is a cursor movement.
type Direction int

const (
	Prev Direction = iota
	Next
)

func (d Direction) String() string {
	switch d {
	case Prev:
		return "prev"
	case Next:
		return "next"
	}

	return common.UnknownStr
}

// ParseDirection accepts "prev"/"previous"/"p"/"back" and "next"/"n"/"forward".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "prev", "previous", "p", "back":
		return Prev, nil
	case "next", "n", "forward":
		return Next, nil
	}

	return 0, fmt.Errorf("unknown direction %q", s)
}

// Cursor tracks which record is being edited and whether the last record
// has been submitted.
type Cursor struct {
	Position int  `json:"position"`
	Complete bool `json:"complete"`
}

// move returns the cursor moved one step in d, clamped to [0, total).
func (c Cursor) move(d Direction, total int) Cursor {
	switch d {
	case Prev:
		if c.Position > 0 {
			c.Position--
		}
	case Next:
		if c.Position < total-1 {
			c.Position++
		}
	}

	return c
}

// advance is the cursor after a submit: the last record sets Complete,
// any other moves forward.
func (c Cursor) advance(total int) Cursor {
	if c.Position == total-1 {
		c.Complete = true
		return c
	}

	c.Position++

	return c
}
