package session

import (
	"labelflow/internal/export"
	"labelflow/internal/question"
)

// Command is a single user action against a session. Presentation layers
// translate their input into commands and run them with Dispatch.
type Command interface {
	// Name identifies the command in logs.
	Name() string
	execute(s *Session) (*export.Payload, error)
}

// Outcome is the session state after a command, plus the payload of an
// Export.
type Outcome struct {
	Stage   Stage           `json:"stage"`
	Cursor  Cursor          `json:"cursor"`
	Payload *export.Payload `json:"payload,omitempty"`
}

// Navigate moves the cursor.
type Navigate struct {
	Direction Direction
}

// Rename renames an original field.
type Rename struct {
	Original string
	Name     string
}

// Select replaces the field selection.
type Select struct {
	Fields []string
}

// AddQuestion appends a question while configuring.
type AddQuestion struct {
	Question question.Question
}

// Begin starts annotation.
type Begin struct{}

// Submit answers the record under the cursor.
type Submit struct {
	Answers map[string]any
}

// Export projects the session into a payload.
type Export struct{}

func (Navigate) Name() string    { return "navigate" }
func (Rename) Name() string      { return "rename" }
func (Select) Name() string      { return "select" }
func (AddQuestion) Name() string { return "add_question" }
func (Begin) Name() string       { return "begin" }
func (Submit) Name() string      { return "submit" }
func (Export) Name() string      { return "export" }

func (c Navigate) execute(s *Session) (*export.Payload, error) {
	_, err := s.Navigate(c.Direction)
	return nil, err
}

func (c Rename) execute(s *Session) (*export.Payload, error) {
	return nil, s.Rename(c.Original, c.Name)
}

func (c Select) execute(s *Session) (*export.Payload, error) {
	return nil, s.Select(c.Fields)
}

func (c AddQuestion) execute(s *Session) (*export.Payload, error) {
	return nil, s.AddQuestion(c.Question)
}

func (Begin) execute(s *Session) (*export.Payload, error) {
	return nil, s.Begin()
}

func (c Submit) execute(s *Session) (*export.Payload, error) {
	_, err := s.Submit(c.Answers)
	return nil, err
}

func (Export) execute(s *Session) (*export.Payload, error) {
	return s.Export()
}

// Dispatch runs cmd synchronously and reports the resulting state. A failed
// command leaves the session as it was.
func (s *Session) Dispatch(cmd Command) (Outcome, error) {
	payload, err := cmd.execute(s)

	out := Outcome{Stage: s.Stage(), Cursor: s.cursor, Payload: payload}
	if err != nil {
		s.log.Warn("command rejected", "command", cmd.Name(), "err", err)
		return out, err
	}

	s.log.Debug("command applied", "command", cmd.Name(), "stage", out.Stage, "position", out.Cursor.Position)

	return out, nil
}
