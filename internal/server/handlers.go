package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"labelflow/internal/dataset"
	"labelflow/internal/export"
	"labelflow/internal/mapping"
	"labelflow/internal/question"
	"labelflow/internal/session"
)

// maxBody caps request bodies.
const maxBody = 1 << 20

// State is the body of GET /session.
type State struct {
	ID        string              `json:"id"`
	Name      string              `json:"name,omitempty"`
	Stage     session.Stage       `json:"stage"`
	Position  int                 `json:"position"`
	Total     int                 `json:"total"`
	Complete  bool                `json:"complete"`
	Fields    []string            `json:"fields"`
	Selected  []string            `json:"selected"`
	Questions []question.Question `json:"questions"`
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps domain errors to HTTP statuses.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, session.ErrOutOfRange):
		return http.StatusNotFound, "out_of_range"
	case errors.Is(err, session.ErrWrongStage):
		return http.StatusConflict, "wrong_stage"
	case errors.Is(err, question.ErrRegistryFrozen):
		return http.StatusConflict, "registry_frozen"
	case errors.Is(err, mapping.ErrInvalidRename):
		return http.StatusUnprocessableEntity, "invalid_rename"
	case errors.Is(err, mapping.ErrEmptySelection):
		return http.StatusUnprocessableEntity, "empty_selection"
	case errors.Is(err, mapping.ErrUnknownField):
		return http.StatusUnprocessableEntity, "unknown_field"
	case errors.Is(err, question.ErrInvalidQuestion):
		return http.StatusUnprocessableEntity, "invalid_question"
	case errors.Is(err, question.ErrInvalidAnswer):
		return http.StatusUnprocessableEntity, "invalid_answer"
	case errors.Is(err, export.ErrIncompleteData):
		return http.StatusUnprocessableEntity, "incomplete_data"
	}

	return http.StatusInternalServerError, "internal"
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "err", err)
	}

	writeJSON(w, status, errorBody{Error: err.Error(), Code: code})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg, Code: "bad_request"})
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.UseNumber()
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		badRequest(w, fmt.Sprintf("invalid request body: %v", err))
		return false
	}

	return true
}

func (s *Server) state() State {
	c := s.sess.Cursor()

	return State{
		ID:        s.sess.ID(),
		Name:      s.sess.Name(),
		Stage:     s.sess.Stage(),
		Position:  c.Position,
		Total:     s.sess.Records().Len(),
		Complete:  c.Complete,
		Fields:    s.sess.Records().ColumnNames(),
		Selected:  s.sess.Selection().Names(),
		Questions: s.sess.Questions(),
	}
}

// dispatch runs a mutating command and answers with the outcome.
func (s *Server) dispatch(w http.ResponseWriter, cmd session.Command) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out, err := s.sess.Dispatch(cmd)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if s.onChange != nil {
		if err := s.onChange(s.sess); err != nil {
			s.writeError(w, fmt.Errorf("after %s: %w", cmd.Name(), err))
			return
		}
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSession(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleRecord(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	view, err := s.sess.CurrentRecord()
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Direction string `json:"direction"`
	}

	if !readJSON(w, r, &req) {
		return
	}

	d, err := session.ParseDirection(req.Direction)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	s.dispatch(w, session.Navigate{Direction: d})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Answers map[string]any `json:"answers"`
	}

	if !readJSON(w, r, &req) {
		return
	}

	s.dispatch(w, session.Submit{Answers: req.Answers})
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Original string `json:"original"`
		Name     string `json:"name"`
	}

	if !readJSON(w, r, &req) {
		return
	}

	s.dispatch(w, session.Rename{Original: req.Original, Name: req.Name})
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Fields []string `json:"fields"`
	}

	if !readJSON(w, r, &req) {
		return
	}

	s.dispatch(w, session.Select{Fields: req.Fields})
}

func (s *Server) handleAddQuestion(w http.ResponseWriter, r *http.Request) {
	var def mapping.QuestionDef
	if !readJSON(w, r, &def) {
		return
	}

	q, err := def.Question()
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.dispatch(w, session.AddQuestion{Question: q})
}

func (s *Server) handleBegin(w http.ResponseWriter, _ *http.Request) {
	s.dispatch(w, session.Begin{})
}

func (s *Server) handleExport(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.sess.Export()
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := p.Encode(w); err != nil {
		s.log.Error("write export", "err", err)
	}
}

func (s *Server) handleExportCSV(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sess.Records().Len() == 0 {
		s.writeError(w, session.ErrOutOfRange)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="labeled.csv"`)

	if err := dataset.WriteCSV(w, s.sess.Records()); err != nil {
		s.log.Error("write csv", "err", err)
	}
}
