// Package session implements the annotation workflow: a session owns the
// record set, the field mapping and selection, the question registry and the
// cursor, and every change goes through one of its operations or commands.
//
// A Session is not safe for concurrent use; callers that share one across
// goroutines serialize access themselves.
package session

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"labelflow/internal/dataset"
	"labelflow/internal/export"
	"labelflow/internal/logger"
	"labelflow/internal/mapping"
	"labelflow/internal/question"
)

var (
	// ErrOutOfRange is returned when the current record is requested from an
	// empty record set.
	ErrOutOfRange = errors.New("no record at cursor")
	// ErrWrongStage is returned by operations not allowed in the current stage.
	ErrWrongStage = errors.New("operation not allowed in this stage")
)

// Session is one annotation workflow over one record set.
type Session struct {
	id         string
	name       string
	guidelines string

	records    *dataset.RecordSet
	mapping    *mapping.FieldMapping
	selection  mapping.Selection
	registry   *question.Registry
	cursor     Cursor
	annotating bool

	log logger.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithID overrides the generated session id.
func WithID(id string) Option {
	return func(s *Session) {
		if id != "" {
			s.id = id
		}
	}
}

// WithName sets the dataset name used on export.
func WithName(name string) Option {
	return func(s *Session) { s.name = name }
}

// New returns a session over rs. A nil or empty record set yields a session
// in StageEmpty until Load is called.
func New(rs *dataset.RecordSet, opts ...Option) *Session {
	s := &Session{
		id:       uuid.NewString(),
		registry: question.NewRegistry(),
		log:      logger.Discard(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.log = s.log.With("session", s.id)
	s.reset(rs)

	return s
}

func (s *Session) reset(rs *dataset.RecordSet) {
	if rs == nil {
		rs = &dataset.RecordSet{}
	}

	s.records = rs
	s.mapping = mapping.FromColumns(rs.Columns())
	s.selection = mapping.Selection{}
	s.cursor = Cursor{}
}

// Load replaces the record set. It is only allowed before annotation begins
// and resets renames, selection and cursor; questions are kept.
func (s *Session) Load(rs *dataset.RecordSet) error {
	if s.annotating {
		return fmt.Errorf("%w: cannot load a dataset while annotating", ErrWrongStage)
	}

	s.reset(rs)
	s.log.Info("dataset loaded", "records", s.records.Len(), "columns", len(s.records.Columns()))

	return nil
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Name returns the dataset name.
func (s *Session) Name() string { return s.name }

// SetName sets the dataset name.
func (s *Session) SetName(name string) { s.name = name }

// Guidelines returns the annotation guidelines.
func (s *Session) Guidelines() string { return s.guidelines }

// SetGuidelines sets the annotation guidelines.
func (s *Session) SetGuidelines(g string) { s.guidelines = g }

// Records returns the live record set. Callers must treat it as read-only.
func (s *Session) Records() *dataset.RecordSet { return s.records }

// Mapping returns a copy of the field mapping.
func (s *Session) Mapping() *mapping.FieldMapping { return s.mapping.Clone() }

// Selection returns the selected display names.
func (s *Session) Selection() mapping.Selection { return s.selection }

// Questions returns the registered questions in order.
func (s *Session) Questions() []question.Question { return s.registry.Questions() }

// Cursor returns the current cursor.
func (s *Session) Cursor() Cursor { return s.cursor }

// Stage derives the workflow stage from the session state.
func (s *Session) Stage() Stage {
	switch {
	case s.records.Len() == 0:
		return StageEmpty
	case !s.annotating:
		return StageConfiguring
	case s.cursor.Complete && s.cursor.Position == s.records.Len()-1:
		return StageComplete
	default:
		return StageAnnotating
	}
}

// Rename sets the display name of an original field and rewrites every
// record. The new name must not be a question title. On failure nothing
// changes.
func (s *Session) Rename(original, name string) error {
	if s.records.Len() == 0 {
		return fmt.Errorf("%w: no dataset loaded", ErrWrongStage)
	}

	if _, isQuestion := s.registry.Lookup(strings.TrimSpace(name)); isQuestion {
		return &mapping.InvalidRenameError{Original: original, Name: name, Reason: "name is used by a question"}
	}

	next := s.mapping.Clone()
	if err := next.Rename(original, name); err != nil {
		return err
	}

	before := s.mapping.Display(original)
	after := next.Display(original)

	s.mapping = next
	mapping.ApplyRenames(s.records, s.mapping)
	s.selection = s.selection.Renamed(before, after)

	s.log.Debug("field renamed", "original", original, "from", before, "to", after)

	return nil
}

// renameAll installs a whole set of renames at once, so entries may chain
// or swap names. No resulting name may be a question title.
func (s *Session) renameAll(renames map[string]string) error {
	if len(renames) == 0 {
		return nil
	}

	next := s.mapping.Clone()
	if err := next.RenameAll(renames); err != nil {
		return err
	}

	for _, o := range next.Originals() {
		name := next.Display(o)
		if _, isQuestion := s.registry.Lookup(name); isQuestion {
			return &mapping.InvalidRenameError{Original: o, Name: name, Reason: "name is used by a question"}
		}
	}

	s.selection = s.selection.Translate(s.mapping, next)
	s.mapping = next
	mapping.ApplyRenames(s.records, s.mapping)

	s.log.Debug("fields renamed", "renames", len(renames))

	return nil
}

// Select replaces the selection. Every name must be a current display name.
func (s *Session) Select(names []string) error {
	if s.records.Len() == 0 {
		return fmt.Errorf("%w: no dataset loaded", ErrWrongStage)
	}

	sel, err := mapping.Select(names)
	if err != nil {
		return err
	}

	if err := sel.Resolve(s.records.ColumnNames()); err != nil {
		return err
	}

	s.selection = sel
	s.log.Debug("fields selected", "fields", sel.Names())

	return nil
}

// AddQuestion appends a question to the registry. It fails once annotation
// has begun and when the title is already a field name.
func (s *Session) AddQuestion(q question.Question) error {
	if s.records.HasColumn(strings.TrimSpace(q.Title)) {
		return &question.InvalidQuestionError{Title: q.Title, Reason: "title is already a field name"}
	}

	if err := s.registry.Add(q); err != nil {
		return err
	}

	s.log.Debug("question added", "title", q.Title, "type", q.Type)

	return nil
}

// ApplyFile applies the renames, selection, questions, name and guidelines
// of a mapping file. It is all or nothing: on failure the session is
// unchanged.
func (s *Session) ApplyFile(mf *mapping.MappingFile) error {
	if s.annotating {
		return fmt.Errorf("%w: configuration is fixed once annotation begins", ErrWrongStage)
	}

	qs, err := mf.QuestionList()
	if err != nil {
		return err
	}

	trial := &Session{
		id:        s.id,
		records:   s.records.Clone(),
		mapping:   s.mapping.Clone(),
		selection: s.selection,
		registry:  question.NewRegistry(),
		log:       logger.Discard(),
	}

	for _, q := range s.registry.Questions() {
		if err := trial.registry.Add(q); err != nil {
			return err
		}
	}

	if err := trial.renameAll(mf.Rename); err != nil {
		return err
	}

	if !mf.Select.IsEmpty() {
		if err := trial.Select(mf.Select); err != nil {
			return err
		}
	}

	for _, q := range qs {
		if err := trial.AddQuestion(q); err != nil {
			return err
		}
	}

	s.records = trial.records
	s.mapping = trial.mapping
	s.selection = trial.selection
	s.registry = trial.registry

	if mf.Dataset != "" {
		s.name = mf.Dataset
	}

	if mf.Guidelines != "" {
		s.guidelines = mf.Guidelines
	}

	s.log.Info("mapping applied", "renames", len(mf.Rename), "fields", s.selection.Len(), "questions", s.registry.Len())

	return nil
}

// Begin moves from configuring to annotating. The selection must be
// non-empty and resolve to existing fields; question titles must not be
// field names. The registry is frozen. Calling Begin while annotating is a
// no-op.
func (s *Session) Begin() error {
	if s.annotating {
		return nil
	}

	if s.records.Len() == 0 {
		return fmt.Errorf("%w: no records to annotate", ErrWrongStage)
	}

	columns := s.records.ColumnNames()
	if err := s.selection.Resolve(columns); err != nil {
		return err
	}

	for _, title := range s.registry.Titles() {
		if slices.Contains(columns, title) {
			return &question.InvalidQuestionError{Title: title, Reason: "title is already a field name"}
		}
	}

	s.registry.Freeze()
	s.annotating = true
	s.cursor = Cursor{}

	s.log.Info("annotation started", "records", s.records.Len(), "questions", s.registry.Len())

	return nil
}

// Navigate moves the cursor one record back or forward. Moving past either
// end is a no-op. Record data is never touched.
func (s *Session) Navigate(d Direction) (Cursor, error) {
	if !s.annotating {
		return s.cursor, fmt.Errorf("%w: annotation has not begun", ErrWrongStage)
	}

	s.cursor = s.cursor.move(d, s.records.Len())
	s.log.Debug("navigated", "direction", d, "position", s.cursor.Position)

	return s.cursor, nil
}

// Submit writes the answers for the record under the cursor and advances.
// answers maps question titles to raw input as accepted by
// question.Question.Answer; a multi-label question left out counts as
// nothing checked, any other question left out is an error. All answers are
// checked before any is written. Submitting the last record sets Complete
// and leaves the cursor in place.
func (s *Session) Submit(answers map[string]any) (Cursor, error) {
	if !s.annotating {
		return s.cursor, fmt.Errorf("%w: annotation has not begun", ErrWrongStage)
	}

	questions := s.registry.Questions()

	for title := range answers {
		if _, ok := s.registry.Lookup(title); !ok {
			return s.cursor, &question.InvalidAnswerError{Question: title, Reason: "no such question"}
		}
	}

	values := make([]any, len(questions))

	for i, q := range questions {
		raw, given := answers[q.Title]
		if !given && q.Type != question.TypeMultiLabel {
			return s.cursor, &question.InvalidAnswerError{Question: q.Title, Reason: "an answer is required"}
		}

		a, err := q.Answer(raw)
		if err != nil {
			return s.cursor, err
		}

		values[i] = a.Value()
	}

	rec := s.records.At(s.cursor.Position)
	for i, q := range questions {
		rec.Set(q.Title, values[i])
	}

	submitted := s.cursor.Position
	s.cursor = s.cursor.advance(s.records.Len())

	s.log.Info("record submitted", "position", submitted, "next", s.cursor.Position, "complete", s.cursor.Complete)

	return s.cursor, nil
}

// View is a read-only rendering of the record under the cursor.
type View struct {
	Position int             `json:"position"`
	Total    int             `json:"total"`
	Complete bool            `json:"complete"`
	Fields   *dataset.Record `json:"fields"`
	Answers  *dataset.Record `json:"answers"`
}

// CurrentRecord returns the record under the cursor restricted to the
// selected fields, together with the answers already stored on it. Before a
// selection exists every column is shown.
func (s *Session) CurrentRecord() (View, error) {
	if s.records.Len() == 0 {
		return View{}, ErrOutOfRange
	}

	rec := s.records.At(s.cursor.Position)

	names := s.selection.Names()
	if len(names) == 0 {
		names = s.records.ColumnNames()
	}

	v := View{
		Position: s.cursor.Position,
		Total:    s.records.Len(),
		Complete: s.cursor.Complete,
		Fields:   dataset.NewRecord(),
		Answers:  dataset.NewRecord(),
	}

	for _, n := range names {
		val, _ := rec.Get(n)
		v.Fields.Set(n, val)
	}

	for _, title := range s.registry.Titles() {
		if val, ok := rec.Get(title); ok {
			v.Answers.Set(title, val)
		}
	}

	return v, nil
}

// Export projects the session into an export payload. Export does not
// require the annotation to be complete.
func (s *Session) Export() (*export.Payload, error) {
	p, err := export.Project(s.records, s.selection.Names(), s.registry.Questions())
	if err != nil {
		return nil, err
	}

	s.log.Info("exported", "records", len(p.Records), "complete", s.cursor.Complete)

	return p, nil
}
