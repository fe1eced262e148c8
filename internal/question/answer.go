package question

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"labelflow/internal/common"
)

// LabelSeparator joins the labels of a multi-label answer.
const LabelSeparator = ", "

// Answer is the typed answer to one question. Only the member matching Type
// is meaningful.
type Answer struct {
	Type   Type
	Label  string
	Labels []string
	Rating int
}

// Value returns the representation stored in the record: the label for
// label questions, the labels joined with LabelSeparator for multi-label
// questions (empty string when none are checked) and the integer for
// ratings.
func (a Answer) Value() any {
	switch a.Type {
	case TypeLabel:
		return a.Label
	case TypeMultiLabel:
		return strings.Join(a.Labels, LabelSeparator)
	case TypeRating:
		return a.Rating
	default:
		return nil
	}
}

// InvalidAnswerError reports raw input that does not fit a question.
type InvalidAnswerError struct {
	Question string
	Reason   string
}

func (e *InvalidAnswerError) Error() string {
	return fmt.Sprintf("invalid answer for %q: %s", e.Question, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidAnswer) match.
func (e *InvalidAnswerError) Is(target error) bool {
	return target == ErrInvalidAnswer
}

// Answer converts raw user input into a typed answer.
//
// Label questions take one of the question's labels. Multi-label questions
// take a list of labels ([]string or []any) or a string of labels joined
// with commas; the result follows the question's label order, not the order
// given. Rating questions take an integer 1-5 as a number or numeric string.
func (q Question) Answer(raw any) (Answer, error) {
	invalid := func(format string, args ...any) (Answer, error) {
		return Answer{}, &InvalidAnswerError{Question: q.Title, Reason: fmt.Sprintf(format, args...)}
	}

	switch q.Type {
	case TypeLabel:
		s, ok := raw.(string)
		if !ok {
			return invalid("expected a label, got %T", raw)
		}

		if !q.HasLabel(s) {
			return invalid("%q is not one of %v", s, q.Labels)
		}

		return Answer{Type: TypeLabel, Label: s}, nil

	case TypeMultiLabel:
		picked, err := checkedLabels(raw)
		if err != nil {
			return invalid("%v", err)
		}

		for l := range picked {
			if !q.HasLabel(l) {
				return invalid("%q is not one of %v", l, q.Labels)
			}
		}

		ordered := make([]string, 0, len(picked))
		for _, l := range q.Labels {
			if _, ok := picked[l]; ok {
				ordered = append(ordered, l)
			}
		}

		return Answer{Type: TypeMultiLabel, Labels: ordered}, nil

	case TypeRating:
		n, ok := ToInt(raw)
		if !ok {
			return invalid("expected an integer rating, got %v", raw)
		}

		lo, hi := RatingScale[0], RatingScale[len(RatingScale)-1]
		if !common.IsInRange(lo, n, hi) {
			return invalid("rating %d is outside %d-%d", n, lo, hi)
		}

		return Answer{Type: TypeRating, Rating: n}, nil
	}

	return invalid("unknown question type %q", q.Type)
}

// checkedLabels collects the set of labels in a multi-label input.
func checkedLabels(raw any) (map[string]struct{}, error) {
	set := make(map[string]struct{})

	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			set[s] = struct{}{}
		}
	}

	switch v := raw.(type) {
	case nil:
	case string:
		for _, part := range strings.Split(v, ",") {
			add(part)
		}
	case []string:
		for _, s := range v {
			add(s)
		}
	case []any:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected labels, got %T in list", item)
			}

			add(s)
		}
	default:
		return nil, fmt.Errorf("expected a list of labels, got %T", raw)
	}

	return set, nil
}

// ToInt accepts integral numbers in the shapes JSON decoding, YAML decoding
// and form input produce.
func ToInt(raw any) (int, bool) {
	switch v := raw.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}

		return int(v), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}

		return int(n), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}

		return n, true
	}

	return 0, false
}
