package dataset

import (
	"errors"
	"fmt"
	"io"

	"github.com/tidwall/gjson"
)

// Separator joins nested object keys into a flat field name: {"a":{"b":1}}
// becomes the field "a_b".
const Separator = "_"

// ErrIngest is the sentinel matched by every IngestError.
var ErrIngest = errors.New("ingest failed")

// IngestError reports input that does not decode to a collection of objects.
type IngestError struct {
	// Index is the offending top-level element, or -1 for the whole document.
	Index  int
	Reason string
}

func (e *IngestError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("ingest: element %d: %s", e.Index, e.Reason)
	}

	return "ingest: " + e.Reason
}

// Is makes errors.Is(err, ErrIngest) match.
func (e *IngestError) Is(target error) bool {
	return target == ErrIngest
}

// Ingest reads a JSON document from r and flattens it into a RecordSet.
// Read failures are returned wrapped; decoding problems are IngestErrors.
func Ingest(r io.Reader) (*RecordSet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	return IngestBytes(data)
}

// IngestBytes flattens a JSON document into a RecordSet.
//
// The document must be an object (one record) or an array of objects. Nested
// objects are flattened by joining keys with Separator; arrays are kept as
// compact JSON text. Two fields that flatten to the same name are an
// IngestError. Columns are ordered by first appearance across the
// document and every record receives every column, null when absent.
func IngestBytes(data []byte) (*RecordSet, error) {
	if !gjson.ValidBytes(data) {
		return nil, &IngestError{Index: -1, Reason: "input is not valid JSON"}
	}

	root := gjson.ParseBytes(data)

	var elements []gjson.Result

	switch {
	case root.IsArray():
		elements = root.Array()
	case root.IsObject():
		elements = []gjson.Result{root}
	default:
		return nil, &IngestError{Index: -1, Reason: "top-level value must be an object or an array of objects"}
	}

	rows := make([]*Record, 0, len(elements))

	var order []string

	known := make(map[string]struct{})

	for i, el := range elements {
		if !el.IsObject() {
			return nil, &IngestError{Index: i, Reason: fmt.Sprintf("expected an object, got %s", describe(el))}
		}

		rec := NewRecord()
		if dup := flatten("", el, rec); dup != "" {
			return nil, &IngestError{Index: i, Reason: fmt.Sprintf("field %q occurs more than once after flattening", dup)}
		}

		for _, k := range rec.keys {
			if _, ok := known[k]; !ok {
				known[k] = struct{}{}
				order = append(order, k)
			}
		}

		rows = append(rows, rec)
	}

	columns := make([]Column, len(order))
	for i, name := range order {
		columns[i] = Column{Original: name, Name: name}
	}

	return Restore(columns, rows)
}

// flatten walks obj in document order and writes its leaves into rec. It
// stops at the first flat key produced twice, as {"a_b":1,"a":{"b":2}} does,
// and returns that key.
func flatten(prefix string, obj gjson.Result, rec *Record) (dup string) {
	obj.ForEach(func(k, v gjson.Result) bool {
		key := k.String()
		if prefix != "" {
			key = prefix + Separator + key
		}

		if v.IsObject() {
			dup = flatten(key, v, rec)
			return dup == ""
		}

		if rec.Has(key) {
			dup = key
			return false
		}

		rec.Set(key, leafValue(v))

		return true
	})

	return dup
}

// leafValue converts a non-object JSON value into a record value.
func leafValue(v gjson.Result) any {
	if v.IsArray() {
		return compactJSON(v.Raw)
	}

	return decodeValue(v)
}

func describe(v gjson.Result) string {
	switch {
	case v.IsArray():
		return "array"
	case v.Type == gjson.String:
		return "string"
	case v.Type == gjson.Number:
		return "number"
	case v.Type == gjson.True, v.Type == gjson.False:
		return "boolean"
	case v.Type == gjson.Null:
		return "null"
	default:
		return v.Type.String()
	}
}
