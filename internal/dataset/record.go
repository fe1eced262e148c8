package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// Record is one row of a dataset: an ordered mapping from field name to a
// scalar value. Keys keep insertion order; setting an existing key replaces
// its value in place.
type Record struct {
	keys   []string
	values map[string]any
}

// NewRecord returns an empty record.
func NewRecord() *Record {
	return &Record{values: make(map[string]any)}
}

// Len returns the number of fields.
func (r *Record) Len() int {
	return len(r.keys)
}

// Keys returns the field names in order.
func (r *Record) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Has reports whether the record carries the field.
func (r *Record) Has(key string) bool {
	_, ok := r.values[key]
	return ok
}

// Get returns the value stored under key.
func (r *Record) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Set stores v under key, appending key if it is new.
func (r *Record) Set(key string, v any) {
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}

	r.values[key] = v
}

// Clone returns a deep copy of the record. Slice values are copied.
func (r *Record) Clone() *Record {
	c := &Record{
		keys:   append([]string(nil), r.keys...),
		values: make(map[string]any, len(r.values)),
	}

	for k, v := range r.values {
		if list, ok := v.([]string); ok {
			v = append([]string(nil), list...)
		}

		c.values[k] = v
	}

	return c
}

// Map returns the values as a plain map. The map is a copy.
func (r *Record) Map() map[string]any {
	m := make(map[string]any, len(r.values))
	for k, v := range r.values {
		m[k] = v
	}

	return m
}

// renamed returns a copy of the record with keys rewritten by names.
// Keys absent from names keep their name. When two keys map to the same name
// the later one wins but the position of the first is kept.
func (r *Record) renamed(names map[string]string) *Record {
	out := &Record{
		keys:   make([]string, 0, len(r.keys)),
		values: make(map[string]any, len(r.values)),
	}

	for _, k := range r.keys {
		nk := k
		if n, ok := names[k]; ok {
			nk = n
		}

		out.Set(nk, r.values[k])
	}

	return out
}

// MarshalJSON encodes the record as a JSON object with keys in record order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}

		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}

		vb, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}

		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping document key order. Numbers
// decode to json.Number, arrays of strings to []string; other nested values
// are kept as compact JSON text.
func (r *Record) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("record: invalid JSON")
	}

	res := gjson.ParseBytes(data)
	if !res.IsObject() {
		return fmt.Errorf("record: expected object, got %s", res.Type)
	}

	*r = Record{values: make(map[string]any)}

	res.ForEach(func(k, v gjson.Result) bool {
		r.Set(k.String(), decodeValue(v))
		return true
	})

	return nil
}

// decodeValue converts a gjson leaf into the record value representation.
func decodeValue(v gjson.Result) any {
	switch v.Type {
	case gjson.Null:
		return nil
	case gjson.True:
		return true
	case gjson.False:
		return false
	case gjson.Number:
		return json.Number(v.Raw)
	case gjson.String:
		return v.String()
	}

	if v.IsArray() {
		if list, ok := stringList(v); ok {
			return list
		}
	}

	return compactJSON(v.Raw)
}

func stringList(v gjson.Result) ([]string, bool) {
	items := v.Array()
	list := make([]string, 0, len(items))

	for _, it := range items {
		if it.Type != gjson.String {
			return nil, false
		}

		list = append(list, it.String())
	}

	return list, true
}

func compactJSON(raw string) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(raw)); err != nil {
		return raw
	}

	return buf.String()
}
