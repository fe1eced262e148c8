package dataset

import (
	"fmt"
	"slices"
)

// Column tracks one ingested field: the flat name it had at ingestion and
// the name it currently carries in every record.
type Column struct {
	Original string `json:"original"`
	Name     string `json:"name"`
}

// RecordSet is the ordered, fixed-length collection of records produced by
// ingestion. Every record carries every column; answer fields written during
// annotation are appended after the columns.
//
// A RecordSet is not safe for concurrent use.
type RecordSet struct {
	columns []Column
	records []*Record
}

// Restore rebuilds a RecordSet from persisted columns and records. Records
// missing a column get a null value for it.
func Restore(columns []Column, records []*Record) (*RecordSet, error) {
	seen := make(map[string]struct{}, len(columns))

	for _, c := range columns {
		if c.Original == "" || c.Name == "" {
			return nil, fmt.Errorf("restore: column with empty name")
		}

		if _, dup := seen[c.Name]; dup {
			return nil, fmt.Errorf("restore: duplicate column %q", c.Name)
		}

		seen[c.Name] = struct{}{}
	}

	rs := &RecordSet{
		columns: append([]Column(nil), columns...),
		records: make([]*Record, 0, len(records)),
	}

	for _, rec := range records {
		if rec == nil {
			rec = NewRecord()
		}

		rs.records = append(rs.records, rs.normalize(rec))
	}

	return rs, nil
}

// normalize returns rec with all columns present, in column order, followed
// by the remaining fields in their existing order.
func (rs *RecordSet) normalize(rec *Record) *Record {
	out := NewRecord()

	for _, c := range rs.columns {
		v, _ := rec.Get(c.Name)
		out.Set(c.Name, v)
	}

	for _, k := range rec.keys {
		if !out.Has(k) {
			out.Set(k, rec.values[k])
		}
	}

	return out
}

// Len returns the number of records.
func (rs *RecordSet) Len() int {
	if rs == nil {
		return 0
	}

	return len(rs.records)
}

// At returns the record at index i, or nil when i is out of range.
func (rs *RecordSet) At(i int) *Record {
	if rs == nil || i < 0 || i >= len(rs.records) {
		return nil
	}

	return rs.records[i]
}

// Columns returns the ingested columns with their current names.
func (rs *RecordSet) Columns() []Column {
	return append([]Column(nil), rs.columns...)
}

// ColumnNames returns the current names of the ingested columns.
func (rs *RecordSet) ColumnNames() []string {
	names := make([]string, len(rs.columns))
	for i, c := range rs.columns {
		names[i] = c.Name
	}

	return names
}

// Originals returns the flat names the columns had at ingestion.
func (rs *RecordSet) Originals() []string {
	names := make([]string, len(rs.columns))
	for i, c := range rs.columns {
		names[i] = c.Original
	}

	return names
}

// HasColumn reports whether name is the current name of a column.
func (rs *RecordSet) HasColumn(name string) bool {
	return slices.ContainsFunc(rs.columns, func(c Column) bool { return c.Name == name })
}

// Fields returns every field name present in any record: columns first, then
// answer fields in first-seen order.
func (rs *RecordSet) Fields() []string {
	fields := rs.ColumnNames()
	seen := make(map[string]struct{}, len(fields))

	for _, f := range fields {
		seen[f] = struct{}{}
	}

	for _, rec := range rs.records {
		for _, k := range rec.keys {
			if _, ok := seen[k]; ok {
				continue
			}

			seen[k] = struct{}{}
			fields = append(fields, k)
		}
	}

	return fields
}

// RenameColumns sets every column's name to display(original) and rewrites
// the record keys accordingly. Names are derived from the original column
// names, so applying the same function twice changes nothing the second time.
func (rs *RecordSet) RenameColumns(display func(original string) string) {
	names := make(map[string]string, len(rs.columns))
	changed := false

	for i := range rs.columns {
		c := &rs.columns[i]

		next := display(c.Original)
		if next == "" {
			next = c.Original
		}

		if next != c.Name {
			names[c.Name] = next
			changed = true
		}

		c.Name = next
	}

	if !changed {
		return
	}

	for i, rec := range rs.records {
		rs.records[i] = rec.renamed(names)
	}
}

// Clone returns a deep copy of the record set.
func (rs *RecordSet) Clone() *RecordSet {
	c := &RecordSet{
		columns: append([]Column(nil), rs.columns...),
		records: make([]*Record, len(rs.records)),
	}

	for i, rec := range rs.records {
		c.records[i] = rec.Clone()
	}

	return c
}

// Records returns the records in order. The slice is a copy; the records
// are shared.
func (rs *RecordSet) Records() []*Record {
	return append([]*Record(nil), rs.records...)
}
