package dataset

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"labelflow/internal/common"
)

// MultiValueSeparator joins list values in flat outputs.
const MultiValueSeparator = ", "

// WriteCSV writes rs as delimited text: a header of field names followed by
// one row per record. Null and missing values are empty cells.
func WriteCSV(w io.Writer, rs *RecordSet) error {
	cw := csv.NewWriter(w)
	fields := rs.Fields()

	if err := cw.Write(fields); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	row := make([]string, len(fields))

	for i, rec := range rs.records {
		for j, f := range fields {
			v, _ := rec.Get(f)
			row[j] = FormatValue(v)
		}

		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}

	cw.Flush()

	return cw.Error()
}

// WriteCSVFile writes rs to path atomically.
func WriteCSVFile(path string, rs *RecordSet) error {
	return common.WriteFileAtomic(path, 0o644, func(w io.Writer) error {
		return WriteCSV(w, rs)
	})
}

// FormatValue renders a record value as display text.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case []string:
		return strings.Join(val, MultiValueSeparator)
	default:
		return fmt.Sprint(val)
	}
}
