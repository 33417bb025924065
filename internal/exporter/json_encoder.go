package exporter

import (
	"encoding/json"
	"io"
	"strconv"

	"github.com/johnyenter-briars/powerplatform-dataverse-client/dataverse"
)

// JSONEncoder emits JSON Lines: one object per row, keyed by column name.
type JSONEncoder struct {
	w       io.Writer
	columns []string
	err     error
}

// NewJSONEncoder creates a JSON Lines encoder writing to w.
func NewJSONEncoder(w io.Writer) *JSONEncoder {
	return &JSONEncoder{w: w}
}

// WriteHeader captures the column names used as object keys. No header line
// is emitted.
func (e *JSONEncoder) WriteHeader(columns []string) error {
	e.columns = columns
	return nil
}

func (e *JSONEncoder) WriteRow(values []dataverse.Value) error {
	if e.err != nil {
		return e.err
	}

	row := make(map[string]any, len(values))
	for i, v := range values {
		key := "column_" + strconv.Itoa(i)
		if i < len(e.columns) {
			key = e.columns[i]
		}
		row[key] = v.Any()
	}

	data, err := json.Marshal(row)
	if err != nil {
		e.err = err
		return err
	}
	if _, err := e.w.Write(data); err != nil {
		e.err = err
		return err
	}
	if _, err := e.w.Write([]byte("\n")); err != nil {
		e.err = err
		return err
	}
	return nil
}

func (e *JSONEncoder) Flush() error {
	return nil
}

func (e *JSONEncoder) Error() error {
	return e.err
}

func (e *JSONEncoder) Close() error {
	return e.Flush()
}
