package exporter

import (
	"bufio"
	"encoding/csv"
	"io"

	"github.com/johnyenter-briars/powerplatform-dataverse-client/dataverse"
)

// CSVEncoder writes rows through encoding/csv with a 64KB buffer in front of
// the underlying writer to keep syscall counts down on large exports.
type CSVEncoder struct {
	w   *csv.Writer
	buf *bufio.Writer
}

// NewCSVEncoder creates a CSV encoder writing to w.
func NewCSVEncoder(w io.Writer) *CSVEncoder {
	buf := bufio.NewWriterSize(w, 64*1024)
	return &CSVEncoder{
		w:   csv.NewWriter(buf),
		buf: buf,
	}
}

func (e *CSVEncoder) WriteHeader(columns []string) error {
	return e.w.Write(columns)
}

func (e *CSVEncoder) WriteRow(values []dataverse.Value) error {
	record := make([]string, len(values))
	for i, v := range values {
		record[i] = csvCell(v)
	}
	return e.w.Write(record)
}

func (e *CSVEncoder) Flush() error {
	e.w.Flush()
	if err := e.w.Error(); err != nil {
		return err
	}
	return e.buf.Flush()
}

func (e *CSVEncoder) Error() error {
	return e.w.Error()
}

func (e *CSVEncoder) Close() error {
	return e.Flush()
}

// csvCell renders a value for a CSV cell. Nulls render as NULL so they stay
// distinguishable from empty strings.
func csvCell(v dataverse.Value) string {
	if v.IsNull() {
		return "NULL"
	}
	s := v.String()

	// Formula injection mitigation: spreadsheet tools execute cells that
	// start with = + - or @, so prefix them with a quote.
	if len(s) > 0 {
		first := s[0]
		if first == '=' || first == '+' || first == '-' || first == '@' {
			s = "'" + s
		}
	}
	return s
}
