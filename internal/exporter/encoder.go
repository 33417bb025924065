package exporter

import (
	"io"

	"github.com/johnyenter-briars/powerplatform-dataverse-client/dataverse"
)

// RowEncoder is the common interface over the export formats (CSV, JSON
// Lines, Excel, PDF). The streaming code stays agnostic of the output format.
type RowEncoder interface {
	// WriteHeader writes the column names. Called exactly once, before any row.
	WriteHeader(columns []string) error

	// WriteRow writes one row. The values line up with the header columns;
	// attributes an entity lacks arrive as null values.
	WriteRow(values []dataverse.Value) error

	// Flush pushes buffered data to the underlying writer.
	Flush() error

	// Error returns the first error seen during encoding, if any.
	Error() error

	// Close flushes and releases resources. For Excel this finalizes the
	// workbook structure.
	io.Closer
}
