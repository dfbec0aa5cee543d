// Package export defines the sink interface for publishing report documents.
package export

import (
	"context"

	"aytam/internal/report"
)

// Sink writes a rendered report document to a destination, such as a
// Google spreadsheet or an in-memory buffer.
type Sink interface {
	// Write publishes the document and returns a destination reference
	// (a sheet range, a synthetic id) for logging.
	Write(ctx context.Context, doc report.Document) (string, error)
}
