package worker

import (
	"context"
	"fmt"
	"log/slog"

	"aytam/internal/amqp"
	"aytam/internal/export"
	"aytam/internal/log"
	"aytam/internal/report"
)

const defaultMinorsMonths = 12

// ExportWorker builds report documents for export requests and writes
// them to the configured sink. Data is always fetched fresh from the
// database when a message is processed, so exports reflect the ledger
// state at processing time rather than at publish time.
type ExportWorker struct {
	builder *report.Builder
	sink    export.Sink
}

func NewExportWorker(builder *report.Builder, sink export.Sink) *ExportWorker {
	return &ExportWorker{builder: builder, sink: sink}
}

// HandleExportMessage processes a single report export message from AMQP
func (w *ExportWorker) HandleExportMessage(ctx context.Context, msg *amqp.ReportExportMessage) error {
	slog.InfoContext(ctx, "Processing export message",
		log.FieldComponent, log.ComponentWorker,
		log.FieldEntityType, msg.EntityType,
		log.FieldEntityID, msg.EntityID)

	doc, err := w.buildDocument(ctx, msg)
	if err != nil {
		return fmt.Errorf("build %s report: %w", msg.EntityType, err)
	}

	ref, err := w.sink.Write(ctx, doc)
	if err != nil {
		return fmt.Errorf("write report to sink: %w", err)
	}

	slog.InfoContext(ctx, "Successfully exported report",
		log.FieldComponent, log.ComponentWorker,
		log.FieldEntityType, msg.EntityType,
		log.FieldEntityID, msg.EntityID,
		log.FieldSinkRef, ref)

	return nil
}

func (w *ExportWorker) buildDocument(ctx context.Context, msg *amqp.ReportExportMessage) (report.Document, error) {
	switch msg.EntityType {
	case amqp.EntityOrphan:
		doc, err := w.builder.Orphan(ctx, msg.EntityID)
		return doc, err
	case amqp.EntityDeceased:
		doc, err := w.builder.Deceased(ctx, msg.EntityID)
		return doc, err
	case amqp.EntityGuardian:
		doc, err := w.builder.Guardian(ctx, msg.EntityID)
		return doc, err
	case amqp.EntityMonthlyMinors:
		months := msg.Months
		if months <= 0 {
			months = defaultMinorsMonths
		}
		doc, err := w.builder.MonthlyMinors(ctx, months)
		return doc, err
	default:
		return nil, fmt.Errorf("unknown entity type %q", msg.EntityType)
	}
}
