package usecase

import (
	"context"
	"log/slog"

	"github.com/secmon-lab/mindforge/pkg/domain/model"
	"github.com/secmon-lab/mindforge/pkg/service/notion"
	"github.com/secmon-lab/mindforge/pkg/utils/logging"
)

// IngestState is a state of the ingestion machine
type IngestState string

const (
	IngestExtracting  IngestState = "extracting"
	IngestStructuring IngestState = "structuring"
	IngestPersisting  IngestState = "persisting"
	IngestDone        IngestState = "done"
	IngestFailed      IngestState = "failed"
)

// IngestResult is the outcome of one ingestion
type IngestResult struct {
	State IngestState
	// FailedAt is the state that failed when State is IngestFailed
	FailedAt IngestState
	Record   *model.InboxRecord
	// Degraded is set when structuring failed and only the raw content was stored
	Degraded       bool
	StructuringErr error
}

type IngestUseCase struct {
	uc *UseCases
}

// Ingest drives a capture through extraction, structuring and persistence. A
// structuring failure is not fatal: the raw text is persisted with default fields.
// The error is non-nil exactly when the result state is IngestFailed, in which case
// nothing was written.
func (x *IngestUseCase) Ingest(ctx context.Context, capture model.RawCapture) (*IngestResult, error) {
	logger := logging.From(ctx).With(slog.String(model.SourceKindKey, capture.SourceKind.String()))
	report := reporterFrom(ctx)
	result := &IngestResult{State: IngestExtracting}

	fail := func(err error) (*IngestResult, error) {
		result.FailedAt = result.State
		result.State = IngestFailed
		return result, err
	}

	report.Step("Extracting content")
	rawText, err := x.uc.extractor.Extract(ctx, capture)
	if err != nil {
		logger.Warn("extraction failed", slog.String("error", err.Error()))
		return fail(err)
	}

	result.State = IngestStructuring
	report.Step("Structuring content")
	fields, err := x.uc.structurer.ExtractInbox(ctx, rawText)
	if err != nil {
		logger.Warn("structuring failed, storing raw content only", slog.String("error", err.Error()))
		result.Degraded = true
		result.StructuringErr = err
		fields = nil
	}

	result.State = IngestPersisting
	report.Step("Saving to inbox")
	record := model.NewInboxRecord(capture, rawText, fields)
	page, err := x.uc.store.CreateRecord(ctx, x.uc.dbs.Inbox, notion.InboxProperties(record), record.Body)
	if err != nil {
		logger.Error("failed to save inbox record", slog.String("error", err.Error()))
		return fail(err)
	}

	record.ID = page.ID
	record.CreatedTime = page.CreatedTime
	result.Record = record
	result.State = IngestDone

	logger.Info("inbox record saved",
		slog.String(model.RecordIDKey, record.ID),
		slog.String("title", record.Title),
		slog.Bool("degraded", result.Degraded))
	return result, nil
}
