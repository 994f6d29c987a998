package usecase

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mindforge/pkg/domain/model"
	"github.com/secmon-lab/mindforge/pkg/domain/types"
	"github.com/secmon-lab/mindforge/pkg/service/notify"
	"github.com/secmon-lab/mindforge/pkg/service/notion"
	"github.com/secmon-lab/mindforge/pkg/utils/logging"
)

// ReviewResult is the outcome of one review run
type ReviewResult struct {
	Period    types.Period
	DateRange model.DateRange
	NodeCount int
	// Record is nil when no knowledge node fell in the period
	Record *model.ReviewRecord
}

// NothingToDo reports whether the period had no knowledge nodes
func (r *ReviewResult) NothingToDo() bool {
	return r.Record == nil
}

type ReviewUseCase struct {
	uc *UseCases
}

// Run aggregates the knowledge nodes created in the period into one review record.
// An empty period is a success without a record.
func (x *ReviewUseCase) Run(ctx context.Context, period types.Period) (*ReviewResult, error) {
	if !period.IsValid() {
		return nil, goerr.Wrap(model.ErrInvalidInput, "invalid review period", goerr.V("period", period))
	}

	logger := logging.From(ctx).With(slog.String("period", period.String()))
	report := reporterFrom(ctx)

	filter, dateRange, err := model.PeriodFilter(period, x.uc.now())
	if err != nil {
		return nil, goerr.Wrap(model.ErrInvalidInput, "failed to build period filter", goerr.V("period", period), goerr.V("cause", err.Error()))
	}
	result := &ReviewResult{Period: period, DateRange: dateRange}

	report.Step("Querying knowledge nodes since " + dateRange.StartDate())
	pages, err := x.uc.store.QueryRecords(ctx, x.uc.dbs.Knowledge, filter)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query knowledge nodes", goerr.V(model.StoreIDKey, x.uc.dbs.Knowledge))
	}

	result.NodeCount = len(pages)
	if len(pages) == 0 {
		logger.Info("no knowledge nodes in period", slog.String("start", dateRange.StartDate()))
		report.Step("No knowledge nodes in this period")
		return result, nil
	}

	nodes := make([]*model.KnowledgeNode, 0, len(pages))
	for _, page := range pages {
		nodes = append(nodes, notion.ParseKnowledgeNode(page))
	}

	report.Step("Analyzing trends")
	fields, err := x.uc.structurer.ExtractReview(ctx, model.ConsolidateNotes(nodes), period)
	if err != nil {
		return nil, goerr.Wrap(err, "review extraction failed", goerr.V("period", period))
	}

	record := model.NewReviewRecord(fields, period, dateRange)

	report.Step("Saving review")
	page, err := x.uc.store.CreateRecord(ctx, x.uc.dbs.Review, notion.ReviewProperties(record), "")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to save review", goerr.V(model.StoreIDKey, x.uc.dbs.Review))
	}
	record.ID = page.ID
	result.Record = record

	logger.Info("review saved", slog.String(model.RecordIDKey, record.ID), slog.Int("nodes", len(nodes)))

	subject, body := notify.ReviewMessage(record)
	x.uc.notifier.Notify(ctx, subject, body)

	return result, nil
}
