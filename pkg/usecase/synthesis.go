package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mindforge/pkg/domain/model"
	"github.com/secmon-lab/mindforge/pkg/domain/types"
	"github.com/secmon-lab/mindforge/pkg/service/notify"
	"github.com/secmon-lab/mindforge/pkg/service/notion"
	"github.com/secmon-lab/mindforge/pkg/utils/logging"
)

// BatchResult counts the outcome of one synthesis batch. Processed + Skipped + Failed
// + StatusErrors equals Total unless the batch was interrupted.
type BatchResult struct {
	Total     int
	Processed int
	// Skipped items had no usable content and stay New, or were no longer New when read
	Skipped int
	// Failed items could not be structured or written and stay New
	Failed int
	// StatusErrors items got a knowledge node but their status update failed
	StatusErrors int
	Nodes        []*model.KnowledgeNode
}

type SynthesisUseCase struct {
	uc *UseCases
}

// Run promotes every New inbox record to a knowledge node. Failures of a single item
// are logged and the batch continues; only a failed queue query or an interruption
// returns an error.
func (x *SynthesisUseCase) Run(ctx context.Context) (*BatchResult, error) {
	logger := logging.From(ctx)
	report := reporterFrom(ctx)

	report.Step("Querying new inbox records")
	pages, err := x.uc.store.QueryRecords(ctx, x.uc.dbs.Inbox, model.StatusFilter(types.InboxStatusNew))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query new inbox records", goerr.V(model.StoreIDKey, x.uc.dbs.Inbox))
	}

	result := &BatchResult{Total: len(pages)}
	if len(pages) == 0 {
		logger.Info("no new inbox records")
		report.Step("No new inbox records")
		return result, nil
	}

	logger.Info("synthesis started", slog.Int("total", len(pages)))

	for i, page := range pages {
		if i > 0 {
			if err := x.uc.sleep(ctx, x.uc.delay); err != nil {
				return result, goerr.Wrap(err, "synthesis interrupted", goerr.V("done", i), goerr.V("total", len(pages)))
			}
		}

		report.Progress(i, len(pages))
		x.processOne(ctx, page, result)
	}
	report.Progress(len(pages), len(pages))
	report.Step(fmt.Sprintf("Processed %d of %d", result.Processed, result.Total))

	logger.Info("synthesis finished",
		slog.Int("total", result.Total),
		slog.Int("processed", result.Processed),
		slog.Int("skipped", result.Skipped),
		slog.Int("failed", result.Failed),
		slog.Int("status_errors", result.StatusErrors))

	return result, nil
}

func (x *SynthesisUseCase) processOne(ctx context.Context, page *notion.Page, result *BatchResult) {
	logger := logging.From(ctx).With(slog.String(model.RecordIDKey, page.ID))
	report := reporterFrom(ctx)

	blocks, err := x.uc.store.GetBlocks(ctx, page.ID)
	if err != nil {
		logger.Warn("failed to read page body, using properties only", slog.String("error", err.Error()))
	} else {
		page.Blocks = blocks
	}

	record := notion.ParseInboxRecord(page)
	if !record.Status.CanTransitionTo(types.InboxStatusProcessed) {
		logger.Warn("skipping inbox record that is not new", slog.String("status", record.Status.String()))
		result.Skipped++
		return
	}
	report.Step("Synthesizing: " + record.Title)

	input := record.SynthesisInput()
	if input == "" {
		logger.Warn("skipping inbox record without content")
		result.Skipped++
		return
	}

	fields, err := x.uc.structurer.ExtractKnowledge(ctx, input)
	if err != nil {
		logger.Warn("knowledge extraction failed, leaving record for next run", slog.String("error", err.Error()))
		result.Failed++
		return
	}

	node := model.NewKnowledgeNode(fields, record)
	created, err := x.uc.store.CreateRecord(ctx, x.uc.dbs.Knowledge, notion.KnowledgeProperties(node), "")
	if err != nil {
		logger.Error("failed to save knowledge node, leaving record for next run", slog.String("error", err.Error()))
		result.Failed++
		return
	}
	node.ID = created.ID
	node.CreatedTime = created.CreatedTime
	result.Nodes = append(result.Nodes, node)

	if err := x.uc.store.UpdateStatus(ctx, record.ID, types.InboxStatusProcessed.String()); err != nil {
		logger.Error("knowledge node saved but status update failed", slog.String("node_id", node.ID), slog.String("error", err.Error()))
		result.StatusErrors++
	} else {
		result.Processed++
		logger.Info("inbox record processed", slog.String("node_id", node.ID), slog.String("title", node.Title))
	}

	subject, body := notify.KnowledgeMessage(node)
	x.uc.notifier.Notify(ctx, subject, body)
}
