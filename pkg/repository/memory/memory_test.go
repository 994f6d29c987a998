package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/jomei/notionapi"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/mindforge/pkg/domain/model"
	"github.com/secmon-lab/mindforge/pkg/domain/types"
	"github.com/secmon-lab/mindforge/pkg/repository/memory"
	"github.com/secmon-lab/mindforge/pkg/service/notion"
)

func TestMemoryInboxLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	record := model.NewInboxRecord(model.NewTextCapture("hello"), "hello world", nil)
	created, err := repo.CreateRecord(ctx, "inbox", notion.InboxProperties(record), record.Body)
	gt.NoError(t, err).Required()
	gt.Value(t, created.ID).NotEqual("")

	_, err = repo.CreateRecord(ctx, "other", notion.InboxProperties(record), "")
	gt.NoError(t, err).Required()

	pages, err := repo.QueryRecords(ctx, "inbox", model.StatusFilter(types.InboxStatusNew))
	gt.NoError(t, err).Required()
	gt.Array(t, pages).Length(1).Required()
	gt.Value(t, notion.ParseInboxRecord(pages[0]).RawContent).Equal("hello world")

	blocks, err := repo.GetBlocks(ctx, created.ID)
	gt.NoError(t, err).Required()
	gt.Value(t, blocks.ToMarkdown()).Equal("hello world\n")

	gt.NoError(t, repo.UpdateStatus(ctx, created.ID, types.InboxStatusProcessed.String()))
	gt.NoError(t, repo.UpdateStatus(ctx, created.ID, types.InboxStatusProcessed.String()))

	pages, err = repo.QueryRecords(ctx, "inbox", model.StatusFilter(types.InboxStatusNew))
	gt.NoError(t, err).Required()
	gt.Array(t, pages).Length(0)

	pages, err = repo.QueryRecords(ctx, "inbox", model.StatusFilter(types.InboxStatusProcessed))
	gt.NoError(t, err).Required()
	gt.Array(t, pages).Length(1)
	gt.Value(t, repo.Count("inbox")).Equal(1)
}

func TestMemoryCreatedTimeFilter(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	repo := memory.New(memory.WithClock(func() time.Time { return now }))

	node := &model.KnowledgeNode{Title: "old", Status: types.KnowledgeStatusActive}
	_, err := repo.CreateRecord(ctx, "knowledge", notion.KnowledgeProperties(node), "")
	gt.NoError(t, err).Required()

	now = now.AddDate(0, 0, 10)
	node.Title = "new"
	_, err = repo.CreateRecord(ctx, "knowledge", notion.KnowledgeProperties(node), "")
	gt.NoError(t, err).Required()

	pages, err := repo.QueryRecords(ctx, "knowledge", model.Filter{
		CreatedOnOrAfter: time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC),
	})
	gt.NoError(t, err).Required()
	gt.Array(t, pages).Length(1).Required()
	gt.Value(t, notion.ParseKnowledgeNode(pages[0]).Title).Equal("new")
}

func TestMemoryStatusFilterReadsPointerProperties(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	_, err := repo.CreateRecord(ctx, "inbox", notionapi.Properties{
		notion.PropStatus: &notionapi.SelectProperty{
			Type:   notionapi.PropertyTypeSelect,
			Select: notionapi.Option{Name: types.InboxStatusNew.String()},
		},
	}, "")
	gt.NoError(t, err).Required()
	_, err = repo.CreateRecord(ctx, "inbox", notionapi.Properties{}, "")
	gt.NoError(t, err).Required()

	pages, err := repo.QueryRecords(ctx, "inbox", model.StatusFilter(types.InboxStatusNew))
	gt.NoError(t, err).Required()
	gt.Array(t, pages).Length(1)
}

func TestMemoryUnknownPage(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	gt.Error(t, repo.UpdateStatus(ctx, "missing", "Processed")).Is(model.ErrStoreWrite)
	_, err := repo.GetBlocks(ctx, "missing")
	gt.Error(t, err).Is(model.ErrStoreQuery)
}
