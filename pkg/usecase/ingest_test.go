package usecase_test

import (
	"context"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/mindforge/pkg/domain/model"
	"github.com/secmon-lab/mindforge/pkg/domain/types"
	"github.com/secmon-lab/mindforge/pkg/repository/memory"
	"github.com/secmon-lab/mindforge/pkg/service/notion"
	"github.com/secmon-lab/mindforge/pkg/usecase"
)

func TestIngest(t *testing.T) {
	ctx := context.Background()

	t.Run("structured record", func(t *testing.T) {
		repo := memory.New()
		structurer := &fakeStructurer{inbox: func(raw string) (*model.InboxFields, error) {
			return &model.InboxFields{
				Title:        "Onboarding docs",
				ShortSummary: "Review the onboarding docs",
				Category:     "Process",
				Tags:         model.NewTextField("['docs', 'team']"),
			}, nil
		}}
		uc := usecase.New(repo, testDBs, &fakeExtractor{}, structurer)

		result, err := uc.Ingest.Ingest(ctx, model.NewURLCapture("https://example.com/onboarding"))
		gt.NoError(t, err).Required()
		gt.Value(t, result.State).Equal(usecase.IngestDone)
		gt.Bool(t, result.Degraded).False()

		pages, err := repo.QueryRecords(ctx, testDBs.Inbox, model.Filter{})
		gt.NoError(t, err).Required()
		gt.Array(t, pages).Length(1).Required()

		stored := notion.ParseInboxRecord(pages[0])
		gt.Value(t, stored.ID).Equal(result.Record.ID)
		gt.Value(t, stored.Title).Equal("Onboarding docs")
		gt.Value(t, stored.Category).Equal(types.CategoryProcess)
		gt.Value(t, stored.Tags).Equal([]string{"docs", "team"})
		gt.Value(t, stored.SourceURL).Equal("https://example.com/onboarding")
		gt.Value(t, stored.SourceKind).Equal(types.SourceKindURL)
		gt.Value(t, stored.Status).Equal(types.InboxStatusNew)
	})

	t.Run("structuring failure degrades to raw content", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.New(repo, testDBs, &fakeExtractor{}, &fakeStructurer{})

		result, err := uc.Ingest.Ingest(ctx, model.NewTextCapture("Remember to review onboarding docs"))
		gt.NoError(t, err).Required()
		gt.Value(t, result.State).Equal(usecase.IngestDone)
		gt.Bool(t, result.Degraded).True()
		gt.Error(t, result.StructuringErr).Is(model.ErrTransport)

		pages, err := repo.QueryRecords(ctx, testDBs.Inbox, model.Filter{})
		gt.NoError(t, err).Required()
		gt.Array(t, pages).Length(1).Required()

		stored := notion.ParseInboxRecord(pages[0])
		gt.Value(t, stored.Title).Equal("Untitled")
		gt.Value(t, stored.ShortSummary).Equal("")
		gt.Value(t, stored.Status).Equal(types.InboxStatusNew)
		gt.Value(t, stored.RawContent).Equal("Remember to review onboarding docs")
	})

	t.Run("long content is truncated in the property but kept in the body", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.New(repo, testDBs, &fakeExtractor{}, &fakeStructurer{})
		long := strings.Repeat("字", model.MaxPropertyLength+500)

		result, err := uc.Ingest.Ingest(ctx, model.NewTextCapture(long))
		gt.NoError(t, err).Required()

		pages, err := repo.QueryRecords(ctx, testDBs.Inbox, model.Filter{})
		gt.NoError(t, err).Required()
		gt.Value(t, notion.ParseInboxRecord(pages[0]).RawContent).Equal(strings.Repeat("字", model.MaxPropertyLength))

		blocks, err := repo.GetBlocks(ctx, result.Record.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, blocks).Length(2)
	})

	t.Run("extraction failure writes nothing", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.New(repo, testDBs, &fakeExtractor{err: model.ErrFetch}, &fakeStructurer{})

		result, err := uc.Ingest.Ingest(ctx, model.NewURLCapture("https://example.com"))
		gt.Error(t, err).Is(model.ErrFetch)
		gt.Value(t, result.State).Equal(usecase.IngestFailed)
		gt.Value(t, result.FailedAt).Equal(usecase.IngestExtracting)
		gt.Value(t, repo.Count(testDBs.Inbox)).Equal(0)
	})

	t.Run("persist failure is terminal", func(t *testing.T) {
		repo := memory.New()
		store := &faultyStore{Service: repo, createErr: func(string) error { return model.ErrStoreWrite }}
		uc := usecase.New(store, testDBs, &fakeExtractor{}, &fakeStructurer{})

		result, err := uc.Ingest.Ingest(ctx, model.NewTextCapture("note"))
		gt.Error(t, err).Is(model.ErrStoreWrite)
		gt.Value(t, result.State).Equal(usecase.IngestFailed)
		gt.Value(t, result.FailedAt).Equal(usecase.IngestPersisting)
		gt.Value(t, result.Record).Nil()
		gt.Value(t, repo.Count(testDBs.Inbox)).Equal(0)
	})
}
