package usecase_test

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jomei/notionapi"
	"github.com/secmon-lab/mindforge/pkg/domain/model"
	"github.com/secmon-lab/mindforge/pkg/domain/types"
	"github.com/secmon-lab/mindforge/pkg/repository/memory"
	"github.com/secmon-lab/mindforge/pkg/service/notion"
	"github.com/secmon-lab/mindforge/pkg/usecase"
)

var testDBs = usecase.Databases{Inbox: "inbox-db", Knowledge: "knowledge-db", Review: "review-db"}

type fakeExtractor struct {
	err error
}

func (f *fakeExtractor) Extract(_ context.Context, capture model.RawCapture) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return capture.Content, nil
}

type fakeStructurer struct {
	mu          sync.Mutex
	inbox       func(rawText string) (*model.InboxFields, error)
	knowledge   func(content string) (*model.KnowledgeFields, error)
	review      func(notes string) (*model.ReviewFields, error)
	reviewNotes []string
}

func (f *fakeStructurer) ExtractInbox(_ context.Context, rawText string) (*model.InboxFields, error) {
	if f.inbox == nil {
		return nil, model.ErrTransport
	}
	return f.inbox(rawText)
}

func (f *fakeStructurer) ExtractKnowledge(_ context.Context, content string) (*model.KnowledgeFields, error) {
	if f.knowledge == nil {
		return nil, model.ErrTransport
	}
	return f.knowledge(content)
}

func (f *fakeStructurer) ExtractReview(_ context.Context, notes string, _ types.Period) (*model.ReviewFields, error) {
	f.mu.Lock()
	f.reviewNotes = append(f.reviewNotes, notes)
	f.mu.Unlock()
	if f.review == nil {
		return nil, model.ErrTransport
	}
	return f.review(notes)
}

// knowledgeFromContent fails for inputs containing FAIL and titles the node after the
// first line of the input
func knowledgeFromContent(content string) (*model.KnowledgeFields, error) {
	if strings.Contains(content, "FAIL") {
		return nil, model.ErrSchema
	}
	title := strings.TrimPrefix(strings.SplitN(content, "\n", 2)[0], "Title: ")
	return &model.KnowledgeFields{
		Title:       title,
		CoreIdea:    "core of " + title,
		KeyInsights: model.NewListField("a", "b"),
	}, nil
}

type recordingSink struct {
	mu       sync.Mutex
	subjects []string
}

func (s *recordingSink) Notify(_ context.Context, subject, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subjects = append(s.subjects, subject)
}

// faultyStore lets a test fail individual store operations
type faultyStore struct {
	notion.Service
	createErr func(dbID string) error
	queryErr  error
	updateErr error
	blocksErr error
	// ignoreFilter returns every record of the database from QueryRecords
	ignoreFilter bool
}

func (s *faultyStore) CreateRecord(ctx context.Context, dbID string, props notionapi.Properties, body string) (*notion.Page, error) {
	if s.createErr != nil {
		if err := s.createErr(dbID); err != nil {
			return nil, err
		}
	}
	return s.Service.CreateRecord(ctx, dbID, props, body)
}

func (s *faultyStore) QueryRecords(ctx context.Context, dbID string, filter model.Filter) ([]*notion.Page, error) {
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	if s.ignoreFilter {
		filter = model.Filter{}
	}
	return s.Service.QueryRecords(ctx, dbID, filter)
}

func (s *faultyStore) UpdateStatus(ctx context.Context, pageID string, status string) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	return s.Service.UpdateStatus(ctx, pageID, status)
}

func (s *faultyStore) GetBlocks(ctx context.Context, pageID string) (notion.Blocks, error) {
	if s.blocksErr != nil {
		return nil, s.blocksErr
	}
	return s.Service.GetBlocks(ctx, pageID)
}

func noSleep(calls *int) usecase.Option {
	return usecase.WithSleep(func(context.Context, time.Duration) error {
		*calls++
		return nil
	})
}

func seedInbox(ctx context.Context, repo *memory.Memory, titles ...string) []string {
	ids := make([]string, 0, len(titles))
	for _, title := range titles {
		record := model.NewInboxRecord(model.NewTextCapture(title), "body of "+title, &model.InboxFields{Title: title})
		page, err := repo.CreateRecord(ctx, testDBs.Inbox, notion.InboxProperties(record), record.Body)
		if err != nil {
			panic(err)
		}
		ids = append(ids, page.ID)
	}
	return ids
}

func countStatus(ctx context.Context, repo notion.Service, status types.InboxStatus) int {
	pages, err := repo.QueryRecords(ctx, testDBs.Inbox, model.StatusFilter(status))
	if err != nil {
		panic(err)
	}
	return len(pages)
}
