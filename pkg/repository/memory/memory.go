package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jomei/notionapi"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mindforge/pkg/domain/model"
	"github.com/secmon-lab/mindforge/pkg/service/notion"
)

// Memory is an in-process knowledge store. It evaluates the same filters as the paged
// database and is used for development and tests.
type Memory struct {
	mu    sync.RWMutex
	pages map[string]*storedPage
	order []string
	now   func() time.Time
}

type storedPage struct {
	dbID string
	page *notion.Page
}

var _ notion.Service = &Memory{}

// Option configures Memory
type Option func(*Memory)

// WithClock replaces the clock assigning creation timestamps
func WithClock(now func() time.Time) Option {
	return func(m *Memory) {
		m.now = now
	}
}

// New creates an empty store
func New(opts ...Option) *Memory {
	m := &Memory{
		pages: make(map[string]*storedPage),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func copyPage(p *notion.Page) *notion.Page {
	copied := *p
	copied.Properties = maps.Clone(p.Properties)
	if p.Blocks != nil {
		copied.Blocks = make(notion.Blocks, len(p.Blocks))
		copy(copied.Blocks, p.Blocks)
	}
	return &copied
}

// CreateRecord stores a page in dbID with its body split into paragraph blocks
func (m *Memory) CreateRecord(ctx context.Context, dbID string, props notionapi.Properties, body string) (*notion.Page, error) {
	if dbID == "" {
		return nil, goerr.Wrap(model.ErrStoreWrite, "database ID is empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	page := &notion.Page{
		ID:             uuid.New().String(),
		Properties:     maps.Clone(props),
		CreatedTime:    now,
		LastEditedTime: now,
	}
	page.URL = "memory://" + dbID + "/" + page.ID

	for _, chunk := range notion.BodyChunks(body) {
		page.Blocks = append(page.Blocks, notion.Block{
			ID:       uuid.New().String(),
			Type:     notionapi.BlockTypeParagraph,
			RichText: []notionapi.RichText{{PlainText: chunk}},
		})
	}

	m.pages[page.ID] = &storedPage{dbID: dbID, page: page}
	m.order = append(m.order, page.ID)

	return copyPage(page), nil
}

// QueryRecords returns pages of dbID matching filter in creation order
func (m *Memory) QueryRecords(ctx context.Context, dbID string, filter model.Filter) ([]*notion.Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var pages []*notion.Page
	for _, id := range m.order {
		stored := m.pages[id]
		if stored.dbID != dbID || !matches(stored.page, filter) {
			continue
		}
		p := copyPage(stored.page)
		p.Blocks = nil // query results carry properties only
		pages = append(pages, p)
	}
	return pages, nil
}

// UpdateStatus replaces the Status property of a page
func (m *Memory) UpdateStatus(ctx context.Context, pageID string, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.pages[pageID]
	if !ok {
		return goerr.Wrap(model.ErrStoreWrite, "page not found", goerr.V(model.RecordIDKey, pageID))
	}

	props := maps.Clone(stored.page.Properties)
	if props == nil {
		props = notionapi.Properties{}
	}
	maps.Copy(props, notion.StatusProperties(status))
	stored.page.Properties = props
	stored.page.LastEditedTime = m.now().UTC()
	return nil
}

// GetBlocks returns the body blocks of a page
func (m *Memory) GetBlocks(ctx context.Context, pageID string) (notion.Blocks, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored, ok := m.pages[pageID]
	if !ok {
		return nil, goerr.Wrap(model.ErrStoreQuery, "page not found", goerr.V(model.RecordIDKey, pageID))
	}
	return copyPage(stored.page).Blocks, nil
}

// Count returns the number of pages stored in dbID
func (m *Memory) Count(dbID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, stored := range m.pages {
		if stored.dbID == dbID {
			n++
		}
	}
	return n
}

func matches(page *notion.Page, filter model.Filter) bool {
	if filter.Status != "" && statusOf(page.Properties) != filter.Status {
		return false
	}
	if !filter.CreatedOnOrAfter.IsZero() && page.CreatedTime.Before(filter.CreatedOnOrAfter) {
		return false
	}
	return true
}

// statusOf reads the Status select in both the value and the pointer form
func statusOf(props notionapi.Properties) string {
	switch p := props[notion.PropStatus].(type) {
	case notionapi.SelectProperty:
		return p.Select.Name
	case *notionapi.SelectProperty:
		return p.Select.Name
	}
	return ""
}
