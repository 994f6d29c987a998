package notion

import (
	"context"
	"net/http"
	"time"

	"github.com/jomei/notionapi"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mindforge/pkg/domain/model"
	"github.com/secmon-lab/mindforge/pkg/utils/logging"
)

const (
	// maxBlocksPerRequest is the number of children the API accepts in one call
	maxBlocksPerRequest = 100
	pageSize            = 100
)

// client implements Service on top of the Notion API
type client struct {
	api *notionapi.Client
}

// Option configures the client
type Option func(*options)

type options struct {
	httpClient *http.Client
}

// WithHTTPClient replaces the HTTP client used for API calls
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// New creates a new Notion service with the provided integration token
func New(token string, opts ...Option) (Service, error) {
	if token == "" {
		return nil, goerr.Wrap(model.ErrConfig, "Notion API token is required")
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	clientOpts := []notionapi.ClientOption{
		notionapi.WithRetry(3), // retries on rate limit (HTTP 429)
	}
	if o.httpClient != nil {
		clientOpts = append(clientOpts, notionapi.WithHTTPClient(o.httpClient))
	}

	return &client{
		api: notionapi.NewClient(notionapi.Token(token), clientOpts...),
	}, nil
}

// CreateRecord creates a page in dbID. The body is written as paragraph blocks; blocks
// beyond the per-request limit are appended in follow-up calls.
func (c *client) CreateRecord(ctx context.Context, dbID string, props notionapi.Properties, body string) (*Page, error) {
	blocks := paragraphBlocks(body)
	first := blocks
	if len(first) > maxBlocksPerRequest {
		first = blocks[:maxBlocksPerRequest]
	}

	resp, err := c.api.Page.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(dbID),
		},
		Properties: props,
		Children:   first,
	})
	if err != nil {
		return nil, goerr.Wrap(model.ErrStoreWrite, "failed to create page",
			goerr.V(model.StoreIDKey, dbID), goerr.V("cause", err.Error()))
	}

	pageID := resp.ID.String()
	for rest := blocks[len(first):]; len(rest) > 0; {
		n := min(len(rest), maxBlocksPerRequest)
		if _, err := c.api.Block.AppendChildren(ctx, notionapi.BlockID(pageID), &notionapi.AppendBlockChildrenRequest{
			Children: rest[:n],
		}); err != nil {
			c.archive(ctx, pageID)
			return nil, goerr.Wrap(model.ErrStoreWrite, "failed to append page body",
				goerr.V(model.StoreIDKey, dbID), goerr.V(model.RecordIDKey, pageID), goerr.V("cause", err.Error()))
		}
		rest = rest[n:]
	}

	logging.From(ctx).Debug("page created", "db_id", dbID, "page_id", pageID, "blocks", len(blocks))

	return toPage(resp), nil
}

// archive removes a partially written page so a failed create leaves no record
func (c *client) archive(ctx context.Context, pageID string) {
	if _, err := c.api.Page.Update(ctx, notionapi.PageID(pageID), &notionapi.PageUpdateRequest{
		Archived: true,
	}); err != nil {
		logging.From(ctx).Error("failed to archive partially written page",
			"page_id", pageID, "error", err.Error())
	}
}

// QueryRecords follows cursor pagination until has_more is false. Any failed page
// discards the results collected so far.
func (c *client) QueryRecords(ctx context.Context, dbID string, filter model.Filter) ([]*Page, error) {
	var (
		pages  []*Page
		cursor notionapi.Cursor
	)

	for {
		resp, err := c.api.Database.Query(ctx, notionapi.DatabaseID(dbID), &notionapi.DatabaseQueryRequest{
			Filter:      buildFilter(filter),
			StartCursor: cursor,
			PageSize:    pageSize,
		})
		if err != nil {
			return nil, goerr.Wrap(model.ErrStoreQuery, "failed to query database",
				goerr.V(model.StoreIDKey, dbID),
				goerr.V("filter", filter),
				goerr.V("fetched", len(pages)),
				goerr.V("cause", err.Error()))
		}

		for i := range resp.Results {
			pages = append(pages, toPage(&resp.Results[i]))
		}

		if !resp.HasMore || resp.NextCursor == "" {
			break
		}
		cursor = resp.NextCursor
	}

	logging.From(ctx).Debug("database queried", "db_id", dbID, "count", len(pages))

	return pages, nil
}

// UpdateStatus sets the Status property. Setting the current value again is a no-op
// on the store side.
func (c *client) UpdateStatus(ctx context.Context, pageID string, status string) error {
	if _, err := c.api.Page.Update(ctx, notionapi.PageID(pageID), &notionapi.PageUpdateRequest{
		Properties: StatusProperties(status),
	}); err != nil {
		return goerr.Wrap(model.ErrStoreWrite, "failed to update page status",
			goerr.V(model.RecordIDKey, pageID), goerr.V("status", status), goerr.V("cause", err.Error()))
	}
	return nil
}

// GetBlocks retrieves all blocks of a page, including nested children
func (c *client) GetBlocks(ctx context.Context, pageID string) (Blocks, error) {
	blocks, err := c.fetchBlocks(ctx, pageID)
	if err != nil {
		return nil, goerr.Wrap(model.ErrStoreQuery, "failed to fetch page blocks",
			goerr.V(model.RecordIDKey, pageID), goerr.V("cause", err.Error()))
	}
	return blocks, nil
}

func (c *client) fetchBlocks(ctx context.Context, blockID string) (Blocks, error) {
	var (
		blocks Blocks
		cursor notionapi.Cursor
	)

	for {
		resp, err := c.api.Block.GetChildren(ctx, notionapi.BlockID(blockID), &notionapi.Pagination{
			StartCursor: cursor,
			PageSize:    pageSize,
		})
		if err != nil {
			return nil, goerr.Wrap(err, "failed to get block children", goerr.V("block_id", blockID))
		}

		for _, obj := range resp.Results {
			block := convertBlock(obj)
			if obj.GetHasChildren() {
				children, err := c.fetchBlocks(ctx, obj.GetID().String())
				if err != nil {
					return nil, err
				}
				block.Children = children
			}
			blocks = append(blocks, block)
		}

		if !resp.HasMore || resp.NextCursor == "" {
			break
		}
		cursor = notionapi.Cursor(resp.NextCursor)
	}

	return blocks, nil
}

func convertBlock(obj notionapi.Block) Block {
	block := Block{
		ID:   obj.GetID().String(),
		Type: obj.GetType(),
	}

	switch b := obj.(type) {
	case *notionapi.ParagraphBlock:
		block.RichText = b.Paragraph.RichText
	case *notionapi.Heading1Block:
		block.RichText = b.Heading1.RichText
	case *notionapi.Heading2Block:
		block.RichText = b.Heading2.RichText
	case *notionapi.Heading3Block:
		block.RichText = b.Heading3.RichText
	case *notionapi.BulletedListItemBlock:
		block.RichText = b.BulletedListItem.RichText
	case *notionapi.NumberedListItemBlock:
		block.RichText = b.NumberedListItem.RichText
	case *notionapi.QuoteBlock:
		block.RichText = b.Quote.RichText
	case *notionapi.CalloutBlock:
		block.RichText = b.Callout.RichText
	case *notionapi.ToggleBlock:
		block.RichText = b.Toggle.RichText
	case *notionapi.CodeBlock:
		block.RichText = b.Code.RichText
		block.Language = b.Code.Language
	case *notionapi.ToDoBlock:
		block.RichText = b.ToDo.RichText
		block.Checked = b.ToDo.Checked
	}

	return block
}

func toPage(p *notionapi.Page) *Page {
	return &Page{
		ID:             p.ID.String(),
		Properties:     p.Properties,
		CreatedTime:    time.Time(p.CreatedTime),
		LastEditedTime: time.Time(p.LastEditedTime),
		URL:            p.URL,
	}
}

// paragraphBlocks splits body into paragraph blocks within the rich text length limit
func paragraphBlocks(body string) []notionapi.Block {
	chunks := BodyChunks(body)
	blocks := make([]notionapi.Block, 0, len(chunks))
	for _, chunk := range chunks {
		blocks = append(blocks, &notionapi.ParagraphBlock{
			BasicBlock: notionapi.BasicBlock{
				Object: notionapi.ObjectTypeBlock,
				Type:   notionapi.BlockTypeParagraph,
			},
			Paragraph: notionapi.Paragraph{
				RichText: []notionapi.RichText{
					{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: chunk}},
				},
			},
		})
	}
	return blocks
}

// BodyChunks splits text into pieces of at most model.MaxPropertyLength characters.
// Blank text yields no chunks.
func BodyChunks(text string) []string {
	runes := []rune(text)
	var chunks []string
	for len(runes) > 0 {
		n := min(len(runes), model.MaxPropertyLength)
		chunk := string(runes[:n])
		runes = runes[n:]
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}
	if len(chunks) == 1 && isBlank(chunks[0]) {
		return nil
	}
	return chunks
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\n' && r != '\t' && r != '\r' {
			return false
		}
	}
	return true
}
