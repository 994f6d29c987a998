package notion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jomei/notionapi"
	"github.com/secmon-lab/mindforge/pkg/domain/model"
)

// Service is the subset of the paged database the pipeline needs
type Service interface {
	// CreateRecord creates a page in a database. body, if not empty, is written as the
	// page content.
	CreateRecord(ctx context.Context, dbID string, props notionapi.Properties, body string) (*Page, error)

	// QueryRecords returns every page of a database matching filter, following
	// pagination until exhausted. On failure no partial result is returned.
	QueryRecords(ctx context.Context, dbID string, filter model.Filter) ([]*Page, error)

	// UpdateStatus sets the Status select property of a page
	UpdateStatus(ctx context.Context, pageID string, status string) error

	// GetBlocks returns the content blocks of a page, including nested children
	GetBlocks(ctx context.Context, pageID string) (Blocks, error)
}

// Page is a database record with its properties and, when fetched, its content
type Page struct {
	ID             string
	Properties     notionapi.Properties
	Blocks         Blocks
	CreatedTime    time.Time
	LastEditedTime time.Time
	URL            string
}

// Block is a content block with its children
type Block struct {
	ID       string
	Type     notionapi.BlockType
	RichText []notionapi.RichText
	Language string // code blocks
	Checked  bool   // to-do blocks
	Children Blocks
}

// Blocks is a sequence of sibling blocks
type Blocks []Block

// ToMarkdown renders blocks as Markdown text
func (b Blocks) ToMarkdown() string {
	var sb strings.Builder
	b.render(&sb, 0)
	return sb.String()
}

func (b Blocks) render(sb *strings.Builder, depth int) {
	indent := strings.Repeat("  ", depth)
	number := 0

	for _, block := range b {
		if block.Type == notionapi.BlockTypeNumberedListItem {
			number++
		} else {
			number = 0
		}

		text := RichTextToMarkdown(block.RichText)

		switch block.Type {
		case notionapi.BlockTypeParagraph:
			if text != "" {
				sb.WriteString(indent + text + "\n")
			}
		case notionapi.BlockTypeHeading1:
			sb.WriteString(indent + "# " + text + "\n")
		case notionapi.BlockTypeHeading2:
			sb.WriteString(indent + "## " + text + "\n")
		case notionapi.BlockTypeHeading3:
			sb.WriteString(indent + "### " + text + "\n")
		case notionapi.BlockTypeBulletedListItem:
			sb.WriteString(indent + "- " + text + "\n")
		case notionapi.BlockTypeNumberedListItem:
			fmt.Fprintf(sb, "%s%d. %s\n", indent, number, text)
		case notionapi.BlockTypeQuote, notionapi.BlockTypeCallout:
			sb.WriteString(indent + "> " + text + "\n")
		case notionapi.BlockTypeCode:
			sb.WriteString(indent + "```" + block.Language + "\n")
			sb.WriteString(indent + text + "\n")
			sb.WriteString(indent + "```\n")
		case notionapi.BlockTypeToDo:
			mark := " "
			if block.Checked {
				mark = "x"
			}
			sb.WriteString(indent + "- [" + mark + "] " + text + "\n")
		case notionapi.BlockTypeDivider:
			sb.WriteString(indent + "---\n")
		default:
			if text != "" {
				sb.WriteString(indent + text + "\n")
			}
		}

		if len(block.Children) > 0 {
			block.Children.render(sb, depth+1)
		}
	}
}

// RichTextToMarkdown concatenates rich text segments, keeping inline formatting
func RichTextToMarkdown(rts []notionapi.RichText) string {
	var sb strings.Builder
	for _, rt := range rts {
		text := richTextContent(rt)
		if a := rt.Annotations; a != nil {
			if a.Code {
				text = "`" + text + "`"
			}
			if a.Bold {
				text = "**" + text + "**"
			}
			if a.Italic {
				text = "*" + text + "*"
			}
			if a.Strikethrough {
				text = "~~" + text + "~~"
			}
		}
		if rt.Href != "" {
			text = "[" + text + "](" + rt.Href + ")"
		}
		sb.WriteString(text)
	}
	return sb.String()
}

// PlainText concatenates rich text segments without formatting
func PlainText(rts []notionapi.RichText) string {
	var sb strings.Builder
	for _, rt := range rts {
		sb.WriteString(richTextContent(rt))
	}
	return sb.String()
}

// richTextContent prefers plain_text returned by the API and falls back to the text
// content of locally built values
func richTextContent(rt notionapi.RichText) string {
	if rt.PlainText != "" {
		return rt.PlainText
	}
	if rt.Text != nil {
		return rt.Text.Content
	}
	return ""
}
