package notion

import (
	"strings"
	"time"

	"github.com/jomei/notionapi"
	"github.com/secmon-lab/mindforge/pkg/domain/model"
	"github.com/secmon-lab/mindforge/pkg/domain/types"
)

// Property names of the Inbox, Knowledge and Review databases
const (
	PropTitle      = "Title"
	PropStatus     = "Status"
	PropCategory   = "Category"
	PropTags       = "Tags"
	PropURL        = "URL"
	PropRawContent = "Raw Content"
	PropShort      = "Short Summary"
	PropExtended   = "Extended Summary"
	PropSourceType = "Source Type"

	PropCoreIdea    = "Core Idea"
	PropNotes       = "Notes"
	PropKeyInsights = "Key Insights"
	PropUseCases    = "Use Cases"

	PropPeriod              = "Period"
	PropDateRange           = "Date Range"
	PropOverallSummary      = "Overall Summary"
	PropKeyTrends           = "Key Trends"
	PropEmergingIdeas       = "Emerging Ideas"
	PropActionableInsights  = "Actionable Insights"
	PropUnansweredQuestions = "Unanswered Questions"
)

// InboxProperties encodes an inbox record as database properties
func InboxProperties(r *model.InboxRecord) notionapi.Properties {
	props := notionapi.Properties{
		PropTitle:      titleProperty(r.Title),
		PropRawContent: richTextProperty(r.RawContent),
		PropShort:      richTextProperty(r.ShortSummary),
		PropExtended:   richTextProperty(r.ExtendedSummary),
		PropCategory:   selectProperty(types.NormalizeCategory(r.Category.String()).String()),
		PropTags:       multiSelectProperty(r.Tags),
		PropStatus:     selectProperty(r.Status.String()),
	}
	if r.SourceKind != "" {
		props[PropSourceType] = selectProperty(r.SourceKind.String())
	}
	if r.SourceURL != "" {
		props[PropURL] = urlProperty(r.SourceURL)
	}
	return props
}

// ParseInboxRecord decodes an inbox page. Missing or unknown values fall back to the
// defaults of a new record.
func ParseInboxRecord(page *Page) *model.InboxRecord {
	props := page.Properties
	record := &model.InboxRecord{
		ID:              page.ID,
		Title:           titleOf(props, PropTitle),
		RawContent:      richTextOf(props, PropRawContent),
		ShortSummary:    richTextOf(props, PropShort),
		ExtendedSummary: richTextOf(props, PropExtended),
		Category:        types.Category(selectOf(props, PropCategory)),
		Tags:            multiSelectOf(props, PropTags),
		Status:          types.InboxStatusNew,
		SourceURL:       urlOf(props, PropURL),
		CreatedTime:     page.CreatedTime,
	}

	if status, err := types.ParseInboxStatus(selectOf(props, PropStatus)); err == nil {
		record.Status = status
	}
	if kind, err := types.ParseSourceKind(selectOf(props, PropSourceType)); err == nil {
		record.SourceKind = kind
	}
	if len(page.Blocks) > 0 {
		record.Body = page.Blocks.ToMarkdown()
	}

	return record
}

// KnowledgeProperties encodes a knowledge node as database properties. Category and
// tags are written only when carried over from the source.
func KnowledgeProperties(n *model.KnowledgeNode) notionapi.Properties {
	props := notionapi.Properties{
		PropTitle:       titleProperty(n.Title),
		PropCoreIdea:    richTextProperty(n.CoreIdea),
		PropNotes:       richTextProperty(n.Notes),
		PropKeyInsights: richTextProperty(n.KeyInsights),
		PropUseCases:    richTextProperty(n.UseCases),
		PropStatus:      selectProperty(types.KnowledgeStatusActive.String()),
	}
	if n.SourceURL != "" {
		props[PropURL] = urlProperty(n.SourceURL)
	}
	if n.Category != "" {
		props[PropCategory] = selectProperty(n.Category.String())
	}
	if len(n.Tags) > 0 {
		props[PropTags] = multiSelectProperty(n.Tags)
	}
	return props
}

// ParseKnowledgeNode decodes a knowledge page
func ParseKnowledgeNode(page *Page) *model.KnowledgeNode {
	props := page.Properties
	return &model.KnowledgeNode{
		ID:          page.ID,
		Title:       titleOf(props, PropTitle),
		CoreIdea:    richTextOf(props, PropCoreIdea),
		Notes:       richTextOf(props, PropNotes),
		KeyInsights: richTextOf(props, PropKeyInsights),
		UseCases:    richTextOf(props, PropUseCases),
		Category:    types.Category(selectOf(props, PropCategory)),
		Tags:        multiSelectOf(props, PropTags),
		SourceURL:   urlOf(props, PropURL),
		Status:      types.KnowledgeStatus(selectOf(props, PropStatus)),
		CreatedTime: page.CreatedTime,
	}
}

// ReviewProperties encodes a review record as database properties
func ReviewProperties(r *model.ReviewRecord) notionapi.Properties {
	return notionapi.Properties{
		PropTitle:               titleProperty(r.Title),
		PropPeriod:              selectProperty(r.Period.Label()),
		PropDateRange:           dateRangeProperty(r.DateRange.Start, r.DateRange.End),
		PropOverallSummary:      richTextProperty(r.OverallSummary),
		PropKeyTrends:           richTextProperty(r.KeyTrends),
		PropEmergingIdeas:       richTextProperty(r.EmergingIdeas),
		PropActionableInsights:  richTextProperty(r.ActionableInsights),
		PropUnansweredQuestions: richTextProperty(r.UnansweredQuestions),
	}
}

// StatusProperties is the update payload of a status transition
func StatusProperties(status string) notionapi.Properties {
	return notionapi.Properties{PropStatus: selectProperty(status)}
}

func textValue(s string) []notionapi.RichText {
	return []notionapi.RichText{
		{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{Content: model.Truncate(s, model.MaxPropertyLength)},
		},
	}
}

func titleProperty(s string) notionapi.TitleProperty {
	return notionapi.TitleProperty{Type: notionapi.PropertyTypeTitle, Title: textValue(s)}
}

func richTextProperty(s string) notionapi.RichTextProperty {
	return notionapi.RichTextProperty{Type: notionapi.PropertyTypeRichText, RichText: textValue(s)}
}

func selectProperty(name string) notionapi.SelectProperty {
	return notionapi.SelectProperty{Type: notionapi.PropertyTypeSelect, Select: notionapi.Option{Name: name}}
}

func multiSelectProperty(names []string) notionapi.MultiSelectProperty {
	options := make([]notionapi.Option, 0, len(names))
	for _, name := range names {
		options = append(options, notionapi.Option{Name: name})
	}
	return notionapi.MultiSelectProperty{Type: notionapi.PropertyTypeMultiSelect, MultiSelect: options}
}

// dateProperty writes calendar dates. notionapi.Date always encodes a full RFC3339
// timestamp, which Notion stores as a datetime.
type dateProperty struct {
	Type notionapi.PropertyType `json:"type"`
	Date dateValue              `json:"date"`
}

type dateValue struct {
	Start string `json:"start"`
	End   string `json:"end,omitempty"`
}

func (p dateProperty) GetID() string                   { return "" }
func (p dateProperty) GetType() notionapi.PropertyType { return p.Type }

func dateRangeProperty(start, end time.Time) dateProperty {
	v := dateValue{Start: start.Format(time.DateOnly)}
	if !end.IsZero() {
		v.End = end.Format(time.DateOnly)
	}
	return dateProperty{Type: notionapi.PropertyTypeDate, Date: v}
}

func urlProperty(u string) notionapi.URLProperty {
	return notionapi.URLProperty{Type: notionapi.PropertyTypeURL, URL: u}
}

// Property readers accept both value and pointer forms: values decoded from the API
// are pointers, values built locally are not.

func titleOf(props notionapi.Properties, name string) string {
	switch p := props[name].(type) {
	case notionapi.TitleProperty:
		return PlainText(p.Title)
	case *notionapi.TitleProperty:
		return PlainText(p.Title)
	}
	return ""
}

func richTextOf(props notionapi.Properties, name string) string {
	switch p := props[name].(type) {
	case notionapi.RichTextProperty:
		return PlainText(p.RichText)
	case *notionapi.RichTextProperty:
		return PlainText(p.RichText)
	}
	return ""
}

func selectOf(props notionapi.Properties, name string) string {
	switch p := props[name].(type) {
	case notionapi.SelectProperty:
		return p.Select.Name
	case *notionapi.SelectProperty:
		return p.Select.Name
	}
	return ""
}

func multiSelectOf(props notionapi.Properties, name string) []string {
	var options []notionapi.Option
	switch p := props[name].(type) {
	case notionapi.MultiSelectProperty:
		options = p.MultiSelect
	case *notionapi.MultiSelectProperty:
		options = p.MultiSelect
	}

	var names []string
	for _, o := range options {
		if n := strings.TrimSpace(o.Name); n != "" {
			names = append(names, n)
		}
	}
	return names
}

func urlOf(props notionapi.Properties, name string) string {
	switch p := props[name].(type) {
	case notionapi.URLProperty:
		return p.URL
	case *notionapi.URLProperty:
		return p.URL
	}
	return ""
}
