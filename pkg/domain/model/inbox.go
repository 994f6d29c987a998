package model

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/secmon-lab/mindforge/pkg/domain/types"
)

// MaxPropertyLength is the longest text the store accepts in a single rich text property
const MaxPropertyLength = 2000

// UntitledTitle is the title of a record whose structuring failed
const UntitledTitle = "Untitled"

// OriginalThoughtTag marks an inbox record as a user-originated idea
const OriginalThoughtTag = "Original Thought"

// InboxFields is the output of the inbox extraction contract
type InboxFields struct {
	Title           string    `json:"title"`
	ShortSummary    string    `json:"short_summary"`
	ExtendedSummary string    `json:"extended_summary"`
	Category        string    `json:"category"`
	Tags            ListField `json:"tags"`
}

// InboxRecord is a row of the Inbox store
type InboxRecord struct {
	ID              string
	Title           string
	RawContent      string
	ShortSummary    string
	ExtendedSummary string
	Category        types.Category
	Tags            []string
	Status          types.InboxStatus
	SourceURL       string
	SourceKind      types.SourceKind
	CreatedTime     time.Time
	// Body is the full page body. It is written on creation and read back by synthesis.
	Body string
}

// NewInboxRecord builds a New inbox record from extracted raw text. When fields is nil
// (structuring failed) the record degrades to raw content only.
func NewInboxRecord(capture RawCapture, rawText string, fields *InboxFields) *InboxRecord {
	record := &InboxRecord{
		Title:      UntitledTitle,
		RawContent: Truncate(rawText, MaxPropertyLength),
		Category:   types.CategoryKnowledge,
		Status:     types.InboxStatusNew,
		SourceURL:  capture.OriginURL,
		SourceKind: capture.SourceKind,
		Body:       rawText,
	}

	if fields == nil {
		return record
	}

	if title := strings.TrimSpace(fields.Title); title != "" {
		record.Title = title
	}
	record.ShortSummary = Truncate(fields.ShortSummary, MaxPropertyLength)
	record.ExtendedSummary = Truncate(fields.ExtendedSummary, MaxPropertyLength)
	record.Category = types.NormalizeCategory(fields.Category)
	record.Tags = NormalizeTags(fields.Tags.Items())

	return record
}

// IsOriginalThought reports whether the record carries the original thought tag
func (r *InboxRecord) IsOriginalThought() bool {
	for _, tag := range r.Tags {
		if tag == OriginalThoughtTag {
			return true
		}
	}
	return false
}

// SynthesisInput renders the text given to the knowledge extraction contract. The body
// falls back to the raw content property when the page has no body.
func (r *InboxRecord) SynthesisInput() string {
	body := strings.TrimSpace(r.Body)
	if body == "" {
		body = strings.TrimSpace(r.RawContent)
	}

	if strings.TrimSpace(r.Title) == "" && strings.TrimSpace(r.ShortSummary) == "" &&
		strings.TrimSpace(r.ExtendedSummary) == "" && body == "" {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\nShort Summary: %s\n\n%s", r.Title, r.ShortSummary, r.ExtendedSummary)
	if body != "" {
		fmt.Fprintf(&b, "\n\n%s", body)
	}
	return b.String()
}

// NormalizeTags splits comma separated entries, trims and de-duplicates tags while
// keeping their order. Commas are not allowed in select option names of the store.
func NormalizeTags(tags []string) []string {
	var result []string
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		for _, part := range strings.Split(tag, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if _, ok := seen[part]; ok {
				continue
			}
			seen[part] = struct{}{}
			result = append(result, part)
		}
	}
	return result
}

// Truncate cuts s to at most n characters without splitting a multi-byte character
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
