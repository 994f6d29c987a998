package types

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// Category classifies an inbox record. Values are the select option names stored in Notion.
type Category string

const (
	CategoryKnowledge   Category = "Knowledge"
	CategoryToolIdea    Category = "Tool Idea"
	CategoryProcess     Category = "Process"
	CategoryInsight     Category = "Insight"
	CategoryBookNote    Category = "Book Note"
	CategoryMeetingNote Category = "Meeting Note"
)

// AllCategories returns all valid categories
func AllCategories() []Category {
	return []Category{
		CategoryKnowledge,
		CategoryToolIdea,
		CategoryProcess,
		CategoryInsight,
		CategoryBookNote,
		CategoryMeetingNote,
	}
}

// IsValid checks if the category is one of the known values
func (c Category) IsValid() bool {
	switch c {
	case CategoryKnowledge,
		CategoryToolIdea,
		CategoryProcess,
		CategoryInsight,
		CategoryBookNote,
		CategoryMeetingNote:
		return true
	default:
		return false
	}
}

// String returns the string representation of the category
func (c Category) String() string {
	return string(c)
}

// ParseCategory parses a category leniently: case, spaces, hyphens and underscores are
// ignored, so "tool_idea", "ToolIdea" and "Tool Idea" all resolve to CategoryToolIdea.
func ParseCategory(s string) (Category, error) {
	key := categoryKey(s)
	for _, c := range AllCategories() {
		if categoryKey(string(c)) == key {
			return c, nil
		}
	}
	return "", goerr.New("invalid category", goerr.V("category", s))
}

// NormalizeCategory returns the parsed category, or CategoryKnowledge when s is unknown
func NormalizeCategory(s string) Category {
	c, err := ParseCategory(s)
	if err != nil {
		return CategoryKnowledge
	}
	return c
}

func categoryKey(s string) string {
	r := strings.NewReplacer(" ", "", "-", "", "_", "")
	return strings.ToLower(r.Replace(strings.TrimSpace(s)))
}
