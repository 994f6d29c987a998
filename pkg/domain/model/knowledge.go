package model

import (
	"strings"
	"time"

	"github.com/secmon-lab/mindforge/pkg/domain/types"
)

// OriginalThoughtMarker prefixes the title of a knowledge node synthesized from an
// original thought
const OriginalThoughtMarker = "💡 "

// KnowledgeFields is the output of the knowledge extraction contract
type KnowledgeFields struct {
	Title       string    `json:"title"`
	CoreIdea    string    `json:"core_idea"`
	Notes       ListField `json:"notes"`
	KeyInsights ListField `json:"key_insights"`
	UseCases    ListField `json:"use_cases"`
}

// KnowledgeNode is a row of the Knowledge store
type KnowledgeNode struct {
	ID          string
	Title       string
	CoreIdea    string
	Notes       string
	KeyInsights string
	UseCases    string
	Category    types.Category // empty when the source had none
	Tags        []string
	SourceURL   string
	Status      types.KnowledgeStatus
	CreatedTime time.Time // assigned by the store
	SourceID    string    // inbox record the node was synthesized from
}

// NewKnowledgeNode builds a node from extracted fields and carries over the metadata of
// the source inbox record
func NewKnowledgeNode(fields *KnowledgeFields, source *InboxRecord) *KnowledgeNode {
	title := strings.TrimSpace(fields.Title)
	if title == "" {
		title = UntitledTitle
	}

	node := &KnowledgeNode{
		Title:       title,
		CoreIdea:    Truncate(fields.CoreIdea, MaxPropertyLength),
		Notes:       Truncate(fields.Notes.Bulleted(), MaxPropertyLength),
		KeyInsights: Truncate(fields.KeyInsights.Bulleted(), MaxPropertyLength),
		UseCases:    Truncate(fields.UseCases.Bulleted(), MaxPropertyLength),
		Status:      types.KnowledgeStatusActive,
	}

	if source != nil {
		node.SourceID = source.ID
		node.SourceURL = source.SourceURL
		node.Category = source.Category
		node.Tags = append([]string(nil), source.Tags...)
		if source.IsOriginalThought() && !node.IsOriginalIdea() {
			node.Title = OriginalThoughtMarker + node.Title
		}
	}

	return node
}

// IsOriginalIdea reports whether the title carries the original thought marker
func (n *KnowledgeNode) IsOriginalIdea() bool {
	return strings.HasPrefix(strings.TrimSpace(n.Title), strings.TrimSpace(OriginalThoughtMarker))
}
