package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/secmon-lab/mindforge/pkg/domain/types"
)

// OriginalIdeaAnnotation is written before the title of an original idea in the
// consolidated review input
const OriginalIdeaAnnotation = "[ORIGINAL IDEA] "

const dateLayout = "2006-01-02"

// DateRange is an inclusive range of calendar days
type DateRange struct {
	Start time.Time
	End   time.Time
}

// StartDate returns the start formatted as YYYY-MM-DD
func (r DateRange) StartDate() string {
	return r.Start.Format(dateLayout)
}

// EndDate returns the end formatted as YYYY-MM-DD
func (r DateRange) EndDate() string {
	return r.End.Format(dateLayout)
}

// ReviewFields is the output of the review extraction contract
type ReviewFields struct {
	OverallSummary      string    `json:"overall_summary"`
	KeyTrends           ListField `json:"key_trends"`
	EmergingIdeas       ListField `json:"emerging_ideas"`
	ActionableInsights  ListField `json:"actionable_insights"`
	UnansweredQuestions ListField `json:"unanswered_questions"`
}

// ReviewRecord is a row of the Review store. It is never mutated after creation.
type ReviewRecord struct {
	ID                  string
	Title               string
	Period              types.Period
	DateRange           DateRange
	OverallSummary      string
	KeyTrends           string
	EmergingIdeas       string
	ActionableInsights  string
	UnansweredQuestions string
}

// NewReviewRecord builds a review record of period over dateRange
func NewReviewRecord(fields *ReviewFields, period types.Period, dateRange DateRange) *ReviewRecord {
	return &ReviewRecord{
		Title:               ReviewTitle(period, dateRange),
		Period:              period,
		DateRange:           dateRange,
		OverallSummary:      Truncate(fields.OverallSummary, MaxPropertyLength),
		KeyTrends:           Truncate(fields.KeyTrends.Bulleted(), MaxPropertyLength),
		EmergingIdeas:       Truncate(fields.EmergingIdeas.Bulleted(), MaxPropertyLength),
		ActionableInsights:  Truncate(fields.ActionableInsights.Bulleted(), MaxPropertyLength),
		UnansweredQuestions: Truncate(fields.UnansweredQuestions.Bulleted(), MaxPropertyLength),
	}
}

// ReviewTitle formats e.g. "Weekly Review: 2025-01-06 to 2025-01-15"
func ReviewTitle(period types.Period, dateRange DateRange) string {
	return fmt.Sprintf("%s Review: %s to %s", period.Label(), dateRange.StartDate(), dateRange.EndDate())
}

// ConsolidateNotes renders knowledge nodes as one composite text: a heading and quoted
// core idea per node, separated by horizontal rules. Original ideas are annotated.
func ConsolidateNotes(nodes []*KnowledgeNode) string {
	notes := make([]string, 0, len(nodes))
	for _, node := range nodes {
		prefix := ""
		if node.IsOriginalIdea() {
			prefix = OriginalIdeaAnnotation
		}
		notes = append(notes, fmt.Sprintf("## %s%s\n> %s\n", prefix, node.Title, node.CoreIdea))
	}
	return strings.Join(notes, "\n---\n")
}
