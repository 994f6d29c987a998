package notify

import (
	"bytes"
	"html"
	"strings"

	"github.com/secmon-lab/mindforge/pkg/domain/model"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

// KnowledgeMessage builds the notification for a newly synthesized knowledge node
func KnowledgeMessage(node *model.KnowledgeNode) (string, string) {
	var b strings.Builder
	b.WriteString("# " + node.Title + "\n\n")
	writeSection(&b, "Core Idea", node.CoreIdea)
	writeSection(&b, "Key Insights", node.KeyInsights)
	writeSection(&b, "Use Cases", node.UseCases)
	writeSection(&b, "Notes", node.Notes)
	if node.SourceURL != "" {
		b.WriteString("Source: " + node.SourceURL + "\n")
	}

	return "New Knowledge Node: " + node.Title, b.String()
}

// ReviewMessage builds the notification for a finished trend review
func ReviewMessage(review *model.ReviewRecord) (string, string) {
	var b strings.Builder
	b.WriteString("# " + review.Title + "\n\n")
	writeSection(&b, "Overall Summary", review.OverallSummary)
	writeSection(&b, "Key Trends", review.KeyTrends)
	writeSection(&b, "Emerging Ideas", review.EmergingIdeas)
	writeSection(&b, "Actionable Insights", review.ActionableInsights)
	writeSection(&b, "Unanswered Questions", review.UnansweredQuestions)

	return "📊 " + review.Period.Label() + " Trend Review", b.String()
}

func writeSection(b *strings.Builder, heading, body string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	b.WriteString("## " + heading + "\n\n")
	b.WriteString(bulletsToMarkdown(body))
	b.WriteString("\n\n")
}

// bulletsToMarkdown turns "• item" lines into markdown list items so they do not
// collapse into one paragraph
func bulletsToMarkdown(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i, line := range lines {
		if rest, ok := strings.CutPrefix(strings.TrimSpace(line), strings.TrimSpace(model.Bullet)); ok {
			lines[i] = "- " + strings.TrimSpace(rest)
		}
	}
	return strings.Join(lines, "\n")
}

// RenderHTML converts a markdown body to HTML. On conversion failure the markdown is
// returned inside <pre>.
func RenderHTML(md string) string {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return preformatted(md)
	}
	return buf.String()
}

func preformatted(text string) string {
	return "<pre>" + html.EscapeString(text) + "</pre>"
}
