package structuring

import (
	"fmt"
	"strings"

	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/mindforge/pkg/domain/model"
	"github.com/secmon-lab/mindforge/pkg/domain/types"
)

// Contract is a fixed extraction contract: what the model must produce from the input
type Contract struct {
	Name string
	// Role and Task open the system prompt
	Role string
	Task string
	// Rules are extra instructions appended after the language rule
	Rules []string
	// Fields are the keys of the output object, in prompt order
	Fields []Field
	// Structured requires a single JSON object as answer
	Structured bool
	// UserPrefix introduces the input in the user prompt
	UserPrefix string
}

// Field is one key of the output object
type Field struct {
	Name        string
	Type        gollem.ParameterType
	Description string
	Required    bool
}

// Required returns the names of required fields
func (c Contract) Required() []string {
	var names []string
	for _, f := range c.Fields {
		if f.Required {
			names = append(names, f.Name)
		}
	}
	return names
}

// Schema returns the output shape as a gollem parameter
func (c Contract) Schema() *gollem.Parameter {
	props := make(map[string]*gollem.Parameter, len(c.Fields))
	for _, f := range c.Fields {
		p := &gollem.Parameter{
			Type:        f.Type,
			Description: f.Description,
			Required:    f.Required,
		}
		if f.Type == gollem.TypeArray {
			p.Items = &gollem.Parameter{Type: gollem.TypeString}
		}
		props[f.Name] = p
	}

	return &gollem.Parameter{
		Title:       c.Name,
		Description: c.Task,
		Type:        gollem.TypeObject,
		Properties:  props,
	}
}

// SystemPrompt renders the instructions for the given output language
func (c Contract) SystemPrompt(language string) string {
	var sb strings.Builder

	sb.WriteString(c.Role)
	sb.WriteString(" ")
	sb.WriteString(c.Task)
	sb.WriteString("\n\n## Rules\n\n")
	fmt.Fprintf(&sb, "- Every output value, including titles, summaries and tags, MUST be written in %s.\n", language)
	for _, rule := range c.Rules {
		sb.WriteString("- ")
		sb.WriteString(rule)
		sb.WriteString("\n")
	}
	if c.Structured {
		sb.WriteString("- Output a single valid JSON object only, without explanations or markdown fences.\n")
		sb.WriteString("- Every key listed below must be present in the JSON object.\n")
	}

	sb.WriteString("\n## Output keys\n\n")
	for _, f := range c.Fields {
		fmt.Fprintf(&sb, "- %q (%s", f.Name, f.Type)
		if f.Required {
			sb.WriteString(", required")
		}
		fmt.Fprintf(&sb, "): %s\n", f.Description)
	}

	return sb.String()
}

// UserPrompt wraps the input between separators
func (c Contract) UserPrompt(input string) string {
	return c.UserPrefix + "\n\n---\n" + input + "\n---"
}

func categoryChoices() string {
	names := make([]string, 0, len(types.AllCategories()))
	for _, c := range types.AllCategories() {
		names = append(names, "'"+c.String()+"'")
	}
	return strings.Join(names, ", ")
}

// InboxContract extracts title, summaries, category and tags of a captured item
func InboxContract() Contract {
	return Contract{
		Name:       "InboxExtraction",
		Role:       "You are an efficient information processing assistant.",
		Task:       "Analyze the text provided by the user and output the result strictly in the specified JSON format.",
		Rules:      []string{`The "title" key must never be omitted.`},
		Structured: true,
		UserPrefix: "Process the following text:",
		Fields: []Field{
			{Name: "title", Type: gollem.TypeString, Required: true, Description: "A concise and precise title for the text."},
			{Name: "short_summary", Type: gollem.TypeString, Description: "A core summary of no more than 5 sentences."},
			{Name: "extended_summary", Type: gollem.TypeString, Description: "A more detailed summary of about 2-3 paragraphs."},
			{Name: "category", Type: gollem.TypeString, Description: "The most suitable category, one of: " + categoryChoices() + "."},
			{Name: "tags", Type: gollem.TypeArray, Description: "3 to 5 relevant keyword tags."},
		},
	}
}

// KnowledgeContract distills an inbox record into a knowledge node
func KnowledgeContract() Contract {
	return Contract{
		Name:       "KnowledgeExtraction",
		Role:       "You are a knowledge integration expert.",
		Task:       "Distill the input notes and summaries into one structured knowledge node.",
		Structured: true,
		UserPrefix: "Convert the following content into a knowledge node:",
		Fields: []Field{
			{Name: "title", Type: gollem.TypeString, Required: true, Description: "A precise title for the knowledge node."},
			{Name: "core_idea", Type: gollem.TypeString, Required: true, Description: "The core concept in one or two sentences."},
			{Name: "notes", Type: gollem.TypeArray, Description: "The original content organized as structured notes."},
			{Name: "key_insights", Type: gollem.TypeArray, Description: "2-4 key insights or inspirations."},
			{Name: "use_cases", Type: gollem.TypeArray, Description: "Potential application scenarios of this knowledge."},
		},
	}
}

// ReviewContract analyzes the consolidated notes of a period
func ReviewContract(period types.Period) Contract {
	return Contract{
		Name: "ReviewExtraction",
		Role: "You are a top strategic analyst and researcher.",
		Task: fmt.Sprintf("Analyze the collection of notes the user gathered over the past period (%s) and extract high-level insights.", period),
		Rules: []string{
			"Think deeply: do not only summarize, find hidden connections, recurring themes and emerging trends across the notes.",
			"Some titles are prefixed with " + strings.TrimSpace(model.OriginalIdeaAnnotation) + ". These are the user's original ideas and have very high value: weight them higher and build on them in \"emerging_ideas\" and \"actionable_insights\".",
		},
		Structured: true,
		UserPrefix: "Here is my collection of notes, please analyze it:",
		Fields: []Field{
			{Name: "overall_summary", Type: gollem.TypeString, Required: true, Description: "An executive summary of the learning and thinking of the whole period."},
			{Name: "key_trends", Type: gollem.TypeArray, Description: "3-5 key trends or themes that recur or emerge in this period."},
			{Name: "emerging_ideas", Type: gollem.TypeArray, Description: "Independent, novel ideas worth attention. Prefer ideas drawn from original ideas."},
			{Name: "actionable_insights", Type: gollem.TypeArray, Description: "2-3 concrete, actionable suggestions based on the observed trends."},
			{Name: "unanswered_questions", Type: gollem.TypeArray, Description: "Questions raised by these notes that are worth exploring further."},
		},
	}
}
