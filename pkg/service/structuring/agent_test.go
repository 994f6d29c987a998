package structuring_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/mindforge/pkg/domain/model"
	"github.com/secmon-lab/mindforge/pkg/domain/types"
	"github.com/secmon-lab/mindforge/pkg/service/llm"
	"github.com/secmon-lab/mindforge/pkg/service/structuring"
)

type fakeBackend struct {
	answer string
	err    error
	reqs   []llm.Request
}

func (b *fakeBackend) Invoke(ctx context.Context, req llm.Request) (string, error) {
	b.reqs = append(b.reqs, req)
	return b.answer, b.err
}

func TestExtractInbox(t *testing.T) {
	backend := &fakeBackend{answer: `{"title":"Onboarding","short_summary":"s","category":"Process","tags":"['docs', 'team']"}`}
	agent := structuring.New(backend)

	fields, err := agent.ExtractInbox(context.Background(), "Remember to review onboarding docs")
	gt.NoError(t, err).Required()
	gt.Value(t, fields.Title).Equal("Onboarding")
	gt.Value(t, fields.Tags.Items()).Equal([]string{"docs", "team"})

	gt.Array(t, backend.reqs).Length(1).Required()
	req := backend.reqs[0]
	gt.Bool(t, req.Structured).True()
	gt.Value(t, req.Schema).NotNil()
	gt.String(t, req.System).Contains("Traditional Chinese")
	gt.String(t, req.System).Contains(`"title"`)
	gt.String(t, req.User).Contains("---\nRemember to review onboarding docs\n---")
}

func TestExtractKnowledgeLanguage(t *testing.T) {
	backend := &fakeBackend{answer: `{"title":"T","core_idea":"C","notes":["a","b"]}`}
	agent := structuring.New(backend, structuring.WithLanguage("English"))

	fields, err := agent.ExtractKnowledge(context.Background(), "content")
	gt.NoError(t, err).Required()
	gt.Value(t, fields.Notes.Bulleted()).Equal("• a\n• b")
	gt.String(t, backend.reqs[0].System).Contains("written in English")
}

func TestExtractReviewPrompt(t *testing.T) {
	backend := &fakeBackend{answer: `{"overall_summary":"S","key_trends":["t"]}`}
	agent := structuring.New(backend)

	fields, err := agent.ExtractReview(context.Background(), "## [ORIGINAL IDEA] 💡 X\n> y\n", types.PeriodMonthly)
	gt.NoError(t, err).Required()
	gt.Value(t, fields.OverallSummary).Equal("S")
	gt.String(t, backend.reqs[0].System).Contains("[ORIGINAL IDEA]")
	gt.String(t, backend.reqs[0].System).Contains("monthly")
}

func TestStructureFailures(t *testing.T) {
	testCases := []struct {
		name    string
		backend *fakeBackend
		want    error
	}{
		{name: "invalid JSON", backend: &fakeBackend{answer: `{"title": "unterminated`}, want: model.ErrSchema},
		{name: "missing required key", backend: &fakeBackend{answer: `{"short_summary":"s"}`}, want: model.ErrSchema},
		{name: "blank required key", backend: &fakeBackend{answer: `{"title":"  "}`}, want: model.ErrSchema},
		{name: "wrong type", backend: &fakeBackend{answer: `{"title":42}`}, want: model.ErrSchema},
		{name: "backend failure", backend: &fakeBackend{err: goerr.Wrap(model.ErrTransport, "down")}, want: model.ErrTransport},
		{name: "empty answer", backend: &fakeBackend{err: goerr.Wrap(model.ErrEmptyResponse, "blank")}, want: model.ErrEmptyResponse},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := structuring.New(tc.backend).ExtractInbox(context.Background(), "x")
			gt.Error(t, err).Is(tc.want)
			gt.Bool(t, model.IsStructuringError(err)).True()
		})
	}
}

func TestContractSchema(t *testing.T) {
	schema := structuring.KnowledgeContract().Schema()
	gt.Value(t, len(schema.Properties)).Equal(5)
	gt.Bool(t, schema.Properties["title"].Required).True()
	gt.Bool(t, schema.Properties["core_idea"].Required).True()
	gt.Bool(t, schema.Properties["notes"].Required).False()
	gt.Value(t, schema.Properties["notes"].Items).NotNil()

	gt.Value(t, structuring.InboxContract().Required()).Equal([]string{"title"})
	gt.Value(t, structuring.ReviewContract(types.PeriodWeekly).Required()).Equal([]string{"overall_summary"})
}
