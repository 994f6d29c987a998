package usecase

import (
	"context"
	"time"

	"github.com/secmon-lab/mindforge/pkg/domain/model"
	"github.com/secmon-lab/mindforge/pkg/domain/types"
	"github.com/secmon-lab/mindforge/pkg/service/notify"
	"github.com/secmon-lab/mindforge/pkg/service/notion"
)

// DefaultSynthesisDelay is the pause between two items of a synthesis batch
const DefaultSynthesisDelay = 5 * time.Second

// Extractor turns a raw capture into raw text
type Extractor interface {
	Extract(ctx context.Context, capture model.RawCapture) (string, error)
}

// Structurer runs the three extraction contracts
type Structurer interface {
	ExtractInbox(ctx context.Context, rawText string) (*model.InboxFields, error)
	ExtractKnowledge(ctx context.Context, content string) (*model.KnowledgeFields, error)
	ExtractReview(ctx context.Context, notes string, period types.Period) (*model.ReviewFields, error)
}

// Databases holds the IDs of the three stores
type Databases struct {
	Inbox     string
	Knowledge string
	Review    string
}

type UseCases struct {
	store      notion.Service
	dbs        Databases
	extractor  Extractor
	structurer Structurer
	notifier   notify.Sink
	delay      time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
	now        func() time.Time

	Ingest    *IngestUseCase
	Synthesis *SynthesisUseCase
	Review    *ReviewUseCase
	Tasks     *TaskGuard
}

type Option func(*UseCases)

func WithNotifier(sink notify.Sink) Option {
	return func(uc *UseCases) {
		if sink != nil {
			uc.notifier = sink
		}
	}
}

// WithSynthesisDelay sets the pause between synthesis items. Zero disables it.
func WithSynthesisDelay(d time.Duration) Option {
	return func(uc *UseCases) {
		uc.delay = d
	}
}

// WithSleep replaces the function used to pause between synthesis items
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(uc *UseCases) {
		uc.sleep = sleep
	}
}

// WithClock replaces the clock used to compute review periods
func WithClock(now func() time.Time) Option {
	return func(uc *UseCases) {
		uc.now = now
	}
}

func New(store notion.Service, dbs Databases, extractor Extractor, structurer Structurer, opts ...Option) *UseCases {
	uc := &UseCases{
		store:      store,
		dbs:        dbs,
		extractor:  extractor,
		structurer: structurer,
		notifier:   notify.Nop{},
		delay:      DefaultSynthesisDelay,
		sleep:      sleepContext,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Ingest = &IngestUseCase{uc: uc}
	uc.Synthesis = &SynthesisUseCase{uc: uc}
	uc.Review = &ReviewUseCase{uc: uc}
	uc.Tasks = NewTaskGuard()

	return uc
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
