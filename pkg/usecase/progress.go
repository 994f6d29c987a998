package usecase

import "context"

// Reporter receives progress of a running pipeline
type Reporter interface {
	Step(message string)
	Progress(done, total int)
}

type nopReporter struct{}

func (nopReporter) Step(string) {}
func (nopReporter) Progress(int, int) {}

type ctxReporterKey struct{}

// WithReporter returns a context whose pipeline runs report to r
func WithReporter(ctx context.Context, r Reporter) context.Context {
	return context.WithValue(ctx, ctxReporterKey{}, r)
}

func reporterFrom(ctx context.Context) Reporter {
	if r, ok := ctx.Value(ctxReporterKey{}).(Reporter); ok && r != nil {
		return r
	}
	return nopReporter{}
}
