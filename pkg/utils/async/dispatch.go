package async

import (
	"context"
	"log/slog"

	"github.com/secmon-lab/mindforge/pkg/utils/errutil"
	"github.com/secmon-lab/mindforge/pkg/utils/logging"
)

// Dispatch runs handler in a new goroutine. The handler gets a background context that
// keeps the caller's logger but not its cancellation, so a task started by an HTTP
// request outlives the request. Errors and panics are logged.
func Dispatch(ctx context.Context, handler func(ctx context.Context) error) {
	bgCtx := logging.With(context.Background(), logging.From(ctx))

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logging.From(bgCtx).Error("panic in async handler", slog.Any("panic", r))
			}
		}()

		if err := handler(bgCtx); err != nil {
			_ = errutil.Handle(bgCtx, err, "async handler failed")
		}
	}()
}
