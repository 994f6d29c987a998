package errutil_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/mindforge/pkg/utils/errutil"
)

func TestHandle(t *testing.T) {
	ctx := context.Background()
	gt.NoError(t, errutil.Handle(ctx, nil, "nothing"))

	err := goerr.New("boom", goerr.V("key", "value"))
	gt.Value(t, errutil.Handle(ctx, err, "failed")).Equal(err)
}

func TestHandleHTTP(t *testing.T) {
	w := httptest.NewRecorder()
	errutil.HandleHTTP(context.Background(), w, goerr.New("bad request body"), http.StatusBadRequest)

	gt.Value(t, w.Code).Equal(http.StatusBadRequest)
	gt.String(t, w.Body.String()).Contains("bad request body")
}

func TestHandleReportsToSentry(t *testing.T) {
	transport := &sentry.MockTransport{}
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:       "https://public@sentry.example.com/1",
		Transport: transport,
	})
	gt.NoError(t, err).Required()

	hub := sentry.CurrentHub()
	hub.BindClient(client)
	defer hub.BindClient(nil)

	cause := goerr.New("store rejected write", goerr.V("database_id", "db-1"))
	errutil.Handle(context.Background(), cause, "failed to save record")

	events := transport.Events()
	gt.Array(t, events).Length(1).Required()
	gt.Value(t, events[0].Tags["message"]).Equal("failed to save record")
	gt.Value(t, events[0].Contexts["error_values"]["database_id"]).Equal(any("db-1"))
}
