package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	server "github.com/secmon-lab/mindforge/pkg/controller/http"
	"github.com/secmon-lab/mindforge/pkg/domain/model"
	"github.com/secmon-lab/mindforge/pkg/domain/types"
	"github.com/secmon-lab/mindforge/pkg/repository/memory"
	"github.com/secmon-lab/mindforge/pkg/usecase"
)

var dbs = usecase.Databases{Inbox: "inbox", Knowledge: "knowledge", Review: "review"}

type echoExtractor struct {
	paths chan string
}

func (x *echoExtractor) Extract(_ context.Context, capture model.RawCapture) (string, error) {
	if capture.SourceKind == types.SourceKindImage {
		if x.paths != nil {
			x.paths <- capture.Content
		}
		return "recognized text", nil
	}
	return capture.Content, nil
}

type stubStructurer struct {
	block chan struct{}
}

func (s *stubStructurer) ExtractInbox(_ context.Context, raw string) (*model.InboxFields, error) {
	if s.block != nil {
		<-s.block
	}
	return &model.InboxFields{Title: "T: " + raw}, nil
}

func (s *stubStructurer) ExtractKnowledge(context.Context, string) (*model.KnowledgeFields, error) {
	return &model.KnowledgeFields{Title: "node", CoreIdea: "idea"}, nil
}

func (s *stubStructurer) ExtractReview(context.Context, string, types.Period) (*model.ReviewFields, error) {
	return &model.ReviewFields{OverallSummary: "summary"}, nil
}

type taskView struct {
	Running bool `json:"running"`
	Task    *struct {
		ID     string          `json:"id"`
		Kind   string          `json:"kind"`
		State  string          `json:"state"`
		Error  string          `json:"error"`
		Result json.RawMessage `json:"result"`
	} `json:"task"`
}

func newTestServer(t *testing.T, extractor usecase.Extractor, structurer usecase.Structurer) (*httptest.Server, *memory.Memory) {
	t.Helper()
	repo := memory.New()
	uc := usecase.New(repo, dbs, extractor, structurer, usecase.WithSynthesisDelay(0))
	srv := httptest.NewServer(server.New(uc, server.WithUploadDir(t.TempDir())))
	t.Cleanup(srv.Close)
	return srv, repo
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	gt.NoError(t, err).Required()
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	gt.NoError(t, err).Required()
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func waitTask(t *testing.T, baseURL string) taskView {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(baseURL + "/api/tasks")
		gt.NoError(t, err).Required()
		var view taskView
		gt.NoError(t, json.NewDecoder(resp.Body).Decode(&view)).Required()
		_ = resp.Body.Close()
		if view.Task != nil && !view.Running {
			return view
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("task did not finish")
	return taskView{}
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, &echoExtractor{}, &stubStructurer{})
	resp, err := http.Get(srv.URL + "/health")
	gt.NoError(t, err).Required()
	defer resp.Body.Close()
	gt.Value(t, resp.StatusCode).Equal(http.StatusOK)
}

func TestInboxText(t *testing.T) {
	srv, repo := newTestServer(t, &echoExtractor{}, &stubStructurer{})

	resp := postJSON(t, srv.URL+"/api/inbox/text", map[string]string{"text": "hello"})
	gt.Value(t, resp.StatusCode).Equal(http.StatusAccepted)
	var accepted struct {
		TaskID string `json:"task_id"`
	}
	gt.NoError(t, json.NewDecoder(resp.Body).Decode(&accepted)).Required()

	view := waitTask(t, srv.URL)
	gt.Value(t, view.Task.ID).Equal(accepted.TaskID)
	gt.Value(t, view.Task.Kind).Equal("ingest")
	gt.Value(t, view.Task.State).Equal("succeeded")
	gt.String(t, string(view.Task.Result)).Contains(`"title":"T: hello"`)
	gt.Value(t, repo.Count(dbs.Inbox)).Equal(1)
}

func TestInboxValidation(t *testing.T) {
	srv, _ := newTestServer(t, &echoExtractor{}, &stubStructurer{})

	resp := postJSON(t, srv.URL+"/api/inbox/text", map[string]string{"text": "  "})
	gt.Value(t, resp.StatusCode).Equal(http.StatusBadRequest)

	resp = postJSON(t, srv.URL+"/api/inbox/url", map[string]string{})
	gt.Value(t, resp.StatusCode).Equal(http.StatusBadRequest)

	r, err := http.Post(srv.URL+"/api/inbox/text", "application/json", bytes.NewReader([]byte("{")))
	gt.NoError(t, err).Required()
	defer r.Body.Close()
	gt.Value(t, r.StatusCode).Equal(http.StatusBadRequest)

	resp = postJSON(t, srv.URL+"/api/review?period=daily", nil)
	gt.Value(t, resp.StatusCode).Equal(http.StatusBadRequest)
}

func TestSecondTaskConflicts(t *testing.T) {
	block := make(chan struct{})
	srv, _ := newTestServer(t, &echoExtractor{}, &stubStructurer{block: block})

	resp := postJSON(t, srv.URL+"/api/inbox/text", map[string]string{"text": "first"})
	gt.Value(t, resp.StatusCode).Equal(http.StatusAccepted)

	resp = postJSON(t, srv.URL+"/api/synthesis", nil)
	gt.Value(t, resp.StatusCode).Equal(http.StatusConflict)

	close(block)
	view := waitTask(t, srv.URL)
	gt.Value(t, view.Task.State).Equal("succeeded")

	resp = postJSON(t, srv.URL+"/api/synthesis", nil)
	gt.Value(t, resp.StatusCode).Equal(http.StatusAccepted)
	view = waitTask(t, srv.URL)
	gt.Value(t, view.Task.Kind).Equal("synthesis")
	gt.String(t, string(view.Task.Result)).Contains(`"processed":1`)
}

func TestAcceptedTaskIDMatchesEachRun(t *testing.T) {
	srv, _ := newTestServer(t, &echoExtractor{}, &stubStructurer{})

	var ids []string
	for _, text := range []string{"first", "second"} {
		resp := postJSON(t, srv.URL+"/api/inbox/text", map[string]string{"text": text})
		gt.Value(t, resp.StatusCode).Equal(http.StatusAccepted)
		var accepted struct {
			TaskID string `json:"task_id"`
		}
		gt.NoError(t, json.NewDecoder(resp.Body).Decode(&accepted)).Required()

		view := waitTask(t, srv.URL)
		gt.Value(t, view.Task.ID).Equal(accepted.TaskID)
		ids = append(ids, accepted.TaskID)
	}
	gt.Value(t, ids[0]).NotEqual(ids[1])
}

func TestInboxImage(t *testing.T) {
	paths := make(chan string, 1)
	srv, repo := newTestServer(t, &echoExtractor{paths: paths}, &stubStructurer{})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "note.png")
	gt.NoError(t, err).Required()
	_, err = part.Write([]byte("fake png"))
	gt.NoError(t, err).Required()
	gt.NoError(t, mw.Close()).Required()

	resp, err := http.Post(srv.URL+"/api/inbox/image", mw.FormDataContentType(), &body)
	gt.NoError(t, err).Required()
	defer resp.Body.Close()
	gt.Value(t, resp.StatusCode).Equal(http.StatusAccepted)

	path := <-paths
	data, err := os.ReadFile(path)
	gt.NoError(t, err).Required()
	gt.Value(t, string(data)).Equal("fake png")

	view := waitTask(t, srv.URL)
	gt.Value(t, view.Task.State).Equal("succeeded")
	gt.Value(t, repo.Count(dbs.Inbox)).Equal(1)
}

func TestReviewNothingToDo(t *testing.T) {
	srv, repo := newTestServer(t, &echoExtractor{}, &stubStructurer{})

	resp := postJSON(t, srv.URL+"/api/review?period=monthly", nil)
	gt.Value(t, resp.StatusCode).Equal(http.StatusAccepted)

	view := waitTask(t, srv.URL)
	gt.Value(t, view.Task.State).Equal("succeeded")
	gt.String(t, string(view.Task.Result)).Contains(`"nothing_to_do":true`)
	gt.Value(t, repo.Count(dbs.Review)).Equal(0)
}

func TestScheduledSynthesis(t *testing.T) {
	// each ingest consumes one token
	block := make(chan struct{}, 1)
	structurer := &stubStructurer{block: block}
	repo := memory.New()
	uc := usecase.New(repo, dbs, &echoExtractor{}, structurer, usecase.WithSynthesisDelay(0))
	handler := server.New(uc)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	block <- struct{}{}
	resp := postJSON(t, srv.URL+"/api/inbox/text", map[string]string{"text": "idea"})
	gt.Value(t, resp.StatusCode).Equal(http.StatusAccepted)
	waitTask(t, srv.URL)

	gt.NoError(t, handler.ScheduledSynthesis(t.Context()))
	gt.Value(t, repo.Count(dbs.Knowledge)).Equal(1)
	view := waitTask(t, srv.URL)
	gt.Value(t, view.Task.Kind).Equal("synthesis")

	// a running task makes the scheduled batch a no-op
	resp = postJSON(t, srv.URL+"/api/inbox/text", map[string]string{"text": "second"})
	gt.Value(t, resp.StatusCode).Equal(http.StatusAccepted)
	gt.NoError(t, handler.ScheduledSynthesis(t.Context()))
	gt.Value(t, repo.Count(dbs.Knowledge)).Equal(1)

	block <- struct{}{}
	waitTask(t, srv.URL)
}
