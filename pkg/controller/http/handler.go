package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mindforge/pkg/domain/model"
	"github.com/secmon-lab/mindforge/pkg/domain/types"
	"github.com/secmon-lab/mindforge/pkg/usecase"
	"github.com/secmon-lab/mindforge/pkg/utils/async"
	"github.com/secmon-lab/mindforge/pkg/utils/errutil"
	"github.com/secmon-lab/mindforge/pkg/utils/logging"
	"github.com/secmon-lab/mindforge/pkg/utils/safe"
)

type captureRequest struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

type taskResponse struct {
	TaskID string `json:"task_id"`
}

type tasksResponse struct {
	Running bool                  `json:"running"`
	Task    *usecase.TaskSnapshot `json:"task"`
}

type ingestSummary struct {
	RecordID string `json:"record_id"`
	Title    string `json:"title"`
	Degraded bool   `json:"degraded"`
}

type synthesisSummary struct {
	Total        int      `json:"total"`
	Processed    int      `json:"processed"`
	Skipped      int      `json:"skipped"`
	Failed       int      `json:"failed"`
	StatusErrors int      `json:"status_errors"`
	Titles       []string `json:"titles"`
}

type reviewSummary struct {
	Period      string `json:"period"`
	Start       string `json:"start"`
	End         string `json:"end"`
	NodeCount   int    `json:"node_count"`
	NothingToDo bool   `json:"nothing_to_do"`
	RecordID    string `json:"record_id,omitempty"`
	Title       string `json:"title,omitempty"`
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	safe.Write(ctx, w, data)
}

func decodeCapture(r *http.Request) (captureRequest, error) {
	var req captureRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		return req, goerr.Wrap(model.ErrInvalidInput, "invalid request body", goerr.V("cause", err.Error()))
	}
	return req, nil
}

// startTask claims the task guard and runs fn in the background. It writes 202 with
// the task ID, or 409 while another task runs.
func (s *Server) startTask(w http.ResponseWriter, r *http.Request, kind usecase.TaskKind, fn func(ctx context.Context) (any, error)) bool {
	task, err := s.uc.Tasks.Start(kind)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusConflict)
		return false
	}
	id := task.ID()

	async.Dispatch(r.Context(), func(ctx context.Context) error {
		ctx = usecase.WithReporter(ctx, task)
		result, err := fn(ctx)
		task.Finish(result, err)
		return err
	})

	writeJSON(r.Context(), w, http.StatusAccepted, taskResponse{TaskID: id})
	return true
}

func (s *Server) ingest(w http.ResponseWriter, r *http.Request, capture model.RawCapture) bool {
	return s.startTask(w, r, usecase.TaskIngest, func(ctx context.Context) (any, error) {
		result, err := s.uc.Ingest.Ingest(ctx, capture)
		if err != nil {
			return nil, err
		}
		return ingestSummary{RecordID: result.Record.ID, Title: result.Record.Title, Degraded: result.Degraded}, nil
	})
}

func (s *Server) inboxTextHandler(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCapture(r)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(model.ErrEmptyContent, "text is empty"), http.StatusBadRequest)
		return
	}
	s.ingest(w, r, model.NewTextCapture(req.Text))
}

func (s *Server) inboxURLHandler(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCapture(r)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(model.ErrEmptyContent, "url is empty"), http.StatusBadRequest)
		return
	}
	s.ingest(w, r, model.NewURLCapture(req.URL))
}

// inboxImageHandler stores the uploaded "file" part in a temporary file that the
// extractor removes after recognition
func (s *Server) inboxImageHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(model.ErrInvalidInput, "image file is required", goerr.V("cause", err.Error())), http.StatusBadRequest)
		return
	}
	defer safe.Close(ctx, file)

	path, err := s.saveUpload(file, filepath.Ext(header.Filename))
	if err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusInternalServerError)
		return
	}

	if !s.ingest(w, r, model.NewImageCapture(path, true)) {
		safe.Remove(ctx, path)
	}
}

func (s *Server) saveUpload(src io.Reader, ext string) (string, error) {
	dst, err := os.CreateTemp(s.uploadDir, "mindforge-*"+ext)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create temporary file")
	}

	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(dst.Name())
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return "", goerr.Wrap(model.ErrInvalidInput, "image is too large", goerr.V("limit", maxErr.Limit))
		}
		return "", goerr.Wrap(err, "failed to save uploaded image")
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(dst.Name())
		return "", goerr.Wrap(err, "failed to close uploaded image")
	}
	return dst.Name(), nil
}

func (s *Server) synthesisHandler(w http.ResponseWriter, r *http.Request) {
	s.startTask(w, r, usecase.TaskSynthesis, s.runSynthesis)
}

func (s *Server) runSynthesis(ctx context.Context) (any, error) {
	result, err := s.uc.Synthesis.Run(ctx)
	if result == nil {
		return nil, err
	}
	summary := synthesisSummary{
		Total:        result.Total,
		Processed:    result.Processed,
		Skipped:      result.Skipped,
		Failed:       result.Failed,
		StatusErrors: result.StatusErrors,
		Titles:       []string{},
	}
	for _, node := range result.Nodes {
		summary.Titles = append(summary.Titles, node.Title)
	}
	return summary, err
}

// ScheduledSynthesis runs one synthesis batch in the caller's goroutine under the task
// guard. A batch is skipped when another task is running.
func (s *Server) ScheduledSynthesis(ctx context.Context) error {
	task, err := s.uc.Tasks.Start(usecase.TaskSynthesis)
	if errors.Is(err, model.ErrTaskRunning) {
		logging.From(ctx).Info("Skip scheduled synthesis, another task is running")
		return nil
	}
	if err != nil {
		return err
	}

	result, err := s.runSynthesis(usecase.WithReporter(ctx, task))
	task.Finish(result, err)
	return err
}

func (s *Server) reviewHandler(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("period")
	if raw == "" {
		raw = types.PeriodWeekly.String()
	}
	period, err := types.ParsePeriod(raw)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(model.ErrInvalidInput, "invalid period", goerr.V("period", raw)), http.StatusBadRequest)
		return
	}

	s.startTask(w, r, usecase.TaskReview, func(ctx context.Context) (any, error) {
		result, err := s.uc.Review.Run(ctx, period)
		if err != nil {
			return nil, err
		}
		summary := reviewSummary{
			Period:      result.Period.String(),
			Start:       result.DateRange.StartDate(),
			End:         result.DateRange.EndDate(),
			NodeCount:   result.NodeCount,
			NothingToDo: result.NothingToDo(),
		}
		if result.Record != nil {
			summary.RecordID = result.Record.ID
			summary.Title = result.Record.Title
		}
		return summary, nil
	})
}

func (s *Server) tasksHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, tasksResponse{
		Running: s.uc.Tasks.Running(),
		Task:    s.uc.Tasks.Snapshot(),
	})
}
