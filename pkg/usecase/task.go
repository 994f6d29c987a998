package usecase

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mindforge/pkg/domain/model"
)

// maxTaskLogs is the number of progress lines kept in a snapshot
const maxTaskLogs = 100

type TaskKind string

const (
	TaskIngest    TaskKind = "ingest"
	TaskSynthesis TaskKind = "synthesis"
	TaskReview    TaskKind = "review"
)

type TaskState string

const (
	TaskRunning   TaskState = "running"
	TaskSucceeded TaskState = "succeeded"
	TaskFailed    TaskState = "failed"
)

// TaskSnapshot is an immutable view of a task. A new snapshot is published on every
// change; readers never see a snapshot being modified.
type TaskSnapshot struct {
	ID         string    `json:"id"`
	Kind       TaskKind  `json:"kind"`
	State      TaskState `json:"state"`
	Message    string    `json:"message"`
	Done       int       `json:"done"`
	Total      int       `json:"total"`
	Logs       []string  `json:"logs"`
	Result     any       `json:"result,omitempty"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
}

// TaskGuard allows at most one running task against a store
type TaskGuard struct {
	running atomic.Bool
	latest  atomic.Pointer[TaskSnapshot]
}

func NewTaskGuard() *TaskGuard {
	return &TaskGuard{}
}

// Start claims the guard for a new task. It fails with model.ErrTaskRunning while
// another task has not finished.
func (g *TaskGuard) Start(kind TaskKind) (*Task, error) {
	if !g.running.CompareAndSwap(false, true) {
		current := g.latest.Load()
		values := []goerr.Option{goerr.V("kind", kind)}
		if current != nil {
			values = append(values, goerr.V("running_id", current.ID), goerr.V("running_kind", current.Kind))
		}
		return nil, goerr.Wrap(model.ErrTaskRunning, "another task is running", values...)
	}

	task := &Task{guard: g, id: uuid.New().String()}
	g.latest.Store(&TaskSnapshot{
		ID:        task.id,
		Kind:      kind,
		State:     TaskRunning,
		StartedAt: time.Now(),
	})
	return task, nil
}

// Running reports whether a task holds the guard
func (g *TaskGuard) Running() bool {
	return g.running.Load()
}

// Snapshot returns the latest task, running or finished. Nil before the first task.
func (g *TaskGuard) Snapshot() *TaskSnapshot {
	return g.latest.Load()
}

// Task publishes the progress of one run. Only the goroutine running the task calls
// its methods. Once the task has finished, or a newer task has been published, its
// updates are dropped.
type Task struct {
	guard *TaskGuard
	id    string
}

var _ Reporter = &Task{}

// update publishes a modified copy of the snapshot. It reports false when the latest
// snapshot no longer belongs to this running task.
func (t *Task) update(fn func(s *TaskSnapshot)) bool {
	for {
		cur := t.guard.latest.Load()
		if cur == nil || cur.ID != t.id || cur.State != TaskRunning {
			return false
		}

		next := *cur
		next.Logs = append([]string(nil), cur.Logs...)
		fn(&next)
		if len(next.Logs) > maxTaskLogs {
			next.Logs = next.Logs[len(next.Logs)-maxTaskLogs:]
		}
		if t.guard.latest.CompareAndSwap(cur, &next) {
			return true
		}
	}
}

// ID returns the task ID
func (t *Task) ID() string {
	return t.id
}

func (t *Task) Step(message string) {
	t.update(func(s *TaskSnapshot) {
		s.Message = message
		s.Logs = append(s.Logs, message)
	})
}

func (t *Task) Progress(done, total int) {
	t.update(func(s *TaskSnapshot) {
		s.Done = done
		s.Total = total
	})
}

// Finish records the outcome and releases the guard. Only the first call counts.
func (t *Task) Finish(result any, err error) {
	finished := t.update(func(s *TaskSnapshot) {
		s.FinishedAt = time.Now()
		s.Result = result
		if err != nil {
			s.State = TaskFailed
			s.Error = err.Error()
			s.Message = "Failed: " + err.Error()
		} else {
			s.State = TaskSucceeded
			if s.Message == "" {
				s.Message = "Done"
			}
		}
	})
	if finished {
		t.guard.running.Store(false)
	}
}
