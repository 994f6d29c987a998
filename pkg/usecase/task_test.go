package usecase_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/mindforge/pkg/domain/model"
	"github.com/secmon-lab/mindforge/pkg/usecase"
)

func TestTaskGuard(t *testing.T) {
	guard := usecase.NewTaskGuard()
	gt.Value(t, guard.Snapshot()).Nil()

	task, err := guard.Start(usecase.TaskSynthesis)
	gt.NoError(t, err).Required()
	gt.Bool(t, guard.Running()).True()

	_, err = guard.Start(usecase.TaskIngest)
	gt.Error(t, err).Is(model.ErrTaskRunning)

	before := guard.Snapshot()
	task.Step("Querying")
	task.Progress(1, 3)

	// published snapshots are never modified
	gt.Value(t, before.Message).Equal("")
	gt.Array(t, before.Logs).Length(0)

	now := guard.Snapshot()
	gt.Value(t, now.ID).Equal(task.ID())
	gt.Value(t, now.Message).Equal("Querying")
	gt.Value(t, now.Done).Equal(1)
	gt.Value(t, now.Total).Equal(3)
	gt.Value(t, now.State).Equal(usecase.TaskRunning)

	task.Finish("ok", nil)
	gt.Bool(t, guard.Running()).False()
	gt.Value(t, guard.Snapshot().State).Equal(usecase.TaskSucceeded)
	gt.Value(t, guard.Snapshot().Result).Equal(any("ok"))

	next, err := guard.Start(usecase.TaskReview)
	gt.NoError(t, err).Required()
	gt.Value(t, next.ID()).NotEqual(task.ID())
	next.Finish(nil, errors.New("boom"))
	gt.Value(t, guard.Snapshot().State).Equal(usecase.TaskFailed)
	gt.Value(t, guard.Snapshot().Error).Equal("boom")
}

func TestStaleTaskCannotOverwriteNewerTask(t *testing.T) {
	guard := usecase.NewTaskGuard()

	first, err := guard.Start(usecase.TaskIngest)
	gt.NoError(t, err).Required()
	firstID := first.ID()
	first.Finish("first", nil)

	second, err := guard.Start(usecase.TaskSynthesis)
	gt.NoError(t, err).Required()
	second.Step("Synthesizing")

	// late calls from the finished run are dropped
	first.Step("late step")
	first.Progress(9, 9)
	first.Finish(nil, errors.New("late failure"))

	gt.Value(t, first.ID()).Equal(firstID)
	now := guard.Snapshot()
	gt.Value(t, now.ID).Equal(second.ID())
	gt.Value(t, now.Kind).Equal(usecase.TaskSynthesis)
	gt.Value(t, now.State).Equal(usecase.TaskRunning)
	gt.Value(t, now.Message).Equal("Synthesizing")
	gt.Value(t, now.Done).Equal(0)
	gt.Bool(t, guard.Running()).True()

	second.Finish("second", nil)
	second.Finish(nil, errors.New("again"))
	gt.Value(t, guard.Snapshot().State).Equal(usecase.TaskSucceeded)
	gt.Value(t, guard.Snapshot().Result).Equal(any("second"))
	gt.Bool(t, guard.Running()).False()
}

func TestTaskLogsAreCapped(t *testing.T) {
	guard := usecase.NewTaskGuard()
	task, err := guard.Start(usecase.TaskSynthesis)
	gt.NoError(t, err).Required()

	for i := range 150 {
		task.Step(fmt.Sprintf("step %d", i))
	}
	logs := guard.Snapshot().Logs
	gt.Array(t, logs).Length(100).Required()
	gt.Value(t, logs[0]).Equal("step 50")
	gt.Value(t, logs[99]).Equal("step 149")
}

func TestTaskGuardSingleWinner(t *testing.T) {
	guard := usecase.NewTaskGuard()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := guard.Start(usecase.TaskIngest); err == nil {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	gt.Value(t, winners).Equal(1)
}
