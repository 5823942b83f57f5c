package session

import (
	"go.uber.org/zap"

	"github.com/mytube/mytube"
)

func (s *Session) run() {
	defer close(s.done)
	for {
		// Prefer stopping over starting another task
		select {
		case <-s.ctx.Done():
			return
		default:
		}
		select {
		case <-s.ctx.Done():
			return
		case e := <-s.queue:
			s.runTask(e)
		}
	}
}

func (s *Session) runTask(e *entry) {
	task := s.update(e, func(t *Task) {
		t.Status = StatusRunning
		t.StartedAt = s.now()
	})
	log := s.log.With("task_id", task.ID)
	log.Infow("task started", "title", task.Title, "resolution", task.Requested)
	s.events.Send(TaskStarted{taskEvent{task}})

	progress := func(percent float64) {
		task := s.update(e, func(t *Task) {
			t.Progress = percent
		})
		s.events.Offer(TaskProgress{taskEvent{task}, percent})
	}
	ctx := mytube.WithLogger(s.ctx, mytube.Logger(s.ctx).With(zap.String("task_id", string(task.ID))))
	outcome, err := s.config.Runner.Run(ctx, e.job, progress)
	if err != nil {
		log.Warnw("task failed", "error", err)
	} else {
		log.Infow("task finished", "path", outcome.Path, "resolution", outcome.Resolution, "attempts", outcome.Attempts)
	}
	s.finish(e, outcome, err)
}

// finish records the result of a task, persists it and wakes up anything waiting on it.
func (s *Session) finish(e *entry, outcome mytube.DownloadOutcome, err error) {
	task := s.update(e, func(t *Task) {
		t.FinishedAt = s.now()
		t.Attempts = outcome.Attempts
		if err != nil {
			t.Status = StatusFailed
			t.Error = mytube.UserMessage(err)
			return
		}
		t.Status = StatusSucceeded
		t.Progress = 100
		t.Path = outcome.Path
		t.Resolution = outcome.Resolution.String()
	})
	e.err = err
	if dbErr := s.config.Database.WriteTask(&task); dbErr != nil {
		s.log.Errorw("failed to save task", "task_id", task.ID, "error", dbErr)
	}
	s.events.Send(TaskFinished{taskEvent{task}, err})
	e.done.Set()
}
