// Package session runs download tasks one at a time on a background worker, publishing their progress as events.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mytube/mytube"
	"github.com/mytube/mytube/internal/pubsub"
	"github.com/mytube/mytube/internal/sync_"
)

var (
	ErrSessionClosed = errors.New("session closed")
	ErrUnknownTask   = errors.New("unknown task")
)

// Runner performs a single download.
type Runner interface {
	Run(ctx context.Context, task mytube.DownloadTask, progress mytube.ProgressFunc) (mytube.DownloadOutcome, error)
}

type Config struct {
	Runner   Runner
	Database Database
	// QueueSize is how many tasks can wait before Submit blocks.
	QueueSize int
}

var DefaultConfig = Config{
	Database:  NilDatabase{},
	QueueSize: 64,
}

type entry struct {
	task Task
	job  mytube.DownloadTask
	err  error
	done *sync_.Event
}

type tasksByID = map[TaskID]*entry

type Session struct {
	config    Config
	ctx       context.Context
	ctxCancel context.CancelFunc
	log       *zap.SugaredLogger
	now       func() time.Time

	mu         sync.RWMutex
	closed     bool
	submitting sync.WaitGroup

	tasks  *sync_.RWMutexed[tasksByID]
	order  []TaskID
	queue  chan *entry
	done   chan struct{}
	events *pubsub.Publisher[Event]
}

func New(ctx context.Context, config Config) (*Session, error) {
	if config.Runner == nil {
		return nil, errors.New("session needs a runner")
	}
	if config.Database == nil {
		config.Database = DefaultConfig.Database
	}
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultConfig.QueueSize
	}
	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		config:    config,
		ctx:       ctx,
		ctxCancel: cancel,
		log:       mytube.Logger(ctx).Sugar().Named("session"),
		now:       time.Now,

		tasks:  sync_.NewRWMutexed(make(tasksByID)),
		queue:  make(chan *entry, config.QueueSize),
		done:   make(chan struct{}),
		events: pubsub.NewPublisher[Event](),
	}
	go s.run()
	return s, nil
}

// Subscribe returns a subscription to all task events. Subscribe before Submit to see every event.
func (s *Session) Subscribe(bufSize int) (pubsub.Subscription[Event], error) {
	return s.events.Subscribe(bufSize)
}

// Submit queues download tasks, in order. It blocks while the queue is full.
func (s *Session) Submit(jobs ...mytube.DownloadTask) ([]TaskID, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, ErrSessionClosed
	}
	s.submitting.Add(1)
	defer s.submitting.Done()
	s.mu.RUnlock()

	ids := make([]TaskID, 0, len(jobs))
	for _, job := range jobs {
		e := &entry{
			task: newTask(job, s.now()),
			job:  job,
			done: sync_.NewEvent(),
		}
		_ = s.tasks.Locked(func(tasks tasksByID) error {
			tasks[e.task.ID] = e
			s.order = append(s.order, e.task.ID)
			return nil
		})
		s.log.Debugw("task queued", "task_id", e.task.ID, "title", e.task.Title)
		s.events.Send(TaskQueued{taskEvent{s.snapshot(e)}})
		select {
		case s.queue <- e:
		case <-s.ctx.Done():
			s.finish(e, mytube.DownloadOutcome{}, ErrSessionClosed)
			return ids, ErrSessionClosed
		}
		ids = append(ids, e.task.ID)
	}
	return ids, nil
}

// Wait blocks until the task has finished, returning its final record and the error it failed with.
func (s *Session) Wait(ctx context.Context, id TaskID) (Task, error) {
	e := s.get(id)
	if e == nil {
		return Task{}, ErrUnknownTask
	}
	select {
	case <-e.done.Wait():
		return s.snapshot(e), e.err
	case <-ctx.Done():
		return s.snapshot(e), ctx.Err()
	}
}

// Task returns the current record of a task.
func (s *Session) Task(id TaskID) (Task, error) {
	e := s.get(id)
	if e == nil {
		return Task{}, ErrUnknownTask
	}
	return s.snapshot(e), nil
}

// Tasks lists this session's tasks in the order they were submitted.
func (s *Session) Tasks() []Task {
	var list []Task
	_ = s.tasks.RLocked(func(tasks tasksByID) error {
		list = make([]Task, 0, len(s.order))
		for _, id := range s.order {
			list = append(list, tasks[id].task)
		}
		return nil
	})
	return list
}

// History lists finished tasks from the database, including earlier sessions.
func (s *Session) History() ([]Task, error) {
	return s.config.Database.ListTasks()
}

// ClearHistory deletes every finished task from the database.
func (s *Session) ClearHistory() (int, error) {
	tasks, err := s.config.Database.ListTasks()
	if err != nil {
		return 0, err
	}
	for i := range tasks {
		if err := s.config.Database.DeleteTask(&tasks[i]); err != nil {
			return i, err
		}
	}
	return len(tasks), nil
}

// Close cancels the running task, fails any queued tasks and closes all subscriptions. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.ctxCancel()
	s.submitting.Wait()
	<-s.done
	for {
		select {
		case e := <-s.queue:
			s.finish(e, mytube.DownloadOutcome{}, ErrSessionClosed)
		default:
			s.events.Close()
			return
		}
	}
}

func (s *Session) get(id TaskID) (e *entry) {
	_ = s.tasks.RLocked(func(tasks tasksByID) error {
		e = tasks[id]
		return nil
	})
	return e
}

func (s *Session) snapshot(e *entry) (t Task) {
	_ = s.tasks.RLocked(func(tasksByID) error {
		t = e.task
		return nil
	})
	return t
}

func (s *Session) update(e *entry, f func(t *Task)) Task {
	var t Task
	_ = s.tasks.Locked(func(tasksByID) error {
		f(&e.task)
		t = e.task
		return nil
	})
	return t
}
