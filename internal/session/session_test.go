package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	assert_ "github.com/stretchr/testify/assert"
	require_ "github.com/stretchr/testify/require"

	"github.com/mytube/mytube"
)

type fakeRunner struct {
	mu      sync.Mutex
	ran     []string
	fail    map[string]error
	block   chan struct{}
	running atomic.Int32
	maxSeen atomic.Int32
}

func (r *fakeRunner) Run(ctx context.Context, task mytube.DownloadTask, progress mytube.ProgressFunc) (mytube.DownloadOutcome, error) {
	n := r.running.Add(1)
	defer r.running.Add(-1)
	if n > r.maxSeen.Load() {
		r.maxSeen.Store(n)
	}
	r.mu.Lock()
	r.ran = append(r.ran, task.Video.ID)
	r.mu.Unlock()
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
			return mytube.DownloadOutcome{Attempts: 1}, ctx.Err()
		}
	}
	progress(50)
	if err := r.fail[task.Video.ID]; err != nil {
		return mytube.DownloadOutcome{Attempts: 4}, err
	}
	progress(100)
	return mytube.DownloadOutcome{Path: "/tmp/" + task.Video.ID + ".mp4", Resolution: task.Resolution, Attempts: 1}, nil
}

func (r *fakeRunner) order() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ran...)
}

type memoryDatabase struct {
	mu    sync.Mutex
	tasks map[TaskID]Task
}

func newMemoryDatabase() *memoryDatabase {
	return &memoryDatabase{tasks: make(map[TaskID]Task)}
}

func (d *memoryDatabase) ListTasks() ([]Task, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var tasks []Task
	for _, t := range d.tasks {
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func (d *memoryDatabase) WriteTask(t *Task) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tasks[t.ID] = *t
	return nil
}

func (d *memoryDatabase) DeleteTask(t *Task) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.tasks, t.ID)
	return nil
}

func job(id string) mytube.DownloadTask {
	return mytube.DownloadTask{
		Video:       &mytube.VideoRef{ID: id, Title: "Video " + id, URL: "https://www.youtube.com/watch?v=" + id},
		Resolution:  mytube.Resolution720p,
		Destination: "/tmp",
	}
}

func newSession(t *testing.T, runner Runner, db Database) *Session {
	s, err := New(context.Background(), Config{Runner: runner, Database: db})
	require_.Nil(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestNew_RequiresRunner(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert_.NotNil(t, err)
}

func TestSession_RunBatch(t *testing.T) {
	assert := assert_.New(t)
	runner := &fakeRunner{fail: map[string]error{"b": mytube.ErrNoPlayableResolution}}
	db := newMemoryDatabase()
	s := newSession(t, runner, db)

	tasks, err := s.RunBatch(context.Background(), []mytube.DownloadTask{job("a"), job("b"), job("c")})
	assert.True(errors.Is(err, mytube.ErrNoPlayableResolution))
	assert.Contains(err.Error(), `"Video b"`)
	assert.Equal([]string{"a", "b", "c"}, runner.order())
	require_.Len(t, tasks, 3)

	assert.Equal(StatusSucceeded, tasks[0].Status)
	assert.Equal("/tmp/a.mp4", tasks[0].Path)
	assert.Equal("720p", tasks[0].Resolution)
	assert.Equal(float64(100), tasks[0].Progress)
	assert.Equal(StatusFailed, tasks[1].Status)
	assert.Equal(mytube.UserMessage(mytube.ErrNoPlayableResolution), tasks[1].Error)
	assert.Equal(4, tasks[1].Attempts)
	assert.Equal(StatusSucceeded, tasks[2].Status)
	for _, task := range tasks {
		assert.True(task.Status.IsFinished())
		assert.False(task.FinishedAt.Before(task.StartedAt))
	}

	history, err := s.History()
	assert.Nil(err)
	assert.Len(history, 3)
	assert.Equal(s.Tasks(), tasks)
}

func TestSession_RunBatch_AllSucceed(t *testing.T) {
	s := newSession(t, &fakeRunner{}, nil)
	tasks, err := s.RunBatch(context.Background(), []mytube.DownloadTask{job("a"), job("b")})
	assert_.Nil(t, err)
	assert_.Len(t, tasks, 2)
}

func TestSession_Sequential(t *testing.T) {
	runner := &fakeRunner{}
	s := newSession(t, runner, nil)
	var jobs []mytube.DownloadTask
	for _, id := range []string{"1", "2", "3", "4", "5", "6"} {
		jobs = append(jobs, job(id))
	}
	_, err := s.RunBatch(context.Background(), jobs)
	assert_.Nil(t, err)
	assert_.Equal(t, int32(1), runner.maxSeen.Load())
	assert_.Equal(t, []string{"1", "2", "3", "4", "5", "6"}, runner.order())
}

func TestSession_Events(t *testing.T) {
	assert := assert_.New(t)
	s := newSession(t, &fakeRunner{}, nil)
	sub, err := s.Subscribe(100)
	require_.Nil(t, err)

	ids, err := s.Submit(job("a"))
	require_.Nil(t, err)
	_, err = s.Wait(context.Background(), ids[0])
	assert.Nil(err)

	var kinds []string
	for event := range sub.Receive() {
		assert.Equal(ids[0], event.Task().ID)
		switch e := event.(type) {
		case TaskQueued:
			kinds = append(kinds, "queued")
		case TaskStarted:
			kinds = append(kinds, "started")
		case TaskProgress:
			assert.Equal(e.Percent, e.Task().Progress)
			kinds = append(kinds, "progress")
		case TaskFinished:
			assert.Nil(e.Err)
			assert.Equal(StatusSucceeded, e.Task().Status)
			kinds = append(kinds, "finished")
		}
		if len(kinds) > 0 && kinds[len(kinds)-1] == "finished" {
			break
		}
	}
	assert.Equal([]string{"queued", "started", "progress", "progress", "finished"}, kinds)
}

func TestSession_Close(t *testing.T) {
	assert := assert_.New(t)
	runner := &fakeRunner{block: make(chan struct{})}
	s, err := New(context.Background(), Config{Runner: runner})
	require_.Nil(t, err)
	sub, err := s.Subscribe(100)
	require_.Nil(t, err)

	ids, err := s.Submit(job("a"), job("b"))
	require_.Nil(t, err)
	require_.Eventually(t, func() bool { return len(runner.order()) == 1 }, time.Second, time.Millisecond)

	s.Close()
	s.Close()

	first, err := s.Wait(context.Background(), ids[0])
	assert.True(errors.Is(err, context.Canceled))
	assert.Equal(StatusFailed, first.Status)
	second, err := s.Wait(context.Background(), ids[1])
	assert.Equal(ErrSessionClosed, err)
	assert.Equal(StatusFailed, second.Status)
	assert.Equal([]string{"a"}, runner.order())

	_, err = s.Submit(job("c"))
	assert.Equal(ErrSessionClosed, err)

	// The subscription is closed once everything has been reported
	finished := 0
	for event := range sub.Receive() {
		if _, ok := event.(TaskFinished); ok {
			finished++
		}
	}
	assert.Equal(2, finished)
}

func TestSession_Wait(t *testing.T) {
	assert := assert_.New(t)
	runner := &fakeRunner{block: make(chan struct{})}
	s := newSession(t, runner, nil)

	_, err := s.Wait(context.Background(), "missing")
	assert.Equal(ErrUnknownTask, err)

	ids, err := s.Submit(job("a"))
	require_.Nil(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	task, err := s.Wait(ctx, ids[0])
	assert.Equal(context.DeadlineExceeded, err)
	assert.False(task.Status.IsFinished())

	close(runner.block)
	task, err = s.Wait(context.Background(), ids[0])
	assert.Nil(err)
	assert.Equal(StatusSucceeded, task.Status)
	current, err := s.Task(ids[0])
	assert.Nil(err)
	assert.Equal(task, current)
}

func TestSession_ClearHistory(t *testing.T) {
	assert := assert_.New(t)
	db := newMemoryDatabase()
	s := newSession(t, &fakeRunner{}, db)
	_, err := s.RunBatch(context.Background(), []mytube.DownloadTask{job("a"), job("b")})
	assert.Nil(err)

	n, err := s.ClearHistory()
	assert.Nil(err)
	assert.Equal(2, n)
	history, err := s.History()
	assert.Nil(err)
	assert.Empty(history)
}
