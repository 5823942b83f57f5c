package session

type Event interface {
	// Task is a snapshot of the task this event relates to, taken when the event was published.
	Task() Task
}

type taskEvent struct {
	task Task
}

func (e taskEvent) Task() Task {
	return e.task
}

type TaskQueued struct {
	taskEvent
}
type TaskStarted struct {
	taskEvent
}

// TaskProgress is only offered to subscribers, so slow subscribers miss some of them.
type TaskProgress struct {
	taskEvent
	Percent float64
}
type TaskFinished struct {
	taskEvent
	Err error
}
