package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mytube/mytube"
	"github.com/mytube/mytube/generic"
)

type TaskID string

func NewTaskID() TaskID {
	return TaskID(generic.Unwrap(uuid.NewRandom()).String())
}

type TaskStatus string

const (
	StatusQueued    TaskStatus = "queued"
	StatusRunning   TaskStatus = "running"
	StatusSucceeded TaskStatus = "succeeded"
	StatusFailed    TaskStatus = "failed"
)

var finishedStatuses = generic.NewSet(StatusSucceeded, StatusFailed)

func (s TaskStatus) IsFinished() bool {
	return finishedStatuses.Contains(s)
}

// Task is the record of one download, as shown to the user and kept in the history.
type Task struct {
	ID          TaskID
	VideoID     string
	Title       string
	URL         string
	Destination string
	// Requested is the resolution asked for, Resolution the one actually downloaded.
	Requested  string
	Resolution string
	Status     TaskStatus
	Progress   float64
	Path       string
	Attempts   int
	Error      string
	AddedAt    time.Time
	StartedAt  time.Time
	FinishedAt time.Time
}

func newTask(job mytube.DownloadTask, now time.Time) Task {
	t := Task{
		ID:          NewTaskID(),
		Destination: job.Destination,
		Requested:   job.Resolution.String(),
		Status:      StatusQueued,
		AddedAt:     now,
	}
	if job.Video != nil {
		t.VideoID = job.Video.ID
		t.Title = job.Video.Title
		t.URL = job.Video.URL
	}
	return t
}

func (t Task) String() string {
	return fmt.Sprintf("Task{ID:%q, Title:%q, Status:%q}", t.ID, t.Title, t.Status)
}
