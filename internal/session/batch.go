package session

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/mytube/mytube"
)

// RunBatch submits the tasks and waits for all of them. A failed task does not stop the ones after it; the returned
// error collects every failure, and the records of all tasks are returned either way.
func (s *Session) RunBatch(ctx context.Context, jobs []mytube.DownloadTask) ([]Task, error) {
	ids, err := s.Submit(jobs...)
	var result error
	if err != nil {
		result = multierror.Append(result, err)
	}
	tasks := make([]Task, 0, len(ids))
	for _, id := range ids {
		task, err := s.Wait(ctx, id)
		tasks = append(tasks, task)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%q: %w", task.Title, err))
		}
		if ctx.Err() != nil {
			break
		}
	}
	return tasks, result
}
