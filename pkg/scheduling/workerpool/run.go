package workerpool

import (
	"context"
	"fmt"

	sferrors "github.com/vnykmshr/seqflow/pkg/common/errors"
)

// indexedTask remembers a task's position within a Run batch.
type indexedTask struct {
	index int
	task  Task
}

func (t *indexedTask) Execute(ctx context.Context) error {
	return t.task.Execute(ctx)
}

// unwrapper is implemented by tasks that decorate another task.
type unwrapper interface {
	Unwrap() Task
}

// Run submits tasks to p and blocks until every submitted task has produced a
// result. It returns the error of the lowest-indexed failing task, or the
// submission error if ctx ended before all tasks were queued.
//
// Run reads from p.Results, so p must not have other consumers while Run is in
// progress.
func Run(ctx context.Context, p Pool, tasks ...Task) error {
	if len(tasks) == 0 {
		return nil
	}

	errs := make([]error, len(tasks))
	submitted := make(chan int, 1)

	go func() {
		n := 0
		for i, task := range tasks {
			if err := p.SubmitWithContext(ctx, &indexedTask{index: i, task: task}); err != nil {
				errs[i] = err
				break
			}
			n++
		}
		submitted <- n
	}()

	total, received := -1, 0
	for total < 0 || received < total {
		select {
		case n := <-submitted:
			total = n
		case res, ok := <-p.Results():
			if !ok {
				return fmt.Errorf("workerpool: results closed before batch completed: %w", sferrors.ErrClosed)
			}
			it, found := findIndexed(res.Task)
			if !found {
				continue
			}
			errs[it.index] = res.Error
			received++
		}
	}

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func findIndexed(task Task) (*indexedTask, bool) {
	for task != nil {
		if it, ok := task.(*indexedTask); ok {
			return it, true
		}
		u, ok := task.(unwrapper)
		if !ok {
			return nil, false
		}
		task = u.Unwrap()
	}
	return nil, false
}
