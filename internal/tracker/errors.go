package tracker

import (
	"fmt"

	"github.com/biswalmanoj310/mytimemanager-sub007/internal/store"
)

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", store.ErrInvalid, msg)
}

// PartialError reports a home-tab operation whose two writes did not both
// apply. The writes are not transactional; the caller reconciles by retrying
// the operation or restoring the task.
type PartialError struct {
	Op            string
	TaskID        int64
	GlobalApplied bool
	StatusApplied bool
	Err           error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("%s task %d: global applied=%t, home status applied=%t: %v",
		e.Op, e.TaskID, e.GlobalApplied, e.StatusApplied, e.Err)
}

func (e *PartialError) Unwrap() error { return e.Err }
