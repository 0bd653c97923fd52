package services

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrOptimizationFailed reports a pruning loop that exhausted its
	// attempt budget without reaching a decision.
	ErrOptimizationFailed = errors.New("route construction: optimization attempt budget exhausted")
	// ErrNotOwned reports a referenced client that does not belong to the
	// caller. Checked before any optimizer call.
	ErrNotOwned = errors.New("route construction: client not owned by caller")
)

// ValidationError rejects malformed input before any network call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// InfeasibleError reports a deadline that cannot be met even with only the
// mandatory stop remaining. It is an outcome, not a system failure.
type InfeasibleError struct {
	OvertimeMinutes int
	Deadline        time.Time
}

func (e *InfeasibleError) Error() string {
	return fmt.Sprintf(
		"route construction: deadline %s cannot be met, overshoot %d minutes with only the mandatory stop",
		e.Deadline.Format(time.RFC3339), e.OvertimeMinutes,
	)
}
