package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrViewerNotFound   = errors.New("viewer not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrValidation       = errors.New("validation failed")
	ErrRevisionConflict = errors.New("revision conflict")
	ErrConflict         = errors.New("concurrent update exhausted retries")
	ErrCooldown         = errors.New("action on cooldown")
)

// CooldownError carries the time left before the action may be retried.
type CooldownError struct {
	Action    string
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("action %q on cooldown: %.0fs remaining", e.Action, e.Remaining.Seconds())
}

func (e *CooldownError) Is(target error) bool {
	return target == ErrCooldown
}

// RemainingSeconds rounds up so a client never retries too early.
func (e *CooldownError) RemainingSeconds() int {
	secs := int(e.Remaining / time.Second)
	if e.Remaining%time.Second > 0 {
		secs++
	}
	return secs
}

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
