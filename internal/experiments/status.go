package experiments

type Status string

const (
	StatusDraft     Status = "draft"
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

// transitions is the full lifecycle table. completed is terminal.
var transitions = map[Status][]Status{
	StatusDraft:     {StatusRunning},
	StatusRunning:   {StatusPaused, StatusCompleted},
	StatusPaused:    {StatusRunning, StatusCompleted},
	StatusCompleted: {},
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// AllowedTargets returns the statuses reachable from s. The slice is a copy.
func (s Status) AllowedTargets() []Status {
	targets := transitions[s]
	out := make([]Status, len(targets))
	copy(out, targets)
	return out
}

// Transition validates a requested status change. Re-applying the current
// status is a no-op and always succeeds, including for completed, so callers
// can idempotently bundle a status with other field updates.
func Transition(current, requested Status) error {
	if requested == current {
		return nil
	}
	for _, allowed := range transitions[current] {
		if allowed == requested {
			return nil
		}
	}
	return &InvalidTransitionError{
		Current:   current,
		Requested: requested,
		Allowed:   current.AllowedTargets(),
	}
}
