package domain

// Trigger identifies the job-lifecycle event that caused a notification.
// The set is open: hosts may send triggers we do not know about, and those
// still render (with the failure color).
type Trigger string

const (
	TriggerStart    Trigger = "start"
	TriggerSuccess  Trigger = "success"
	TriggerFailure  Trigger = "failure"
	TriggerAborted  Trigger = "aborted"
	TriggerTimedOut Trigger = "timedout"
	TriggerRunning  Trigger = "running"
)

// Execution status values as the host reports them. Status and trigger
// usually match, but the title and text sections key off status while the
// message color keys off trigger.
const (
	StatusRunning  = "running"
	StatusSuccess  = "success"
	StatusAborted  = "aborted"
	StatusTimedOut = "timedout"
)
