package task

// Slot names a logical job category. At most one job per slot runs at a
// time; different slots may run in parallel.
type Slot string

const (
	SlotDownload  Slot = "download"
	SlotLocalScan Slot = "local-scan"
	SlotPackage   Slot = "package"
	SlotClone     Slot = "clone"
)

// SlotState tracks the lifecycle of a logical slot.
type SlotState int

const (
	// StateIdle means no job is running and a new one may start
	StateIdle SlotState = iota

	// StateRunning means a job occupies the slot
	StateRunning

	// StateStopping means the slot's job has been signalled to cancel but
	// has not yet reached its terminal status
	StateStopping
)

func (s SlotState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// slotEntry is the manager's per-slot bookkeeping. done is closed when the
// occupying job reaches its terminal status, whatever the outcome.
type slotEntry struct {
	state  SlotState
	cancel *CancelToken
	done   chan struct{}
}
