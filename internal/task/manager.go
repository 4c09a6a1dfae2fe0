// Package task runs one-shot jobs on a bounded worker pool, one job per
// logical slot, with cooperative cancellation and a single listener loop
// dispatching bus messages to observers.
package task

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/harrison/contextpacker/internal/msgbus"
)

const (
	// pollTimeout bounds each listener dequeue so shutdown is noticed
	// within one poll interval
	pollTimeout = 200 * time.Millisecond

	// replaceWait bounds how long Submit waits for a cancelled predecessor
	// in the same slot before starting the replacement job
	replaceWait = 2 * time.Second

	// queueDepth buffers submitted jobs waiting for a free worker
	queueDepth = 16
)

// Job is one unit of background work. It polls cancel cooperatively and
// returns its terminal status; the manager publishes that status, so a job
// never publishes its own terminal message twice.
type Job func(cancel *CancelToken) msgbus.Status

// Observers receives typed messages from the listener loop. Nil fields are
// skipped. Observer callbacks run on the listener goroutine and must not
// block.
type Observers struct {
	OnLog          func(msgbus.Log)
	OnProgress     func(msgbus.Progress)
	OnFileSaved    func(msgbus.FileSaved)
	OnScanComplete func(msgbus.ScanComplete)
	OnCloneDone    func(msgbus.CloneDone)
	OnStatus       func(msgbus.Status)
}

// TerminalHook is called after a job reaches its terminal status, off the
// listener loop. Used to record job history.
type TerminalHook func(slot Slot, jobID string, status msgbus.Status)

type queuedJob struct {
	slot   Slot
	id     string
	job    Job
	cancel *CancelToken
	done   chan struct{}
}

// Manager owns the worker pool, the per-slot cancellation tokens and the
// listener loop. Workers communicate exclusively through the bus; they
// never touch observer state directly.
type Manager struct {
	bus        *msgbus.Bus
	observers  Observers
	onTerminal TerminalHook

	mu    sync.Mutex
	slots map[Slot]*slotEntry

	jobs         chan queuedJob
	quit         chan struct{}
	workerWG     sync.WaitGroup
	activeJobs   sync.WaitGroup
	listenerDone chan struct{}

	shuttingDown atomic.Bool
	started      atomic.Bool
}

// NewManager creates a Manager publishing through bus with the given pool
// size; workers <= 0 means one worker per CPU core.
func NewManager(bus *msgbus.Bus, workers int) *Manager {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	m := &Manager{
		bus:          bus,
		slots:        make(map[Slot]*slotEntry),
		jobs:         make(chan queuedJob, queueDepth),
		quit:         make(chan struct{}),
		listenerDone: make(chan struct{}),
	}
	m.workerWG.Add(workers)
	for i := 0; i < workers; i++ {
		go m.worker()
	}
	return m
}

// Bus returns the manager's message bus for producers.
func (m *Manager) Bus() *msgbus.Bus {
	return m.bus
}

// SetObservers registers the observer callbacks. Must be called before
// StartListener.
func (m *Manager) SetObservers(obs Observers) {
	m.observers = obs
}

// SetTerminalHook registers the terminal-status callback.
func (m *Manager) SetTerminalHook(hook TerminalHook) {
	m.onTerminal = hook
}

// StartListener launches the single listener loop. The loop blocks on
// dequeue with a short timeout rather than indefinitely, so it observes
// the shutdown flag within one poll interval.
func (m *Manager) StartListener() {
	if !m.started.CompareAndSwap(false, true) {
		return
	}
	go m.listen()
}

// Submit starts job in the given slot. If a job is already running there,
// its cancel token is signalled and Submit waits a bounded interval for it
// to finish before starting the replacement, guaranteeing at most one
// active job per slot. Returns an error once shutdown has begun or when
// the job queue is saturated.
func (m *Manager) Submit(slot Slot, job Job) error {
	if m.shuttingDown.Load() {
		return fmt.Errorf("manager is shutting down")
	}

	m.mu.Lock()
	entry := m.slots[slot]
	if entry == nil {
		entry = &slotEntry{state: StateIdle}
		m.slots[slot] = entry
	}

	// Re-check the slot after every wait: with concurrent submitters the
	// predecessor's done closing wakes all of them, and only the one that
	// finds the slot idle under the lock may claim it. The others see the
	// winner's job occupying the slot and re-enter the cancel/wait path.
	for entry.state != StateIdle {
		entry.cancel.Cancel()
		entry.state = StateStopping
		done := entry.done
		m.mu.Unlock()

		// Bounded wait; a stuck predecessor must not block new work forever
		timedOut := false
		select {
		case <-done:
		case <-time.After(replaceWait):
			timedOut = true
		}
		m.mu.Lock()

		// Claim over a stuck job only if no other submitter got here first;
		// entry.done changes the moment anyone else claims the slot.
		if timedOut && entry.done == done {
			break
		}
	}

	token := NewCancelToken()
	done := make(chan struct{})
	entry.state = StateRunning
	entry.cancel = token
	entry.done = done
	m.mu.Unlock()

	qj := queuedJob{
		slot:   slot,
		id:     uuid.NewString(),
		job:    job,
		cancel: token,
		done:   done,
	}
	m.activeJobs.Add(1)

	select {
	case m.jobs <- qj:
		return nil
	default:
		m.activeJobs.Done()
		m.finishSlot(slot, done)
		return fmt.Errorf("job queue is full")
	}
}

// Cancel signals the job running in slot, if any. The worker goroutine is
// never forcibly terminated; the job observes the token at its next poll.
func (m *Manager) Cancel(slot Slot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry := m.slots[slot]
	if entry != nil && entry.state == StateRunning {
		entry.cancel.Cancel()
		entry.state = StateStopping
	}
}

// State reports the current state of a slot.
func (m *Manager) State(slot Slot) SlotState {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry := m.slots[slot]
	if entry == nil {
		return StateIdle
	}
	return entry.state
}

// worker executes queued jobs until shutdown.
func (m *Manager) worker() {
	defer m.workerWG.Done()
	for {
		select {
		case qj := <-m.jobs:
			m.runJob(qj)
		case <-m.quit:
			return
		}
	}
}

// runJob executes one job, converts panics to StatusError, publishes the
// terminal status and returns the slot to idle. Every failure becomes a
// typed message before it crosses the queue boundary; nothing propagates
// to crash the pool.
func (m *Manager) runJob(qj queuedJob) {
	defer m.activeJobs.Done()

	status := m.invoke(qj)

	m.bus.Publish(status)
	m.finishSlot(qj.slot, qj.done)

	if m.onTerminal != nil {
		m.onTerminal(qj.slot, qj.id, status)
	}
}

// invoke runs the job body under a panic guard.
func (m *Manager) invoke(qj queuedJob) (status msgbus.Status) {
	defer func() {
		if r := recover(); r != nil {
			status = msgbus.Status{
				Kind:   msgbus.StatusError,
				Detail: fmt.Sprintf("job %s panicked: %v", qj.slot, r),
			}
		}
	}()
	return qj.job(qj.cancel)
}

// finishSlot returns a slot to idle if the finishing job still owns it.
func (m *Manager) finishSlot(slot Slot, done chan struct{}) {
	m.mu.Lock()
	entry := m.slots[slot]
	if entry != nil && entry.done == done {
		entry.state = StateIdle
	}
	m.mu.Unlock()
	close(done)
}

// listen is the single listener loop. It owns dispatch: messages are
// forwarded to observers by type while running, and drained without
// dispatch during shutdown so teardown state is never touched by late
// messages.
func (m *Manager) listen() {
	defer close(m.listenerDone)

	for !m.shuttingDown.Load() {
		msg, ok := m.bus.Receive(pollTimeout)
		if !ok {
			continue
		}
		m.dispatch(msg)
	}

	// Drain without dispatching
	for {
		if _, ok := m.bus.TryReceive(); !ok {
			return
		}
	}
}

// dispatch forwards one message to its observer callback. The message set
// is closed, so this switch is exhaustive.
func (m *Manager) dispatch(msg msgbus.Message) {
	switch v := msg.(type) {
	case msgbus.Log:
		if m.observers.OnLog != nil {
			m.observers.OnLog(v)
		}
	case msgbus.Progress:
		if m.observers.OnProgress != nil {
			m.observers.OnProgress(v)
		}
	case msgbus.FileSaved:
		if m.observers.OnFileSaved != nil {
			m.observers.OnFileSaved(v)
		}
	case msgbus.ScanComplete:
		if m.observers.OnScanComplete != nil {
			m.observers.OnScanComplete(v)
		}
	case msgbus.CloneDone:
		if m.observers.OnCloneDone != nil {
			m.observers.OnCloneDone(v)
		}
	case msgbus.Status:
		if m.observers.OnStatus != nil {
			m.observers.OnStatus(v)
		}
	}
}

// Shutdown runs the graceful teardown sequence: set the shutdown flag and
// cancel every active job, wait up to grace for jobs to finish, stop the
// workers, then join the listener with a timeout, proceeding regardless
// of whether it joined, so process exit is never blocked indefinitely.
// Returns true if everything stopped within its deadline.
func (m *Manager) Shutdown(grace time.Duration) bool {
	if !m.shuttingDown.CompareAndSwap(false, true) {
		return true
	}

	m.mu.Lock()
	for _, entry := range m.slots {
		if entry.state == StateRunning {
			entry.cancel.Cancel()
			entry.state = StateStopping
		}
	}
	m.mu.Unlock()

	clean := waitTimeout(&m.activeJobs, grace)
	close(m.quit)

	if m.started.Load() {
		select {
		case <-m.listenerDone:
		case <-time.After(grace):
			clean = false
		}
	}
	return clean
}

// waitTimeout waits on wg up to d. Returns false on timeout.
func waitTimeout(wg *sync.WaitGroup, d time.Duration) bool {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(d):
		return false
	}
}
