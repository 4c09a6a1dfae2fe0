// Package msgbus carries typed messages from worker jobs to the single
// listener loop. The bus is the only structure shared across goroutines;
// workers never touch observer state directly.
package msgbus

import "github.com/harrison/contextpacker/internal/models"

// StatusKind classifies terminal Status messages.
type StatusKind string

const (
	StatusCompleted StatusKind = "completed"
	StatusCancelled StatusKind = "cancelled"
	StatusError     StatusKind = "error"
)

// Message is the closed set of events a job can publish. Only the types in
// this package implement it, so listener dispatch over the variants is
// exhaustive.
type Message interface {
	isMessage()
}

// Log is a verbose log line from a running job.
type Log struct {
	Text string
}

// Progress reports job completion as Value out of Max.
type Progress struct {
	Value int
	Max   int
}

// FileSaved reports one page saved by the crawler.
type FileSaved struct {
	URL      string
	Path     string
	Filename string
	Saved    int
	Max      int
	// QueueLen is the frontier size at the time the page was saved
	QueueLen int
}

// ScanComplete delivers the result set of a filesystem scan.
type ScanComplete struct {
	Records []models.FileRecord
	// DepthExcluded holds directories reached but not descended into
	// because they sat at the depth limit; nil when none
	DepthExcluded map[string]struct{}
}

// CloneDone reports a finished git clone and where it landed.
type CloneDone struct {
	Path string
}

// Status is the terminal message of every job. Exactly one Status is
// published per job run.
type Status struct {
	Kind   StatusKind
	Detail string
	// Path optionally points at a produced artifact (package file, clone dir)
	Path string
}

func (Log) isMessage()          {}
func (Progress) isMessage()     {}
func (FileSaved) isMessage()    {}
func (ScanComplete) isMessage() {}
func (CloneDone) isMessage()    {}
func (Status) isMessage()       {}

// IsTerminal returns true for status kinds that end a job and free its slot.
func (s Status) IsTerminal() bool {
	switch s.Kind {
	case StatusCompleted, StatusCancelled, StatusError:
		return true
	}
	return false
}
