// Package vcs wraps git as a cancellable subprocess job. Only clone is
// supported; the tool never mutates an existing repository.
package vcs

import (
	"bufio"
	"bytes"
	"fmt"
	"os/exec"
	"path"
	"strings"
	"syscall"
	"time"

	"github.com/harrison/contextpacker/internal/msgbus"
	"github.com/harrison/contextpacker/internal/task"
)

// killGrace is how long a cancelled clone gets to exit after SIGTERM
// before it is killed outright.
const killGrace = 2 * time.Second

// CloneRequest describes one shallow clone.
type CloneRequest struct {
	URL  string // repository URL, required
	Dest string // destination directory, required, must not already exist
}

// Validate checks the request before any subprocess is started.
func (r CloneRequest) Validate() error {
	if strings.TrimSpace(r.URL) == "" {
		return fmt.Errorf("repository URL is required")
	}
	if strings.TrimSpace(r.Dest) == "" {
		return fmt.Errorf("destination directory is required")
	}
	return nil
}

// RepoName derives a directory name from a repository URL, stripping any
// trailing .git suffix. Returns "repository" when nothing usable remains.
func RepoName(rawURL string) string {
	name := path.Base(strings.TrimSuffix(strings.TrimSuffix(rawURL, "/"), ".git"))
	if name == "" || name == "." || name == "/" {
		return "repository"
	}
	return name
}

// Cloner runs shallow git clones as manager jobs.
type Cloner struct {
	bus *msgbus.Bus

	// lookPath is swappable for tests
	lookPath func(file string) (string, error)
}

// NewCloner returns a Cloner publishing on bus.
func NewCloner(bus *msgbus.Bus) *Cloner {
	return &Cloner{bus: bus, lookPath: exec.LookPath}
}

// Clone runs `git clone --depth 1` and streams its progress output as Log
// messages. Cancellation sends SIGTERM to the child, escalating to SIGKILL
// after a grace period. Returns the job's terminal status.
func (c *Cloner) Clone(req CloneRequest, cancel *task.CancelToken) msgbus.Status {
	if err := req.Validate(); err != nil {
		return msgbus.Status{Kind: msgbus.StatusError, Detail: err.Error()}
	}
	gitPath, err := c.lookPath("git")
	if err != nil {
		return msgbus.Status{Kind: msgbus.StatusError, Detail: "git is not installed or not in PATH"}
	}

	c.bus.Publish(msgbus.Log{Text: fmt.Sprintf("Cloning %s...", req.URL)})

	// --progress forces progress lines even without a TTY; git writes
	// them to stderr
	cmd := exec.Command(gitPath, "clone", "--depth", "1", "--progress", req.URL, req.Dest)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return msgbus.Status{Kind: msgbus.StatusError, Detail: fmt.Sprintf("failed to attach to git output: %v", err)}
	}
	if err := cmd.Start(); err != nil {
		return msgbus.Status{Kind: msgbus.StatusError, Detail: fmt.Sprintf("failed to start git: %v", err)}
	}

	done := make(chan struct{})
	go watchCancel(cmd, cancel, done)

	var lastLine string
	scanner := bufio.NewScanner(stderr)
	scanner.Split(scanProgressLines)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lastLine = line
		c.bus.Publish(msgbus.Log{Text: line})
	}

	waitErr := cmd.Wait()
	close(done)
	if cancel.IsSet() {
		return msgbus.Status{Kind: msgbus.StatusCancelled, Detail: "Clone cancelled."}
	}
	if waitErr != nil {
		detail := fmt.Sprintf("git clone failed: %v", waitErr)
		if lastLine != "" {
			detail = fmt.Sprintf("git clone failed: %s", lastLine)
		}
		return msgbus.Status{Kind: msgbus.StatusError, Detail: detail}
	}

	c.bus.Publish(msgbus.CloneDone{Path: req.Dest})
	return msgbus.Status{
		Kind:   msgbus.StatusCompleted,
		Detail: fmt.Sprintf("Cloned %s.", req.URL),
		Path:   req.Dest,
	}
}

// watchCancel polls the token while the child runs. On cancellation the
// child gets SIGTERM, then SIGKILL if it is still alive after the grace
// period. done is closed after Wait returns.
func watchCancel(cmd *exec.Cmd, cancel *task.CancelToken, done <-chan struct{}) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if !cancel.IsSet() {
				continue
			}
			_ = cmd.Process.Signal(syscall.SIGTERM)
			select {
			case <-done:
			case <-time.After(killGrace):
				_ = cmd.Process.Kill()
			}
			return
		}
	}
}

// scanProgressLines splits on both \n and \r so git's in-place progress
// updates ("Receiving objects: 42%") come through as separate lines.
func scanProgressLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
