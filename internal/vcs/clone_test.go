package vcs

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/harrison/contextpacker/internal/msgbus"
	"github.com/harrison/contextpacker/internal/task"
)

// fakeGit installs a shell script named git on PATH and returns the Cloner
// wired to find it. The script body decides the outcome.
func fakeGit(t *testing.T, bus *msgbus.Bus, script string) *Cloner {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake git script requires a POSIX shell")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "git")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatal(err)
	}
	c := NewCloner(bus)
	c.lookPath = func(string) (string, error) { return path, nil }
	return c
}

func drainBus(bus *msgbus.Bus) []msgbus.Message {
	var msgs []msgbus.Message
	for {
		msg, ok := bus.TryReceive()
		if !ok {
			return msgs
		}
		msgs = append(msgs, msg)
	}
}

func TestCloneRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     CloneRequest
		wantErr bool
	}{
		{"valid", CloneRequest{URL: "https://example.com/r.git", Dest: "/tmp/r"}, false},
		{"missing URL", CloneRequest{Dest: "/tmp/r"}, true},
		{"missing dest", CloneRequest{URL: "https://example.com/r.git"}, true},
		{"blank URL", CloneRequest{URL: "   ", Dest: "/tmp/r"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRepoName(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://example.com/owner/project.git", "project"},
		{"https://example.com/owner/project", "project"},
		{"https://example.com/owner/project/", "project"},
		{"git@example.com:owner/tools.git", "tools"},
		{"", "repository"},
	}
	for _, tt := range tests {
		if got := RepoName(tt.url); got != tt.want {
			t.Errorf("RepoName(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestCloneMissingGit(t *testing.T) {
	bus := msgbus.New()
	c := NewCloner(bus)
	c.lookPath = func(string) (string, error) { return "", fmt.Errorf("not found") }

	status := c.Clone(CloneRequest{URL: "https://example.com/r.git", Dest: t.TempDir()}, task.NewCancelToken())
	require.Equal(t, msgbus.StatusError, status.Kind)
	require.Contains(t, status.Detail, "git")
}

func TestCloneInvalidRequest(t *testing.T) {
	bus := msgbus.New()
	c := NewCloner(bus)

	status := c.Clone(CloneRequest{}, task.NewCancelToken())
	require.Equal(t, msgbus.StatusError, status.Kind)
}

func TestCloneSuccessStreamsOutputAndReportsPath(t *testing.T) {
	bus := msgbus.New()
	dest := filepath.Join(t.TempDir(), "repo")
	c := fakeGit(t, bus, `echo "Cloning into 'repo'..." >&2
echo "Receiving objects: 100%" >&2
exit 0`)

	status := c.Clone(CloneRequest{URL: "https://example.com/r.git", Dest: dest}, task.NewCancelToken())
	require.Equal(t, msgbus.StatusCompleted, status.Kind)
	require.Equal(t, dest, status.Path)

	var logs []string
	var cloneDone bool
	for _, msg := range drainBus(bus) {
		switch v := msg.(type) {
		case msgbus.Log:
			logs = append(logs, v.Text)
		case msgbus.CloneDone:
			cloneDone = true
			require.Equal(t, dest, v.Path)
		}
	}
	require.True(t, cloneDone, "CloneDone not published")
	require.Contains(t, logs, "Receiving objects: 100%")
}

func TestCloneFailureReportsLastLine(t *testing.T) {
	bus := msgbus.New()
	c := fakeGit(t, bus, `echo "fatal: repository not found" >&2
exit 128`)

	status := c.Clone(CloneRequest{URL: "https://example.com/r.git", Dest: t.TempDir()}, task.NewCancelToken())
	require.Equal(t, msgbus.StatusError, status.Kind)
	require.Contains(t, status.Detail, "repository not found")

	for _, msg := range drainBus(bus) {
		if _, isDone := msg.(msgbus.CloneDone); isDone {
			t.Error("CloneDone published for a failed clone")
		}
	}
}

func TestCloneCancelTerminatesChild(t *testing.T) {
	bus := msgbus.New()
	// Child exits on SIGTERM; without cancellation it would run 30s
	// Close the child's stderr so the output stream ends promptly
	c := fakeGit(t, bus, `exec 2>/dev/null
trap 'kill "$pid" 2>/dev/null; exit 1' TERM
sleep 30 &
pid=$!
wait "$pid"`)

	cancel := task.NewCancelToken()
	go func() {
		time.Sleep(200 * time.Millisecond)
		cancel.Cancel()
	}()

	start := time.Now()
	status := c.Clone(CloneRequest{URL: "https://example.com/r.git", Dest: t.TempDir()}, cancel)
	elapsed := time.Since(start)

	require.Equal(t, msgbus.StatusCancelled, status.Kind)
	if elapsed > 10*time.Second {
		t.Fatalf("cancelled clone took %v", elapsed)
	}
}
