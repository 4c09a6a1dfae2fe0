package msgbus

import (
	"fmt"
	"testing"
	"time"
)

func TestPublishReceiveFIFO(t *testing.T) {
	bus := New()
	for i := 0; i < 5; i++ {
		bus.Publish(Log{Text: fmt.Sprintf("msg-%d", i)})
	}

	for i := 0; i < 5; i++ {
		msg, ok := bus.Receive(time.Second)
		if !ok {
			t.Fatalf("Receive returned ok=false at message %d", i)
		}
		l, isLog := msg.(Log)
		if !isLog {
			t.Fatalf("message %d has type %T, want Log", i, msg)
		}
		want := fmt.Sprintf("msg-%d", i)
		if l.Text != want {
			t.Errorf("Text = %q, want %q", l.Text, want)
		}
	}
}

func TestReceiveTimeout(t *testing.T) {
	bus := New()

	start := time.Now()
	msg, ok := bus.Receive(50 * time.Millisecond)
	elapsed := time.Since(start)

	if ok {
		t.Errorf("Receive on empty bus returned %v, want timeout", msg)
	}
	if elapsed < 50*time.Millisecond {
		t.Errorf("Receive returned after %v, want at least 50ms", elapsed)
	}
}

func TestTryReceiveDrain(t *testing.T) {
	bus := New()
	bus.Publish(Progress{Value: 1, Max: 10})
	bus.Publish(Progress{Value: 2, Max: 10})

	drained := 0
	for {
		if _, ok := bus.TryReceive(); !ok {
			break
		}
		drained++
	}

	if drained != 2 {
		t.Errorf("drained %d messages, want 2", drained)
	}
	if bus.Len() != 0 {
		t.Errorf("Len = %d after drain, want 0", bus.Len())
	}
}

func TestReceiveUnblocksOnPublish(t *testing.T) {
	bus := New()

	go func() {
		time.Sleep(20 * time.Millisecond)
		bus.Publish(CloneDone{Path: "/tmp/repo"})
	}()

	msg, ok := bus.Receive(time.Second)
	if !ok {
		t.Fatal("Receive timed out waiting for publish")
	}
	if cd, isClone := msg.(CloneDone); !isClone || cd.Path != "/tmp/repo" {
		t.Errorf("got %#v, want CloneDone{Path: /tmp/repo}", msg)
	}
}

func TestStatusIsTerminal(t *testing.T) {
	tests := []struct {
		kind StatusKind
		want bool
	}{
		{StatusCompleted, true},
		{StatusCancelled, true},
		{StatusError, true},
		{StatusKind(""), false},
		{StatusKind("started"), false},
	}
	for _, tt := range tests {
		s := Status{Kind: tt.kind}
		if got := s.IsTerminal(); got != tt.want {
			t.Errorf("IsTerminal(%v) = %v, want %v", tt.kind, got, tt.want)
		}
	}
}
