package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vainnor/attendance-portal/session"
	"github.com/vainnor/attendance-portal/types"
)

func TestPollObservesStartAndStop(t *testing.T) {
	ctx := context.Background()
	store := session.NewMemoryStore()
	c := NewCollector(store)

	if err := c.Poll(ctx); err != nil {
		t.Fatalf("poll: %v", err)
	}
	if c.Active() != nil {
		t.Fatal("expected no session before start")
	}

	store.Set(ctx, types.AttendanceSession{ID: "s1", CourseCode: "C0511"})
	if err := c.Poll(ctx); err != nil {
		t.Fatalf("poll: %v", err)
	}
	if got := c.ActiveFor("c0511"); got == nil || got.ID != "s1" {
		t.Fatalf("expected session s1 for C0511, got %+v", got)
	}
	if got := c.ActiveFor("C0512"); got != nil {
		t.Fatalf("expected no session for another course, got %+v", got)
	}

	store.Clear(ctx)
	if err := c.Poll(ctx); err != nil {
		t.Fatalf("poll: %v", err)
	}
	if c.Active() != nil {
		t.Fatal("expected no session after stop")
	}

	stats := c.GetStats()
	if stats.TotalPolls != 3 || stats.SessionsSeen != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if stats.ActiveCourse != "" {
		t.Fatalf("expected no active course, got %q", stats.ActiveCourse)
	}
}

type failingSource struct{}

func (failingSource) Get(context.Context) (*types.AttendanceSession, error) {
	return nil, errors.New("slot unreadable")
}

func TestPollFailureKeepsLastSession(t *testing.T) {
	c := NewCollector(failingSource{})
	c.current = &types.AttendanceSession{ID: "s1", CourseCode: "C0511"}

	if err := c.Poll(context.Background()); err == nil {
		t.Fatal("expected poll error")
	}
	if c.Active() == nil {
		t.Fatal("expected last observed session to be kept")
	}
	if c.GetStats().FailedPolls != 1 {
		t.Fatalf("expected one failed poll, got %+v", c.GetStats())
	}
}

func TestRunSeesStopWithinOneInterval(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := session.NewMemoryStore()
	store.Set(ctx, types.AttendanceSession{ID: "s1", CourseCode: "C0511"})
	c := NewCollector(store)

	interval := 20 * time.Millisecond
	done := make(chan struct{})
	go func() {
		c.Run(ctx, interval)
		close(done)
	}()

	waitFor(t, time.Second, func() bool { return c.Active() != nil })
	store.Clear(ctx)
	waitFor(t, 10*interval, func() bool { return c.Active() == nil })

	cancel()
	<-done
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}
