package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"go.vocdoni.io/dvote/log"
)

func TestMain(m *testing.M) {
	log.Init("error", "stdout")
	m.Run()
}

func waitFired(c *qt.C, fired *int32, want int32) {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if atomic.LoadInt32(fired) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	c.Fatalf("callback fired %d times, want %d", atomic.LoadInt32(fired), want)
}

func TestScheduleFires(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	s := New()
	defer s.Stop()

	var fired int32
	s.Schedule(1, KindEnd, time.Now().Add(20*time.Millisecond), func(electionID int) {
		c.Check(electionID, qt.Equals, 1)
		atomic.AddInt32(&fired, 1)
	})
	waitFired(c, &fired, 1)
}

func TestSchedulePastFiresImmediately(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	s := New()
	defer s.Stop()

	var fired int32
	s.Schedule(1, KindStart, time.Now().Add(-time.Hour), func(int) {
		atomic.AddInt32(&fired, 1)
	})
	waitFired(c, &fired, 1)
}

func TestScheduleReplacesPending(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	s := New()
	defer s.Stop()

	var old, replacement int32
	s.Schedule(1, KindEnd, time.Now().Add(30*time.Millisecond), func(int) {
		atomic.AddInt32(&old, 1)
	})
	s.Schedule(1, KindEnd, time.Now().Add(60*time.Millisecond), func(int) {
		atomic.AddInt32(&replacement, 1)
	})
	waitFired(c, &replacement, 1)
	c.Assert(atomic.LoadInt32(&old), qt.Equals, int32(0))
}

func TestCancelDropsBothKinds(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	s := New()
	defer s.Stop()

	var fired int32
	for _, kind := range []Kind{KindStart, KindEnd} {
		s.Schedule(1, kind, time.Now().Add(30*time.Millisecond), func(int) {
			atomic.AddInt32(&fired, 1)
		})
	}
	// An unrelated election keeps its timer.
	var other int32
	s.Schedule(2, KindEnd, time.Now().Add(30*time.Millisecond), func(int) {
		atomic.AddInt32(&other, 1)
	})

	s.Cancel(1)
	waitFired(c, &other, 1)
	time.Sleep(50 * time.Millisecond)
	c.Assert(atomic.LoadInt32(&fired), qt.Equals, int32(0))
}

func TestStopRejectsNewTimers(t *testing.T) {
	t.Parallel()
	c := qt.New(t)
	s := New()

	var fired int32
	s.Schedule(1, KindEnd, time.Now().Add(30*time.Millisecond), func(int) {
		atomic.AddInt32(&fired, 1)
	})
	s.Stop()
	s.Schedule(2, KindEnd, time.Now().Add(-time.Hour), func(int) {
		atomic.AddInt32(&fired, 1)
	})
	time.Sleep(80 * time.Millisecond)
	c.Assert(atomic.LoadInt32(&fired), qt.Equals, int32(0))
	c.Assert(s.timers, qt.HasLen, 0)
}
