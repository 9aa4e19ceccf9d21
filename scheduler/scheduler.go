// Package scheduler arms one-shot timers for election lifecycle
// callbacks. Each (election, kind) pair fires at most once; a pending
// timer is cancelled when its election is deleted, so a tombstoned
// election never generates a result or a notification.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"go.vocdoni.io/dvote/log"
)

type Kind string

const (
	KindStart Kind = "start"
	KindEnd   Kind = "end"
)

// Callback runs when a scheduled instant is reached. It is invoked on
// its own goroutine.
type Callback func(electionID int)

type Scheduler struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

func New() *Scheduler {
	return &Scheduler{timers: make(map[string]*time.Timer)}
}

func key(electionID int, kind Kind) string {
	return fmt.Sprintf("%d/%s", electionID, kind)
}

// Schedule arms fn to run at the target instant. Re-scheduling the same
// (election, kind) replaces the pending timer, which is how a date
// change on a not-yet-opened election is handled. A target in the past
// fires immediately.
func (s *Scheduler) Schedule(electionID int, kind Kind, at time.Time, fn Callback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	k := key(electionID, kind)
	if t, ok := s.timers[k]; ok {
		t.Stop()
	}
	d := time.Until(at)
	if d < 0 {
		d = 0
	}
	log.Debugf("scheduling %s callback for election %d in %s", kind, electionID, d)
	s.timers[k] = time.AfterFunc(d, func() {
		s.mu.Lock()
		delete(s.timers, k)
		s.mu.Unlock()
		fn(electionID)
	})
}

// Cancel drops every pending timer of an election.
func (s *Scheduler) Cancel(electionID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, kind := range []Kind{KindStart, KindEnd} {
		k := key(electionID, kind)
		if t, ok := s.timers[k]; ok {
			t.Stop()
			delete(s.timers, k)
			log.Debugf("cancelled %s callback for election %d", kind, electionID)
		}
	}
}

// Stop cancels all pending timers and rejects further scheduling.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for k, t := range s.timers {
		t.Stop()
		delete(s.timers, k)
	}
}
