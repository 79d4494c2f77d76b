// Package priority supplies process importance to the arbitration engine.
// Lower values mean more important; the engine never compares priorities
// from two different Oracle implementations, so the scale only needs to be
// internally consistent.
package priority

import "sync"

// Oracle answers "how important is this process" on demand. It may report
// unknown for a stale or unrecognized pid; the arbitration engine treats
// that two different ways depending on call site (see arbitration package
// doc comment on getAllClients vs lowestPriorityPidFor) — Oracle itself
// stays agnostic to which.
type Oracle interface {
	// Priority returns the process's priority and true, or an unspecified
	// value and false if the pid is not known to this oracle.
	Priority(pid int32) (int32, bool)
}

// Static is a fixed, in-memory Oracle. It is safe for concurrent use and is
// primarily meant for tests and for embedding the engine into a process
// that already tracks priorities some other way.
type Static struct {
	mu   sync.RWMutex
	byPID map[int32]int32
}

// NewStatic builds a Static oracle from an initial pid->priority mapping.
// A nil map is fine; entries can be added later with Set.
func NewStatic(initial map[int32]int32) *Static {
	s := &Static{byPID: make(map[int32]int32, len(initial))}
	for pid, p := range initial {
		s.byPID[pid] = p
	}
	return s
}

// Priority implements Oracle.
func (s *Static) Priority(pid int32) (int32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byPID[pid]
	return p, ok
}

// Set records or overwrites a pid's priority.
func (s *Static) Set(pid int32, p int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byPID[pid] = p
}

// Forget removes a pid, making subsequent lookups report unknown. Useful
// for simulating a process that has exited.
func (s *Static) Forget(pid int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byPID, pid)
}
