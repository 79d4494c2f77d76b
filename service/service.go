// Package service implements the Facade: the four synchronized entry
// points (Config, AddResource, RemoveResource, ReclaimResource) that make
// the registry and arbitration engine safe to call from many goroutines at
// once. It owns the one mutex the rest of the arbiter lives behind.
package service

import (
	"context"
	"log"
	"sync"

	"github.com/DesolationStaging/mediarm/arbitration"
	"github.com/DesolationStaging/mediarm/clienthandle"
	"github.com/DesolationStaging/mediarm/policy"
	"github.com/DesolationStaging/mediarm/priority"
	"github.com/DesolationStaging/mediarm/registry"
	"github.com/DesolationStaging/mediarm/resource"
)

// Service is the arbiter's public surface. The zero value is not usable;
// construct with New.
type Service struct {
	mu     sync.Mutex
	reg    *registry.Registry
	flags  policy.Flags
	oracle priority.Oracle
}

// New constructs a Service over a fresh, empty registry and the given
// priority oracle, with policy flags at their defaults (both true).
func New(oracle priority.Oracle) *Service {
	return &Service{
		reg:    registry.New(),
		flags:  policy.Default(),
		oracle: oracle,
	}
}

// Config applies each policy setting in order under the lock. Unrecognized
// tags are ignored (see policy.Flags.Apply).
func (s *Service) Config(settings []policy.Setting) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags.Apply(settings)
	log.Printf("service: config applied, flags now %+v", s.flags)
}

// AddResource declares resources for clientID in pid, creating the
// process's bucket and the client's record if this is the first
// declaration for either. handle is only stored the first time clientID is
// seen; later calls only append resources.
func (s *Service) AddResource(pid int32, clientID int64, handle clienthandle.Handle, resources []resource.Resource) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bucket := s.reg.GetOrCreateBucket(pid)
	rec := registry.FindOrCreateClient(bucket, clientID, handle)
	rec.Resources = append(rec.Resources, resources...)
}

// RemoveResource withdraws clientID's entire declaration. It is a silent
// no-op if clientID is not currently registered — most commonly because a
// concurrent reclamation already removed it via the client's own Surrender
// callback re-entering here.
func (s *Service) RemoveResource(clientID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reg.RemoveByClientID(clientID)
}

// ReclaimResource runs the two-pass arbitration decision under the lock,
// releases the lock, then invokes Surrender on each chosen victim in
// selection order. It returns true only if at least one victim was chosen
// and every one of them surrendered successfully; the first failure
// short-circuits the remaining surrenders.
//
// Surrender is deliberately called outside the lock: a victim's Surrender
// typically calls back into RemoveResource, which needs to re-acquire it.
func (s *Service) ReclaimResource(ctx context.Context, callingPid int32, requested []resource.Resource) bool {
	victims := s.decide(callingPid, requested)
	if len(victims) == 0 {
		return false
	}

	for _, v := range victims {
		if !v.Surrender(ctx) {
			return false
		}
	}
	return true
}

// decide takes the lock just long enough to run the arbitration engine
// against a consistent snapshot of the registry and policy flags.
func (s *Service) decide(callingPid int32, requested []resource.Resource) []clienthandle.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	engine := arbitration.New(s.reg, s.oracle, &s.flags)
	return engine.Reclaim(callingPid, requested)
}

// Snapshot returns a deep copy of the current registry state for
// diagnostics. It never touches Handles and is safe to call at any rate.
func (s *Service) Snapshot() registry.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.Snapshot()
}
