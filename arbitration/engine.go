// Package arbitration implements the two-pass reclamation decision
// procedure: given a calling process and the resources it wants, decide
// which existing clients (if any) must surrender first. The engine never
// calls Surrender and never mutates the registry; it only reads under
// whatever lock its caller (service.Service) already holds.
package arbitration

import (
	"github.com/DesolationStaging/mediarm/clienthandle"
	"github.com/DesolationStaging/mediarm/policy"
	"github.com/DesolationStaging/mediarm/priority"
	"github.com/DesolationStaging/mediarm/registry"
	"github.com/DesolationStaging/mediarm/resource"
)

// Engine ties a Registry, a priority Oracle, and Policy Flags together to
// answer "who, if anyone, must give up resource X so pid Y can proceed."
type Engine struct {
	Registry *registry.Registry
	Oracle   priority.Oracle
	Flags    *policy.Flags
}

// New constructs an Engine over the given collaborators. flags is stored by
// reference so a later Config call that mutates it is picked up by
// subsequent Reclaim calls made under the same lock.
func New(reg *registry.Registry, oracle priority.Oracle, flags *policy.Flags) *Engine {
	return &Engine{Registry: reg, Oracle: oracle, Flags: flags}
}

// Reclaim runs the two-pass decision procedure for callingPid's request and
// returns the ordered list of client handles that must surrender, or nil if
// no legal reclamation exists. The caller must invoke Surrender on the
// result outside whatever lock guards the Registry.
func (e *Engine) Reclaim(callingPid int32, requested []resource.Resource) []clienthandle.Handle {
	victims := e.pass1CodecConflicts(callingPid, requested)
	if victims == nil {
		return nil
	}
	if len(victims) > 0 {
		return victims
	}
	return e.pass2Magnitude(callingPid, requested)
}

// pass1CodecConflicts resolves secure/non-secure codec co-existence
// conflicts under the policy flags. Returns a non-nil empty slice if no
// conflict applies to any requested resource (Pass 2 should then run);
// returns nil on an unrecoverable conflict (abort the whole reclaim).
func (e *Engine) pass1CodecConflicts(callingPid int32, requested []resource.Resource) []clienthandle.Handle {
	var victims []clienthandle.Handle
	for _, r := range requested {
		switch r.Kind {
		case resource.SecureCodec:
			if !e.Flags.SupportsMultipleSecureCodecs {
				got, ok := e.getAllClients(callingPid, resource.SecureCodec)
				if !ok {
					return nil
				}
				victims = append(victims, got...)
			}
			if !e.Flags.SupportsSecureWithNonSecureCodec {
				got, ok := e.getAllClients(callingPid, resource.NonSecureCodec)
				if !ok {
					return nil
				}
				victims = append(victims, got...)
			}
		case resource.NonSecureCodec:
			if !e.Flags.SupportsSecureWithNonSecureCodec {
				got, ok := e.getAllClients(callingPid, resource.SecureCodec)
				if !ok {
					return nil
				}
				victims = append(victims, got...)
			}
		}
	}
	if victims == nil {
		victims = []clienthandle.Handle{}
	}
	return victims
}

// pass2Magnitude only runs when Pass 1 produced no victims. It handles
// GraphicMemory by evicting the single biggest holder among the
// lowest-priority eligible process.
func (e *Engine) pass2Magnitude(callingPid int32, requested []resource.Resource) []clienthandle.Handle {
	var victims []clienthandle.Handle
	for _, r := range requested {
		if r.Kind != resource.GraphicMemory {
			continue
		}
		h, ok := e.getLowestPriorityBiggestClient(callingPid, resource.GraphicMemory)
		if !ok {
			return nil
		}
		victims = append(victims, h)
	}
	if len(victims) == 0 {
		return nil
	}
	return victims
}

// getAllClients collects every client holding kind, aborting the whole
// request (returns ok=false) the moment it finds one whose process is not
// strictly lower priority (numerically higher value) than callingPid. An
// oracle lookup failure for either pid counts as failure of that
// comparison, so an unresolvable priority can never let a caller win a
// codec conflict it didn't clearly outrank; contrast with
// lowestPriorityPidFor below, which skips unresolvable pids instead of
// failing on them since it's picking the least important process, not
// gating access to one.
func (e *Engine) getAllClients(callingPid int32, kind resource.Kind) ([]clienthandle.Handle, bool) {
	var out []clienthandle.Handle
	for _, bucket := range e.Registry.Buckets() {
		for _, c := range bucket.Clients {
			if !resource.HasKind(kind, c.Resources) {
				continue
			}
			if !e.isCallingPriorityHigher(callingPid, bucket.PID) {
				return nil, false
			}
			out = append(out, c.Handle)
		}
	}
	return out, true
}

// isCallingPriorityHigher reports whether callingPid is strictly more
// important (numerically lower priority value) than pid. Either priority
// being unresolvable makes this false.
func (e *Engine) isCallingPriorityHigher(callingPid, pid int32) bool {
	callingPriority, ok := e.Oracle.Priority(callingPid)
	if !ok {
		return false
	}
	holderPriority, ok := e.Oracle.Priority(pid)
	if !ok {
		return false
	}
	return callingPriority < holderPriority
}

// getLowestPriorityBiggestClient finds the least important process holding
// kind, confirms callingPid strictly outranks it, then picks that
// process's single biggest holder of kind.
func (e *Engine) getLowestPriorityBiggestClient(callingPid int32, kind resource.Kind) (clienthandle.Handle, bool) {
	callingPriority, ok := e.Oracle.Priority(callingPid)
	if !ok {
		return nil, false
	}

	lowestPid, lowestPriority, ok := e.lowestPriorityPidFor(kind)
	if !ok {
		return nil, false
	}
	if lowestPriority <= callingPriority {
		return nil, false
	}

	return e.biggestClientIn(lowestPid, kind)
}

// lowestPriorityPidFor scans buckets (in registry order) that hold kind and
// returns the pid with the numerically largest ("lowest importance")
// priority. Pids whose priority can't be resolved are skipped rather than
// treated as failures, since a process with no resolvable priority simply
// can't be picked as the least important one, not aborted over. Ties keep
// the first-encountered pid.
func (e *Engine) lowestPriorityPidFor(kind resource.Kind) (int32, int32, bool) {
	found := false
	var bestPid, bestPriority int32
	for _, bucket := range e.Registry.Buckets() {
		if len(bucket.Clients) == 0 {
			continue
		}
		if !registry.HasKindInBucket(kind, bucket) {
			continue
		}
		p, ok := e.Oracle.Priority(bucket.PID)
		if !ok {
			continue
		}
		if !found || p > bestPriority {
			bestPid, bestPriority, found = bucket.PID, p, true
		}
	}
	return bestPid, bestPriority, found
}

// biggestClientIn finds, among all of pid's clients, the one owning the
// single largest-Value resource entry of kind. Ties keep the first entry
// encountered, iterating clients then their resource sequence in stable
// insertion order.
func (e *Engine) biggestClientIn(pid int32, kind resource.Kind) (clienthandle.Handle, bool) {
	bucket, ok := e.Registry.BucketFor(pid)
	if !ok {
		return nil, false
	}

	var winner clienthandle.Handle
	var largest uint64
	haveWinner := false
	for _, c := range bucket.Clients {
		for _, r := range c.Resources {
			if r.Kind != kind {
				continue
			}
			if !haveWinner || r.Value > largest {
				winner, largest, haveWinner = c.Handle, r.Value, true
			}
		}
	}
	if !haveWinner {
		return nil, false
	}
	return winner, true
}
