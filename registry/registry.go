// Package registry is the arbiter's in-memory data model: a mapping from
// process id to the clients running in it, each holding a list of declared
// resources. It is a pure data store, deliberately not thread-safe on its
// own — see service.Service, which owns the one mutex that guards it.
package registry

import (
	"github.com/DesolationStaging/mediarm/clienthandle"
	"github.com/DesolationStaging/mediarm/resource"
)

// ClientRecord is one client's declaration. It always has a Handle, set
// once at creation from the first AddResource call for its ClientID;
// subsequent adds for the same id only append to Resources.
type ClientRecord struct {
	ClientID  int64
	Handle    clienthandle.Handle
	Resources []resource.Resource
}

// ProcessBucket holds every client declared by one process, in the order
// they first called AddResource.
type ProcessBucket struct {
	PID     int32
	Clients []*ClientRecord
}

// Registry maps pid to that process's bucket. The zero value is ready to
// use. Iteration order for Buckets is insertion order, which the
// arbitration engine relies on for deterministic victim selection.
type Registry struct {
	order   []int32
	buckets map[int32]*ProcessBucket
}

// New returns an empty, ready-to-use Registry.
func New() *Registry {
	return &Registry{buckets: make(map[int32]*ProcessBucket)}
}

// GetOrCreateBucket returns pid's bucket, creating an empty one if this is
// the first time pid has been seen. Buckets are never removed once
// created, even after their last client is removed; an empty bucket is
// harmless and cheaper to keep than to recreate on the process's next
// declaration.
func (r *Registry) GetOrCreateBucket(pid int32) *ProcessBucket {
	if b, ok := r.buckets[pid]; ok {
		return b
	}
	if r.buckets == nil {
		r.buckets = make(map[int32]*ProcessBucket)
	}
	b := &ProcessBucket{PID: pid}
	r.buckets[pid] = b
	r.order = append(r.order, pid)
	return b
}

// BucketFor returns pid's bucket without creating one.
func (r *Registry) BucketFor(pid int32) (*ProcessBucket, bool) {
	b, ok := r.buckets[pid]
	return b, ok
}

// Buckets returns every bucket in registry insertion order, including
// empty ones. The slice is freshly allocated, but the buckets it points to
// are the registry's own.
func (r *Registry) Buckets() []*ProcessBucket {
	out := make([]*ProcessBucket, 0, len(r.order))
	for _, pid := range r.order {
		out = append(out, r.buckets[pid])
	}
	return out
}

// FindOrCreateClient returns the ClientRecord for clientID within bucket,
// creating it (with handle and no resources) if absent. handle is ignored
// for an already-existing record: the handle supplied by the first
// AddResource for a given clientID sticks for the record's lifetime.
func FindOrCreateClient(bucket *ProcessBucket, clientID int64, handle clienthandle.Handle) *ClientRecord {
	for _, c := range bucket.Clients {
		if c.ClientID == clientID {
			return c
		}
	}
	c := &ClientRecord{ClientID: clientID, Handle: handle}
	bucket.Clients = append(bucket.Clients, c)
	return c
}

// RemoveByClientID removes the single ClientRecord with the given id,
// searching buckets in registry insertion order and stopping at the first
// match (client ids are unique across the whole registry by invariant).
// Reports whether a record was found and removed.
func (r *Registry) RemoveByClientID(clientID int64) bool {
	for _, pid := range r.order {
		b := r.buckets[pid]
		for i, c := range b.Clients {
			if c.ClientID == clientID {
				b.Clients = append(b.Clients[:i], b.Clients[i+1:]...)
				return true
			}
		}
	}
	return false
}

// HasKindInBucket reports whether any client in bucket holds a resource of
// kind.
func HasKindInBucket(kind resource.Kind, bucket *ProcessBucket) bool {
	for _, c := range bucket.Clients {
		if resource.HasKind(kind, c.Resources) {
			return true
		}
	}
	return false
}

// ClientSnapshot is a read-only copy of one client's declared resources,
// safe to hand to a caller outside the arbiter's lock.
type ClientSnapshot struct {
	ClientID  int64
	Resources []resource.Resource
}

// BucketSnapshot is a read-only copy of one process's clients.
type BucketSnapshot struct {
	PID     int32
	Clients []ClientSnapshot
}

// Snapshot is a point-in-time, deep copy of the whole registry, intended
// for diagnostics (a monitor UI, an operator's status query). It holds no
// Handles: surrendering a client is not something a snapshot consumer can
// do.
type Snapshot struct {
	Buckets []BucketSnapshot
}

// Snapshot deep-copies the registry's current state in insertion order.
func (r *Registry) Snapshot() Snapshot {
	out := Snapshot{Buckets: make([]BucketSnapshot, 0, len(r.order))}
	for _, pid := range r.order {
		b := r.buckets[pid]
		bs := BucketSnapshot{PID: b.PID, Clients: make([]ClientSnapshot, 0, len(b.Clients))}
		for _, c := range b.Clients {
			resources := append([]resource.Resource(nil), c.Resources...)
			bs.Clients = append(bs.Clients, ClientSnapshot{ClientID: c.ClientID, Resources: resources})
		}
		out.Buckets = append(out.Buckets, bs)
	}
	return out
}
