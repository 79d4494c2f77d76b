// Package clienthandle defines the opaque per-client capability the
// arbitration engine uses to ask a resource holder to give resources back.
// How a Handle is actually wired to a remote process is deliberately not
// this package's concern — see transport/callback for the gRPC-backed
// implementation the daemon uses in production.
package clienthandle

import "context"

// Handle is the capability a registered client hands to the arbiter when it
// declares resources. Surrender must be safe to call from any goroutine and
// must never be called while the registry lock (service package) is held:
// a well-behaved client's Surrender implementation calls back into
// RemoveResource, which re-acquires that lock.
type Handle interface {
	// Surrender asks the client to release everything it holds and reports
	// whether it did. ctx bounds how long the arbiter will wait.
	Surrender(ctx context.Context) bool
}

// Func adapts a plain function to a Handle, mirroring http.HandlerFunc.
// Used by tests and by simple in-process clients that don't need a real
// transport.
type Func func(ctx context.Context) bool

// Surrender implements Handle.
func (f Func) Surrender(ctx context.Context) bool { return f(ctx) }
