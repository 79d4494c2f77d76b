// Package resource defines the closed vocabulary of media resources the
// arbiter tracks: their kinds, their declared magnitude, and the wire tags
// used to name them across the RPC boundary.
package resource

import "fmt"

// Kind identifies a class of scarce media resource. The set is closed and
// consulted directly by the arbitration passes (arbitration package); a new
// kind that should participate in reclamation must be routed there
// explicitly or it stays inert.
type Kind int

const (
	// Unknown marks a tag the arbiter does not recognize. It never appears
	// in a stored Resource; ParseKind returns it alongside ok=false.
	Unknown Kind = iota
	SecureCodec
	NonSecureCodec
	GraphicMemory
)

const (
	tagSecureCodec    = "secure-codec"
	tagNonSecureCodec = "non-secure-codec"
	tagGraphicMemory  = "graphic-memory"
)

// String renders the wire tag for a Kind, matching ParseKind's vocabulary.
func (k Kind) String() string {
	switch k {
	case SecureCodec:
		return tagSecureCodec
	case NonSecureCodec:
		return tagNonSecureCodec
	case GraphicMemory:
		return tagGraphicMemory
	default:
		return fmt.Sprintf("unknown-kind(%d)", int(k))
	}
}

// ParseKind maps a wire tag onto a Kind. Unrecognized tags return
// (Unknown, false); what to do with an unrecognized resource kind is left
// to callers outside this package (the CLI and the RPC server both reject
// it).
func ParseKind(tag string) (Kind, bool) {
	switch tag {
	case tagSecureCodec:
		return SecureCodec, true
	case tagNonSecureCodec:
		return NonSecureCodec, true
	case tagGraphicMemory:
		return GraphicMemory, true
	default:
		return Unknown, false
	}
}

// Resource is a single declared unit of a Kind. Value is kind-specific
// magnitude (bytes of graphic memory, typically 1 for a codec slot) and
// carries no meaning of its own beyond ordering victims within a process
// during Pass 2 selection (see arbitration package).
type Resource struct {
	Kind  Kind
	Value uint64
}

// HasKind reports whether any resource in the slice matches kind. A
// Value of zero still counts as presence.
func HasKind(kind Kind, resources []Resource) bool {
	for _, r := range resources {
		if r.Kind == kind {
			return true
		}
	}
	return false
}
