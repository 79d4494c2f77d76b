// Package policy holds the hardware capability flags that shape Pass 1 of
// the arbitration engine's reclamation decision.
package policy

const (
	tagSupportsMultipleSecureCodecs     = "supports-multiple-secure-codecs"
	tagSupportsSecureWithNonSecureCodec = "supports-secure-with-non-secure-codec"
)

// Setting is one (tag, value) pair as accepted by Flags.Apply, the same
// shape the Config RPC decodes off the wire.
type Setting struct {
	Tag   string
	Value uint64
}

// Flags are the two boolean hardware capabilities the engine consults.
// Both default to true, matching the source: a platform that can't
// actually support concurrent secure codecs must say so explicitly via
// Config.
type Flags struct {
	SupportsMultipleSecureCodecs     bool
	SupportsSecureWithNonSecureCodec bool
}

// Default returns the flags with both capabilities enabled.
func Default() Flags {
	return Flags{
		SupportsMultipleSecureCodecs:     true,
		SupportsSecureWithNonSecureCodec: true,
	}
}

// Apply updates f in place from settings, in order. Unrecognized tags are
// ignored silently, so a client talking about a capability this arbiter
// doesn't know about doesn't cause the whole Config call to fail.
func (f *Flags) Apply(settings []Setting) {
	for _, s := range settings {
		switch s.Tag {
		case tagSupportsMultipleSecureCodecs:
			f.SupportsMultipleSecureCodecs = s.Value != 0
		case tagSupportsSecureWithNonSecureCodec:
			f.SupportsSecureWithNonSecureCodec = s.Value != 0
		}
	}
}
