package resource

import "testing"

func TestParseKindRoundTrip(t *testing.T) {
	cases := []struct {
		tag  string
		want Kind
	}{
		{"secure-codec", SecureCodec},
		{"non-secure-codec", NonSecureCodec},
		{"graphic-memory", GraphicMemory},
	}
	for _, tc := range cases {
		got, ok := ParseKind(tc.tag)
		if !ok {
			t.Fatalf("ParseKind(%q): expected ok=true", tc.tag)
		}
		if got != tc.want {
			t.Fatalf("ParseKind(%q) = %v, want %v", tc.tag, got, tc.want)
		}
		if got.String() != tc.tag {
			t.Fatalf("Kind(%v).String() = %q, want %q", got, got.String(), tc.tag)
		}
	}
}

func TestParseKindUnknown(t *testing.T) {
	if _, ok := ParseKind("quantum-flux-capacitor"); ok {
		t.Fatal("expected unrecognized tag to report ok=false")
	}
}

func TestHasKindZeroValueStillCounts(t *testing.T) {
	resources := []Resource{{Kind: GraphicMemory, Value: 0}}
	if !HasKind(GraphicMemory, resources) {
		t.Fatal("expected a zero-value resource to still mark presence of its kind")
	}
	if HasKind(SecureCodec, resources) {
		t.Fatal("did not expect SecureCodec to be present")
	}
}
