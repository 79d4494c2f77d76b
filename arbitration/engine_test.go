package arbitration

import (
	"context"
	"testing"

	"github.com/DesolationStaging/mediarm/clienthandle"
	"github.com/DesolationStaging/mediarm/policy"
	"github.com/DesolationStaging/mediarm/priority"
	"github.com/DesolationStaging/mediarm/registry"
	"github.com/DesolationStaging/mediarm/resource"
)

// recordingHandle counts Surrender calls and always succeeds, for tests
// that only care about which handles were chosen and in what order.
type recordingHandle struct {
	name  string
	calls *[]string
}

func (h recordingHandle) Surrender(ctx context.Context) bool {
	*h.calls = append(*h.calls, h.name)
	return true
}

func newHandle(name string, calls *[]string) clienthandle.Handle {
	return recordingHandle{name: name, calls: calls}
}

func declare(reg *registry.Registry, pid int32, clientID int64, h clienthandle.Handle, resources ...resource.Resource) {
	bucket := reg.GetOrCreateBucket(pid)
	rec := registry.FindOrCreateClient(bucket, clientID, h)
	rec.Resources = append(rec.Resources, resources...)
}

// TestS1MultipleSecureCodecDisallowedCallerWins.
func TestS1MultipleSecureCodecDisallowedCallerWins(t *testing.T) {
	var calls []string
	reg := registry.New()
	declare(reg, 20, 1, newHandle("C1", &calls), resource.Resource{Kind: resource.SecureCodec, Value: 1})

	oracle := priority.NewStatic(map[int32]int32{10: 10, 20: 20})
	flags := policy.Default()
	flags.SupportsMultipleSecureCodecs = false

	victims := New(reg, oracle, &flags).Reclaim(10, []resource.Resource{{Kind: resource.SecureCodec, Value: 1}})
	if len(victims) != 1 {
		t.Fatalf("expected exactly one victim, got %d", len(victims))
	}
	for _, v := range victims {
		if !v.Surrender(context.Background()) {
			t.Fatal("expected surrender to succeed")
		}
	}
	if len(calls) != 1 || calls[0] != "C1" {
		t.Fatalf("expected C1 to surrender exactly once, got %v", calls)
	}
}

// TestS2MultipleSecureCodecDisallowedCallerLoses.
func TestS2MultipleSecureCodecDisallowedCallerLoses(t *testing.T) {
	var calls []string
	reg := registry.New()
	declare(reg, 20, 1, newHandle("C1", &calls), resource.Resource{Kind: resource.SecureCodec, Value: 1})

	oracle := priority.NewStatic(map[int32]int32{10: 10, 20: 5})
	flags := policy.Default()
	flags.SupportsMultipleSecureCodecs = false

	victims := New(reg, oracle, &flags).Reclaim(10, []resource.Resource{{Kind: resource.SecureCodec, Value: 1}})
	if victims != nil {
		t.Fatalf("expected no victims when the caller is outranked, got %v", victims)
	}
	if len(calls) != 0 {
		t.Fatalf("expected no surrender calls, got %v", calls)
	}
}

// TestS3SecureWithNonSecureDisallowedCrossEviction.
func TestS3SecureWithNonSecureDisallowedCrossEviction(t *testing.T) {
	var calls []string
	reg := registry.New()
	declare(reg, 20, 1, newHandle("A", &calls), resource.Resource{Kind: resource.NonSecureCodec, Value: 1})
	declare(reg, 30, 2, newHandle("B", &calls), resource.Resource{Kind: resource.NonSecureCodec, Value: 1})

	oracle := priority.NewStatic(map[int32]int32{10: 10, 20: 20, 30: 20})
	flags := policy.Default()
	flags.SupportsSecureWithNonSecureCodec = false

	victims := New(reg, oracle, &flags).Reclaim(10, []resource.Resource{{Kind: resource.SecureCodec, Value: 1}})
	if len(victims) != 2 {
		t.Fatalf("expected two victims, got %d", len(victims))
	}
	for _, v := range victims {
		v.Surrender(context.Background())
	}
	if len(calls) != 2 || calls[0] != "A" || calls[1] != "B" {
		t.Fatalf("expected victims in bucket-insertion order [A B], got %v", calls)
	}
}

// TestS4GraphicMemoryBiggestOfLowest.
func TestS4GraphicMemoryBiggestOfLowest(t *testing.T) {
	var calls []string
	reg := registry.New()
	declare(reg, 20, 1, newHandle("A", &calls), resource.Resource{Kind: resource.GraphicMemory, Value: 100})
	declare(reg, 30, 2, newHandle("B", &calls), resource.Resource{Kind: resource.GraphicMemory, Value: 50})
	declare(reg, 30, 3, newHandle("C", &calls), resource.Resource{Kind: resource.GraphicMemory, Value: 200})

	oracle := priority.NewStatic(map[int32]int32{10: 10, 20: 20, 30: 30})
	flags := policy.Default()

	victims := New(reg, oracle, &flags).Reclaim(10, []resource.Resource{{Kind: resource.GraphicMemory, Value: 1}})
	if len(victims) != 1 {
		t.Fatalf("expected exactly one victim, got %d", len(victims))
	}
	victims[0].Surrender(context.Background())
	if len(calls) != 1 || calls[0] != "C" {
		t.Fatalf("expected C (the biggest holder in the lowest-priority pid) to be chosen, got %v", calls)
	}
}

// TestS5Pass1NonEmptySuppressesPass2.
func TestS5Pass1NonEmptySuppressesPass2(t *testing.T) {
	var calls []string
	reg := registry.New()
	declare(reg, 20, 1, newHandle("secure-holder", &calls), resource.Resource{Kind: resource.SecureCodec, Value: 1})
	declare(reg, 30, 2, newHandle("graphic-holder", &calls), resource.Resource{Kind: resource.GraphicMemory, Value: 999})

	oracle := priority.NewStatic(map[int32]int32{10: 0, 20: 20, 30: 30})
	flags := policy.Default()
	flags.SupportsMultipleSecureCodecs = false

	victims := New(reg, oracle, &flags).Reclaim(10, []resource.Resource{
		{Kind: resource.SecureCodec, Value: 1},
		{Kind: resource.GraphicMemory, Value: 1},
	})
	if len(victims) != 1 {
		t.Fatalf("expected exactly one victim, got %d", len(victims))
	}
	victims[0].Surrender(context.Background())
	if len(calls) != 1 || calls[0] != "secure-holder" {
		t.Fatalf("expected only the secure-codec holder, graphic memory must not be touched, got %v", calls)
	}
}

// TestS6SurrenderFailureShortCircuits checks the Facade-level contract
// (Surrender loop stops at the first failure) on two hand-built victim
// handles, running the same loop locally rather than through service.
func TestS6SurrenderFailureShortCircuits(t *testing.T) {
	var calls []string
	failing := clienthandle.Func(func(ctx context.Context) bool {
		calls = append(calls, "V1")
		return false
	})
	succeeding := clienthandle.Func(func(ctx context.Context) bool {
		calls = append(calls, "V2")
		return true
	})
	victims := []clienthandle.Handle{failing, succeeding}

	ok := true
	for _, v := range victims {
		if !v.Surrender(context.Background()) {
			ok = false
			break
		}
	}
	if ok {
		t.Fatal("expected the reclaim to report failure")
	}
	if len(calls) != 1 || calls[0] != "V1" {
		t.Fatalf("expected V2 to never be called once V1 fails, got %v", calls)
	}
}

func TestNoHoldersMeansPass1SucceedsWithNoVictims(t *testing.T) {
	reg := registry.New()
	oracle := priority.NewStatic(map[int32]int32{10: 10})
	flags := policy.Default()
	flags.SupportsMultipleSecureCodecs = false

	// No holders anywhere: Pass 1 should not abort, and Pass 2 has nothing
	// to do for a SecureCodec request, so the whole reclaim reports no
	// victims.
	victims := New(reg, oracle, &flags).Reclaim(10, []resource.Resource{{Kind: resource.SecureCodec, Value: 1}})
	if victims != nil {
		t.Fatalf("expected nil victims when nothing is held, got %v", victims)
	}
}

func TestUnknownOracleEntrySkippedInLowestPriorityScan(t *testing.T) {
	var calls []string
	reg := registry.New()
	declare(reg, 20, 1, newHandle("A", &calls), resource.Resource{Kind: resource.GraphicMemory, Value: 10})
	declare(reg, 30, 2, newHandle("B", &calls), resource.Resource{Kind: resource.GraphicMemory, Value: 999})

	// pid 30 has no oracle entry at all: lowestPriorityPidFor must skip it
	// (not fail the whole request), leaving pid 20 as the only candidate.
	oracle := priority.NewStatic(map[int32]int32{10: 0, 20: 50})
	flags := policy.Default()

	victims := New(reg, oracle, &flags).Reclaim(10, []resource.Resource{{Kind: resource.GraphicMemory, Value: 1}})
	if len(victims) != 1 {
		t.Fatalf("expected exactly one victim, got %d", len(victims))
	}
	victims[0].Surrender(context.Background())
	if calls[0] != "A" {
		t.Fatalf("expected A (pid 20) to be chosen since pid 30's priority is unresolvable, got %v", calls)
	}
}
