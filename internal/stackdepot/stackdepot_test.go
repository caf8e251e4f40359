package stackdepot

import (
	"strings"
	"sync"
	"testing"
)

// TestCaptureStack tests capture and retrieval round trip.
func TestCaptureStack(t *testing.T) {
	Reset()

	hash := CaptureStack()
	if hash == 0 {
		t.Fatal("CaptureStack returned zero hash")
	}

	stack := GetStack(hash)
	if stack == nil {
		t.Fatal("GetStack returned nil for valid hash")
	}
	if stack.PC[0] == 0 {
		t.Error("first frame has zero PC")
	}
}

// TestStackDeduplication tests that one call site maps to one entry.
func TestStackDeduplication(t *testing.T) {
	Reset()

	var hashes [2]uint64
	for i := range hashes {
		hashes[i] = CaptureStack()
	}

	if hashes[0] != hashes[1] {
		t.Errorf("same call site produced %x and %x", hashes[0], hashes[1])
	}
	if GetStack(hashes[0]) != GetStack(hashes[1]) {
		t.Error("expected the same *StackTrace for a deduplicated stack")
	}
	if n, _ := Stats(); n != 1 {
		t.Errorf("Stats() unique = %d, want 1", n)
	}
}

// TestGetStackUnknown tests lookups that must miss.
func TestGetStackUnknown(t *testing.T) {
	Reset()

	if GetStack(0) != nil {
		t.Error("GetStack(0) should be nil")
	}
	if GetStack(0x123456789abcdef0) != nil {
		t.Error("GetStack(unknown) should be nil")
	}
}

// TestFormatStack tests that the capturing function shows up in the output.
func TestFormatStack(t *testing.T) {
	Reset()

	formatted := GetStack(CaptureStack()).FormatStack()

	for _, want := range []string{"TestFormatStack()", "stackdepot_test.go"} {
		if !strings.Contains(formatted, want) {
			t.Errorf("FormatStack() missing %q:\n%s", want, formatted)
		}
	}
}

// TestFormatStackNil tests the nil receiver.
func TestFormatStackNil(t *testing.T) {
	var st *StackTrace
	if got := st.FormatStack(); got != "  <unknown>\n" {
		t.Errorf("nil FormatStack() = %q", got)
	}
}

// TestCaptureStackSkip tests that skipped frames are omitted.
func TestCaptureStackSkip(t *testing.T) {
	Reset()

	formatted := GetStack(skipHelper()).FormatStack()
	if strings.Contains(formatted, "skipHelper") {
		t.Errorf("skipHelper frame should be skipped:\n%s", formatted)
	}
	if !strings.Contains(formatted, "TestCaptureStackSkip") {
		t.Errorf("caller frame missing:\n%s", formatted)
	}
}

//go:noinline
func skipHelper() uint64 {
	return CaptureStackSkip(1)
}

// TestDifferentCallSites tests that distinct call sites get distinct entries.
func TestDifferentCallSites(t *testing.T) {
	Reset()

	h1 := captureFromSite1()
	h2 := captureFromSite2()
	if h1 == h2 {
		t.Error("different call sites produced the same hash")
	}
	if n, _ := Stats(); n != 2 {
		t.Errorf("Stats() unique = %d, want 2", n)
	}
}

//go:noinline
func captureFromSite1() uint64 { return CaptureStack() }

//go:noinline
func captureFromSite2() uint64 { return CaptureStack() }

// TestConcurrentCapture tests the depot under concurrent writers.
func TestConcurrentCapture(t *testing.T) {
	Reset()

	const goroutines = 50

	var wg sync.WaitGroup
	hashes := make(chan uint64, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hashes <- CaptureStack()
		}()
	}
	wg.Wait()
	close(hashes)

	for h := range hashes {
		if GetStack(h) == nil {
			t.Errorf("hash %x not retrievable", h)
		}
	}
}
