package profile

import (
	"errors"
	"math/rand"
	"testing"
)

func slots(p *Profile) []int {
	var out []int
	for _, e := range p.Entries() {
		out = append(out, int(e.Slot))
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func newTestProfile(t *testing.T, entries ...Entry) *Profile {
	t.Helper()
	p := New(1)
	for _, e := range entries {
		if _, err := p.Add(int(e.Slot), e.SetPoint); err != nil {
			t.Fatalf("add %d: %v", e.Slot, err)
		}
	}
	return p
}

func TestNewProfile(t *testing.T) {
	p := New(NoID)
	if p.ID() != NoID {
		t.Errorf("ID: got %d, want %d", p.ID(), NoID)
	}
	if p.Len() != 0 {
		t.Errorf("Len: got %d, want 0", p.Len())
	}
	if p.Name() != "" {
		t.Errorf("Name: got %q, want empty", p.Name())
	}
}

func TestAddKeepsOrder(t *testing.T) {
	p := New(1)
	for _, s := range []int{20, 4, 10, 47, 0} {
		if _, err := p.Add(s, 60); err != nil {
			t.Fatalf("add %d: %v", s, err)
		}
	}

	want := []int{0, 4, 10, 20, 47}
	if got := slots(p); !equalInts(got, want) {
		t.Errorf("slots: got %v, want %v", got, want)
	}
}

func TestAddReturnsIndex(t *testing.T) {
	p := newTestProfile(t, Entry{4, 60}, Entry{20, 70})

	index, err := p.Add(10, 65)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if index != 1 {
		t.Errorf("index: got %d, want 1", index)
	}
}

func TestAddOverwritesExistingSlot(t *testing.T) {
	p := newTestProfile(t, Entry{4, 60}, Entry{10, 65})

	index, err := p.Add(10, 72)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if index != 1 {
		t.Errorf("index: got %d, want 1", index)
	}
	if p.Len() != 2 {
		t.Errorf("Len: got %d, want 2", p.Len())
	}
	if sp, _ := p.Get(10); sp != 72 {
		t.Errorf("Get(10): got %d, want 72", sp)
	}
}

func TestAddBeyondCapacity(t *testing.T) {
	p := New(1)
	for i := 0; i < MaxEntries; i++ {
		if _, err := p.Add(i*2, int8(i)); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}
	before := p.Entries()

	index, err := p.Add(45, 99)
	if !errors.Is(err, ErrFull) {
		t.Errorf("expected ErrFull, got %v", err)
	}
	if index != -1 {
		t.Errorf("index: got %d, want -1", index)
	}

	after := p.Entries()
	if len(after) != len(before) {
		t.Fatalf("Len changed: %d -> %d", len(before), len(after))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("entry %d changed: %+v -> %+v", i, before[i], after[i])
		}
	}
}

func TestAddOverwriteWhenFull(t *testing.T) {
	p := New(1)
	for i := 0; i < MaxEntries; i++ {
		p.Add(i, 50)
	}

	if _, err := p.Add(3, 80); err != nil {
		t.Fatalf("overwrite on full profile should succeed: %v", err)
	}
	if sp, _ := p.Get(3); sp != 80 {
		t.Errorf("Get(3): got %d, want 80", sp)
	}
}

func TestAddInvalidSlot(t *testing.T) {
	p := New(1)
	for _, s := range []int{-1, SlotsPerHalfDay, 200} {
		if _, err := p.Add(s, 60); !errors.Is(err, ErrInvalidSlot) {
			t.Errorf("slot %d: expected ErrInvalidSlot, got %v", s, err)
		}
	}
	if p.Len() != 0 {
		t.Errorf("Len: got %d, want 0", p.Len())
	}
}

func TestAddRandomSequencesStaySortedAndUnique(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 200; round++ {
		p := New(1)
		for i := 0; i < 30; i++ {
			p.Add(rng.Intn(SlotsPerHalfDay), int8(rng.Intn(100)))
		}

		got := slots(p)
		if len(got) > MaxEntries {
			t.Fatalf("round %d: %d entries exceeds capacity", round, len(got))
		}
		for i := 1; i < len(got); i++ {
			if got[i-1] >= got[i] {
				t.Fatalf("round %d: slots not strictly ascending: %v", round, got)
			}
		}
	}
}

func TestRemove(t *testing.T) {
	p := newTestProfile(t, Entry{4, 60}, Entry{10, 65}, Entry{20, 70})

	index, err := p.Remove(10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if index != 1 {
		t.Errorf("index: got %d, want 1", index)
	}

	want := []int{4, 20}
	if got := slots(p); !equalInts(got, want) {
		t.Errorf("slots: got %v, want %v", got, want)
	}
	// set points must follow their slots on the shift
	if sp, _ := p.Get(20); sp != 70 {
		t.Errorf("Get(20): got %d, want 70", sp)
	}
}

func TestRemoveNotFound(t *testing.T) {
	p := newTestProfile(t, Entry{4, 60})

	if _, err := p.Remove(5); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := New(1).Remove(5); !errors.Is(err, ErrNotFound) {
		t.Errorf("empty profile: expected ErrNotFound, got %v", err)
	}
	if p.Len() != 1 {
		t.Errorf("Len: got %d, want 1", p.Len())
	}
}

func TestReplaceMovesEntry(t *testing.T) {
	p := newTestProfile(t, Entry{4, 60}, Entry{20, 70})

	if _, err := p.Replace(4, 8, 62); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []int{8, 20}
	if got := slots(p); !equalInts(got, want) {
		t.Errorf("slots: got %v, want %v", got, want)
	}
	if sp, _ := p.Get(8); sp != 62 {
		t.Errorf("Get(8): got %d, want 62", sp)
	}
}

// Replacing onto a slot that already has an entry merges the two.
func TestReplaceCollapsesOntoExistingSlot(t *testing.T) {
	p := newTestProfile(t, Entry{4, 60}, Entry{10, 65}, Entry{20, 70})

	if _, err := p.Replace(4, 10, 66); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if p.Len() != 2 {
		t.Errorf("Len: got %d, want 2 (collapsed)", p.Len())
	}
	want := []int{10, 20}
	if got := slots(p); !equalInts(got, want) {
		t.Errorf("slots: got %v, want %v", got, want)
	}
	if sp, _ := p.Get(10); sp != 66 {
		t.Errorf("Get(10): got %d, want 66", sp)
	}
}

func TestReplaceMissingOldSlotStillAdds(t *testing.T) {
	p := newTestProfile(t, Entry{4, 60})

	if _, err := p.Replace(30, 12, 64); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Len() != 2 {
		t.Errorf("Len: got %d, want 2", p.Len())
	}
}

func TestGet(t *testing.T) {
	p := newTestProfile(t, Entry{4, 60}, Entry{10, -5})

	if sp, ok := p.Get(10); !ok || sp != -5 {
		t.Errorf("Get(10): got (%d, %v), want (-5, true)", sp, ok)
	}
	if _, ok := p.Get(7); ok {
		t.Error("Get(7): expected miss for non-exact slot")
	}
	if _, ok := New(1).Get(0); ok {
		t.Error("Get on empty profile should miss")
	}
}

func TestIndexOf(t *testing.T) {
	p := newTestProfile(t, Entry{4, 60}, Entry{10, 65}, Entry{20, 70})

	tests := []struct {
		name  string
		slot  int
		match Match
		want  int
	}{
		{"exact hit", 10, MatchExact, 1},
		{"exact miss", 7, MatchExact, -1},
		{"preceding between", 7, MatchPreceding, 0},
		{"preceding before first", 2, MatchPreceding, -1},
		{"preceding after last", 40, MatchPreceding, 2},
		{"preceding exact", 20, MatchPreceding, 2},
		{"following between", 7, MatchFollowing, 1},
		{"following after last", 25, MatchFollowing, -1},
		{"following before first", 0, MatchFollowing, 0},
		{"following exact", 4, MatchFollowing, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.IndexOf(tt.slot, tt.match); got != tt.want {
				t.Errorf("IndexOf(%d, %d): got %d, want %d", tt.slot, tt.match, got, tt.want)
			}
		})
	}
}

func TestIndexOfExactMatchesPresence(t *testing.T) {
	p := newTestProfile(t, Entry{0, 1}, Entry{13, 2}, Entry{47, 3})
	present := map[int]bool{0: true, 13: true, 47: true}

	for s := 0; s < SlotsPerHalfDay; s++ {
		got := p.IndexOf(s, MatchExact) >= 0
		if got != present[s] {
			t.Errorf("slot %d: IndexOf exact found=%v, want %v", s, got, present[s])
		}
	}
}

func TestIndexOfEmptyProfile(t *testing.T) {
	p := New(1)
	for _, m := range []Match{MatchPreceding, MatchExact, MatchFollowing} {
		if got := p.IndexOf(10, m); got != -1 {
			t.Errorf("match %d: got %d, want -1", m, got)
		}
	}
}

func TestAt(t *testing.T) {
	p := newTestProfile(t, Entry{4, 60}, Entry{10, 65})

	e, ok := p.At(1)
	if !ok || e != (Entry{Slot: 10, SetPoint: 65}) {
		t.Errorf("At(1): got (%+v, %v)", e, ok)
	}
	if _, ok := p.At(2); ok {
		t.Error("At(2): expected miss past size")
	}
	if _, ok := p.At(-1); ok {
		t.Error("At(-1): expected miss")
	}
}

func TestClearKeepsID(t *testing.T) {
	p := newTestProfile(t, Entry{4, 60})
	p.SetID(7)
	p.SetName("weekday")

	p.Clear()

	if p.Len() != 0 {
		t.Errorf("Len: got %d, want 0", p.Len())
	}
	if p.Name() != "" {
		t.Errorf("Name: got %q, want empty", p.Name())
	}
	if p.ID() != 7 {
		t.Errorf("ID: got %d, want 7", p.ID())
	}
}

func TestReset(t *testing.T) {
	p := newTestProfile(t, Entry{4, 60})
	p.SetName("old")

	p.Reset(3)

	if p.ID() != 3 || p.Len() != 0 || p.Name() != "" {
		t.Errorf("after Reset: id=%d len=%d name=%q", p.ID(), p.Len(), p.Name())
	}
}

func TestSetNameTruncates(t *testing.T) {
	p := New(1)
	p.SetName("a very long profile name")

	if len(p.Name()) != MaxNameSize-1 {
		t.Errorf("name length: got %d, want %d", len(p.Name()), MaxNameSize-1)
	}
	if p.Name() != "a very long" {
		t.Errorf("Name: got %q", p.Name())
	}
}

func TestEntriesIsCopy(t *testing.T) {
	p := newTestProfile(t, Entry{4, 60})
	entries := p.Entries()
	entries[0].SetPoint = 99

	if sp, _ := p.Get(4); sp != 60 {
		t.Errorf("mutating Entries() leaked into profile: got %d", sp)
	}
}
