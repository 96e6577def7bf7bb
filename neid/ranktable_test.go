package neid

import (
	"encoding/binary"
	"testing"
)

func checkRing(t *testing.T, tbl *RankTable) {
	t.Helper()
	seen := make(map[int]bool)
	for _, s := range tbl.Order() {
		if seen[s] {
			t.Fatalf("slot %d appears twice in %v", s, tbl.Order())
		}
		seen[s] = true
	}
	for s := 0; s < TableSlots; s++ {
		if int(tbl.next[tbl.prev[s]]) != s {
			t.Fatalf("links broken at slot %d", s)
		}
	}
}

func TestRankTableReset(t *testing.T) {
	var tbl RankTable
	tbl.Push(7)
	tbl.Promote(50)
	tbl.Reset()

	if tbl.Head() != 0 {
		t.Errorf("expected head 0, got %d", tbl.Head())
	}
	order := tbl.Order()
	if order[0] != 0 || order[1] != 127 || order[127] != 1 {
		t.Errorf("unexpected initial order %v", order[:4])
	}
	for s := 0; s < TableSlots; s++ {
		if tbl.Lookup(s) != 0 {
			t.Errorf("slot %d holds %04X after reset", s, tbl.Lookup(s))
		}
	}
	checkRing(t, &tbl)
}

func TestRankTablePush(t *testing.T) {
	var tbl RankTable
	tbl.Reset()

	tbl.Push(0x11)
	tbl.Push(0x22)
	if tbl.Head() != 2 || tbl.Lookup(1) != 0x11 || tbl.Lookup(2) != 0x22 {
		t.Errorf("head %d, slots %04X %04X", tbl.Head(), tbl.Lookup(1), tbl.Lookup(2))
	}

	// the ring wraps and the oldest slot is reused
	for i := 0; i < TableSlots-2; i++ {
		tbl.Push(uint16(0x100 + i))
	}
	if tbl.Head() != 0 {
		t.Errorf("expected head to wrap to 0, got %d", tbl.Head())
	}
	tbl.Push(0xAAAA)
	if tbl.Head() != 1 || tbl.Lookup(1) != 0xAAAA {
		t.Errorf("expected slot 1 overwritten, head %d value %04X", tbl.Head(), tbl.Lookup(1))
	}
	checkRing(t, &tbl)
}

func TestRankTablePromote(t *testing.T) {
	var tbl RankTable
	tbl.Reset()
	tbl.Push(0x1)
	tbl.Push(0x2)
	tbl.Push(0x3)

	tbl.Promote(1)
	if tbl.Head() != 1 {
		t.Fatalf("expected head 1, got %d", tbl.Head())
	}
	order := tbl.Order()
	expected := []int{1, 3, 2, 0, 127}
	for i, s := range expected {
		if order[i] != s {
			t.Fatalf("order %v, expected prefix %v", order[:5], expected)
		}
	}
	if order[127] != 4 {
		t.Errorf("least recently used slot %d, expected 4", order[127])
	}
	checkRing(t, &tbl)

	// the next literal still lands on the least recently used slot
	tbl.Push(0x4)
	if tbl.Head() != 4 {
		t.Errorf("expected push into slot 4, got %d", tbl.Head())
	}

	// promoting the head changes nothing
	before := tbl.Order()
	tbl.Promote(4)
	after := tbl.Order()
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("promote of head reordered the table")
		}
	}
}

func TestRankTablePromoteNeighbours(t *testing.T) {
	var tbl RankTable
	tbl.Reset()

	// next(head) and prev(head) are the edge cases of the unlink
	tbl.Promote(1)
	checkRing(t, &tbl)
	tbl.Promote(0)
	checkRing(t, &tbl)
	if got := tbl.Order()[:3]; got[0] != 0 || got[1] != 1 || got[2] != 127 {
		t.Errorf("unexpected order %v", got)
	}
}

func TestRankTableStore(t *testing.T) {
	mem := NewAddressSpace(nil)
	var tbl RankTable
	tbl.Reset()
	if err := tbl.Store(mem); err != nil {
		t.Fatalf("Store: %v", err)
	}

	word := func(off int) uint16 { return binary.BigEndian.Uint16(mem.Scratch[off:]) }

	// the layout the routine builds: next offsets count up by two and
	// wrap to 0, prev offsets start at FE
	for i := 0; i < TableSlots-1; i++ {
		if word(0x100+2*i) != uint16(2*i+2) {
			t.Fatalf("next[%d] = %X", i, word(0x100+2*i))
		}
	}
	if word(0x100+2*127) != 0 {
		t.Errorf("next[127] = %X, expected 0", word(0x100+2*127))
	}
	if word(0x200) != 0xFE {
		t.Errorf("prev[0] = %X, expected FE", word(0x200))
	}
	for i := 1; i < TableSlots; i++ {
		if word(0x200+2*i) != uint16(2*i-2) {
			t.Fatalf("prev[%d] = %X", i, word(0x200+2*i))
		}
	}

	tbl.Push(0xBEEF)
	tbl.Store(mem)
	if word(2) != 0xBEEF {
		t.Errorf("value of slot 1 = %04X", word(2))
	}
}
