package neid

import "encoding/binary"

// TableSlots is the number of entries in the dictionary.
const TableSlots = 128

// RankTable is the adaptive dictionary of recently decoded words.
//
// Slots form a circular doubly-linked list. head is the most recently used
// slot, prev walks towards older entries and next(head) is the least
// recently used one, which the next literal overwrites.
type RankTable struct {
	values [TableSlots]uint16
	next   [TableSlots]uint8
	prev   [TableSlots]uint8
	head   uint8
}

// Reset restores the identity ring with every value zero.
func (t *RankTable) Reset() {
	for i := 0; i < TableSlots; i++ {
		t.values[i] = 0
		t.next[i] = uint8((i + 1) % TableSlots)
		t.prev[i] = uint8((i + TableSlots - 1) % TableSlots)
	}
	t.head = 0
}

func (t *RankTable) Head() int { return int(t.head) }

func (t *RankTable) Lookup(slot int) uint16 { return t.values[slot&(TableSlots-1)] }

// Push stores a literal in the least recently used slot and makes it the head.
func (t *RankTable) Push(v uint16) {
	t.head = t.next[t.head]
	t.values[t.head] = v
}

// Promote moves slot to the front of the order. It is a no-op for the head.
func (t *RankTable) Promote(slot int) {
	s := uint8(slot & (TableSlots - 1))
	if s == t.head {
		return
	}

	// unlink
	p, n := t.prev[s], t.next[s]
	t.next[p] = n
	t.prev[n] = p

	// relink between head and its successor
	h := t.head
	after := t.next[h]
	t.next[h] = s
	t.next[s] = after
	t.prev[after] = s
	t.prev[s] = h
	t.head = s
}

// Order lists the slots from most to least recently used.
func (t *RankTable) Order() []int {
	order := make([]int, 0, TableSlots)
	s := t.head
	for i := 0; i < TableSlots; i++ {
		order = append(order, int(s))
		s = t.prev[s]
	}
	return order
}

// Store writes the table into the scratch region using the layout the
// hardware routine keeps in work RAM: values, then next and prev links as
// byte offsets, 0x100 bytes each.
func (t *RankTable) Store(mem *AddressSpace) error {
	b, err := mem.slice("store", ScratchOrigin, 3*2*TableSlots)
	if err != nil {
		return err
	}
	for i := 0; i < TableSlots; i++ {
		binary.BigEndian.PutUint16(b[2*i:], t.values[i])
		binary.BigEndian.PutUint16(b[0x100+2*i:], uint16(t.next[i])*2)
		binary.BigEndian.PutUint16(b[0x200+2*i:], uint16(t.prev[i])*2)
	}
	return nil
}
