package neid

import (
	"bytes"
	"testing"

	"github.com/icza/bitio"
)

// streamBuilder writes compressed images bit by bit for the tests.
type streamBuilder struct {
	t   *testing.T
	buf bytes.Buffer
	w   *bitio.Writer
}

func newStream(t *testing.T) *streamBuilder {
	t.Helper()
	sb := &streamBuilder{t: t}
	sb.w = bitio.NewWriter(&sb.buf)
	return sb
}

// newImage starts a stream with a valid header.
func newImage(t *testing.T, cols, rows uint16) *streamBuilder {
	t.Helper()
	return newStream(t).header(0, FormatTag, cols, rows)
}

func (sb *streamBuilder) bits(v uint64, n uint8) *streamBuilder {
	sb.t.Helper()
	if err := sb.w.WriteBits(v, n); err != nil {
		sb.t.Fatalf("WriteBits: %v", err)
	}
	return sb
}

func (sb *streamBuilder) header(h0, tag, cols, rows uint16) *streamBuilder {
	return sb.bits(uint64(h0), 16).bits(uint64(tag), 16).bits(uint64(cols), 16).bits(uint64(rows), 16)
}

// run encodes a bit run: m-1 ones, a zero, then m value bits.
func (sb *streamBuilder) run(n uint32) *streamBuilder {
	sb.t.Helper()
	if n == 0 {
		sb.t.Fatal("runs start at 1")
	}
	m := uint8(1)
	for uint64(n) > 2*(uint64(1)<<m-1) {
		m++
	}
	base := uint64(1)<<m - 1
	sb.bits((base>>1)<<1, m)
	return sb.bits(uint64(n)-base, m)
}

func (sb *streamBuilder) literal(v uint16) *streamBuilder {
	return sb.bits(uint64(v&0x7FFF), 16)
}

func (sb *streamBuilder) slot(s int) *streamBuilder {
	return sb.bits(0x80|uint64(s&0x7F), 8)
}

func (sb *streamBuilder) noChain() *streamBuilder {
	return sb.bits(0, 1)
}

// chain encodes a marker chain with the given column steps.
func (sb *streamBuilder) chain(steps ...int) *streamBuilder {
	sb.t.Helper()
	sb.bits(1, 1)
	for _, dx := range steps {
		switch dx {
		case -1:
			sb.bits(0b01, 2)
		case 0:
			sb.bits(0b10, 2)
		case 1:
			sb.bits(0b11, 2)
		case -2:
			sb.bits(0b0010, 4)
		case 2:
			sb.bits(0b0011, 4)
		default:
			sb.t.Fatalf("bad chain step %d", dx)
		}
	}
	return sb.bits(0b000, 3)
}

// raw flushes the writer and returns the bytes as written.
func (sb *streamBuilder) raw() []byte {
	sb.t.Helper()
	if err := sb.w.Close(); err != nil {
		sb.t.Fatalf("Close: %v", err)
	}
	return sb.buf.Bytes()
}

// bytes flushes the writer and pads to whole 32-bit words.
func (sb *streamBuilder) bytes() []byte {
	data := sb.raw()
	for len(data)%4 != 0 {
		data = append(data, 0)
	}
	return data
}

// smallImage is a 4x2 image using a literal, a repeat run, a marker chain
// and a dictionary hit. Decoded it reads
//
//	1234 1234 1234 0042
//	0042 1234 1234 1234
func smallImage(t *testing.T) []byte {
	return newImage(t, 4, 2).
		run(1).literal(0x1234).chain(1).
		run(3).literal(0x0042).noChain().
		run(4).slot(1).noChain().
		run(1).
		bytes()
}

// fbWords reads n words of framebuffer row y starting at column x,
// relative to origin.
func fbWords(t *testing.T, mem *AddressSpace, origin uint32, x, y, n int) []uint16 {
	t.Helper()
	words, err := mem.Rect(origin+uint32(y)*RowStride+uint32(x)*2, n, 1)
	if err != nil {
		t.Fatalf("Rect: %v", err)
	}
	return words
}
