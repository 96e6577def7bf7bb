package neid

import (
	"errors"
)

// BitReader is the routine's 32-bit shift register over the input region.
//
// Words are loaded big-endian and consumed MSB first. The register always
// holds at least one unread bit: it is refilled as soon as the last bit of a
// word is shifted out, so PeekBit never touches memory.
type BitReader struct {
	mem       *AddressSpace
	addr      uint32 // next word to load
	bits      uint32
	remaining int

	// set when a refill ran past the input; reported on the next consume
	pending error
}

// NewBitReader primes the register with the word at addr.
func NewBitReader(mem *AddressSpace, addr uint32) (*BitReader, error) {
	br := &BitReader{mem: mem, addr: addr}
	if err := br.refill(); err != nil {
		return nil, err
	}
	return br, nil
}

// refill loads the next word. Running off the end of the input is not an
// error yet, the hardware prefetches the word after the last one it needs.
func (br *BitReader) refill() error {
	w, err := br.mem.Read32(br.addr)
	br.addr += 4
	br.remaining = 32
	if err != nil {
		if errors.Is(err, ErrInputUnderflow) {
			br.bits = 0
			br.pending = err
			return nil
		}
		return err
	}
	br.bits = w
	return nil
}

// Addr returns the address of the next word the register will load.
func (br *BitReader) Addr() uint32 { return br.addr }

// Remaining returns the number of unread bits in the register.
func (br *BitReader) Remaining() int { return br.remaining }

// PeekBit returns the next bit without consuming it.
func (br *BitReader) PeekBit() (uint32, error) {
	if br.pending != nil {
		return 0, br.pending
	}
	return br.bits >> 31, nil
}

// PopBit consumes one bit.
func (br *BitReader) PopBit() (uint32, error) {
	if br.pending != nil {
		return 0, br.pending
	}
	bit := br.bits >> 31
	br.bits <<= 1
	br.remaining--
	if br.remaining == 0 {
		if err := br.refill(); err != nil {
			return 0, err
		}
	}
	return bit, nil
}

// ReadBits consumes n bits and returns them MSB first. Only the last 32
// bits survive when n is larger.
func (br *BitReader) ReadBits(n int) (uint32, error) {
	var v uint32
	for i := 0; i < n; i++ {
		bit, err := br.PopBit()
		if err != nil {
			return 0, err
		}
		v = v<<1 | bit
	}
	return v, nil
}

// ReadRun decodes a bit run: k one bits, a zero, then k+1 value bits,
// giving (1<<(k+1)) - 1 + value. The smallest run is 1.
//
// Arithmetic wraps at 32 bits like the SH-2 register code.
func (br *BitReader) ReadRun() (uint32, error) {
	n := 0
	for {
		bit, err := br.PopBit()
		if err != nil {
			return 0, err
		}
		n++
		if bit == 0 {
			break
		}
	}

	mask := uint32(1)<<uint(n) - 1
	v, err := br.ReadBits(n)
	if err != nil {
		return 0, err
	}
	return mask + v&mask, nil
}
