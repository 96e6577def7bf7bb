package neid

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Logical memory map of the decompressor, as seen by the SH-2 routine in the game.
const (
	InputBase  = 0x0000000
	InputLimit = 0x0200000

	FramebufferBase  = 0x5E00000
	FramebufferLimit = 0x5E80000
	FramebufferSize  = 0x100000
	BankA            = FramebufferBase
	BankB            = 0x5E40000
	RowStride        = 0x400

	ScratchBase   = 0x6000000
	ScratchLimit  = 0x7000000
	ScratchOrigin = 0x60CB100 // work RAM table used by the routine
	ScratchSize   = 0x400
)

type Region int

const (
	RegionInput Region = iota
	RegionFramebuffer
	RegionScratch
)

func (r Region) String() string {
	switch r {
	case RegionInput:
		return "input"
	case RegionFramebuffer:
		return "framebuffer"
	case RegionScratch:
		return "scratch"
	}
	return fmt.Sprintf("Region(%d)", int(r))
}

// ErrInputUnderflow is wrapped by errors for reads past the end of the input data.
var ErrInputUnderflow = errors.New("input stream underflow")

// AddressError reports an access the memory map cannot serve. It is fatal
// for the decode that raised it.
type AddressError struct {
	Op   string
	Addr uint32
	Err  error
}

func (e *AddressError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s at address %08X: %v", e.Op, e.Addr, e.Err)
	}
	return fmt.Sprintf("invalid %s at address %08X", e.Op, e.Addr)
}

func (e *AddressError) Unwrap() error { return e.Err }

// Translate maps a logical address to its region and the byte offset inside
// that region's backing buffer. It does not check the buffer length.
func Translate(addr uint32) (Region, int, error) {
	switch {
	case addr < InputLimit:
		return RegionInput, int(addr - InputBase), nil
	case addr >= FramebufferBase && addr < FramebufferLimit:
		return RegionFramebuffer, int(addr - FramebufferBase), nil
	case addr >= ScratchBase && addr < ScratchLimit:
		return RegionScratch, int(addr) - ScratchOrigin, nil
	}
	return 0, 0, &AddressError{Op: "translate", Addr: addr}
}

// AddressSpace owns the three buffers behind the memory map. Multi-byte
// accesses are big-endian.
type AddressSpace struct {
	Input       []byte
	Framebuffer []byte
	Scratch     []byte
}

// NewAddressSpace wraps input and allocates a zeroed framebuffer and scratch area.
func NewAddressSpace(input []byte) *AddressSpace {
	return &AddressSpace{
		Input:       input,
		Framebuffer: make([]byte, FramebufferSize),
		Scratch:     make([]byte, ScratchSize),
	}
}

func (m *AddressSpace) slice(op string, addr uint32, n int) ([]byte, error) {
	region, off, err := Translate(addr)
	if err != nil {
		return nil, &AddressError{Op: op, Addr: addr}
	}

	var buf []byte
	var limit uint64
	switch region {
	case RegionInput:
		buf, limit = m.Input, InputLimit
	case RegionFramebuffer:
		buf, limit = m.Framebuffer, FramebufferLimit
	case RegionScratch:
		buf, limit = m.Scratch, ScratchLimit
	}
	if uint64(addr)+uint64(n) > limit {
		return nil, &AddressError{Op: op, Addr: addr}
	}
	if off < 0 || off+n > len(buf) {
		e := &AddressError{Op: op, Addr: addr}
		if region == RegionInput {
			e.Err = ErrInputUnderflow
		}
		return nil, e
	}
	return buf[off : off+n], nil
}

func (m *AddressSpace) Read16(addr uint32) (uint16, error) {
	b, err := m.slice("read16", addr, 2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (m *AddressSpace) Read32(addr uint32) (uint32, error) {
	b, err := m.slice("read32", addr, 4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (m *AddressSpace) Write16(addr uint32, v uint16) error {
	b, err := m.slice("write16", addr, 2)
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint16(b, v)
	return nil
}

// ClearFramebuffer zeroes the whole framebuffer.
func (m *AddressSpace) ClearFramebuffer() {
	for i := range m.Framebuffer {
		m.Framebuffer[i] = 0
	}
}
