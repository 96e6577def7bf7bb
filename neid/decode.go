// Package neid decompresses the framebuffer images of the Nights ending
// sequence, reproducing the SH-2 routine that unpacks them into VRAM.
package neid

import (
	"errors"
	"fmt"
	"log"
)

const (
	FormatTag = 0x000F
	MaxWidth  = 0x200
	MaxHeight = 0x100
)

var (
	ErrInvalidHeader = errors.New("invalid image header")
	ErrBadTag        = fmt.Errorf("%w: format tag is not %04X", ErrInvalidHeader, FormatTag)
	ErrTooWide       = fmt.Errorf("%w: width exceeds %d", ErrInvalidHeader, MaxWidth)
	ErrTooTall       = fmt.Errorf("%w: height exceeds %d", ErrInvalidHeader, MaxHeight)
)

// Mode selects the optional passes of a decode.
type Mode uint16

const (
	ModeClear          Mode = 0x1 // zero the rectangle before decoding
	ModeSetAttr        Mode = 0x2 // set 0x8000 on every word afterwards
	ModeSetAttrNonZero Mode = 0x4 // set 0x8000 on non-zero words afterwards
	ModeBankB          Mode = 0x8 // use the second half of the framebuffer
)

// Options is the destination of a decode.
type Options struct {
	XOffset uint32
	YOffset uint32
	Mode    Mode
}

// Bank returns the framebuffer address the offsets are measured from.
func (o Options) Bank() uint32 {
	if o.Mode&ModeBankB != 0 {
		return BankB
	}
	return BankA
}

// Base returns the framebuffer address of the first decoded word.
func (o Options) Base() uint32 {
	return o.Bank() + o.XOffset<<1 + uint32(uint16(o.YOffset))*RowStride
}

// Header is the fixed part of a compressed image.
type Header struct {
	Unused uint16
	Tag    uint16
	Cols   uint16
	Rows   uint16
}

const HeaderSize = 8

// Size is the extent of a decoded image measured from the bank origin,
// offsets included.
type Size struct {
	Width  int
	Height int
}

func (s Size) Empty() bool { return s.Width == 0 && s.Height == 0 }

// sext mirrors the sign-extending 16-bit loads of the routine.
func sext(v uint16) uint32 { return uint32(int32(int16(v))) }

// ReadHeader reads the four header words at addr.
func ReadHeader(mem *AddressSpace, addr uint32) (Header, error) {
	var f [4]uint16
	for i := range f {
		v, err := mem.Read16(addr + uint32(2*i))
		if err != nil {
			return Header{}, err
		}
		f[i] = v
	}
	return Header{Unused: f[0], Tag: f[1], Cols: f[2], Rows: f[3]}, nil
}

// Validate checks the header against the destination offsets and returns
// the image extent.
func (h Header) Validate(xOff, yOff uint32) (Size, error) {
	if h.Tag != FormatTag {
		return Size{}, ErrBadTag
	}
	// The hardware only checks the sums. A zero or negative count that an
	// offset wraps back into range would make it walk memory until it
	// faults, so those are rejected here as well.
	w := sext(h.Cols) - 1 + xOff
	if w > MaxWidth-1 || h.Cols == 0 || h.Cols > MaxWidth {
		return Size{}, ErrTooWide
	}
	ht := sext(h.Rows) - 1 + yOff
	if ht > MaxHeight-1 || h.Rows == 0 || h.Rows > MaxHeight {
		return Size{}, ErrTooTall
	}
	return Size{Width: int(w) + 1, Height: int(ht) + 1}, nil
}

// Decoder runs the decompression routine against one address space.
// It is not safe for concurrent use.
type Decoder struct {
	mem   *AddressSpace
	table RankTable

	// Log receives trace output when non-nil.
	Log *log.Logger
}

func NewDecoder(mem *AddressSpace) *Decoder {
	return &Decoder{mem: mem}
}

// Decode unpacks the image at offset of input into a fresh address space.
func Decode(input []byte, offset uint32, opts Options) (*AddressSpace, Size, error) {
	mem := NewAddressSpace(input)
	size, err := NewDecoder(mem).Decode(offset, opts)
	return mem, size, err
}

func (d *Decoder) Memory() *AddressSpace { return d.mem }

func (d *Decoder) Table() *RankTable { return &d.table }

func (d *Decoder) logf(format string, args ...interface{}) {
	if d.Log != nil {
		d.Log.Printf(format, args...)
	}
}

// Decode decompresses the image whose header starts at input address src
// into the framebuffer.
//
// Header problems return an empty Size and an error wrapping
// ErrInvalidHeader, with nothing written. Any other error is fatal and the
// framebuffer contents are undefined.
func (d *Decoder) Decode(src uint32, opts Options) (Size, error) {
	hdr, err := ReadHeader(d.mem, src)
	if err != nil {
		return Size{}, err
	}
	size, err := hdr.Validate(opts.XOffset, opts.YOffset)
	if err != nil {
		return Size{}, err
	}
	d.logf("header at %08X: %d x %d words, extent %d x %d", src, hdr.Cols, hdr.Rows, size.Width, size.Height)

	// Validate rejects zero and negative counts, the passes can rely on that.
	r := rect{base: opts.Base(), cols: uint32(hdr.Cols), rows: uint32(hdr.Rows)}
	d.logf("destination %08X mode %X", r.base, uint16(opts.Mode))

	if opts.Mode&ModeClear != 0 {
		if err := d.clear(r); err != nil {
			return Size{}, err
		}
	}

	d.table.Reset()

	br, err := NewBitReader(d.mem, src+HeaderSize)
	if err != nil {
		return Size{}, err
	}
	if err := d.decodeRows(br, r); err != nil {
		return Size{}, err
	}
	d.logf("stream consumed up to %08X", br.Addr())

	if opts.Mode&ModeSetAttr != 0 {
		err = d.setAttr(r, false)
	} else if opts.Mode&ModeSetAttrNonZero != 0 {
		err = d.setAttr(r, true)
	}
	if err != nil {
		return Size{}, err
	}

	if err := d.table.Store(d.mem); err != nil {
		return Size{}, err
	}
	return size, nil
}

// decodeRows is the main loop. A run of length n is n-1 copies of the
// current value followed by one decoded symbol; runs carry over row ends.
func (d *Decoder) decodeRows(br *BitReader, r rect) error {
	// building the table counts the value register down to zero
	var value uint16

	run, err := br.ReadRun()
	if err != nil {
		return err
	}

	rowAddr := r.base
	for row := uint32(0); row < r.rows; row++ {
		cursor := rowAddr
		rowAddr += RowStride
		left := r.cols

		for left > 0 {
			if run > left {
				if value, err = d.repeat(cursor, left, value); err != nil {
					return err
				}
				run -= left
				break
			}

			left -= run
			if run > 1 {
				if value, err = d.repeat(cursor, run-1, value); err != nil {
					return err
				}
				cursor += (run - 1) * 2
			}

			if value, err = d.symbol(br); err != nil {
				return err
			}
			if err := d.mem.Write16(cursor, value); err != nil {
				return err
			}
			if err := d.chain(br, cursor, ^value); err != nil {
				return err
			}
			cursor += 2

			if run, err = br.ReadRun(); err != nil {
				return err
			}
		}
	}
	return nil
}

// repeat writes n copies of value starting at addr. A word already holding
// bit 15 is a marker left by chain: the value continues as its complement.
func (d *Decoder) repeat(addr, n uint32, value uint16) (uint16, error) {
	for ; n > 0; n-- {
		w, err := d.mem.Read16(addr)
		if err != nil {
			return 0, err
		}
		if w&0x8000 != 0 {
			value = ^w
		}
		if err := d.mem.Write16(addr, value); err != nil {
			return 0, err
		}
		addr += 2
	}
	return value, nil
}

// symbol decodes one word. A leading 0 bit is the top bit of a literal;
// a leading 1 is followed by a 7-bit dictionary slot.
func (d *Decoder) symbol(br *BitReader) (uint16, error) {
	flag, err := br.PeekBit()
	if err != nil {
		return 0, err
	}

	if flag == 0 {
		v, err := br.ReadBits(16)
		if err != nil {
			return 0, err
		}
		d.table.Push(uint16(v))
		return uint16(v), nil
	}

	code, err := br.ReadBits(8)
	if err != nil {
		return 0, err
	}
	slot := int(code & 0x7F)
	d.table.Promote(slot)
	return d.table.Lookup(slot), nil
}

// chainStep maps the 2-bit chain codes 1..3 to a column delta.
var chainStep = [4]int32{0, -1, 0, 1}

// chain follows an optional vertical chain below addr, writing marker at
// each step. Markers are picked up by repeat on later rows.
func (d *Decoder) chain(br *BitReader, addr uint32, marker uint16) error {
	bit, err := br.PopBit()
	if err != nil || bit == 0 {
		return err
	}

	for {
		code, err := br.ReadBits(2)
		if err != nil {
			return err
		}

		var dx int32
		if code != 0 {
			dx = chainStep[code]
		} else {
			more, err := br.PopBit()
			if err != nil {
				return err
			}
			if more == 0 {
				return nil
			}
			far, err := br.PopBit()
			if err != nil {
				return err
			}
			dx = -2
			if far == 1 {
				dx = 2
			}
		}

		addr += uint32(dx*2) + RowStride
		if err := d.mem.Write16(addr, marker); err != nil {
			return err
		}
	}
}
