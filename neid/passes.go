package neid

// rect is the block of framebuffer words a decode covers: cols x rows words
// starting at base, RowStride bytes apart.
type rect struct {
	base uint32
	cols uint32
	rows uint32
}

func (r rect) each(fn func(addr uint32) error) error {
	row := r.base
	for y := uint32(0); y < r.rows; y++ {
		for x := r.cols; x > 0; x-- {
			if err := fn(row + (x-1)*2); err != nil {
				return err
			}
		}
		row += RowStride
	}
	return nil
}

func (d *Decoder) clear(r rect) error {
	return r.each(func(addr uint32) error {
		return d.mem.Write16(addr, 0)
	})
}

// setAttr sets the attribute bit 0x8000 on the rectangle, skipping zero
// words when nonZero is set.
func (d *Decoder) setAttr(r rect, nonZero bool) error {
	return r.each(func(addr uint32) error {
		w, err := d.mem.Read16(addr)
		if err != nil {
			return err
		}
		if nonZero && w == 0 {
			return nil
		}
		return d.mem.Write16(addr, w|0x8000)
	})
}
