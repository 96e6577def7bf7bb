package neid

import (
	"image"
)

// Plane selects which byte of a framebuffer word becomes the gray sample.
type Plane int

const (
	PlaneLuma Plane = iota // low byte, luminosity
	PlaneAttr              // high byte, color index and priority bit
)

func (p Plane) String() string {
	if p == PlaneAttr {
		return "attr"
	}
	return "luma"
}

// Rect reads w x h framebuffer words starting at origin, row major.
func (m *AddressSpace) Rect(origin uint32, w, h int) ([]uint16, error) {
	words := make([]uint16, 0, w*h)
	for y := 0; y < h; y++ {
		row := origin + uint32(y)*RowStride
		for x := 0; x < w; x++ {
			v, err := m.Read16(row + uint32(x)*2)
			if err != nil {
				return nil, err
			}
			words = append(words, v)
		}
	}
	return words, nil
}

// GrayImage turns w x h words into a grayscale image of the chosen plane.
func GrayImage(words []uint16, w, h int, plane Plane) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i, v := range words[:w*h] {
		if plane == PlaneAttr {
			img.Pix[i] = uint8(v >> 8)
		} else {
			img.Pix[i] = uint8(v)
		}
	}
	return img
}

// Image renders a decoded image. size is what Decode returned and the
// rectangle starts at the bank origin, so destination offsets show up as a
// border.
func (m *AddressSpace) Image(opts Options, size Size, plane Plane) (*image.Gray, error) {
	words, err := m.Rect(opts.Bank(), size.Width, size.Height)
	if err != nil {
		return nil, err
	}
	return GrayImage(words, size.Width, size.Height, plane), nil
}
