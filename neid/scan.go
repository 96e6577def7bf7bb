package neid

import "encoding/binary"

type Candidate struct {
	Offset int
	Header Header
}

// Scan looks for plausible image headers in data. Only the tag and the
// bounds are checked, so hits still need a decode to be confirmed.
//
// Headers are read with 16-bit loads, so only even offsets are tried.
func Scan(data []byte) []Candidate {
	var res []Candidate
	for off := 0; off+HeaderSize+4 <= len(data); off += 2 {
		if binary.BigEndian.Uint16(data[off+2:]) != FormatTag {
			continue
		}
		h := Header{
			Unused: binary.BigEndian.Uint16(data[off:]),
			Tag:    FormatTag,
			Cols:   binary.BigEndian.Uint16(data[off+4:]),
			Rows:   binary.BigEndian.Uint16(data[off+6:]),
		}
		if _, err := h.Validate(0, 0); err != nil {
			continue
		}
		res = append(res, Candidate{Offset: off, Header: h})
	}
	return res
}
