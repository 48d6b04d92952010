package tdf

// Tag canonicalization packs a 1-4 character label into 3 wire bytes.
// Each input character contributes 6 bits (bit 5 is not encoded; it is
// zero for 'A'-'Z', so uppercase labels round-trip exactly, while
// characters with bit 5 set, such as '0'-'9' and space, decode without it
// and a trailing space decodes as padding). The permutation below is fixed by the wire
// format; see DESIGN.md for how it was derived from known-good vectors.

// EncodeLabel packs up to 4 input bytes (short labels are zero-padded) into
// the 3-byte wire form.
func EncodeLabel(label string) [3]byte {
	var buf [4]byte
	n := len(label)
	if n > 4 {
		n = 4
	}
	copy(buf[:n], label[:n])

	var out [3]byte
	out[0] = (buf[0]&0x40)<<1 | (buf[0]&0x1F)<<2 | (buf[1]&0x40)>>5 | (buf[1]&0x10)>>4
	out[1] = (buf[1]&0x0F)<<4 | (buf[2]&0x40)>>3 | (buf[2]&0x1C)>>2
	out[2] = (buf[2]&0x03)<<6 | (buf[3]&0x40)>>1 | (buf[3] & 0x1F)
	return out
}

// DecodeLabel is the inverse of EncodeLabel: it recovers up to 4 characters
// from 3 wire bytes, trimming trailing NUL padding.
func DecodeLabel(wire [3]byte) string {
	b0 := (wire[0]&0x80)>>1 | (wire[0]&0x7C)>>2
	b1 := (wire[0]&0x02)<<5 | (wire[0]&0x01)<<4 | (wire[1]&0xF0)>>4
	b2 := (wire[1]&0x08)<<3 | (wire[1]&0x07)<<2 | (wire[2]&0xC0)>>6
	b3 := (wire[2]&0x20)<<1 | (wire[2] & 0x1F)

	buf := [4]byte{b0, b1, b2, b3}
	n := 4
	for n > 0 && buf[n-1] == 0 {
		n--
	}
	return string(buf[:n])
}
