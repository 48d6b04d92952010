package tdf

import (
	"math"
	"unicode/utf8"
)

// Decoder is a cursor-based reader over a borrowed byte slice. It never
// copies the input; returned byte slices alias it.
type Decoder struct {
	data []byte
	pos  int
}

// NewDecoder wraps data for decoding. The Decoder does not take ownership.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: data}
}

// Position returns the current cursor offset.
func (d *Decoder) Position() int { return d.pos }

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int { return len(d.data) - d.pos }

// Done reports whether the cursor has reached the end of the buffer.
func (d *Decoder) Done() bool { return d.pos >= len(d.data) }

func (d *Decoder) eof(wanted int) error {
	return &UnexpectedEOFError{Cursor: d.pos, Wanted: wanted, Remaining: len(d.data) - d.pos}
}

// ReadByte reads a single raw byte.
func (d *Decoder) ReadByte() (byte, error) {
	if d.pos >= len(d.data) {
		return 0, d.eof(1)
	}
	b := d.data[d.pos]
	d.pos++
	return b, nil
}

// ReadFour reads four raw bytes (used for tag headers: 3 label bytes + 1
// type byte).
func (d *Decoder) ReadFour() ([4]byte, error) {
	var out [4]byte
	if d.pos+4 > len(d.data) {
		return out, d.eof(4)
	}
	copy(out[:], d.data[d.pos:d.pos+4])
	d.pos += 4
	return out, nil
}

// ReadTag reads a tag header and returns its label and value type.
func (d *Decoder) ReadTag() (string, Type, error) {
	raw, err := d.ReadFour()
	if err != nil {
		return "", 0, err
	}
	label := DecodeLabel([3]byte{raw[0], raw[1], raw[2]})
	return label, Type(raw[3]), nil
}

// ReadVarInt decodes a VarInt at the cursor. width is informational only —
// spec mandates every continuation byte is consumed regardless of the
// target width the caller intends to narrow the result to.
func (d *Decoder) ReadVarInt(width int) (uint64, error) {
	v, n, err := ReadVarInt(d.data, d.pos)
	if err != nil {
		return 0, err
	}
	d.pos += n
	return v, nil
}

// ReadFloat reads a big-endian IEEE-754 32-bit float.
func (d *Decoder) ReadFloat() (float32, error) {
	if d.pos+4 > len(d.data) {
		return 0, d.eof(4)
	}
	bits := uint32(d.data[d.pos])<<24 | uint32(d.data[d.pos+1])<<16 | uint32(d.data[d.pos+2])<<8 | uint32(d.data[d.pos+3])
	d.pos += 4
	return math.Float32frombits(bits), nil
}

// ReadBool reads a VarInt-encoded boolean (nonzero is true).
func (d *Decoder) ReadBool() (bool, error) {
	v, err := d.ReadVarInt(8)
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// ReadString reads a length-prefixed, null-terminated UTF-8 string. The
// trailing null is stripped from the returned value.
func (d *Decoder) ReadString() (string, error) {
	n, err := d.ReadVarInt(64)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	total := int(n)
	if d.pos+total > len(d.data) {
		return "", d.eof(total)
	}
	raw := d.data[d.pos : d.pos+total]
	d.pos += total
	// last byte is the counted null terminator
	s := raw[:len(raw)-1]
	if !utf8.Valid(s) {
		return "", &InvalidUTF8Error{}
	}
	return string(s), nil
}

// ReadBlob reads a length-prefixed byte blob. The returned slice is a
// zero-copy subslice of the decoder's backing array; callers must not
// mutate it.
func (d *Decoder) ReadBlob() ([]byte, error) {
	n, err := d.ReadVarInt(64)
	if err != nil {
		return nil, err
	}
	total := int(n)
	if d.pos+total > len(d.data) {
		return nil, d.eof(total)
	}
	out := d.data[d.pos : d.pos+total]
	d.pos += total
	return out, nil
}

// ReadPair reads a fixed 2-tuple of VarInts.
func (d *Decoder) ReadPair() (uint64, uint64, error) {
	a, err := d.ReadVarInt(64)
	if err != nil {
		return 0, 0, err
	}
	b, err := d.ReadVarInt(64)
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

// ReadTriple reads a fixed 3-tuple of VarInts.
func (d *Decoder) ReadTriple() (uint64, uint64, uint64, error) {
	a, err := d.ReadVarInt(64)
	if err != nil {
		return 0, 0, 0, err
	}
	b, err := d.ReadVarInt(64)
	if err != nil {
		return 0, 0, 0, err
	}
	c, err := d.ReadVarInt(64)
	if err != nil {
		return 0, 0, 0, err
	}
	return a, b, c, nil
}

// ReadListHeader reads a list header and validates the element type.
func (d *Decoder) ReadListHeader(expectedElem Type) (int, error) {
	elemByte, err := d.ReadByte()
	if err != nil {
		return 0, err
	}
	if Type(elemByte) != expectedElem {
		return 0, &InvalidTypeError{Expected: expectedElem, Actual: Type(elemByte)}
	}
	n, err := d.ReadVarInt(64)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// ReadMapHeader reads a map header and validates key/value types.
func (d *Decoder) ReadMapHeader(expectedKey, expectedVal Type) (int, error) {
	keyByte, err := d.ReadByte()
	if err != nil {
		return 0, err
	}
	valByte, err := d.ReadByte()
	if err != nil {
		return 0, err
	}
	if Type(keyByte) != expectedKey {
		return 0, &InvalidTypeError{Expected: expectedKey, Actual: Type(keyByte)}
	}
	if Type(valByte) != expectedVal {
		return 0, &InvalidTypeError{Expected: expectedVal, Actual: Type(valByte)}
	}
	n, err := d.ReadVarInt(64)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Union is the decoded result of a union field: either Set (HasValue=true,
// with the inner tag/type ready for the caller to decode) or Unset.
type Union struct {
	Key      byte
	HasValue bool
	Tag      string
	Type     Type
}

// ReadUnion reads a union key and, if set, the inner tagged value header.
func (d *Decoder) ReadUnion() (Union, error) {
	key, err := d.ReadByte()
	if err != nil {
		return Union{}, err
	}
	if key == UnionUnset {
		return Union{Key: key, HasValue: false}, nil
	}
	tag, typ, err := d.ReadTag()
	if err != nil {
		return Union{}, err
	}
	return Union{Key: key, HasValue: true, Tag: tag, Type: typ}, nil
}

// EndGroup consumes the terminating zero byte of a group.
func (d *Decoder) EndGroup() error {
	b, err := d.ReadByte()
	if err != nil {
		return err
	}
	if b != GroupEnd {
		return &InvalidTypeError{Expected: TypeGroup, Actual: Type(b)}
	}
	return nil
}

// peekIsGroupEnd reports whether the next byte is the group terminator,
// without consuming it.
func (d *Decoder) peekIsGroupEnd() bool {
	return d.pos < len(d.data) && d.data[d.pos] == GroupEnd
}

// Skip consumes one raw (untagged) value of the given type, recursing into
// compound types as needed. It is the mechanism decode-until-tag uses to
// step over fields it doesn't recognize.
func (d *Decoder) Skip(t Type) error {
	switch t {
	case TypeVarInt:
		_, err := d.ReadVarInt(64)
		return err
	case TypeString:
		_, err := d.ReadString()
		return err
	case TypeBlob:
		_, err := d.ReadBlob()
		return err
	case TypeFloat:
		_, err := d.ReadFloat()
		return err
	case TypePair:
		_, _, err := d.ReadPair()
		return err
	case TypeTriple:
		_, _, _, err := d.ReadTriple()
		return err
	case TypeVarIntList:
		n, err := d.ReadVarInt(64)
		if err != nil {
			return err
		}
		for i := uint64(0); i < n; i++ {
			if _, err := d.ReadVarInt(64); err != nil {
				return err
			}
		}
		return nil
	case TypeGroup:
		for !d.peekIsGroupEnd() {
			if d.Done() {
				return d.eof(1)
			}
			_, elemType, err := d.ReadTag()
			if err != nil {
				return err
			}
			if err := d.Skip(elemType); err != nil {
				return err
			}
		}
		return d.EndGroup()
	case TypeList:
		elemByte, err := d.ReadByte()
		if err != nil {
			return err
		}
		n, err := d.ReadVarInt(64)
		if err != nil {
			return err
		}
		for i := uint64(0); i < n; i++ {
			if err := d.Skip(Type(elemByte)); err != nil {
				return err
			}
		}
		return nil
	case TypeMap:
		keyByte, err := d.ReadByte()
		if err != nil {
			return err
		}
		valByte, err := d.ReadByte()
		if err != nil {
			return err
		}
		n, err := d.ReadVarInt(64)
		if err != nil {
			return err
		}
		for i := uint64(0); i < n; i++ {
			if err := d.Skip(Type(keyByte)); err != nil {
				return err
			}
			if err := d.Skip(Type(valByte)); err != nil {
				return err
			}
		}
		return nil
	case TypeUnion:
		u, err := d.ReadUnion()
		if err != nil {
			return err
		}
		if u.HasValue {
			return d.Skip(u.Type)
		}
		return nil
	default:
		return &InvalidTypeError{Expected: TypeVarInt, Actual: t}
	}
}

// DecodeUntilTag scans forward from the cursor, skipping any tags that
// don't match name, until it finds name (leaving the cursor positioned to
// read that tag's raw value), hits the group terminator, or runs out of
// data. It reports MissingTagError or UnexpectedEOFError on failure and
// does not rewind the cursor.
func (d *Decoder) DecodeUntilTag(name string, expected Type) error {
	for {
		if d.peekIsGroupEnd() || d.Done() {
			return &MissingTagError{Tag: name, Expected: expected}
		}
		tag, typ, err := d.ReadTag()
		if err != nil {
			return err
		}
		// Compare against name as it reads back from the wire, so a
		// space-padded name such as "GID " matches the decoded "GID".
		if tag == DecodeLabel(EncodeLabel(name)) {
			if typ != expected {
				return &InvalidTagTypeError{Tag: name, Expected: expected, Actual: typ}
			}
			return nil
		}
		if err := d.Skip(typ); err != nil {
			return err
		}
	}
}

// TryDecodeUntilTag behaves like DecodeUntilTag but rewinds the cursor to
// its pre-call position when the tag is not found, so callers can probe for
// optional fields without disturbing the stream for the next read.
func (d *Decoder) TryDecodeUntilTag(name string, expected Type) (bool, error) {
	start := d.pos
	err := d.DecodeUntilTag(name, expected)
	if err == nil {
		return true, nil
	}
	if _, ok := err.(*MissingTagError); ok {
		d.pos = start
		return false, nil
	}
	return false, err
}

// VarIntU8 finds tag and decodes it as an 8-bit VarInt (overflow truncated).
func (d *Decoder) VarIntU8(tag string) (uint8, error) {
	if err := d.DecodeUntilTag(tag, TypeVarInt); err != nil {
		return 0, err
	}
	v, err := d.ReadVarInt(8)
	return uint8(v), err
}

// VarIntU16 finds tag and decodes it as a 16-bit VarInt (overflow truncated).
func (d *Decoder) VarIntU16(tag string) (uint16, error) {
	if err := d.DecodeUntilTag(tag, TypeVarInt); err != nil {
		return 0, err
	}
	v, err := d.ReadVarInt(16)
	return uint16(v), err
}

// VarIntU32 finds tag and decodes it as a 32-bit VarInt (overflow truncated).
func (d *Decoder) VarIntU32(tag string) (uint32, error) {
	if err := d.DecodeUntilTag(tag, TypeVarInt); err != nil {
		return 0, err
	}
	v, err := d.ReadVarInt(32)
	return uint32(v), err
}

// VarIntU64 finds tag and decodes it as a 64-bit VarInt.
func (d *Decoder) VarIntU64(tag string) (uint64, error) {
	if err := d.DecodeUntilTag(tag, TypeVarInt); err != nil {
		return 0, err
	}
	return d.ReadVarInt(64)
}

// Bool finds tag and decodes it as a boolean VarInt.
func (d *Decoder) Bool(tag string) (bool, error) {
	if err := d.DecodeUntilTag(tag, TypeVarInt); err != nil {
		return false, err
	}
	return d.ReadBool()
}

// Float finds tag and decodes it as a float.
func (d *Decoder) Float(tag string) (float32, error) {
	if err := d.DecodeUntilTag(tag, TypeFloat); err != nil {
		return 0, err
	}
	return d.ReadFloat()
}

// String finds tag and decodes it as a string.
func (d *Decoder) String(tag string) (string, error) {
	if err := d.DecodeUntilTag(tag, TypeString); err != nil {
		return "", err
	}
	return d.ReadString()
}

// Blob finds tag and decodes it as a blob.
func (d *Decoder) Blob(tag string) ([]byte, error) {
	if err := d.DecodeUntilTag(tag, TypeBlob); err != nil {
		return nil, err
	}
	return d.ReadBlob()
}

// BeginGroup finds tag and positions the cursor at the group's first
// member (or its terminator, if empty).
func (d *Decoder) BeginGroup(tag string) error {
	return d.DecodeUntilTag(tag, TypeGroup)
}

// List finds tag, reads its list header, and returns the element count.
func (d *Decoder) List(tag string, elemType Type) (int, error) {
	if err := d.DecodeUntilTag(tag, TypeList); err != nil {
		return 0, err
	}
	return d.ReadListHeader(elemType)
}

// Map finds tag, reads its map header, and returns the entry count.
func (d *Decoder) Map(tag string, keyType, valType Type) (int, error) {
	if err := d.DecodeUntilTag(tag, TypeMap); err != nil {
		return 0, err
	}
	return d.ReadMapHeader(keyType, valType)
}

// UnionField finds tag and decodes its union header.
func (d *Decoder) UnionField(tag string) (Union, error) {
	if err := d.DecodeUntilTag(tag, TypeUnion); err != nil {
		return Union{}, err
	}
	return d.ReadUnion()
}

// Pair finds tag and decodes it as a fixed 2-tuple.
func (d *Decoder) Pair(tag string) (uint64, uint64, error) {
	if err := d.DecodeUntilTag(tag, TypePair); err != nil {
		return 0, 0, err
	}
	return d.ReadPair()
}

// Triple finds tag and decodes it as a fixed 3-tuple.
func (d *Decoder) Triple(tag string) (uint64, uint64, uint64, error) {
	if err := d.DecodeUntilTag(tag, TypeTriple); err != nil {
		return 0, 0, 0, err
	}
	return d.ReadTriple()
}

// VarIntList finds tag and decodes it as a list of raw VarInts.
func (d *Decoder) VarIntList(tag string) ([]uint64, error) {
	if err := d.DecodeUntilTag(tag, TypeVarIntList); err != nil {
		return nil, err
	}
	n, err := d.ReadVarInt(64)
	if err != nil {
		return nil, err
	}
	out := make([]uint64, 0, n)
	for i := uint64(0); i < n; i++ {
		v, err := d.ReadVarInt(64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
