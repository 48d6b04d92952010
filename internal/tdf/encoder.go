package tdf

import (
	"math"
)

// Encoder is an append-only writer over a growable byte buffer. It owns the
// buffer; callers take the final bytes with Bytes().
type Encoder struct {
	buf []byte
}

// NewEncoder creates an Encoder with a pre-sized backing buffer.
func NewEncoder(sizeHint int) *Encoder {
	if sizeHint <= 0 {
		sizeHint = 64
	}
	return &Encoder{buf: make([]byte, 0, sizeHint)}
}

// Bytes returns the bytes written so far.
func (e *Encoder) Bytes() []byte { return e.buf }

// Reset clears the buffer for reuse.
func (e *Encoder) Reset() { e.buf = e.buf[:0] }

func (e *Encoder) writeTag(tag string, t Type) {
	label := EncodeLabel(tag)
	e.buf = append(e.buf, label[0], label[1], label[2], byte(t))
}

// WriteByte appends a single raw byte.
func (e *Encoder) WriteByte(b byte) { e.buf = append(e.buf, b) }

// WriteBool writes a tagged boolean as a VarInt 0/1.
func (e *Encoder) WriteBool(tag string, v bool) {
	e.writeTag(tag, TypeVarInt)
	if v {
		e.buf = AppendVarInt(e.buf, 1)
	} else {
		e.buf = AppendVarInt(e.buf, 0)
	}
}

// WriteU8 writes a tagged 8-bit VarInt.
func (e *Encoder) WriteU8(tag string, v uint8) {
	e.writeTag(tag, TypeVarInt)
	e.buf = AppendVarInt(e.buf, uint64(v))
}

// WriteU16 writes a tagged 16-bit VarInt.
func (e *Encoder) WriteU16(tag string, v uint16) {
	e.writeTag(tag, TypeVarInt)
	e.buf = AppendVarInt(e.buf, uint64(v))
}

// WriteU32 writes a tagged 32-bit VarInt.
func (e *Encoder) WriteU32(tag string, v uint32) {
	e.writeTag(tag, TypeVarInt)
	e.buf = AppendVarInt(e.buf, uint64(v))
}

// WriteU64 writes a tagged 64-bit VarInt.
func (e *Encoder) WriteU64(tag string, v uint64) {
	e.writeTag(tag, TypeVarInt)
	e.buf = AppendVarInt(e.buf, v)
}

// WriteUSize writes a tagged platform-width VarInt.
func (e *Encoder) WriteUSize(tag string, v uint64) {
	e.WriteU64(tag, v)
}

// WriteFloat writes a tagged IEEE-754 big-endian 32-bit float.
func (e *Encoder) WriteFloat(tag string, v float32) {
	e.writeTag(tag, TypeFloat)
	bits := math.Float32bits(v)
	e.buf = append(e.buf, byte(bits>>24), byte(bits>>16), byte(bits>>8), byte(bits))
}

// WriteString writes a tagged null-terminated, length-prefixed UTF-8 string.
// The length field counts the terminator.
func (e *Encoder) WriteString(tag string, v string) {
	e.writeTag(tag, TypeString)
	e.buf = AppendVarInt(e.buf, uint64(len(v)+1))
	e.buf = append(e.buf, v...)
	e.buf = append(e.buf, 0)
}

// WriteEmptyString writes the canonical empty-string encoding (01 00).
func (e *Encoder) WriteEmptyString(tag string) {
	e.WriteString(tag, "")
}

// WriteBlob writes a tagged length-prefixed byte blob.
func (e *Encoder) WriteBlob(tag string, v []byte) {
	e.writeTag(tag, TypeBlob)
	e.buf = AppendVarInt(e.buf, uint64(len(v)))
	e.buf = append(e.buf, v...)
}

// WriteEmptyBlob writes the canonical empty-blob encoding (00).
func (e *Encoder) WriteEmptyBlob(tag string) {
	e.writeTag(tag, TypeBlob)
	e.buf = AppendVarInt(e.buf, 0)
}

// BeginGroup writes a group tag header. The caller writes the group's
// member tags and then calls EndGroup.
func (e *Encoder) BeginGroup(tag string) {
	e.writeTag(tag, TypeGroup)
}

// EndGroup writes the terminating zero byte of a group.
func (e *Encoder) EndGroup() {
	e.buf = append(e.buf, GroupEnd)
}

// BeginList writes a list tag header (element type + count). The caller
// writes count raw (untagged) values of elemType.
func (e *Encoder) BeginList(tag string, elemType Type, count int) {
	e.writeTag(tag, TypeList)
	e.buf = append(e.buf, byte(elemType))
	e.buf = AppendVarInt(e.buf, uint64(count))
}

// BeginMap writes a map tag header (key type + value type + count). The
// caller writes count raw key/value pairs.
func (e *Encoder) BeginMap(tag string, keyType, valType Type, count int) {
	e.writeTag(tag, TypeMap)
	e.buf = append(e.buf, byte(keyType), byte(valType))
	e.buf = AppendVarInt(e.buf, uint64(count))
}

// WriteUnionUnset writes a union tag with the "unset" sentinel key; no
// value follows.
func (e *Encoder) WriteUnionUnset(tag string) {
	e.writeTag(tag, TypeUnion)
	e.buf = append(e.buf, UnionUnset)
}

// BeginUnion writes a union tag header with the given key. The caller
// writes exactly one tagged value afterward.
func (e *Encoder) BeginUnion(tag string, key byte) {
	e.writeTag(tag, TypeUnion)
	e.buf = append(e.buf, key)
}

// WritePair writes a tagged fixed 2-tuple of VarInts.
func (e *Encoder) WritePair(tag string, a, b uint64) {
	e.writeTag(tag, TypePair)
	e.buf = AppendVarInt(e.buf, a)
	e.buf = AppendVarInt(e.buf, b)
}

// WriteTriple writes a tagged fixed 3-tuple of VarInts.
func (e *Encoder) WriteTriple(tag string, a, b, c uint64) {
	e.writeTag(tag, TypeTriple)
	e.buf = AppendVarInt(e.buf, a)
	e.buf = AppendVarInt(e.buf, b)
	e.buf = AppendVarInt(e.buf, c)
}

// WriteVarIntList writes a tagged list of raw VarInts.
func (e *Encoder) WriteVarIntList(tag string, values []uint64) {
	e.writeTag(tag, TypeVarIntList)
	e.buf = AppendVarInt(e.buf, uint64(len(values)))
	for _, v := range values {
		e.buf = AppendVarInt(e.buf, v)
	}
}

// RawVarInt appends an untagged VarInt. Used for list/map elements, which
// carry their type once in the list/map header rather than per entry.
func (e *Encoder) RawVarInt(v uint64) { e.buf = AppendVarInt(e.buf, v) }

// RawString appends an untagged null-terminated, length-prefixed string.
func (e *Encoder) RawString(v string) {
	e.buf = AppendVarInt(e.buf, uint64(len(v)+1))
	e.buf = append(e.buf, v...)
	e.buf = append(e.buf, 0)
}
