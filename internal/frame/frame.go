// Package frame implements the 16-byte length-prefixed packet framing
// described in spec.md §4.B: a fixed header (body length, pre-message
// length, component, command, seq, flags, notify, unused) followed by an
// optional pre-message and the body payload.
//
// Grounded on internal/protocol's ReadPacket/WritePacket discipline of
// never consuming input bytes on a short read — adapted from a 2-byte
// little-endian length prefix to this protocol's fixed 16-byte big-endian
// header.
package frame

import (
	"encoding/binary"
	"fmt"
)

// Flag bits for Frame.Flags.
const (
	FlagDefault   byte = 0
	FlagResponse  byte = 32
	FlagNotify    byte = 64
	FlagKeepAlive byte = 128
)

// HeaderSize is the fixed wire size of a frame header, always present even
// when the body and pre-message are empty.
const HeaderSize = 16

// Frame is one wire packet: header fields plus pre-message and body bytes.
type Frame struct {
	Component uint16
	Command   uint16
	Seq       uint32 // low 24 bits significant
	Flags     byte
	Notify    byte
	Unused    byte
	PreMsg    []byte
	Body      []byte
}

// HasFlag reports whether all bits of flag are set on the frame.
func (f *Frame) HasFlag(flag byte) bool {
	return f.Flags&flag == flag
}

// Encode serializes the frame to its wire form.
func Encode(f *Frame) []byte {
	out := make([]byte, HeaderSize+len(f.PreMsg)+len(f.Body))
	binary.BigEndian.PutUint32(out[0:4], uint32(len(f.Body)))
	binary.BigEndian.PutUint16(out[4:6], uint16(len(f.PreMsg)))
	binary.BigEndian.PutUint16(out[6:8], f.Component)
	binary.BigEndian.PutUint16(out[8:10], f.Command)

	seq := f.Seq & 0x00FFFFFF
	out[10] = byte(seq >> 16)
	out[11] = byte(seq >> 8)
	out[12] = byte(seq)

	out[13] = f.Flags
	out[14] = f.Notify
	out[15] = f.Unused

	copy(out[HeaderSize:], f.PreMsg)
	copy(out[HeaderSize+len(f.PreMsg):], f.Body)
	return out
}

// Decode reads one frame from the front of data. It returns the frame, the
// number of bytes consumed, and ok=false (no error) if data does not yet
// contain a complete frame — callers must leave the unconsumed bytes in
// their buffer for the next read, exactly as the partial-header/partial-body
// cases in the teacher's ReadPacket are handled.
func Decode(data []byte) (f *Frame, consumed int, ok bool, err error) {
	if len(data) < HeaderSize {
		return nil, 0, false, nil
	}

	bodyLen := binary.BigEndian.Uint32(data[0:4])
	preLen := binary.BigEndian.Uint16(data[4:6])

	total := HeaderSize + int(preLen) + int(bodyLen)
	if total < HeaderSize {
		return nil, 0, false, fmt.Errorf("frame: body/pre-message length overflow (body=%d pre=%d)", bodyLen, preLen)
	}
	if len(data) < total {
		return nil, 0, false, nil
	}

	component := binary.BigEndian.Uint16(data[6:8])
	command := binary.BigEndian.Uint16(data[8:10])
	seq := uint32(data[10])<<16 | uint32(data[11])<<8 | uint32(data[12])
	flags := data[13]
	notify := data[14]
	unused := data[15]

	var preMsg []byte
	if preLen > 0 {
		preMsg = make([]byte, preLen)
		copy(preMsg, data[HeaderSize:HeaderSize+int(preLen)])
	}

	var body []byte
	if bodyLen > 0 {
		body = make([]byte, bodyLen)
		copy(body, data[HeaderSize+int(preLen):total])
	}

	f = &Frame{
		Component: component,
		Command:   command,
		Seq:       seq,
		Flags:     flags,
		Notify:    notify,
		Unused:    unused,
		PreMsg:    preMsg,
		Body:      body,
	}
	return f, total, true, nil
}

// Response builds a response frame from request req: same component, command,
// and seq, RESPONSE flag added to whatever flags were present, notify and
// unused cleared.
func Response(req *Frame, body []byte) *Frame {
	return &Frame{
		Component: req.Component,
		Command:   req.Command,
		Seq:       req.Seq,
		Flags:     req.Flags | FlagResponse,
		Notify:    0,
		Unused:    0,
		Body:      body,
	}
}

// Notify builds a server-initiated notification frame for (component, command).
func Notify(component, command uint16, body []byte) *Frame {
	return &Frame{
		Component: component,
		Command:   command,
		Seq:       0,
		Flags:     FlagNotify,
		Notify:    1,
		Body:      body,
	}
}

// KeepAlive builds a bare keep-alive frame.
func KeepAlive() *Frame {
	return &Frame{Flags: FlagKeepAlive}
}
