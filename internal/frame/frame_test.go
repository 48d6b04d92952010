package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundtrip(t *testing.T) {
	f := &Frame{
		Component: 9,
		Command:   7,
		Seq:       42,
		Flags:     FlagDefault,
		Body:      []byte("hello"),
	}
	wire := Encode(f)
	got, consumed, ok, err := Decode(wire)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, len(wire), consumed)
	assert.Equal(t, f.Component, got.Component)
	assert.Equal(t, f.Command, got.Command)
	assert.Equal(t, f.Seq, got.Seq)
	assert.Equal(t, f.Body, got.Body)
}

func TestDecodePartialHeaderDoesNotConsume(t *testing.T) {
	f := &Frame{Component: 1, Command: 2, Body: []byte("x")}
	wire := Encode(f)
	partial := wire[:HeaderSize-1]

	got, consumed, ok, err := Decode(partial)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
	assert.Equal(t, 0, consumed)
}

func TestDecodePartialBodyDoesNotConsume(t *testing.T) {
	f := &Frame{Component: 1, Command: 2, Body: []byte("hello world")}
	wire := Encode(f)
	partial := wire[:HeaderSize+3]

	_, consumed, ok, err := Decode(partial)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, consumed)
}

func TestDecodeEmptyBodyAndPreMessageStillHaveHeader(t *testing.T) {
	f := &Frame{Component: 5, Command: 6}
	wire := Encode(f)
	assert.Len(t, wire, HeaderSize)

	got, consumed, ok, err := Decode(wire)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, HeaderSize, consumed)
	assert.Empty(t, got.Body)
	assert.Empty(t, got.PreMsg)
}

func TestResponsePreservesSeqComponentCommandAndSetsFlag(t *testing.T) {
	req := &Frame{Component: 4, Command: 10, Seq: 99, Flags: FlagDefault}
	resp := Response(req, nil)
	assert.Equal(t, req.Component, resp.Component)
	assert.Equal(t, req.Command, resp.Command)
	assert.Equal(t, req.Seq, resp.Seq)
	assert.True(t, resp.HasFlag(FlagResponse))
	assert.Zero(t, resp.Notify)
	assert.Zero(t, resp.Unused)
}

func TestResponsePreservesExistingFlags(t *testing.T) {
	req := &Frame{Flags: FlagKeepAlive}
	resp := Response(req, nil)
	assert.True(t, resp.HasFlag(FlagResponse))
	assert.True(t, resp.HasFlag(FlagKeepAlive))
}

func TestNotifyFrameShape(t *testing.T) {
	n := Notify(4, 5, []byte("x"))
	assert.Equal(t, uint32(0), n.Seq)
	assert.True(t, n.HasFlag(FlagNotify))
	assert.Equal(t, byte(1), n.Notify)
}

func TestSeqIs24Bit(t *testing.T) {
	f := &Frame{Seq: 0xFFFFFFFF}
	wire := Encode(f)
	got, _, ok, err := Decode(wire)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint32(0x00FFFFFF), got.Seq)
}

func TestDecodeAcrossMultipleFramesInStream(t *testing.T) {
	f1 := Encode(&Frame{Component: 1, Command: 1, Body: []byte("a")})
	f2 := Encode(&Frame{Component: 2, Command: 2, Body: []byte("bb")})
	stream := append(append([]byte{}, f1...), f2...)

	got1, n1, ok, err := Decode(stream)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint16(1), got1.Component)

	got2, n2, ok, err := Decode(stream[n1:])
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint16(2), got2.Component)
	assert.Equal(t, len(stream), n1+n2)
}
