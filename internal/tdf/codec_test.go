package tdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPreAuthPingGroup exercises the exact body shape spec.md §8 scenario 1
// expects: a group containing ASRC, CLID, PLAT strings and a nested QOSS
// group with an integer TIME field.
func TestPreAuthPingGroup(t *testing.T) {
	enc := NewEncoder(64)
	enc.BeginGroup("BODY")
	enc.WriteString("ASRC", "310335")
	enc.WriteString("CLID", "ME4-PC-SERVER-BLAZE")
	enc.WriteString("PLAT", "pc")
	enc.BeginGroup("QOSS")
	enc.WriteU32("TIME", 5000000)
	enc.EndGroup()
	enc.EndGroup()

	dec := NewDecoder(enc.Bytes())
	require.NoError(t, dec.BeginGroup("BODY"))

	asrc, err := dec.String("ASRC")
	require.NoError(t, err)
	assert.Equal(t, "310335", asrc)

	clid, err := dec.String("CLID")
	require.NoError(t, err)
	assert.Equal(t, "ME4-PC-SERVER-BLAZE", clid)

	plat, err := dec.String("PLAT")
	require.NoError(t, err)
	assert.Equal(t, "pc", plat)

	require.NoError(t, dec.BeginGroup("QOSS"))
	tm, err := dec.VarIntU32("TIME")
	require.NoError(t, err)
	assert.Equal(t, uint32(5000000), tm)
	require.NoError(t, dec.EndGroup())

	require.NoError(t, dec.EndGroup())
}

// TestDecodeSkipsUnknownTags verifies unknown fields are transparently
// skipped so schema evolution doesn't break older readers.
func TestDecodeSkipsUnknownTags(t *testing.T) {
	enc := NewEncoder(64)
	enc.BeginGroup("BODY")
	enc.WriteU32("UNKN", 42)
	enc.WriteString("NAME", "hello")
	enc.EndGroup()

	dec := NewDecoder(enc.Bytes())
	require.NoError(t, dec.BeginGroup("BODY"))
	name, err := dec.String("NAME")
	require.NoError(t, err)
	assert.Equal(t, "hello", name)
	require.NoError(t, dec.EndGroup())
}

// TestTryDecodeUntilTagRewindsOnMiss checks the non-destructive probe used
// for optional fields.
func TestTryDecodeUntilTagRewindsOnMiss(t *testing.T) {
	enc := NewEncoder(32)
	enc.BeginGroup("BODY")
	enc.WriteString("NAME", "x")
	enc.EndGroup()

	dec := NewDecoder(enc.Bytes())
	require.NoError(t, dec.BeginGroup("BODY"))

	before := dec.Position()
	found, err := dec.TryDecodeUntilTag("MISSING", TypeVarInt)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, before, dec.Position())

	name, err := dec.String("NAME")
	require.NoError(t, err)
	assert.Equal(t, "x", name)
}

func TestMissingTagError(t *testing.T) {
	enc := NewEncoder(16)
	enc.BeginGroup("BODY")
	enc.EndGroup()

	dec := NewDecoder(enc.Bytes())
	require.NoError(t, dec.BeginGroup("BODY"))
	_, err := dec.String("NAME")
	require.Error(t, err)
	var missing *MissingTagError
	require.ErrorAs(t, err, &missing)
}

func TestEmptyStringWireForm(t *testing.T) {
	enc := NewEncoder(16)
	enc.WriteEmptyString("NAME")
	tagLen := 4
	assert.Equal(t, []byte{0x01, 0x00}, enc.Bytes()[tagLen:])
}

func TestEmptyBlobWireForm(t *testing.T) {
	enc := NewEncoder(16)
	enc.WriteEmptyBlob("BLOB")
	tagLen := 4
	assert.Equal(t, []byte{0x00}, enc.Bytes()[tagLen:])
}

func TestListRoundtrip(t *testing.T) {
	enc := NewEncoder(32)
	enc.BeginList("LIST", TypeVarInt, 3)
	enc.buf = AppendVarInt(enc.buf, 1)
	enc.buf = AppendVarInt(enc.buf, 2)
	enc.buf = AppendVarInt(enc.buf, 3)

	dec := NewDecoder(enc.Bytes())
	n, err := dec.List("LIST", TypeVarInt)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	var got []uint64
	for i := 0; i < n; i++ {
		v, err := dec.ReadVarInt(64)
		require.NoError(t, err)
		got = append(got, v)
	}
	assert.Equal(t, []uint64{1, 2, 3}, got)
}

func TestMapRoundtrip(t *testing.T) {
	enc := NewEncoder(32)
	enc.BeginMap("ATTR", TypeString, TypeString, 2)
	enc.buf = append(enc.buf, 0x02, 'a', 0)
	enc.buf = append(enc.buf, 0x02, '1', 0)
	enc.buf = append(enc.buf, 0x02, 'b', 0)
	enc.buf = append(enc.buf, 0x02, '2', 0)

	dec := NewDecoder(enc.Bytes())
	n, err := dec.Map("ATTR", TypeString, TypeString)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	got := map[string]string{}
	for i := 0; i < n; i++ {
		k, err := dec.ReadString()
		require.NoError(t, err)
		v, err := dec.ReadString()
		require.NoError(t, err)
		got[k] = v
	}
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, got)
}

func TestUnionSetAndUnset(t *testing.T) {
	enc := NewEncoder(32)
	enc.BeginUnion("ADDR", 0x02)
	enc.WriteU32("VALU", 7)

	dec := NewDecoder(enc.Bytes())
	u, err := dec.UnionField("ADDR")
	require.NoError(t, err)
	require.True(t, u.HasValue)
	assert.Equal(t, byte(0x02), u.Key)
	assert.Equal(t, "VALU", u.Tag)
	v, err := dec.ReadVarInt(32)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), v)

	enc2 := NewEncoder(8)
	enc2.WriteUnionUnset("ADDR")
	dec2 := NewDecoder(enc2.Bytes())
	u2, err := dec2.UnionField("ADDR")
	require.NoError(t, err)
	assert.False(t, u2.HasValue)
	assert.Equal(t, UnionUnset, u2.Key)
}

func TestPairTripleRoundtrip(t *testing.T) {
	enc := NewEncoder(32)
	enc.WritePair("PAIR", 10, 20)
	enc.WriteTriple("TRIP", 1, 2, 3)

	dec := NewDecoder(enc.Bytes())
	a, b, err := dec.Pair("PAIR")
	require.NoError(t, err)
	assert.Equal(t, uint64(10), a)
	assert.Equal(t, uint64(20), b)

	x, y, z, err := dec.Triple("TRIP")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), x)
	assert.Equal(t, uint64(2), y)
	assert.Equal(t, uint64(3), z)
}

func TestEncodeDecodeIdempotence(t *testing.T) {
	enc := NewEncoder(128)
	enc.BeginGroup("ROOT")
	enc.WriteU8("BYTE", 200)
	enc.WriteBool("FLAG", true)
	enc.WriteFloat("FLT", 3.5)
	enc.WriteString("STR", "hello world")
	enc.WriteBlob("BLB", []byte{1, 2, 3, 4})
	enc.EndGroup()

	dec := NewDecoder(enc.Bytes())
	require.NoError(t, dec.BeginGroup("ROOT"))

	b, err := dec.VarIntU8("BYTE")
	require.NoError(t, err)
	assert.Equal(t, uint8(200), b)

	flag, err := dec.Bool("FLAG")
	require.NoError(t, err)
	assert.True(t, flag)

	flt, err := dec.Float("FLT")
	require.NoError(t, err)
	assert.InDelta(t, 3.5, flt, 0.0001)

	str, err := dec.String("STR")
	require.NoError(t, err)
	assert.Equal(t, "hello world", str)

	blob, err := dec.Blob("BLB")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, blob)

	require.NoError(t, dec.EndGroup())
	assert.True(t, dec.Done())
}
