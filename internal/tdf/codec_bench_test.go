package tdf

import "testing"

func BenchmarkEncodeGroup(b *testing.B) {
	b.ReportAllocs()
	for range b.N {
		enc := NewEncoder(128)
		enc.BeginGroup("ROOT")
		enc.WriteU32("ID", 1234)
		enc.WriteString("NAME", "player-one")
		enc.WriteFloat("SCORE", 12.5)
		enc.EndGroup()
	}
}

func BenchmarkDecodeGroup(b *testing.B) {
	enc := NewEncoder(128)
	enc.BeginGroup("ROOT")
	enc.WriteU32("ID", 1234)
	enc.WriteString("NAME", "player-one")
	enc.WriteFloat("SCORE", 12.5)
	enc.EndGroup()
	data := enc.Bytes()

	b.ReportAllocs()
	b.ResetTimer()
	for range b.N {
		dec := NewDecoder(data)
		_ = dec.BeginGroup("ROOT")
		_, _ = dec.VarIntU32("ID")
		_, _ = dec.String("NAME")
		_, _ = dec.Float("SCORE")
		_ = dec.EndGroup()
	}
}

func BenchmarkVarIntRoundtrip(b *testing.B) {
	b.ReportAllocs()
	for i := range b.N {
		buf := AppendVarInt(nil, uint64(i))
		_, _, _ = ReadVarInt(buf, 0)
	}
}
