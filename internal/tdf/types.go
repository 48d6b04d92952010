package tdf

// Type is the one-byte type code that follows a tag's 3 label bytes.
type Type byte

const (
	TypeVarInt     Type = 0x0
	TypeString     Type = 0x1
	TypeBlob       Type = 0x2
	TypeGroup      Type = 0x3
	TypeList       Type = 0x4
	TypeMap        Type = 0x5
	TypeUnion      Type = 0x6
	TypeVarIntList Type = 0x7
	TypePair       Type = 0x8
	TypeTriple     Type = 0x9
	TypeFloat      Type = 0xA
)

func (t Type) String() string {
	switch t {
	case TypeVarInt:
		return "VarInt"
	case TypeString:
		return "String"
	case TypeBlob:
		return "Blob"
	case TypeGroup:
		return "Group"
	case TypeList:
		return "List"
	case TypeMap:
		return "Map"
	case TypeUnion:
		return "Union"
	case TypeVarIntList:
		return "VarIntList"
	case TypePair:
		return "Pair"
	case TypeTriple:
		return "Triple"
	case TypeFloat:
		return "Float"
	default:
		return "Unknown"
	}
}

// UnionUnset is the sentinel union key meaning "no value follows".
const UnionUnset byte = 0x7F

// GroupEnd terminates a group's tag sequence.
const GroupEnd byte = 0x00

// GroupMarker optionally prefixes a group (the '2' marker byte in spec.md §3).
const GroupMarker byte = 0x02
