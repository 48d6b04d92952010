package game

import "github.com/udisondev/blazecoop/internal/tdf"

// encodeGameSetup builds the game-setup frame body: host network triple,
// attribute map, admin list, and (for matchmaking joins) an MMSC sub-group
// with fit score, result code, and timing (spec.md §4.F).
func encodeGameSetup(g *Game, host *Player, admins []uint32, ctx SetupContext) []byte {
	enc := tdf.NewEncoder(128)

	enc.WriteU32("GID ", g.id)
	enc.WriteU8("GST ", g.state)
	enc.WriteU32("GSET", g.setting)

	if host != nil {
		enc.BeginGroup("HNET")
		enc.WriteU32("IP  ", ip4ToUint32(host.Network.External.IP))
		enc.WriteU16("PORT", host.Network.External.Port)
		enc.EndGroup()
	}

	enc.BeginMap("ATTR", tdf.TypeString, tdf.TypeString, len(g.attrs))
	for k, v := range g.attrs {
		enc.RawString(k)
		enc.RawString(v)
	}

	enc.BeginList("ADMN", tdf.TypeVarInt, len(admins))
	for _, id := range admins {
		enc.RawVarInt(uint64(id))
	}

	if ctx.IsMatchmaking {
		enc.BeginGroup("MMSC")
		enc.WriteU32("FITS", ctx.FitScore)
		enc.WriteString("RSLT", ctx.ResultCode)
		enc.WriteU64("STIM", uint64(ctx.StartedAt.Unix()))
		enc.EndGroup()
	}

	return enc.Bytes()
}

// encodePostJoin builds the frame sent to a player immediately after
// game-setup, confirming the slot assignment.
func encodePostJoin(g *Game) []byte {
	enc := tdf.NewEncoder(16)
	enc.WriteU32("GID ", g.id)
	return enc.Bytes()
}

func encodePlayerJoined(p *Player) []byte {
	enc := tdf.NewEncoder(32)
	enc.WriteU32("PID ", p.UserID)
	enc.WriteU8("PST ", uint8(p.State))
	return enc.Bytes()
}

func encodePlayerRemoved(userID uint32, reason RemoveReason) []byte {
	enc := tdf.NewEncoder(16)
	enc.WriteU32("PID ", userID)
	enc.WriteU8("RSN ", uint8(reason))
	return enc.Bytes()
}

func encodeStateChange(state uint8) []byte {
	enc := tdf.NewEncoder(8)
	enc.WriteU8("GST ", state)
	return enc.Bytes()
}

func encodeAttribChange(attrs map[string]string) []byte {
	enc := tdf.NewEncoder(64)
	enc.BeginMap("ATTR", tdf.TypeString, tdf.TypeString, len(attrs))
	for k, v := range attrs {
		enc.RawString(k)
		enc.RawString(v)
	}
	return enc.Bytes()
}

func encodePlayerAttribChange(userID uint32, attrs map[string]string) []byte {
	enc := tdf.NewEncoder(64)
	enc.WriteU32("PID ", userID)
	enc.BeginMap("ATTR", tdf.TypeString, tdf.TypeString, len(attrs))
	for k, v := range attrs {
		enc.RawString(k)
		enc.RawString(v)
	}
	return enc.Bytes()
}

func ip4ToUint32(ip []byte) uint32 {
	v4 := netIPTo4(ip)
	if v4 == nil {
		return 0
	}
	return uint32(v4[0])<<24 | uint32(v4[1])<<16 | uint32(v4[2])<<8 | uint32(v4[3])
}

func netIPTo4(ip []byte) []byte {
	if len(ip) == 4 {
		return ip
	}
	if len(ip) == 16 {
		return ip[12:16]
	}
	return nil
}
