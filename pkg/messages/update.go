package messages

import (
	"fmt"

	"github.com/cbodonnell/roomsync/pkg/kinematic"
	"github.com/cbodonnell/roomsync/pkg/session"
	flatbuffers "github.com/google/flatbuffers/go"
)

// UpdateData table layout.
const (
	updateSlotRoom = iota
	updateSlotPlayers
	updateSlotCount
)

// PlayerData table layout.
const (
	playerSlotIngameID = iota
	playerSlotPositionX
	playerSlotPositionY
	playerSlotPositionZ
	playerSlotDirectionX
	playerSlotDirectionY
	playerSlotDirectionZ
	playerSlotCount
)

// SerializeUpdateData encodes a tick snapshot as a flatbuffer.
func SerializeUpdateData(update session.UpdateData) []byte {
	players := update.Players()
	builder := flatbuffers.NewBuilder(64 + 64*len(players))

	offsets := make([]flatbuffers.UOffsetT, len(players))
	for i, p := range players {
		offsets[i] = serializePlayerData(builder, p)
	}
	builder.StartVector(flatbuffers.SizeUOffsetT, len(offsets), flatbuffers.SizeUOffsetT)
	for i := len(offsets) - 1; i >= 0; i-- {
		builder.PrependUOffsetT(offsets[i])
	}
	playersVector := builder.EndVector(len(offsets))

	builder.StartObject(updateSlotCount)
	builder.PrependInt32Slot(updateSlotRoom, int32(update.Room()), session.Unassigned)
	builder.PrependUOffsetTSlot(updateSlotPlayers, playersVector, 0)
	builder.Finish(builder.EndObject())
	return builder.FinishedBytes()
}

func serializePlayerData(builder *flatbuffers.Builder, p session.PlayerData) flatbuffers.UOffsetT {
	builder.StartObject(playerSlotCount)
	builder.PrependInt32Slot(playerSlotIngameID, int32(p.IngameID), session.Unassigned)
	builder.PrependFloat64Slot(playerSlotPositionX, p.Position.X, 0)
	builder.PrependFloat64Slot(playerSlotPositionY, p.Position.Y, 0)
	builder.PrependFloat64Slot(playerSlotPositionZ, p.Position.Z, 0)
	builder.PrependFloat64Slot(playerSlotDirectionX, p.Direction.X, 0)
	builder.PrependFloat64Slot(playerSlotDirectionY, p.Direction.Y, 0)
	builder.PrependFloat64Slot(playerSlotDirectionZ, p.Direction.Z, 0)
	return builder.EndObject()
}

// DeserializeUpdateData decodes a flatbuffer produced by SerializeUpdateData.
func DeserializeUpdateData(b []byte) (update session.UpdateData, err error) {
	if len(b) < flatbuffers.SizeUOffsetT {
		return session.UpdateData{}, fmt.Errorf("failed to deserialize update: buffer too short (%d bytes)", len(b))
	}
	// Out of range offsets in a corrupt buffer panic inside the flatbuffers runtime.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to deserialize update: %v", r)
		}
	}()

	root := &flatbuffers.Table{Bytes: b, Pos: flatbuffers.GetUOffsetT(b)}
	room := int(int32Field(root, updateSlotRoom, session.Unassigned))

	var players []session.PlayerData
	if o := fieldOffset(root, updateSlotPlayers); o != 0 {
		start := root.Vector(o)
		n := root.VectorLen(o)
		players = make([]session.PlayerData, 0, n)
		for i := 0; i < n; i++ {
			elem := start + flatbuffers.UOffsetT(i)*flatbuffers.SizeUOffsetT
			table := &flatbuffers.Table{Bytes: b, Pos: root.Indirect(elem)}
			players = append(players, deserializePlayerData(table))
		}
	}
	return session.NewUpdateDataWith(room, players), nil
}

func deserializePlayerData(t *flatbuffers.Table) session.PlayerData {
	return session.NewPlayerDataWith(
		int(int32Field(t, playerSlotIngameID, session.Unassigned)),
		kinematic.Vector{
			X: float64Field(t, playerSlotPositionX),
			Y: float64Field(t, playerSlotPositionY),
			Z: float64Field(t, playerSlotPositionZ),
		},
		kinematic.Vector{
			X: float64Field(t, playerSlotDirectionX),
			Y: float64Field(t, playerSlotDirectionY),
			Z: float64Field(t, playerSlotDirectionZ),
		},
	)
}

func fieldOffset(t *flatbuffers.Table, slot int) flatbuffers.UOffsetT {
	return flatbuffers.UOffsetT(t.Offset(flatbuffers.VOffsetT(4 + 2*slot)))
}

func int32Field(t *flatbuffers.Table, slot int, def int32) int32 {
	if o := fieldOffset(t, slot); o != 0 {
		return t.GetInt32(o + t.Pos)
	}
	return def
}

func float64Field(t *flatbuffers.Table, slot int) float64 {
	if o := fieldOffset(t, slot); o != 0 {
		return t.GetFloat64(o + t.Pos)
	}
	return 0
}
