package messages

import (
	"encoding/json"
	"fmt"

	"github.com/cbodonnell/roomsync/pkg/session"
)

func NewUpdateMessage(update session.UpdateData) *Message {
	return &Message{
		Type:    MessageTypeUpdate,
		Room:    update.Room(),
		Payload: SerializeUpdateData(update),
	}
}

func NewGameFoundMessage(found session.GameFoundData) (*Message, error) {
	return newJSONMessage(MessageTypeGameFound, found.Room(), found)
}

func NewGameEndMessage(end session.GameEndData) (*Message, error) {
	return newJSONMessage(MessageTypeGameEnd, end.Room(), end)
}

func NewInputsMessage(room int, inputs session.PlayerInputs) (*Message, error) {
	return newJSONMessage(MessageTypeInputs, room, inputs)
}

func newJSONMessage(messageType string, room int, v any) (*Message, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", messageType, err)
	}
	return &Message{Type: messageType, Room: room, Payload: payload}, nil
}

func (m *Message) expect(messageType string) error {
	if m.Type != messageType {
		return fmt.Errorf("unexpected message type %q, want %q", m.Type, messageType)
	}
	return nil
}

func (m *Message) Update() (session.UpdateData, error) {
	if err := m.expect(MessageTypeUpdate); err != nil {
		return session.UpdateData{}, err
	}
	return DeserializeUpdateData(m.Payload)
}

func (m *Message) GameFound() (session.GameFoundData, error) {
	found := session.NewGameFoundData()
	if err := m.expect(MessageTypeGameFound); err != nil {
		return found, err
	}
	if err := json.Unmarshal(m.Payload, &found); err != nil {
		return found, fmt.Errorf("failed to unmarshal game found payload: %w", err)
	}
	return found, nil
}

func (m *Message) GameEnd() (session.GameEndData, error) {
	end := session.NewGameEndData()
	if err := m.expect(MessageTypeGameEnd); err != nil {
		return end, err
	}
	if err := json.Unmarshal(m.Payload, &end); err != nil {
		return end, fmt.Errorf("failed to unmarshal game end payload: %w", err)
	}
	return end, nil
}

func (m *Message) Inputs() (session.PlayerInputs, error) {
	inputs := session.NewPlayerInputs()
	if err := m.expect(MessageTypeInputs); err != nil {
		return inputs, err
	}
	if err := json.Unmarshal(m.Payload, &inputs); err != nil {
		return inputs, fmt.Errorf("failed to unmarshal inputs payload: %w", err)
	}
	return inputs, nil
}
