package main

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"sync"

	"github.com/cbodonnell/roomsync/pkg/game"
	"github.com/cbodonnell/roomsync/pkg/log"
	"github.com/cbodonnell/roomsync/pkg/messages"
	"github.com/cbodonnell/roomsync/pkg/session"
)

// jumpChance is the probability a bot jumps on any update.
const jumpChance = 0.05

type botSeat struct {
	room     int
	ingameID int
}

// botSender loops outbound messages back to in-process bots, which answer
// every update with a fresh set of inputs. Messages for other users are
// dropped.
type botSender struct {
	server *game.Server

	lock  sync.Mutex
	seats map[int]*botSeat
}

func newBotSender(server *game.Server) *botSender {
	return &botSender{
		server: server,
		seats:  make(map[int]*botSeat),
	}
}

func (b *botSender) add(userID int) {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.seats[userID] = &botSeat{room: session.Unassigned, ingameID: session.Unassigned}
}

func (b *botSender) ids() []int {
	b.lock.Lock()
	defer b.lock.Unlock()
	ids := make([]int, 0, len(b.seats))
	for id := range b.seats {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (b *botSender) Send(ctx context.Context, userID int, payload []byte) error {
	b.lock.Lock()
	seat, ok := b.seats[userID]
	b.lock.Unlock()
	if !ok {
		log.Trace("No connection for user %d, dropping %d bytes", userID, len(payload))
		return nil
	}

	msg, err := messages.DeserializeMessage(payload)
	if err != nil {
		return err
	}

	switch msg.Type {
	case messages.MessageTypeGameFound:
		found, err := msg.GameFound()
		if err != nil {
			return err
		}
		for _, u := range found.Users() {
			if u.ID == userID {
				b.seat(userID, found.Room(), u.IngameID())
				log.Debug("Bot %d seated in room %d as %d", userID, found.Room(), u.IngameID())
			}
		}
	case messages.MessageTypeUpdate:
		b.lock.Lock()
		room, ingameID := seat.room, seat.ingameID
		b.lock.Unlock()
		if ingameID == session.Unassigned {
			return nil
		}
		inputs := session.NewPlayerInputsForSeat(ingameID)
		inputs.Set(session.InputForward, true)
		inputs.Set(session.InputJump, rand.Float64() < jumpChance)
		err := b.server.SubmitInputs(room, userID, inputs)
		if errors.Is(err, game.ErrRoomNotFound) || errors.Is(err, game.ErrNotInRoom) {
			return nil
		}
		return err
	case messages.MessageTypeGameEnd:
		end, err := msg.GameEnd()
		if err != nil {
			return err
		}
		b.seat(userID, session.Unassigned, session.Unassigned)
		log.Debug("Bot %d saw room %d end with order %v", userID, end.Room(), end.Order())
	}
	return nil
}

func (b *botSender) seat(userID int, room int, ingameID int) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if seat, ok := b.seats[userID]; ok {
		seat.room = room
		seat.ingameID = ingameID
	}
}
