package main

import (
	"context"
	"testing"

	"github.com/cbodonnell/roomsync/pkg/dispatch"
	"github.com/cbodonnell/roomsync/pkg/game"
	"github.com/cbodonnell/roomsync/pkg/messages"
	"github.com/cbodonnell/roomsync/pkg/session"
	"github.com/cbodonnell/roomsync/pkg/workers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seatedUsers(t *testing.T, room int, ids ...int) []session.User {
	t.Helper()
	users := make([]session.User, 0, len(ids))
	for seat, id := range ids {
		u := session.NewConnectedUser(id, nil, "127.0.0.1", "bot")
		require.NoError(t, u.AssignSeat(room, seat))
		users = append(users, u)
	}
	return users
}

func newLocalHost(t *testing.T) (*localHost, chan workers.Outbound, *dispatch.Dispatcher) {
	t.Helper()
	outbound := make(chan workers.Outbound, 16)
	publisher := workers.NewChannelPublisher(workers.NewChannelPublisherOptions{OutboundChan: outbound})
	d := dispatch.New()
	server, err := game.NewServer(game.NewServerOptions{
		GameServerID: 1,
		Publisher:    publisher,
		Dispatcher:   d,
	})
	require.NoError(t, err)
	return &localHost{server: server, publisher: publisher}, outbound, d
}

func TestLocalHost_PublishesGameFoundAfterStart(t *testing.T) {
	host, outbound, _ := newLocalHost(t)
	found := session.NewGameFoundDataWith(4, seatedUsers(t, 4, 10, 11))

	require.NoError(t, host.StartRoom(context.Background(), 1, found))
	require.Len(t, outbound, 1)
	out := <-outbound
	assert.Equal(t, messages.MessageTypeGameFound, out.Message.Type)
	assert.Equal(t, []int{10, 11}, out.Recipients)
}

func TestLocalHost_RejectedRoomIsNotAnnounced(t *testing.T) {
	host, outbound, _ := newLocalHost(t)
	found := session.NewGameFoundDataWith(4, seatedUsers(t, 4, 10, 11))

	assert.ErrorIs(t, host.StartRoom(context.Background(), 2, found), game.ErrWrongServer)
	assert.Len(t, outbound, 0)
}

func TestBotSender_AnswersUpdatesWithInputs(t *testing.T) {
	host, outbound, d := newLocalHost(t)
	bots := newBotSender(host.server)
	bots.add(10)
	bots.add(11)

	found := session.NewGameFoundDataWith(4, seatedUsers(t, 4, 10, 11))
	require.NoError(t, host.StartRoom(context.Background(), 1, found))
	deliver(t, bots, <-outbound)
	require.NoError(t, d.Drain())

	host.server.Tick()
	require.Len(t, outbound, 1)
	update := <-outbound
	assert.Equal(t, messages.MessageTypeUpdate, update.Message.Type)
	deliver(t, bots, update)

	// Bots ran forward, so the next tick moves them.
	host.server.Tick()
	next, err := (<-outbound).Message.Update()
	require.NoError(t, err)
	for _, p := range next.Players() {
		assert.Greater(t, p.Position.Z, game.DefaultArena().SpawnZ())
	}
	assert.Equal(t, []int{10, 11}, bots.ids())
}

func TestBotSender_IgnoresOtherUsers(t *testing.T) {
	host, _, _ := newLocalHost(t)
	bots := newBotSender(host.server)
	assert.NoError(t, bots.Send(context.Background(), 99, []byte("not a message")))
}

func deliver(t *testing.T, bots *botSender, out workers.Outbound) {
	t.Helper()
	b, err := messages.SerializeMessage(out.Message)
	require.NoError(t, err)
	for _, id := range out.Recipients {
		require.NoError(t, bots.Send(context.Background(), id, b))
	}
}
