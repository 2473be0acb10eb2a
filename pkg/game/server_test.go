package game

import (
	"context"
	"testing"

	"github.com/cbodonnell/roomsync/pkg/dispatch"
	"github.com/cbodonnell/roomsync/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type publishedUpdate struct {
	update     session.UpdateData
	recipients []int
}

type publishedEnd struct {
	end        session.GameEndData
	recipients []int
}

type recordingPublisher struct {
	updates []publishedUpdate
	ends    []publishedEnd
}

func (p *recordingPublisher) PublishUpdate(update session.UpdateData, recipients []int) {
	p.updates = append(p.updates, publishedUpdate{update: update, recipients: recipients})
}

func (p *recordingPublisher) PublishGameEnd(end session.GameEndData, recipients []int) {
	p.ends = append(p.ends, publishedEnd{end: end, recipients: recipients})
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishUpdate(update session.UpdateData, recipients []int) {
	m.Called(update, recipients)
}

func (m *mockPublisher) PublishGameEnd(end session.GameEndData, recipients []int) {
	m.Called(end, recipients)
}

// seatedUsers returns users 1..n in room, user i in seat i-1.
func seatedUsers(t *testing.T, room int, n int) []session.User {
	t.Helper()
	users := make([]session.User, 0, n)
	for i := 1; i <= n; i++ {
		u := session.NewUserWithID(i)
		require.NoError(t, u.AssignSeat(room, i-1))
		users = append(users, u)
	}
	return users
}

func newTestServer(t *testing.T, publisher Publisher, referee Referee) (*Server, *dispatch.Dispatcher) {
	t.Helper()
	d := dispatch.New()
	s, err := NewServer(NewServerOptions{
		GameServerID:          3,
		CalculationsPerSecond: 30,
		Publisher:             publisher,
		Referee:               referee,
		Dispatcher:            d,
	})
	require.NoError(t, err)
	return s, d
}

func startRoom(t *testing.T, s *Server, d *dispatch.Dispatcher, room int, n int) {
	t.Helper()
	found := session.NewGameFoundDataWith(room, seatedUsers(t, room, n))
	require.NoError(t, s.StartRoom(context.Background(), 3, found))
	require.NoError(t, d.Drain())
}

func press(seat int, channels ...session.InputChannel) session.PlayerInputs {
	inputs := session.NewPlayerInputsForSeat(seat)
	for _, ch := range channels {
		inputs.Set(ch, true)
	}
	return inputs
}

func TestServer_NaturalEnd(t *testing.T) {
	publisher := &recordingPublisher{}
	s, d := newTestServer(t, publisher, RaceReferee{Ticks: 4})
	startRoom(t, s, d, 7, 4)

	// tick 1: users 1 and 2 run
	require.NoError(t, s.SubmitInputs(7, 1, press(0, session.InputForward)))
	require.NoError(t, s.SubmitInputs(7, 2, press(1, session.InputForward)))
	s.Tick()
	// tick 2: inputs are held
	s.Tick()
	// tick 3: user 1 stops
	require.NoError(t, s.SubmitInputs(7, 1, press(0)))
	s.Tick()
	// tick 4: user 4 runs for a single tick
	require.NoError(t, s.SubmitInputs(7, 4, press(3, session.InputForward)))
	s.Tick()

	require.Len(t, publisher.updates, 4)
	for _, u := range publisher.updates {
		assert.Equal(t, 7, u.update.Room())
		assert.Len(t, u.update.Players(), 4, "one entry per seated player")
		assert.Equal(t, []int{1, 2, 3, 4}, u.recipients)
	}

	require.Len(t, publisher.ends, 1)
	end := publisher.ends[0].end
	assert.Equal(t, 3, end.GameServerID())
	assert.Equal(t, 7, end.Room())
	assert.Equal(t, []int{2, 1, 4, 3}, end.Order())
	assert.Equal(t, 2, end.Winner())
	assert.False(t, end.EndedAsDisconnection())

	// terminal: no more inputs or updates for the room
	assert.ErrorIs(t, s.SubmitInputs(7, 1, press(0, session.InputForward)), ErrRoomNotFound)
	s.Tick()
	assert.Len(t, publisher.updates, 4)
	assert.Len(t, publisher.ends, 1)
	assert.Empty(t, s.Rooms())
}

func TestServer_DisconnectEndsRoom(t *testing.T) {
	publisher := &mockPublisher{}
	s, d := newTestServer(t, publisher, RaceReferee{Ticks: 100})
	startRoom(t, s, d, 7, 4)

	expected := session.NewGameEndDataWith(3, 7, []int{1, 2, 4, 3}, true)
	publisher.On("PublishUpdate", mock.Anything, mock.Anything).Return()
	publisher.On("PublishGameEnd", mock.MatchedBy(func(end session.GameEndData) bool {
		return end.Equal(expected)
	}), []int{1, 2, 4}).Return().Once()

	require.NoError(t, s.SubmitInputs(7, 1, press(0, session.InputForward)))
	s.Tick()
	publisher.AssertNotCalled(t, "PublishGameEnd", mock.Anything, mock.Anything)

	s.Disconnect(3)
	s.Disconnect(3)
	require.NoError(t, d.Drain())
	s.Tick()
	s.Tick()

	publisher.AssertExpectations(t)
	publisher.AssertNumberOfCalls(t, "PublishUpdate", 2)
	publisher.AssertNumberOfCalls(t, "PublishGameEnd", 1)
}

func TestServer_StartRoomValidation(t *testing.T) {
	s, d := newTestServer(t, &recordingPublisher{}, nil)
	startRoom(t, s, d, 1, 2)

	tests := []struct {
		name         string
		gameServerID int
		found        session.GameFoundData
		want         error
	}{
		{
			name:         "wrong server",
			gameServerID: 4,
			found:        session.NewGameFoundDataWith(2, seatedUsers(t, 2, 2)),
			want:         ErrWrongServer,
		},
		{
			name:         "room exists",
			gameServerID: 3,
			found:        session.NewGameFoundDataWith(1, seatedUsers(t, 1, 2)),
			want:         ErrRoomExists,
		},
		{
			name:         "no users",
			gameServerID: 3,
			found:        session.NewGameFoundDataWith(2, nil),
			want:         ErrInvalidMatch,
		},
		{
			name:         "users seated elsewhere",
			gameServerID: 3,
			found:        session.NewGameFoundDataWith(2, seatedUsers(t, 5, 2)),
			want:         ErrInvalidMatch,
		},
		{
			name:         "user already playing",
			gameServerID: 3,
			found:        session.NewGameFoundDataWith(2, seatedUsers(t, 2, 1)),
			want:         ErrInvalidMatch,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.StartRoom(context.Background(), tt.gameServerID, tt.found)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Equal(t, []int{1}, s.Rooms())
}

func TestServer_SubmitInputsChecksSeat(t *testing.T) {
	publisher := &recordingPublisher{}
	s, d := newTestServer(t, publisher, RaceReferee{Ticks: 10})
	startRoom(t, s, d, 0, 2)

	assert.ErrorIs(t, s.SubmitInputs(0, 1, press(1, session.InputForward)), ErrInputsDropped)
	assert.ErrorIs(t, s.SubmitInputs(0, 9, press(0, session.InputForward)), ErrNotInRoom)
	assert.ErrorIs(t, s.SubmitInputs(5, 1, press(0, session.InputForward)), ErrRoomNotFound)

	s.Tick()
	require.Len(t, publisher.updates, 1)
	for _, p := range publisher.updates[0].update.Players() {
		assert.Zero(t, p.Position.Z-s.arena.SpawnZ(), "seat %d should not have moved", p.IngameID)
	}
}

func TestServer_InactiveUntilDrained(t *testing.T) {
	publisher := &recordingPublisher{}
	s, d := newTestServer(t, publisher, nil)
	found := session.NewGameFoundDataWith(0, seatedUsers(t, 0, 2))
	require.NoError(t, s.StartRoom(context.Background(), 3, found))

	s.Tick()
	assert.Empty(t, publisher.updates)

	require.NoError(t, d.Drain())
	s.Tick()
	assert.Len(t, publisher.updates, 1)
}

func TestPlayer_WallsAndJump(t *testing.T) {
	arena := DefaultArena().fit(2)
	space := arena.NewCollisionSpace()
	spawn := arena.SpawnX(0)
	player := newPlayerState(1, 0, vectorAt(spawn, arena.SpawnZ()))
	space.Add(player.object)

	dt := 1.0 / 30
	for i := 0; i < 60; i++ {
		player.update(press(0, session.InputBackward, session.InputLeft), dt)
	}
	assert.InDelta(t, WallThickness, player.position.X, 1e-9, "left wall stops the player")
	assert.InDelta(t, WallThickness, player.position.Z, 1e-9, "back wall stops the player")

	player.update(press(0, session.InputJump), dt)
	assert.Greater(t, player.position.Y, 0.0)
	assert.False(t, player.onGround)

	for i := 0; i < 120; i++ {
		player.update(press(0), dt)
	}
	assert.Zero(t, player.position.Y)
	assert.True(t, player.onGround)
}

func TestRaceReferee_Rank(t *testing.T) {
	referee := RaceReferee{Ticks: 2}
	standings := []Standing{
		{UserID: 10, IngameID: 2, Distance: 1},
		{UserID: 11, IngameID: 0, Distance: 5},
		{UserID: 12, IngameID: 1, Distance: 1},
	}
	assert.Equal(t, []int{11, 12, 10}, referee.Rank(standings))
	assert.False(t, referee.Finished(1, standings))
	assert.True(t, referee.Finished(2, standings))
}
