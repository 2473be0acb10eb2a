package main

import (
	"context"

	"github.com/cbodonnell/roomsync/pkg/game"
	"github.com/cbodonnell/roomsync/pkg/session"
	"github.com/cbodonnell/roomsync/pkg/workers"
)

// localHost starts rooms on the in-process game server and tells the
// matched users where they were seated.
type localHost struct {
	server    *game.Server
	publisher *workers.ChannelPublisher
}

func (h *localHost) StartRoom(ctx context.Context, gameServerID int, found session.GameFoundData) error {
	if err := h.server.StartRoom(ctx, gameServerID, found); err != nil {
		return err
	}
	h.publisher.PublishGameFound(found)
	return nil
}
