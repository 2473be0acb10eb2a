package workers

import (
	"github.com/cbodonnell/roomsync/pkg/log"
	"github.com/cbodonnell/roomsync/pkg/messages"
	"github.com/cbodonnell/roomsync/pkg/session"
)

// ChannelPublisher turns records into outbound messages without blocking
// the caller. Messages that do not fit in the channel are dropped.
type ChannelPublisher struct {
	outboundChan chan<- Outbound
	onGameEnd    func(end session.GameEndData)
}

type NewChannelPublisherOptions struct {
	OutboundChan chan<- Outbound
	// OnGameEnd is called with every game end before it is sent.
	OnGameEnd func(end session.GameEndData)
}

func NewChannelPublisher(opts NewChannelPublisherOptions) *ChannelPublisher {
	return &ChannelPublisher{
		outboundChan: opts.OutboundChan,
		onGameEnd:    opts.OnGameEnd,
	}
}

func (p *ChannelPublisher) PublishUpdate(update session.UpdateData, recipients []int) {
	p.publish(messages.NewUpdateMessage(update), recipients)
}

func (p *ChannelPublisher) PublishGameEnd(end session.GameEndData, recipients []int) {
	if p.onGameEnd != nil {
		p.onGameEnd(end)
	}
	msg, err := messages.NewGameEndMessage(end)
	if err != nil {
		log.Error("Failed to build game end message for room %d: %v", end.Room(), err)
		return
	}
	p.publish(msg, recipients)
}

// PublishGameFound tells the matched users which room they are in.
func (p *ChannelPublisher) PublishGameFound(found session.GameFoundData) {
	msg, err := messages.NewGameFoundMessage(found)
	if err != nil {
		log.Error("Failed to build game found message for room %d: %v", found.Room(), err)
		return
	}
	recipients := make([]int, 0, len(found.Users()))
	for _, u := range found.Users() {
		recipients = append(recipients, u.ID)
	}
	p.publish(msg, recipients)
}

func (p *ChannelPublisher) publish(msg *messages.Message, recipients []int) {
	if len(recipients) == 0 {
		return
	}
	out := Outbound{
		Recipients: append([]int{}, recipients...),
		Message:    msg,
	}
	select {
	case p.outboundChan <- out:
	default:
		log.Warn("Outbound channel full, dropping %s message for room %d", msg.Type, msg.Room)
	}
}
