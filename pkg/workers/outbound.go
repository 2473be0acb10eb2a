package workers

import (
	"context"

	"github.com/cbodonnell/roomsync/pkg/log"
	"github.com/cbodonnell/roomsync/pkg/messages"
)

// Sender delivers serialized messages to one connected user. It is the
// transport's side of the outbound path.
type Sender interface {
	Send(ctx context.Context, userID int, b []byte) error
}

// Outbound is a message addressed to a set of users.
type Outbound struct {
	Recipients []int
	Message    *messages.Message
}

type OutboundWorker struct {
	sender       Sender
	outboundChan <-chan Outbound
}

type NewOutboundWorkerOptions struct {
	Sender       Sender
	OutboundChan <-chan Outbound
}

func NewOutboundWorker(opts NewOutboundWorkerOptions) *OutboundWorker {
	return &OutboundWorker{
		sender:       opts.Sender,
		outboundChan: opts.OutboundChan,
	}
}

// Start serializes and sends outbound messages until the context is done
// or the channel is closed.
func (w *OutboundWorker) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case out, ok := <-w.outboundChan:
			if !ok {
				return
			}
			w.send(ctx, out)
		}
	}
}

func (w *OutboundWorker) send(ctx context.Context, out Outbound) {
	if out.Message == nil || len(out.Recipients) == 0 {
		return
	}
	b, err := messages.SerializeMessage(out.Message)
	if err != nil {
		log.Error("Failed to serialize %s message for room %d: %v", out.Message.Type, out.Message.Room, err)
		return
	}
	for _, userID := range out.Recipients {
		if err := w.sender.Send(ctx, userID, b); err != nil {
			log.Warn("Failed to send %s message to user %d: %v", out.Message.Type, userID, err)
		}
	}
}
