// Package chat adapts chat transports to the secretary coordinator.
package chat

import (
	"context"

	"github.com/dohr-michael/secretary/internal/secretary"
)

// Handler processes one inbound message, replying through r.
type Handler interface {
	Handle(ctx context.Context, in secretary.Inbound, r secretary.Replier) error
}
