// Package chat relays chat messages to every connected client. The relay
// keeps no message history; the server only assigns ids and timestamps,
// and caps how fast any one connection may send.
package chat

import (
	"time"

	"github.com/google/uuid"

	"classpoll/internal/broadcast"
	"classpoll/pkg/types"
)

type Relay struct {
	gateway broadcast.Gateway
	limiter *rateLimiter
}

func New(gateway broadcast.Gateway) *Relay {
	return &Relay{
		gateway: gateway,
		limiter: newRateLimiter(defaultLimit, defaultWindow),
	}
}

// Send stamps and broadcasts a chat message from the given connection.
// Senders over the rate limit get a RateLimited error and nothing is
// broadcast.
func (r *Relay) Send(senderID, message, senderType, senderName string) (types.ChatMessage, error) {
	if !r.limiter.allow(senderID) {
		return types.ChatMessage{}, types.ErrRateLimited
	}

	chatMessage := types.ChatMessage{
		ID:         uuid.New().String(),
		Message:    message,
		SenderType: senderType,
		SenderName: senderName,
		Timestamp:  time.Now(),
	}
	r.gateway.ToAll(types.EventNewMessage, chatMessage)
	return chatMessage, nil
}

// Forget releases rate limit state for a disconnected sender.
func (r *Relay) Forget(senderID string) {
	r.limiter.forget(senderID)
}
