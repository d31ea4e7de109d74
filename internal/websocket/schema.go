package websocket

import (
	"github.com/google/uuid"
	"github.com/stemsi/schoolhub-backend/internal/model"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action of a client frame.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventMessages Event = "messages"
	EventError    Event = "error"
	EventPong     Event = "pong"
)

// MessagesEvent carries the conversation's current message window. It is
// only sent when the window changed since the last push.
type MessagesEvent struct {
	Event          Event                 `json:"event"`
	ConversationID uuid.UUID             `json:"conversation_id"`
	Messages       []model.FamilyMessage `json:"messages"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
