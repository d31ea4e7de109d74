package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/schoolhub-backend/internal/config"
	"github.com/stemsi/schoolhub-backend/internal/model"
	"github.com/stemsi/schoolhub-backend/internal/service"
	ws "github.com/stemsi/schoolhub-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allow-list permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// Subscriber signals activity on a PubSub channel until the returned
// function is called.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (<-chan struct{}, func() error)
}

// WSHandler streams family conversations over WebSocket.
type WSHandler struct {
	messagingService *service.FamilyMessagingService
	bus              Subscriber
	log              zerolog.Logger
	upgrader         websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(messagingService *service.FamilyMessagingService, bus Subscriber, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		messagingService: messagingService,
		bus:              bus,
		log:              log.With().Str("component", "ws_handler").Logger(),
		upgrader:         buildUpgrader(allowedOrigins),
	}
}

// ConversationStream godoc
// WS /ws/v1/family-messaging/conversations/:id/stream?token=
// Pushes the message window whenever it changes. New sends on the
// conversation channel trigger an immediate poll.
func (h *WSHandler) ConversationStream(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	convID, ok := paramUUID(c, "id")
	if !ok {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	trigger, unsubscribe := h.bus.Subscribe(ctx, config.CacheKey.ConversationChannel(convID))
	defer unsubscribe()

	poller, err := h.messagingService.NewStream(c.Request.Context(), a, convID, trigger)
	if err != nil {
		failWith(c, err)
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.NewConn(raw)
	defer conn.Close()

	wsLog := h.log.With().
		Str("user_id", a.UserID.String()).
		Str("conversation_id", convID.String()).
		Logger()
	wsLog.Info().Msg("Conversation stream attached")

	// The read loop owns connection liveness: any read error ends the stream.
	go func() {
		defer cancel()
		for {
			var msg ws.RequestEnvelope
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					wsLog.Warn().Err(err).Msg("Unexpected close")
				}
				return
			}
			switch msg.Action {
			case ws.ActionPing:
				_ = conn.WriteTyped(ws.PongResponse{Event: ws.EventPong})
			default:
				_ = conn.WriteError("unknown action: " + string(msg.Action))
			}
		}
	}()

	err = poller.Run(ctx, func(msgs []model.FamilyMessage) error {
		return conn.WriteTyped(ws.MessagesEvent{
			Event:          ws.EventMessages,
			ConversationID: convID,
			Messages:       msgs,
		})
	})
	if err != nil {
		wsLog.Warn().Err(err).Msg("Conversation stream ended with error")
		_ = conn.WriteError("stream failed")
		return
	}
	wsLog.Info().Msg("Conversation stream detached")
}
