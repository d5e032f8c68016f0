package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/forum-api/internal/middleware"
	"github.com/noah-isme/forum-api/internal/realtime"
)

// Subscriber registers a live connection for a user.
type Subscriber interface {
	Subscribe(recipientID uint) (<-chan realtime.Event, func())
}

// RealtimeHandler upgrades signed-in callers to a websocket carrying notification events.
type RealtimeHandler struct {
	subscriber Subscriber
	logger     zerolog.Logger
	keepAlive  time.Duration
}

// NewRealtimeHandler creates a realtime handler instance.
func NewRealtimeHandler(subscriber Subscriber, logger zerolog.Logger, keepAlive time.Duration) *RealtimeHandler {
	if keepAlive <= 0 {
		keepAlive = 30 * time.Second
	}
	return &RealtimeHandler{
		subscriber: subscriber,
		logger:     logger.With().Str("component", "realtime_handler").Logger(),
		keepAlive:  keepAlive,
	}
}

// Register binds the websocket route under the provided router group.
func (h *RealtimeHandler) Register(router fiber.Router) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("request_ctx", requestContext(c))
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	router.Get("/ws", websocket.New(h.handleConnection))
}

func (h *RealtimeHandler) handleConnection(conn *websocket.Conn) {
	userID, _ := conn.Locals(middleware.LocalUserID).(uint)
	if userID == 0 {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "user id missing"))
		_ = conn.Close()
		return
	}

	baseCtx, _ := conn.Locals("request_ctx").(context.Context)
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	events, cleanup := h.subscriber.Subscribe(userID)
	defer cleanup()

	logger := h.logger.With().Uint("user_id", userID).Logger()
	logger.Info().Msg("realtime websocket connected")
	defer logger.Info().Msg("realtime websocket disconnected")

	connected, err := realtime.NewEvent("connected", map[string]interface{}{"userId": userID})
	if err == nil {
		if err := conn.WriteJSON(connected); err != nil {
			return
		}
	}

	// Client frames are ignored; reading surfaces the close.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				logger.Debug().Err(err).Msg("failed to write realtime event")
				return
			}
		case <-ticker.C:
			deadline := time.Now().Add(5 * time.Second)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
