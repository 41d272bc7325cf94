package websocket

import (
	"context"
	"encoding/json"

	"review-insights-be/internal/dto"
	"review-insights-be/internal/pkg/logger"
	"review-insights-be/internal/pkg/serverutils"
	"review-insights-be/internal/service"
	"review-insights-be/pkg/insight/stream"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// InsightStreamHandler answers chat questions arriving over a websocket,
// streaming each turn back to the asking user as it is generated.
type InsightStreamHandler struct {
	hub            *Hub
	insightService service.IInsightService
	logger         logger.ILogger
}

func NewInsightStreamHandler(hub *Hub, insightService service.IInsightService, log logger.ILogger) *InsightStreamHandler {
	return &InsightStreamHandler{
		hub:            hub,
		insightService: insightService,
		logger:         log,
	}
}

// RegisterRoutes registers the streaming endpoint.
func (h *InsightStreamHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws/insight", h.Handle)
}

// Handle authenticates the handshake and upgrades the connection. Browsers
// cannot set headers on websocket requests, so the token rides as a query
// parameter; tooling may still use the Authorization header.
func (h *InsightStreamHandler) Handle(ctx *fiber.Ctx) error {
	tokenStr := ctx.Query("token")
	if tokenStr == "" {
		authHeader := ctx.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}
	if tokenStr == "" {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing token"})
	}

	userIDStr, err := serverutils.ParseUserToken(tokenStr)
	if err != nil {
		h.logger.Warn("InsightWS", "invalid token in handshake", map[string]interface{}{"error": err.Error()})
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user id in token"})
	}

	if websocket.IsWebSocketUpgrade(ctx) {
		return websocket.New(func(c *websocket.Conn) {
			h.ServeWs(c, userID)
		})(ctx)
	}
	return fiber.ErrUpgradeRequired
}

// ServeWs upgrades one connection and pumps it until close.
func (h *InsightStreamHandler) ServeWs(c *websocket.Conn, userID uuid.UUID) {
	ctx, cancel := context.WithCancel(context.Background())
	client := &Client{
		Hub:       h.hub,
		Conn:      c,
		UserID:    userID,
		Send:      make(chan []byte, 256),
		onMessage: h.handleInbound,
		lifetime:  ctx,
		cancel:    cancel,
	}
	client.Hub.register <- client

	go client.writePump()
	client.readPump()
}

func (h *InsightStreamHandler) handleInbound(client *Client, data []byte) {
	var req dto.SendChatRequest
	if err := json.Unmarshal(data, &req); err != nil {
		h.sendTo(client, Event{Type: "error", Data: "invalid request"})
		return
	}

	// Each question runs in its own goroutine so the read pump keeps
	// serving pings while the model generates.
	go h.answer(client, &req)
}

func (h *InsightStreamHandler) answer(client *Client, req *dto.SendChatRequest) {
	// The connection context cancels SendChat when the peer disconnects,
	// which cancels the turn and drops the upstream generation stream.
	ctx := client.Context()

	emit := func(u stream.Unit) error {
		switch u.Kind {
		case stream.UnitStatus:
			h.sendTo(client, Event{Type: "status", Data: u.Status})
		case stream.UnitCitations:
			h.sendTo(client, Event{Type: "citations", Data: u.Citations})
		case stream.UnitFragment:
			h.sendTo(client, Event{Type: "fragment", Data: u.Text})
		}
		return nil
	}

	res, err := h.insightService.SendChat(ctx, client.UserID, req, emit)
	if err != nil {
		h.logger.Error("InsightWS", "chat turn failed", map[string]interface{}{
			"user_id": client.UserID.String(),
			"error":   err.Error(),
		})
		h.sendTo(client, Event{Type: "error", Data: err.Error()})
		return
	}

	h.sendTo(client, Event{Type: "done", Data: res})
}

func (h *InsightStreamHandler) sendTo(client *Client, event Event) {
	data, _ := json.Marshal(event)
	select {
	case client.Send <- data:
	default:
		h.logger.Warn("InsightWS", "send buffer full, dropping frame", map[string]interface{}{
			"user_id": client.UserID.String(),
		})
	}
}
