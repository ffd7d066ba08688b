package clients

import (
	"context"

	ws "recibo-export/internal/transport/websocket"
)

const (
	EventSessionUpdated = "session_updated"
	EventReceiptReady   = "receipt_ready"
	EventReceiptFailed  = "receipt_failed"
)

// WebSocketClient pushes receipt session events to the hub. A nil hub turns every call
// into a no-op.
type WebSocketClient struct {
	hub *ws.Hub
}

func NewWebSocketClient(hub *ws.Hub) *WebSocketClient {
	return &WebSocketClient{
		hub: hub,
	}
}

func sessionChannel(sessionID string) string {
	return "receipt_session#" + sessionID
}

func (c *WebSocketClient) send(sessionID, event string, data any) error {
	if c == nil || c.hub == nil {
		return nil
	}
	c.hub.Broadcast(sessionID, &ws.Message{
		Type:    event,
		Channel: sessionChannel(sessionID),
		Data:    data,
	})
	return nil
}

func (c *WebSocketClient) NotifySessionUpdated(ctx context.Context, sessionID string, state any) error {
	return c.send(sessionID, EventSessionUpdated, state)
}

func (c *WebSocketClient) NotifyReceiptReady(ctx context.Context, sessionID, url, filename string) error {
	return c.send(sessionID, EventReceiptReady, map[string]interface{}{
		"url":      url,
		"filename": filename,
	})
}

func (c *WebSocketClient) NotifyReceiptFailed(ctx context.Context, sessionID, errMsg string) error {
	return c.send(sessionID, EventReceiptFailed, map[string]interface{}{
		"message": errMsg,
	})
}
