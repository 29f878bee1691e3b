package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsReadLimit    = 1 << 20
	wsIdleTimeout  = 120 * time.Second
	wsWriteTimeout = 10 * time.Second
)

// handleChatWS carries the chat request and response JSON over a websocket.
// Turns on one connection are processed in order, one at a time.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsIdleTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsIdleTimeout))
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket closed", "error", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		s.metrics.ObserveWSMessage("inbound")

		var out any
		var body chatRequest
		if err := json.Unmarshal(data, &body); err != nil {
			out = errorResponse{Error: "invalid JSON: " + err.Error(), Code: "bad_request"}
		} else if resp, status, err := s.runChat(r, body); err != nil {
			out = errorResponse{Error: err.Error(), Code: chatErrorCode(status)}
		} else {
			out = resp
		}

		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(out); err != nil {
			s.logger.Warn("websocket write failed", "error", err)
			return
		}
		s.metrics.ObserveWSMessage("outbound")
		_ = conn.SetReadDeadline(time.Now().Add(wsIdleTimeout))
	}
}
