package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"intake-backend/internal/types"
)

const (
	wsWriteWait = 10 * time.Second
	wsPongWait  = 60 * time.Second
	wsPingEvery = (wsPongWait * 9) / 10
	wsReadLimit = 64 << 10
)

type wsInbound struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

type wsOutbound struct {
	Type    string              `json:"type"`
	Turn    *types.ChatResponse `json:"turn,omitempty"`
	Code    string              `json:"code,omitempty"`
	Message string              `json:"message,omitempty"`
}

func (s *Server) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.allowOrigin,
	}
}

func (s *Server) allowOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range s.cfg.AllowedOrigins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

// handleChatWS runs chat turns for one existing session over a websocket.
// Each inbound {"type":"message"} frame produces one "turn" frame.
func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	sid := strings.TrimSpace(getSessionID(r))
	if sid == "" {
		s.writeError(w, http.StatusBadRequest, "sessionId is required")
		return
	}
	if _, err := s.store.Session(r.Context(), sid); err != nil {
		s.writeStoreError(w, sid, err)
		return
	}

	conn, err := s.upgrader().Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "sessionID", sid, "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadLimit(wsReadLimit)
	if err := conn.SetReadDeadline(time.Now().Add(wsPongWait)); err != nil {
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	writeCh := make(chan wsOutbound, 8)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(wsPingEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					cancel()
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	push := func(out wsOutbound) bool {
		select {
		case writeCh <- out:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		var in wsInbound
		if err := conn.ReadJSON(&in); err != nil {
			cancel()
			<-writerDone
			return
		}
		var out wsOutbound
		switch strings.ToLower(strings.TrimSpace(in.Type)) {
		case "ping":
			out = wsOutbound{Type: "pong"}
		case "message":
			resp, err := s.turn(ctx, sid, in.Message)
			if err != nil {
				code, msg := s.errorStatus(sid, err)
				out = wsOutbound{Type: "error", Code: wsErrorCode(code), Message: msg}
				break
			}
			out = wsOutbound{Type: "turn", Turn: &resp}
		case "":
			out = wsOutbound{Type: "error", Code: "invalid_argument", Message: "type is required"}
		default:
			out = wsOutbound{Type: "error", Code: "invalid_argument", Message: "unsupported type: " + in.Type}
		}
		if !push(out) {
			<-writerDone
			return
		}
	}
}

func wsErrorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid_argument"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "resource_exhausted"
	}
	return "internal"
}
