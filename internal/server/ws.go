package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// chatMessage is the incoming WebSocket message format.
type chatMessage struct {
	SessionID string `json:"session_id,omitempty"`
	Content   string `json:"content"`
}

// chatReply is the outgoing WebSocket message format.
type chatReply struct {
	Type      string `json:"type"` // "response" or "error"
	SessionID string `json:"session_id,omitempty"`
	Mode      string `json:"mode,omitempty"`
	State     string `json:"state,omitempty"`
	Content   string `json:"content"`
}

// handleWebSocket runs a chat loop over one connection. Each message is
// one turn; the session id in replies lets the client continue an
// incident conversation across turns.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("server: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("server: websocket read: %v", err)
			}
			return
		}

		var req chatMessage
		if err := json.Unmarshal(msg, &req); err != nil {
			s.sendReply(conn, chatReply{Type: "error", Content: "invalid message format"})
			continue
		}
		if req.Content == "" {
			s.sendReply(conn, chatReply{Type: "error", SessionID: req.SessionID, Content: "content is required"})
			continue
		}

		turn, err := s.bot.Process(r.Context(), req.SessionID, req.Content)
		if err != nil {
			log.Printf("server: websocket turn failed: %v", err)
			s.sendReply(conn, chatReply{Type: "error", SessionID: req.SessionID, Content: "processing failed"})
			continue
		}

		s.sendReply(conn, chatReply{
			Type:      "response",
			SessionID: turn.SessionID,
			Mode:      string(turn.Mode),
			State:     string(turn.State),
			Content:   turn.Response,
		})
	}
}

func (s *Server) sendReply(conn *websocket.Conn, reply chatReply) {
	if err := conn.WriteJSON(reply); err != nil {
		log.Printf("server: websocket write: %v", err)
	}
}
