package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/ukidney/docchat/internal/chat"
	"github.com/ukidney/docchat/internal/resolver"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsRequest is the incoming WebSocket message format.
type wsRequest struct {
	Type      string `json:"type"`       // "message"
	SessionID string `json:"session_id"` // empty for new sessions
	Content   string `json:"content"`
	Doc       string `json:"doc"`
	Passcode  string `json:"passcode,omitempty"`
	Model     string `json:"model,omitempty"`
	Embedding string `json:"embedding,omitempty"`
}

// wsResponse is the outgoing WebSocket message format.
type wsResponse struct {
	Type      string `json:"type"` // "chunk", "done" or "error"
	SessionID string `json:"session_id"`
	Content   string `json:"content"`
}

// handleChatSocket runs a chat conversation over one WebSocket connection.
// Session history lives for the life of the connection; each reply streams
// back as chunk frames followed by a done frame.
func (s *Server) handleChatSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("server: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	sessions := make(map[string]*chat.Session)

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("server: websocket read: %v", err)
			}
			return
		}

		var req wsRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			s.sendSocketError(conn, "", "invalid message format")
			continue
		}

		if req.Content == "" {
			s.sendSocketError(conn, req.SessionID, "content is required")
			continue
		}

		switch req.Type {
		case "message":
			s.handleSocketMessage(conn, r, sessions, req)
		default:
			s.sendSocketError(conn, req.SessionID, "unknown message type: "+req.Type)
		}
	}
}

func (s *Server) handleSocketMessage(conn *websocket.Conn, r *http.Request, sessions map[string]*chat.Session, req wsRequest) {
	sess, ok := sessions[req.SessionID]
	if !ok {
		if req.Doc == "" {
			s.sendSocketError(conn, req.SessionID, "doc is required to start a session")
			return
		}
		embedding := req.Embedding
		if embedding == "" {
			embedding = string(s.cfg.Embedding)
		}
		model := req.Model
		if model == "" {
			model = s.cfg.Model
		}
		sess = chat.NewSession(s.chat, chat.Options{
			Docs:      resolver.SplitSlugs(req.Doc),
			Passcode:  req.Passcode,
			Embedding: embedding,
			Model:     model,
		})
		sessions[sess.ID()] = sess
	}

	full, err := sess.Stream(r.Context(), req.Content, func(partial string) {
		s.sendSocketResponse(conn, wsResponse{Type: "chunk", SessionID: sess.ID(), Content: partial})
	})
	if err != nil {
		s.sendSocketError(conn, sess.ID(), err.Error())
		return
	}

	s.sendSocketResponse(conn, wsResponse{Type: "done", SessionID: sess.ID(), Content: full})
}

func (s *Server) sendSocketResponse(conn *websocket.Conn, resp wsResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		log.Printf("server: websocket write: %v", err)
	}
}

func (s *Server) sendSocketError(conn *websocket.Conn, sessionID, msg string) {
	s.sendSocketResponse(conn, wsResponse{Type: "error", SessionID: sessionID, Content: msg})
}
