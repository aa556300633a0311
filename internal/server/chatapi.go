package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/ukidney/docchat/internal/upstream"
)

// chatAPIRequest is the widget-facing chat request body. It mirrors the
// upstream shape so the gateway stays a thin proxy.
type chatAPIRequest struct {
	Message   string              `json:"message"`
	History   []upstream.ChatTurn `json:"history,omitempty"`
	Doc       string              `json:"doc"`
	Passcode  string              `json:"passcode,omitempty"`
	SessionID string              `json:"session_id,omitempty"`
	Model     string              `json:"model,omitempty"`
	Embedding string              `json:"embedding,omitempty"`
}

func (s *Server) upstreamRequest(req chatAPIRequest) (string, upstream.ChatRequest) {
	embedding := req.Embedding
	if embedding == "" {
		embedding = string(s.cfg.Embedding)
	}
	model := req.Model
	if model == "" {
		model = s.cfg.Model
	}
	return embedding, upstream.ChatRequest{
		Message:   req.Message,
		History:   req.History,
		Model:     model,
		SessionID: req.SessionID,
		Doc:       req.Doc,
		Passcode:  req.Passcode,
	}
}

func decodeChatRequest(w http.ResponseWriter, r *http.Request) (chatAPIRequest, bool) {
	var req chatAPIRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return req, false
	}
	if req.Message == "" {
		http.Error(w, `{"error":"message is required"}`, http.StatusBadRequest)
		return req, false
	}
	if req.Doc == "" {
		http.Error(w, `{"error":"doc is required"}`, http.StatusBadRequest)
		return req, false
	}
	return req, true
}

// handleChat proxies a non-streaming chat exchange.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeChatRequest(w, r)
	if !ok {
		return
	}

	embedding, upReq := s.upstreamRequest(req)
	resp, err := s.chat.Chat(r.Context(), embedding, upReq)
	if err != nil {
		if errors.Is(err, upstream.ErrChatTimeout) {
			http.Error(w, `{"error":"The chat request timed out. Please try again."}`, http.StatusGatewayTimeout)
			return
		}
		log.Printf("server: chat proxy: %v", err)
		http.Error(w, `{"error":"chat request failed"}`, http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// handleChatStream proxies a streaming chat exchange, re-emitting upstream
// frames as server-sent events so the widget renders the reply incrementally.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeChatRequest(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, `{"error":"streaming unsupported"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	writeEvent := func(ev upstream.StreamEvent) error {
		data, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		if _, err := w.Write([]byte("data: " + string(data) + "\n\n")); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	embedding, upReq := s.upstreamRequest(req)
	err := s.chat.ChatStream(r.Context(), embedding, upReq, writeEvent)
	if err != nil {
		log.Printf("server: chat stream proxy: %v", err)
		// Headers are already sent; surface the failure in-band.
		writeEvent(upstream.StreamEvent{Type: upstream.StreamError, Error: "chat request failed"})
	}
}
