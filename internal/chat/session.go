package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/ukidney/docchat/internal/upstream"
)

// Backend is the chat surface of the upstream client.
type Backend interface {
	Chat(ctx context.Context, embedding string, req upstream.ChatRequest) (*upstream.ChatResponse, error)
	ChatStream(ctx context.Context, embedding string, req upstream.ChatRequest, onEvent func(upstream.StreamEvent) error) error
}

// Options configures a chat session over one or more documents.
type Options struct {
	// Docs is the validated slug list the conversation runs against.
	Docs []string
	// Passcode is forwarded for passcode-protected documents.
	Passcode string
	// Embedding selects the upstream embedding index.
	Embedding string
	// Model optionally overrides the upstream default model.
	Model string
}

// Session holds one conversation: an ordered list of user and assistant
// turns kept in memory for the lifetime of the session, never persisted.
type Session struct {
	id      string
	backend Backend
	opts    Options

	mu      sync.Mutex
	history []upstream.ChatTurn
}

// NewSession creates a session with a fresh id.
func NewSession(backend Backend, opts Options) *Session {
	return &Session{
		id:      uuid.NewString(),
		backend: backend,
		opts:    opts,
	}
}

// ID returns the session identifier sent with every upstream request.
func (s *Session) ID() string { return s.id }

// History returns a copy of the conversation so far.
func (s *Session) History() []upstream.ChatTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]upstream.ChatTurn, len(s.history))
	copy(out, s.history)
	return out
}

// request builds the upstream request for message. The history sent upstream
// is the conversation before this message; the new user turn travels in the
// message field only, so the backend does not see it twice.
func (s *Session) request(message string) upstream.ChatRequest {
	prior := make([]upstream.ChatTurn, len(s.history))
	copy(prior, s.history)

	return upstream.ChatRequest{
		Message:   message,
		History:   prior,
		Model:     s.opts.Model,
		SessionID: s.id,
		Doc:       strings.Join(s.opts.Docs, "+"),
		Passcode:  s.opts.Passcode,
	}
}

// Send submits a user turn and waits for the complete reply. On success the
// user and assistant turns are appended to the history. On failure the user
// turn is kept so the transcript shows what was asked; the error is returned
// for inline display.
func (s *Session) Send(ctx context.Context, message string) (string, error) {
	s.mu.Lock()
	req := s.request(message)
	s.history = append(s.history, upstream.ChatTurn{Role: upstream.RoleUser, Content: message})
	s.mu.Unlock()

	resp, err := s.backend.Chat(ctx, s.opts.Embedding, req)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.history = append(s.history, upstream.ChatTurn{Role: upstream.RoleAssistant, Content: resp.Response})
	s.mu.Unlock()
	return resp.Response, nil
}

// Stream submits a user turn over the streaming endpoint. onChunk is invoked
// after every content frame with the partial reply assembled so far, so the
// caller can re-render incrementally. The chunks of one exchange always
// produce exactly one assistant turn.
func (s *Session) Stream(ctx context.Context, message string, onChunk func(partial string)) (string, error) {
	s.mu.Lock()
	req := s.request(message)
	s.history = append(s.history, upstream.ChatTurn{Role: upstream.RoleUser, Content: message})
	s.mu.Unlock()

	var sb strings.Builder
	var streamErr error

	err := s.backend.ChatStream(ctx, s.opts.Embedding, req, func(ev upstream.StreamEvent) error {
		switch ev.Type {
		case upstream.StreamContent:
			sb.WriteString(ev.Chunk)
			if onChunk != nil {
				onChunk(sb.String())
			}
		case upstream.StreamError:
			streamErr = fmt.Errorf("upstream stream error: %s", ev.Error)
		case upstream.StreamDone:
			// readEvents stops after this frame.
		}
		return nil
	})
	if err != nil {
		return sb.String(), err
	}
	if streamErr != nil {
		return sb.String(), streamErr
	}

	full := sb.String()
	s.mu.Lock()
	s.history = append(s.history, upstream.ChatTurn{Role: upstream.RoleAssistant, Content: full})
	s.mu.Unlock()
	return full, nil
}
