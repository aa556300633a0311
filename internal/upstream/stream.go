package upstream

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
)

// ChatStream sends a streaming chat request and invokes onEvent for each
// `data:` frame until a done or error frame arrives, the stream ends, or ctx
// is cancelled. Malformed frames are logged and skipped rather than aborting
// the stream.
func (c *Client) ChatStream(ctx context.Context, embedding string, chatReq ChatRequest, onEvent func(StreamEvent) error) error {
	q := url.Values{}
	if embedding != "" {
		q.Set("embedding", embedding)
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/api/chat/stream?"+q.Encode(), chatReq)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upstream stream request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("upstream stream returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return readEvents(resp.Body, onEvent)
}

// readEvents parses SSE `data:` lines from r and dispatches decoded events.
// It returns nil once a done frame is seen or the stream ends cleanly.
func readEvents(r io.Reader, onEvent func(StreamEvent) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" {
			continue
		}

		var ev StreamEvent
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			log.Printf("upstream: skipping malformed stream frame: %v", err)
			continue
		}

		if err := onEvent(ev); err != nil {
			return err
		}
		if ev.Type == StreamDone {
			return nil
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading stream: %w", err)
	}
	return nil
}
