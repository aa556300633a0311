package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrChatTimeout is returned when a non-streaming chat request exceeds the
// configured client-side deadline. Callers distinguish it from other
// transport failures to show a dedicated message in the transcript.
var ErrChatTimeout = errors.New("chat request timed out")

// TokenSource supplies the bearer token of the current auth session, or an
// empty string when no session exists.
type TokenSource interface {
	Token() string
}

// Client is a typed HTTP client for the upstream RAG backend. The backend is
// an opaque collaborator: the client never interprets retrieval or model
// behavior, only the REST and SSE surfaces.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	tokens      TokenSource
	chatTimeout time.Duration
}

// New creates a client for the backend at baseURL. tokens may be nil for
// anonymous access.
func New(baseURL string, tokens TokenSource, chatTimeout time.Duration) *Client {
	if chatTimeout <= 0 {
		chatTimeout = 60 * time.Second
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{},
		tokens:      tokens,
		chatTimeout: chatTimeout,
	}
}

// newRequest builds a request with JSON headers and the bearer token, if any.
func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshalling request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if tok := c.tokens.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	return req, nil
}

// doJSON executes the request and decodes a JSON response into out.
func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("upstream returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding upstream response: %w", err)
	}
	return nil
}

type documentsResponse struct {
	Documents []DocumentConfig `json:"documents"`
}

// Documents fetches document configurations by slug list.
func (c *Client) Documents(ctx context.Context, slugs []string) ([]DocumentConfig, error) {
	q := url.Values{}
	q.Set("doc", strings.Join(slugs, "+"))
	req, err := c.newRequest(ctx, http.MethodGet, "/api/documents?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	var out documentsResponse
	if err := c.doJSON(req, &out); err != nil {
		return nil, err
	}
	return out.Documents, nil
}

// OwnerDocuments fetches all document configurations for one owner.
func (c *Client) OwnerDocuments(ctx context.Context, owner string) ([]DocumentConfig, error) {
	q := url.Values{}
	q.Set("owner", owner)
	req, err := c.newRequest(ctx, http.MethodGet, "/api/documents?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	var out documentsResponse
	if err := c.doJSON(req, &out); err != nil {
		return nil, err
	}
	return out.Documents, nil
}

type ownersResponse struct {
	Owners map[string]OwnerInfo `json:"owners"`
}

// Owners fetches the branding table for all owners, keyed by owner slug.
func (c *Client) Owners(ctx context.Context) (map[string]OwnerInfo, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/owners", nil)
	if err != nil {
		return nil, err
	}
	var out ownersResponse
	if err := c.doJSON(req, &out); err != nil {
		return nil, err
	}
	return out.Owners, nil
}

type checkAccessRequest struct {
	Passcode string `json:"passcode,omitempty"`
}

// CheckAccess runs a permission check for one document slug. A non-empty
// passcode is forwarded for passcode-protected documents.
//
// Denials conventionally arrive as 401/403/404 responses carrying the same
// JSON body as a grant; those decode into a denial result rather than a
// transport error, so the fail-open policy never converts an explicit
// denial into a grant.
func (c *Client) CheckAccess(ctx context.Context, slug, passcode string) (*CheckAccessResult, error) {
	path := "/api/permissions/check-access/" + url.PathEscape(slug)
	req, err := c.newRequest(ctx, http.MethodPost, path, checkAccessRequest{Passcode: passcode})
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading access response: %w", err)
	}

	var out CheckAccessResult
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if err := json.Unmarshal(body, &out); err != nil {
			return nil, fmt.Errorf("decoding access response: %w", err)
		}
		return &out, nil
	case resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden,
		resp.StatusCode == http.StatusNotFound:
		if err := json.Unmarshal(body, &out); err == nil && out.ErrorType != "" {
			return &out, nil
		}
	}
	return nil, fmt.Errorf("upstream returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}

// Chat sends a non-streaming chat request. The call is bounded by the
// configured chat timeout; expiry surfaces as ErrChatTimeout.
func (c *Client) Chat(ctx context.Context, embedding string, chatReq ChatRequest) (*ChatResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.chatTimeout)
	defer cancel()

	q := url.Values{}
	if embedding != "" {
		q.Set("embedding", embedding)
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/api/chat?"+q.Encode(), chatReq)
	if err != nil {
		return nil, err
	}

	var out ChatResponse
	if err := c.doJSON(req, &out); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return nil, ErrChatTimeout
		}
		return nil, err
	}
	return &out, nil
}

type updateDocumentRequest map[string]any

// UpdateDocument applies a single-field patch to a document.
func (c *Client) UpdateDocument(ctx context.Context, slug, field string, value any) error {
	path := "/api/documents/" + url.PathEscape(slug)
	req, err := c.newRequest(ctx, http.MethodPut, path, updateDocumentRequest{field: value})
	if err != nil {
		return err
	}
	return c.doJSON(req, nil)
}

// DeleteDocument removes one document.
func (c *Client) DeleteDocument(ctx context.Context, slug string) error {
	path := "/api/documents/" + url.PathEscape(slug)
	req, err := c.newRequest(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	return c.doJSON(req, nil)
}

// Permissions fetches the caller's permission summary.
func (c *Client) Permissions(ctx context.Context) (*PermissionSummary, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/permissions", nil)
	if err != nil {
		return nil, err
	}
	var out PermissionSummary
	if err := c.doJSON(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type accessibleOwnersResponse struct {
	Owners []string `json:"owners"`
}

// AccessibleOwners lists the owner slugs the caller may administer.
func (c *Client) AccessibleOwners(ctx context.Context) ([]string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/permissions/accessible-owners", nil)
	if err != nil {
		return nil, err
	}
	var out accessibleOwnersResponse
	if err := c.doJSON(req, &out); err != nil {
		return nil, err
	}
	return out.Owners, nil
}

type canEditResponse struct {
	CanEdit bool `json:"can_edit"`
}

// CanEditDocument reports whether the caller may edit the given document.
func (c *Client) CanEditDocument(ctx context.Context, slug string) (bool, error) {
	path := "/api/permissions/can-edit-document/" + url.PathEscape(slug)
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return false, err
	}
	var out canEditResponse
	if err := c.doJSON(req, &out); err != nil {
		return false, err
	}
	return out.CanEdit, nil
}
