package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ukidney/docchat/internal/access"
	"github.com/ukidney/docchat/internal/cache"
	"github.com/ukidney/docchat/internal/config"
	"github.com/ukidney/docchat/internal/db"
	"github.com/ukidney/docchat/internal/resolver"
	"github.com/ukidney/docchat/internal/session"
	"github.com/ukidney/docchat/internal/upstream"
)

type fakeResolverBackend struct {
	docs map[string]upstream.DocumentConfig
}

func (f *fakeResolverBackend) Documents(ctx context.Context, slugs []string) ([]upstream.DocumentConfig, error) {
	var out []upstream.DocumentConfig
	for _, slug := range slugs {
		if d, ok := f.docs[slug]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeResolverBackend) OwnerDocuments(ctx context.Context, owner string) ([]upstream.DocumentConfig, error) {
	var out []upstream.DocumentConfig
	for _, d := range f.docs {
		if d.Owner == owner {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeResolverBackend) Owners(ctx context.Context) (map[string]upstream.OwnerInfo, error) {
	return map[string]upstream.OwnerInfo{
		"ukidney": {Slug: "ukidney", Name: "UKidney", Logo: "https://ukidney.example/logo.png", AccentColor: "#1a7f5a"},
	}, nil
}

type fakeAccessChecker struct {
	denied    map[string]upstream.AccessErrorType
	passcodes map[string]string
	err       error
}

func (f *fakeAccessChecker) CheckAccess(ctx context.Context, slug, passcode string) (*upstream.CheckAccessResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	if want, ok := f.passcodes[slug]; ok {
		if passcode == "" {
			return &upstream.CheckAccessResult{ErrorType: upstream.ErrTypePasscodeRequired}, nil
		}
		if passcode != want {
			return &upstream.CheckAccessResult{ErrorType: upstream.ErrTypePasscodeIncorrect}, nil
		}
		return &upstream.CheckAccessResult{HasAccess: true}, nil
	}
	if et, ok := f.denied[slug]; ok {
		return &upstream.CheckAccessResult{ErrorType: et}, nil
	}
	return &upstream.CheckAccessResult{HasAccess: true}, nil
}

type fakeChatBackend struct {
	reply  string
	err    error
	frames []upstream.StreamEvent
}

func (f *fakeChatBackend) Chat(ctx context.Context, embedding string, req upstream.ChatRequest) (*upstream.ChatResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &upstream.ChatResponse{Response: f.reply}, nil
}

func (f *fakeChatBackend) ChatStream(ctx context.Context, embedding string, req upstream.ChatRequest, onEvent func(upstream.StreamEvent) error) error {
	for _, ev := range f.frames {
		if err := onEvent(ev); err != nil {
			return err
		}
	}
	return nil
}

func setupServer(t *testing.T, checker *fakeAccessChecker, chatBackend *fakeChatBackend) (*httptest.Server, *Server) {
	t.Helper()

	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error = %v", err)
	}
	t.Cleanup(func() { database.Close() })

	backend := &fakeResolverBackend{docs: map[string]upstream.DocumentConfig{
		"kdigo-ckd-2024": {
			Slug:           "kdigo-ckd-2024",
			Title:          "KDIGO 2024 CKD Guideline",
			Owner:          "ukidney",
			WelcomeMessage: "the KDIGO 2024 CKD guideline",
			Active:         true,
		},
		"anemia-in-ckd": {
			Slug:           "anemia-in-ckd",
			Title:          "Anemia in CKD",
			Owner:          "ukidney",
			WelcomeMessage: "the anemia guideline",
			Active:         true,
		},
	}}

	cfg := config.DefaultConfig()
	cfg.UpstreamURL = "http://upstream.example"

	res := resolver.New(backend, cache.NewStore(database, "test"), cfg.DocumentTTL, cfg.OwnerTTL)
	guard := access.NewGuard(checker, cfg.AccessFail)
	sessions := session.NewStore(t.TempDir())

	s := New(*cfg, res, guard, chatBackend, sessions, nil)
	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)
	return srv, s
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s error = %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestHealthz(t *testing.T) {
	srv, _ := setupServer(t, &fakeAccessChecker{}, &fakeChatBackend{})

	status, body := get(t, srv.URL+"/healthz")
	if status != http.StatusOK {
		t.Errorf("status = %d, want 200", status)
	}
	if !strings.Contains(body, `"ok"`) {
		t.Errorf("body = %q", body)
	}
}

func TestViewRendersGrantedDocument(t *testing.T) {
	srv, _ := setupServer(t, &fakeAccessChecker{}, &fakeChatBackend{})

	status, body := get(t, srv.URL+"/?doc=kdigo-ckd-2024")
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if !strings.Contains(body, "KDIGO 2024 CKD Guideline") {
		t.Error("body missing document title")
	}
	if !strings.Contains(body, "#1a7f5a") {
		t.Error("body missing owner accent color")
	}
}

func TestViewBackButtonAndOwnerLink(t *testing.T) {
	srv, _ := setupServer(t, &fakeAccessChecker{}, &fakeChatBackend{})

	_, body := get(t, srv.URL+"/?doc=kdigo-ckd-2024&back-button=true&owner_link=true")
	if !strings.Contains(body, "back-button") {
		t.Error("body missing back affordance")
	}
	if !strings.Contains(body, "/view?owner=ukidney") {
		t.Error("body missing owner catalog link")
	}
}

func TestViewCombinesMultipleDocuments(t *testing.T) {
	srv, _ := setupServer(t, &fakeAccessChecker{}, &fakeChatBackend{})

	status, body := get(t, srv.URL+"/?doc=kdigo-ckd-2024+anemia-in-ckd")
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if !strings.Contains(body, "KDIGO 2024 CKD Guideline + Anemia in CKD") {
		t.Error("body missing combined title")
	}
	if !strings.Contains(body, "the KDIGO 2024 CKD guideline and the anemia guideline") {
		t.Error("body missing combined welcome")
	}
}

func TestViewEmptyShellNoticeIsOneShot(t *testing.T) {
	srv, _ := setupServer(t, &fakeAccessChecker{}, &fakeChatBackend{})

	status, body := get(t, srv.URL+"/")
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if !strings.Contains(body, "Document Required") {
		t.Error("first render missing empty shell")
	}
	firstHadNotice := strings.Contains(body, "notice")

	_, body = get(t, srv.URL+"/")
	if strings.Contains(body, "notice") && firstHadNotice {
		t.Error("slug-entry notice rendered twice, want one-shot")
	}
}

func TestViewPasscodeFlow(t *testing.T) {
	checker := &fakeAccessChecker{passcodes: map[string]string{"kdigo-ckd-2024": "s3cret"}}
	srv, _ := setupServer(t, checker, &fakeChatBackend{})

	status, body := get(t, srv.URL+"/?doc=kdigo-ckd-2024")
	if status != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", status)
	}
	if !strings.Contains(body, "Passcode Required") {
		t.Error("body missing passcode prompt")
	}

	status, body = get(t, srv.URL+"/?doc=kdigo-ckd-2024&passcode=wrong")
	if status != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 for wrong passcode", status)
	}
	if !strings.Contains(body, "not recognized") {
		t.Error("body missing incorrect-passcode message")
	}

	status, body = get(t, srv.URL+"/?doc=kdigo-ckd-2024&passcode=s3cret")
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200 with correct passcode", status)
	}
	if !strings.Contains(body, "KDIGO 2024 CKD Guideline") {
		t.Error("body missing document title after passcode grant")
	}
}

func TestViewNotFound(t *testing.T) {
	checker := &fakeAccessChecker{denied: map[string]upstream.AccessErrorType{"missing": upstream.ErrTypeNotFound}}
	srv, _ := setupServer(t, checker, &fakeChatBackend{})

	status, body := get(t, srv.URL+"/?doc=missing")
	if status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", status)
	}
	if !strings.Contains(body, "Document Not Found") {
		t.Error("body missing not-found heading")
	}
}

func TestViewCombinedRequiresEveryGrant(t *testing.T) {
	checker := &fakeAccessChecker{denied: map[string]upstream.AccessErrorType{"anemia-in-ckd": upstream.ErrTypePermissionDenied}}
	srv, _ := setupServer(t, checker, &fakeChatBackend{})

	status, body := get(t, srv.URL+"/?doc=kdigo-ckd-2024+anemia-in-ckd")
	if status != http.StatusForbidden {
		t.Fatalf("status = %d, want 403 when one document is denied", status)
	}
	if strings.Contains(body, "KDIGO 2024 CKD Guideline +") {
		t.Error("combined view rendered despite a denied document")
	}
}

func TestChatProxy(t *testing.T) {
	srv, _ := setupServer(t, &fakeAccessChecker{}, &fakeChatBackend{reply: "Stage G3a means moderately reduced kidney function."})

	body, _ := json.Marshal(chatAPIRequest{Message: "What is stage G3a?", Doc: "kdigo-ckd-2024"})
	resp, err := http.Post(srv.URL+"/api/chat", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var out upstream.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !strings.Contains(out.Response, "G3a") {
		t.Errorf("response = %q", out.Response)
	}
}

func TestChatProxyTimeout(t *testing.T) {
	srv, _ := setupServer(t, &fakeAccessChecker{}, &fakeChatBackend{err: upstream.ErrChatTimeout})

	body, _ := json.Marshal(chatAPIRequest{Message: "hi", Doc: "kdigo-ckd-2024"})
	resp, err := http.Post(srv.URL+"/api/chat", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusGatewayTimeout {
		t.Errorf("status = %d, want 504 for chat timeout", resp.StatusCode)
	}
	raw, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(raw), "timed out") {
		t.Errorf("body = %q, want timeout message", raw)
	}
}

func TestChatProxyUpstreamError(t *testing.T) {
	srv, _ := setupServer(t, &fakeAccessChecker{}, &fakeChatBackend{err: errors.New("boom")})

	body, _ := json.Marshal(chatAPIRequest{Message: "hi", Doc: "kdigo-ckd-2024"})
	resp, err := http.Post(srv.URL+"/api/chat", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", resp.StatusCode)
	}
}

func TestChatStreamReEmitsFrames(t *testing.T) {
	srv, _ := setupServer(t, &fakeAccessChecker{}, &fakeChatBackend{frames: []upstream.StreamEvent{
		{Type: upstream.StreamContent, Chunk: "Hel"},
		{Type: upstream.StreamContent, Chunk: "lo"},
		{Type: upstream.StreamDone},
	}})

	body, _ := json.Marshal(chatAPIRequest{Message: "hi", Doc: "kdigo-ckd-2024"})
	resp, err := http.Post(srv.URL+"/api/chat/stream", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", got)
	}

	raw, _ := io.ReadAll(resp.Body)
	text := string(raw)
	for _, want := range []string{`data: {"type":"content","chunk":"Hel"}`, `"chunk":"lo"`, `"type":"done"`} {
		if !strings.Contains(text, want) {
			t.Errorf("stream missing %q in %q", want, text)
		}
	}
}

func TestChatSocket(t *testing.T) {
	srv, _ := setupServer(t, &fakeAccessChecker{}, &fakeChatBackend{frames: []upstream.StreamEvent{
		{Type: upstream.StreamContent, Chunk: "Hello"},
		{Type: upstream.StreamDone},
	}})

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/chat"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dialing websocket: %v", err)
	}
	defer conn.Close()

	req := wsRequest{Type: "message", Content: "hi", Doc: "kdigo-ckd-2024"}
	if err := conn.WriteJSON(req); err != nil {
		t.Fatalf("writing message: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var sawChunk, sawDone bool
	for !sawDone {
		var resp wsResponse
		if err := conn.ReadJSON(&resp); err != nil {
			t.Fatalf("reading response: %v", err)
		}
		switch resp.Type {
		case "chunk":
			sawChunk = true
		case "done":
			sawDone = true
			if resp.Content != "Hello" {
				t.Errorf("done content = %q, want Hello", resp.Content)
			}
			if resp.SessionID == "" {
				t.Error("done frame missing session id")
			}
		case "error":
			t.Fatalf("unexpected error frame: %s", resp.Content)
		}
	}
	if !sawChunk {
		t.Error("no chunk frames received before done")
	}
}

func TestViewOwnerCatalogOmitsDeniedDocuments(t *testing.T) {
	checker := &fakeAccessChecker{denied: map[string]upstream.AccessErrorType{"anemia-in-ckd": upstream.ErrTypePermissionDenied}}
	srv, _ := setupServer(t, checker, &fakeChatBackend{})

	status, body := get(t, srv.URL+"/view?owner=ukidney")
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if !strings.Contains(body, "KDIGO 2024 CKD Guideline") {
		t.Error("granted document missing from owner catalog")
	}
	if strings.Contains(body, "Anemia in CKD") {
		t.Error("denied document rendered in owner catalog")
	}
}

func TestViewOwnerCatalogAllDenied(t *testing.T) {
	checker := &fakeAccessChecker{denied: map[string]upstream.AccessErrorType{
		"kdigo-ckd-2024": upstream.ErrTypePermissionDenied,
		"anemia-in-ckd":  upstream.ErrTypePermissionDenied,
	}}
	srv, _ := setupServer(t, checker, &fakeChatBackend{})

	status, body := get(t, srv.URL+"/view?owner=ukidney")
	if status != http.StatusForbidden {
		t.Fatalf("status = %d, want 403 when every document is denied", status)
	}
	if strings.Contains(body, "KDIGO 2024 CKD Guideline") {
		t.Error("denied document rendered")
	}
}

func TestViewAuthRequiredStashesReturnURL(t *testing.T) {
	checker := &fakeAccessChecker{denied: map[string]upstream.AccessErrorType{"kdigo-ckd-2024": upstream.ErrTypeAuthRequired}}
	srv, s := setupServer(t, checker, &fakeChatBackend{})

	status, body := get(t, srv.URL+"/view?doc=kdigo-ckd-2024")
	if status != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", status)
	}
	if !strings.Contains(body, "Sign In Required") {
		t.Error("body missing sign-in prompt")
	}

	stashed := s.sessions.PopReturnURL()
	if !strings.Contains(stashed, "doc=kdigo-ckd-2024") {
		t.Errorf("return URL = %q, want the original view URL", stashed)
	}
}

func TestPasscodeSubmitRedirects(t *testing.T) {
	checker := &fakeAccessChecker{passcodes: map[string]string{"kdigo-ckd-2024": "s3cret"}}
	srv, _ := setupServer(t, checker, &fakeChatBackend{})

	client := &http.Client{CheckRedirect: func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}}

	form := url.Values{"doc": {"kdigo-ckd-2024"}, "passcode": {"s3cret"}}
	resp, err := client.PostForm(srv.URL+"/view/passcode", form)
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", resp.StatusCode)
	}
	loc, err := url.Parse(resp.Header.Get("Location"))
	if err != nil {
		t.Fatalf("parsing redirect location: %v", err)
	}
	if loc.Query().Get("passcode") != "s3cret" {
		t.Errorf("location = %q, want validated passcode appended", loc)
	}
	if loc.Query().Get("doc") != "kdigo-ckd-2024" {
		t.Errorf("location = %q, want doc preserved", loc)
	}
}

func TestPasscodeSubmitWrongPasscode(t *testing.T) {
	checker := &fakeAccessChecker{passcodes: map[string]string{"kdigo-ckd-2024": "s3cret"}}
	srv, _ := setupServer(t, checker, &fakeChatBackend{})

	form := url.Values{"doc": {"kdigo-ckd-2024"}, "passcode": {"wrong"}}
	resp, err := http.PostForm(srv.URL+"/view/passcode", form)
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 for a rejected passcode", resp.StatusCode)
	}
	raw, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(raw), "not recognized") {
		t.Error("body missing incorrect-passcode message")
	}
}

func TestStaticAssets(t *testing.T) {
	srv, _ := setupServer(t, &fakeAccessChecker{}, &fakeChatBackend{})

	status, body := get(t, srv.URL+"/static/widget.css")
	if status != http.StatusOK {
		t.Fatalf("widget.css status = %d, want 200", status)
	}
	if !strings.Contains(body, "--accent") {
		t.Error("widget.css missing accent variables")
	}

	status, body = get(t, srv.URL+"/static/widget.js")
	if status != http.StatusOK {
		t.Fatalf("widget.js status = %d, want 200", status)
	}
	if !strings.Contains(body, "chat-form") {
		t.Error("widget.js missing chat form wiring")
	}
}
