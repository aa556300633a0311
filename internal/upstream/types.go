package upstream

// OwnerInfo is the branding record for a tenant owning documents.
type OwnerInfo struct {
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Logo        string `json:"logo,omitempty"`
	AccentColor string `json:"accentColor,omitempty"`
}

// Keyword is a weighted term displayed in the document word cloud.
type Keyword struct {
	Term   string  `json:"term"`
	Weight float64 `json:"weight"`
}

// Download is a per-document downloadable asset.
type Download struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// DocumentConfig is the full configuration of one chat-enabled document,
// as served by the upstream documents API.
type DocumentConfig struct {
	Slug                 string            `json:"slug"`
	Title                string            `json:"title"`
	Subtitle             string            `json:"subtitle,omitempty"`
	Category             string            `json:"category,omitempty"`
	Year                 int               `json:"year,omitempty"`
	Owner                string            `json:"owner,omitempty"`
	OwnerInfo            *OwnerInfo        `json:"ownerInfo,omitempty"`
	WelcomeMessage       string            `json:"welcomeMessage,omitempty"`
	IntroMessage         string            `json:"introMessage,omitempty"`
	Cover                string            `json:"cover,omitempty"`
	Keywords             []Keyword         `json:"keywords,omitempty"`
	Downloads            []Download        `json:"downloads,omitempty"`
	Metadata             map[string]string `json:"metadata,omitempty"`
	AccessLevel          string            `json:"access_level,omitempty"`
	Active               bool              `json:"active"`
	ShowDocumentSelector bool              `json:"showDocumentSelector,omitempty"`
}

// PMID returns the PubMed identifier from the document metadata, if any.
func (d *DocumentConfig) PMID() string {
	if d.Metadata == nil {
		return ""
	}
	return d.Metadata["pmid"]
}

// AccessErrorType classifies a denied permission check.
type AccessErrorType string

const (
	ErrTypePasscodeRequired  AccessErrorType = "passcode_required"
	ErrTypePasscodeIncorrect AccessErrorType = "passcode_incorrect"
	ErrTypeNotFound          AccessErrorType = "document_not_found"
	ErrTypeAuthRequired      AccessErrorType = "authentication_required"
	ErrTypePermissionDenied  AccessErrorType = "permission_denied"
)

// CheckAccessResult is the upstream response to a permission check.
type CheckAccessResult struct {
	HasAccess    bool            `json:"has_access"`
	ErrorType    AccessErrorType `json:"error_type,omitempty"`
	DocumentInfo *DocumentConfig `json:"document_info,omitempty"`
}

// ChatTurn is one user or assistant turn in a conversation history.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatRequest is the body for both chat endpoints.
type ChatRequest struct {
	Message   string     `json:"message"`
	History   []ChatTurn `json:"history"`
	Model     string     `json:"model,omitempty"`
	SessionID string     `json:"sessionId,omitempty"`
	Doc       string     `json:"doc"`
	Passcode  string     `json:"passcode,omitempty"`
}

// ChatResponse is the non-streaming chat reply.
type ChatResponse struct {
	Response string `json:"response"`
}

// StreamEventType discriminates streamed chat frames.
type StreamEventType string

const (
	StreamContent StreamEventType = "content"
	StreamDone    StreamEventType = "done"
	StreamError   StreamEventType = "error"
)

// StreamEvent is one `data:` frame of the streaming chat endpoint.
type StreamEvent struct {
	Type  StreamEventType `json:"type"`
	Chunk string          `json:"chunk,omitempty"`
	Error string          `json:"error,omitempty"`
}

// PermissionSummary is the caller's permission set, as reported by the
// upstream permissions endpoint.
type PermissionSummary struct {
	UserID  string   `json:"user_id"`
	IsAdmin bool     `json:"is_admin"`
	Owners  []string `json:"owners,omitempty"`
}
