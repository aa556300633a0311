package access

import (
	"context"
	"log"
	"net/url"
	"sync"

	"github.com/ukidney/docchat/internal/config"
	"github.com/ukidney/docchat/internal/upstream"
)

// State is the outcome of a permission check for one document slug.
type State string

const (
	// StateUnchecked is the initial state before any check has run.
	StateUnchecked State = "unchecked"
	// StateChecking marks an in-flight check.
	StateChecking State = "checking"
	// StateGranted allows the document to render.
	StateGranted State = "granted"
	// StatePasscodeRequired prompts for a passcode and re-checks.
	StatePasscodeRequired State = "passcode_required"
	// StateAuthRequired redirects to login with a stored return URL.
	StateAuthRequired State = "auth_required"
	// StatePermissionDenied renders the denied view.
	StatePermissionDenied State = "permission_denied"
	// StateNotFound renders the not-found view.
	StateNotFound State = "not_found"
	// StateFailed marks a transport failure under fail-closed policy.
	StateFailed State = "failed"
)

// Result is the resolved access state for one slug. Only StateGranted allows
// rendering; every other state maps to a distinct user-facing flow.
type Result struct {
	Slug  string
	State State

	// Incorrect is set when a supplied passcode was rejected, so the prompt
	// can distinguish "enter passcode" from "wrong passcode, try again".
	Incorrect bool

	// Document carries the document info the permission endpoint returned
	// alongside a grant, when it did.
	Document *upstream.DocumentConfig

	// Err holds the transport error for StateFailed.
	Err error
}

// Granted reports whether the result allows rendering.
func (r Result) Granted() bool { return r.State == StateGranted }

// Checker is the permission-check surface of the upstream client.
type Checker interface {
	CheckAccess(ctx context.Context, slug, passcode string) (*upstream.CheckAccessResult, error)
}

// Guard runs permission checks and applies the configured transport-failure
// policy. The default fail-open policy deliberately trades security for
// availability on public documents; fail-closed is available per deployment.
type Guard struct {
	checker  Checker
	failMode config.AccessFailMode
}

// NewGuard creates a guard using the given checker and fail mode.
func NewGuard(checker Checker, failMode config.AccessFailMode) *Guard {
	if failMode == "" {
		failMode = config.FailOpen
	}
	return &Guard{checker: checker, failMode: failMode}
}

// Check resolves the access state for one slug, forwarding the passcode when
// one was supplied.
func (g *Guard) Check(ctx context.Context, slug, passcode string) Result {
	res, err := g.checker.CheckAccess(ctx, slug, passcode)
	if err != nil {
		if g.failMode == config.FailOpen {
			log.Printf("access: check for %q failed, failing open: %v", slug, err)
			return Result{Slug: slug, State: StateGranted}
		}
		return Result{Slug: slug, State: StateFailed, Err: err}
	}

	if res.HasAccess {
		return Result{Slug: slug, State: StateGranted, Document: res.DocumentInfo}
	}

	switch res.ErrorType {
	case upstream.ErrTypePasscodeRequired:
		return Result{Slug: slug, State: StatePasscodeRequired}
	case upstream.ErrTypePasscodeIncorrect:
		return Result{Slug: slug, State: StatePasscodeRequired, Incorrect: true}
	case upstream.ErrTypeAuthRequired:
		return Result{Slug: slug, State: StateAuthRequired}
	case upstream.ErrTypeNotFound:
		return Result{Slug: slug, State: StateNotFound}
	case upstream.ErrTypePermissionDenied:
		return Result{Slug: slug, State: StatePermissionDenied}
	default:
		// Denied without a recognized reason is still denied.
		log.Printf("access: unrecognized denial %q for %q", res.ErrorType, slug)
		return Result{Slug: slug, State: StatePermissionDenied}
	}
}

// CheckAll checks every slug concurrently and returns results in request
// order. The combined view renders only when every slug is granted; the
// second return value reports that.
func (g *Guard) CheckAll(ctx context.Context, slugs []string, passcode string) ([]Result, bool) {
	results := make([]Result, len(slugs))

	var wg sync.WaitGroup
	for i, slug := range slugs {
		wg.Add(1)
		go func(i int, slug string) {
			defer wg.Done()
			results[i] = g.Check(ctx, slug, passcode)
		}(i, slug)
	}
	wg.Wait()

	all := len(slugs) > 0
	for _, r := range results {
		if !r.Granted() {
			all = false
			break
		}
	}
	return results, all
}

// FirstBlocker returns the first non-granted result, if any. When several
// slugs fail for different reasons, the first one decides which flow the
// user sees.
func FirstBlocker(results []Result) (Result, bool) {
	for _, r := range results {
		if !r.Granted() {
			return r, true
		}
	}
	return Result{}, false
}

// PasscodeRedirect appends the validated passcode to the original request
// URL so subsequent loads short-circuit the prompt.
func PasscodeRedirect(rawURL, passcode string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("passcode", passcode)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
