// Package registry implements the integration registry: the ordered table
// of API handlers keyed by host/path, each owning its own credentials,
// payload validator, and per-handler rate limit.
package registry

import (
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/oraclenet/orchestrator/internal/domain"
)

// Validator checks whether a request body is acceptable for a given URL
// path. It is handler-specific; see the baseline handlers in bootstrap.go
// and the chat-completions validator in validators.go.
type Validator func(path string, body string) bool

// AcceptAll is the trivial validator used by handlers with no payload schema.
func AcceptAll(string, string) bool { return true }

// Handler is one integration: a host/path-scoped adapter owning credentials,
// validation, and rate limiting for one external API family.
type Handler struct {
	Name          string
	Hosts         map[string]struct{}
	Paths         []string
	Validate      Validator
	MinInterval   time.Duration
	ProofMode     bool

	// AuthType and OAuth1Creds carry per-request signing configuration for
	// handlers driven by a SupportedURL row whose auth flow isn't a static
	// or cached bearer token (e.g. OAuth1, signed per outbound call).
	AuthType   domain.AuthType
	OAuth1Creds OAuth1Credentials

	mu             sync.Mutex
	accessToken    string
	lastExecutedAt time.Time
}

// NewHandler builds a handler from its static configuration.
func NewHandler(name string, hosts []string, paths []string, validate Validator, minInterval time.Duration) *Handler {
	if validate == nil {
		validate = AcceptAll
	}
	hostSet := make(map[string]struct{}, len(hosts))
	for _, h := range hosts {
		hostSet[strings.ToLower(h)] = struct{}{}
	}
	return &Handler{
		Name:        name,
		Hosts:       hostSet,
		Paths:       append([]string(nil), paths...),
		Validate:    validate,
		MinInterval: minInterval,
	}
}

// matches reports whether the URL's host is in the handler's host set and
// some configured path is a prefix of the URL's path.
func (h *Handler) matches(u *url.URL) bool {
	if _, ok := h.Hosts[strings.ToLower(u.Hostname())]; !ok {
		return false
	}
	for _, p := range h.Paths {
		if strings.HasPrefix(u.Path, p) {
			return true
		}
	}
	return false
}

// Token returns the handler's current bearer token, if any.
func (h *Handler) Token() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.accessToken
}

// SetToken updates the handler's bearer token under lock, for startup
// credential exchange and later refresh.
func (h *Handler) SetToken(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.accessToken = token
}

// Reserve ensures at most one outbound call per handler completes per
// MinInterval window, serialised across concurrent callers. Under the
// handler's lock it computes the wait and advances lastExecutedAt to the
// caller's reserved start time (now plus that wait), so the read-update pair
// is atomic against concurrent reservations on the same handler; it then
// releases the lock and sleeps for the wait before returning.
func (h *Handler) Reserve() {
	h.mu.Lock()
	now := time.Now()
	wait := time.Duration(0)
	if !h.lastExecutedAt.IsZero() {
		elapsed := now.Sub(h.lastExecutedAt)
		if elapsed < h.MinInterval {
			wait = h.MinInterval - elapsed
		}
	}
	h.lastExecutedAt = now.Add(wait)
	h.mu.Unlock()

	if wait > 0 {
		time.Sleep(wait)
	}
}
