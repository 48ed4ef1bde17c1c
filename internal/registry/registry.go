package registry

import "net/url"

// Registry holds an ordered list of handlers and selects the first one
// matching a request URL.
type Registry struct {
	handlers []*Handler
}

// New builds an empty registry.
func New() *Registry {
	return &Registry{}
}

// Register appends a handler to the registry. Handlers are tried in
// registration order, so more specific handlers should be registered first.
func (r *Registry) Register(h *Handler) {
	r.handlers = append(r.handlers, h)
}

// Select returns the first handler whose host/path set matches u, or nil if
// none does.
func (r *Registry) Select(u *url.URL) *Handler {
	for _, h := range r.handlers {
		if h.matches(u) {
			return h
		}
	}
	return nil
}

// Handlers returns a snapshot of the registered handlers, for diagnostics
// and tests.
func (r *Registry) Handlers() []*Handler {
	out := make([]*Handler, len(r.handlers))
	copy(out, r.handlers)
	return out
}
