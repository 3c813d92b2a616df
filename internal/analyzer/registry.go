package analyzer

import (
	"sort"
	"strings"
)

// Factory builds a fresh analyzer. Each call returns an instance that owns
// its own clients and accumulators.
type Factory func() Analyzer

// Registry maps billing service names to analyzer factories. Lookups are
// case-insensitive. A registry is populated once at startup and only read
// afterwards, so it carries no lock.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register binds token to factory. Registering the same token twice keeps
// the last factory.
func (r *Registry) Register(token string, factory Factory) {
	r.factories[normalizeToken(token)] = factory
}

// RegisterAll binds every alias in tokens to the same factory.
func (r *Registry) RegisterAll(tokens []string, factory Factory) {
	for _, t := range tokens {
		r.Register(t, factory)
	}
}

// Resolve returns the factory registered for token.
func (r *Registry) Resolve(token string) (Factory, bool) {
	f, ok := r.factories[normalizeToken(token)]
	return f, ok
}

// Tokens returns all registered (normalized) tokens, sorted.
func (r *Registry) Tokens() []string {
	out := make([]string, 0, len(r.factories))
	for t := range r.factories {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of registered tokens.
func (r *Registry) Len() int {
	return len(r.factories)
}

func normalizeToken(token string) string {
	return strings.ToLower(token)
}
