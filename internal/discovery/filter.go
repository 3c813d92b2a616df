package discovery

import "strings"

// SkipReason explains why a billed service was not analyzed.
type SkipReason string

const (
	SkipNone        SkipReason = ""
	SkipBlacklisted SkipReason = "blacklisted"
	SkipNotSelected SkipReason = "not selected"
)

// Filter decides which billed services reach an analyzer. Matching is a
// case-insensitive substring test against the service name.
type Filter struct {
	blacklist []string
	allow     []string
}

// NewFilter builds a filter from blacklist fragments, a table of short
// aliases and the caller's allow-list. Each allow-list token is kept as a
// fragment and also expanded through aliases. An empty allow-list keeps
// every service that is not blacklisted.
func NewFilter(blacklist []string, aliases map[string][]string, tokens []string) *Filter {
	f := &Filter{blacklist: normalizeFragments(blacklist)}

	lookup := make(map[string][]string, len(aliases))
	for alias, fragments := range aliases {
		lookup[strings.ToLower(strings.TrimSpace(alias))] = fragments
	}

	seen := make(map[string]bool)
	add := func(fragment string) {
		fragment = strings.ToLower(strings.TrimSpace(fragment))
		if fragment == "" || seen[fragment] {
			return
		}
		seen[fragment] = true
		f.allow = append(f.allow, fragment)
	}
	for _, t := range tokens {
		add(t)
		for _, expanded := range lookup[strings.ToLower(strings.TrimSpace(t))] {
			add(expanded)
		}
	}
	return f
}

// Keep reports whether name should be analyzed. The blacklist is checked
// before the allow-list.
func (f *Filter) Keep(name string) (bool, SkipReason) {
	lower := strings.ToLower(name)
	if containsAny(lower, f.blacklist) {
		return false, SkipBlacklisted
	}
	if len(f.allow) > 0 && !containsAny(lower, f.allow) {
		return false, SkipNotSelected
	}
	return true, SkipNone
}

// Fragments returns the expanded allow-list.
func (f *Filter) Fragments() []string {
	out := make([]string, len(f.allow))
	copy(out, f.allow)
	return out
}

// ParseServices splits a comma-separated --services value.
func ParseServices(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func normalizeFragments(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func containsAny(s string, fragments []string) bool {
	for _, f := range fragments {
		if strings.Contains(s, f) {
			return true
		}
	}
	return false
}
