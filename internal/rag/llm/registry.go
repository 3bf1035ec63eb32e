package llm

import (
	"sort"
	"strings"
)

// Registry maps request keys to providers. Unknown or empty keys resolve to the fallback.
type Registry struct {
	providers map[string]Provider
	fallback  string
}

func NewRegistry(fallback string, providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers)), fallback: strings.ToLower(fallback)}
	for _, p := range providers {
		if p != nil {
			r.providers[strings.ToLower(p.Name())] = p
		}
	}
	return r
}

// Resolve returns nil only when neither the key nor the fallback is registered.
func (r *Registry) Resolve(name string) Provider {
	if p, ok := r.providers[strings.ToLower(strings.TrimSpace(name))]; ok {
		return p
	}
	return r.providers[r.fallback]
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
