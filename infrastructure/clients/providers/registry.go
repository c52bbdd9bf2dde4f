package providers

import (
	"errors"
	"fmt"
	"strings"

	"ratings-aggregator/domain/repository"
)

var ErrDuplicateProvider = errors.New("duplicate provider")

// Registry is the ordered, read-only provider list. Registration order is
// merge priority: earlier providers win duplicate sources.
type Registry struct {
	ordered []repository.IRatingProvider
}

func NewRegistry(providers ...repository.IRatingProvider) (*Registry, error) {
	seen := make(map[string]struct{}, len(providers))
	ordered := make([]repository.IRatingProvider, 0, len(providers))
	for _, p := range providers {
		if p == nil {
			return nil, errors.New("provider must not be nil")
		}
		name := strings.ToLower(strings.TrimSpace(p.Name()))
		if name == "" {
			return nil, errors.New("provider name must not be empty")
		}
		if _, ok := seen[name]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateProvider, p.Name())
		}
		seen[name] = struct{}{}
		ordered = append(ordered, p)
	}
	return &Registry{ordered: ordered}, nil
}

// Providers returns a copy in priority order.
func (r *Registry) Providers() []repository.IRatingProvider {
	if r == nil {
		return nil
	}
	out := make([]repository.IRatingProvider, len(r.ordered))
	copy(out, r.ordered)
	return out
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.ordered))
	for _, p := range r.ordered {
		names = append(names, p.Name())
	}
	return names
}
