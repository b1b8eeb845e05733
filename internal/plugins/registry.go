package plugins

import (
	"context"
	"fmt"
	"sort"
)

// Source produces the HTML document for one screen from a plugin's
// stored configuration.
type Source interface {
	GenerateHTML(ctx context.Context, config map[string]any) (string, error)
}

// ConfigError marks a content source that cannot run because required
// configuration is absent or malformed. Not retryable without an
// operator fix.
type ConfigError struct {
	Key string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("plugins: missing or invalid config key %q", e.Key)
}

// Registry is the closed set of content sources, keyed by the stable
// identifier stored on plugin rows. Sources are registered once at
// startup; plugin rows are validated against the registry at
// configuration time instead of resolving identifiers at call time.
type Registry struct {
	sources map[string]Source
}

func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]Source)}
}

func (r *Registry) Register(id string, s Source) {
	r.sources[id] = s
}

func (r *Registry) Get(id string) (Source, bool) {
	s, ok := r.sources[id]
	return s, ok
}

// IDs lists registered source identifiers, sorted.
func (r *Registry) IDs() []string {
	out := make([]string, 0, len(r.sources))
	for id := range r.sources {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Validate checks that every stored source identifier is registered.
func (r *Registry) Validate(ids []string) error {
	for _, id := range ids {
		if _, ok := r.sources[id]; !ok {
			return fmt.Errorf("plugins: unknown content source %q (registered: %v)", id, r.IDs())
		}
	}
	return nil
}

// Default returns a registry with the shipped sources.
func Default() *Registry {
	r := NewRegistry()
	r.Register("static_html", StaticHTML{})
	r.Register("metro_departures", NewMetroDepartures())
	return r
}

func requireString(config map[string]any, key string) (string, error) {
	v, ok := config[key].(string)
	if !ok || v == "" {
		return "", &ConfigError{Key: key}
	}
	return v, nil
}
