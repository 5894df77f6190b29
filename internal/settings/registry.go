package settings

import (
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Registry holds every known setting definition, keyed by setting key.
// Writes happen during feature initialization; reads dominate afterwards.
type Registry struct {
	mu     sync.RWMutex
	defs   map[string]Definition
	logger *zap.Logger
}

// NewRegistry creates an empty definition registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		defs:   make(map[string]Definition),
		logger: logger,
	}
}

// Register upserts a definition by key. Safe to call repeatedly with
// identical or revised descriptors; there is no unregister.
func (r *Registry) Register(def Definition) {
	if def.Key == "" {
		r.logger.Warn("Ignoring setting definition with empty key")
		return
	}

	r.mu.Lock()
	_, replaced := r.defs[def.Key]
	r.defs[def.Key] = def
	r.mu.Unlock()

	if replaced {
		r.logger.Debug("Replaced setting definition",
			zap.String("key", def.Key),
			zap.String("type", def.Type.String()),
		)
	} else {
		r.logger.Debug("Registered setting definition",
			zap.String("key", def.Key),
			zap.String("type", def.Type.String()),
		)
	}
}

// Lookup returns the definition for a key.
func (r *Registry) Lookup(key string) (Definition, bool) {
	r.mu.RLock()
	def, ok := r.defs[key]
	r.mu.RUnlock()
	return def, ok
}

// Len returns the number of registered definitions.
func (r *Registry) Len() int {
	r.mu.RLock()
	n := len(r.defs)
	r.mu.RUnlock()
	return n
}

// Section is a presentation grouping of visible definitions. The group name
// is the first dot-segment of the member keys.
type Section struct {
	Name        string       `json:"name"`
	Definitions []Definition `json:"definitions"`
}

// VisibleBySection returns all visible definitions sorted by key ascending,
// grouped by the first dot-segment of the key. The grouping is derived on
// every call, never stored.
func (r *Registry) VisibleBySection() []Section {
	r.mu.RLock()
	visible := make([]Definition, 0, len(r.defs))
	for _, def := range r.defs {
		if def.Visible {
			visible = append(visible, def)
		}
	}
	r.mu.RUnlock()

	sort.Slice(visible, func(i, j int) bool { return visible[i].Key < visible[j].Key })

	var sections []Section
	for _, def := range visible {
		name := def.Key
		if i := strings.IndexByte(name, '.'); i >= 0 {
			name = name[:i]
		}
		if n := len(sections); n > 0 && sections[n-1].Name == name {
			sections[n-1].Definitions = append(sections[n-1].Definitions, def)
			continue
		}
		sections = append(sections, Section{Name: name, Definitions: []Definition{def}})
	}
	return sections
}
