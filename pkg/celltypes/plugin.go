package celltypes

import (
	"database/sql"
	"fmt"
	"sync"
)

// Result is the outcome of coercing a raw cell value against a column type.
// Invalid input is still stored, flagged with a status and message, so the
// grid never silently loses what the user typed.
type Result struct {
	Value   sql.NullString
	Status  string // valid | invalid | warning
	Message string
}

// Options carries the per-column configuration a plugin may consult.
type Options struct {
	// Choices is the enumerated option list for select columns.
	Choices []string
}

// Plugin defines the behavior of one grid column type.
type Plugin interface {
	// Name returns the unique identifier for this column type
	Name() string

	// Default returns the type-derived default stored in cells created
	// before any explicit write. A null Value means "no cell value".
	Default() sql.NullString

	// Coerce converts a raw JSON value to its canonical stored string
	Coerce(raw interface{}, opts Options) Result
}

// Registry holds column type plugins
type Registry struct {
	plugins map[string]Plugin
	mu      sync.RWMutex
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// GetRegistry returns the singleton column type registry with the built-in
// types pre-registered.
func GetRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = &Registry{plugins: make(map[string]Plugin)}
		for _, p := range builtinPlugins() {
			defaultRegistry.plugins[p.Name()] = p
		}
	})
	return defaultRegistry
}

// Register adds a plugin, failing on duplicate names
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.plugins[p.Name()]; exists {
		return fmt.Errorf("column type %q already registered", p.Name())
	}
	r.plugins[p.Name()] = p
	return nil
}

// Get returns a plugin by column type name
func (r *Registry) Get(typeName string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[typeName]
	return p, ok
}

// Names returns the registered type names
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		names = append(names, name)
	}
	return names
}
