package cmd

import (
	"sort"
	"strings"
	"sync"
)

// Aliased is implemented by commands reachable under extra names.
type Aliased interface {
	Aliases() []string
}

// Registry stores commands by name. It does not perform dispatch; each adapter
// looks up commands and invokes them with its own context. Lookups are
// case-insensitive.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Command
	aliases  map[string]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]Command),
		aliases:  make(map[string]string),
	}
}

// Register adds a command and its aliases. A later command with the same
// name replaces the earlier one.
func (r *Registry) Register(c Command) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := strings.ToLower(c.Name())
	r.commands[name] = c
	if a, ok := As[Aliased](c); ok {
		for _, alias := range a.Aliases() {
			r.aliases[strings.ToLower(alias)] = name
		}
	}
}

// Get returns the command registered under name or one of its aliases, or nil.
func (r *Registry) Get(name string) Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name = strings.ToLower(name)
	if c, ok := r.commands[name]; ok {
		return c
	}
	if target, ok := r.aliases[name]; ok {
		return r.commands[target]
	}
	return nil
}

// GetAll returns all registered commands, sorted by name.
func (r *Registry) GetAll() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]Command, 0, len(r.commands))
	for _, c := range r.commands {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name() < list[j].Name()
	})
	return list
}
