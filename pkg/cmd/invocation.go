// Package cmd provides a transport-agnostic command core: a command is something
// with a name, description, and Run(ctx, invocation). How it is registered and
// dispatched (Discord prefix messages, CLI, tests) is defined by adapters.
package cmd

import "context"

// Invocation carries the arguments after the command name and an opaque
// payload. Adapters set Data to their context (e.g. a Discord message context).
type Invocation struct {
	Args []string
	Data any
}

// Command is the universal contract: identity plus execution. Permissions,
// usage text and transport-specific registration stay in adapters.
type Command interface {
	Name() string
	Description() string
	Run(ctx context.Context, inv *Invocation) error
}
