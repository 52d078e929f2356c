package cmd

import "context"

// RunFunc is the body of a command.
type RunFunc func(ctx context.Context, inv *Invocation) error

// Unwrapper is implemented by commands that decorate another command.
type Unwrapper interface {
	Unwrap() Command
}

type wrapped struct {
	inner Command
	run   RunFunc
}

func (w *wrapped) Name() string        { return w.inner.Name() }
func (w *wrapped) Description() string { return w.inner.Description() }
func (w *wrapped) Unwrap() Command     { return w.inner }

func (w *wrapped) Run(ctx context.Context, inv *Invocation) error {
	if w.run == nil {
		return w.inner.Run(ctx, inv)
	}
	return w.run(ctx, inv)
}

// Wrap returns a command that runs run in place of c.Run. Name and
// Description come from c, and c stays reachable through Unwrap.
func Wrap(c Command, run RunFunc) Command {
	return &wrapped{inner: c, run: run}
}

// Root strips every wrapper from c.
func Root(c Command) Command {
	for {
		u, ok := c.(Unwrapper)
		if !ok {
			return c
		}
		c = u.Unwrap()
	}
}

// As walks the wrap chain from the outside in and returns the first command
// implementing T. Middleware may add interfaces, so wrappers are checked too.
func As[T any](c Command) (T, bool) {
	for c != nil {
		if t, ok := c.(T); ok {
			return t, true
		}
		u, ok := c.(Unwrapper)
		if !ok {
			break
		}
		c = u.Unwrap()
	}
	var zero T
	return zero, false
}
