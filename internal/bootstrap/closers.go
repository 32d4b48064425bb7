package bootstrap

import (
	"fmt"
	"sync"

	"go.uber.org/multierr"
)

// Closers collects shutdown hooks for backing connections.
type Closers struct {
	mu    sync.Mutex
	hooks []hook
}

type hook struct {
	name string
	fn   func() error
}

// NewClosers returns an empty registry.
func NewClosers() *Closers {
	return &Closers{}
}

// Add registers fn to run on Close.
func (c *Closers) Add(name string, fn func() error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, hook{name: name, fn: fn})
}

// Close runs every hook once, newest first, and combines their errors.
func (c *Closers) Close() error {
	c.mu.Lock()
	hooks := c.hooks
	c.hooks = nil
	c.mu.Unlock()

	var err error
	for i := len(hooks) - 1; i >= 0; i-- {
		if herr := hooks[i].fn(); herr != nil {
			err = multierr.Append(err, fmt.Errorf("close %s: %w", hooks[i].name, herr))
		}
	}
	return err
}
