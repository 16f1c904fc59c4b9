// Package gfx holds the rendering-context handle the player binds during
// replay. The context is a state holder, not a live GPU connection; mutators
// read and write it to alter what an executed event sees.
package gfx

import "fmt"

// Context is the handle for one rendering context. A nil *Context is legal
// wherever a context is passed: it means no context is currently bound.
type Context struct {
	ID    int64
	API   string // e.g. "gles2", "vulkan"
	State map[string]any
}

// NewContext creates a context with empty state.
func NewContext(id int64, api string) *Context {
	return &Context{
		ID:    id,
		API:   api,
		State: make(map[string]any),
	}
}

// Get returns the state value under key, or nil if unset.
func (c *Context) Get(key string) any {
	if c == nil {
		return nil
	}
	return c.State[key]
}

// Set writes a state value. Set on a nil context is a no-op.
func (c *Context) Set(key string, value any) {
	if c == nil {
		return
	}
	c.State[key] = value
}

// Delete removes a state value.
func (c *Context) Delete(key string) {
	if c == nil {
		return
	}
	delete(c.State, key)
}

// CloneState returns a copy of the context's state map, used for
// checkpointing. Nested values are shared; events write whole values.
func (c *Context) CloneState() map[string]any {
	if c == nil {
		return nil
	}
	clone := make(map[string]any, len(c.State))
	for k, v := range c.State {
		clone[k] = v
	}
	return clone
}

// String returns a short human-readable form of the context.
func (c *Context) String() string {
	if c == nil {
		return "Context(none)"
	}
	return fmt.Sprintf("Context{ID: %d, API: %s, keys: %d}", c.ID, c.API, len(c.State))
}
