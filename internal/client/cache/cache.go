// Package cache holds the client's copy of the signed-in user's tasks.
//
// The cache is only ever written with task values the server returned, so
// after each round trip it matches the server. Responses may arrive in any
// order; the last one applied for a given id wins.
package cache

import (
	"sync"

	"github.com/sakif/notifydo/internal/model"
)

// TaskCache is an ordered, id-indexed list of tasks. Safe for concurrent use.
type TaskCache struct {
	mu     sync.RWMutex
	loaded bool
	order  []string
	byID   map[string]model.Task
}

// New returns an empty, unloaded cache.
func New() *TaskCache {
	return &TaskCache{byID: make(map[string]model.Task)}
}

// Replace swaps in a full list from the server and marks the cache loaded.
func (c *TaskCache) Replace(tasks []model.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order = make([]string, 0, len(tasks))
	c.byID = make(map[string]model.Task, len(tasks))
	for _, t := range tasks {
		if _, dup := c.byID[t.ID]; !dup {
			c.order = append(c.order, t.ID)
		}
		c.byID[t.ID] = t
	}
	c.loaded = true
}

// Put inserts a new task at the end or overwrites an existing one in place.
func (c *TaskCache) Put(t model.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.byID[t.ID]; !ok {
		c.order = append(c.order, t.ID)
	}
	c.byID[t.ID] = t
}

// Remove drops the task with id, if present.
func (c *TaskCache) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.byID[id]; !ok {
		return
	}
	delete(c.byID, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Get returns the cached task with id.
func (c *TaskCache) Get(id string) (model.Task, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.byID[id]
	return t, ok
}

// All returns a copy of the cached tasks in list order.
func (c *TaskCache) All() []model.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]model.Task, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// Len is the number of cached tasks.
func (c *TaskCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// Loaded reports whether Replace has run since the last Clear.
func (c *TaskCache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Clear empties the cache and marks it unloaded.
func (c *TaskCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order = nil
	c.byID = make(map[string]model.Task)
	c.loaded = false
}
