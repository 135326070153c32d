package page

import (
	"sync"

	"github.com/themobileprof/voicepilot/pkg/models"
)

// Cache keeps the latest extracted structure for the current route.
// Snapshots never survive navigation: storing or reading under a
// different route drops the old entry.
type Cache struct {
	mu        sync.Mutex
	route     string
	structure *models.PageStructure
}

// NewCache creates a new page cache
func NewCache() *Cache {
	return &Cache{}
}

// Get returns the cached structure for route, if any.
func (c *Cache) Get(route string) (*models.PageStructure, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.structure == nil || c.route != route {
		return nil, false
	}
	return c.structure, true
}

// Put stores the structure for route, replacing any older snapshot.
func (c *Cache) Put(route string, s *models.PageStructure) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.route = route
	c.structure = s
}

// Invalidate drops the cached snapshot.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.route = ""
	c.structure = nil
}
