// Package catalog provides the capability library lookup: a read-only,
// thread-safe registry of pre-built capabilities keyed by identifier.
package catalog

import (
	"sort"
	"sync"

	"github.com/randalmurphal/graphsmith/pkg/graphsmith/workflow"
)

// Category classifies a capability's role in a graph.
type Category string

// Capability categories.
const (
	CategoryTrigger   Category = "trigger"
	CategoryAction    Category = "action"
	CategoryTransform Category = "transform"
)

// Capability describes one library entry.
type Capability struct {
	ID           string          `json:"id" yaml:"id"`
	Name         string          `json:"name" yaml:"name"`
	Category     Category        `json:"category" yaml:"category"`
	Description  string          `json:"description" yaml:"description"`
	ConfigSchema workflow.Schema `json:"configSchema" yaml:"configSchema"`
}

// Lookup is the read interface the pipeline depends on. Implementations
// must be safe for concurrent reads during a run.
type Lookup interface {
	// Get returns the capability for an identifier.
	Get(id string) (Capability, bool)

	// IsTrigger reports whether the identifier names an event-detecting
	// (trigger-only) capability.
	IsTrigger(id string) bool

	// List returns all capabilities ordered by identifier.
	List() []Capability
}

// Catalog is an in-memory Lookup. The zero value is not usable; create
// with New or Builtin.
type Catalog struct {
	mu      sync.RWMutex
	entries map[string]Capability
}

// Compile-time interface check.
var _ Lookup = (*Catalog)(nil)

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{entries: make(map[string]Capability)}
}

// Register adds or updates a capability.
func (c *Catalog) Register(cap Capability) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cap.ID] = cap
}

// RegisterMany adds multiple capabilities.
func (c *Catalog) RegisterMany(caps []Capability) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, cap := range caps {
		c.entries[cap.ID] = cap
	}
}

// Get implements Lookup.
func (c *Catalog) Get(id string) (Capability, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cap, ok := c.entries[id]
	return cap, ok
}

// Has reports whether the identifier is registered.
func (c *Catalog) Has(id string) bool {
	_, ok := c.Get(id)
	return ok
}

// IsTrigger implements Lookup.
func (c *Catalog) IsTrigger(id string) bool {
	cap, ok := c.Get(id)
	return ok && cap.Category == CategoryTrigger
}

// List implements Lookup.
func (c *Catalog) List() []Capability {
	c.mu.RLock()
	defer c.mu.RUnlock()
	caps := make([]Capability, 0, len(c.entries))
	for _, cap := range c.entries {
		caps = append(caps, cap)
	}
	sort.Slice(caps, func(i, j int) bool { return caps[i].ID < caps[j].ID })
	return caps
}

// IDs returns all registered identifiers, sorted.
func (c *Catalog) IDs() []string {
	caps := c.List()
	ids := make([]string, len(caps))
	for i, cap := range caps {
		ids[i] = cap.ID
	}
	return ids
}

// Len returns the number of registered capabilities.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
