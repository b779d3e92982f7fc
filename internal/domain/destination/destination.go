// Package destination provides the Destination domain entity and the static registry of known destinations.
package destination

import (
	"strings"

	"github.com/cockroachdb/errors"
)

var (
	ErrEmptyName     = errors.New("destination name is empty")
	ErrDuplicateName = errors.New("duplicate destination name")
)

// Destination represents a backend target players can be queued for.
type Destination struct {
	Name    string // Unique name
	Address string // host:port or URL used by the prober
}

// Registry is the ordered, immutable set of destinations known at startup.
type Registry struct {
	ordered []Destination
	byName  map[string]int
}

// NewRegistry creates a registry preserving the given order.
func NewRegistry(destinations []Destination) (*Registry, error) {
	r := &Registry{
		ordered: make([]Destination, 0, len(destinations)),
		byName:  make(map[string]int, len(destinations)),
	}

	for i, d := range destinations {
		if strings.TrimSpace(d.Name) == "" {
			return nil, errors.Wrapf(ErrEmptyName, "destination index %d", i)
		}
		if _, exists := r.byName[d.Name]; exists {
			return nil, errors.Wrapf(ErrDuplicateName, "destination %q", d.Name)
		}
		r.byName[d.Name] = len(r.ordered)
		r.ordered = append(r.ordered, d)
	}

	return r, nil
}

// Get returns the destination with the given name.
func (r *Registry) Get(name string) (Destination, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Destination{}, false
	}
	return r.ordered[i], true
}

// Contains reports whether name is a known destination.
func (r *Registry) Contains(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// All returns a copy of all destinations in registry order.
func (r *Registry) All() []Destination {
	result := make([]Destination, len(r.ordered))
	copy(result, r.ordered)
	return result
}

// Names returns destination names in registry order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.ordered))
	for i, d := range r.ordered {
		names[i] = d.Name
	}
	return names
}

// Len returns the number of destinations.
func (r *Registry) Len() int {
	return len(r.ordered)
}
