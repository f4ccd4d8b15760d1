package plugin

import (
	"github.com/rxtech-lab/argo-pipeline/internal/types"
	"github.com/rxtech-lab/argo-pipeline/pkg/errors"
)

// Registry holds plugin descriptors in declaration order. Declaration
// order is the tie-break for pipeline ordering, so registration order is
// part of the reproducibility contract.
type Registry struct {
	descriptors []Descriptor
	byName      map[string]int
}

// NewRegistry creates an empty descriptor registry.
func NewRegistry() *Registry {
	return &Registry{
		descriptors: nil,
		byName:      make(map[string]int),
	}
}

// Register validates and adds a descriptor. Names must be unique and the
// descriptor's API version constraint must accept the engine version.
func (r *Registry) Register(d Descriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}

	if err := d.CheckAPIVersion(APIVersion); err != nil {
		return err
	}

	if _, exists := r.byName[d.Name]; exists {
		return errors.Newf(errors.ErrCodeDuplicatePlugin, "plugin already registered: %s", d.Name)
	}

	r.byName[d.Name] = len(r.descriptors)
	r.descriptors = append(r.descriptors, d)

	return nil
}

// Get returns the descriptor registered under the given name.
func (r *Registry) Get(name string) (Descriptor, bool) {
	idx, exists := r.byName[name]
	if !exists {
		return Descriptor{}, false
	}

	return r.descriptors[idx], true
}

// List returns all descriptors in declaration order.
func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, len(r.descriptors))
	copy(out, r.descriptors)

	return out
}

// ForMode returns the descriptors active in the given mode, in declaration
// order.
func (r *Registry) ForMode(mode types.Mode) []Descriptor {
	var active []Descriptor

	for _, d := range r.descriptors {
		if d.ActiveIn(mode) {
			active = append(active, d)
		}
	}

	return active
}
