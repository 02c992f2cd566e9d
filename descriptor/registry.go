package descriptor

import (
	"fmt"
	"sync"

	"github.com/viant/x"

	"github.com/viant/kom/object"
)

// Registry holds interface descriptors addressable by id or name, plus an
// implementation-type registry so callers can recover the Go type backing an
// interface id.
type Registry struct {
	x.Registry
	mu     sync.RWMutex
	byIID  map[object.IID]*Interface
	byName map[string]*Interface
	types  map[object.IID]*x.Type
}

// NewRegistry creates an empty descriptor registry.
func NewRegistry(options ...x.RegistryOption) *Registry {
	return &Registry{
		Registry: *x.NewRegistry(options...),
		byIID:    make(map[object.IID]*Interface),
		byName:   make(map[string]*Interface),
		types:    make(map[object.IID]*x.Type),
	}
}

// Register adds a descriptor to the registry. Re-registering an id or a name
// already bound to a different descriptor is an error.
func (r *Registry) Register(descriptor *Interface) error {
	if descriptor == nil {
		return fmt.Errorf("descriptor was nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.byIID[descriptor.IID]; ok && prev.Name != descriptor.Name {
		return fmt.Errorf("interface id %v already registered as %v", descriptor.IID, prev.Name)
	}
	if prev, ok := r.byName[descriptor.Name]; ok && prev.IID != descriptor.IID {
		return fmt.Errorf("interface %v already registered with id %v", descriptor.Name, prev.IID)
	}
	r.byIID[descriptor.IID] = descriptor
	r.byName[descriptor.Name] = descriptor
	return nil
}

// RegisterSource parses a textual descriptor and registers it.
func (r *Registry) RegisterSource(source string) (*Interface, error) {
	descriptor, err := Parse([]byte(source))
	if err != nil {
		return nil, err
	}
	if err := r.Register(descriptor); err != nil {
		return nil, err
	}
	return descriptor, nil
}

// LookupIID returns the descriptor registered under iid, or nil.
func (r *Registry) LookupIID(iid object.IID) *Interface {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byIID[iid]
}

// LookupName returns the descriptor registered under name, or nil.
func (r *Registry) LookupName(name string) *Interface {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byName[name]
}

// Chain returns the ancestry of name, leaf first, ending at the root
// interface. A dangling parent reference is an error.
func (r *Registry) Chain(name string) ([]*Interface, error) {
	var chain []*Interface
	for name != "" {
		descriptor := r.LookupName(name)
		if descriptor == nil {
			return nil, fmt.Errorf("unknown interface %v", name)
		}
		chain = append(chain, descriptor)
		name = descriptor.Parent
	}
	return chain, nil
}

// RegisterType binds an implementation type to an interface id and adds it to
// the underlying type registry.
func (r *Registry) RegisterType(iid object.IID, dataType *x.Type) {
	r.mu.Lock()
	r.types[iid] = dataType
	r.mu.Unlock()
	r.Registry.Register(dataType)
}

// LookupType returns the implementation type bound to iid, or nil.
func (r *Registry) LookupType(iid object.IID) *x.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.types[iid]
}
