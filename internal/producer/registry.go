package producer

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Classifier resolves the price class a producer will actually be billed at.
// declared is the class written on the catalog entry ("" when absent) and must
// agree with the parameters; fallback is the catalog or binding default and
// only fills gaps. The returned parameters are what the producer will receive.
type Classifier func(params Parameters, declared, fallback string) (string, Parameters, error)

// Binding is what a Kind resolves to: the producer plus the artifact extension
// and price class used when a catalog entry does not say otherwise.
type Binding struct {
	Kind         Kind
	Producer     Producer
	Extension    string
	DefaultClass string
	Classify     Classifier // nil: the class is taken as declared
}

// Registry maps kinds to bindings.
type Registry struct {
	mu       sync.RWMutex
	bindings map[Kind]Binding
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{bindings: make(map[Kind]Binding)}
}

// Register adds or replaces the binding for b.Kind.
func (r *Registry) Register(b Binding) error {
	b.Kind = Kind(strings.ToLower(strings.TrimSpace(string(b.Kind))))
	if b.Kind == "" {
		return errors.New("producer kind is required")
	}
	if b.Producer == nil {
		return fmt.Errorf("producer for kind %q is nil", b.Kind)
	}
	if ext := strings.TrimSpace(b.Extension); ext != "" && !strings.HasPrefix(ext, ".") {
		b.Extension = "." + ext
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings[b.Kind] = b
	return nil
}

// Lookup returns the binding for kind.
func (r *Registry) Lookup(kind Kind) (Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bindings[Kind(strings.ToLower(strings.TrimSpace(string(kind))))]
	return b, ok
}

// Kinds lists registered kinds in sorted order.
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]Kind, 0, len(r.bindings))
	for kind := range r.bindings {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Validate runs Validator checks for the given kinds. Unknown kinds are
// reported as configuration errors.
func (r *Registry) Validate(kinds ...Kind) error {
	for _, kind := range kinds {
		b, ok := r.Lookup(kind)
		if !ok {
			return Wrap(ErrConfiguration, string(kind), "validate", "no producer registered", nil)
		}
		if v, ok := b.Producer.(Validator); ok {
			if err := v.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}
