package cache

// DefaultNamespace prefixes every key written by the gateway.
const DefaultNamespace = "pepedot2_rn"

// Keyer builds gateway keys.
type Keyer interface {
	// ProjectKey is the key of one project's snapshot.
	ProjectKey(name string) string

	// IndexKey is the key of the list of known project names.
	IndexKey() string

	// InitialsKey is the key of the user's default author initials.
	InitialsKey() string
}

// DefaultKeyer produces keys of the form "{namespace}_{project}".
type DefaultKeyer struct {
	Namespace string
}

// NewDefaultKeyer returns a keyer for namespace, or DefaultNamespace if empty.
func NewDefaultKeyer(namespace string) Keyer {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &DefaultKeyer{Namespace: namespace}
}

// ProjectKey returns "{namespace}_{name}".
func (k *DefaultKeyer) ProjectKey(name string) string { return k.Namespace + "_" + name }

// IndexKey returns "{namespace}.index".
func (k *DefaultKeyer) IndexKey() string { return k.Namespace + ".index" }

// InitialsKey returns "{namespace}.initials".
func (k *DefaultKeyer) InitialsKey() string { return k.Namespace + ".initials" }
