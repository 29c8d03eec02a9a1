package cache

// ScopedKeyer wraps a Keyer with a prefix so several profiles can share one
// backend, for example two field users syncing to the same Redis.
//
// Example usage:
//
//	anna := NewScopedKeyer(NewDefaultKeyer(""), "user:anna:")
//	ben := NewScopedKeyer(NewDefaultKeyer(""), "user:ben:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer("")
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// ProjectKey returns the prefixed project key.
func (k *ScopedKeyer) ProjectKey(name string) string { return k.prefix + k.inner.ProjectKey(name) }

// IndexKey returns the prefixed index key.
func (k *ScopedKeyer) IndexKey() string { return k.prefix + k.inner.IndexKey() }

// InitialsKey returns the prefixed initials key.
func (k *ScopedKeyer) InitialsKey() string { return k.prefix + k.inner.InitialsKey() }
