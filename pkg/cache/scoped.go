package cache

// ScopedKeyer wraps a Keyer with a prefix so separate contexts (per-user
// namespaces, test isolation) never share entries in one backing store.
//
// Example usage:
//
//	userKeyer := NewScopedKeyer(NewDefaultKeyer(), "user:abc123:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// ParseKey generates a prefixed key for a parse result.
func (k *ScopedKeyer) ParseKey(src string, lenient bool) string {
	return k.prefix + k.inner.ParseKey(src, lenient)
}
