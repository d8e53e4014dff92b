package cache

// ScopedKeyer wraps a Keyer with a prefix so that several deployments can
// share one Redis or MongoDB backend without seeing each other's entries.
//
//	keyer := cache.NewScopedKeyer(nil, "lab-a:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer means
// [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// PopulationKey implements [Keyer].
func (k *ScopedKeyer) PopulationKey(scope, command string) string {
	return k.prefix + k.inner.PopulationKey(scope, command)
}
