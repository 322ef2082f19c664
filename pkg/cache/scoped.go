package cache

// ScopedKeyer prefixes every key of an inner Keyer, so runs that share a
// Redis instance can keep their answers apart:
//
//	keyer := cache.NewScopedKeyer(nil, "exp:hint-v2:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or the default keyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = DefaultKeyer{}
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// AnswerKey implements Keyer.
func (k *ScopedKeyer) AnswerKey(prompt string, opts AnswerKeyOpts) string {
	return k.prefix + k.inner.AnswerKey(prompt, opts)
}
