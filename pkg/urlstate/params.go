// Package urlstate maps typed application values onto URL query-string
// keys. Filterable list pages read and write their state through these
// bindings, so the URL stays the single source of truth and survives
// reloads and bookmarks.
//
// Reads are maximally permissive: URLs are user-editable, so a malformed
// raw value never errors, it degrades to the type's zero value. Writes
// keep URLs canonical by dropping a key whose serialized value is empty or
// equals the binding's declared default.
package urlstate

// Navigator is the navigation/history service the bindings sit on. Query
// parameter maps are flat string-to-string; multivalued parameters are
// comma-encoded by their codecs.
type Navigator interface {
	CurrentPath() string
	QueryParams() map[string]string
	PushPath(path string, params map[string]string) error
}

// Codec converts between a domain value and its query-string encoding.
// Deserialize must accept any raw string, including the empty string for an
// absent key, and never fail.
type Codec[T any] struct {
	Serialize   func(T) string
	Deserialize func(string) T
}

// Param binds one query-string key to a typed value.
type Param[T any] struct {
	nav   Navigator
	key   string
	def   string // serialized default; writes equal to it drop the key
	codec Codec[T]
}

// NewParam creates a binding for key with the given codec. def is the
// serialized default value; pass "" when the key has no default beyond
// absence.
func NewParam[T any](nav Navigator, key, def string, codec Codec[T]) *Param[T] {
	return &Param[T]{nav: nav, key: key, def: def, codec: codec}
}

// Key returns the bound query-string key.
func (p *Param[T]) Key() string { return p.key }

// Get reads the current value. An absent key deserializes the declared
// default (or the codec's zero value when there is none).
func (p *Param[T]) Get() T {
	raw, ok := p.nav.QueryParams()[p.key]
	if !ok {
		raw = p.def
	}
	return p.codec.Deserialize(raw)
}

// Set serializes the value into the query string and pushes a navigation.
// Empty or default-equal values remove the key; when that leaves the query
// map empty, the bare path is pushed so no "?key=" artifact survives.
func (p *Param[T]) Set(value T) error {
	batch := NewBatch(p.nav)
	setInBatch(batch, p, value)
	return batch.Apply()
}

// setInBatch stages p=value in the batch, applying the default-collapse
// rule.
func setInBatch[T any](b *Batch, p *Param[T], value T) {
	serialized := p.codec.Serialize(value)
	if serialized == "" || serialized == p.def {
		b.remove(p.key)
		return
	}
	b.set(p.key, serialized)
}

// Batch coalesces several parameter updates into a single navigation push,
// so two fields changing together cannot race and overwrite each other's
// key.
type Batch struct {
	nav     Navigator
	updates map[string]*string // nil value means remove
}

// NewBatch starts an update batch against the navigator.
func NewBatch(nav Navigator) *Batch {
	return &Batch{nav: nav, updates: make(map[string]*string)}
}

func (b *Batch) set(key, serialized string) {
	b.updates[key] = &serialized
}

func (b *Batch) remove(key string) {
	b.updates[key] = nil
}

// SetParam stages a typed parameter update in the batch. It is a free
// function because Go methods cannot introduce type parameters.
func SetParam[T any](b *Batch, p *Param[T], value T) *Batch {
	setInBatch(b, p, value)
	return b
}

// Apply merges the staged updates over the current query map and performs
// one navigation push.
func (b *Batch) Apply() error {
	current := b.nav.QueryParams()
	merged := make(map[string]string, len(current)+len(b.updates))
	for k, v := range current {
		merged[k] = v
	}
	for k, v := range b.updates {
		if v == nil {
			delete(merged, k)
			continue
		}
		merged[k] = *v
	}

	path := b.nav.CurrentPath()
	if len(merged) == 0 {
		return b.nav.PushPath(path, nil)
	}
	return b.nav.PushPath(path, merged)
}
