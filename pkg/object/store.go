package object

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrNotFound     = errors.New("object not found")
	ErrTypeMismatch = errors.New("object type mismatch")
)

const storeShards = 16

// Store is an in-memory content-addressed object store. Objects are kept
// as canonical payload bytes and decoded on every read, so callers can
// never mutate stored content.
//
// Digests are spread over shards by their first hex nibble. Each shard
// owns both its digest map and its per-type index under one mutex, so a
// digest is never visible without its index entry or the reverse.
type Store struct {
	alg    HashAlgorithm
	shards [storeShards]storeShard
}

type storeShard struct {
	mu      sync.RWMutex
	objects map[Hash]storedObject
	byType  map[ObjectType]map[Hash]struct{}
}

type storedObject struct {
	objType ObjectType
	data    []byte
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithHashAlgorithm selects the digest function. The default is
// DefaultHashAlgorithm.
func WithHashAlgorithm(alg HashAlgorithm) StoreOption {
	return func(s *Store) {
		s.alg = alg
	}
}

// NewStore creates an empty Store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{alg: DefaultHashAlgorithm}
	for _, opt := range opts {
		opt(s)
	}
	for i := range s.shards {
		s.shards[i].objects = make(map[Hash]storedObject)
		s.shards[i].byType = make(map[ObjectType]map[Hash]struct{}, len(Types))
	}
	return s
}

// HashAlgorithm returns the digest function used by s.
func (s *Store) HashAlgorithm() HashAlgorithm {
	return s.alg
}

// HashOf returns the digest obj would be stored under, without storing it.
func (s *Store) HashOf(obj Object) Hash {
	return s.alg.SumObject(obj.Type(), Marshal(obj))
}

func (s *Store) shard(h Hash) *storeShard {
	if len(h) == 0 {
		return &s.shards[0]
	}
	return &s.shards[nibble(h[0])%storeShards]
}

func nibble(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	default:
		return int(c)
	}
}

// Put stores obj and returns its digest. Storing equal content again is
// a no-op that returns the same digest.
func (s *Store) Put(obj Object) Hash {
	h, _ := s.put(obj.Type(), Marshal(obj))
	return h
}

func (s *Store) put(objType ObjectType, data []byte) (Hash, bool) {
	h := s.alg.SumObject(objType, data)
	sh := s.shard(h)

	sh.mu.Lock()
	defer sh.mu.Unlock()
	if _, ok := sh.objects[h]; ok {
		return h, false
	}
	sh.objects[h] = storedObject{objType: objType, data: data}
	idx := sh.byType[objType]
	if idx == nil {
		idx = make(map[Hash]struct{})
		sh.byType[objType] = idx
	}
	idx[h] = struct{}{}
	return h, true
}

// Write stores a raw payload of the given type after checking that it
// decodes as that type.
func (s *Store) Write(objType ObjectType, data []byte) (Hash, error) {
	if _, err := ObjectOf(objType, data); err != nil {
		return "", fmt.Errorf("object write: %w", err)
	}
	owned := make([]byte, len(data))
	copy(owned, data)
	h, _ := s.put(objType, owned)
	return h, nil
}

// Read returns the type and a copy of the canonical payload of h.
func (s *Store) Read(h Hash) (ObjectType, []byte, bool) {
	sh := s.shard(h)
	sh.mu.RLock()
	so, ok := sh.objects[h]
	sh.mu.RUnlock()
	if !ok {
		return "", nil, false
	}
	out := make([]byte, len(so.data))
	copy(out, so.data)
	return so.objType, out, true
}

// Get retrieves and decodes the object stored at h.
func (s *Store) Get(h Hash) (Object, bool) {
	sh := s.shard(h)
	sh.mu.RLock()
	so, ok := sh.objects[h]
	sh.mu.RUnlock()
	if !ok {
		return nil, false
	}
	obj, err := so.decode()
	if err != nil {
		return nil, false
	}
	return obj, true
}

// decode parses a stored payload. Trees are decoded leniently: Put does
// not validate entry names, and a name containing NUL must not make the
// object unreadable.
func (so storedObject) decode() (Object, error) {
	if so.objType == TypeTree {
		return UnmarshalTreeLenient(so.data), nil
	}
	return ObjectOf(so.objType, so.data)
}

// Has reports whether the store contains an object with the given hash.
func (s *Store) Has(h Hash) bool {
	sh := s.shard(h)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	_, ok := sh.objects[h]
	return ok
}

// Delete removes h and its type index entry, reporting whether anything
// was removed. Objects that still reference h are left dangling.
func (s *Store) Delete(h Hash) bool {
	sh := s.shard(h)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	so, ok := sh.objects[h]
	if !ok {
		return false
	}
	delete(sh.objects, h)
	if idx := sh.byType[so.objType]; idx != nil {
		delete(idx, h)
	}
	return true
}

// Size returns the payload length of h.
func (s *Store) Size(h Hash) (int, bool) {
	sh := s.shard(h)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	so, ok := sh.objects[h]
	if !ok {
		return 0, false
	}
	return len(so.data), true
}

// Type returns the type of h.
func (s *Store) Type(h Hash) (ObjectType, bool) {
	sh := s.shard(h)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	so, ok := sh.objects[h]
	return so.objType, ok
}

// Len returns the number of stored objects.
func (s *Store) Len() int {
	n := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		n += len(sh.objects)
		sh.mu.RUnlock()
	}
	return n
}

// Hashes returns every stored digest in ascending order.
func (s *Store) Hashes() []Hash {
	var out []Hash
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		for h := range sh.objects {
			out = append(out, h)
		}
		sh.mu.RUnlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ByType decodes every stored object of the given type. Order is
// unspecified.
func (s *Store) ByType(objType ObjectType) []Object {
	var out []Object
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		for h := range sh.byType[objType] {
			if obj, err := sh.objects[h].decode(); err == nil {
				out = append(out, obj)
			}
		}
		sh.mu.RUnlock()
	}
	return out
}

// HashesByType returns the digests indexed under objType in ascending
// order.
func (s *Store) HashesByType(objType ObjectType) []Hash {
	var out []Hash
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		for h := range sh.byType[objType] {
			out = append(out, h)
		}
		sh.mu.RUnlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ---------------------------------------------------------------------------
// Typed convenience methods
// ---------------------------------------------------------------------------

// WriteBlob stores a Blob.
func (s *Store) WriteBlob(b *Blob) Hash {
	return s.Put(b)
}

// ReadBlob reads and deserializes a Blob.
func (s *Store) ReadBlob(h Hash) (*Blob, error) {
	data, err := s.readTyped(h, TypeBlob)
	if err != nil {
		return nil, err
	}
	return UnmarshalBlob(data)
}

// WriteTree stores a Tree.
func (s *Store) WriteTree(t *Tree) Hash {
	return s.Put(t)
}

// ReadTree reads and deserializes a Tree.
func (s *Store) ReadTree(h Hash) (*Tree, error) {
	data, err := s.readTyped(h, TypeTree)
	if err != nil {
		return nil, err
	}
	return UnmarshalTree(data)
}

// WriteCommit stores a Commit.
func (s *Store) WriteCommit(c *Commit) Hash {
	return s.Put(c)
}

// ReadCommit reads and deserializes a Commit.
func (s *Store) ReadCommit(h Hash) (*Commit, error) {
	data, err := s.readTyped(h, TypeCommit)
	if err != nil {
		return nil, err
	}
	return UnmarshalCommit(data)
}

func (s *Store) readTyped(h Hash, want ObjectType) ([]byte, error) {
	objType, data, ok := s.Read(h)
	if !ok {
		return nil, fmt.Errorf("object read %s: %w", h, ErrNotFound)
	}
	if objType != want {
		return nil, fmt.Errorf("object %s: %w: got %q, want %q", h, ErrTypeMismatch, objType, want)
	}
	return data, nil
}
