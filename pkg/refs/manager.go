package refs

import (
	"sort"
	"strings"
	"sync"

	"github.com/odvcencio/objgraph/pkg/object"
	"go.uber.org/zap"
)

// Ref is a named pointer to a digest. A ref with a zero Target is unborn.
type Ref struct {
	Name   string
	Target object.Hash
}

// Unborn reports whether the ref does not point at anything yet.
func (r Ref) Unborn() bool { return r.Target.IsZero() }

// IsHead reports whether r is HEAD.
func (r Ref) IsHead() bool { return r.Name == HeadName }

// IsBranch reports whether r lives under refs/heads/.
func (r Ref) IsBranch() bool { return strings.HasPrefix(r.Name, BranchPrefix) }

// IsTag reports whether r lives under refs/tags/.
func (r Ref) IsTag() bool { return strings.HasPrefix(r.Name, TagPrefix) }

// ShortName returns the name without its branch or tag prefix.
func (r Ref) ShortName() string { return ShortName(r.Name) }

// Manager owns branches, tags and HEAD. It holds digests only, never
// objects, so objects may be removed while refs still point at them.
type Manager struct {
	logger   *zap.Logger
	recorder Recorder

	mu   sync.RWMutex
	refs map[string]object.Hash
	head object.Hash
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithRecorder sends every target change to rec.
func WithRecorder(rec Recorder) ManagerOption {
	return func(m *Manager) {
		m.recorder = rec
	}
}

// WithLogger sets the logger used for rejected mutations.
func WithLogger(logger *zap.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Manager with an unborn HEAD and no branches or tags.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		logger: zap.NewNop(),
		refs:   make(map[string]object.Hash),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateBranch points refs/heads/<name> at h, overwriting any existing
// target. It reports false if name or h is malformed.
func (m *Manager) CreateBranch(name string, h object.Hash) bool {
	return m.set(BranchPrefix, name, h)
}

// DeleteBranch removes refs/heads/<name>, reporting whether it existed.
func (m *Manager) DeleteBranch(name string) bool {
	return m.remove(BranchPrefix + name)
}

// Branch returns the target of refs/heads/<name>.
func (m *Manager) Branch(name string) (object.Hash, bool) {
	return m.lookup(BranchPrefix + name)
}

// CreateTag points refs/tags/<name> at h, overwriting any existing
// target. It reports false if name or h is malformed.
func (m *Manager) CreateTag(name string, h object.Hash) bool {
	return m.set(TagPrefix, name, h)
}

// DeleteTag removes refs/tags/<name>, reporting whether it existed.
func (m *Manager) DeleteTag(name string) bool {
	return m.remove(TagPrefix + name)
}

// Tag returns the target of refs/tags/<name>.
func (m *Manager) Tag(name string) (object.Hash, bool) {
	return m.lookup(TagPrefix + name)
}

// UpdateHead points HEAD at h. It reports false if h is malformed.
func (m *Manager) UpdateHead(h object.Hash) bool {
	if !object.IsValidHash(string(h)) {
		m.logger.Debug("rejected HEAD update", zap.String("target", string(h)))
		return false
	}
	m.mu.Lock()
	old := m.head
	if old == h {
		m.mu.Unlock()
		return true
	}
	m.head = h
	c, ok := m.record(HeadName, old, h)
	m.mu.Unlock()

	m.notify(c, ok)
	return true
}

// Head returns HEAD. It is unborn until the first UpdateHead.
func (m *Manager) Head() Ref {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Ref{Name: HeadName, Target: m.head}
}

// Resolve maps a query to a digest. The order is: "HEAD"; an exact full
// name when the query starts with "refs/"; a branch short name; a tag
// short name. A branch wins over a tag with the same short name. An
// unborn HEAD does not resolve.
func (m *Manager) Resolve(query string) (object.Hash, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if query == HeadName {
		if m.head.IsZero() {
			return "", false
		}
		return m.head, true
	}
	if strings.HasPrefix(query, RefPrefix) {
		h, ok := m.refs[query]
		return h, ok
	}
	if h, ok := m.refs[BranchPrefix+query]; ok {
		return h, true
	}
	if h, ok := m.refs[TagPrefix+query]; ok {
		return h, true
	}
	return "", false
}

// ListBranches returns every branch ordered by name.
func (m *Manager) ListBranches() []Ref {
	return m.list(BranchPrefix)
}

// ListTags returns every tag ordered by name.
func (m *Manager) ListTags() []Ref {
	return m.list(TagPrefix)
}

// All returns HEAD followed by every branch and tag ordered by name.
func (m *Manager) All() []Ref {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Ref, 0, len(m.refs)+1)
	out = append(out, Ref{Name: HeadName, Target: m.head})
	return append(out, m.sortedLocked("")...)
}

func (m *Manager) set(prefix, name string, h object.Hash) bool {
	if !ValidName(name) || !object.IsValidHash(string(h)) {
		m.logger.Debug(
			"rejected ref update",
			zap.String("ref", prefix+name),
			zap.String("target", string(h)),
		)
		return false
	}
	full := prefix + name

	m.mu.Lock()
	old, existed := m.refs[full]
	if existed && old == h {
		m.mu.Unlock()
		return true
	}
	m.refs[full] = h
	c, ok := m.record(full, old, h)
	m.mu.Unlock()

	m.notify(c, ok)
	return true
}

func (m *Manager) remove(full string) bool {
	m.mu.Lock()
	old, ok := m.refs[full]
	if !ok {
		m.mu.Unlock()
		return false
	}
	delete(m.refs, full)
	c, recorded := m.record(full, old, object.ZeroHash)
	m.mu.Unlock()

	m.notify(c, recorded)
	return true
}

func (m *Manager) lookup(full string) (object.Hash, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.refs[full]
	return h, ok
}

func (m *Manager) list(prefix string) []Ref {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sortedLocked(prefix)
}

func (m *Manager) sortedLocked(prefix string) []Ref {
	out := make([]Ref, 0, len(m.refs))
	for name, h := range m.refs {
		if strings.HasPrefix(name, prefix) {
			out = append(out, Ref{Name: name, Target: h})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// record runs with m.mu held so each name's history follows the order
// of its mutations. Listeners are notified later, by notify, without the
// lock.
func (m *Manager) record(name string, old, h object.Hash) (Change, bool) {
	if m.recorder == nil {
		return Change{}, false
	}
	op := OpUpdate
	switch {
	case old.IsZero():
		op = OpCreate
	case h.IsZero():
		op = OpDelete
	}
	return m.recorder.Append(name, old, h, op), true
}

func (m *Manager) notify(c Change, recorded bool) {
	if recorded {
		m.recorder.Notify(c)
	}
}
