package graph

import (
	"sort"

	"github.com/odvcencio/objgraph/pkg/object"
	"github.com/odvcencio/objgraph/pkg/refs"
)

// ObjectSource is the read side of an object store.
type ObjectSource interface {
	Get(h object.Hash) (object.Object, bool)
	Has(h object.Hash) bool
	Type(h object.Hash) (object.ObjectType, bool)
	Hashes() []object.Hash
	Size(h object.Hash) (int, bool)
	ReachableSet(roots []object.Hash) map[object.Hash]struct{}
}

// RefSource is the read side of a ref manager.
type RefSource interface {
	Resolve(query string) (object.Hash, bool)
	All() []refs.Ref
}

// Analyzer derives validity, graph and reachability views from an object
// store and its refs. It caches nothing: every call reads current state.
type Analyzer struct {
	objects ObjectSource
	refs    RefSource
}

// NewAnalyzer creates an Analyzer over objects and refs.
func NewAnalyzer(objects ObjectSource, refSource RefSource) *Analyzer {
	return &Analyzer{objects: objects, refs: refSource}
}

// ValidateObject reports whether h exists and is structurally sound. A
// blob must be non-empty; every child of a tree and the tree and parents
// of a commit must exist.
func (a *Analyzer) ValidateObject(h object.Hash) bool {
	obj, ok := a.objects.Get(h)
	if !ok {
		return false
	}
	switch o := obj.(type) {
	case *object.Blob:
		return len(o.Data) > 0
	case *object.Tree:
		for _, e := range o.Entries {
			if !a.objects.Has(e.Hash) {
				return false
			}
		}
		return true
	case *object.Commit:
		if !a.objects.Has(o.TreeHash) {
			return false
		}
		for _, p := range o.Parents {
			if !a.objects.Has(p) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// ValidateAll runs ValidateObject over every stored digest.
func (a *Analyzer) ValidateAll() map[object.Hash]bool {
	hashes := a.objects.Hashes()
	out := make(map[object.Hash]bool, len(hashes))
	for _, h := range hashes {
		out[h] = a.ValidateObject(h)
	}
	return out
}

// Invalid returns the digests ValidateAll maps to false, in order.
func (a *Analyzer) Invalid() []object.Hash {
	var out []object.Hash
	for _, h := range a.objects.Hashes() {
		if !a.ValidateObject(h) {
			out = append(out, h)
		}
	}
	return out
}

// Build returns the object graph: one node per stored digest and one edge
// per commit→tree, commit→parent and tree→entry link. Edge targets need
// not be stored. A payload that does not decode is still a node, with no
// outgoing edges.
func (a *Analyzer) Build() *Graph {
	g := &Graph{
		Nodes: make(map[object.Hash]object.ObjectType),
	}
	for _, h := range a.objects.Hashes() {
		objType, ok := a.objects.Type(h)
		if !ok {
			continue
		}
		g.Nodes[h] = objType
		if obj, ok := a.objects.Get(h); ok {
			g.Edges = append(g.Edges, edgesFrom(h, obj)...)
		}
	}
	return g
}

func edgesFrom(h object.Hash, obj object.Object) []Edge {
	switch o := obj.(type) {
	case *object.Tree:
		entries := o.SortedEntries()
		edges := make([]Edge, 0, len(entries))
		for _, e := range entries {
			edges = append(edges, Edge{From: h, To: e.Hash, Kind: EdgeEntry, Name: e.Name})
		}
		return edges
	case *object.Commit:
		edges := make([]Edge, 0, 1+len(o.Parents))
		edges = append(edges, Edge{From: h, To: o.TreeHash, Kind: EdgeTree})
		for _, p := range o.Parents {
			edges = append(edges, Edge{From: h, To: p, Kind: EdgeParent})
		}
		return edges
	default:
		return nil
	}
}

// Dangling returns stored objects that no stored object points at. This
// is not the same as being unreachable from a ref; see Reachability.
func (a *Analyzer) Dangling() []object.Hash {
	return a.Build().Dangling()
}

// Reachability splits stored objects into those reachable from the ref
// named by query and the rest. A query that does not resolve reaches
// nothing.
func (a *Analyzer) Reachability(query string) Reachability {
	var roots []object.Hash
	if h, ok := a.refs.Resolve(query); ok {
		roots = append(roots, h)
	}
	reachable := a.objects.ReachableSet(roots)
	unreachable := make(map[object.Hash]struct{})
	for _, h := range a.objects.Hashes() {
		if _, ok := reachable[h]; !ok {
			unreachable[h] = struct{}{}
		}
	}
	return Reachability{Reachable: reachable, Unreachable: unreachable}
}

// BrokenRefs returns the names of born refs whose target is not stored.
func (a *Analyzer) BrokenRefs() []string {
	var out []string
	for _, r := range a.refs.All() {
		if r.Unborn() {
			continue
		}
		if !a.objects.Has(r.Target) {
			out = append(out, r.Name)
		}
	}
	sort.Strings(out)
	return out
}

// Stats aggregates counts and payload sizes over the store.
func (a *Analyzer) Stats() Stats {
	g := a.Build()
	var st Stats
	for h, objType := range g.Nodes {
		size, ok := a.objects.Size(h)
		if !ok {
			continue
		}
		st.TotalObjects++
		st.TotalSize += int64(size)
		switch objType {
		case object.TypeBlob:
			st.BlobCount++
		case object.TypeTree:
			st.TreeCount++
		case object.TypeCommit:
			st.CommitCount++
		}
	}
	st.DanglingObjects = len(g.Dangling())
	return st
}

// Stats summarizes a store.
type Stats struct {
	TotalObjects    int
	TotalSize       int64
	BlobCount       int
	TreeCount       int
	CommitCount     int
	DanglingObjects int
}

// Reachability is the result of a walk from one ref.
type Reachability struct {
	Reachable   map[object.Hash]struct{}
	Unreachable map[object.Hash]struct{}
}

// Contains reports whether h was reached.
func (r Reachability) Contains(h object.Hash) bool {
	_, ok := r.Reachable[h]
	return ok
}
