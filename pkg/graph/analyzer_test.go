package graph

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/odvcencio/objgraph/pkg/object"
	"github.com/odvcencio/objgraph/pkg/refs"
)

const missingHash = object.Hash("dddddddddddddddddddddddddddddddddddddddd")

// fixture is a two-commit history with a subdirectory and one unlinked blob.
type fixture struct {
	store    *object.Store
	refs     *refs.Manager
	analyzer *Analyzer

	readme, code, orphan object.Hash
	sub, root1, root2    object.Hash
	c1, c2               object.Hash
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: object.NewStore(), refs: refs.NewManager()}
	f.analyzer = NewAnalyzer(f.store, f.refs)

	f.readme = f.store.Put(&object.Blob{Data: []byte("# readme\n")})
	f.code = f.store.Put(&object.Blob{Data: []byte("package main\n")})
	f.orphan = f.store.Put(&object.Blob{Data: []byte("never linked")})
	f.sub = f.store.Put(&object.Tree{Entries: []object.TreeEntry{
		{Mode: object.TreeModeFile, Name: "main.go", Hash: f.code},
	}})
	f.root1 = f.store.Put(&object.Tree{Entries: []object.TreeEntry{
		{Mode: object.TreeModeFile, Name: "README.md", Hash: f.readme},
	}})
	f.root2 = f.store.Put(&object.Tree{Entries: []object.TreeEntry{
		{Mode: object.TreeModeFile, Name: "README.md", Hash: f.readme},
		{Mode: object.TreeModeDir, Name: "cmd", Hash: f.sub},
	}})
	f.c1 = f.store.Put(&object.Commit{TreeHash: f.root1, Author: "a", Committer: "a", Timestamp: 1, Message: "first"})
	f.c2 = f.store.Put(&object.Commit{TreeHash: f.root2, Parents: []object.Hash{f.c1}, Author: "a", Committer: "a", Timestamp: 2, Message: "second"})

	if !f.refs.CreateBranch("main", f.c2) || !f.refs.CreateTag("v1", f.c1) || !f.refs.UpdateHead(f.c2) {
		t.Fatal("fixture ref setup failed")
	}
	return f
}

func TestValidateObject(t *testing.T) {
	f := newFixture(t)
	for _, h := range []object.Hash{f.readme, f.code, f.sub, f.root1, f.root2, f.c1, f.c2} {
		if !f.analyzer.ValidateObject(h) {
			t.Errorf("ValidateObject(%s) = false, want true", h)
		}
	}
	if f.analyzer.ValidateObject(missingHash) {
		t.Error("ValidateObject(missing) = true")
	}

	empty := f.store.Put(&object.Blob{})
	if f.analyzer.ValidateObject(empty) {
		t.Error("empty blob should be invalid")
	}
}

func TestValidateTreeWithMissingEntry(t *testing.T) {
	f := newFixture(t)
	broken := f.store.Put(&object.Tree{Entries: []object.TreeEntry{{Name: "ghost", Hash: missingHash}}})
	if f.analyzer.ValidateObject(broken) {
		t.Fatal("tree pointing at a missing digest should be invalid")
	}
	if valid, ok := f.analyzer.ValidateAll()[broken]; !ok || valid {
		t.Fatalf("ValidateAll()[broken] = %v, %v; want false, true", valid, ok)
	}
}

func TestValidateNoStaleCache(t *testing.T) {
	f := newFixture(t)
	if !f.analyzer.ValidateObject(f.sub) {
		t.Fatal("sub tree should start valid")
	}
	f.store.Delete(f.code)
	if f.analyzer.ValidateObject(f.sub) {
		t.Fatal("sub tree still valid after its blob was deleted")
	}
	f.store.Put(&object.Blob{Data: []byte("package main\n")})
	if !f.analyzer.ValidateObject(f.sub) {
		t.Fatal("sub tree not valid again after the blob was restored")
	}
}

func TestValidateCommitMissingParentOrTree(t *testing.T) {
	f := newFixture(t)
	noParent := f.store.Put(&object.Commit{TreeHash: f.root1, Parents: []object.Hash{missingHash}, Author: "a", Committer: "a", Message: "x"})
	noTree := f.store.Put(&object.Commit{TreeHash: missingHash, Author: "a", Committer: "a", Message: "y"})
	if f.analyzer.ValidateObject(noParent) || f.analyzer.ValidateObject(noTree) {
		t.Fatal("commits with missing links should be invalid")
	}
	invalid := f.analyzer.Invalid()
	if len(invalid) != 2 {
		t.Fatalf("Invalid() = %v, want the two broken commits", invalid)
	}
}

func TestBuildGraph(t *testing.T) {
	f := newFixture(t)
	g := f.analyzer.Build()

	if len(g.Nodes) != f.store.Len() {
		t.Fatalf("nodes = %d, want %d", len(g.Nodes), f.store.Len())
	}
	if !g.Has(f.orphan) {
		t.Fatal("unlinked blob missing from nodes")
	}
	// root1: 1 entry, root2: 2, sub: 1, c1: tree, c2: tree + parent.
	if len(g.Edges) != 7 {
		t.Fatalf("edges = %d, want 7: %+v", len(g.Edges), g.Edges)
	}
	var parentEdges []Edge
	for _, e := range g.Edges {
		if e.Kind == EdgeParent {
			parentEdges = append(parentEdges, e)
		}
	}
	want := []Edge{{From: f.c2, To: f.c1, Kind: EdgeParent}}
	if diff := cmp.Diff(want, parentEdges); diff != "" {
		t.Fatalf("parent edges mismatch (-want +got):\n%s", diff)
	}
	if len(g.Missing()) != 0 {
		t.Fatalf("Missing() = %v, want none", g.Missing())
	}
}

func TestDangling(t *testing.T) {
	f := newFixture(t)
	got := f.analyzer.Dangling()
	want := map[object.Hash]bool{f.orphan: true, f.c2: true}
	if len(got) != len(want) {
		t.Fatalf("Dangling() = %v, want orphan and tip commit", got)
	}
	for _, h := range got {
		if !want[h] {
			t.Fatalf("unexpected dangling object %s", h)
		}
	}
}

func TestReachability(t *testing.T) {
	f := newFixture(t)
	r := f.analyzer.Reachability("main")
	for _, h := range []object.Hash{f.c2, f.c1, f.root2, f.root1, f.sub, f.readme, f.code} {
		if !r.Contains(h) {
			t.Errorf("main should reach %s", h)
		}
	}
	if r.Contains(f.orphan) {
		t.Error("main should not reach the orphan blob")
	}
	if _, ok := r.Unreachable[f.orphan]; !ok || len(r.Unreachable) != 1 {
		t.Errorf("Unreachable = %v, want only the orphan", r.Unreachable)
	}

	tag := f.analyzer.Reachability("v1")
	if tag.Contains(f.c2) || tag.Contains(f.sub) || !tag.Contains(f.root1) {
		t.Errorf("v1 reachability = %v", tag.Reachable)
	}

	none := f.analyzer.Reachability("no-such-ref")
	if len(none.Reachable) != 0 || len(none.Unreachable) != f.store.Len() {
		t.Errorf("unresolved ref: reachable=%d unreachable=%d", len(none.Reachable), len(none.Unreachable))
	}
}

func TestReachabilitySkipsDeletedObjects(t *testing.T) {
	f := newFixture(t)
	f.store.Delete(f.c1)
	r := f.analyzer.Reachability("HEAD")
	if r.Contains(f.c1) || r.Contains(f.root1) {
		t.Fatalf("reached through a deleted commit: %v", r.Reachable)
	}
	if !r.Contains(f.readme) {
		t.Fatal("readme should still be reachable through root2")
	}
}

func TestBrokenRefs(t *testing.T) {
	f := newFixture(t)
	if got := f.analyzer.BrokenRefs(); len(got) != 0 {
		t.Fatalf("BrokenRefs() = %v, want none", got)
	}
	f.store.Delete(f.c1)
	want := []string{"refs/tags/v1"}
	if diff := cmp.Diff(want, f.analyzer.BrokenRefs()); diff != "" {
		t.Fatalf("BrokenRefs mismatch (-want +got):\n%s", diff)
	}
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	st := f.analyzer.Stats()

	var total int64
	for _, h := range f.store.Hashes() {
		n, _ := f.store.Size(h)
		total += int64(n)
	}
	want := Stats{
		TotalObjects:    9,
		TotalSize:       total,
		BlobCount:       3,
		TreeCount:       3,
		CommitCount:     2,
		DanglingObjects: 2,
	}
	if diff := cmp.Diff(want, st); diff != "" {
		t.Fatalf("Stats mismatch (-want +got):\n%s", diff)
	}
}

func TestStatsEmptyStore(t *testing.T) {
	a := NewAnalyzer(object.NewStore(), refs.NewManager())
	if diff := cmp.Diff(Stats{}, a.Stats()); diff != "" {
		t.Fatalf("empty Stats mismatch (-want +got):\n%s", diff)
	}
	if len(a.Dangling()) != 0 || len(a.ValidateAll()) != 0 {
		t.Fatal("empty store should have no dangling or validated objects")
	}
}

func TestMalformedCommitFieldsStayVisible(t *testing.T) {
	s := object.NewStore()
	a := NewAnalyzer(s, refs.NewManager())
	noTree := s.Put(&object.Commit{Author: "a", Committer: "a", Message: "no tree"})
	multiline := s.Put(&object.Commit{TreeHash: missingHash, Author: "a\nb", Committer: "c", Message: "x"})

	for _, h := range []object.Hash{noTree, multiline} {
		if _, ok := s.Get(h); !ok {
			t.Fatalf("Get(%s) failed for a stored commit", h)
		}
	}
	g := a.Build()
	if !g.Has(noTree) || !g.Has(multiline) {
		t.Fatalf("graph nodes = %v, want both commits", g.SortedNodes())
	}
	if st := a.Stats(); st.TotalObjects != s.Len() || st.CommitCount != 2 {
		t.Fatalf("Stats = %+v, want 2 commits out of %d objects", st, s.Len())
	}
	if a.ValidateObject(noTree) || a.ValidateObject(multiline) {
		t.Fatal("commits pointing at missing trees should be invalid")
	}
}

// undecodableSource hides one stored object from Get, as if its payload
// could not be decoded.
type undecodableSource struct {
	*object.Store
	bad object.Hash
}

func (u undecodableSource) Get(h object.Hash) (object.Object, bool) {
	if h == u.bad {
		return nil, false
	}
	return u.Store.Get(h)
}

func TestUndecodableObjectIsAnInvalidNode(t *testing.T) {
	f := newFixture(t)
	a := NewAnalyzer(undecodableSource{Store: f.store, bad: f.root2}, f.refs)

	g := a.Build()
	if typ, ok := g.Nodes[f.root2]; !ok || typ != object.TypeTree {
		t.Fatalf("undecodable tree node = %q, %v; want tree, true", typ, ok)
	}
	if st := a.Stats(); st.TotalObjects != f.store.Len() || st.TreeCount != 3 {
		t.Fatalf("Stats = %+v", st)
	}
	if a.ValidateObject(f.root2) {
		t.Fatal("undecodable object reported valid")
	}
	if valid, ok := a.ValidateAll()[f.root2]; !ok || valid {
		t.Fatalf("ValidateAll()[root2] = %v, %v; want false, true", valid, ok)
	}
}
