package graph

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/odvcencio/objgraph/pkg/object"
)

// EdgeKind labels the relationship an Edge represents.
type EdgeKind string

const (
	EdgeTree   EdgeKind = "tree"
	EdgeParent EdgeKind = "parent"
	EdgeEntry  EdgeKind = "entry"
)

// Edge points from a commit or tree to an object it references. Name is
// the entry name for EdgeEntry and empty otherwise.
type Edge struct {
	From object.Hash
	To   object.Hash
	Kind EdgeKind
	Name string
}

// Graph is a snapshot of the object DAG. Nodes maps every stored digest
// to its type; edge targets that are not nodes are missing objects.
type Graph struct {
	Nodes map[object.Hash]object.ObjectType
	Edges []Edge
}

// Has reports whether h is a node.
func (g *Graph) Has(h object.Hash) bool {
	_, ok := g.Nodes[h]
	return ok
}

// SortedNodes returns the node digests in ascending order.
func (g *Graph) SortedNodes() []object.Hash {
	out := make([]object.Hash, 0, len(g.Nodes))
	for h := range g.Nodes {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// InDegree counts incoming edges per target digest.
func (g *Graph) InDegree() map[object.Hash]int {
	in := make(map[object.Hash]int, len(g.Nodes))
	for _, e := range g.Edges {
		in[e.To]++
	}
	return in
}

// Dangling returns the nodes that never appear as an edge target.
func (g *Graph) Dangling() []object.Hash {
	in := g.InDegree()
	var out []object.Hash
	for _, h := range g.SortedNodes() {
		if in[h] == 0 {
			out = append(out, h)
		}
	}
	return out
}

// Missing returns edge targets that are not nodes, in ascending order.
func (g *Graph) Missing() []object.Hash {
	seen := make(map[object.Hash]struct{})
	var out []object.Hash
	for _, e := range g.Edges {
		if g.Has(e.To) {
			continue
		}
		if _, ok := seen[e.To]; ok {
			continue
		}
		seen[e.To] = struct{}{}
		out = append(out, e.To)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// WriteDOT renders g in Graphviz DOT format. Missing objects are drawn
// dashed.
func (g *Graph) WriteDOT(w io.Writer) error {
	var buf bytes.Buffer
	buf.WriteString("digraph {\n\n")
	for _, h := range g.SortedNodes() {
		fmt.Fprintf(&buf, "  %q [label=%q]\n", string(h), fmt.Sprintf("%s %s", g.Nodes[h], h.Short()))
	}
	for _, h := range g.Missing() {
		fmt.Fprintf(&buf, "  %q [label=%q style=dashed]\n", string(h), "missing "+h.Short())
	}
	if len(g.Edges) > 0 {
		buf.WriteByte('\n')
	}
	for _, e := range g.Edges {
		label := string(e.Kind)
		if e.Name != "" {
			label = e.Name
		}
		fmt.Fprintf(&buf, "  %q -> %q [label=%q]\n", string(e.From), string(e.To), label)
	}
	buf.WriteString("\n}\n")
	_, err := w.Write(buf.Bytes())
	return err
}

// DOTString returns the DOT rendering of g.
func (g *Graph) DOTString() string {
	var buf bytes.Buffer
	_ = g.WriteDOT(&buf)
	return buf.String()
}
