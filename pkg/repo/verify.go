package repo

import (
	"github.com/odvcencio/objgraph/pkg/graph"
	"github.com/odvcencio/objgraph/pkg/object"
)

// VerifyReport is a whole-repository integrity check.
type VerifyReport struct {
	Stats      graph.Stats
	Invalid    []object.Hash
	Dangling   []object.Hash
	Missing    []object.Hash
	BrokenRefs []string
}

// OK reports whether nothing is invalid, missing or broken. Dangling
// objects alone do not fail verification.
func (v VerifyReport) OK() bool {
	return len(v.Invalid) == 0 && len(v.Missing) == 0 && len(v.BrokenRefs) == 0
}

// Verify runs every analyzer check against current state.
func (r *Repo) Verify() VerifyReport {
	g := r.Analyzer.Build()
	return VerifyReport{
		Stats:      r.Analyzer.Stats(),
		Invalid:    r.Analyzer.Invalid(),
		Dangling:   g.Dangling(),
		Missing:    g.Missing(),
		BrokenRefs: r.Analyzer.BrokenRefs(),
	}
}
