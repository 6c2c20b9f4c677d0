package repo

import (
	"sort"

	"github.com/odvcencio/objgraph/pkg/object"
	"go.uber.org/zap"
)

// GCSummary reports what GC examined and removed.
type GCSummary struct {
	Examined int
	Removed  []object.Hash
}

// RefRoots returns the distinct digests of every born ref, HEAD included.
func (r *Repo) RefRoots() []object.Hash {
	rootSet := make(map[object.Hash]struct{})
	for _, ref := range r.Refs.All() {
		if ref.Unborn() {
			continue
		}
		rootSet[ref.Target] = struct{}{}
	}

	roots := make([]object.Hash, 0, len(rootSet))
	for h := range rootSet {
		roots = append(roots, h)
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i] < roots[j] })
	return roots
}

// GC deletes every stored object that no ref reaches.
func (r *Repo) GC() GCSummary {
	live := r.Store.ReachableSet(r.RefRoots())
	hashes := r.Store.Hashes()
	summary := GCSummary{Examined: len(hashes)}
	for _, h := range hashes {
		if _, ok := live[h]; ok {
			continue
		}
		if r.Store.Delete(h) {
			summary.Removed = append(summary.Removed, h)
		}
	}
	r.logger.Info("gc",
		zap.Int("examined", summary.Examined),
		zap.Int("removed", len(summary.Removed)),
	)
	return summary
}
