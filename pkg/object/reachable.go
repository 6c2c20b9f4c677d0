package object

import (
	"sort"
	"strings"
)

// ReachableSet returns all stored object hashes reachable from roots by
// following commit→tree, commit→parent and tree→entry references.
// Missing roots and missing children are skipped.
func (s *Store) ReachableSet(roots []Hash) map[Hash]struct{} {
	roots = uniqueNormalizedHashes(roots)
	out := make(map[Hash]struct{}, len(roots))
	if len(roots) == 0 {
		return out
	}

	stack := make([]Hash, 0, len(roots))
	stack = append(stack, roots...)
	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if h == "" {
			continue
		}
		if _, ok := out[h]; ok {
			continue
		}
		obj, ok := s.Get(h)
		if !ok {
			continue
		}
		out[h] = struct{}{}
		stack = append(stack, ReferencedHashes(obj)...)
	}

	return out
}

// ReferencedHashes returns the digests obj points at, in encoding order:
// a commit's tree then its parents, or a tree's entries by name.
func ReferencedHashes(obj Object) []Hash {
	switch o := obj.(type) {
	case *Blob:
		return nil
	case *Tree:
		refs := make([]Hash, 0, len(o.Entries))
		for _, e := range o.SortedEntries() {
			refs = append(refs, e.Hash)
		}
		return refs
	case *Commit:
		refs := make([]Hash, 0, 1+len(o.Parents))
		refs = append(refs, o.TreeHash)
		refs = append(refs, o.Parents...)
		return refs
	default:
		return nil
	}
}

func uniqueNormalizedHashes(in []Hash) []Hash {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[Hash]struct{}, len(in))
	out := make([]Hash, 0, len(in))
	for _, h := range in {
		h = Hash(strings.TrimSpace(string(h)))
		if h == "" {
			continue
		}
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
