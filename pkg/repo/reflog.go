package repo

import (
	"fmt"
	"strings"

	"github.com/odvcencio/objgraph/pkg/refs"
)

// ReadReflog returns ref changes newest first, at most limit of them. An
// empty ref reads across every ref. A short name reads the branch of that
// name, falling back to the tag.
func (r *Repo) ReadReflog(ref string, limit int) ([]refs.Change, error) {
	if limit < 0 {
		return nil, fmt.Errorf("read reflog: %w", refs.ErrNegativeLimit)
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		entries, err := r.History.Recent(limit)
		if err != nil {
			return nil, fmt.Errorf("read reflog: %w", err)
		}
		return entries, nil
	}

	log := r.History.For(r.resolveReflogRefName(ref))
	out := make([]refs.Change, 0, min(limit, len(log)))
	for i := len(log) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, log[i])
	}
	return out, nil
}

func (r *Repo) resolveReflogRefName(ref string) string {
	if ref == refs.HeadName || strings.HasPrefix(ref, refs.RefPrefix) {
		return ref
	}
	if branch := refs.BranchName(ref); len(r.History.For(branch)) > 0 {
		return branch
	}
	if tag := refs.TagName(ref); len(r.History.For(tag)) > 0 {
		return tag
	}
	return refs.BranchName(ref)
}
