package repo

import (
	"errors"
	"fmt"

	"github.com/odvcencio/objgraph/pkg/object"
	"github.com/odvcencio/objgraph/pkg/refs"
	"go.uber.org/zap"
)

// ErrUnknownTree is returned when a commit names a tree that is not stored.
var ErrUnknownTree = errors.New("tree not found")

// Commit records tree as a new commit on top of HEAD.
//
//  1. Check the tree exists
//  2. Resolve HEAD to get the parent (none for the first commit)
//  3. Store the commit with the configured identity and current time
//  4. Move HEAD and the default branch to the new commit
func (r *Repo) Commit(tree object.Hash, message string) (object.Hash, error) {
	if objType, ok := r.Store.Type(tree); !ok || objType != object.TypeTree {
		return "", fmt.Errorf("commit: %s: %w", tree, ErrUnknownTree)
	}

	var parents []object.Hash
	if parent, ok := r.Refs.Resolve("HEAD"); ok {
		parents = append(parents, parent)
	}

	sig := r.Config.Identity.Signature()
	h := r.Store.WriteCommit(&object.Commit{
		TreeHash:  tree,
		Parents:   parents,
		Author:    sig,
		Committer: sig,
		Timestamp: r.now().Unix(),
		Message:   message,
	})

	branch := r.Config.Refs.DefaultBranch
	if !r.Refs.CreateBranch(branch, h) {
		return "", fmt.Errorf("commit: update branch %q", branch)
	}
	if !r.Refs.UpdateHead(h) {
		return "", fmt.Errorf("commit: update HEAD")
	}
	r.logger.Info("commit",
		zap.String("commit", string(h)),
		zap.String("tree", string(tree)),
		zap.String("branch", branch),
	)
	return h, nil
}

// Log walks first parents from start and returns at most limit commits,
// newest first. The walk stops at a root commit or a missing parent.
func (r *Repo) Log(start object.Hash, limit int) ([]*object.Commit, error) {
	if limit < 0 {
		return nil, fmt.Errorf("log: %w", refs.ErrNegativeLimit)
	}
	var commits []*object.Commit
	current := start

	for len(commits) < limit {
		c, err := r.Store.ReadCommit(current)
		if err != nil {
			if errors.Is(err, object.ErrNotFound) && len(commits) > 0 {
				break
			}
			return nil, fmt.Errorf("log: read commit %s: %w", current, err)
		}
		commits = append(commits, c)

		if len(c.Parents) == 0 {
			break
		}
		current = c.Parents[0]
	}

	return commits, nil
}
