package repo

import (
	"fmt"
	"io/fs"
	"path"

	"github.com/odvcencio/objgraph/pkg/object"
)

// TreeFileEntry is a single file in a flattened tree.
type TreeFileEntry struct {
	Path     string
	Mode     string
	BlobHash object.Hash
}

// WriteSnapshot stores the contents of fsys as objects: a blob per
// regular file and a tree per directory. It returns the root tree digest.
// Files with any execute bit get mode 100755; symlinks are stored as their
// target path with mode 120000.
func (r *Repo) WriteSnapshot(fsys fs.FS) (object.Hash, error) {
	h, err := r.writeSnapshotDir(fsys, ".")
	if err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return h, nil
}

func (r *Repo) writeSnapshotDir(fsys fs.FS, dir string) (object.Hash, error) {
	dirEntries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return "", fmt.Errorf("read dir %q: %w", dir, err)
	}

	entries := make([]object.TreeEntry, 0, len(dirEntries))
	for _, de := range dirEntries {
		p := path.Join(dir, de.Name())
		if de.IsDir() {
			sub, err := r.writeSnapshotDir(fsys, p)
			if err != nil {
				return "", err
			}
			entries = append(entries, object.TreeEntry{Mode: object.TreeModeDir, Name: de.Name(), Hash: sub})
			continue
		}

		info, err := de.Info()
		if err != nil {
			return "", fmt.Errorf("stat %q: %w", p, err)
		}
		mode := fileMode(info.Mode())
		var data []byte
		if mode == object.TreeModeSymlink {
			target, err := fs.ReadLink(fsys, p)
			if err != nil {
				return "", fmt.Errorf("readlink %q: %w", p, err)
			}
			data = []byte(target)
		} else {
			data, err = fs.ReadFile(fsys, p)
			if err != nil {
				return "", fmt.Errorf("read file %q: %w", p, err)
			}
		}
		entries = append(entries, object.TreeEntry{
			Mode: mode,
			Name: de.Name(),
			Hash: r.Store.WriteBlob(&object.Blob{Data: data}),
		})
	}

	tree := &object.Tree{Entries: entries}
	if err := tree.Validate(); err != nil {
		return "", fmt.Errorf("tree %q: %w", dir, err)
	}
	return r.Store.WriteTree(tree), nil
}

func fileMode(m fs.FileMode) string {
	switch {
	case m&fs.ModeSymlink != 0:
		return object.TreeModeSymlink
	case m&0o111 != 0:
		return object.TreeModeExecutable
	default:
		return object.TreeModeFile
	}
}

// FlattenTree walks a tree recursively and returns every non-directory
// entry with its slash-separated path.
func (r *Repo) FlattenTree(h object.Hash) ([]TreeFileEntry, error) {
	return r.flattenTreeRec(h, "")
}

func (r *Repo) flattenTreeRec(h object.Hash, prefix string) ([]TreeFileEntry, error) {
	tree, err := r.Store.ReadTree(h)
	if err != nil {
		return nil, fmt.Errorf("flatten tree: read %s: %w", h, err)
	}

	var result []TreeFileEntry
	for _, entry := range tree.SortedEntries() {
		fullPath := path.Join(prefix, entry.Name)
		if entry.IsDir() {
			sub, err := r.flattenTreeRec(entry.Hash, fullPath)
			if err != nil {
				return nil, err
			}
			result = append(result, sub...)
			continue
		}
		result = append(result, TreeFileEntry{Path: fullPath, Mode: entry.Mode, BlobHash: entry.Hash})
	}
	return result, nil
}
