package object

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var (
	ErrMalformedTree   = errors.New("malformed tree")
	ErrMalformedCommit = errors.New("malformed commit")
)

// commitTimezone is the only offset written by MarshalCommit; timestamps
// are always UTC.
const commitTimezone = "+0000"

// Marshal returns the canonical payload of obj.
func Marshal(obj Object) []byte {
	switch o := obj.(type) {
	case *Blob:
		return MarshalBlob(o)
	case *Tree:
		return MarshalTree(o)
	case *Commit:
		return MarshalCommit(o)
	default:
		panic(fmt.Sprintf("object: unexpected type %T", obj))
	}
}

// ObjectOf decodes a canonical payload of the given type.
func ObjectOf(objType ObjectType, data []byte) (Object, error) {
	switch objType {
	case TypeBlob:
		return UnmarshalBlob(data)
	case TypeTree:
		return UnmarshalTree(data)
	case TypeCommit:
		return UnmarshalCommit(data)
	default:
		return nil, fmt.Errorf("decode object: unsupported object type %q", objType)
	}
}

// ---------------------------------------------------------------------------
// Blob
// ---------------------------------------------------------------------------

// MarshalBlob serializes a Blob to raw bytes (identity).
func MarshalBlob(b *Blob) []byte {
	out := make([]byte, len(b.Data))
	copy(out, b.Data)
	return out
}

// UnmarshalBlob deserializes raw bytes into a Blob.
func UnmarshalBlob(data []byte) (*Blob, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return &Blob{Data: out}, nil
}

// ---------------------------------------------------------------------------
// Tree
// ---------------------------------------------------------------------------

// SortedEntries returns a copy of the tree's entries ordered by Name.
// The sort is stable so equal names keep their insertion order.
func (t *Tree) SortedEntries() []TreeEntry {
	sorted := make([]TreeEntry, len(t.Entries))
	copy(sorted, t.Entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})
	return sorted
}

// Validate checks that every entry can round-trip through MarshalTree:
// a non-empty name free of NUL and '/', a known mode if any, a
// well-formed hash, and no duplicate names. A mode-less entry may not be
// named like "100644 x", which would decode as a mode and a name.
func (t *Tree) Validate() error {
	seen := make(map[string]struct{}, len(t.Entries))
	for _, e := range t.Entries {
		if e.Name == "" {
			return fmt.Errorf("%w: empty entry name", ErrMalformedTree)
		}
		if strings.ContainsAny(e.Name, "\x00/") {
			return fmt.Errorf("%w: invalid entry name %q", ErrMalformedTree, e.Name)
		}
		if e.Mode != "" && !isTreeMode(e.Mode) {
			return fmt.Errorf("%w: entry %q: unknown mode %q", ErrMalformedTree, e.Name, e.Mode)
		}
		if e.Mode == "" {
			if m, _ := splitTreeHeader(e.Name); m != "" {
				return fmt.Errorf("%w: entry %q without a mode would decode with mode %q", ErrMalformedTree, e.Name, m)
			}
		}
		if !IsValidHash(string(e.Hash)) {
			return fmt.Errorf("%w: entry %q: malformed hash %q", ErrMalformedTree, e.Name, e.Hash)
		}
		if _, dup := seen[e.Name]; dup {
			return fmt.Errorf("%w: duplicate entry %q", ErrMalformedTree, e.Name)
		}
		seen[e.Name] = struct{}{}
	}
	return nil
}

// MarshalTree serializes a Tree. Entries are sorted by Name so that equal
// trees produce equal bytes regardless of insertion order. Each entry is
//
//	[mode SP] name NUL <20 raw digest bytes>
//
// and entries are concatenated with no global header. Entries that fail
// Validate are still encoded but may not decode to the same tree. An
// entry whose hash
// is malformed is written as the all-zero digest, which never exists in
// a store and so surfaces as a missing child during validation.
func MarshalTree(t *Tree) []byte {
	var buf bytes.Buffer
	for _, e := range t.SortedEntries() {
		if e.Mode != "" {
			buf.WriteString(e.Mode)
			buf.WriteByte(' ')
		}
		buf.WriteString(e.Name)
		buf.WriteByte(0)
		raw, _ := hashToRaw(e.Hash)
		buf.Write(raw[:])
	}
	return buf.Bytes()
}

// UnmarshalTree parses a Tree, failing on a truncated or malformed tail.
func UnmarshalTree(data []byte) (*Tree, error) {
	t, rest := parseTreeEntries(data)
	if len(rest) > 0 {
		return nil, fmt.Errorf("unmarshal tree: %w: %d trailing byte(s) after entry %d", ErrMalformedTree, len(rest), len(t.Entries))
	}
	for _, e := range t.Entries {
		if e.Name == "" {
			return nil, fmt.Errorf("unmarshal tree: %w: empty entry name", ErrMalformedTree)
		}
	}
	return t, nil
}

// UnmarshalTreeLenient parses as many complete entries as data holds and
// silently drops a malformed or truncated tail.
func UnmarshalTreeLenient(data []byte) *Tree {
	t, _ := parseTreeEntries(data)
	return t
}

// parseTreeEntries returns the complete entries in data and the bytes
// that could not be parsed as an entry.
func parseTreeEntries(data []byte) (*Tree, []byte) {
	t := &Tree{}
	for len(data) > 0 {
		nul := bytes.IndexByte(data, 0)
		if nul < 0 || len(data)-nul-1 < HashSize {
			return t, data
		}
		mode, name := splitTreeHeader(string(data[:nul]))
		raw := data[nul+1 : nul+1+HashSize]
		t.Entries = append(t.Entries, TreeEntry{
			Mode: mode,
			Name: name,
			Hash: Hash(hex.EncodeToString(raw)),
		})
		data = data[nul+1+HashSize:]
	}
	return t, nil
}

// splitTreeHeader separates an optional leading mode from the entry name.
// Only known mode strings are treated as a mode.
func splitTreeHeader(header string) (mode, name string) {
	if m, n, ok := strings.Cut(header, " "); ok && isTreeMode(m) {
		return m, n
	}
	return "", header
}

func isTreeMode(mode string) bool {
	switch mode {
	case TreeModeDir, TreeModeFile, TreeModeExecutable, TreeModeSymlink, TreeModeSubmodule:
		return true
	default:
		return false
	}
}

// ---------------------------------------------------------------------------
// Commit
// ---------------------------------------------------------------------------

// MarshalCommit serializes a Commit:
//
//	tree H
//	parent H                      (zero or more, input order)
//	author A <epoch> +0000
//	committer C <epoch> +0000
//
//	message
//
// The message is written verbatim. A malformed tree or parent hash is
// written as the all-zero digest, and line breaks in an identity become
// spaces, so every encoded commit parses back.
func MarshalCommit(c *Commit) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tree %s\n", headerHash(c.TreeHash))
	for _, p := range c.Parents {
		fmt.Fprintf(&buf, "parent %s\n", headerHash(p))
	}
	fmt.Fprintf(&buf, "author %s %d %s\n", headerIdentity(c.Author), c.Timestamp, commitTimezone)
	fmt.Fprintf(&buf, "committer %s %d %s\n", headerIdentity(c.Committer), c.Timestamp, commitTimezone)
	buf.WriteByte('\n')
	buf.WriteString(c.Message)
	return buf.Bytes()
}

var zeroDigest = Hash(strings.Repeat("0", 2*HashSize))

func headerHash(h Hash) Hash {
	if !IsValidHash(string(h)) {
		return zeroDigest
	}
	return h
}

var identityReplacer = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

func headerIdentity(id string) string {
	return identityReplacer.Replace(id)
}

// UnmarshalCommit parses a Commit. The header ends at the first blank
// line and everything after it is the message, unmodified.
func UnmarshalCommit(data []byte) (*Commit, error) {
	idx := bytes.Index(data, []byte("\n\n"))
	if idx < 0 {
		return nil, fmt.Errorf("unmarshal commit: %w: missing header/message separator", ErrMalformedCommit)
	}
	header := string(data[:idx])
	c := &Commit{Message: string(data[idx+2:])}

	var sawTree, sawAuthor, sawCommitter bool
	for _, line := range strings.Split(header, "\n") {
		key, val, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("unmarshal commit: %w: malformed header line %q", ErrMalformedCommit, line)
		}
		switch key {
		case "tree":
			if sawTree {
				return nil, fmt.Errorf("unmarshal commit: %w: duplicate tree line", ErrMalformedCommit)
			}
			if !IsValidHash(val) {
				return nil, fmt.Errorf("unmarshal commit: %w: bad tree hash %q", ErrMalformedCommit, val)
			}
			c.TreeHash = Hash(val)
			sawTree = true
		case "parent":
			if !IsValidHash(val) {
				return nil, fmt.Errorf("unmarshal commit: %w: bad parent hash %q", ErrMalformedCommit, val)
			}
			c.Parents = append(c.Parents, Hash(val))
		case "author":
			ident, ts, err := parseSignature(val)
			if err != nil {
				return nil, fmt.Errorf("unmarshal commit: author: %w", err)
			}
			c.Author = ident
			c.Timestamp = ts
			sawAuthor = true
		case "committer":
			ident, _, err := parseSignature(val)
			if err != nil {
				return nil, fmt.Errorf("unmarshal commit: committer: %w", err)
			}
			c.Committer = ident
			sawCommitter = true
		default:
			return nil, fmt.Errorf("unmarshal commit: %w: unknown header key %q", ErrMalformedCommit, key)
		}
	}
	if !sawTree || !sawAuthor || !sawCommitter {
		return nil, fmt.Errorf("unmarshal commit: %w: missing tree, author or committer", ErrMalformedCommit)
	}
	return c, nil
}

// parseSignature splits "identity <epoch> <tz>" from the right so the
// identity may itself contain spaces.
func parseSignature(val string) (string, int64, error) {
	rest, tz, ok := cutLast(val, " ")
	if !ok || tz != commitTimezone {
		return "", 0, fmt.Errorf("%w: bad signature %q", ErrMalformedCommit, val)
	}
	ident, epoch, ok := cutLast(rest, " ")
	if !ok {
		return "", 0, fmt.Errorf("%w: bad signature %q", ErrMalformedCommit, val)
	}
	ts, err := strconv.ParseInt(epoch, 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("%w: bad timestamp %q: %v", ErrMalformedCommit, epoch, err)
	}
	return ident, ts, nil
}

func cutLast(s, sep string) (before, after string, found bool) {
	if i := strings.LastIndex(s, sep); i >= 0 {
		return s[:i], s[i+len(sep):], true
	}
	return s, "", false
}
