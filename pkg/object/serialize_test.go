package object

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const (
	hashA = Hash("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	hashB = Hash("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	hashC = Hash("cccccccccccccccccccccccccccccccccccccccc")
)

func TestMarshalUnmarshalBlob(t *testing.T) {
	orig := &Blob{Data: []byte("hello world\nline two")}
	data := MarshalBlob(orig)
	if !bytes.Equal(data, orig.Data) {
		t.Fatalf("MarshalBlob is not the identity: %q", data)
	}
	got, err := UnmarshalBlob(data)
	if err != nil {
		t.Fatalf("UnmarshalBlob: %v", err)
	}
	if !bytes.Equal(got.Data, orig.Data) {
		t.Errorf("Blob round-trip mismatch: got %q, want %q", got.Data, orig.Data)
	}
}

func TestMarshalTreeOrderIndependent(t *testing.T) {
	t1 := &Tree{Entries: []TreeEntry{{Name: "b", Hash: hashB}, {Name: "a", Hash: hashA}}}
	t2 := &Tree{Entries: []TreeEntry{{Name: "a", Hash: hashA}, {Name: "b", Hash: hashB}}}
	if !bytes.Equal(MarshalTree(t1), MarshalTree(t2)) {
		t.Fatal("trees with the same entries in different order marshal differently")
	}
	if HashObject(TypeTree, MarshalTree(t1)) != HashObject(TypeTree, MarshalTree(t2)) {
		t.Fatal("trees with the same entries in different order hash differently")
	}
}

func TestMarshalTreeLayout(t *testing.T) {
	tr := &Tree{Entries: []TreeEntry{
		{Name: "z", Hash: hashB},
		{Mode: TreeModeFile, Name: "a.txt", Hash: hashA},
	}}
	data := MarshalTree(tr)

	var want bytes.Buffer
	want.WriteString("100644 a.txt\x00")
	want.Write(bytes.Repeat([]byte{0xaa}, HashSize))
	want.WriteString("z\x00")
	want.Write(bytes.Repeat([]byte{0xbb}, HashSize))
	if !bytes.Equal(data, want.Bytes()) {
		t.Fatalf("MarshalTree layout:\n got %q\nwant %q", data, want.Bytes())
	}
}

func TestMarshalUnmarshalTree(t *testing.T) {
	orig := &Tree{Entries: []TreeEntry{
		{Mode: TreeModeDir, Name: "pkg", Hash: hashC},
		{Name: "README", Hash: hashB},
		{Mode: TreeModeExecutable, Name: "build.sh", Hash: hashA},
		{Name: "has space", Hash: hashA},
	}}
	got, err := UnmarshalTree(MarshalTree(orig))
	if err != nil {
		t.Fatalf("UnmarshalTree: %v", err)
	}
	if diff := cmp.Diff(orig.SortedEntries(), got.Entries); diff != "" {
		t.Fatalf("tree round-trip mismatch (-want +got):\n%s", diff)
	}
	if last := got.Entries[len(got.Entries)-1]; last.Name != "pkg" || !last.IsDir() {
		t.Fatalf("last entry = %+v, want directory pkg", last)
	}
}

func TestUnmarshalTreeEmpty(t *testing.T) {
	got, err := UnmarshalTree(nil)
	if err != nil {
		t.Fatalf("UnmarshalTree(nil): %v", err)
	}
	if len(got.Entries) != 0 {
		t.Fatalf("entries = %d, want 0", len(got.Entries))
	}
}

func TestUnmarshalTreeTruncated(t *testing.T) {
	full := MarshalTree(&Tree{Entries: []TreeEntry{
		{Name: "a", Hash: hashA},
		{Name: "b", Hash: hashB},
	}})
	truncated := full[:len(full)-5]

	if _, err := UnmarshalTree(truncated); !errors.Is(err, ErrMalformedTree) {
		t.Fatalf("UnmarshalTree(truncated) error = %v, want ErrMalformedTree", err)
	}

	lenient := UnmarshalTreeLenient(truncated)
	if len(lenient.Entries) != 1 || lenient.Entries[0].Name != "a" {
		t.Fatalf("UnmarshalTreeLenient kept %+v, want only entry a", lenient.Entries)
	}

	noNUL := append(append([]byte{}, full...), "trailing"...)
	if _, err := UnmarshalTree(noNUL); !errors.Is(err, ErrMalformedTree) {
		t.Fatalf("UnmarshalTree(trailing garbage) error = %v, want ErrMalformedTree", err)
	}
	if got := UnmarshalTreeLenient(noNUL); len(got.Entries) != 2 {
		t.Fatalf("UnmarshalTreeLenient(trailing garbage) = %d entries, want 2", len(got.Entries))
	}
}

func TestMarshalTreeMalformedHash(t *testing.T) {
	data := MarshalTree(&Tree{Entries: []TreeEntry{{Name: "x", Hash: "not-a-hash"}}})
	got, err := UnmarshalTree(data)
	if err != nil {
		t.Fatalf("UnmarshalTree: %v", err)
	}
	if want := Hash(strings.Repeat("0", 40)); got.Entries[0].Hash != want {
		t.Fatalf("malformed hash encoded as %s, want %s", got.Entries[0].Hash, want)
	}
}

func TestTreeValidate(t *testing.T) {
	tests := []struct {
		name    string
		entries []TreeEntry
		ok      bool
	}{
		{"valid", []TreeEntry{{Mode: TreeModeFile, Name: "a", Hash: hashA}}, true},
		{"empty name", []TreeEntry{{Name: "", Hash: hashA}}, false},
		{"slash", []TreeEntry{{Name: "a/b", Hash: hashA}}, false},
		{"nul", []TreeEntry{{Name: "a\x00b", Hash: hashA}}, false},
		{"bad mode", []TreeEntry{{Mode: "777", Name: "a", Hash: hashA}}, false},
		{"bad hash", []TreeEntry{{Name: "a", Hash: "abc"}}, false},
		{"duplicate", []TreeEntry{{Name: "a", Hash: hashA}, {Name: "a", Hash: hashB}}, false},
		{"mode-like name", []TreeEntry{{Name: "100644 x", Hash: hashA}}, false},
		{"mode-like name with mode", []TreeEntry{{Mode: TreeModeFile, Name: "100644 x", Hash: hashA}}, true},
		{"unknown mode-like prefix", []TreeEntry{{Name: "777 x", Hash: hashA}}, true},
	}
	for _, tt := range tests {
		err := (&Tree{Entries: tt.entries}).Validate()
		if tt.ok && err != nil {
			t.Errorf("%s: Validate() = %v, want nil", tt.name, err)
		}
		if !tt.ok && !errors.Is(err, ErrMalformedTree) {
			t.Errorf("%s: Validate() = %v, want ErrMalformedTree", tt.name, err)
		}
	}
}

func TestMarshalCommitLayout(t *testing.T) {
	c := &Commit{
		TreeHash:  hashA,
		Parents:   []Hash{hashB, hashC},
		Author:    "Ada <ada@example.com>",
		Committer: "Bot <bot@example.com>",
		Timestamp: 1700000000,
		Message:   "merge\n\nbody line\n",
	}
	want := "tree " + string(hashA) + "\n" +
		"parent " + string(hashB) + "\n" +
		"parent " + string(hashC) + "\n" +
		"author Ada <ada@example.com> 1700000000 +0000\n" +
		"committer Bot <bot@example.com> 1700000000 +0000\n" +
		"\n" +
		"merge\n\nbody line\n"
	if got := string(MarshalCommit(c)); got != want {
		t.Fatalf("MarshalCommit:\n got %q\nwant %q", got, want)
	}
}

func TestMarshalUnmarshalCommit(t *testing.T) {
	orig := &Commit{
		TreeHash:  hashA,
		Parents:   []Hash{hashC, hashB},
		Author:    "Test User <test@example.com>",
		Committer: "Other <other@example.com>",
		Timestamp: 42,
		Message:   "subject\n\n\nbody with\n\nblank lines",
	}
	got, err := UnmarshalCommit(MarshalCommit(orig))
	if err != nil {
		t.Fatalf("UnmarshalCommit: %v", err)
	}
	if diff := cmp.Diff(orig, got); diff != "" {
		t.Fatalf("commit round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestMarshalUnmarshalRootCommitEmptyMessage(t *testing.T) {
	orig := &Commit{TreeHash: hashA, Author: "a", Committer: "a", Timestamp: 1}
	got, err := UnmarshalCommit(MarshalCommit(orig))
	if err != nil {
		t.Fatalf("UnmarshalCommit: %v", err)
	}
	if len(got.Parents) != 0 || got.Message != "" {
		t.Fatalf("got parents=%v message=%q, want none and empty", got.Parents, got.Message)
	}
}

func TestMarshalCommitAlwaysDecodes(t *testing.T) {
	tests := []struct {
		name string
		in   *Commit
		want *Commit
	}{
		{
			name: "empty tree hash",
			in:   &Commit{Author: "a", Committer: "a", Timestamp: 1, Message: "m"},
			want: &Commit{TreeHash: zeroDigest, Author: "a", Committer: "a", Timestamp: 1, Message: "m"},
		},
		{
			name: "malformed parent",
			in:   &Commit{TreeHash: hashA, Parents: []Hash{"nope", hashB}, Author: "a", Committer: "a"},
			want: &Commit{TreeHash: hashA, Parents: []Hash{zeroDigest, hashB}, Author: "a", Committer: "a"},
		},
		{
			name: "newlines in identities",
			in:   &Commit{TreeHash: hashA, Author: "a\nb", Committer: "c\r\n\nd", Timestamp: 7},
			want: &Commit{TreeHash: hashA, Author: "a b", Committer: "c  d", Timestamp: 7},
		},
		{
			name: "empty identities",
			in:   &Commit{TreeHash: hashA, Timestamp: -5, Message: "\n\n"},
			want: &Commit{TreeHash: hashA, Timestamp: -5, Message: "\n\n"},
		},
	}
	for _, tt := range tests {
		got, err := UnmarshalCommit(MarshalCommit(tt.in))
		if err != nil {
			t.Errorf("%s: UnmarshalCommit: %v", tt.name, err)
			continue
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("%s: decoded commit mismatch (-want +got):\n%s", tt.name, diff)
		}
	}
}

func TestUnmarshalCommitMalformed(t *testing.T) {
	inputs := []string{
		"tree " + string(hashA) + "\n",
		"tree xyz\nauthor a 1 +0000\ncommitter a 1 +0000\n\nmsg",
		"tree " + string(hashA) + "\nauthor a one +0000\ncommitter a 1 +0000\n\nmsg",
		"tree " + string(hashA) + "\nauthor a 1 +0100\ncommitter a 1 +0000\n\nmsg",
		"author a 1 +0000\ncommitter a 1 +0000\n\nmsg",
		"tree " + string(hashA) + "\nauthor a 1 +0000\ncommitter a 1 +0000\nsignature x\n\nmsg",
	}
	for _, in := range inputs {
		if _, err := UnmarshalCommit([]byte(in)); !errors.Is(err, ErrMalformedCommit) {
			t.Errorf("UnmarshalCommit(%q) error = %v, want ErrMalformedCommit", in, err)
		}
	}
}

func TestObjectOfAndMarshal(t *testing.T) {
	objs := []Object{
		&Blob{Data: []byte("x")},
		&Tree{Entries: []TreeEntry{{Name: "x", Hash: hashA}}},
		&Commit{TreeHash: hashA, Author: "a", Committer: "a", Timestamp: 3, Message: "m"},
	}
	for _, obj := range objs {
		got, err := ObjectOf(obj.Type(), Marshal(obj))
		if err != nil {
			t.Fatalf("ObjectOf(%s): %v", obj.Type(), err)
		}
		if diff := cmp.Diff(obj, got); diff != "" {
			t.Fatalf("%s round-trip mismatch (-want +got):\n%s", obj.Type(), diff)
		}
	}
}
