package object

// Hash is a 40-character lowercase hex-encoded 160-bit digest. The empty
// Hash is the zero value and never addresses an object.
type Hash string

// ZeroHash marks an unborn ref target.
const ZeroHash Hash = ""

// HashSize is the raw byte width of a digest.
const HashSize = 20

// IsZero reports whether h is the empty digest.
func (h Hash) IsZero() bool { return h == ZeroHash }

// Short returns the first 8 characters of h for display.
func (h Hash) Short() string {
	if len(h) > 8 {
		return string(h[:8])
	}
	return string(h)
}

// IsValidHash reports whether s is a well-formed digest: exactly 40
// lowercase hex characters. Shape says nothing about existence.
func IsValidHash(s string) bool {
	if len(s) != 2*HashSize {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// ObjectType identifies the kind of object stored.
type ObjectType string

const (
	TypeBlob   ObjectType = "blob"
	TypeTree   ObjectType = "tree"
	TypeCommit ObjectType = "commit"
)

// Types lists every object type in a fixed order.
var Types = []ObjectType{TypeBlob, TypeTree, TypeCommit}

// Valid reports whether t is one of the known object types.
func (t ObjectType) Valid() bool {
	switch t {
	case TypeBlob, TypeTree, TypeCommit:
		return true
	default:
		return false
	}
}

const (
	// Tree mode constants compatible with Git's canonical mode strings.
	TreeModeDir        = "40000"
	TreeModeFile       = "100644"
	TreeModeExecutable = "100755"
	TreeModeSymlink    = "120000"
	TreeModeSubmodule  = "160000"
)

// Object is one of *Blob, *Tree or *Commit. The set is closed; switches
// over Object handle exactly those three.
type Object interface {
	Type() ObjectType
	isObject()
}

// Blob holds raw file data.
type Blob struct {
	Data []byte
}

// TreeEntry is one entry in a tree object. Mode is optional.
type TreeEntry struct {
	Mode string
	Name string
	Hash Hash
}

// IsDir reports whether the entry is marked as a subtree.
func (e TreeEntry) IsDir() bool { return e.Mode == TreeModeDir }

// Tree holds a list of entries, serialized sorted by Name.
type Tree struct {
	Entries []TreeEntry
}

// Commit points to a tree and zero or more parents. Parent order is
// significant: the first parent is the mainline.
type Commit struct {
	TreeHash  Hash
	Parents   []Hash
	Author    string
	Committer string
	Timestamp int64 // seconds since the Unix epoch, UTC
	Message   string
}

func (*Blob) Type() ObjectType   { return TypeBlob }
func (*Tree) Type() ObjectType   { return TypeTree }
func (*Commit) Type() ObjectType { return TypeCommit }

func (*Blob) isObject()   {}
func (*Tree) isObject()   {}
func (*Commit) isObject() {}
