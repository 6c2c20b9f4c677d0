package refs

import "strings"

const (
	// HeadName is the fixed name of the HEAD ref.
	HeadName = "HEAD"
	// RefPrefix starts every full branch or tag name.
	RefPrefix = "refs/"
	// BranchPrefix starts every full branch name.
	BranchPrefix = "refs/heads/"
	// TagPrefix starts every full tag name.
	TagPrefix = "refs/tags/"
)

// ValidName reports whether name is acceptable as a branch or tag name.
// A name is non-empty, does not start or end with '/', contains neither
// ".." nor "//", and otherwise uses only ASCII letters, digits, '-', '_',
// '.' and the '/' separator.
func ValidName(name string) bool {
	if name == "" {
		return false
	}
	if strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") {
		return false
	}
	if strings.Contains(name, "..") || strings.Contains(name, "//") {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.', c == '/':
		default:
			return false
		}
	}
	return true
}

// BranchName returns the full ref name for a branch short name.
func BranchName(short string) string { return BranchPrefix + short }

// TagName returns the full ref name for a tag short name.
func TagName(short string) string { return TagPrefix + short }

// ShortName strips the branch or tag prefix from a full ref name.
// HEAD and unknown names are returned unchanged.
func ShortName(full string) string {
	switch {
	case strings.HasPrefix(full, BranchPrefix):
		return strings.TrimPrefix(full, BranchPrefix)
	case strings.HasPrefix(full, TagPrefix):
		return strings.TrimPrefix(full, TagPrefix)
	default:
		return full
	}
}
