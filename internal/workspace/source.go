package workspace

import "strings"

// Source describes where an AgentInstance's copy of the source tree
// comes from: either a remote repository URL or a local directory path,
// plus an optional branch/ref (§4.1).
type Source struct {
	// URL is a remote repository URL. Mutually exclusive with Path.
	URL string
	// Path is a local directory path. Mutually exclusive with URL.
	Path string
	// Ref is an optional branch or commit-ish; defaults to the
	// remote's default branch or the local tree's current checkout.
	Ref string
}

// IsRemote reports whether this source names a remote repository
// rather than a local path.
func (s Source) IsRemote() bool {
	return s.URL != ""
}

// ParseSource classifies a raw §6 "source" string (either a remote
// repository URL or a local workspace path) into a Source.
func ParseSource(raw string) Source {
	if looksLikeURL(raw) {
		return Source{URL: raw}
	}
	return Source{Path: raw}
}

func looksLikeURL(s string) bool {
	for _, prefix := range []string{"http://", "https://", "git://", "ssh://", "git@"} {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}
