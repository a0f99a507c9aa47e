package resolver

import (
	"path/filepath"
	"strings"

	"tyck/internal/source"
)

// TrustPolicy marks locations whose declarations are exempt from the rule
// that classes only have invariant type members. Trusted locations may also
// declare overloaded methods.
type TrustPolicy interface {
	Trusted(loc source.Span) bool
}

// PayloadTrust trusts locations without a file, locations in payload files
// and, when Prefixes is set, files whose path starts with one of them.
type PayloadTrust struct {
	Files       *source.FileSet
	PayloadFile source.FileID
	Prefixes    []string
}

func (p PayloadTrust) Trusted(loc source.Span) bool {
	if !loc.Exists() || loc.File == p.PayloadFile {
		return true
	}
	if p.Files == nil {
		return false
	}
	f := p.Files.Get(loc.File)
	if f == nil || f.IsPayload() {
		return true
	}
	path := filepath.ToSlash(f.Path)
	for _, prefix := range p.Prefixes {
		if prefix != "" && strings.HasPrefix(path, filepath.ToSlash(prefix)) {
			return true
		}
	}
	return false
}
