package domain

import "strings"

// Kind distinguishes the two lookup key shapes accepted by catalogs.
type Kind string

const (
	KindCAS         Kind = "cas"
	KindProductName Kind = "product"
)

// Valid reports whether the kind is one of the two supported values.
func (k Kind) Valid() bool {
	return k == KindCAS || k == KindProductName
}

// Identifier is a lookup key tagged with its kind. A CAS identifier is
// expected to roughly match \d{2,7}-\d{2}-\d but is never rejected here;
// adapters simply yield nothing for keys the catalog does not know.
type Identifier struct {
	Value string
	Kind  Kind
}

// NewIdentifier builds an identifier, trimming surrounding whitespace.
func NewIdentifier(value string, kind Kind) Identifier {
	return Identifier{Value: strings.TrimSpace(value), Kind: kind}
}

// FileName derives the deterministic, filesystem-safe name a downloaded
// sheet for this identifier is stored under. Whitespace and path
// separators collapse to underscores so product names stay one file each.
func (id Identifier) FileName(ext string) string {
	safe := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '/', '\\', ':':
			return '_'
		}
		return r
	}, id.Value)

	if ext == "" {
		ext = "pdf"
	}
	return safe + "-SDS." + strings.TrimPrefix(ext, ".")
}
