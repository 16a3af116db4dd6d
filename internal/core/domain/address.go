package domain

import (
	"fmt"
	"path"
	"strings"
)

// Well-known scheme identifiers.
const (
	SchemeFile          = "file"
	SchemeDocumentation = "documentation"
	SchemeExamples      = "examples"
	SchemePyModule      = "py-mod"
	SchemeZippedFile    = "zipped-file"
	SchemeRPackage      = "rcran-package"
	SchemeCorpus        = "corpus"
)

// Address is a parsed resource locator of the form scheme:path[#fragment].
// An optional //authority may follow the scheme separator.
// Addresses are values; the zero Address means "no source".
type Address struct {
	raw          string
	scheme       string
	authority    string
	path         string
	fragment     string
	hasAuthority bool
	hasFragment  bool
}

// ParseAddress parses a location string into an Address.
// A location without a recognisable scheme prefix is treated as a bare path
// with an empty scheme. Single-letter prefixes are not schemes, so Windows
// drive letters stay part of the path.
func ParseAddress(location string) (Address, error) {
	if location == "" {
		return Address{}, fmt.Errorf("%w: empty location", ErrInvalidAddress)
	}

	a := Address{raw: location}
	rest := location

	if i := strings.IndexByte(location, ':'); i > 1 && isScheme(location[:i]) {
		a.scheme = location[:i]
		rest = location[i+1:]
	}

	if i := strings.IndexByte(rest, '#'); i >= 0 {
		a.fragment = rest[i+1:]
		a.hasFragment = true
		rest = rest[:i]
	}

	if a.scheme != "" && strings.HasPrefix(rest, "//") {
		rest = rest[2:]
		a.hasAuthority = true
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			a.authority = rest[:i]
			rest = rest[i:]
		} else {
			a.authority = rest
			rest = ""
		}
	}

	a.path = rest
	if a.scheme != "" && a.path == "" && a.authority == "" {
		return Address{}, fmt.Errorf("%w: %q has no path", ErrInvalidAddress, location)
	}
	return a, nil
}

// MustParseAddress is like ParseAddress but panics on error.
// Intended for constants and tests.
func MustParseAddress(location string) Address {
	a, err := ParseAddress(location)
	if err != nil {
		panic(err)
	}
	return a
}

// NewAddress builds an address from its parts.
// An empty fragment is omitted.
func NewAddress(scheme, p, fragment string) (Address, error) {
	if scheme != "" && !isScheme(scheme) {
		return Address{}, fmt.Errorf("%w: bad scheme %q", ErrInvalidAddress, scheme)
	}
	var b strings.Builder
	if scheme != "" {
		b.WriteString(scheme)
		b.WriteByte(':')
	}
	b.WriteString(p)
	if fragment != "" {
		b.WriteByte('#')
		b.WriteString(fragment)
	}
	return ParseAddress(b.String())
}

// Scheme returns the scheme token, or "" for bare paths.
func (a Address) Scheme() string { return a.scheme }

// Authority returns the //authority component, if any.
func (a Address) Authority() string { return a.authority }

// Path returns the path component.
func (a Address) Path() string { return a.path }

// Fragment returns the fragment following '#', if any.
func (a Address) Fragment() string { return a.fragment }

// HasFragment reports whether the address carried a '#'.
func (a Address) HasFragment() bool { return a.hasFragment }

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool { return a.raw == "" }

// String returns the address exactly as it was parsed or built.
func (a Address) String() string { return a.raw }

// Ext returns the extension of the last path element, including the dot.
func (a Address) Ext() string {
	return path.Ext(a.path)
}

// WithScheme returns the same address under a different scheme token.
func (a Address) WithScheme(scheme string) (Address, error) {
	rest := strings.TrimPrefix(a.raw, a.scheme+":")
	if a.scheme == "" {
		rest = a.raw
	}
	return ParseAddress(scheme + ":" + rest)
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.raw), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
// Empty input yields the zero Address.
func (a *Address) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*a = Address{}
		return nil
	}
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// isScheme reports whether s matches [A-Za-z][A-Za-z0-9+.-_]*.
func isScheme(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '+' || r == '.' || r == '-' || r == '_'):
		default:
			return false
		}
	}
	return true
}
