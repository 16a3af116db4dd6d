package services

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/sercha-corpus/internal/core/domain"
)

// continuationIndent marks a line that continues the previous field.
const continuationIndent = "       "

// PackageEntry is one stanza of a repository package index.
// Field labels are lower-cased.
type PackageEntry map[string]string

// Name returns the package name.
func (e PackageEntry) Name() string { return e["package"] }

// Version returns the package version.
func (e PackageEntry) Version() string { return e["version"] }

// ParsePackageIndex reads a listing of blank-line-separated stanzas made of
// "Field: value" lines. Lines indented by seven or more spaces continue the
// previous field. Stanzas without a package field are dropped.
func ParsePackageIndex(r io.Reader) (map[string]PackageEntry, error) {
	packages := make(map[string]PackageEntry)
	current := PackageEntry{}
	label := ""

	flush := func() {
		if name := current.Name(); name != "" {
			packages[name] = current
		}
		current = PackageEntry{}
		label = ""
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")

		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, continuationIndent):
			if label == "" {
				return nil, fmt.Errorf("%w: package index line %d: continuation without field", domain.ErrLookup, lineNo)
			}
			current[label] += " " + strings.TrimLeft(line, " \t")
		default:
			name, value, ok := strings.Cut(line, ":")
			if !ok {
				return nil, fmt.Errorf("%w: package index line %d: missing ':'", domain.ErrLookup, lineNo)
			}
			label = strings.ToLower(strings.TrimSpace(name))
			current[label] = strings.TrimSpace(value)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading package index: %w", err)
	}
	flush()

	return packages, nil
}

// splitPackageSpec splits "name@version". The version is empty when absent.
func splitPackageSpec(location string) (name, version string) {
	name, version, _ = strings.Cut(location, "@")
	return name, version
}
