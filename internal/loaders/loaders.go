// Package loaders holds what every resource loader shares: splitting
// negated locations into exclusions, exclusion matching, resource IDs and
// metadata layering. The loaders themselves live in subpackages.
package loaders

import (
	"maps"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-corpus/internal/core/domain"
	"github.com/custodia-labs/sercha-corpus/internal/core/ports/driven"
)

// NegationPrefix turns a location into an exclusion.
const NegationPrefix = "!"

// Defaults are constructor-time locations, metadata and exclusions.
// Per-call values accumulate onto them.
type Defaults struct {
	Locations  []string
	Metadata   map[string]any
	Exclusions []string
}

// Pass is one discovery pass resolved against a loader's defaults.
type Pass struct {
	Roots      []string
	Exclusions []string
	Metadata   map[string]any
	Filter     func(*domain.Resource) bool
}

// Resolve merges req onto d. Request locations replace the default
// locations; exclusions and metadata accumulate, request values winning.
func (d Defaults) Resolve(req driven.DiscoverRequest) Pass {
	locations := req.Locations
	if len(locations) == 0 {
		locations = d.Locations
	}
	roots, negated := ParseLocations(locations)

	exclusions := make([]string, 0, len(d.Exclusions)+len(req.Exclusions)+len(negated))
	exclusions = append(exclusions, d.Exclusions...)
	exclusions = append(exclusions, req.Exclusions...)
	exclusions = append(exclusions, negated...)

	return Pass{
		Roots:      roots,
		Exclusions: exclusions,
		Metadata:   MergeMetadata(d.Metadata, req.Metadata),
		Filter:     req.Filter,
	}
}

// Excluded reports whether location matches any exclusion.
func (p Pass) Excluded(location string) bool {
	return Excluded(location, p.Exclusions)
}

// Keep applies the pass filter.
func (p Pass) Keep(res *domain.Resource) bool {
	return p.Filter == nil || p.Filter(res)
}

// ParseLocations separates roots from "!"-prefixed exclusions.
func ParseLocations(locations []string) (roots, exclusions []string) {
	for _, loc := range locations {
		if rest, ok := strings.CutPrefix(loc, NegationPrefix); ok {
			if rest != "" {
				exclusions = append(exclusions, rest)
			}
			continue
		}
		roots = append(roots, loc)
	}
	return roots, exclusions
}

// Excluded reports whether any exclusion is a substring of location.
func Excluded(location string, exclusions []string) bool {
	for _, ex := range exclusions {
		if ex != "" && strings.Contains(location, ex) {
			return true
		}
	}
	return false
}

// ResourceID returns "<slug>:<address>", or "<slug>:<uuid>" for resources
// without an address.
func ResourceID(slug string, addr domain.Address) string {
	if addr.IsZero() {
		return slug + ":" + uuid.NewString()
	}
	return slug + ":" + addr.String()
}

// MergeMetadata layers maps left to right; later keys win. The result is
// always a new map.
func MergeMetadata(layers ...map[string]any) map[string]any {
	out := make(map[string]any)
	for _, layer := range layers {
		maps.Copy(out, layer)
	}
	return out
}
