package domain

import (
	"fmt"
	"strings"
	"sync"
)

// Kind classifies a resource and drives partition, splitter and validator choice.
type Kind string

// Resource kinds.
const (
	KindGeneric       Kind = "generic"
	KindCode          Kind = "code"
	KindDocument      Kind = "document"
	KindDocumentation Kind = "documentation"
	KindExample       Kind = "example"
	KindImage         Kind = "image"
)

// Default partition names.
const (
	PartitionDefault       = "default"
	PartitionCode          = "code"
	PartitionDocumentation = "documentation"
	PartitionExamples      = "examples"
)

// AllKinds returns every known kind in declaration order.
func AllKinds() []Kind {
	return []Kind{KindGeneric, KindCode, KindDocument, KindDocumentation, KindExample, KindImage}
}

// ParseKind converts a string to a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllKinds() {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: unknown resource kind %q", ErrInvalidInput, s)
}

// DefaultPartition returns the partition records of this kind are written to
// when no explicit partition is requested.
func (k Kind) DefaultPartition() string {
	switch k {
	case KindDocumentation:
		return PartitionDocumentation
	case KindCode:
		return PartitionCode
	case KindExample:
		return PartitionExamples
	default:
		return PartitionDefault
	}
}

// Splittable reports whether content of this kind is chunked before embedding.
// Images and examples are kept whole.
func (k Kind) Splittable() bool {
	return k != KindImage && k != KindExample
}

var (
	kindValidatorsMu sync.RWMutex
	kindValidators   = make(map[Kind]Validator)
)

// RegisterKindValidator sets the validator applied to every resource of kind
// when no explicit validator is supplied. A nil validator removes it.
func RegisterKindValidator(kind Kind, v Validator) {
	kindValidatorsMu.Lock()
	defer kindValidatorsMu.Unlock()
	if v == nil {
		delete(kindValidators, kind)
		return
	}
	kindValidators[kind] = v
}

// Validator returns the validator registered for this kind, or nil.
func (k Kind) Validator() Validator {
	kindValidatorsMu.RLock()
	defer kindValidatorsMu.RUnlock()
	return kindValidators[k]
}

// String returns the kind identifier.
func (k Kind) String() string {
	return string(k)
}
