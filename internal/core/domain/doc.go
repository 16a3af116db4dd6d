// Package domain defines the core entities of the corpus engine.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Address: A parsed scheme:path#fragment locator
//   - Resource: An addressable unit of content with a Kind
//   - Record: A chunk of a resource as stored in a vector store
//   - SnapshotDescriptor: The configuration document of a saved corpus
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
