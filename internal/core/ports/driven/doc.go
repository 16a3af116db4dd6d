// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - VectorStore: Partitioned record persistence and query
//   - SchemeRegistry / SchemeHandler: Address resolution and reading
//   - Loader: Resource discovery for one scheme
//   - ResourceEmbedder: Validation and chunking per resource kind
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the corresponding features are unavailable:
//
//   - EmbeddingFunction: Records are stored without vectors; queries fall back to term overlap.
//   - ModuleLocator: The py-mod scheme cannot resolve modules.
//   - PackageFetcher / PackageCache: The rcran-package scheme cannot fetch packages.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, loader or scheme package
package driven
