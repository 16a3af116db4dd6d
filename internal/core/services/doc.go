// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Corpus drives ingestion (discover, validate, split, embed, store) and
// snapshotting. PackageCache shares extracted remote packages between
// loaders that need them at the same time.
//
// Services are pure Go with no CGO.
package services
