package config

import "context"

// Loader is the interface for a format-specific manifest loader.
type Loader interface {
	// Extensions lists the file extensions the loader understands,
	// including the leading dot.
	Extensions() []string

	// Load reads every matching manifest under the given paths and
	// translates them into the format-agnostic model.
	Load(ctx context.Context, paths ...string) (*Manifest, error)
}
