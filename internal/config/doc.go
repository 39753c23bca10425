// Package config defines the format-agnostic manifest model for addons,
// along with the Loader interface for reading manifests from various
// sources.
//
// The `config.Manifest` is the single source of truth for the `app`
// bootstrap. Concrete implementations of Loader, such as for HCL and YAML,
// are provided in separate packages.
package config
