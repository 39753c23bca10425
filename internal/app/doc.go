// Package app contains the bootstrap logic. It loads addon manifests,
// registers the compiled-in Go modules and applies every addon to an
// injected environment in dependency order, decoupled from any specific
// entrypoint like a CLI or server.
package app
