// Package yamlmanifest implements config.Loader for addon manifests written
// in YAML. Each file describes exactly one addon.
package yamlmanifest
