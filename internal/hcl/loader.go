package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/addonkit/internal/config"
	"github.com/vk/addonkit/internal/ctxlog"
	"github.com/vk/addonkit/internal/fsutil"
	"github.com/vk/addonkit/internal/schema"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL manifest loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Extensions implements config.Loader.
func (l *Loader) Extensions() []string {
	return []string{".hcl"}
}

// Load parses every .hcl file under paths. A file may declare any number of
// addon blocks; unknown top-level blocks are an error.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Manifest, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.FindFiles(paths, l.Extensions()...)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	manifest := config.NewManifest()
	parser := hclparse.NewParser()

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root schema.File
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		for _, addon := range root.Addons {
			def, err := translateAddon(ctx, addon, file)
			if err != nil {
				return nil, fmt.Errorf("in %s: %w", file, err)
			}
			if err := manifest.Add(def); err != nil {
				return nil, err
			}
		}
	}

	logger.Debug("HCL loading complete.", "addons", len(manifest.Addons))
	return manifest, nil
}
