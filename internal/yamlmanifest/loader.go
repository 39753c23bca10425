package yamlmanifest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/vk/addonkit/internal/config"
	"github.com/vk/addonkit/internal/ctxlog"
	"github.com/vk/addonkit/internal/fsutil"
	"github.com/vk/addonkit/internal/model"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"
)

// Loader is the YAML implementation of config.Loader.
type Loader struct{}

// NewLoader creates a new YAML manifest loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Extensions implements config.Loader.
func (l *Loader) Extensions() []string {
	return []string{".yaml", ".yml"}
}

// Load implements config.Loader.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Manifest, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("YAML loader started.", "path_count", len(paths))

	files, err := fsutil.FindFiles(paths, l.Extensions()...)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered YAML files.", "count", len(files))

	manifest := config.NewManifest()
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read manifest %s: %w", file, err)
		}
		def, err := Parse(data, file)
		if err != nil {
			return nil, err
		}
		if err := manifest.Add(def); err != nil {
			return nil, err
		}
	}

	logger.Debug("YAML loading complete.", "addons", len(manifest.Addons))
	return manifest, nil
}

// Parse decodes a single YAML manifest. Unknown keys and further
// documents after the first are rejected.
func Parse(data []byte, filename string) (*config.AddonDefinition, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("manifest %s is empty", filename)
		}
		return nil, fmt.Errorf("failed to decode YAML file %s: %w", filename, err)
	}
	var extra yaml.Node
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, fmt.Errorf("failed to decode YAML file %s: %w", filename, err)
		}
		return nil, fmt.Errorf("manifest %s holds more than one document; use one file per addon", filename)
	}
	if doc.Addon == "" {
		return nil, fmt.Errorf("manifest %s: missing 'addon' name", filename)
	}

	def, err := translate(&doc)
	if err != nil {
		return nil, fmt.Errorf("in %s: addon '%s': %w", filename, doc.Addon, err)
	}
	def.Source = filename
	return def, nil
}

func translate(doc *document) (*config.AddonDefinition, error) {
	def := &config.AddonDefinition{
		Name:    doc.Addon,
		Version: doc.Version,
		Summary: doc.Summary,
		Depends: doc.Depends,
	}

	for _, m := range doc.Models {
		decl := &config.ModelDeclaration{Name: m.Name}
		for _, f := range m.Fields {
			ft, err := model.ParseFieldType(f.Type)
			if err != nil {
				return nil, fmt.Errorf("model '%s', field '%s': %w", m.Name, f.Name, err)
			}
			fd := &config.FieldDefinition{
				Name:      f.Name,
				Type:      ft,
				Relation:  f.Relation,
				Inverse:   f.Inverse,
				Label:     f.Label,
				Required:  f.Required,
				Readonly:  f.Readonly,
				Selection: f.Selection,
			}
			if f.Default != nil {
				v, err := config.FromNative(f.Default)
				if err != nil {
					return nil, fmt.Errorf("model '%s', field '%s': invalid default: %w", m.Name, f.Name, err)
				}
				fd.Default = &v
			}
			decl.Fields = append(decl.Fields, fd)
		}
		def.Models = append(def.Models, decl)
	}

	for _, p := range doc.Patches {
		pd := &config.PatchDefinition{
			Target:   p.Target,
			Layer:    p.Layer,
			Methods:  p.Methods,
			Values:   p.Values,
			Literals: make(map[string]cty.Value, len(p.Literals)),
		}
		if pd.Layer == "" {
			pd.Layer = doc.Addon
		}
		if pd.Methods == nil {
			pd.Methods = map[string]string{}
		}
		if pd.Values == nil {
			pd.Values = map[string]string{}
		}

		names := make([]string, 0, len(p.Literals))
		for name := range p.Literals {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			_, inMethods := pd.Methods[name]
			if _, inValues := pd.Values[name]; inMethods || inValues {
				return nil, fmt.Errorf("patch '%s': member '%s' overridden twice", p.Target, name)
			}
			v, err := config.FromNative(p.Literals[name])
			if err != nil {
				return nil, fmt.Errorf("patch '%s': literal '%s': %w", p.Target, name, err)
			}
			pd.Literals[name] = v
		}
		for name := range pd.Values {
			if _, inMethods := pd.Methods[name]; inMethods {
				return nil, fmt.Errorf("patch '%s': member '%s' overridden twice", p.Target, name)
			}
		}
		def.Patches = append(def.Patches, pd)
	}

	for _, e := range doc.Registry {
		def.Entries = append(def.Entries, &config.EntryDefinition{
			Category: e.Category,
			Key:      e.Key,
			Handler:  e.Handler,
			Sequence: e.Sequence,
			Force:    e.Force,
		})
	}

	return def, nil
}
