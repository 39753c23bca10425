package yamlmanifest

// document is the YAML shape of a single addon manifest.
type document struct {
	Addon    string     `yaml:"addon"`
	Version  string     `yaml:"version,omitempty"`
	Summary  string     `yaml:"summary,omitempty"`
	Depends  []string   `yaml:"depends,omitempty"`
	Models   []modelDoc `yaml:"models,omitempty"`
	Patches  []patchDoc `yaml:"patches,omitempty"`
	Registry []entryDoc `yaml:"registry,omitempty"`
}

type modelDoc struct {
	Name   string     `yaml:"name"`
	Fields []fieldDoc `yaml:"fields"`
}

type fieldDoc struct {
	Name      string   `yaml:"name"`
	Type      string   `yaml:"type"`
	Relation  string   `yaml:"relation,omitempty"`
	Inverse   string   `yaml:"inverse,omitempty"`
	Label     string   `yaml:"string,omitempty"`
	Required  bool     `yaml:"required,omitempty"`
	Readonly  bool     `yaml:"readonly,omitempty"`
	Selection []string `yaml:"selection,omitempty"`
	Default   any      `yaml:"default,omitempty"`
}

type patchDoc struct {
	Target   string            `yaml:"target"`
	Layer    string            `yaml:"layer,omitempty"`
	Methods  map[string]string `yaml:"methods,omitempty"`
	Values   map[string]string `yaml:"values,omitempty"`
	Literals map[string]any    `yaml:"literals,omitempty"`
}

type entryDoc struct {
	Category string `yaml:"category"`
	Key      string `yaml:"key"`
	Handler  string `yaml:"handler"`
	Sequence *int   `yaml:"sequence,omitempty"`
	Force    bool   `yaml:"force,omitempty"`
}
