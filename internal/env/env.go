// Package env bundles the registries an addon works against. An Env is built
// once per boot and handed to every addon explicitly; there is no package
// level state, and Reset returns it to the empty state between runs.
package env

import (
	"context"

	"github.com/vk/addonkit/internal/handlers"
	"github.com/vk/addonkit/internal/model"
	"github.com/vk/addonkit/internal/patch"
	"github.com/vk/addonkit/internal/registry"
)

// Observer receives events from all three registries.
type Observer interface {
	patch.Observer
	model.Observer
	registry.Observer
}

// Env is the environment injected into addons.
type Env struct {
	Patches  *patch.Registry
	Models   *model.Registry
	Registry *registry.Registry
	Handlers *handlers.Handlers
}

type options struct {
	policy   registry.DuplicatePolicy
	observer Observer
}

// Option configures an Env.
type Option func(*options)

// WithDuplicatePolicy sets the policy of the category/key registry.
func WithDuplicatePolicy(p registry.DuplicatePolicy) Option {
	return func(o *options) { o.policy = p }
}

// WithObserver wires one observer into every registry.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

// New creates an empty environment.
func New(opts ...Option) *Env {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var (
		patchOpts    []patch.Option
		modelOpts    []model.Option
		registryOpts = []registry.Option{registry.WithDuplicatePolicy(o.policy)}
	)
	if o.observer != nil {
		patchOpts = append(patchOpts, patch.WithObserver(o.observer))
		modelOpts = append(modelOpts, model.WithObserver(o.observer))
		registryOpts = append(registryOpts, registry.WithObserver(o.observer))
	}

	return &Env{
		Patches:  patch.NewRegistry(patchOpts...),
		Models:   model.NewRegistry(modelOpts...),
		Registry: registry.New(registryOpts...),
		Handlers: handlers.New(),
	}
}

// Reset clears every registry and the handler catalog. Configuration such
// as the duplicate policy and observer is kept.
func (e *Env) Reset() {
	e.Patches.Reset()
	e.Models.Reset()
	e.Registry.Reset()
	e.Handlers = handlers.New()
}

// Module is a Go addon. It contributes named handlers that manifests refer
// to. A module whose Name matches a manifest addon is loaded in that
// addon's slot; otherwise it is an addon on its own.
type Module interface {
	Name() string
	Register(h *handlers.Handlers)
}

// Bootstrapper is implemented by modules that need to act on the
// environment directly, for example to define patch targets. Bootstrap runs
// before the addon's manifest is applied.
type Bootstrapper interface {
	Bootstrap(ctx context.Context, e *Env) error
}

// Dependent is implemented by modules that depend on other addons.
type Dependent interface {
	Depends() []string
}
