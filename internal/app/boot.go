package app

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/vk/addonkit/internal/config"
	"github.com/vk/addonkit/internal/ctxlog"
	"github.com/vk/addonkit/internal/dag"
	"github.com/vk/addonkit/internal/env"
	"github.com/vk/addonkit/internal/model"
	"github.com/vk/addonkit/internal/patch"
	"github.com/vk/addonkit/internal/registry"
)

// Boot loads every manifest, registers the Go modules and applies all
// addons in dependency order. It starts from an empty environment, so it
// may be called again to reload. The first error aborts the boot.
func (a *App) Boot(ctx context.Context) (err error) {
	a.bootMu.Lock()
	defer a.bootMu.Unlock()

	ctx = ctxlog.WithLogger(ctx, a.logger)
	start := time.Now()
	loaded := 0
	defer func() {
		a.metrics.RecordBoot(time.Since(start), loaded, err)
	}()

	a.env.Reset()
	a.metrics.Reset()
	a.setLoaded(nil, nil)

	manifest, err := a.loadManifests(ctx)
	if err != nil {
		return err
	}

	modules, err := a.registerModules(ctx)
	if err != nil {
		return err
	}

	order, err := loadOrder(manifest, modules)
	if err != nil {
		return err
	}
	a.logger.Debug("Addon load order resolved.", "order", order)

	for _, name := range order {
		if err := a.loadAddon(ctxlog.WithAddon(ctx, name), manifest.Addons[name], modules[name]); err != nil {
			return fmt.Errorf("addon %q: %w", name, err)
		}
	}

	if err := a.env.Models.Validate(); err != nil {
		return fmt.Errorf("model validation failed: %w", err)
	}

	for _, name := range a.env.Handlers.Unused() {
		a.logger.Warn("Handler is registered but never referenced.", "handler", name)
	}

	a.setLoaded(manifest, order)
	loaded = len(order)
	a.logger.Info("Addons loaded.", "count", len(order), "duration", time.Since(start))
	return nil
}

func (a *App) loadManifests(ctx context.Context) (*config.Manifest, error) {
	paths := a.config.Paths()
	manifests := make([]*config.Manifest, 0, len(a.loaders))
	for _, loader := range a.loaders {
		m, err := loader.Load(ctx, paths...)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		manifests = append(manifests, m)
	}
	merged, err := config.Merge(manifests...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	a.logger.Debug("Configuration loaded and translated into unified model.", "addons", merged.Names())
	return merged, nil
}

func (a *App) registerModules(ctx context.Context) (map[string]env.Module, error) {
	byName := make(map[string]env.Module, len(a.modules))
	for _, mod := range a.modules {
		if _, dup := byName[mod.Name()]; dup {
			return nil, fmt.Errorf("go module %q registered twice", mod.Name())
		}
		byName[mod.Name()] = mod
		mod.Register(a.env.Handlers)
	}
	ctxlog.FromContext(ctx).Debug("All Go modules registered.", "count", len(a.modules))
	return byName, nil
}

// loadOrder builds the addon graph from manifests and Go modules and
// returns it in dependency order.
func loadOrder(manifest *config.Manifest, modules map[string]env.Module) ([]string, error) {
	deps := make(map[string][]string)
	for name, def := range manifest.Addons {
		deps[name] = append(deps[name], def.Depends...)
	}
	for name, mod := range modules {
		if _, ok := deps[name]; !ok {
			deps[name] = nil
		}
		if d, ok := mod.(env.Dependent); ok {
			deps[name] = append(deps[name], d.Depends()...)
		}
	}

	g := dag.New()
	names := make([]string, 0, len(deps))
	for name := range deps {
		g.Add(name)
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		for _, dep := range deps[name] {
			if err := g.Require(name, dep); err != nil {
				return nil, err
			}
		}
	}

	order, err := g.Order()
	if err != nil {
		return nil, fmt.Errorf("error validating addon dependencies: %w", err)
	}
	return order, nil
}

// loadAddon applies one addon: its Go bootstrap first, then the manifest's
// model declarations, patches and registry entries, each in file order.
func (a *App) loadAddon(ctx context.Context, def *config.AddonDefinition, mod env.Module) error {
	logger := ctxlog.FromContext(ctx)

	if b, ok := mod.(env.Bootstrapper); ok {
		logger.Debug("Running module bootstrap.", "module", mod.Name())
		if err := b.Bootstrap(ctx, a.env); err != nil {
			return fmt.Errorf("bootstrap failed: %w", err)
		}
	}
	if def == nil {
		return nil
	}
	logger.Debug("Applying addon manifest.", "source", def.Source)

	for _, decl := range def.Models {
		fields := make([]model.Field, 0, len(decl.Fields))
		for _, fd := range decl.Fields {
			fields = append(fields, fd.ToField())
		}
		if err := a.env.Models.Declare(ctx, def.Name, decl.Name, fields...); err != nil {
			return err
		}
	}

	for _, pd := range def.Patches {
		overrides, err := a.overrides(pd)
		if err != nil {
			return fmt.Errorf("patch %s: %w", pd.Target, err)
		}
		if _, err := a.env.Patches.Apply(ctx, pd.Target, pd.Layer, overrides); err != nil {
			return err
		}
	}

	for _, ed := range def.Entries {
		value, err := a.handlerValue(ed.Handler)
		if err != nil {
			return fmt.Errorf("registry %s/%s: %w", ed.Category, ed.Key, err)
		}
		var opts []registry.AddOption
		if ed.Sequence != nil {
			opts = append(opts, registry.Sequence(*ed.Sequence))
		}
		if ed.Force {
			opts = append(opts, registry.Force())
		}
		if err := a.env.Registry.Register(ctx, ed.Category, ed.Key, value, opts...); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) overrides(pd *config.PatchDefinition) (patch.Overrides, error) {
	overrides := make(patch.Overrides, len(pd.Methods)+len(pd.Values)+len(pd.Literals))
	for member, handler := range pd.Methods {
		fn, ok := a.env.Handlers.Method(handler)
		if !ok {
			return nil, fmt.Errorf("method %q: unknown method handler %q", member, handler)
		}
		overrides[member] = patch.Method(fn)
	}
	for member, handler := range pd.Values {
		v, ok := a.env.Handlers.Value(handler)
		if !ok {
			return nil, fmt.Errorf("value %q: unknown value handler %q", member, handler)
		}
		overrides[member] = patch.Value(v)
	}
	for member, lit := range pd.Literals {
		v, err := config.ToNative(lit)
		if err != nil {
			return nil, fmt.Errorf("value %q: %w", member, err)
		}
		overrides[member] = patch.Value(v)
	}
	return overrides, nil
}

// handlerValue resolves a registry entry's handler; values are preferred,
// methods are stored as patch.Func.
func (a *App) handlerValue(name string) (any, error) {
	if v, ok := a.env.Handlers.Value(name); ok {
		return v, nil
	}
	if fn, ok := a.env.Handlers.Method(name); ok {
		return fn, nil
	}
	return nil, fmt.Errorf("unknown handler %q", name)
}
