package patch

import (
	"context"
	"fmt"
)

// link is one implementation in a dispatch chain. An empty layer name
// stands for the original member.
type link struct {
	layer string
	fn    Func
}

// Call is the invocation state handed to a Func.
type Call struct {
	Target *Target
	Method string
	Args   []any

	chain []link
	pos   int
}

// Layer returns the name of the layer whose implementation is running, or
// "" for the original.
func (c *Call) Layer() string { return c.chain[c.pos].layer }

// Arg returns the i-th argument, or nil when out of range.
func (c *Call) Arg(i int) any {
	if i < 0 || i >= len(c.Args) {
		return nil
	}
	return c.Args[i]
}

// Super invokes the previous implementation with the same arguments.
func (c *Call) Super(ctx context.Context) (any, error) {
	return c.SuperWith(ctx, c.Args...)
}

// SuperWith invokes the previous implementation with new arguments.
func (c *Call) SuperWith(ctx context.Context, args ...any) (any, error) {
	next := c.pos + 1
	if next >= len(c.chain) {
		return nil, fmt.Errorf("%w: %s.%s called from layer %q", ErrMissingDelegate, c.Target.name, c.Method, c.Layer())
	}
	return c.chain[next].fn(ctx, &Call{
		Target: c.Target,
		Method: c.Method,
		Args:   args,
		chain:  c.chain,
		pos:    next,
	})
}

// Bound is a method composed with all of its layers.
type Bound func(ctx context.Context, args ...any) (any, error)

// Call dispatches method through the layer stack as it is right now.
func (t *Target) Call(ctx context.Context, method string, args ...any) (any, error) {
	bound, err := t.Resolve(method)
	if err != nil {
		return nil, err
	}
	return bound(ctx, args...)
}

// Resolve composes the current implementations of method into one
// function. Layers applied or removed afterwards do not affect the result;
// use Call for per-invocation resolution.
func (t *Target) Resolve(method string) (Bound, error) {
	t.mu.RLock()
	chain, err := t.chainLocked(method)
	t.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, args ...any) (any, error) {
		t.observer.Dispatched(t.name, method)
		return chain[0].fn(ctx, &Call{
			Target: t,
			Method: method,
			Args:   args,
			chain:  chain,
		})
	}, nil
}

// chainLocked lists the implementations of method, newest first.
func (t *Target) chainLocked(method string) ([]link, error) {
	var chain []link
	for i := len(t.layers) - 1; i >= 0; i-- {
		l := t.layers[i]
		if m, ok := l.members[method]; ok {
			chain = append(chain, link{layer: l.name, fn: m.fn})
		}
	}
	if m, ok := t.original[method]; ok {
		if m.kind != kindMethod {
			return nil, fmt.Errorf("%w: %s.%s is a value", ErrMemberKind, t.name, method)
		}
		chain = append(chain, link{fn: m.fn})
	}
	if len(chain) == 0 {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownMember, t.name, method)
	}
	return chain, nil
}

// Compose builds a Bound from base wrapped by each decorator in order, so
// the last decorator runs first. It is the layer stack without a target.
func Compose(name string, base Func, decorators ...Func) Bound {
	t := NewTarget(name, Overrides{"call": Method(base)})
	for i, d := range decorators {
		// Layer names are positional; they cannot collide.
		if _, err := t.Apply(fmt.Sprintf("%s#%d", name, i+1), Overrides{"call": Method(d)}); err != nil {
			panic(err)
		}
	}
	bound, err := t.Resolve("call")
	if err != nil {
		panic(err)
	}
	return bound
}
