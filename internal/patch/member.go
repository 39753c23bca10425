package patch

import (
	"context"
	"sort"
)

// Func is a method implementation. The call carries the arguments and the
// handle used to delegate to the previous implementation.
type Func func(ctx context.Context, call *Call) (any, error)

type memberKind int

const (
	kindValue memberKind = iota + 1
	kindMethod
)

func (k memberKind) String() string {
	switch k {
	case kindValue:
		return "value"
	case kindMethod:
		return "method"
	default:
		return "invalid"
	}
}

// Member is a single entry of a target or a layer: either a method or a value.
type Member struct {
	fn    Func
	value any
	kind  memberKind
}

// Method wraps fn as a method member.
func Method(fn Func) Member {
	return Member{fn: fn, kind: kindMethod}
}

// Value wraps v as a value member.
func Value(v any) Member {
	return Member{value: v, kind: kindValue}
}

// IsMethod reports whether the member is a method.
func (m Member) IsMethod() bool { return m.kind == kindMethod }

// Overrides maps member names to members.
type Overrides map[string]Member

func (o Overrides) clone() Overrides {
	out := make(Overrides, len(o))
	for name, m := range o {
		out[name] = m
	}
	return out
}

// sortedNames keeps validation errors deterministic.
func (o Overrides) sortedNames() []string {
	names := make([]string, 0, len(o))
	for name := range o {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Observer receives notifications about layer changes and dispatches.
type Observer interface {
	LayerApplied(target, layer string)
	LayerRemoved(target, layer string)
	Dispatched(target, method string)
}

type nopObserver struct{}

func (nopObserver) LayerApplied(string, string) {}
func (nopObserver) LayerRemoved(string, string) {}
func (nopObserver) Dispatched(string, string)   {}
