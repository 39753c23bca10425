// Package patch implements layered overrides on shared targets.
//
// A Target is a named, long-lived object made of members: methods (Func) and
// plain values. Addons never copy a target; they stack Layers on it. Each
// layer maps member names to replacements. Dispatch walks the stack from the
// most recently applied layer down to the original members, and every
// method receives a Call whose Super handle invokes the next-older
// implementation.
//
// The chain for a method is resolved when a call starts, not when a layer is
// applied. Layers come off a target in LIFO order only, which lets test
// teardown restore the exact prior state with Unpatch.
//
// Application happens during bootstrap on a single goroutine. Targets and
// the Registry are guarded by RWMutexes so that a booted environment can be
// read from several goroutines.
package patch
