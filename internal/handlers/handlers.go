// Package handlers is the catalog of named Go implementations that addon
// manifests refer to: patch methods and plain values such as field widgets.
package handlers

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/vk/addonkit/internal/patch"
)

// Handlers holds all the registered handlers.
type Handlers struct {
	mu      sync.Mutex
	methods map[string]patch.Func
	values  map[string]any
	used    map[string]struct{}
}

// New creates and initializes a new Handlers instance.
func New() *Handlers {
	return &Handlers{
		methods: make(map[string]patch.Func),
		values:  make(map[string]any),
		used:    make(map[string]struct{}),
	}
}

// RegisterMethod registers a patch method under name.
func (h *Handlers) RegisterMethod(name string, fn patch.Func) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ensureFree(name)
	if fn == nil {
		panic(fmt.Sprintf("method handler '%s' is nil", name))
	}
	slog.Debug("Registering method handler.", "name", name)
	h.methods[name] = fn
}

// RegisterValue registers a plain value under name.
func (h *Handlers) RegisterValue(name string, v any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ensureFree(name)
	slog.Debug("Registering value handler.", "name", name)
	h.values[name] = v
}

func (h *Handlers) ensureFree(name string) {
	if _, exists := h.methods[name]; exists {
		panic(fmt.Sprintf("handler with name '%s' already registered", name))
	}
	if _, exists := h.values[name]; exists {
		panic(fmt.Sprintf("handler with name '%s' already registered", name))
	}
}

// Method returns the method registered under name and marks it used.
func (h *Handlers) Method(name string) (patch.Func, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fn, ok := h.methods[name]
	if ok {
		h.used[name] = struct{}{}
	}
	return fn, ok
}

// Value returns the value registered under name and marks it used.
func (h *Handlers) Value(name string) (any, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	v, ok := h.values[name]
	if ok {
		h.used[name] = struct{}{}
	}
	return v, ok
}

// Names returns every registered handler name, sorted.
func (h *Handlers) Names() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	names := make([]string, 0, len(h.methods)+len(h.values))
	for name := range h.methods {
		names = append(names, name)
	}
	for name := range h.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Unused returns the handlers no manifest has asked for, sorted.
func (h *Handlers) Unused() []string {
	var unused []string
	for _, name := range h.Names() {
		h.mu.Lock()
		_, ok := h.used[name]
		h.mu.Unlock()
		if !ok {
			unused = append(unused, name)
		}
	}
	return unused
}
