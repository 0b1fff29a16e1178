// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package document

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Probe reports whether a backend can open path. A nil Probe accepts
// every path.
type Probe func(path string) bool

// RegistryEntry represents a registered document backend.
type RegistryEntry struct {
	// Name is the unique identifier for this backend.
	Name string

	// Priority determines selection order (higher = preferred).
	// Native decoders use 100, generic fallbacks 10.
	Priority int

	// Opener opens documents.
	Opener Opener

	// Probe filters paths before Opener is tried.
	Probe Probe
}

// globalRegistry is the default registry.
var globalRegistry = &Registry{}

// Registry manages registered document backends.
//
// Example registration:
//
//	func init() {
//	    document.Register("fitz", 100, Open, HasExtension(".pdf", ".epub"))
//	}
//
// Example usage:
//
//	doc, err := document.Open("manual.pdf")
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*RegistryEntry
}

// NewRegistry creates a new empty registry.
// Most code should use the global registry via Register and Open.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*RegistryEntry),
	}
}

// Register adds a backend to the global registry.
// Registering a name that already exists replaces the previous entry.
func Register(name string, priority int, opener Opener, probe Probe) {
	globalRegistry.Register(name, priority, opener, probe)
}

// Unregister removes a backend from the global registry.
func Unregister(name string) {
	globalRegistry.Unregister(name)
}

// List returns all registered backend names sorted by priority (highest first).
func List() []string {
	return globalRegistry.List()
}

// Open opens path with the best backend that accepts it.
func Open(path string) (Document, error) {
	return globalRegistry.Open(path)
}

// OpenWith opens path with a specific named backend.
func OpenWith(name, path string) (Document, error) {
	return globalRegistry.OpenWith(name, path)
}

// Register adds a backend to this registry.
func (r *Registry) Register(name string, priority int, opener Opener, probe Probe) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entries == nil {
		r.entries = make(map[string]*RegistryEntry)
	}
	if probe == nil {
		probe = func(string) bool { return true }
	}

	r.entries[name] = &RegistryEntry{
		Name:     name,
		Priority: priority,
		Opener:   opener,
		Probe:    probe,
	}
}

// Unregister removes a backend from this registry.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, name)
}

// List returns all registered backend names sorted by priority.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := r.sorted()
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}

// Open tries every backend whose probe accepts path, in priority order,
// and returns the first document that opens. If every candidate fails the
// last error is returned.
func (r *Registry) Open(path string) (Document, error) {
	r.mu.RLock()
	entries := r.sorted()
	r.mu.RUnlock()

	var lastErr error
	for _, e := range entries {
		if !e.Probe(path) {
			continue
		}
		doc, err := e.Opener(path)
		if err == nil {
			return doc, nil
		}
		lastErr = err
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, ErrNoBackendAvailable
}

// OpenWith opens path using a specific backend, ignoring its probe.
func (r *Registry) OpenWith(name, path string) (Document, error) {
	r.mu.RLock()
	entry, ok := r.entries[name]
	r.mu.RUnlock()

	if !ok {
		return nil, &BackendNotFoundError{Name: name}
	}
	return entry.Opener(path)
}

// sorted returns a copy of the entries sorted by priority (highest first),
// ties broken by name. Must be called with lock held.
func (r *Registry) sorted() []RegistryEntry {
	entries := make([]RegistryEntry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Priority != entries[j].Priority {
			return entries[i].Priority > entries[j].Priority
		}
		return entries[i].Name < entries[j].Name
	})
	return entries
}

// BackendNotFoundError indicates a named backend is not registered.
type BackendNotFoundError struct {
	Name string
}

func (e *BackendNotFoundError) Error() string {
	return "document: backend not found: " + e.Name
}

// HasExtension returns a Probe accepting paths with one of the given
// extensions, compared case-insensitively. Extensions include the dot.
func HasExtension(exts ...string) Probe {
	return func(path string) bool {
		ext := strings.ToLower(filepath.Ext(path))
		for _, e := range exts {
			if ext == strings.ToLower(e) {
				return true
			}
		}
		return false
	}
}
