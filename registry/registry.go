// Package registry maintains the set of known inference models and
// resolves human labels to backend-addressable model names.
package registry

import (
	"context"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/pharo-llm/pharo-copilot/logger"
)

// NullModelName is the reserved sentinel model. Generating against it
// bypasses the network and returns a fixed placeholder, so the pipeline
// stays visibly operational before any real model is configured.
const NullModelName = "pharo-copilot-null"

// NullModelSpec is the statically known spec for the null model.
var NullModelSpec = ModelSpec{Family: NullModelName, Label: "Null model"}

// ModelSpec identifies an inference model.
type ModelSpec struct {
	Family string // base model identifier, e.g. "codellama"
	Tag    string // optional variant/size qualifier, e.g. "7b"
	Label  string // human-readable display name
}

// FullName is the backend-addressable name: the family alone, or
// "family:tag" when a tag is present. Never a trailing colon.
func (s ModelSpec) FullName() string {
	if s.Tag == "" {
		return s.Family
	}
	return s.Family + ":" + s.Tag
}

// ParseFullName splits a backend model name into family and tag.
func ParseFullName(name string) (family, tag string) {
	if i := strings.IndexByte(name, ':'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return name, ""
}

// Snapshot is an immutable view of the registry: two exact-match lookup
// tables built wholesale from one list of specs. It is replaced, never
// edited, on refresh.
type Snapshot struct {
	specs      []ModelSpec
	byFullName map[string]ModelSpec
	byLabel    map[string]ModelSpec
}

func buildSnapshot(specs []ModelSpec) *Snapshot {
	snap := &Snapshot{
		specs:      specs,
		byFullName: make(map[string]ModelSpec, len(specs)),
		byLabel:    make(map[string]ModelSpec, len(specs)),
	}
	for _, spec := range specs {
		snap.byFullName[spec.FullName()] = spec
		if _, taken := snap.byLabel[spec.Label]; !taken {
			snap.byLabel[spec.Label] = spec
		}
	}
	return snap
}

// Lister is the backend's read-only model listing boundary.
type Lister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// DisplayEntry is one label→fullName pair for presentation.
type DisplayEntry struct {
	Label    string
	FullName string
}

// Registry holds the current snapshot and knows how to rebuild it from
// the statically declared specs merged with backend-discovered models.
type Registry struct {
	static []ModelSpec
	lister Lister
	snap   atomic.Pointer[Snapshot]
}

// New builds a registry seeded with the static specs. The null model is
// always present. lister may be nil, in which case refresh keeps only the
// static specs.
func New(static []ModelSpec, lister Lister) *Registry {
	r := &Registry{
		static: append([]ModelSpec{NullModelSpec}, static...),
		lister: lister,
	}
	r.snap.Store(buildSnapshot(r.static))
	return r
}

// Refresh rebuilds the snapshot by merging the static specs with models
// discovered from the backend. An unreachable backend is logged and
// swallowed: the statically declared specs stay available, so a transient
// network failure can never empty the registry.
func (r *Registry) Refresh(ctx context.Context) {
	specs := append([]ModelSpec{}, r.static...)

	if r.lister != nil {
		names, err := r.lister.ListModels(ctx)
		if err != nil {
			logger.Warn("model listing unavailable, keeping static registry: %v", err)
		} else {
			known := make(map[string]bool, len(specs))
			for _, spec := range specs {
				known[spec.FullName()] = true
			}
			for _, name := range names {
				if known[name] {
					continue
				}
				family, tag := ParseFullName(name)
				specs = append(specs, ModelSpec{Family: family, Tag: tag, Label: name})
				known[name] = true
			}
		}
	}

	r.snap.Store(buildSnapshot(specs))
	logger.Debug("registry refreshed: %d models", len(specs))
}

// ResolveFullName looks up a spec by its backend-addressable name.
func (r *Registry) ResolveFullName(name string) (ModelSpec, bool) {
	spec, ok := r.snap.Load().byFullName[name]
	return spec, ok
}

// ResolveLabel looks up a spec by its display label.
func (r *Registry) ResolveLabel(label string) (ModelSpec, bool) {
	spec, ok := r.snap.Load().byLabel[label]
	return spec, ok
}

// ListForDisplay returns label→fullName pairs sorted by label. Order is a
// presentation choice, not a correctness invariant.
func (r *Registry) ListForDisplay() []DisplayEntry {
	snap := r.snap.Load()
	entries := make([]DisplayEntry, 0, len(snap.specs))
	for _, spec := range snap.specs {
		entries = append(entries, DisplayEntry{Label: spec.Label, FullName: spec.FullName()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Label < entries[j].Label })
	return entries
}
