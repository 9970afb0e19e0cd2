package provider

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/agnivade/levenshtein"
)

// maxSuggestDistance bounds how far a typo can be from a known ID and still be suggested.
const maxSuggestDistance = 3

// File is the providers.toml layout.
type File struct {
	Version  int                 `toml:"version"`
	Provider map[string]Provider `toml:"provider"`
}

// UnknownError is returned when an ID has no provider.
type UnknownError struct {
	ID         string
	Suggestion string
}

func (e *UnknownError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("unknown provider %q (did you mean %q?)", e.ID, e.Suggestion)
	}
	return fmt.Sprintf("unknown provider %q", e.ID)
}

// Registry holds the known providers.
type Registry struct {
	byID map[string]Provider
}

// NewRegistry validates ps and indexes them. Later entries replace earlier ones with the same ID.
func NewRegistry(ps ...Provider) (*Registry, error) {
	r := &Registry{byID: make(map[string]Provider, len(ps))}
	for _, p := range ps {
		p.ID = normalize(p.ID)
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if strings.TrimSpace(p.Name) == "" {
			p.Name = p.ID
		}
		r.byID[p.ID] = p
	}
	return r, nil
}

// Load returns the defaults merged with the providers in path. A missing file is not an error.
func Load(path string) (*Registry, error) {
	ps := Defaults()
	if strings.TrimSpace(path) == "" {
		return NewRegistry(ps...)
	}
	var f File
	if _, err := toml.DecodeFile(path, &f); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewRegistry(ps...)
		}
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	ids := make([]string, 0, len(f.Provider))
	for id := range f.Provider {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		p := f.Provider[id]
		p.ID = id
		ps = append(ps, p)
	}
	r, err := NewRegistry(ps...)
	if err != nil {
		return nil, fmt.Errorf("validate %s: %w", path, err)
	}
	return r, nil
}

// Get returns the provider for id, ignoring case and surrounding space.
func (r *Registry) Get(id string) (Provider, bool) {
	p, ok := r.byID[normalize(id)]
	return p, ok
}

// Lookup is Get with an *UnknownError carrying a suggestion on miss.
func (r *Registry) Lookup(id string) (Provider, error) {
	if p, ok := r.Get(id); ok {
		return p, nil
	}
	s, _ := r.Suggest(id)
	return Provider{}, &UnknownError{ID: id, Suggestion: s}
}

// Suggest returns the known ID closest to id by edit distance.
func (r *Registry) Suggest(id string) (string, bool) {
	id = normalize(id)
	if id == "" {
		return "", false
	}
	best, bestDist := "", maxSuggestDistance+1
	for _, known := range r.IDs() {
		d := levenshtein.ComputeDistance(id, known)
		if d < bestDist {
			best, bestDist = known, d
		}
	}
	return best, best != ""
}

// IDs returns the known IDs sorted.
func (r *Registry) IDs() []string {
	out := make([]string, 0, len(r.byID))
	for id := range r.byID {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// List returns the providers sorted by ID.
func (r *Registry) List() []Provider {
	out := make([]Provider, 0, len(r.byID))
	for _, id := range r.IDs() {
		out = append(out, r.byID[id])
	}
	return out
}

func normalize(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
