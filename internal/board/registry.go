package board

import (
	"fmt"
	"sort"
	"strings"
)

// UnknownBoardError is returned when a requested board key is not registered.
type UnknownBoardError struct {
	Key   string
	Known []string
}

func (e *UnknownBoardError) Error() string {
	return fmt.Sprintf("unknown board %q (available: %s)", e.Key, strings.Join(e.Known, ", "))
}

// Registry maps board keys to profiles. It is built once at startup and has
// no mutating methods.
type Registry struct {
	profiles map[string]Profile
	keys     []string
}

// NewRegistry validates and indexes profiles; duplicate keys are rejected.
func NewRegistry(profiles ...Profile) (*Registry, error) {
	r := &Registry{profiles: make(map[string]Profile, len(profiles))}
	for _, p := range profiles {
		if err := p.validate(); err != nil {
			return nil, err
		}
		if _, dup := r.profiles[p.Key]; dup {
			return nil, fmt.Errorf("board %s registered twice", p.Key)
		}
		r.profiles[p.Key] = p.clone()
		r.keys = append(r.keys, p.Key)
	}
	sort.Strings(r.keys)
	return r, nil
}

// Lookup returns a copy of the profile registered under key.
func (r *Registry) Lookup(key string) (Profile, error) {
	if p, ok := r.profiles[key]; ok {
		return p.clone(), nil
	}
	return Profile{}, &UnknownBoardError{Key: key, Known: r.Keys()}
}

// Keys lists registered board keys in sorted order.
func (r *Registry) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Select expands a comma-separated board selection ("all" for every board)
// into profiles, preserving the requested order.
func (r *Registry) Select(selection string) ([]Profile, error) {
	selection = strings.TrimSpace(selection)
	if selection == "" || strings.EqualFold(selection, "all") {
		out := make([]Profile, 0, len(r.keys))
		for _, k := range r.keys {
			out = append(out, r.profiles[k].clone())
		}
		return out, nil
	}

	var out []Profile
	seen := map[string]struct{}{}
	for _, raw := range strings.Split(selection, ",") {
		key := strings.TrimSpace(raw)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		p, err := r.Lookup(key)
		if err != nil {
			return nil, err
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return out, nil
}
