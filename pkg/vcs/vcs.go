// Package vcs keeps the catalog of version control backends vcgate knows
// about.
package vcs

import (
	"errors"
	"fmt"
	"sync"
)

// ErrUnknownBackend is returned when a backend kind is not registered.
var ErrUnknownBackend = errors.New("unknown vcs backend")

// Backend describes a version control system.
type Backend struct {
	// Kind is the identifier stored in repositories, such as "git".
	Kind string `json:"kind"`
	// Name is the human-readable name used in messages.
	Name string `json:"name"`
	// AtomicCommits is true when commits carry a repository-wide revision.
	AtomicCommits bool `json:"atomic_commits"`
}

var (
	mu       sync.RWMutex
	backends = map[string]Backend{}
	order    []string
)

// Register adds or replaces a backend.
func Register(b Backend) {
	mu.Lock()
	defer mu.Unlock()
	if _, ok := backends[b.Kind]; !ok {
		order = append(order, b.Kind)
	}
	backends[b.Kind] = b
}

// Lookup returns the backend of the given kind.
func Lookup(kind string) (Backend, error) {
	mu.RLock()
	defer mu.RUnlock()
	b, ok := backends[kind]
	if !ok {
		return Backend{}, fmt.Errorf("%w: %q", ErrUnknownBackend, kind)
	}
	return b, nil
}

// Name returns the human-readable name of the backend kind, or the kind
// itself when it isn't registered.
func Name(kind string) string {
	b, err := Lookup(kind)
	if err != nil {
		return kind
	}
	return b.Name
}

// List returns the registered backends in registration order.
func List() []Backend {
	mu.RLock()
	defer mu.RUnlock()
	bs := make([]Backend, 0, len(order))
	for _, k := range order {
		bs = append(bs, backends[k])
	}
	return bs
}

func init() {
	Register(Backend{Kind: "git", Name: "Git", AtomicCommits: true})
	Register(Backend{Kind: "svn", Name: "Subversion", AtomicCommits: true})
	Register(Backend{Kind: "hg", Name: "Mercurial", AtomicCommits: true})
	Register(Backend{Kind: "cvs", Name: "CVS"})
}
