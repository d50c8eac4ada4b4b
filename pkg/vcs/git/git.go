// Package git reads pushed git references into operation proposals.
package git

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-git/go-billy/v5/helper/mount"
	"github.com/go-git/go-billy/v5/helper/polyfill"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/storage/filesystem"
	"github.com/go-git/go-git/v5/storage/filesystem/dotgit"
)

// QuarantineEnv is set by git-receive-pack to the directory holding the
// pushed objects until the pre-receive hook accepts them.
const QuarantineEnv = "GIT_QUARANTINE_PATH"

const (
	branchPrefix = "refs/heads/"
	tagPrefix    = "refs/tags/"
)

// ErrInvalidRef is returned for a reference update that isn't a branch or
// a tag.
var ErrInvalidRef = errors.New("invalid reference")

// Repository is a git repository opened for reading pushes.
type Repository struct {
	*git.Repository
	path string
}

// Open opens the repository at path. Objects in the quarantine directory
// named by GIT_QUARANTINE_PATH are visible too.
func Open(path string) (*Repository, error) {
	return OpenWithQuarantine(path, os.Getenv(QuarantineEnv))
}

// OpenWithQuarantine opens the repository at path. Objects are looked up
// in the quarantine directory first when it isn't empty.
func OpenWithQuarantine(path, quarantine string) (*Repository, error) {
	r, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	if quarantine != "" {
		main, ok := r.Storer.(*filesystem.Storage)
		if !ok {
			return nil, fmt.Errorf("open %s: unexpected storage %T", path, r.Storer)
		}
		r, err = git.Open(newQuarantineStorage(main, quarantine), nil)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
	}

	return &Repository{Repository: r, path: path}, nil
}

// quarantineStorage reads objects from the quarantine directory before
// the repository object directory.
type quarantineStorage struct {
	*filesystem.Storage
	incoming *filesystem.ObjectStorage
}

func newQuarantineStorage(main *filesystem.Storage, quarantine string) *quarantineStorage {
	// dotgit expects the objects under "objects/".
	fs := polyfill.New(mount.New(memfs.New(), "objects", osfs.New(quarantine)))
	return &quarantineStorage{
		Storage:  main,
		incoming: filesystem.NewObjectStorage(dotgit.New(fs), cache.NewObjectLRUDefault()),
	}
}

func (s *quarantineStorage) EncodedObject(t plumbing.ObjectType, h plumbing.Hash) (plumbing.EncodedObject, error) {
	if obj, err := s.incoming.EncodedObject(t, h); err == nil {
		return obj, nil
	}
	return s.Storage.EncodedObject(t, h)
}

func (s *quarantineStorage) HasEncodedObject(h plumbing.Hash) error {
	if err := s.incoming.HasEncodedObject(h); err == nil {
		return nil
	}
	return s.Storage.HasEncodedObject(h)
}

func (s *quarantineStorage) EncodedObjectSize(h plumbing.Hash) (int64, error) {
	if sz, err := s.incoming.EncodedObjectSize(h); err == nil {
		return sz, nil
	}
	return s.Storage.EncodedObjectSize(h)
}

// IsZeroHash reports whether a hook hash is the null object name git uses
// for created and deleted references.
func IsZeroHash(h string) bool {
	return strings.Trim(h, "0") == ""
}

// BranchName returns the branch name of a reference and whether it is a
// branch.
func BranchName(ref string) (string, bool) {
	return strings.CutPrefix(ref, branchPrefix)
}

// TagName returns the tag name of a reference and whether it is a tag.
func TagName(ref string) (string, bool) {
	return strings.CutPrefix(ref, tagPrefix)
}
