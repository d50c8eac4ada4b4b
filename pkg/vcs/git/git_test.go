package git

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/matryer/is"
	"github.com/vcgate/vcgate/pkg/hooks"
	"github.com/vcgate/vcgate/pkg/proto"
)

const zero = "0000000000000000000000000000000000000000"

type fixture struct {
	t    *testing.T
	dir  string
	repo *git.Repository
	wt   *git.Worktree
	when time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	r, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	wt, err := r.Worktree()
	if err != nil {
		t.Fatal(err)
	}
	return &fixture{t: t, dir: dir, repo: r, wt: wt, when: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fixture) write(name, content string) {
	f.t.Helper()
	p := filepath.Join(f.dir, name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		f.t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		f.t.Fatal(err)
	}
	if _, err := f.wt.Add(name); err != nil {
		f.t.Fatal(err)
	}
}

func (f *fixture) move(from, to string) {
	f.t.Helper()
	if _, err := f.wt.Move(from, to); err != nil {
		f.t.Fatal(err)
	}
}

func (f *fixture) remove(name string) {
	f.t.Helper()
	if _, err := f.wt.Remove(name); err != nil {
		f.t.Fatal(err)
	}
}

func (f *fixture) commit(msg string) plumbing.Hash {
	f.t.Helper()
	f.when = f.when.Add(time.Minute)
	sig := &object.Signature{Name: "Dries", Email: "dries@example.com", When: f.when}
	h, err := f.wt.Commit(msg, &git.CommitOptions{Author: sig, Committer: sig})
	if err != nil {
		f.t.Fatal(err)
	}
	return h
}

func (f *fixture) open() *Repository {
	f.t.Helper()
	r, err := OpenWithQuarantine(f.dir, "")
	if err != nil {
		f.t.Fatal(err)
	}
	return r
}

func TestRefHelpers(t *testing.T) {
	is := is.New(t)
	is.True(IsZeroHash(zero))
	is.True(!IsZeroHash("0123"))
	name, ok := BranchName("refs/heads/8.x-1.x")
	is.True(ok)
	is.Equal(name, "8.x-1.x")
	_, ok = BranchName("refs/tags/8.x-1.0")
	is.True(!ok)
	name, ok = TagName("refs/tags/8.x-1.0")
	is.True(ok)
	is.Equal(name, "8.x-1.0")
}

func TestNewBranchCommits(t *testing.T) {
	is := is.New(t)
	f := newFixture(t)
	f.write("core/index.php", "<?php\n")
	f.write("README.txt", "hello\n")
	c1 := f.commit("Initial commit.")
	f.write("core/index.php", "<?php echo 1;\n")
	f.remove("README.txt")
	c2 := f.commit("Issue #1: echo.")

	// The pushed branch itself doesn't hide its commits.
	ps, err := f.open().Proposals(context.TODO(), "dries", []hooks.HookArg{
		{OldSha: zero, NewSha: c2.String(), RefName: "refs/heads/master"},
	})
	is.NoErr(err)
	is.Equal(len(ps), 3)

	branch := ps[0].Operation
	is.Equal(branch.Type, proto.OperationBranch)
	is.Equal(branch.Author.Username, "dries")
	is.Equal(branch.Repository.VCS, Kind)
	is.Equal(branch.Labels, []proto.Label{{Name: "master", Type: proto.LabelBranch, Action: proto.ActionAdded}})
	is.Equal(len(ps[0].Items), 0)

	first, second := ps[1], ps[2]
	is.Equal(first.Operation.Revision, c1.String())
	is.Equal(first.Operation.Message, "Initial commit.")
	is.Equal(first.Operation.Committer, "Dries")
	is.Equal(first.Operation.Labels[0].Action, proto.ActionModified)
	is.Equal(len(first.Items), 2)
	is.Equal(first.Items[0].Path, "/README.txt")
	is.Equal(first.Items[0].Action, proto.ActionAdded)
	is.Equal(first.Items[1].Path, "/core/index.php")

	is.Equal(second.Operation.Revision, c2.String())
	is.Equal(len(second.Items), 2)
	is.Equal(second.Items[0], proto.Item{
		Path:        "/README.txt",
		Type:        proto.ItemFileDeleted,
		Revision:    c2.String(),
		Action:      proto.ActionDeleted,
		SourceItems: []proto.Item{{Path: "/README.txt", Type: proto.ItemFile, Revision: c1.String()}},
	})
	is.Equal(second.Items[1].Action, proto.ActionModified)
	is.Equal(second.Items[1].SourceItems[0].Revision, c1.String())

	for _, p := range ps {
		is.NoErr(proto.ValidateOperation(p.Operation, p.Items))
	}
}

func TestUpdatedBranchOnlyNewCommits(t *testing.T) {
	is := is.New(t)
	f := newFixture(t)
	f.write("a.txt", "a\n")
	c1 := f.commit("one")
	f.write("a.txt", "aa\n")
	c2 := f.commit("two")
	f.move("a.txt", "b.txt")
	c3 := f.commit("three")

	ps, err := f.open().Proposals(context.TODO(), "dries", []hooks.HookArg{
		{OldSha: c1.String(), NewSha: c3.String(), RefName: "refs/heads/master"},
	})
	is.NoErr(err)
	is.Equal(len(ps), 2)
	is.Equal(ps[0].Operation.Revision, c2.String())
	is.Equal(ps[1].Operation.Revision, c3.String())
	is.Equal(ps[1].Items, []proto.Item{{
		Path:        "/b.txt",
		Type:        proto.ItemFile,
		Revision:    c3.String(),
		Action:      proto.ActionMoved,
		SourceItems: []proto.Item{{Path: "/a.txt", Type: proto.ItemFile, Revision: c2.String()}},
	}})
}

func TestCommitsOnOtherBranchesAreSkipped(t *testing.T) {
	is := is.New(t)
	f := newFixture(t)
	f.write("a.txt", "a\n")
	c1 := f.commit("one")

	// master already points at c1, pushing a new branch at c1 adds no
	// commit.
	ps, err := f.open().Proposals(context.TODO(), "dries", []hooks.HookArg{
		{OldSha: zero, NewSha: c1.String(), RefName: "refs/heads/feature"},
	})
	is.NoErr(err)
	is.Equal(len(ps), 1)
	is.Equal(ps[0].Operation.Type, proto.OperationBranch)
}

func TestSharedCommitsAcrossPushedBranches(t *testing.T) {
	is := is.New(t)
	f := newFixture(t)
	f.write("a.txt", "a\n")
	c1 := f.commit("one")
	f.write("a.txt", "aa\n")
	c2 := f.commit("two")

	ps, err := f.open().Proposals(context.TODO(), "dries", []hooks.HookArg{
		{OldSha: zero, NewSha: c2.String(), RefName: "refs/heads/master"},
		{OldSha: zero, NewSha: c1.String(), RefName: "refs/heads/b"},
	})
	is.NoErr(err)
	is.Equal(len(ps), 4)

	var commits []*proto.Operation
	for _, p := range ps {
		if p.Operation.Type == proto.OperationCommit {
			commits = append(commits, p.Operation)
		}
	}
	is.Equal(len(commits), 2)
	is.Equal(commits[0].Revision, c1.String())
	is.Equal(commits[0].Labels, []proto.Label{
		{Name: "master", Type: proto.LabelBranch, Action: proto.ActionModified},
		{Name: "b", Type: proto.LabelBranch, Action: proto.ActionModified},
	})
	is.Equal(commits[1].Revision, c2.String())
	is.Equal(commits[1].Labels, []proto.Label{
		{Name: "master", Type: proto.LabelBranch, Action: proto.ActionModified},
	})

	is.Equal(ps[3].Operation.Type, proto.OperationBranch)
	is.Equal(ps[3].Operation.Labels[0].Name, "b")
}

func TestDeletedBranch(t *testing.T) {
	is := is.New(t)
	f := newFixture(t)
	f.write("a.txt", "a\n")
	c1 := f.commit("one")

	ps, err := f.open().Proposals(context.TODO(), "dries", []hooks.HookArg{
		{OldSha: c1.String(), NewSha: zero, RefName: "refs/heads/old"},
	})
	is.NoErr(err)
	is.Equal(len(ps), 1)
	is.Equal(ps[0].Operation.Labels[0].Action, proto.ActionDeleted)
	is.Equal(ps[0].Operation.Revision, c1.String())
}

func TestTags(t *testing.T) {
	is := is.New(t)
	f := newFixture(t)
	f.write("a.txt", "a\n")
	c1 := f.commit("one")

	sig := &object.Signature{Name: "Dries", Email: "dries@example.com", When: f.when}
	ref, err := f.repo.CreateTag("8.x-1.0", c1, &git.CreateTagOptions{Tagger: sig, Message: "Release 8.x-1.0\n"})
	is.NoErr(err)

	ps, err := f.open().Proposals(context.TODO(), "dries", []hooks.HookArg{
		{OldSha: zero, NewSha: ref.Hash().String(), RefName: "refs/tags/8.x-1.0"},
		{OldSha: zero, NewSha: c1.String(), RefName: "refs/tags/light"},
		{OldSha: c1.String(), NewSha: zero, RefName: "refs/tags/gone"},
	})
	is.NoErr(err)
	is.Equal(len(ps), 3)

	annotated := ps[0].Operation
	is.Equal(annotated.Type, proto.OperationTag)
	is.Equal(annotated.Message, "Release 8.x-1.0\n")
	is.Equal(annotated.Revision, c1.String())
	is.Equal(annotated.Labels, []proto.Label{{Name: "8.x-1.0", Type: proto.LabelTag, Action: proto.ActionAdded}})

	is.Equal(ps[1].Operation.Message, "")
	is.Equal(ps[1].Operation.Revision, c1.String())
	is.Equal(ps[2].Operation.Labels[0].Action, proto.ActionDeleted)
}

func TestInvalidRef(t *testing.T) {
	is := is.New(t)
	f := newFixture(t)
	f.write("a.txt", "a\n")
	c1 := f.commit("one")
	_, err := f.open().Proposals(context.TODO(), "dries", []hooks.HookArg{
		{OldSha: zero, NewSha: c1.String(), RefName: "refs/notes/commits"},
	})
	is.True(errors.Is(err, ErrInvalidRef))
}

func TestQuarantine(t *testing.T) {
	is := is.New(t)
	pushed := newFixture(t)
	pushed.write("a.txt", "a\n")
	c1 := pushed.commit("one")

	// An empty repository sees the pushed objects through the quarantine
	// directory only.
	dir := t.TempDir()
	_, err := git.PlainInit(dir, true)
	is.NoErr(err)

	r, err := OpenWithQuarantine(dir, "")
	is.NoErr(err)
	_, err = r.CommitObject(c1)
	is.True(err != nil)

	r, err = OpenWithQuarantine(dir, filepath.Join(pushed.dir, ".git", "objects"))
	is.NoErr(err)
	ps, err := r.Proposals(context.TODO(), "dries", []hooks.HookArg{
		{OldSha: zero, NewSha: c1.String(), RefName: "refs/heads/main"},
	})
	is.NoErr(err)
	is.Equal(len(ps), 2)
	is.Equal(ps[1].Items[0].Path, "/a.txt")
}

func TestProposalsOpen(t *testing.T) {
	is := is.New(t)
	t.Setenv(QuarantineEnv, "")
	_, err := Proposals(t.TempDir(), "dries", nil)
	is.True(err != nil)
}
