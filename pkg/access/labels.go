package access

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/gobwas/glob"
	"github.com/vcgate/vcgate/pkg/proto"
)

// GlobPrefix marks a glob pattern. Patterns without it are regular
// expressions.
const GlobPrefix = "glob:"

// Pattern matches label names.
type Pattern struct {
	raw string
	re  *regexp.Regexp
	g   glob.Glob
}

// CompilePattern compiles a regular expression or a "glob:" pattern.
func CompilePattern(s string) (Pattern, error) {
	p := Pattern{raw: s}
	if rest, ok := strings.CutPrefix(s, GlobPrefix); ok {
		g, err := glob.Compile(rest)
		if err != nil {
			return Pattern{}, fmt.Errorf("pattern %q: %w", s, err)
		}
		p.g = g
		return p, nil
	}

	re, err := regexp.Compile(s)
	if err != nil {
		return Pattern{}, fmt.Errorf("pattern %q: %w", s, err)
	}
	p.re = re
	return p, nil
}

// Match reports whether name matches the pattern.
func (p Pattern) Match(name string) bool {
	if p.g != nil {
		return p.g.Match(name)
	}
	return p.re.MatchString(name)
}

// String returns the pattern source.
func (p Pattern) String() string {
	return p.raw
}

// LabelPolicy is an allow-list of branch and tag names. A label type
// without patterns is not restricted.
type LabelPolicy struct {
	Branches []Pattern
	Tags     []Pattern
}

// NewLabelPolicy compiles branch and tag patterns.
func NewLabelPolicy(branches, tags []string) (*LabelPolicy, error) {
	var p LabelPolicy
	for _, s := range branches {
		pat, err := CompilePattern(s)
		if err != nil {
			return nil, err
		}
		p.Branches = append(p.Branches, pat)
	}
	for _, s := range tags {
		pat, err := CompilePattern(s)
		if err != nil {
			return nil, err
		}
		p.Tags = append(p.Tags, pat)
	}
	return &p, nil
}

// Allowed reports whether the label may be recorded. Deleting a label is
// always allowed.
func (p *LabelPolicy) Allowed(l proto.Label) bool {
	if l.Action == proto.ActionDeleted {
		return true
	}

	var patterns []Pattern
	switch l.Type {
	case proto.LabelBranch:
		patterns = p.Branches
	case proto.LabelTag:
		patterns = p.Tags
	}
	if len(patterns) == 0 {
		return true
	}

	for _, pat := range patterns {
		if pat.Match(l.Name) {
			return true
		}
	}
	return false
}

// Check implements Check. It denies every label of op that isn't allowed.
func (p *LabelPolicy) Check(ctx context.Context, op *proto.Operation, _ []proto.Item) Result {
	if p == nil {
		return Abstain()
	}

	var msgs []string
	t := FromContext(ctx)
	for _, l := range op.Labels {
		if p.Allowed(l) {
			continue
		}
		format := "** ERROR: the @name branch is not allowed in this repository."
		if l.Type == proto.LabelTag {
			format = "** ERROR: the @name tag is not allowed in this repository."
		}
		msgs = append(msgs, t.Translate(format, map[string]string{"name": l.Name}))
	}

	return Deny(msgs...)
}

// LabelCheck returns a check enforcing the policy.
func LabelCheck(policy *LabelPolicy) Check {
	return policy
}
