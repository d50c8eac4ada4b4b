package access

import (
	"context"
	"testing"

	"github.com/matryer/is"
	"github.com/vcgate/vcgate/pkg/proto"
)

var drupalBranches = []string{`^HEAD$`, `^DRUPAL-5(--[2-9])?$`, `^DRUPAL-6--[1-9]$`}

func branchOp(name string, action proto.Action) *proto.Operation {
	op := proposal()
	op.Type = proto.OperationBranch
	op.Labels = []proto.Label{{Name: name, Type: proto.LabelBranch, Action: action}}
	return op
}

func TestLabelCheck(t *testing.T) {
	policy, err := NewLabelPolicy(drupalBranches, []string{`glob:DRUPAL-6--1-*`})
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name     string
		op       *proto.Operation
		verdict  Verdict
		messages []string
	}{
		{
			name:    "allowed branch",
			op:      branchOp("DRUPAL-6--1", proto.ActionAdded),
			verdict: VerdictAbstain,
		},
		{
			name:     "disallowed branch",
			op:       branchOp("feature-x", proto.ActionAdded),
			verdict:  VerdictDeny,
			messages: []string{"** ERROR: the feature-x branch is not allowed in this repository."},
		},
		{
			name:    "deleting disallowed branch",
			op:      branchOp("feature-x", proto.ActionDeleted),
			verdict: VerdictAbstain,
		},
		{
			name: "disallowed tag",
			op: &proto.Operation{
				Type:   proto.OperationTag,
				Labels: []proto.Label{{Name: "v1.0", Type: proto.LabelTag, Action: proto.ActionAdded}},
			},
			verdict:  VerdictDeny,
			messages: []string{"** ERROR: the v1.0 tag is not allowed in this repository."},
		},
		{
			name: "glob tag",
			op: &proto.Operation{
				Type:   proto.OperationTag,
				Labels: []proto.Label{{Name: "DRUPAL-6--1-0", Type: proto.LabelTag, Action: proto.ActionAdded}},
			},
			verdict: VerdictAbstain,
		},
		{
			name: "commit touching two bad branches",
			op: &proto.Operation{
				Type: proto.OperationCommit,
				Labels: []proto.Label{
					{Name: "a", Type: proto.LabelBranch, Action: proto.ActionModified},
					{Name: "HEAD", Type: proto.LabelBranch, Action: proto.ActionModified},
					{Name: "b", Type: proto.LabelBranch, Action: proto.ActionModified},
				},
			},
			verdict: VerdictDeny,
			messages: []string{
				"** ERROR: the a branch is not allowed in this repository.",
				"** ERROR: the b branch is not allowed in this repository.",
			},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			is := is.New(t)
			res := LabelCheck(policy).Check(context.TODO(), c.op, nil)
			is.Equal(res.Verdict(), c.verdict)
			is.Equal(len(res.Messages()), len(c.messages))
			for i := range c.messages {
				is.Equal(res.Messages()[i], c.messages[i])
			}
		})
	}
}

func TestLabelDeletionNeverDenied(t *testing.T) {
	is := is.New(t)
	policy, err := NewLabelPolicy([]string{`^$`}, []string{`^$`})
	is.NoErr(err)
	for _, name := range []string{"x", "feature/y", "DRUPAL-7", "HEAD"} {
		for _, typ := range []proto.LabelType{proto.LabelBranch, proto.LabelTag} {
			l := proto.Label{Name: name, Type: typ, Action: proto.ActionDeleted}
			is.True(policy.Allowed(l))
		}
	}
}

func TestUnrestrictedLabelType(t *testing.T) {
	is := is.New(t)
	policy, err := NewLabelPolicy(drupalBranches, nil)
	is.NoErr(err)
	is.True(policy.Allowed(proto.Label{Name: "anything", Type: proto.LabelTag, Action: proto.ActionAdded}))

	var nilPolicy *LabelPolicy
	is.Equal(nilPolicy.Check(context.TODO(), branchOp("x", proto.ActionAdded), nil).Verdict(), VerdictAbstain)
}

func TestCompilePattern(t *testing.T) {
	is := is.New(t)
	_, err := CompilePattern(`^DRUPAL-(`)
	is.True(err != nil)
	_, err = CompilePattern(`glob:[`)
	is.True(err != nil)

	p, err := CompilePattern(`glob:release/*`)
	is.NoErr(err)
	is.True(p.Match("release/1.0"))
	is.Equal(p.String(), "glob:release/*")
}
