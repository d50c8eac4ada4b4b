package plugins

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/vcgate/vcgate/pkg/access"
	"github.com/vcgate/vcgate/pkg/extension"
	"github.com/vcgate/vcgate/pkg/proto"
)

// LabelsNamespace is the repository extra data namespace holding a
// repository's own label policy.
const LabelsNamespace = "labels"

// LabelSettings is a repository label policy override.
type LabelSettings struct {
	Branches []string `json:"branches,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

func splitPatterns(s string) []string {
	var ps []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			ps = append(ps, p)
		}
	}
	return ps
}

// labelExtractor reads the "branches" and "tags" fields, comma separated
// patterns. Patterns are compiled to reject invalid ones early.
func labelExtractor(fields map[string]string) (any, bool, error) {
	branches, okb := fields["branches"]
	tags, okt := fields["tags"]
	if !okb && !okt {
		return nil, false, nil
	}

	s := LabelSettings{
		Branches: splitPatterns(branches),
		Tags:     splitPatterns(tags),
	}
	if _, err := access.NewLabelPolicy(s.Branches, s.Tags); err != nil {
		return nil, false, err
	}
	return s, true, nil
}

// repoLabelCheck enforces the repository policy when it has one and the
// server policy otherwise.
func repoLabelCheck(global *access.LabelPolicy) access.Check {
	return access.CheckFunc(func(ctx context.Context, op *proto.Operation, items []proto.Item) access.Result {
		policy := global
		if op.Repository != nil {
			var s LabelSettings
			ok, err := op.Repository.Data.Get(LabelsNamespace, &s)
			switch {
			case err != nil:
				log.FromContext(ctx).WithPrefix("plugins.labels").Error("invalid repository label policy", "repo", op.Repository.Name, "err", err)
			case ok:
				if p, err := access.NewLabelPolicy(s.Branches, s.Tags); err == nil {
					policy = p
				}
			}
		}
		return access.LabelCheck(policy).Check(ctx, op, items)
	})
}

func initLabels(ctx context.Context, r *extension.Registry) error {
	cfg, err := configFrom(ctx)
	if err != nil {
		return err
	}

	policy, err := access.NewLabelPolicy(cfg.Access.Branches, cfg.Access.Tags)
	if err != nil {
		return err
	}

	if err := r.RegisterExtraDataExtractor(extension.ScopeRepository, LabelsNamespace, extension.ExtractorFunc(labelExtractor)); err != nil {
		return err
	}

	r.RegisterAccessCheck("labels", repoLabelCheck(policy))
	return nil
}
