package plugins

import (
	"context"
	"fmt"

	"github.com/vcgate/vcgate/pkg/access"
	"github.com/vcgate/vcgate/pkg/extension"
	"github.com/vcgate/vcgate/pkg/proto"
)

const (
	// ApprovalMethod only lets pre-approved accounts change the
	// repository.
	ApprovalMethod = "approval"

	// ApprovalNamespace is the account extra data namespace holding the
	// approval flag.
	ApprovalNamespace = "approval"
)

// approved reports whether the account was approved.
func approved(acc *proto.Account) bool {
	if acc == nil {
		return false
	}
	var ok bool
	if _, err := acc.Data.Get(ApprovalNamespace, &ok); err != nil {
		return false
	}
	return ok
}

// approvalExtractor reads the "approved" field.
func approvalExtractor(fields map[string]string) (any, bool, error) {
	v, ok := fields["approved"]
	if !ok {
		return nil, false, nil
	}
	b, err := parseYesNo(v)
	if err != nil {
		return nil, false, fmt.Errorf("approved: %w", err)
	}
	return b, true, nil
}

// approvalDecorator adds the "Approved" column and handles the
// "approved" filter.
func approvalDecorator(_ context.Context, l *extension.Listing[*proto.Account], opts extension.ListOptions) error {
	if v, ok := opts.Filter("approved"); ok {
		want, err := parseYesNo(v)
		if err != nil {
			return fmt.Errorf("approved filter: %w", err)
		}
		l.Filter(func(r extension.Row[*proto.Account]) bool {
			return approved(r.Item) == want
		})
	}

	l.AddColumn("Approved", func(acc *proto.Account) string {
		return yesNo(approved(acc))
	})
	return nil
}

func initApproval(ctx context.Context, r *extension.Registry) error {
	be, err := backendFrom(ctx)
	if err != nil {
		return err
	}

	if err := r.RegisterAuthorizationMethod(ApprovalMethod, "Pre-approved accounts only"); err != nil {
		return err
	}
	if err := r.RegisterExtraDataExtractor(extension.ScopeAccount, ApprovalNamespace, extension.ExtractorFunc(approvalExtractor)); err != nil {
		return err
	}
	if err := r.RegisterListDecorator(extension.ScopeAccount, extension.AccountDecorator(approvalDecorator)); err != nil {
		return err
	}
	if err := r.RegisterAccountAuthorizer(ApprovalMethod, extension.AccountAuthorizerFunc(func(_ context.Context, _ *proto.Repository, acc *proto.Account) (bool, error) {
		return approved(acc), nil
	})); err != nil {
		return err
	}

	r.RegisterAccessCheck("authorization", access.AuthorizationCheck(be))
	return nil
}
