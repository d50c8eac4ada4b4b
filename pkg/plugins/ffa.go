package plugins

import (
	"context"

	"github.com/vcgate/vcgate/pkg/extension"
	"github.com/vcgate/vcgate/pkg/proto"
)

// FFAMethod lets anyone change the repository.
const FFAMethod = "ffa"

func initFFA(_ context.Context, r *extension.Registry) error {
	if err := r.RegisterAuthorizationMethod(FFAMethod, "Free for all"); err != nil {
		return err
	}

	return r.RegisterAccountAuthorizer(FFAMethod, extension.AccountAuthorizerFunc(func(context.Context, *proto.Repository, *proto.Account) (bool, error) {
		return true, nil
	}))
}
