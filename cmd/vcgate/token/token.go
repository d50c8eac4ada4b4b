// Package token issues API tokens.
package token

import (
	"fmt"
	"time"

	"github.com/caarlos0/duration"
	"github.com/spf13/cobra"
	"github.com/vcgate/vcgate/cmd"
	"github.com/vcgate/vcgate/pkg/backend"
	"github.com/vcgate/vcgate/pkg/config"
	"github.com/vcgate/vcgate/pkg/jwk"
)

// Command generates a JSON Web Token for a user of the HTTP API.
var Command = &cobra.Command{
	Use:                "token USERNAME",
	Short:              "Generate an API token",
	Long:               "Generate a JSON Web Token to authenticate a user against the HTTP API.",
	Args:               cobra.ExactArgs(1),
	PersistentPreRunE:  cmd.InitBackendContext,
	PersistentPostRunE: cmd.CloseDBContext,
	RunE: func(c *cobra.Command, args []string) error {
		ctx := c.Context()
		cfg := config.FromContext(ctx)
		be := backend.FromContext(ctx)

		user, err := be.User(ctx, args[0])
		if err != nil {
			return err
		}

		var exp time.Duration
		switch expiry {
		case "":
		case "never":
			exp = -1
		default:
			exp, err = duration.Parse(expiry)
			if err != nil {
				return fmt.Errorf("invalid expiry: %w", err)
			}
			if exp <= 0 {
				return fmt.Errorf("invalid expiry: %q", expiry)
			}
		}

		kp, err := jwk.NewPair(cfg)
		if err != nil {
			return err
		}

		token, err := jwk.NewToken(cfg, kp, user.Username, exp)
		if err != nil {
			return err
		}

		c.Println(token)
		return nil
	},
}

var expiry string

func init() {
	Command.Flags().StringVarP(&expiry, "expiry", "e", "", `token lifetime, e.g. "1h" or "30d", "never" for no expiry`)
}
