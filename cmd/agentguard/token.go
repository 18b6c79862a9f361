package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"agentguard-hq/agentguard/pkg/cli"
	"agentguard-hq/agentguard/pkg/security/auth"
)

var tokenFlags struct {
	subject string
	roles   []string
	ttl     time.Duration
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for the management API",
	Long: `Sign an HS256 token with auth.jwt_secret. Send it as
"Authorization: Bearer <token>" on /api requests when auth is enabled.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		v, err := auth.NewJWTValidator(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
		if err != nil {
			return cli.NewConfigError("auth.jwt_secret", err.Error())
		}
		token, err := v.Issue(tokenFlags.subject, tokenFlags.roles, tokenFlags.ttl)
		if err != nil {
			return cli.NewCommandError("token", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().StringVar(&tokenFlags.subject, "subject", "admin", "token subject")
	tokenCmd.Flags().StringSliceVar(&tokenFlags.roles, "roles", []string{"admin"}, "roles claim")
	tokenCmd.Flags().DurationVar(&tokenFlags.ttl, "ttl", 24*time.Hour, "token lifetime")
}
