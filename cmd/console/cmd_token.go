package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/technosupport/ts-console/internal/tokens"
)

var (
	tokenStation string
	tokenRole    string
)

var tokenCmd = &cobra.Command{
	Use:   "token <operator-id>",
	Short: "Print an access token for local testing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		tok, err := tokens.NewManager(cfg.Auth.SigningKey).GenerateAccessToken(args[0], tokenStation, tokenRole)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenStation, "station", "station-1", "console station the token is bound to")
	tokenCmd.Flags().StringVar(&tokenRole, "role", "operator", "operator role claim")
}
