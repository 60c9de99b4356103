package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/paytungan/paytungan/internal/auth"
)

func tokenCmd(load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint development tokens and hash callback tokens",
	}
	cmd.AddCommand(generateTokenCmd(load))
	cmd.AddCommand(hashCallbackCmd())
	return cmd
}

func generateTokenCmd(load configLoader) *cobra.Command {
	var phone string

	cmd := &cobra.Command{
		Use:   "generate [uid]",
		Short: "Mint an identity token signed with auth.jwt_secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			idp, err := newIdentityProvider(cfg.Auth)
			if err != nil {
				return err
			}
			token, err := idp.Generate(args[0], phone)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&phone, "phone", "", "phone number claim")
	return cmd
}

func hashCallbackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-callback [token]",
		Short: "Hash a gateway callback token for gateway.callback_token_hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashCallbackToken(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
