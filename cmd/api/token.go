package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	tokenUser  string
	tokenEmail string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token",
	Long: `Token signs a session token for the given user with the configured
secret and prints it. Useful for operators and local testing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _ := loadConfig()

		// Minting never consults the revocation list, so a running server may keep the on-disk one locked.
		mgr, closeSessions, err := newSessionManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL, "")
		if err != nil {
			return err
		}
		defer closeSessions()

		token, sess, err := mgr.Issue(tokenUser, tokenEmail)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), token)
		fmt.Fprintf(cmd.ErrOrStderr(), "user %s, expires %s\n", sess.UserID, sess.ExpiresAt.Format("2006-01-02 15:04:05 MST"))
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "User ID (token subject)")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "Email shown on the user's notes")
	_ = tokenCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(tokenCmd)
}
