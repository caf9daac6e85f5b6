package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noah-isme/portal-colegio-api/internal/authz"
	"github.com/noah-isme/portal-colegio-api/internal/client"
)

var (
	loginEmail    string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session bundle",
	RunE: func(cmd *cobra.Command, args []string) error {
		password := loginPassword
		if password == "" {
			password = os.Getenv("PORTAL_PASSWORD")
		}
		if strings.TrimSpace(loginEmail) == "" || password == "" {
			return errors.New("--email and --password (or PORTAL_PASSWORD) are required")
		}

		bundle, err := api.Login(cmd.Context(), loginEmail, password)
		if err != nil {
			return err
		}
		identity, err := guard.EstablishSession(bundle)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s (%s), landing at %s\n",
			identity.Email, strings.Join(identity.Roles.Strings(), ","), guard.DefaultLandingRoute())
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Revoke the refresh token and forget the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		bundle := guard.Bundle()
		if bundle == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "no active session")
			return nil
		}
		err := api.Logout(cmd.Context(), bundle.RefreshToken)
		// Cleared even when the server call fails.
		guard.TerminateSession()
		if err != nil {
			return fmt.Errorf("local session cleared, server logout failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "signed out")
		return nil
	},
}

var whoamiRemote bool

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current identity",
	RunE: func(cmd *cobra.Command, args []string) error {
		identity, ok := guard.CurrentIdentity()
		if !ok {
			return errors.New("not signed in")
		}
		if whoamiRemote {
			info, err := api.Me(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, info)
		}
		return printJSON(cmd, map[string]interface{}{
			"id":          identity.ID,
			"name":        identity.Name,
			"email":       identity.Email,
			"roles":       identity.Roles.Strings(),
			"permissions": identity.Permissions.Strings(),
			"landing":     guard.DefaultLandingRoute(),
		})
	},
}

var openCmd = &cobra.Command{
	Use:   "open <path>",
	Short: "Check whether the session may open a portal screen",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		route, decision := guard.AuthorizePath(args[0])
		out := cmd.OutOrStdout()
		switch decision {
		case authz.Allow:
			fmt.Fprintf(out, "allow %s (%s)\n", args[0], route.Name)
		case authz.RedirectToLogin:
			fmt.Fprintf(out, "redirect %s\n", authz.PathLogin)
		default:
			if route.Requirement == authz.RequireAnonymous {
				fmt.Fprintf(out, "redirect %s\n", guard.DefaultLandingRoute())
				return nil
			}
			fmt.Fprintf(out, "deny %s (requires %s)\n", args[0], route.Requirement)
		}
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Account password (defaults to PORTAL_PASSWORD)")
	whoamiCmd.Flags().BoolVar(&whoamiRemote, "remote", false, "Ask the server instead of reading the local bundle")
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// dropRejectedSession ends the local session when the server refused its
// token, so later commands start from the login screen.
func dropRejectedSession(g *authz.Guard, err error) error {
	if g == nil || !errors.Is(err, client.ErrUnauthenticated) {
		return err
	}
	if _, ok := g.CurrentIdentity(); !ok {
		return err
	}
	g.TerminateSession()
	return fmt.Errorf("%w (signed out locally, run login again)", err)
}
