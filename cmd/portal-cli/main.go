// Command portal-cli drives the portal API from a terminal. The session bundle
// is kept on disk so consecutive invocations share one login.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/portal-colegio-api/internal/authz"
	"github.com/noah-isme/portal-colegio-api/internal/client"
	"github.com/noah-isme/portal-colegio-api/pkg/config"
	"github.com/noah-isme/portal-colegio-api/pkg/logger"
)

var (
	verbose bool

	guard *authz.Guard
	api   *client.Client
)

var rootCmd = &cobra.Command{
	Use:           "portal-cli",
	Short:         "Command line client for the school portal",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadClient()

		level := "warn"
		if verbose {
			level = "debug"
		}
		log, err := logger.New(&config.Config{
			Env: config.EnvDevelopment,
			Log: config.LogConfig{Level: level, Format: "console"},
		})
		if err != nil {
			return err
		}

		store, err := authz.NewFileStore(cfg.SessionFile)
		if err != nil {
			return err
		}
		guard = authz.NewGuard(store, log.Named("session"))
		api = client.New(cfg.APIURL, cfg.Timeout)
		if bundle := guard.Bundle(); bundle != nil {
			api = api.WithToken(bundle.AccessToken)
		}
		log.Debug("client ready", zap.String("api", cfg.APIURL), zap.String("session_file", store.Path()))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd, openCmd, proceduresCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func execute(ctx context.Context, args []string) error {
	rootCmd.SetArgs(args)
	return dropRejectedSession(guard, rootCmd.ExecuteContext(ctx))
}
