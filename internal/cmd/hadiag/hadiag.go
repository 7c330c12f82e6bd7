// Package hadiag builds the hadiag command line for one-shot diagnostics.
package hadiag

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	entrypoint "github.com/louisbranch/ha-diag/internal/platform/cmd"
	"github.com/louisbranch/ha-diag/internal/platform/logging"
	"github.com/louisbranch/ha-diag/internal/services/homeassistant"
	"github.com/louisbranch/ha-diag/internal/services/lister"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version is stamped at build time with -ldflags "-X ...hadiag.Version=...".
var Version = "dev"

// Config holds hadiag command configuration.
type Config struct {
	HomeAssistant homeassistant.Config
	Logging       logging.Config
}

// Execute runs the hadiag command tree with args.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.ExecuteContext(ctx)
}

// NewRootCommand builds the hadiag root command. Environment values seed
// the persistent flags.
func NewRootCommand() *cobra.Command {
	var cfg Config

	root := &cobra.Command{
		Use:           "hadiag",
		Short:         "Home Assistant diagnostics",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadConfig(cmd, &cfg)
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&cfg.HomeAssistant.BaseURL, "base-url", "", "Home Assistant base URL (env HA_BASE_URL)")
	flags.StringVar(&cfg.HomeAssistant.Token, "token", "", "Home Assistant long-lived access token (env HA_TOKEN)")
	flags.StringVar(&cfg.Logging.Level, "log-level", "", "log level: debug, info, warn, error (env HA_DIAG_LOG_LEVEL)")

	root.AddCommand(newServicesCommand(&cfg), newVersionCommand())
	return root
}

// loadConfig fills cfg from the environment, keeping values set by flags.
func loadConfig(cmd *cobra.Command, cfg *Config) error {
	var fromEnv Config
	if err := entrypoint.ParseConfig(&fromEnv); err != nil {
		return err
	}
	flags := cmd.Flags()
	if !flags.Changed("base-url") {
		cfg.HomeAssistant.BaseURL = fromEnv.HomeAssistant.BaseURL
	}
	if !flags.Changed("token") {
		cfg.HomeAssistant.Token = fromEnv.HomeAssistant.Token
	}
	if !flags.Changed("log-level") {
		cfg.Logging.Level = fromEnv.Logging.Level
	}
	cfg.HomeAssistant.SupervisorToken = fromEnv.HomeAssistant.SupervisorToken
	cfg.HomeAssistant.SupervisorURL = fromEnv.HomeAssistant.SupervisorURL
	cfg.Logging.Format = fromEnv.Logging.Format
	return nil
}

func newServicesCommand(cfg *Config) *cobra.Command {
	var (
		noEmit bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "services",
		Short: "List every service domain and fire the ha_diag_result event",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := logging.New(cfg.Logging)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			options := entrypoint.RunOptions{Logger: logger}
			return entrypoint.RunWithTelemetryAndOptions(cmd.Context(), entrypoint.ServiceHADiag, options, func(ctx context.Context) error {
				listing, err := listServices(ctx, *cfg, logger, !noEmit)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), listing)
				}
				return writeText(cmd.OutOrStdout(), listing)
			})
		},
	}
	cmd.Flags().BoolVar(&noEmit, "no-emit", false, "print the listing without firing the event")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the event payload as JSON")
	return cmd
}

func listServices(ctx context.Context, cfg Config, logger *zap.Logger, emit bool) (lister.Listing, error) {
	client := homeassistant.New(cfg.HomeAssistant, homeassistant.WithLogger(logger.Named("homeassistant")))
	run := lister.New(client.Registry(), client, logger)
	if emit {
		return run.Run(ctx)
	}
	return run.List(ctx)
}

func writeJSON(w io.Writer, listing lister.Listing) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(lister.NewPayload(listing)); err != nil {
		return fmt.Errorf("encode listing: %w", err)
	}
	return nil
}

func writeText(w io.Writer, listing lister.Listing) error {
	var b strings.Builder
	b.WriteString(lister.Title)
	b.WriteString("\n")
	for _, domain := range listing.Domains() {
		fmt.Fprintf(&b, "%s: %s\n", domain, strings.Join(listing[domain], ", "))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the hadiag version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "hadiag %s\n", Version)
			return err
		},
	}
}
