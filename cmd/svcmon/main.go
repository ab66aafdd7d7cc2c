package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func main() {
	root := buildRoot()
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildRoot creates the root command with its subcommands
func buildRoot() *cobra.Command {
	globalFlags := &GlobalFlags{}
	checkFlags := &CheckFlags{}
	serveFlags := &ServeFlags{}
	statusFlags := &StatusFlags{}
	addFlags := &AddFlags{}

	root := createRootCommand(globalFlags)
	root.AddCommand(
		createCheckCommand(globalFlags, checkFlags),
		createServeCommand(globalFlags, serveFlags),
		createStatusCommand(statusFlags),
		createAddCommand(addFlags),
	)
	return root
}

// createRootCommand creates the root command with minimal persistent flags
func createRootCommand(flags *GlobalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "svcmon",
		Short: "Service health monitoring tool",
		Long: `Svcmon probes systemd services, derives an application-level
verdict, writes per-service status snapshots and ships records to a
query API backed by a document store.

Examples:
  svcmon check                                  # Probe configured services
  svcmon check --services=httpd,rabbitmq        # Probe a specific set
  svcmon serve --config=svcmon.toml             # Start the status API
  svcmon status --api-url=http://remote:8080    # Remote healthcheck
  svcmon add --name=httpd --status=UP --host=web-01`,
	}

	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "path to TOML config file (optional)")

	return root
}

// createCheckCommand creates the check subcommand
func createCheckCommand(globalFlags *GlobalFlags, checkFlags *CheckFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [service...]",
		Short: "Probe services and write status snapshots",
		Long: `Check probes the monitored services via systemctl, derives the
application verdict and writes one JSON status file per service plus one
for the application. Positional arguments restrict the probe to the
named services and skip the application verdict.

Examples:
  svcmon check
  svcmon check httpd rabbitmq
  svcmon check --no-files --api-url=http://localhost:8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(globalFlags.ConfigPath, *checkFlags, args)
		},
	}

	cmd.Flags().StringVar(&checkFlags.App, "app", "", "application name (default from config)")
	cmd.Flags().StringSliceVar(&checkFlags.Services, "services", nil, "comma-separated service set to monitor")
	cmd.Flags().StringVar(&checkFlags.DataDir, "data-dir", "", "directory for status snapshot files")
	cmd.Flags().BoolVar(&checkFlags.NoFiles, "no-files", false, "skip writing snapshot files")

	// Remote API forwarding
	cmd.Flags().StringVar(&checkFlags.APIUrl, "api-url", "", "status API URL to forward records to (e.g. http://host:8080)")
	cmd.Flags().DurationVar(&checkFlags.APITimeout, "api-timeout", 10*time.Second, "request timeout")

	return cmd
}

// createServeCommand creates the serve subcommand
func createServeCommand(globalFlags *GlobalFlags, serveFlags *ServeFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [config.toml]",
		Short: "Start the status query API server",
		Long: `Start the HTTP server exposing the status API over the configured
report store. The store DSN, listen address and logging are taken from
the config file.

Examples:
  svcmon serve config.toml
  svcmon serve --config=config.toml --listen=:9090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			serveFlags.ConfigPath = globalFlags.ConfigPath
			return runServe(serveFlags, args)
		},
	}

	cmd.Flags().StringVar(&serveFlags.Listen, "listen", "", "listen address, overrides config")
	cmd.Flags().StringVar(&serveFlags.MetricsAddr, "metrics-listen", "", "separate listen address for /metrics (optional)")

	return cmd
}

// createStatusCommand creates the status subcommand
func createStatusCommand(statusFlags *StatusFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status [service]",
		Short: "Query the latest stored statuses",
		Long: `Status queries the API server. Without arguments it prints the
latest known status of every service; with a service name it prints the
full latest record for that service.

Examples:
  svcmon status
  svcmon status httpd --api-url=http://remote:8080`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(*statusFlags, args)
		},
	}

	cmd.Flags().StringVar(&statusFlags.APIUrl, "api-url", "", "status API URL (default http://127.0.0.1:8080)")
	cmd.Flags().DurationVar(&statusFlags.APITimeout, "api-timeout", 10*time.Second, "request timeout")

	return cmd
}

// createAddCommand creates the add subcommand
func createAddCommand(addFlags *AddFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Submit a status record to the API server",
		Long: `Add submits one status record. The timestamp is optional; the
server assigns one when omitted.

Examples:
  svcmon add --name=httpd --status=UP --host=web-01
  svcmon add --name=rabbitmq --status=DOWN --host=mq-01 --timestamp=2024-05-01T10:00:00Z`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(*addFlags)
		},
	}

	cmd.Flags().StringVar(&addFlags.Name, "name", "", "service name (required)")
	cmd.Flags().StringVar(&addFlags.Status, "status", "", "service status, UP or DOWN (required)")
	cmd.Flags().StringVar(&addFlags.Host, "host", "", "host the record originates from (required)")
	cmd.Flags().StringVar(&addFlags.Timestamp, "timestamp", "", "record timestamp (optional)")
	cmd.Flags().StringVar(&addFlags.APIUrl, "api-url", "", "status API URL (default http://127.0.0.1:8080)")
	cmd.Flags().DurationVar(&addFlags.APITimeout, "api-timeout", 10*time.Second, "request timeout")

	for _, name := range []string{"name", "status", "host"} {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(err)
		}
	}

	return cmd
}
