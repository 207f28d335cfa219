package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/msto63/cobdoc/internal/analysis/server"
	"github.com/msto63/cobdoc/pkg/core/version"
	"github.com/spf13/cobra"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gRPC analysis service",
	Long: `Starts the cobdoc.v1.AnalysisService gRPC service together with the
standard gRPC health service. Address, reflection, keepalive and the run
store are taken from the config file.

Examples:
  cobdoc serve
  cobdoc serve --port 9400
  COBDOC_CONFIG=/etc/cobdoc/config.toml cobdoc serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveHost, "host", "", "listen host (overrides config)")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := server.ConfigFrom(appConfig)
	if serveHost != "" {
		cfg.GRPC.Host = serveHost
	}
	if servePort != 0 {
		cfg.GRPC.Port = servePort
	}

	srv, err := server.New(cfg)
	if err != nil {
		return err
	}

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", titleStyle.Render("cobdoc "+version.Service),
		mutedStyle.Render(fmt.Sprintf("serving %s on %s:%d", server.ServiceName, cfg.GRPC.Host, cfg.GRPC.Port)))

	select {
	case <-sigCh:
		fmt.Fprintln(cmd.OutOrStdout(), "\nStopping service...")
	case err := <-errCh:
		if err != nil {
			srv.Stop(context.Background())
			return err
		}
	}

	return srv.Stop(context.Background())
}
