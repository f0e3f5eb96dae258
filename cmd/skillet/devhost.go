package main

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillet/pkg/csitest"
	"github.com/jingkaihe/skillet/pkg/logger"
	"github.com/jingkaihe/skillet/pkg/presenter"
)

// DevHostConfig holds configuration for the dev-host command
type DevHostConfig struct {
	Addr  string
	Token string
}

// NewDevHostConfig creates a DevHostConfig with default values
func NewDevHostConfig() *DevHostConfig {
	return &DevHostConfig{
		Addr: "localhost:8081",
	}
}

var devHostCmd = withTracing(&cobra.Command{
	Use:   "dev-host",
	Short: "Serve the CSI dev protocol backed by an echoing stub",
	Long: `Start a local development host speaking the CSI protocol on POST /csi.

Every call is answered by a deterministic stub: completions echo the prompt,
chat echoes the last message and chunking returns the text as one chunk.
Point skills at it with SKILLET_DEV_ADDRESS=http://localhost:8081.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		config := getDevHostConfigFromFlags(cmd)
		return runDevHost(cmd.Context(), config)
	},
})

func init() {
	defaults := NewDevHostConfig()
	devHostCmd.Flags().String("addr", defaults.Addr, "Address to listen on")
	devHostCmd.Flags().String("token", defaults.Token, "Bearer token clients must send, empty accepts any request")
}

// getDevHostConfigFromFlags extracts dev host configuration from command flags
func getDevHostConfigFromFlags(cmd *cobra.Command) *DevHostConfig {
	config := NewDevHostConfig()

	if addr, err := cmd.Flags().GetString("addr"); err == nil {
		config.Addr = addr
	}
	if token, err := cmd.Flags().GetString("token"); err == nil {
		config.Token = token
	}

	return config
}

// validateDevHostConfig checks that the listen address is host:port
func validateDevHostConfig(config *DevHostConfig) error {
	_, port, err := net.SplitHostPort(config.Addr)
	if err != nil {
		return errors.Wrapf(err, "invalid listen address %q", config.Addr)
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 0 || n > 65535 {
		return errors.Errorf("invalid port %q", port)
	}
	return nil
}

func runDevHost(ctx context.Context, config *DevHostConfig) error {
	if err := validateDevHostConfig(config); err != nil {
		return err
	}

	server := csitest.NewDevServer(csitest.NewStubCsi(), config.Token)

	logger.G(ctx).WithField("addr", config.Addr).Info("starting dev host")
	presenter.Success(fmt.Sprintf("Dev host listening on http://%s/csi", config.Addr))
	if config.Token == "" {
		presenter.Warning("No --token set, requests are not authenticated")
	}
	presenter.Info("Press Ctrl+C to stop the server")

	if err := server.ListenAndServe(ctx, config.Addr); err != nil {
		return err
	}
	presenter.Info("Dev host stopped")
	return nil
}
