package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/cbus_bridge/cmd/bridge/internal/app"
)

type serveOptions struct {
	configPath     string
	listenAddress  string
	protocol       string
	adapterAddress string
	reconnectDelay time.Duration
	logLevel       string
	maxPending     int
	metricsAddress string
	noEcho         bool
}

func newServeCmd(opts *serveOptions) *cobra.Command {
	defaults := app.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the CBUS hub",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config(cmd)
			if err != nil {
				return err
			}
			bridge, err := app.New(cfg)
			if err != nil {
				return fmt.Errorf("failed to initialise bridge: %w", err)
			}
			if err := bridge.Run(cmd.Context()); err != nil {
				return fmt.Errorf("bridge terminated: %w", err)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "TOML config file; flags override its values")
	f.StringVar(&opts.listenAddress, "listen", defaults.ListenAddress, "Address of the client TCP server")
	f.StringVar(&opts.protocol, "protocol", defaults.ClientProtocol, "Client protocol (gridconnect|slcan)")
	f.StringVar(&opts.adapterAddress, "adapter", "", "host:port of an EByte CAN-to-Ethernet adapter")
	f.DurationVar(&opts.reconnectDelay, "reconnect-delay", defaults.ReconnectDelay, "Delay before retrying the connection to the adapter")
	f.StringVar(&opts.logLevel, "log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
	f.IntVar(&opts.maxPending, "max-pending", defaults.MaxPendingBytes, "Unframed bytes kept per client before the oldest are dropped")
	f.StringVar(&opts.metricsAddress, "metrics", "", "Address for the Prometheus /metrics endpoint")
	f.BoolVar(&opts.noEcho, "no-echo", false, "Do not relay client frames to other clients")
	return cmd
}

// config loads the file named by --config, if any, and applies the flags
// the user set explicitly.
func (o *serveOptions) config(cmd *cobra.Command) (app.Config, error) {
	cfg := app.DefaultConfig()
	if o.configPath != "" {
		var err error
		cfg, err = app.LoadConfig(o.configPath)
		if err != nil {
			return app.Config{}, err
		}
	}

	f := cmd.Flags()
	if f.Changed("listen") {
		cfg.ListenAddress = o.listenAddress
	}
	if f.Changed("protocol") {
		cfg.ClientProtocol = o.protocol
	}
	if f.Changed("adapter") {
		cfg.AdapterAddress = o.adapterAddress
	}
	if f.Changed("reconnect-delay") {
		cfg.ReconnectDelay = o.reconnectDelay
	}
	if f.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if f.Changed("max-pending") {
		cfg.MaxPendingBytes = o.maxPending
	}
	if f.Changed("metrics") {
		cfg.MetricsAddress = o.metricsAddress
	}
	if f.Changed("no-echo") {
		cfg.Echo = !o.noEcho
	}
	if err := cfg.Validate(); err != nil {
		return app.Config{}, err
	}
	return cfg, nil
}
