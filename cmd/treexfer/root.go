package main

import (
	"fmt"

	"github.com/danmuck/treexfer/internal/config"
	"github.com/danmuck/treexfer/internal/logging"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	cfgFile string
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "treexfer",
		Short: "Send files and directory trees over TCP",
		Long: `treexfer pushes a single file or a whole directory tree from a sender to a
receiver over one TCP connection. Run "treexfer recv" on the receiving host
and "treexfer send <path>" on the sending host.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "TOML config file (defaults are used when unset)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(newSendCmd(opts), newRecvCmd(opts), newConfigCmd())
	return cmd
}

// load resolves the config file, if any, and installs the process logger.
func (o *rootOptions) load(app string) (config.Config, error) {
	cfg := config.DefaultConfig()
	if o.cfgFile != "" {
		var err error
		cfg, err = config.Load(o.cfgFile)
		if err != nil {
			return config.Config{}, err
		}
	}
	logging.ConfigureRuntime(app, cfg.Log.Level, o.verbose)
	if o.cfgFile != "" {
		log.Debug().Str("path", o.cfgFile).Msg("loaded config")
	}
	return cfg, nil
}

func portFlagError(err error) error {
	return fmt.Errorf("--port: %w", err)
}
