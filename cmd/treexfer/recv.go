package main

import (
	"github.com/danmuck/treexfer/internal/config"
	"github.com/danmuck/treexfer/internal/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newRecvCmd(root *rootOptions) *cobra.Command {
	var (
		host        string
		port        int
		once        bool
		metricsAddr string
		noProgress  bool
	)
	cmd := &cobra.Command{
		Use:     "recv [dest]",
		Aliases: []string{"server", "s", "srv", "0"},
		Short:   "Receive transfers into a destination directory",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load("recv")
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if len(args) == 1 {
				cfg.Server.Dest = args[0]
			}
			if flags.Changed("ip") {
				if err := config.ValidateHost(host, true); err != nil {
					return err
				}
				cfg.Server.Host = host
			}
			if flags.Changed("port") {
				if err := config.ValidatePort(port); err != nil {
					return portFlagError(err)
				}
				cfg.Server.Port = port
			}
			if flags.Changed("once") {
				cfg.Server.Once = once
			}
			if flags.Changed("metrics-addr") {
				cfg.Server.MetricsAddr = metricsAddr
			}
			if noProgress {
				cfg.Server.Progress = false
			}
			if err := server.CheckDest(cfg.Server.Dest); err != nil {
				return err
			}
			return server.New(cfg.Server, cfg.Session, log.Logger).Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&host, "ip", "", "bind address (all interfaces when empty)")
	cmd.Flags().IntVar(&port, "port", config.DefaultPort, "listen port")
	cmd.Flags().BoolVar(&once, "once", true, "exit after the first transfer")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve /health and /metrics on this address")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable the progress bar")
	return cmd
}
