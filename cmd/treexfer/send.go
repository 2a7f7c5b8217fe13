package main

import (
	"os"

	"github.com/danmuck/treexfer/internal/client"
	"github.com/danmuck/treexfer/internal/config"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newSendCmd(root *rootOptions) *cobra.Command {
	var (
		host       string
		port       int
		noProgress bool
	)
	cmd := &cobra.Command{
		Use:     "send <path>",
		Aliases: []string{"client", "c", "cli", "1"},
		Short:   "Send a file or directory to a receiver",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load("send")
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("ip") || cfg.Client.Host == "" {
				cfg.Client.Host = host
			}
			if cmd.Flags().Changed("port") {
				if err := config.ValidatePort(port); err != nil {
					return portFlagError(err)
				}
				cfg.Client.Port = port
			}
			if err := config.ValidateHost(cfg.Client.Host, false); err != nil {
				return err
			}
			if err := client.CheckSource(args[0]); err != nil {
				return err
			}

			c := client.New(cfg.Client, cfg.Session, log.Logger)
			if !noProgress {
				c.ProgressOut = os.Stderr
			}
			_, err = c.Send(cmd.Context(), args[0])
			return err
		},
	}
	cmd.Flags().StringVar(&host, "ip", "127.0.0.1", "receiver address")
	cmd.Flags().IntVar(&port, "port", config.DefaultPort, "receiver port")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable the progress bar")
	return cmd
}
