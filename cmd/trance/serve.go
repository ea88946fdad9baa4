package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/simukka/trance/server"
)

var (
	addr      string
	staticDir string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the browser player",
	Long: `Serve the browser player page, the compiled player script and the
tokenize preview API.

Example:
  gopherjs build -o static/trance.js . && trance serve --static static`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		s := server.New(server.Config{Addr: addr, StaticDir: staticDir}, logger)
		return s.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&addr, "addr", "a", ":8080", "Listen address")
	serveCmd.Flags().StringVar(&staticDir, "static", "", "Directory served under /static/")
}
