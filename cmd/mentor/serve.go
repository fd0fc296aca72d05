package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/mentor/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve goals and tasks over HTTP",
	Long: `Start the JSON HTTP API used by browser front ends.

The listen address defaults to server.addr (":8080"). CORS origins come
from server.allowed_origins. Stop with Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	addr := a.cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	srv := server.New(a.store, a.decompose, server.Config{
		Addr:           addr,
		AllowedOrigins: a.cfg.Server.AllowedOrigins,
		ListLimit:      a.cfg.Goals.ListLimit,
	}, a.logger.Logger())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on %s\n", a.store.Path(), addr)
	if err := srv.ListenAndServe(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
