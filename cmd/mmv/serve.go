package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/mindmap_viewer/pkg/preview"
)

func serveCmd(opts *options) *cobra.Command {
	var file, addr string
	var width, height float64

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a live-reloading SVG preview of a tree file",
		Long: "Serve the rendered map over HTTP. Open pages reload whenever the file\n" +
			"changes; a broken file keeps the last good drawing and shows the error.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" || file == "-" {
				return fmt.Errorf("--file must name a tree file")
			}
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			logger := newLogger(opts, cmd.ErrOrStderr())

			srv, err := preview.New(file, preview.Options{
				Engine:   cfg.Engine(),
				Style:    cfg.Style(),
				Limits:   cfg.TreeLimits(),
				Width:    width,
				Height:   height,
				Debounce: cfg.Watch.Debounce,
				Logger:   logger,
			})
			if err != nil {
				return err
			}
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Serving %s at http://%s/\n", file, ln.Addr())

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Serve(ctx, ln)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Tree file to serve")
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "Listen address")
	cmd.Flags().Float64Var(&width, "width", 1280, "Viewport width in pixels")
	cmd.Flags().Float64Var(&height, "height", 800, "Viewport height in pixels")
	return cmd
}
