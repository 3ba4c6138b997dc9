package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/banterlab/vetta/internal/webserver"
)

func newServeCommand() *cobra.Command {
	var port int
	var useMock bool
	var allowedOrigins []string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the interview HTTP server",
		Long: `Start the HTTP server exposing the interview turn protocol.

Endpoints:
  POST   /api/interviews                Start an interview
  POST   /api/interviews/{id}/answers   Submit an answer
  GET    /api/interviews/{id}           Fetch a session snapshot (resume)
  DELETE /api/interviews/{id}           Delete a session
  GET    /api/health                    Health check

The server binds to loopback only. A background sweep removes sessions
inactive beyond the configured TTL.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(useMock)
			if err != nil {
				return err
			}
			defer app.close()

			if port == 0 {
				port = app.cfg.Server.Port
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			go app.store.RunSweeper(ctx, app.sweepInterval())

			srv, err := webserver.New(webserver.Config{
				Port:           port,
				AllowedOrigins: allowedOrigins,
				Machine:        app.machine,
				Logger:         app.logger,
			})
			if err != nil {
				return err
			}
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Port to listen on (defaults to config value)")
	cmd.Flags().BoolVar(&useMock, "mock", false, "Use the offline mock generator instead of the model API")
	cmd.Flags().StringSliceVar(&allowedOrigins, "allow-origin", nil, "Origins allowed for cross-origin requests")

	return cmd
}
