package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	httpAdapter "github.com/aretw0/scribe/pkg/adapters/http"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Exposes the assistant as a JSON API over HTTP, with Server-Sent Events
for state changes and Prometheus metrics at /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, cfg, err := buildRuntime(cmd, true)
		if err != nil {
			return err
		}
		defer rt.Close()

		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}

		rt.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metricsHandler := promhttp.HandlerFor(rt.Registry, promhttp.HandlerOpts{Registry: rt.Registry})

		api := httpAdapter.NewHandler(rt.Assistant, httpAdapter.WithLogger(rt.Logger))
		servers := []*http.Server{}
		if cfg.Server.MetricsAddr == "" || cfg.Server.MetricsAddr == cfg.Server.Addr {
			r := chi.NewRouter()
			r.Handle("/metrics", metricsHandler)
			r.Mount("/", api)
			servers = append(servers, &http.Server{Addr: cfg.Server.Addr, Handler: r})
		} else {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metricsHandler)
			servers = append(servers,
				&http.Server{Addr: cfg.Server.Addr, Handler: api},
				&http.Server{Addr: cfg.Server.MetricsAddr, Handler: mux},
			)
		}

		// Channel to listen for errors coming from the listeners.
		serverErrors := make(chan error, len(servers))
		for _, srv := range servers {
			go func(srv *http.Server) {
				rt.Logger.Info("Starting Scribe Server", "addr", srv.Addr)
				serverErrors <- srv.ListenAndServe()
			}(srv)
		}

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(shutdown)

		var runErr error
		select {
		case err := <-serverErrors:
			if !errors.Is(err, http.ErrServerClosed) {
				runErr = fmt.Errorf("server error: %w", err)
			}
		case sig := <-shutdown:
			rt.Logger.Info("Start shutdown", "signal", sig.String())
		}

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		for _, srv := range servers {
			if err := srv.Shutdown(ctx); err != nil {
				rt.Logger.Warn("Graceful shutdown did not complete", "addr", srv.Addr, "timeout", shutdownTimeout, "err", err)
				_ = srv.Close()
			}
		}
		rt.Logger.Info("Scribe Server stopped")
		return runErr
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Address to listen on (overrides server.addr)")
}
