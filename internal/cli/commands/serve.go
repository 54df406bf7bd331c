package commands

import (
	"context"
	"fmt"
	"net"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/metarest/internal/web/dispatch"
	"github.com/conduit-lang/metarest/internal/web/middleware"
	"github.com/conduit-lang/metarest/internal/web/server"
)

// NewServeCommand creates the serve command
func NewServeCommand(flags *globalFlags) *cobra.Command {
	var (
		addr    string
		migrate bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server.

The schema is loaded and validated before the listener opens, so schema errors
stop the process instead of surfacing on the first request. The server drains
in-flight requests on SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(flags)
			if err != nil {
				return err
			}
			defer a.Close()

			if addr != "" {
				host, port, err := splitAddr(addr)
				if err != nil {
					return err
				}
				a.config.Server.Host, a.config.Server.Port = host, port
			}

			return runServer(ctx, cmd, a, migrate)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides server.host and server.port")
	cmd.Flags().BoolVar(&migrate, "migrate", false, "create missing tables before serving")

	return cmd
}

func runServer(ctx context.Context, cmd *cobra.Command, a *app, migrate bool) error {
	cfg := a.config

	catalog, err := a.catalog(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	s, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if migrate {
		if err := s.Migrate(ctx, catalog); err != nil {
			return err
		}
	}

	documents, err := a.documentCache(ctx)
	if err != nil {
		return err
	}

	d := dispatch.New(a.introspector, dispatch.StoreSessions(s), documents, dispatch.Config{
		Prefix:              cfg.Server.APIPrefix,
		MaxDepth:            cfg.Navigation.MaxDepth,
		ShowDetails:         cfg.Server.ShowErrorDetails,
		CatalogCacheControl: "no-cache",
	}, a.logger)

	stack := middleware.Stack(middleware.StackConfig{
		Logger:         a.logger.Named("http"),
		RequestTimeout: cfg.Server.RequestTimeout,
		CORSOrigins:    cfg.Server.CORSOrigins,
	})

	srvConfig := server.DefaultConfig(d.Handler(stack.Middlewares()...))
	srvConfig.Address = cfg.Addr()
	srvConfig.ReadTimeout = cfg.Server.ReadTimeout
	srvConfig.WriteTimeout = cfg.Server.WriteTimeout
	srvConfig.IdleTimeout = cfg.Server.IdleTimeout
	srvConfig.Logger = a.logger
	if cfg.Server.TLSCert != "" {
		srvConfig.TLSConfig = &server.TLSConfig{CertFile: cfg.Server.TLSCert, KeyFile: cfg.Server.TLSKey}
	}

	srv, err := server.New(srvConfig)
	if err != nil {
		return err
	}

	gs := server.NewGracefulShutdown(srv, &server.ShutdownConfig{
		Timeout: cfg.Server.ShutdownTimeout,
		Logger:  a.logger,
	})

	a.logger.Info("serving catalog",
		zap.Int("types", len(catalog.Types())),
		zap.String("fingerprint", catalog.Fingerprint()),
		zap.String("prefix", cfg.Server.APIPrefix))

	color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "✓ metarest listening on %s (%d types)\n", cfg.Addr(), len(catalog.Types()))
	return gs.Run(ctx)
}

// splitAddr parses host:port
func splitAddr(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid --addr %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port in --addr %q", addr)
	}
	return host, port, nil
}
