package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mermaid/internal/server"
	"github.com/matzehuels/mermaid/pkg/cache"
	"github.com/matzehuels/mermaid/pkg/store"
)

// shutdownTimeout bounds how long serve waits for in-flight requests.
const shutdownTimeout = 10 * time.Second

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr    string // listen address
	noCache bool   // disable the result cache
}

// serveCommand creates the serve command. It runs the HTTP API with the
// cache and store backends selected by the config file: Redis and MongoDB
// when configured, file cache and in-memory store otherwise.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{addr: c.Config.Server.Addr}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the diagram parsing HTTP API",
		Long: `Run the HTTP API for parsing and storing diagrams.

Backends come from the config file: a configured [redis] block enables the
Redis result cache, a configured [mongo] block enables persistent diagram
storage. Without them serve uses the file cache and an in-memory store.

Examples:
  mermaid serve
  mermaid serve --addr :9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", opts.addr, "listen address")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the result cache")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts *serveOpts) error {
	resultCache, err := c.serveCache(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer resultCache.Close()

	st, err := c.serveStore(ctx)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := st.Close(closeCtx); err != nil {
			c.Logger.Warn("store close failed", "err", err)
		}
	}()

	var srvOpts []server.Option
	if scope := c.Config.Server.CacheScope; scope != "" {
		srvOpts = append(srvOpts, server.WithCacheScope(scope))
	}
	srv := &http.Server{
		Addr:              opts.addr,
		Handler:           server.New(st, resultCache, c.Logger, srvOpts...).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		c.Logger.Info("server listening", "addr", opts.addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	c.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// serveCache selects the server's result cache. Redis when configured,
// otherwise the file cache shared with the CLI commands.
func (c *CLI) serveCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if r := c.Config.Redis; r.Addr != "" {
		c.Logger.Info("using redis cache", "addr", r.Addr)
		return cache.NewRedisCache(ctx, r.Addr, r.Password, r.DB)
	}
	return c.newCache(false)
}

// serveStore selects the diagram store. MongoDB when configured, otherwise
// an in-memory store that does not survive restarts.
func (c *CLI) serveStore(ctx context.Context) (store.Store, error) {
	if m := c.Config.Mongo; m.URI != "" {
		c.Logger.Info("using mongodb store", "database", m.Database)
		return store.NewMongoStore(ctx, m.URI, m.Database)
	}
	c.Logger.Warn("no mongo configured, diagrams are kept in memory")
	return store.NewMemoryStore(), nil
}
