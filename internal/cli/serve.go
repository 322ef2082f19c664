package cli

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/spatialbench/internal/api"
	"github.com/matzehuels/spatialbench/pkg/errors"
	"github.com/matzehuels/spatialbench/pkg/pipeline"
	"github.com/matzehuels/spatialbench/pkg/relation"
	"github.com/matzehuels/spatialbench/pkg/render"
)

const shutdownTimeout = 10 * time.Second

type serveFlags struct {
	addr string
	opts pipeline.Options
	size int
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var f serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve samples, images and prompts over HTTP",
		Long: `Serve starts an HTTP API that regenerates samples on demand. A seeded
server returns exactly the samples that generate writes for the same options.

  GET /v1/{mode}/samples/{index}
  GET /v1/{mode}/samples/{index}/image.png
  GET /v1/{mode}/samples/{index}/prompt?setting=rel_imgVp_aP`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), &f)
		},
	}

	def := pipeline.DefaultOptions(relation.Quadrant)
	fl := cmd.Flags()
	fl.StringVarP(&f.addr, "addr", "a", ":8080", "listen address")
	bindSamplingFlags(cmd, &f.opts)
	fl.StringVar((*string)(&f.opts.Seeding), "seeding", string(def.Seeding), "seeding policy: full or geometry")
	fl.IntVar(&f.opts.MinPoints, "min-points", def.MinPoints, "minimum markers per map")
	fl.IntVar(&f.opts.MaxPoints, "max-points", def.MaxPoints, "maximum markers per map")
	fl.IntVar(&f.size, "size", render.DefaultSize, "image width and height in pixels")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, f *serveFlags) error {
	if f.size <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "size must be positive, got %d", f.size)
	}
	srv, err := api.New(api.Config{
		Options: f.opts,
		Render:  []render.Option{render.WithSize(f.size)},
		Logger:  c.Logger,
	})
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", f.addr)
	if err != nil {
		return err
	}
	httpSrv := &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() { errc <- httpSrv.Serve(ln) }()
	c.ui.success("Listening on %s", StyleLink.Render("http://"+ln.Addr().String()))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	c.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
