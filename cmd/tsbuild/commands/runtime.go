package commands

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/tsbuild/internal/config"
	"git.home.luguber.info/inful/tsbuild/internal/events"
	ferrors "git.home.luguber.info/inful/tsbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/tsbuild/internal/logfields"
	"git.home.luguber.info/inful/tsbuild/internal/metrics"
	"git.home.luguber.info/inful/tsbuild/internal/state"
	"git.home.luguber.info/inful/tsbuild/internal/tasks"
	"git.home.luguber.info/inful/tsbuild/internal/toolchain"
	"git.home.luguber.info/inful/tsbuild/internal/watch"
)

// Runtime is a task set together with the resources backing it.
type Runtime struct {
	Set     *tasks.Set
	Store   state.Store
	closers []func() error
}

// Close releases the runtime's resources in reverse order of acquisition.
func (r *Runtime) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// runtimeOptions tune NewRuntime for a particular command.
type runtimeOptions struct {
	debounce   time.Duration
	cleanGlobs []string
}

// NewRuntime resolves the options and wires the collaborators named by the
// global flags into a task set.
func (c *CLI) NewRuntime(g *Global, ro runtimeOptions) (*Runtime, error) {
	opts, err := c.LoadOptions()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Resolve(opts)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{}
	ok := false
	defer func() {
		if !ok {
			_ = rt.Close()
		}
	}()

	deps := tasks.Deps{Logger: g.Logger}
	if deps.Compiler, deps.Linter, deps.Transformer, err = c.toolchain(); err != nil {
		return nil, err
	}
	deps.Deleter = toolchain.NewFSDeleter()
	deps.Watcher = &watch.FSWatcher{Debounce: ro.debounce, Logger: g.Logger}

	if rt.Store, err = c.openStore(); err != nil {
		return nil, err
	}
	rt.closers = append(rt.closers, rt.Store.Close)
	deps.Store = rt.Store

	if c.NATSURL != "" {
		pub, err := events.NewNATSPublisher(c.NATSURL, c.NATSPrefix)
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryRuntime, "connect event publisher").Build()
		}
		rt.closers = append(rt.closers, func() error { pub.Close(); return nil })
		deps.Publisher = pub
	}

	if c.MetricsAddr != "" {
		reg := prom.NewRegistry()
		deps.Recorder = metrics.NewPrometheusRecorder(reg)
		stop, err := serveMetrics(c.MetricsAddr, reg, g.Logger)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, stop)
	}

	var taskOpts []tasks.Option
	if len(ro.cleanGlobs) > 0 {
		taskOpts = append(taskOpts, tasks.WithCleanGlobs(ro.cleanGlobs...))
	}
	if rt.Set, err = tasks.New(cfg, deps, taskOpts...); err != nil {
		return nil, err
	}
	ok = true
	return rt, nil
}

func (c *CLI) toolchain() (toolchain.Compiler, toolchain.Linter, toolchain.Transformer, error) {
	tsc, err := toolchain.ParseCommand("tsc", c.TSCCmd)
	if err != nil {
		return nil, nil, nil, err
	}
	tslint, err := toolchain.ParseCommand("tslint", c.TSLintCmd)
	if err != nil {
		return nil, nil, nil, err
	}
	babel, err := toolchain.ParseCommand("babel", c.BabelCmd)
	if err != nil {
		return nil, nil, nil, err
	}
	return toolchain.NewTypeScriptCompiler(tsc), toolchain.NewTSLint(tslint), toolchain.NewBabel(babel), nil
}

func (c *CLI) openStore() (state.Store, error) {
	if c.State == "" {
		return state.NewMemoryStore(), nil
	}
	store, err := state.NewSQLiteStore(c.State)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "open state store").
			WithContext("path", c.State).
			Build()
	}
	return store, nil
}

func serveMetrics(addr string, reg *prom.Registry, logger *slog.Logger) (func() error, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryRuntime, "listen for metrics").
			WithContext("addr", addr).
			Build()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(reg))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("Metrics server stopped", logfields.Error(err))
		}
	}()
	logger.Info("Serving metrics", "addr", ln.Addr().String())
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// runTask builds the runtime and runs the named handle once.
func runTask(g *Global, root *CLI, name string, ro runtimeOptions) error {
	rt, err := root.NewRuntime(g, ro)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			g.Logger.Warn("Failed to release resources", logfields.Error(err))
		}
	}()

	task, ok := rt.Set.Lookup(name)
	if !ok {
		return ferrors.InternalError("unknown task " + name).Build()
	}
	ctx, cancel := signalContext()
	defer cancel()
	return task.Run(ctx)
}
