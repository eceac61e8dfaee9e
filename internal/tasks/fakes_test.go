package tasks

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/tsbuild/internal/config"
	"git.home.luguber.info/inful/tsbuild/internal/events"
	"git.home.luguber.info/inful/tsbuild/internal/fileset"
	"git.home.luguber.info/inful/tsbuild/internal/metrics"
	"git.home.luguber.info/inful/tsbuild/internal/toolchain"
	"git.home.luguber.info/inful/tsbuild/internal/watch"
)

type fakeCompiler struct {
	calls    atomic.Int32
	delay    time.Duration
	err      error
	lastReq  toolchain.CompileRequest
	finished atomic.Bool
}

func (c *fakeCompiler) Compile(ctx context.Context, req toolchain.CompileRequest) ([]fileset.File, error) {
	c.calls.Add(1)
	c.lastReq = req
	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if c.err != nil {
		return nil, c.err
	}
	out := make([]fileset.File, 0, len(req.Files)*2)
	for _, f := range req.Files {
		js := strings.TrimSuffix(f.Rel, filepath.Ext(f.Rel)) + ".js"
		out = append(out,
			fileset.File{Path: js, Base: f.Base, Rel: js, Contents: []byte("// compiled " + f.Rel)},
			fileset.File{Path: js + ".map", Base: f.Base, Rel: js + ".map", Contents: []byte("{}")},
		)
	}
	c.finished.Store(true)
	return out, nil
}

type fakeLinter struct {
	calls   atomic.Int32
	err     error
	lastReq toolchain.LintRequest
}

func (l *fakeLinter) Lint(_ context.Context, req toolchain.LintRequest) error {
	l.calls.Add(1)
	l.lastReq = req
	return l.err
}

type fakeTransformer struct {
	calls   atomic.Int32
	lastReq toolchain.TransformRequest
}

func (t *fakeTransformer) Transform(_ context.Context, req toolchain.TransformRequest) ([]fileset.File, error) {
	t.calls.Add(1)
	t.lastReq = req
	out := make([]fileset.File, len(req.Files))
	for i, f := range req.Files {
		if toolchain.Transformable(f.Rel) {
			f.Contents = append([]byte("/* "+string(req.Module)+" */"), f.Contents...)
		}
		out[i] = f
	}
	return out, nil
}

type fakeDeleter struct {
	mu    sync.Mutex
	calls int
	globs [][]string
	err   error
}

func (d *fakeDeleter) Delete(_ context.Context, globs []string) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	d.globs = append(d.globs, globs)
	if d.err != nil {
		return nil, d.err
	}
	return globs, nil
}

func (d *fakeDeleter) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

// spySelector records the glob lists it was asked to select.
type spySelector struct {
	mu       sync.Mutex
	inner    Selector
	requests []fileset.Globs
}

func (s *spySelector) Select(ctx context.Context, globs fileset.Globs, since time.Time) ([]fileset.File, error) {
	s.mu.Lock()
	s.requests = append(s.requests, globs)
	s.mu.Unlock()
	return s.inner.Select(ctx, globs, since)
}

func (s *spySelector) selected(globs fileset.Globs) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.requests {
		if strings.Join(r, "\n") == strings.Join(globs, "\n") {
			return true
		}
	}
	return false
}

type fakeWatcher struct {
	mu     sync.Mutex
	globs  fileset.Globs
	fn     func()
	stopCh chan struct{}
}

func (w *fakeWatcher) Watch(_ context.Context, globs fileset.Globs, fn func()) (*watch.Handle, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.globs = globs
	w.fn = fn
	w.stopCh = make(chan struct{})
	var once sync.Once
	return watch.NewHandle(func() { once.Do(func() { close(w.stopCh) }) }, w.stopCh), nil
}

func (w *fakeWatcher) fire() {
	w.mu.Lock()
	fn := w.fn
	w.mu.Unlock()
	fn()
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

type countingRecorder struct {
	metrics.NoopRecorder
	mu       sync.Mutex
	results  map[string]metrics.ResultLabel
	triggers map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{results: map[string]metrics.ResultLabel{}, triggers: map[string]int{}}
}

func (r *countingRecorder) IncTaskResult(task string, result metrics.ResultLabel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[task] = result
}

func (r *countingRecorder) IncWatchTrigger(trigger string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.triggers[trigger]++
}

type harness struct {
	root        string
	cfg         config.ResolvedConfig
	compiler    *fakeCompiler
	linter      *fakeLinter
	transformer *fakeTransformer
	deleter     *fakeDeleter
	watcher     *fakeWatcher
	selector    *spySelector
	publisher   *recordingPublisher
	recorder    *countingRecorder
}

// newHarness lays out a small project under a temp dir and returns a
// development-mode configuration pointing at it.
func newHarness(t *testing.T) *harness {
	t.Helper()
	root := filepath.ToSlash(t.TempDir())
	writeTree(t, root, map[string]string{
		"src/index.ts":         "export const main = () => 1",
		"src/lib/util.ts":      "export const util = 2",
		"src/lib/types.d.ts":   "export declare type T = string",
		"src/demo/example.ts":  "ignored",
		"src/assets/logo.svg":  "<svg/>",
		"src/assets/data.json": "{}",
	})
	cfg, err := config.NewResolver(config.WithProductionDefault(false)).Resolve(config.Options{
		SourcePath: someString(root + "/src"),
		OutputPath: someString(root + "/dist"),
		RootPath:   someString(root),
	})
	require.NoError(t, err)

	return &harness{
		root:        root,
		cfg:         cfg,
		compiler:    &fakeCompiler{},
		linter:      &fakeLinter{},
		transformer: &fakeTransformer{},
		deleter:     &fakeDeleter{},
		watcher:     &fakeWatcher{},
		selector:    &spySelector{inner: fileset.NewSelector()},
		publisher:   &recordingPublisher{},
		recorder:    newCountingRecorder(),
	}
}

func (h *harness) deps() Deps {
	return Deps{
		Compiler:    h.compiler,
		Linter:      h.linter,
		Transformer: h.transformer,
		Deleter:     h.deleter,
		Watcher:     h.watcher,
		Selector:    h.selector,
		Publisher:   h.publisher,
		Recorder:    h.recorder,
	}
}

func (h *harness) build(t *testing.T, opts ...Option) *Set {
	t.Helper()
	set, err := New(h.cfg, h.deps(), opts...)
	require.NoError(t, err)
	return set
}
