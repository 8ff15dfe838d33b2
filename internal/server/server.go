// Package server exposes scan triggers and stored reports over HTTP.
//
// POST /scan?path=... starts a background check and answers 202 with the
// classified target. Clients poll GET /reports/{category}[/{identity}] for
// the persisted result; an absent identity means no incompatibility is
// on record.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/ancients-collective/vipscan/internal/types"
)

// Checker classifies and checks targets.
type Checker interface {
	Target(path string) types.ScanTarget
	CheckTarget(ctx context.Context, target types.ScanTarget) (types.Outcome, error)
}

// ReportStore reads persisted reports.
type ReportStore interface {
	Reports(category types.Category) (map[string]types.Report, error)
	Get(category types.Category, identity string) (types.Report, bool, error)
}

// Options wires a Server.
type Options struct {
	Checker Checker
	Store   ReportStore

	// Root restricts scan paths to a directory tree. Empty allows any path.
	Root string

	// Concurrency bounds background checks. Values below 1 mean 1.
	Concurrency int

	Logger *zap.SugaredLogger
}

// Server handles HTTP requests.
type Server struct {
	checker Checker
	store   ReportStore
	root    string
	log     *zap.SugaredLogger

	sem chan struct{}
	wg  sync.WaitGroup

	// base is the parent context of background checks.
	base   context.Context
	cancel context.CancelFunc
}

// New creates a Server.
func New(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	n := opts.Concurrency
	if n < 1 {
		n = 1
	}
	root := opts.Root
	if root != "" {
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
	}
	base, cancel := context.WithCancel(context.Background())
	return &Server{
		checker: opts.Checker,
		store:   opts.Store,
		root:    root,
		log:     log,
		sem:     make(chan struct{}, n),
		base:    base,
		cancel:  cancel,
	}
}

// ScanAccepted is the 202 body of POST /scan.
type ScanAccepted struct {
	Path     string         `json:"path"`
	Category types.Category `json:"category"`
	Identity string         `json:"identity"`
}

type errorBody struct {
	Error string `json:"error"`
}

// Handler routes one request.
func (s *Server) Handler(ctx *fasthttp.RequestCtx) {
	path := string(ctx.Path())
	method := string(ctx.Method())

	switch {
	case path == "/healthz":
		if method != fasthttp.MethodGet {
			s.methodNotAllowed(ctx, fasthttp.MethodGet)
			return
		}
		writeJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "ok"})
	case path == "/scan":
		if method != fasthttp.MethodPost {
			s.methodNotAllowed(ctx, fasthttp.MethodPost)
			return
		}
		s.handleScan(ctx)
	case strings.HasPrefix(path, "/reports/"):
		if method != fasthttp.MethodGet {
			s.methodNotAllowed(ctx, fasthttp.MethodGet)
			return
		}
		s.handleReports(ctx, strings.TrimPrefix(path, "/reports/"))
	default:
		writeJSON(ctx, fasthttp.StatusNotFound, errorBody{Error: "not found"})
	}
}

func (s *Server) handleScan(ctx *fasthttp.RequestCtx) {
	raw := string(ctx.QueryArgs().Peek("path"))
	if raw == "" {
		raw = string(ctx.PostArgs().Peek("path"))
	}
	if raw == "" {
		writeJSON(ctx, fasthttp.StatusBadRequest, errorBody{Error: "missing path parameter"})
		return
	}
	abs, err := filepath.Abs(raw)
	if err != nil {
		writeJSON(ctx, fasthttp.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	if !s.allowed(abs) {
		writeJSON(ctx, fasthttp.StatusForbidden, errorBody{Error: fmt.Sprintf("path %q is outside %s", raw, s.root)})
		return
	}

	target := s.checker.Target(abs)
	s.enqueue(target)

	writeJSON(ctx, fasthttp.StatusAccepted, ScanAccepted{
		Path:     target.Path,
		Category: target.Category,
		Identity: target.Identity,
	})
}

// allowed reports whether abs lies inside Root once symlinks on both sides
// are resolved. A path that does not exist yet is checked lexically.
func (s *Server) allowed(abs string) bool {
	if s.root == "" {
		return true
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return within(s.root, abs)
	}
	root, err := filepath.EvalSymlinks(s.root)
	if err != nil {
		root = s.root
	}
	return within(root, resolved)
}

func within(base, path string) bool {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// enqueue runs the check in the background. The caller never waits for it.
func (s *Server) enqueue(target types.ScanTarget) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		select {
		case s.sem <- struct{}{}:
		case <-s.base.Done():
			return
		}
		defer func() { <-s.sem }()

		outcome, err := s.checker.CheckTarget(s.base, target)
		if err != nil {
			s.log.Errorw("background check failed",
				"category", target.Category, "identity", target.Identity, "error", err)
			return
		}
		s.log.Infow("background check finished",
			"category", target.Category,
			"identity", target.Identity,
			"verdict", outcome.Verdict.Status,
			"findings", len(outcome.Findings))
	}()
}

func (s *Server) handleReports(ctx *fasthttp.RequestCtx, rest string) {
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" || len(parts) > 2 {
		writeJSON(ctx, fasthttp.StatusNotFound, errorBody{Error: "not found"})
		return
	}
	category, err := types.ParseCategory(parts[0])
	if err != nil {
		writeJSON(ctx, fasthttp.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	if len(parts) == 1 {
		reports, err := s.store.Reports(category)
		if err != nil {
			s.log.Warnw("cannot read reports", "category", category, "error", err)
			writeJSON(ctx, fasthttp.StatusInternalServerError, errorBody{Error: "cannot read reports"})
			return
		}
		if reports == nil {
			reports = map[string]types.Report{}
		}
		writeJSON(ctx, fasthttp.StatusOK, reports)
		return
	}

	report, ok, err := s.store.Get(category, parts[1])
	if err != nil {
		s.log.Warnw("cannot read report", "category", category, "identity", parts[1], "error", err)
		writeJSON(ctx, fasthttp.StatusInternalServerError, errorBody{Error: "cannot read reports"})
		return
	}
	if !ok {
		writeJSON(ctx, fasthttp.StatusNotFound, errorBody{Error: "no report for " + parts[1]})
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, report)
}

func (s *Server) methodNotAllowed(ctx *fasthttp.RequestCtx, allow string) {
	ctx.Response.Header.Set("Allow", allow)
	writeJSON(ctx, fasthttp.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	if err := json.NewEncoder(ctx).Encode(v); err != nil {
		ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
	}
}

// Serve accepts connections on ln until ctx is done, then shuts down and
// waits for background checks to stop.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &fasthttp.Server{
		Handler:      s.Handler,
		Name:         "vipscan",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	s.log.Infow("serving", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		s.cancel()
		s.wg.Wait()
		return err
	case <-ctx.Done():
	}

	err := srv.Shutdown()
	s.cancel()
	s.wg.Wait()
	if err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

// ListenAndServe listens on addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Wait blocks until every background check has finished.
func (s *Server) Wait() {
	s.wg.Wait()
}
