package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"ihaboard/internal/config"
	"ihaboard/internal/errors"
	"ihaboard/internal/imageboard"
	"ihaboard/internal/logger"
	"ihaboard/internal/service"
)

// ── HTTP routes ────────────────────────────────────────────
// GET /danbooru, /safebooru and /zerochan take ?search=a+b&random=1
// and answer with the search envelope. /boards/{board} does the same
// for any registered board.

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
	defaultHistory    = 50
	maxHistory        = 1000
)

// Handler returns the HTTP routes wrapped in request logging.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	for _, board := range []string{"danbooru", "safebooru", "zerochan"} {
		mux.HandleFunc("GET /"+board, func(w http.ResponseWriter, r *http.Request) {
			a.handleSearch(w, r, board)
		})
	}
	mux.HandleFunc("GET /boards", a.handleBoards)
	mux.HandleFunc("GET /boards/{board}", func(w http.ResponseWriter, r *http.Request) {
		a.handleSearch(w, r, r.PathValue("board"))
	})
	mux.HandleFunc("GET /history", a.handleHistory)
	return logRequests(mux)
}

// Serve runs the HTTP server on server.addr until ctx is done.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Logger.Infow("Starting HTTP server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return errors.Wrapf(err, "listen on %s", srv.Addr)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "server forced to shutdown")
	}
	return nil
}

func (a *App) handleSearch(w http.ResponseWriter, r *http.Request, board string) {
	q := r.URL.Query()
	env, err := a.search.Search(r.Context(), service.SearchRequest{
		Board:  board,
		Tags:   imageboard.SplitTags(q.Get("search")),
		Random: ToRealBool(q.Get("random")),
		Origin: service.OriginHTTP,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, env)
}

func (a *App) handleBoards(w http.ResponseWriter, r *http.Request) {
	infos := a.search.Boards()
	resp := BoardsResponse{Boards: make([]BoardView, len(infos))}
	for i, info := range infos {
		resp.Boards[i] = BoardView{
			Name:        info.Name,
			Description: info.Description,
			Random:      info.Random,
			Path:        "/boards/" + info.Name,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *App) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := defaultHistory
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, r, errors.WrapInvalidRequest(errors.Newf("limit %q", raw), "limit must be a positive integer"))
			return
		}
		limit = min(n, maxHistory)
	}

	entries, err := a.search.History(r.Context(), q.Get("board"), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// ToRealBool coerces a loose query flag. 1/true/y/yes are true, in any
// case; everything else, including "", is false.
func ToRealBool(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "y", "yes":
		return true
	default:
		return false
	}
}

// ── Responses ──────────────────────────────────────────────

// writeJSON writes v with a 4-space indent. Non-ASCII and "/" are
// written as-is.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		logger.Logger.Errorw("Failed to encode response", "error", err)
		http.Error(w, imageboard.FailureMessage, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Logger.Errorw("Request failed", "path", r.URL.Path, "error", err)
		msg = imageboard.FailureMessage
	}
	writeJSON(w, status, ErrorResponse{Message: msg, StatusCode: status})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, imageboard.ErrUnknownBoard):
		return http.StatusNotFound
	case errors.Is(err, imageboard.ErrRandomUnsupported), errors.IsInvalidRequestError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ── Request logging ────────────────────────────────────────

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		logger.Logger.Infow("HTTP request",
			"id", id, "method", r.Method, "path", r.URL.Path,
			"status", rec.status, "duration", time.Since(start))
	})
}

// RunHTTP starts the app with its saved-search schedules and serves
// HTTP until SIGINT or SIGTERM.
func RunHTTP(cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a := New(cfg, nil)
	if err := a.Startup(ctx); err != nil {
		return err
	}
	a.StartSchedules(ctx)

	err := a.Serve(ctx)

	drainCtx, drainCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer drainCancel()
	a.Shutdown(drainCtx)
	return err
}
