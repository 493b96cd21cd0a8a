package service

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"

	"ihaboard/internal/domain"
	"ihaboard/internal/errors"
	"ihaboard/internal/imageboard"
	"ihaboard/internal/logger"
	"ihaboard/internal/mapping"
)

// ─────────────────────────────────────────────────────────────
// Search Service: one entry point for every search caller
// ─────────────────────────────────────────────────────────────

// Origins recorded in history.
const (
	OriginHTTP = "http"
	OriginMCP  = "mcp"
	OriginCLI  = "cli"
)

const reloadDebounce = 500 * time.Millisecond

// SearchRequest is one search call.
type SearchRequest struct {
	Board  string   `json:"board"`
	Tags   []string `json:"tags"`
	Random bool     `json:"random"`
	Origin string   `json:"origin"`
}

// SearchService opens boards, runs searches, records history, and
// keeps the mapping set and saved-search schedules alive.
type SearchService struct {
	history domain.HistoryStore
	emitter EventEmitter
	opts    imageboard.Options
	urls    map[string]string
	specs   atomic.Pointer[mapping.Specs]
	running runningGuard

	// watcher / cron lifecycle
	mu          sync.Mutex
	watchCancel context.CancelFunc
	watcher     *fsnotify.Watcher
	cronSched   *cron.Cron
}

// NewSearchService creates a SearchService using the built-in mappings.
// history may be nil; emitter defaults to LogEmitter.
func NewSearchService(history domain.HistoryStore, emitter EventEmitter, opts imageboard.Options) *SearchService {
	if emitter == nil {
		emitter = LogEmitter{}
	}
	s := &SearchService{
		history: history,
		emitter: emitter,
		opts:    opts,
		urls:    map[string]string{},
	}
	s.SetSpecs(mapping.DefaultSpecs())
	return s
}

// SetBaseURL points board at a different upstream. Call before serving.
func (s *SearchService) SetBaseURL(board, url string) {
	if url != "" {
		s.urls[board] = url
	}
}

// SetSpecs replaces the active mapping set.
func (s *SearchService) SetSpecs(specs mapping.Specs) {
	s.specs.Store(&specs)
}

// Specs returns the active mapping set.
func (s *SearchService) Specs() mapping.Specs {
	return *s.specs.Load()
}

// Boards lists the registered boards.
func (s *SearchService) Boards() []imageboard.Info {
	return imageboard.List()
}

// ── Search ─────────────────────────────────────────────────

// Search opens req.Board, runs the search and closes the board again.
// The outcome is recorded in history whether or not it failed.
func (s *SearchService) Search(ctx context.Context, req SearchRequest) (*imageboard.Envelope, error) {
	opts := s.opts
	if url, ok := s.urls[req.Board]; ok {
		opts.BaseURL = url
	}
	if spec, ok := s.Specs().Lookup(req.Board); ok {
		opts.Spec = spec
	}
	board, err := imageboard.Open(req.Board, opts)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	env, err := s.runBoard(ctx, board, req)
	s.record(ctx, req, env, err, time.Since(start))
	if err != nil {
		logger.Logger.Errorw("Search failed", "board", req.Board, "tags", req.Tags, "random", req.Random, "error", err)
		return nil, err
	}

	logger.Logger.Infow("Search completed",
		"board", req.Board, "status", env.StatusCode, "results", env.TotalData,
		"duration", time.Since(start), "origin", req.Origin)
	s.emitter.Emit(ctx, EventSearchCompleted, map[string]any{
		"board":      req.Board,
		"statusCode": env.StatusCode,
		"totalData":  env.TotalData,
	})
	return env, nil
}

// runBoard runs the search and releases the board on every path.
func (s *SearchService) runBoard(ctx context.Context, board imageboard.Board, req SearchRequest) (*imageboard.Envelope, error) {
	defer func() {
		if cerr := board.Close(); cerr != nil {
			logger.Logger.Warnw("Failed to close board", "board", req.Board, "error", cerr)
		}
	}()

	if req.Random {
		return board.RandomSearch(ctx, req.Tags)
	}
	return board.Search(ctx, req.Tags)
}

func (s *SearchService) record(ctx context.Context, req SearchRequest, env *imageboard.Envelope, runErr error, d time.Duration) {
	if s.history == nil {
		return
	}
	entry := &domain.HistoryEntry{
		Board:      req.Board,
		Tags:       imageboard.CleanTags(req.Tags),
		Random:     req.Random,
		Origin:     req.Origin,
		DurationMs: d.Milliseconds(),
	}
	if env != nil {
		entry.StatusCode = env.StatusCode
		entry.TotalData = env.TotalData
	}
	if runErr != nil {
		entry.Error = runErr.Error()
	}
	// History must outlive a cancelled request context.
	if err := s.history.Record(context.WithoutCancel(ctx), entry); err != nil {
		logger.Logger.Warnw("Failed to record search history", "board", req.Board, "error", err)
	}
}

// History returns recent searches, newest first.
func (s *SearchService) History(ctx context.Context, board string, limit int) ([]domain.HistoryEntry, error) {
	if s.history == nil {
		return []domain.HistoryEntry{}, nil
	}
	entries, err := s.history.List(ctx, board, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list history")
	}
	if entries == nil {
		entries = []domain.HistoryEntry{}
	}
	return entries, nil
}

// PreviewMapping maps one pasted source record through board's mapping.
func (s *SearchService) PreviewMapping(board string, record map[string]any) (*mapping.Record, error) {
	spec, ok := s.Specs().Lookup(board)
	if !ok {
		return nil, errors.Wrapf(imageboard.ErrUnknownBoard, "no mapping for %q", board)
	}
	return mapping.ApplyOne(record, spec)
}

// ── Mapping reload ─────────────────────────────────────────

// ReloadMappings loads path and swaps it over the built-in mappings.
// On error the active set is left untouched.
func (s *SearchService) ReloadMappings(path string) error {
	loaded, err := mapping.LoadFile(path)
	if err != nil {
		return err
	}
	s.SetSpecs(mapping.DefaultSpecs().Merge(loaded))
	logger.Logger.Infow("Mappings loaded", "path", path, "boards", loaded.Names())
	return nil
}

// WatchMappings reloads path whenever it changes until ctx is done or
// Stop is called.
func (s *SearchService) WatchMappings(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrapf(err, "bad mapping path %q", path)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create watcher")
	}
	// Editors replace files on save; watching the directory survives that.
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		watcher.Close()
		return errors.Wrapf(err, "watch %q", filepath.Dir(absPath))
	}

	s.mu.Lock()
	s.stopWatcherLocked()
	watchCtx, cancel := context.WithCancel(ctx)
	s.watchCancel = cancel
	s.watcher = watcher
	s.mu.Unlock()

	go s.watchLoop(watchCtx, watcher, absPath)
	logger.Logger.Infow("Watching mapping file", "path", absPath)
	return nil
}

func (s *SearchService) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, absPath string) {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if p, _ := filepath.Abs(event.Name); p != absPath {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(reloadDebounce, func() {
				if ctx.Err() != nil {
					return
				}
				if err := s.ReloadMappings(absPath); err != nil {
					logger.Logger.Warnw("Mapping reload failed, keeping previous mappings", "path", absPath, "error", err)
					return
				}
				s.emitter.Emit(ctx, EventMappingReloaded, absPath)
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Logger.Warnw("Mapping watcher error", "error", err)
		}
	}
}

// ── Saved searches ─────────────────────────────────────────

// StartSchedules replaces the running cron with one entry per saved
// search. Invalid entries are skipped and reported in the error.
func (s *SearchService) StartSchedules(ctx context.Context, saved []domain.SavedSearch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopCronLocked()

	if len(saved) == 0 {
		return nil
	}

	var errs []error
	c := cron.New()
	scheduled := 0
	for _, ss := range saved {
		if ss.Name == "" || ss.Schedule == "" {
			errs = append(errs, errors.Newf("saved search %q needs a name and a schedule", ss.Name))
			continue
		}
		if _, ok := imageboard.Lookup(ss.Board); !ok {
			errs = append(errs, errors.Wrapf(imageboard.ErrUnknownBoard, "saved search %q: board %q", ss.Name, ss.Board))
			continue
		}
		if _, err := c.AddFunc(ss.Schedule, func() { s.RunSaved(ctx, ss) }); err != nil {
			errs = append(errs, errors.Wrapf(err, "saved search %q: invalid schedule %q", ss.Name, ss.Schedule))
			continue
		}
		scheduled++
	}

	if scheduled > 0 {
		c.Start()
		s.cronSched = c
		logger.Logger.Infow("Scheduled saved searches", "count", scheduled)
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// RunSaved runs one saved search unless its previous run is still going.
// Reports whether it ran.
func (s *SearchService) RunSaved(ctx context.Context, ss domain.SavedSearch) bool {
	if !s.running.TryLock(ss.Name) {
		logger.Logger.Warnw("Saved search still running, skipping tick", "name", ss.Name)
		return false
	}
	defer s.running.Unlock(ss.Name)

	_, err := s.Search(ctx, SearchRequest{
		Board:  ss.Board,
		Tags:   ss.Tags,
		Random: ss.Random,
		Origin: "schedule:" + ss.Name,
	})
	if err != nil {
		s.emitter.Emit(ctx, EventScheduleFailed, map[string]string{
			"name":  ss.Name,
			"error": err.Error(),
		})
	}
	return true
}

// WaitRunning blocks until all running saved searches finish or ctx is
// cancelled. Used for graceful shutdown.
func (s *SearchService) WaitRunning(ctx context.Context) {
	s.running.WaitAll(ctx)
}

// Stop tears down the mapping watcher and the scheduler.
func (s *SearchService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopWatcherLocked()
	s.stopCronLocked()
}

func (s *SearchService) stopWatcherLocked() {
	if s.watchCancel != nil {
		s.watchCancel()
		s.watchCancel = nil
	}
	if s.watcher != nil {
		s.watcher.Close()
		s.watcher = nil
	}
}

func (s *SearchService) stopCronLocked() {
	if s.cronSched != nil {
		s.cronSched.Stop()
		s.cronSched = nil
	}
}
