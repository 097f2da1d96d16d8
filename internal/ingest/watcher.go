package ingest

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"

	"github.com/joseph-ayodele/tradeslip/constants"
)

type WatchConfig struct {
	Roots       []string      // directories to watch (recursive)
	InitialScan bool          // if true, walk roots and emit existing files
	Debounce    time.Duration // coalesce rapid write/rename bursts
	Logger      *slog.Logger
}

// StartWatcher emits paths of supported files created or written under cfg.Roots.
// Both channels close when ctx is done.
func StartWatcher(ctx context.Context, cfg WatchConfig) (<-chan string, <-chan error, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Roots) == 0 {
		return nil, nil, errors.New("no roots provided")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, errors.Wrap(err, "create fsnotify watcher")
	}

	var initial []string
	for _, root := range cfg.Roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				return w.Add(path)
			}
			if cfg.InitialScan && constants.IsAllowedPath(path) {
				initial = append(initial, path)
			}
			return nil
		})
		if err != nil {
			_ = w.Close()
			return nil, nil, errors.Wrapf(err, "watch root %s", root)
		}
	}
	logger.Info("watching directories", "roots", cfg.Roots, "debounce", cfg.Debounce)

	evCh := make(chan string, 256)
	errCh := make(chan error, 1)
	d := newDebouncer(evCh, cfg.Debounce, logger)

	go func() {
		defer close(errCh)
		defer close(evCh)
		defer d.stop()
		defer func() {
			if err := w.Close(); err != nil {
				logger.Warn("close watcher", "error", err)
			}
		}()

		for _, p := range initial {
			select {
			case evCh <- p:
			case <-ctx.Done():
				return
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if e.Has(fsnotify.Create) {
					if fi, err := os.Stat(e.Name); err == nil && fi.IsDir() {
						if err := w.Add(e.Name); err != nil {
							logger.Warn("failed to watch new directory", "path", e.Name, "error", err)
						}
						continue
					}
				}
				if constants.IsAllowedPath(e.Name) && (e.Has(fsnotify.Create) || e.Has(fsnotify.Write) || e.Has(fsnotify.Rename)) {
					d.add(e.Name)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("watcher error", "error", err)
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	return evCh, errCh, nil
}

// retryDelay is how long undelivered paths wait before the next attempt.
const retryDelay = 250 * time.Millisecond

// debouncer collects paths and flushes them once no new path arrived for delay.
// Paths the consumer cannot take yet stay pending and are retried.
type debouncer struct {
	mu      sync.Mutex
	out     chan<- string
	delay   time.Duration
	logger  *slog.Logger
	pending map[string]struct{}
	timer   *time.Timer
	stopped bool
}

func newDebouncer(out chan<- string, delay time.Duration, logger *slog.Logger) *debouncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &debouncer{out: out, delay: delay, logger: logger, pending: map[string]struct{}{}}
}

func (d *debouncer) add(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.pending[path] = struct{}{}
	if d.delay <= 0 {
		d.flushLocked()
		return
	}
	d.scheduleLocked(d.delay)
}

func (d *debouncer) scheduleLocked(after time.Duration) {
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(after, d.flush)
}

func (d *debouncer) flush() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.stopped {
		d.flushLocked()
	}
}

// flushLocked never blocks. Paths a full consumer cannot take are kept and
// retried after retryDelay.
func (d *debouncer) flushLocked() {
	for p := range d.pending {
		select {
		case d.out <- p:
			delete(d.pending, p)
		default:
			d.logger.Warn("slip queue full, deferring file", "path", p, "retry_in", retryDelay)
		}
	}
	if len(d.pending) > 0 {
		d.scheduleLocked(retryDelay)
	}
}

// stop must run before out is closed.
func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
}
