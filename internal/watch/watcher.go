// Package watch re-runs a build when dataset sources change. It relies on
// fsnotify and falls back to polling file metadata when no watcher can be
// created.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// Defaults for Options.
const (
	DefaultDebounce     = 500 * time.Millisecond
	DefaultPollInterval = 2 * time.Second
)

// Options configures a Watcher.
type Options struct {
	// Paths are the directories and files to watch. Missing entries are
	// watched through their parent directory.
	Paths []string
	// Debounce is the quiet period before a change triggers a run.
	Debounce time.Duration
	// PollInterval is used in polling mode.
	PollInterval time.Duration
	// ForcePolling skips fsnotify entirely.
	ForcePolling bool
	// Logger receives watcher diagnostics. Defaults to the global logger.
	Logger *log.Logger
}

// fileState is the metadata compared in polling mode.
type fileState struct {
	modTime time.Time
	size    int64
}

// Watcher monitors dataset sources and invokes onChange after each burst
// of edits. Invocations never overlap.
type Watcher struct {
	opts      Options
	watcher   *fsnotify.Watcher
	debouncer *Debouncer
	logger    *log.Logger
	polling   bool
	last      map[string]fileState
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	runMu     sync.Mutex
}

// New creates a watcher. onChange runs on a background goroutine.
func New(opts Options, onChange func()) (*Watcher, error) {
	if len(opts.Paths) == 0 {
		return nil, errors.New("watch: no paths to watch")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	w := &Watcher{opts: opts, logger: logger}
	w.debouncer = NewDebouncer(opts.Debounce, func() {
		w.runMu.Lock()
		defer w.runMu.Unlock()
		onChange()
	})

	if opts.ForcePolling {
		w.polling = true
		w.last = scan(opts.Paths)
		return w, nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("fsnotify unavailable, falling back to polling", "err", err, "interval", opts.PollInterval)
		w.polling = true
		w.last = scan(opts.Paths)
		return w, nil
	}
	w.watcher = watcher

	for _, p := range watchTargets(opts.Paths) {
		if err := watcher.Add(p); err != nil {
			logger.Warn("failed to watch path", "path", p, "err", err)
		}
	}
	if len(watcher.WatchList()) == 0 {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch: none of %s could be watched", strings.Join(opts.Paths, ", "))
	}
	return w, nil
}

// Polling reports whether the watcher fell back to polling.
func (w *Watcher) Polling() bool { return w.polling }

// watchTargets expands sources into directories fsnotify can watch: each
// existing directory with its subdirectories, or the nearest existing
// parent of a missing path.
func watchTargets(paths []string) []string {
	seen := map[string]bool{}
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, p := range paths {
		info, err := os.Stat(p)
		switch {
		case err == nil && info.IsDir():
			_ = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
				if err == nil && d.IsDir() {
					add(path)
				}
				return nil
			})
		case err == nil:
			add(filepath.Dir(p))
		default:
			for dir := filepath.Dir(p); ; dir = filepath.Dir(dir) {
				if info, err := os.Stat(dir); err == nil && info.IsDir() {
					add(dir)
					break
				}
				if dir == filepath.Dir(dir) {
					break
				}
			}
		}
	}
	return out
}

// relevant reports whether a changed path can affect a build.
func relevant(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".yml", ".yaml", ".toml":
		return true
	}
	return false
}

// Start begins monitoring until ctx is canceled or Close is called.
func (w *Watcher) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	if w.polling {
		w.startPolling(ctx)
		return
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				// New subdirectories need their own watch.
				if event.Op&fsnotify.Create != 0 {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						_ = w.watcher.Add(event.Name)
						continue
					}
				}
				if !relevant(event.Name) || event.Op == fsnotify.Chmod {
					continue
				}
				w.logger.Debug("source changed", "path", event.Name, "op", event.Op.String())
				w.debouncer.Trigger()

			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn("watcher error", "err", err)

			case <-ctx.Done():
				return
			}
		}
	}()
}

func (w *Watcher) startPolling(ctx context.Context) {
	w.logger.Info("polling for changes", "interval", w.opts.PollInterval)
	ticker := time.NewTicker(w.opts.PollInterval)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				current := scan(w.opts.Paths)
				if changed(w.last, current) {
					w.logger.Debug("source changed (polling)")
					w.debouncer.Trigger()
				}
				w.last = current

			case <-ctx.Done():
				return
			}
		}
	}()
}

// scan records the metadata of every relevant file under paths.
func scan(paths []string) map[string]fileState {
	states := map[string]fileState{}
	for _, p := range paths {
		_ = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() || !relevant(path) {
				return nil
			}
			if info, err := d.Info(); err == nil {
				states[path] = fileState{modTime: info.ModTime(), size: info.Size()}
			}
			return nil
		})
	}
	return states
}

func changed(before, after map[string]fileState) bool {
	if len(before) != len(after) {
		return true
	}
	for path, a := range after {
		b, ok := before[path]
		if !ok || !b.modTime.Equal(a.modTime) || b.size != a.size {
			return true
		}
	}
	return false
}

// Close stops the watcher, waits for its goroutines and drops any pending
// run. A run already in progress completes.
func (w *Watcher) Close() error {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	w.debouncer.Cancel()
	w.runMu.Lock()
	defer w.runMu.Unlock()
	if w.watcher != nil {
		return w.watcher.Close()
	}
	return nil
}
