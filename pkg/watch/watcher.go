package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/craigrmccown/apollo-cli/pkg/config"
	"github.com/craigrmccown/apollo-cli/pkg/logging"
	"github.com/craigrmccown/apollo-cli/pkg/resolve"
)

// EventKind identifies what changed in the project.
type EventKind int

const (
	// EventConfigChanged carries the freshly loaded configuration.
	EventConfigChanged EventKind = iota + 1
	// EventDocumentsChanged reports a file entering or leaving a document set.
	EventDocumentsChanged
	// EventError reports a failed reload. The previous configuration stays
	// in effect.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventConfigChanged:
		return "config-changed"
	case EventDocumentsChanged:
		return "documents-changed"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is emitted on the channel returned by Events.
type Event struct {
	Kind EventKind
	// Path is the file that triggered the event.
	Path string
	// Config is set for EventConfigChanged.
	Config *config.ApolloConfig
	// Err is set for EventError.
	Err error
}

// skipDirs are never descended into.
var skipDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
}

// Watcher follows a project folder and reports configuration reloads and
// document set membership changes.
type Watcher struct {
	dir    string
	log    *slog.Logger
	events chan Event

	mu       sync.RWMutex
	cfg      *config.ApolloConfig
	matchers []*resolve.DocumentMatcher

	fsw *fsnotify.Watcher
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger reloads are logged to.
func WithLogger(log *slog.Logger) Option {
	return func(w *Watcher) {
		if log != nil {
			w.log = log
		}
	}
}

// WithBuffer sets the capacity of the event channel.
func WithBuffer(size int) Option {
	return func(w *Watcher) {
		if size >= 0 {
			w.events = make(chan Event, size)
		}
	}
}

// New loads the configuration of dir and prepares a watcher over its tree.
// Watching starts with Run.
func New(dir string, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}

	w := &Watcher{
		dir:    abs,
		log:    logging.Nop(),
		events: make(chan Event, 16),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.log = logging.WithComponent(w.log, "watch")

	cfg, err := config.FindAndLoadConfig(abs, false, true)
	if err != nil {
		return nil, err
	}
	if err := w.apply(cfg); err != nil {
		return nil, err
	}

	if w.fsw, err = fsnotify.NewWatcher(); err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if _, err := w.addTree(abs); err != nil {
		_ = w.fsw.Close()
		return nil, err
	}
	return w, nil
}

// Events returns the channel events are delivered on. It is closed when Run
// returns.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Config returns the configuration currently in effect.
func (w *Watcher) Config() *config.ApolloConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cfg
}

// Run processes filesystem events until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.events)
	defer func() { _ = w.fsw.Close() }()

	w.log.Debug("watching project", "dir", w.dir)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, ev)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, ev fsnotify.Event) {
	w.log.Debug("filesystem event", "path", ev.Name, "op", ev.Op.String())

	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			files, err := w.addTree(ev.Name)
			if err != nil {
				w.log.Warn("failed to watch directory", "path", ev.Name, "error", err)
			}
			// Files moved in with the directory, or written before it was
			// watched, raise no events of their own.
			for _, path := range files {
				if w.matches(path) {
					w.emit(ctx, Event{Kind: EventDocumentsChanged, Path: path})
				}
			}
			return
		}
	}

	if w.isConfigFile(ev.Name) {
		if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
			w.reload(ctx, ev.Name)
		}
		return
	}

	if ev.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 && w.matches(ev.Name) {
		w.emit(ctx, Event{Kind: EventDocumentsChanged, Path: ev.Name})
	}
}

func (w *Watcher) reload(ctx context.Context, path string) {
	cfg, err := config.FindAndLoadConfig(w.dir, false, true)
	if err == nil {
		err = w.apply(cfg)
	}
	if err != nil {
		w.log.Warn("config reload failed", "path", path, "error", err)
		w.emit(ctx, Event{Kind: EventError, Path: path, Err: err})
		return
	}
	w.log.Debug("config reloaded", "path", path, "schemas", len(cfg.Schemas), "queries", len(cfg.Queries))
	w.emit(ctx, Event{Kind: EventConfigChanged, Path: path, Config: cfg})
}

// apply swaps in cfg and the document matchers derived from it.
func (w *Watcher) apply(cfg *config.ApolloConfig) error {
	matchers := make([]*resolve.DocumentMatcher, 0, len(cfg.Queries))
	for i, set := range cfg.Queries {
		m, err := resolve.NewDocumentMatcher(cfg, set)
		if err != nil {
			return fmt.Errorf("queries[%d]: %w", i, err)
		}
		matchers = append(matchers, m)
	}

	w.mu.Lock()
	w.cfg = cfg
	w.matchers = matchers
	w.mu.Unlock()
	return nil
}

func (w *Watcher) matches(path string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, m := range w.matchers {
		if m.Match(path) {
			return true
		}
	}
	return false
}

// isConfigFile reports whether path is a config file of the project root.
func (w *Watcher) isConfigFile(path string) bool {
	return filepath.Dir(path) == w.dir && config.IsConfigFile(path)
}

func (w *Watcher) emit(ctx context.Context, ev Event) {
	select {
	case w.events <- ev:
	case <-ctx.Done():
	}
}

// addTree watches root and every directory below it, returning the files
// already present in the watched directories.
func (w *Watcher) addTree(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			files = append(files, path)
			return nil
		}
		if path != root && (skipDirs[d.Name()] || strings.HasPrefix(d.Name(), ".")) {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
	return files, err
}
