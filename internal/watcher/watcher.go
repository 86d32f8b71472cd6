// Package watcher turns filesystem changes under the teams root into
// broadcast events.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/grovetools/teamboard/config"
	"github.com/grovetools/teamboard/internal/broadcast"
	"github.com/grovetools/teamboard/logging"
	"github.com/grovetools/teamboard/pkg/paths"
	"github.com/grovetools/teamboard/pkg/team"
)

// Notifier fans an event out to connected clients.
type Notifier interface {
	Broadcast(event string, payload interface{}) int
}

// Observer receives watcher activity, typically to export metrics.
type Observer interface {
	FileEvent(kind string)
	ReloadFailed(kind string)
}

type nopObserver struct{}

func (nopObserver) FileEvent(string)    {}
func (nopObserver) ReloadFailed(string) {}

// Watcher recursively watches the teams root, waits for changed files to
// settle, reloads the affected team and notifies.
type Watcher struct {
	fs       *fsnotify.Watcher
	loader   *team.Loader
	resolver *paths.Resolver
	notifier Notifier
	observer Observer
	logger   *logrus.Entry

	threshold    time.Duration
	pollInterval time.Duration
	messageLimit int

	ctx   context.Context
	ready chan struct{}
	done  chan struct{}
	once  sync.Once
	wg    sync.WaitGroup

	mu      sync.Mutex
	pending map[string]*settle
	watched map[string]bool
	// deleted holds teams already announced as deleted.
	deleted map[string]bool
}

// New creates a watcher over loader's root. Nothing is watched until Start.
func New(cfg config.WatchConfig, loader *team.Loader, notifier Notifier, logger *logrus.Entry) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if logger == nil {
		logger = logging.NewLogger("watcher")
	}
	if cfg.StabilityThreshold <= 0 {
		cfg.StabilityThreshold = config.DefaultStabilityThreshold
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = config.DefaultPollInterval
	}
	if cfg.MessageLimit <= 0 {
		cfg.MessageLimit = config.DefaultMessageLimit
	}
	return &Watcher{
		fs:           fw,
		loader:       loader,
		resolver:     loader.Resolver(),
		notifier:     notifier,
		observer:     nopObserver{},
		logger:       logger,
		threshold:    cfg.StabilityThreshold,
		pollInterval: cfg.PollInterval,
		messageLimit: cfg.MessageLimit,
		ctx:          context.Background(),
		ready:        make(chan struct{}),
		done:         make(chan struct{}),
		pending:      make(map[string]*settle),
		watched:      make(map[string]bool),
		deleted:      make(map[string]bool),
	}, nil
}

// SetObserver installs an activity observer. Call before Start.
func (w *Watcher) SetObserver(o Observer) {
	if o != nil {
		w.observer = o
	}
}

// Ready is closed once the initial directory tree is being watched.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Start watches the root and blocks until ctx is done or Close is called.
// It fails when the root exists but is not a readable directory. A missing
// root is logged and yields no events.
func (w *Watcher) Start(ctx context.Context) error {
	w.ctx = ctx
	root := w.resolver.Root()

	info, err := os.Stat(root)
	switch {
	case os.IsNotExist(err):
		w.logger.WithField("root", root).Warn("Teams directory does not exist, nothing to watch")
	case err != nil:
		w.Close()
		return fmt.Errorf("stat teams directory: %w", err)
	case !info.IsDir():
		w.Close()
		return fmt.Errorf("teams path %s is not a directory", root)
	default:
		if err := w.addTree(root, false); err != nil {
			w.Close()
			return err
		}
		w.logger.WithField("root", root).Info("Watching teams directory")
	}
	close(w.ready)

	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Error("Watcher error")
		case <-ctx.Done():
			w.Close()
			return nil
		case <-w.done:
			return nil
		}
	}
}

// Close stops watching and waits for in-flight settles. It is safe to call
// more than once.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		// Taken so schedule cannot add to wg once done is closed.
		w.mu.Lock()
		close(w.done)
		w.mu.Unlock()
		err = w.fs.Close()
		w.wg.Wait()
	})
	return err
}

// addTree watches dir and every non-hidden directory below it. With
// scheduleFiles set, JSON files found along the way are settled as adds.
func (w *Watcher) addTree(dir string, scheduleFiles bool) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return fmt.Errorf("walk %s: %w", dir, err)
			}
			w.logger.WithError(err).WithField("path", path).Warn("Skipping unreadable path")
			return nil
		}
		if w.hidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			if scheduleFiles {
				w.schedule(path)
			}
			return nil
		}
		w.mu.Lock()
		seen := w.watched[path]
		w.mu.Unlock()
		if seen {
			return nil
		}
		if err := w.fs.Add(path); err != nil {
			if path == dir {
				return fmt.Errorf("watch %s: %w", path, err)
			}
			w.logger.WithError(err).WithField("path", path).Warn("Failed to watch directory")
			return nil
		}
		w.mu.Lock()
		w.watched[path] = true
		w.mu.Unlock()
		w.logger.WithField("path", path).Debug("Watching directory")
		return nil
	})
}

func (w *Watcher) handle(event fsnotify.Event) {
	path := filepath.Clean(event.Name)
	if w.hidden(path) {
		return
	}
	w.logger.WithFields(logrus.Fields{"path": path, "op": event.Op.String()}).Debug("fsnotify event")

	switch {
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		w.removed(path)
	case event.Has(fsnotify.Create):
		info, err := os.Stat(path)
		if err != nil {
			return
		}
		if info.IsDir() {
			if err := w.addTree(path, true); err != nil {
				w.logger.WithError(err).WithField("path", path).Warn("Failed to watch new directory")
			}
			return
		}
		w.schedule(path)
	case event.Has(fsnotify.Write):
		w.schedule(path)
	}
}

func (w *Watcher) removed(path string) {
	w.mu.Lock()
	if s, ok := w.pending[path]; ok {
		s.stop()
		delete(w.pending, path)
	}
	var pruned []string
	if w.watched[path] {
		prefix := path + string(filepath.Separator)
		for p := range w.watched {
			if p == path || strings.HasPrefix(p, prefix) {
				delete(w.watched, p)
				pruned = append(pruned, p)
			}
		}
		for p, s := range w.pending {
			if strings.HasPrefix(p, prefix) {
				s.stop()
				delete(w.pending, p)
			}
		}
	}
	w.mu.Unlock()

	if pruned != nil {
		w.removedDir(path, pruned)
		return
	}

	c, ok := w.classify(path)
	if !ok {
		return
	}
	w.observer.FileEvent(c.kind.String() + "_removed")
	if c.kind != kindConfig {
		return
	}
	w.teamDeleted(c.teamID)
}

// removedDir handles a watched directory that was deleted or moved away.
// Watches on a moved tree survive the move, so they are dropped explicitly.
// A team directory leaving the root deletes the team.
func (w *Watcher) removedDir(path string, pruned []string) {
	for _, p := range pruned {
		// Deleted directories lose their watch on their own.
		_ = w.fs.Remove(p)
	}
	w.logger.WithFields(logrus.Fields{"path": path, "dirs": len(pruned)}).Debug("Stopped watching directory")

	rel, ok := w.resolver.Relative(path)
	if !ok || rel == "." || strings.Contains(rel, "/") || !paths.ValidTeamID(rel) {
		return
	}
	w.observer.FileEvent("team_dir_removed")
	w.teamDeleted(rel)
}

// teamDeleted emits team:deleted once per disappearance. Removing a team
// directory reports both its config file and the directory itself.
func (w *Watcher) teamDeleted(id string) {
	w.mu.Lock()
	seen := w.deleted[id]
	w.deleted[id] = true
	w.mu.Unlock()
	if seen {
		return
	}
	w.logger.WithField("teamId", id).Info("Team removed")
	w.notifier.Broadcast(broadcast.EventTeamDeleted, broadcast.TeamDeletedPayload{TeamID: id})
}

// teamAlive clears the deleted mark once a team's config loads again.
func (w *Watcher) teamAlive(id string) {
	w.mu.Lock()
	delete(w.deleted, id)
	w.mu.Unlock()
}

// hidden reports whether any path segment below the root starts with a dot.
func (w *Watcher) hidden(path string) bool {
	rel, ok := w.resolver.Relative(path)
	if !ok || rel == "." {
		return false
	}
	for _, seg := range strings.Split(rel, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}
