package watcher

import (
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/grovetools/teamboard/internal/broadcast"
	"github.com/grovetools/teamboard/pkg/team"
)

// settle tracks one path waiting for its size and mtime to stop changing.
type settle struct {
	refresh  chan struct{}
	quit     chan struct{}
	stopOnce sync.Once
}

func (s *settle) stop() {
	s.stopOnce.Do(func() { close(s.quit) })
}

// poke restarts the stability window without blocking.
func (s *settle) poke() {
	select {
	case s.refresh <- struct{}{}:
	default:
	}
}

// schedule starts a settle for path, or restarts the one already running.
func (w *Watcher) schedule(path string) {
	c, ok := w.classify(path)
	if !ok {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	select {
	case <-w.done:
		return
	default:
	}
	if s, ok := w.pending[path]; ok {
		s.poke()
		return
	}
	s := &settle{refresh: make(chan struct{}, 1), quit: make(chan struct{})}
	w.pending[path] = s
	w.wg.Add(1)
	go w.awaitStable(path, c, s)
}

func (w *Watcher) awaitStable(path string, c change, s *settle) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	var (
		size   int64 = -1
		mtime  time.Time
		stable = time.Now()
	)
	for {
		select {
		case <-w.done:
			w.forget(path, s)
			return
		case <-s.quit:
			return
		case <-s.refresh:
			stable = time.Now()
		case <-ticker.C:
			info, err := os.Stat(path)
			if err != nil {
				w.forget(path, s)
				return
			}
			if info.Size() != size || !info.ModTime().Equal(mtime) {
				size, mtime = info.Size(), info.ModTime()
				stable = time.Now()
				continue
			}
			if time.Since(stable) < w.threshold {
				continue
			}
			// Later events on this path start a fresh settle.
			w.forget(path, s)
			w.process(path, c)
			return
		}
	}
}

func (w *Watcher) forget(path string, s *settle) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending[path] == s {
		delete(w.pending, path)
	}
}

// process reloads the team behind a settled change and notifies.
func (w *Watcher) process(path string, c change) {
	w.observer.FileEvent(c.kind.String())
	logger := w.logger.WithFields(logrus.Fields{"teamId": c.teamID, "path": path})

	switch c.kind {
	case kindConfig:
		t, err := w.loader.Load(w.ctx, c.teamID)
		if err != nil {
			w.observer.ReloadFailed(c.kind.String())
			logger.WithError(err).Warn("Failed to reload team")
			return
		}
		if t == nil {
			logger.Debug("Team config vanished before reload")
			return
		}
		w.teamAlive(c.teamID)
		logger.Info("Team updated")
		w.notifier.Broadcast(broadcast.EventTeamUpdated, broadcast.TeamUpdatedPayload{TeamID: c.teamID, Team: t})

	case kindInbox:
		messages, err := w.loader.LoadMessages(w.ctx, c.teamID, team.Query{Limit: w.messageLimit})
		if err != nil {
			w.observer.ReloadFailed(c.kind.String())
			logger.WithError(err).Warn("Failed to reload messages")
			return
		}
		logger.WithField("count", len(messages)).Debug("Inbox updated")
		w.notifier.Broadcast(broadcast.EventMessageNew, broadcast.MessageNewPayload{TeamID: c.teamID, Messages: messages})
	}
}
