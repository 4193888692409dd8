package site

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/GoCodeAlone/folio"
)

// templateWatcher re-parses templates when files in dir change. Bursts of
// events from one save are collapsed into one reload.
type templateWatcher struct {
	watcher  *fsnotify.Watcher
	reload   func() error
	onReload func(err error)
	logger   folio.Logger
	debounce time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func watchTemplates(dir string, reload func() error, onReload func(error), logger folio.Logger) (*templateWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, err
	}

	tw := &templateWatcher{
		watcher:  w,
		reload:   reload,
		onReload: onReload,
		logger:   logger,
		debounce: 100 * time.Millisecond,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	go tw.run()
	logger.Info("Watching templates", "dir", dir)
	return tw, nil
}

func (tw *templateWatcher) run() {
	defer close(tw.doneCh)

	var pending <-chan time.Time
	for {
		select {
		case <-tw.stopCh:
			return

		case event, ok := <-tw.watcher.Events:
			if !ok {
				return
			}
			if !relevant(event) {
				continue
			}
			tw.logger.Debug("Template changed", "file", event.Name, "op", event.Op.String())
			pending = time.After(tw.debounce)

		case err, ok := <-tw.watcher.Errors:
			if !ok {
				return
			}
			tw.logger.Error("Template watcher error", "error", err)

		case <-pending:
			pending = nil
			err := tw.reload()
			if err != nil {
				tw.logger.Error("Template reload failed; keeping previous templates", "error", err)
			} else {
				tw.logger.Info("Templates reloaded")
			}
			if tw.onReload != nil {
				tw.onReload(err)
			}
		}
	}
}

func relevant(event fsnotify.Event) bool {
	if !strings.EqualFold(filepath.Ext(event.Name), ".html") {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0
}

// Close stops the watcher and waits for the event loop to exit.
func (tw *templateWatcher) Close() error {
	var err error
	tw.stopOnce.Do(func() {
		close(tw.stopCh)
		<-tw.doneCh
		err = tw.watcher.Close()
	})
	return err
}
