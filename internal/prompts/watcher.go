package prompts

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads path into the registry whenever it changes, until ctx ends.
// The parent directory is watched so editors that replace the file on save
// are still seen. A failed reload keeps the previously registered templates.
func (r *Registry) Watch(ctx context.Context, path string, debounce time.Duration) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	log := r.logger.WithField("file", abs)
	log.Info("Watching prompt file for changes")

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	reload := func() {
		if err := r.LoadFile(abs); err != nil {
			log.WithError(err).Warn("Prompt reload failed, keeping previous templates")
			return
		}
		log.Debug("Prompt file reloaded")
	}
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, reload)
			mu.Unlock()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("Prompt watcher error")
		}
	}
}
