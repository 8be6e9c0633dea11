package styles

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// StartWatcher reloads the file when it changes on disk. The directory is
// watched rather than the file since Save replaces the file by rename. A slow
// poll runs alongside as a fallback.
func (m *Manager) StartWatcher(ctx context.Context) {
	dir := filepath.Dir(m.path)
	name := filepath.Clean(m.path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warn().Err(err).Msg("styles watcher: fsnotify failed, polling only")
	} else if err := watcher.Add(dir); err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("styles watcher: watch failed, polling only")
		watcher.Close()
		watcher = nil
	}

	if watcher != nil {
		go func() {
			defer watcher.Close()
			for {
				select {
				case <-ctx.Done():
					return
				case event, ok := <-watcher.Events:
					if !ok {
						return
					}
					if filepath.Clean(event.Name) != name {
						continue
					}
					if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
						log.Debug().Str("op", event.Op.String()).Msg("styles watcher: file changed")
						if err := m.Reload(); err != nil {
							log.Warn().Err(err).Msg("styles watcher: reload failed")
						}
					}
				case err, ok := <-watcher.Errors:
					if !ok {
						return
					}
					log.Warn().Err(err).Msg("styles watcher error")
				}
			}
		}()
	}

	go func() {
		ticker := time.NewTicker(m.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.ReloadIfChanged()
			}
		}
	}()
}
