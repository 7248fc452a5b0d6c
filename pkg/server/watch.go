package server

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/bastiangx/smartdict/pkg/config"
	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 100 * time.Millisecond

// Watch reloads the config file whenever it is written and applies it with
// ApplyConfig. It returns once the watcher is running; the watcher stops
// when ctx is done.
func (s *Server) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// editors and SaveTOMLFile replace the file, so watch its directory
	if err := watcher.Add(filepath.Dir(s.configPath)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}
	go s.watchLoop(ctx, watcher)
	return nil
}

func (s *Server) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer watcher.Close()

	name := filepath.Base(s.configPath)
	var debounce *time.Timer
	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(reloadDebounce, s.reload)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warnf("Config watcher: %v", err)
		}
	}
}

func (s *Server) reload() {
	cfg, err := config.LoadConfig(s.configPath)
	if err != nil {
		s.logger.Warnf("Reloading config from %s: %v", s.configPath, err)
		return
	}
	s.ApplyConfig(cfg)
	s.logger.Infof("Reloaded config from %s", s.configPath)
}
