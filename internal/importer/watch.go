package importer

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultSettle is how long the folder must stay quiet before a new run, so
// files still being copied are not picked up half-written.
const DefaultSettle = 500 * time.Millisecond

// Watch imports folder once, then again every time new .mp3 files appear,
// until ctx is cancelled. settle <= 0 means DefaultSettle.
func (im *Importer) Watch(ctx context.Context, folder string, settle time.Duration) error {
	if settle <= 0 {
		settle = DefaultSettle
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(folder); err != nil {
		return fmt.Errorf("watch %s: %w", folder, err)
	}
	im.log.Info("watching folder", zap.String("folder", folder))

	if _, err := im.Run(ctx, folder); err != nil {
		return err
	}

	timer := time.NewTimer(settle)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !wanted(ev) {
				continue
			}
			timer.Reset(settle)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			im.log.Error("file watcher error", zap.Error(err))

		case <-timer.C:
			if _, err := im.Run(ctx, folder); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				im.log.Error("import run failed", zap.Error(err))
			}
		}
	}
}

func wanted(ev fsnotify.Event) bool {
	name := filepath.Base(ev.Name)
	if strings.HasPrefix(name, ".") || !isMP3(name) {
		return false
	}
	return ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write)
}
