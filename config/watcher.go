package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"go.viam.com/colorblob/logging"
)

// Watch calls onChange with the newly read config every time the file at filePath is written
// or replaced, until ctx is done. A file that fails to read or validate is logged and skipped.
// The parent directory is watched so editors that save by renaming are picked up.
func Watch(ctx context.Context, filePath string, logger logging.Logger, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "cannot create config watcher")
	}
	defer goutils.UncheckedErrorFunc(watcher.Close)

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		return errors.Wrapf(err, "cannot watch %q", filepath.Dir(absPath))
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warnw("config watcher error", "error", err)
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != absPath {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			cfg, err := Read(absPath, logger)
			if err != nil {
				logger.Errorw("keeping previous config", "error", err)
				continue
			}
			logger.Infow("config reloaded", "path", absPath)
			onChange(cfg)
		}
	}
}
