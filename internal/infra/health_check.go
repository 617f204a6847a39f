package infra

import (
	"context"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
)

// WatchExecutable signals once when the running binary is replaced on disk.
// The channel is closed without a signal when ctx ends or the binary cannot be inspected.
func WatchExecutable(ctx context.Context, interval time.Duration) <-chan struct{} {
	ch := make(chan struct{}, 1)
	logger := log.WithField("object", "ExecutableWatcher")
	go func() {
		defer close(ch)

		exe, err := os.Executable()
		if err != nil {
			logger.WithError(err).Warn("cant resolve executable path")
			return
		}
		stat, err := os.Stat(exe)
		if err != nil {
			logger.WithError(err).Warn("cant stat executable")
			return
		}
		modTime := stat.ModTime()
		logger.WithField("path", exe).Debug("watching executable")

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stat, err := os.Stat(exe)
				if err != nil {
					logger.WithError(err).Debug("cant stat executable")
					continue
				}
				if !modTime.Equal(stat.ModTime()) {
					ch <- struct{}{}
					return
				}
			}
		}
	}()
	return ch
}
