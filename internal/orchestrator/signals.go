package orchestrator

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Signal file names recognized inside the signals directory.
const (
	signalCancel = "cancel"
	signalPause  = "pause"
	signalResume = "resume"
)

// SignalWatcher watches a run's signals directory for control files.
// Dropping a file named cancel, pause, or resume into the directory
// steers a running plan from outside the process.
type SignalWatcher struct {
	dir     string
	pause   *PauseController
	cancel  context.CancelFunc
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewSignalWatcher starts watching dir/signals, creating it if needed.
// cancel is invoked when a cancel signal arrives.
func NewSignalWatcher(dir string, pause *PauseController, cancel context.CancelFunc) (*SignalWatcher, error) {
	signalsDir := filepath.Join(dir, "signals")
	if err := os.MkdirAll(signalsDir, 0755); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(signalsDir); err != nil {
		watcher.Close()
		return nil, err
	}

	sw := &SignalWatcher{
		dir:     signalsDir,
		pause:   pause,
		cancel:  cancel,
		watcher: watcher,
		done:    make(chan struct{}),
	}
	go sw.watch()
	return sw, nil
}

// Dir returns the watched signals directory.
func (sw *SignalWatcher) Dir() string {
	return sw.dir
}

func (sw *SignalWatcher) watch() {
	for {
		select {
		case <-sw.done:
			return
		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			switch filepath.Base(event.Name) {
			case signalCancel:
				sw.pause.Stop()
				if sw.cancel != nil {
					sw.cancel()
				}
			case signalPause:
				sw.pause.Pause()
			case signalResume:
				sw.pause.Resume()
			}
		case <-sw.watcher.Errors:
			// Keep watching. A missed signal degrades to manual
			// cancellation, not a broken run.
		}
	}
}

// Close stops the watcher.
func (sw *SignalWatcher) Close() error {
	close(sw.done)
	return sw.watcher.Close()
}
