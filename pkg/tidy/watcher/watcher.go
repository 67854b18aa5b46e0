// Package watcher passes filesystem change notifications for one folder to
// a callback. A Handle watches at most one folder at a time.
package watcher

import (
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jamesainslie/tidy/pkg/tidy/inventory"
	"github.com/jamesainslie/tidy/pkg/tidy/logging"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

var logger = logging.Get("watcher")

// EventType is the kind of change reported in an Event.
type EventType string

// Event types.
const (
	EventCreated  EventType = "create"
	EventModified EventType = "modify"
	EventRemoved  EventType = "remove"
)

// Event is one change notification.
type Event struct {
	Type  EventType `json:"eventType" yaml:"eventType"`
	Paths []string  `json:"paths" yaml:"paths"`
}

// Handler receives events on the watcher goroutine. It must not call Stop
// or Start on the Handle that delivered the event.
type Handler func(Event)

// Options configures a Handle. Zero values use the defaults.
type Options struct {
	// Buffer is the capacity of the event channel. Default 100.
	Buffer int
	// Poll bounds how long the consumer waits for an event before checking
	// for a stop request. Default 100ms.
	Poll time.Duration
	// Recursive also watches subdirectories, including ones created while
	// watching. Symlinked directories are not followed.
	Recursive bool
}

const (
	defaultBuffer = 100
	defaultPoll   = 100 * time.Millisecond
)

// Handle owns at most one active watch. The zero value is not usable; use
// New. Methods are safe for concurrent use.
type Handle struct {
	opts Options

	mu   sync.Mutex
	path string
	fsw  *fsnotify.Watcher
	stop chan struct{}
	wg   sync.WaitGroup
}

// New returns an idle Handle.
func New(opts Options) *Handle {
	if opts.Buffer <= 0 {
		opts.Buffer = defaultBuffer
	}
	if opts.Poll <= 0 {
		opts.Poll = defaultPoll
	}
	return &Handle{opts: opts}
}

// Start watches dir and calls fn for every change. A watch already running
// is stopped first. On error the Handle is left idle.
func (h *Handle) Start(dir string, fn Handler) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.stopLocked()

	abs, err := filepath.Abs(dir)
	if err != nil {
		return types.IOError("watch", dir, err)
	}
	if err := inventory.CheckDir("watch", abs); err != nil {
		return err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return types.IOError("watch", abs, err)
	}
	if err := fsw.Add(abs); err != nil {
		_ = fsw.Close()
		return types.IOError("watch", abs, err)
	}
	if h.opts.Recursive {
		addTree(fsw, abs)
	}

	events := make(chan Event, h.opts.Buffer)
	stop := make(chan struct{})

	h.fsw = fsw
	h.path = abs
	h.stop = stop

	h.wg.Add(2)
	go h.forward(fsw, events, stop)
	go h.consume(events, stop, fn)

	logger.Info("watching", "path", abs, "recursive", h.opts.Recursive)
	return nil
}

// Stop ends the current watch. It is a no-op when idle.
func (h *Handle) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopLocked()
}

// IsWatching reports whether a watch is active.
func (h *Handle) IsWatching() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.fsw != nil
}

// Path returns the watched folder, or false when idle.
func (h *Handle) Path() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.path, h.fsw != nil
}

func (h *Handle) stopLocked() {
	if h.fsw == nil {
		return
	}
	close(h.stop)
	if err := h.fsw.Close(); err != nil {
		logger.Warn("failed to close watcher", "path", h.path, "error", err)
	}
	h.wg.Wait()

	logger.Info("stopped watching", "path", h.path)
	h.fsw = nil
	h.path = ""
	h.stop = nil
}

// forward translates fsnotify events onto the bounded channel. It blocks
// when the channel is full until the consumer catches up or Stop is called.
func (h *Handle) forward(fsw *fsnotify.Watcher, events chan<- Event, stop <-chan struct{}) {
	defer h.wg.Done()
	for {
		select {
		case <-stop:
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			out, ok := translate(ev)
			if !ok {
				continue
			}
			if out.Type == EventCreated && h.opts.Recursive {
				if info, err := os.Lstat(ev.Name); err == nil && info.IsDir() {
					addTree(fsw, ev.Name)
				}
			}
			select {
			case events <- out:
			case <-stop:
				return
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			logger.Error("watcher error", "error", err)
		}
	}
}

// consume delivers events to fn. The stop channel is checked before every
// receive, and each receive gives up after Poll.
func (h *Handle) consume(events <-chan Event, stop <-chan struct{}, fn Handler) {
	defer h.wg.Done()
	timer := time.NewTimer(h.opts.Poll)
	defer timer.Stop()

	for {
		select {
		case <-stop:
			return
		default:
		}

		timer.Reset(h.opts.Poll)
		select {
		case ev := <-events:
			if fn != nil {
				fn(ev)
			}
		case <-timer.C:
		}
	}
}

func translate(ev fsnotify.Event) (Event, bool) {
	var t EventType
	switch {
	case ev.Has(fsnotify.Create):
		t = EventCreated
	case ev.Has(fsnotify.Write):
		t = EventModified
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		// The new name of a rename arrives as its own create.
		t = EventRemoved
	default:
		return Event{}, false
	}
	if ev.Name == "" {
		return Event{}, false
	}
	return Event{Type: t, Paths: []string{ev.Name}}, true
}

// addTree watches every directory below root. Symlinks are skipped.
func addTree(fsw *fsnotify.Watcher, root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // unreadable entries are skipped
		}
		if path == root || d.Type()&fs.ModeSymlink != 0 || !d.IsDir() {
			return nil
		}
		if err := fsw.Add(path); err != nil {
			logger.Warn("failed to add watch", "path", path, "error", err)
		}
		return nil
	})
}
