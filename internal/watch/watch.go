// Package watch re-runs work when source files change on disk.
package watch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Op describes a set of file operations
type Op uint32

const (
	OpCreate Op = 1 << iota
	OpWrite
	OpRemove
	OpRename
	OpChmod
)

// Event is a change notification for one path
type Event struct {
	Path string
	Op   Op
	Time time.Time
}

// Source delivers change events
type Source interface {
	Events() <-chan Event
	Errors() <-chan error
}

// Watcher reports changes to individual files using OS-native
// notifications. Parent directories are watched so that editors which
// save through a rename are still seen.
type Watcher struct {
	w   *fsnotify.Watcher
	evC chan Event
	erC chan error

	mu    sync.Mutex
	files map[string]bool
	dirs  map[string]bool

	done chan struct{}
	once sync.Once
}

// New creates a Watcher
func New() (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	fw := &Watcher{
		w:     w,
		evC:   make(chan Event, 128),
		erC:   make(chan error, 1),
		files: make(map[string]bool),
		dirs:  make(map[string]bool),
		done:  make(chan struct{}),
	}
	go fw.loop()
	return fw, nil
}

func (fw *Watcher) loop() {
	for {
		select {
		case ev, ok := <-fw.w.Events:
			if !ok {
				return
			}
			if !fw.tracked(ev.Name) {
				continue
			}
			out := Event{Path: filepath.Clean(ev.Name), Op: convert(ev.Op), Time: time.Now()}
			select {
			case fw.evC <- out:
			case <-fw.done:
				return
			}
		case err, ok := <-fw.w.Errors:
			if !ok {
				return
			}
			select {
			case fw.erC <- err:
			case <-fw.done:
				return
			}
		case <-fw.done:
			return
		}
	}
}

func convert(op fsnotify.Op) Op {
	var out Op
	if op&fsnotify.Create != 0 {
		out |= OpCreate
	}
	if op&fsnotify.Write != 0 {
		out |= OpWrite
	}
	if op&fsnotify.Remove != 0 {
		out |= OpRemove
	}
	if op&fsnotify.Rename != 0 {
		out |= OpRename
	}
	if op&fsnotify.Chmod != 0 {
		out |= OpChmod
	}
	return out
}

func (fw *Watcher) tracked(name string) bool {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return fw.files[filepath.Clean(name)]
}

// Add starts watching the file at name
func (fw *Watcher) Add(name string) error {
	name = filepath.Clean(name)
	dir := filepath.Dir(name)

	fw.mu.Lock()
	defer fw.mu.Unlock()
	if !fw.dirs[dir] {
		if err := fw.w.Add(dir); err != nil {
			return err
		}
		fw.dirs[dir] = true
	}
	fw.files[name] = true
	return nil
}

// Files returns the watched paths
func (fw *Watcher) Files() []string {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	out := make([]string, 0, len(fw.files))
	for f := range fw.files {
		out = append(out, f)
	}
	return out
}

func (fw *Watcher) Events() <-chan Event { return fw.evC }
func (fw *Watcher) Errors() <-chan error { return fw.erC }

// Close stops the watcher
func (fw *Watcher) Close() error {
	var err error
	fw.once.Do(func() {
		close(fw.done)
		err = fw.w.Close()
	})
	return err
}

// DefaultDebounce coalesces the burst of events a single save produces
const DefaultDebounce = 50 * time.Millisecond

// Run calls fn with the path of every created or written file until ctx is
// done or src reports an error. Events for the same path that arrive
// within debounce of each other trigger one call.
func Run(ctx context.Context, src Source, debounce time.Duration, fn func(path string)) error {
	fire := make(chan firing)
	d := newDebouncer(ctx, debounce, fire)
	defer d.stop()
	errC := src.Errors()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-errC:
			if !ok {
				errC = nil
				continue
			}
			return err
		case ev, ok := <-src.Events():
			if !ok {
				return nil
			}
			if ev.Op&(OpCreate|OpWrite) == 0 {
				continue
			}
			if debounce <= 0 {
				fn(ev.Path)
				continue
			}
			d.touch(ev.Path)
		case f := <-fire:
			if d.due(f) {
				fn(f.path)
			}
		}
	}
}

// firing is sent by a debounce timer. gen identifies the timer so that a
// callback already in flight when the path was touched again is dropped.
type firing struct {
	path string
	gen  uint64
}

// debouncer holds one timer per path. It is owned by the Run loop.
type debouncer struct {
	ctx    context.Context
	delay  time.Duration
	fire   chan<- firing
	gen    map[string]uint64
	timers map[string]*time.Timer
}

func newDebouncer(ctx context.Context, delay time.Duration, fire chan<- firing) *debouncer {
	return &debouncer{
		ctx:    ctx,
		delay:  delay,
		fire:   fire,
		gen:    make(map[string]uint64),
		timers: make(map[string]*time.Timer),
	}
}

// touch restarts the quiet period for path
func (d *debouncer) touch(path string) {
	if t, ok := d.timers[path]; ok {
		t.Stop()
	}
	d.gen[path]++
	f := firing{path: path, gen: d.gen[path]}
	d.timers[path] = time.AfterFunc(d.delay, func() {
		select {
		case d.fire <- f:
		case <-d.ctx.Done():
		}
	})
}

// due reports whether f is the latest timer for its path and clears it
func (d *debouncer) due(f firing) bool {
	if _, ok := d.timers[f.path]; !ok || d.gen[f.path] != f.gen {
		return false
	}
	delete(d.timers, f.path)
	return true
}

func (d *debouncer) stop() {
	for _, t := range d.timers {
		t.Stop()
	}
}
