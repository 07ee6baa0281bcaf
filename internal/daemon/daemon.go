// Package daemon keeps the sqlite cache in step with the data files.
//
// The daemon:
//  1. Performs a full resync on startup
//  2. Watches the data directory for changes to the completion log
//     and override file (fsnotify)
//  3. Debounces rapid writes and resyncs the cache
//  4. Notifies the dashboard after every resync
package daemon

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sjvdm/roadprog/internal/cache"
	"github.com/sjvdm/roadprog/internal/tracker"
)

// Config holds daemon configuration.
type Config struct {
	// DebounceInterval batches rapid file updates together before a
	// resync (default 200ms).
	DebounceInterval time.Duration

	// OnSync is invoked after each successful resync with fresh cache
	// stats and the resync duration. May be nil.
	OnSync func(stats cache.Stats, duration time.Duration)

	// Logger for daemon activity.
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DebounceInterval: 200 * time.Millisecond,
		Logger:           log.New(os.Stderr, "[daemon] ", log.LstdFlags),
	}
}

// Daemon watches the data files and resyncs the cache.
type Daemon struct {
	tracker *tracker.Tracker
	db      *cache.DB
	dataDir string
	watched map[string]bool // base names that trigger a resync
	config  *Config

	watcher *fsnotify.Watcher
	pending chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a daemon resyncing db from the files in dataDir. The
// watchFiles are the file paths whose changes trigger a resync (the
// completion log and the override file).
func New(tr *tracker.Tracker, db *cache.DB, dataDir string, watchFiles []string, config *Config) (*Daemon, error) {
	if tr == nil {
		return nil, fmt.Errorf("tracker cannot be nil")
	}
	if db == nil {
		return nil, fmt.Errorf("cache cannot be nil")
	}
	if dataDir == "" {
		return nil, fmt.Errorf("dataDir cannot be empty")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.DebounceInterval <= 0 {
		config.DebounceInterval = 200 * time.Millisecond
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[daemon] ", log.LstdFlags)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	watched := map[string]bool{}
	for _, f := range watchFiles {
		watched[filepath.Base(f)] = true
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Daemon{
		tracker: tr,
		db:      db,
		dataDir: dataDir,
		watched: watched,
		config:  config,
		watcher: watcher,
		pending: make(chan struct{}, 1),
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Start begins watching. Blocks until ctx is cancelled or a fatal error.
func (d *Daemon) Start(ctx context.Context) error {
	d.config.Logger.Println("Starting watch daemon")

	if err := d.Resync(); err != nil {
		return fmt.Errorf("initial resync failed: %w", err)
	}

	// Watch the directory, not the files: atomic saves replace the file
	// by rename, which drops per-file watches.
	if err := d.watcher.Add(d.dataDir); err != nil {
		return fmt.Errorf("failed to watch data directory: %w", err)
	}
	d.config.Logger.Printf("Watching: %s", d.dataDir)

	d.wg.Add(2)
	go d.watchFileEvents()
	go d.processPending()

	select {
	case <-ctx.Done():
		d.config.Logger.Println("Shutdown signal received")
		return d.Stop()
	case <-d.ctx.Done():
		return nil
	}
}

// Stop shuts the daemon down and waits for its goroutines.
func (d *Daemon) Stop() error {
	d.config.Logger.Println("Stopping watch daemon")

	d.cancel()

	if err := d.watcher.Close(); err != nil {
		d.config.Logger.Printf("Error closing watcher: %v", err)
	}

	d.wg.Wait()

	d.config.Logger.Println("Watch daemon stopped")
	return nil
}

// Resync rebuilds the cache from the current file state and notifies the
// dashboard hook.
func (d *Daemon) Resync() error {
	start := time.Now()

	records, sets, err := d.tracker.Records()
	if err != nil {
		return fmt.Errorf("failed to read data files: %w", err)
	}

	ctx, cancel := context.WithTimeout(d.ctx, 30*time.Second)
	defer cancel()

	if err := d.db.Resync(ctx, records, sets); err != nil {
		return fmt.Errorf("failed to resync cache: %w", err)
	}

	elapsed := time.Since(start)
	d.config.Logger.Printf("Resynced cache: %d suburbs in %v", len(records), elapsed.Round(time.Millisecond))

	if d.config.OnSync != nil {
		stats, err := d.db.GetStats(ctx)
		if err != nil {
			d.config.Logger.Printf("WARNING: failed to read stats after resync: %v", err)
			return nil
		}
		d.config.OnSync(stats, elapsed)
	}
	return nil
}

// watchFileEvents filters fsnotify events down to the data files.
func (d *Daemon) watchFileEvents() {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return

		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			if !d.relevant(event) {
				continue
			}
			// Coalesce: one pending resync at a time.
			select {
			case d.pending <- struct{}{}:
			default:
			}

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			d.config.Logger.Printf("WARNING: watcher error: %v", err)
		}
	}
}

// processPending debounces queued changes into resyncs.
func (d *Daemon) processPending() {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return

		case <-d.pending:
			timer := time.NewTimer(d.config.DebounceInterval)
			select {
			case <-d.ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}

			if err := d.Resync(); err != nil {
				d.config.Logger.Printf("WARNING: resync failed: %v", err)
			}
		}
	}
}

func (d *Daemon) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return false
	}
	return d.watched[filepath.Base(event.Name)]
}
