// Package watch drives narration from a folder: documents dropped into the
// watched directory are rewritten one at a time into an output directory.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/narrator-cli/internal/core/domain"
	"github.com/custodia-labs/narrator-cli/internal/core/ports/driving"
	"github.com/custodia-labs/narrator-cli/internal/logger"
)

// OutputSuffix is appended to the base name of every narrated file.
const OutputSuffix = ".narration.txt"

// DefaultSettle is how long a file must stay quiet before it is processed.
const DefaultSettle = 750 * time.Millisecond

// ErrClosed is returned by Run after Close.
var ErrClosed = errors.New("watcher closed")

// Result reports one processed file.
type Result struct {
	// Source is the path of the input file.
	Source string

	// Output is the path written, empty when processing failed.
	Output string

	// Narration is the rewrite outcome. It may be set alongside Err.
	Narration *driving.Narration

	// Err is the processing error, if any.
	Err error
}

// Watcher rewrites supported files that appear in a directory.
type Watcher struct {
	narration  driving.NarrationService
	dir        string
	outDir     string
	opts       driving.NarrateOptions
	extensions map[string]bool
	settle     time.Duration
	existing   bool
	onResult   func(Result)

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithSettle sets the quiet period before a changed file is processed.
func WithSettle(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.settle = d
		}
	}
}

// WithExisting processes files already in the directory when Run starts.
func WithExisting() Option {
	return func(w *Watcher) {
		w.existing = true
	}
}

// WithResultHandler is called after every processed file.
func WithResultHandler(fn func(Result)) Option {
	return func(w *Watcher) {
		w.onResult = fn
	}
}

// New creates a watcher over dir writing narrations to outDir. Only files
// whose extension is in extensions are processed.
func New(
	narration driving.NarrationService,
	dir, outDir string,
	extensions []string,
	opts driving.NarrateOptions,
	options ...Option,
) *Watcher {
	exts := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		exts[strings.ToLower(ext)] = true
	}
	w := &Watcher{
		narration:  narration,
		dir:        dir,
		outDir:     outDir,
		opts:       opts,
		extensions: exts,
		settle:     DefaultSettle,
		onResult:   func(Result) {},
		done:       make(chan struct{}),
	}
	for _, opt := range options {
		opt(w)
	}
	return w
}

// Run watches the directory until ctx is cancelled. Files are processed
// sequentially once they have been quiet for the settle period.
func (w *Watcher) Run(ctx context.Context) error {
	if w.isClosed() {
		return ErrClosed
	}

	info, err := os.Stat(w.dir)
	if err != nil {
		return fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root path error: %s is not a directory", w.dir)
	}
	if err := os.MkdirAll(w.outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	logger.Info("watch: watching %s, writing to %s", w.dir, w.outDir)

	if w.existing {
		if err := w.processExisting(ctx); err != nil {
			return err
		}
	}

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.settle)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-w.done:
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			change := w.handleFsEvent(event)
			if change == nil {
				continue
			}
			logger.Debug("watch: %s %s", change.Type, change.Document.URI)
			if change.Type == domain.ChangeDeleted {
				delete(pending, change.Document.URI)
				continue
			}
			pending[change.Document.URI] = struct{}{}
			timer.Reset(w.settle)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch: %v", err)

		case <-timer.C:
			for _, path := range sortedKeys(pending) {
				if ctx.Err() != nil || w.isClosed() {
					return nil
				}
				w.onResult(w.Process(ctx, path))
			}
			clear(pending)
		}

		if w.isClosed() {
			return nil
		}
	}
}

// Process narrates one file and writes the result to the output directory.
func (w *Watcher) Process(ctx context.Context, path string) Result {
	res := Result{Source: path}

	content, err := os.ReadFile(path)
	if err != nil {
		res.Err = fmt.Errorf("read %s: %w", path, err)
		return w.report(res)
	}

	raw := &domain.RawDocument{URI: path, Content: content}
	res.Narration, res.Err = w.narration.Narrate(ctx, raw, w.opts)
	if res.Err != nil {
		return w.report(res)
	}

	out := w.OutputPath(path)
	if err := os.WriteFile(out, []byte(res.Narration.Result.Text+"\n"), 0o644); err != nil {
		res.Err = fmt.Errorf("write %s: %w", out, err)
		return w.report(res)
	}
	res.Output = out
	return w.report(res)
}

// OutputPath returns where the narration of path is written.
func (w *Watcher) OutputPath(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(w.outDir, base+OutputSuffix)
}

// Close stops a running watcher after its current file. An idle Run returns
// immediately. Close is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.closed {
		w.closed = true
		close(w.done)
	}
	return nil
}

func (w *Watcher) isClosed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

// handleFsEvent converts an fsnotify event into a change for a supported
// file. Directories, hidden files and narrator output are ignored.
func (w *Watcher) handleFsEvent(event fsnotify.Event) *domain.RawDocumentChange {
	if !w.accepts(event.Name) {
		return nil
	}

	var changeType domain.ChangeType
	switch {
	case event.Has(fsnotify.Create):
		changeType = domain.ChangeCreated
	case event.Has(fsnotify.Write):
		changeType = domain.ChangeUpdated
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return &domain.RawDocumentChange{
			Type:     domain.ChangeDeleted,
			Document: domain.RawDocument{URI: event.Name},
		}
	default:
		return nil
	}

	info, err := os.Stat(event.Name)
	if err != nil || info.IsDir() {
		return nil
	}
	return &domain.RawDocumentChange{
		Type:     changeType,
		Document: domain.RawDocument{URI: event.Name},
	}
}

// accepts reports whether path is a candidate input file.
func (w *Watcher) accepts(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, OutputSuffix) {
		return false
	}
	if filepath.Clean(w.outDir) != filepath.Clean(w.dir) {
		if rel, err := filepath.Rel(w.outDir, path); err == nil && !strings.HasPrefix(rel, "..") {
			return false
		}
	}
	return w.extensions[strings.ToLower(filepath.Ext(base))]
}

func (w *Watcher) processExisting(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("list %s: %w", w.dir, err)
	}
	for _, entry := range entries {
		if ctx.Err() != nil {
			return nil
		}
		path := filepath.Join(w.dir, entry.Name())
		if entry.IsDir() || !w.accepts(path) {
			continue
		}
		if _, err := os.Stat(w.OutputPath(path)); err == nil {
			continue
		}
		w.onResult(w.Process(ctx, path))
	}
	return nil
}

func (w *Watcher) report(res Result) Result {
	if res.Err != nil {
		logger.Warn("watch: %s: %v", res.Source, res.Err)
	} else {
		logger.Info("watch: %s -> %s", res.Source, res.Output)
	}
	return res
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
