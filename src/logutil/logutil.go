// Package logutil routes the standard logger to a size-rotated file, to
// stderr, or nowhere.
package logutil

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
)

const (
	DefaultFileName = "screen_snip_debug.log"
	maxSizeBytes    = 10 * 1024 * 1024 // 10 MB
	maxArchives     = 3
)

type Options struct {
	// File enables logging to Path with size-based rotation.
	File bool
	// Verbose sends log output to stderr. It wins over File.
	Verbose bool
	// Path of the log file. Empty means DefaultFileName in the working
	// directory.
	Path string
	// MaxSize and Archives override the 10 MB / 3 archive rotation.
	MaxSize  int64
	Archives int
}

// Setup configures the standard logger and returns a closer for the log
// file. With neither File nor Verbose set, logs are discarded so stdout and
// stderr stay clean for command output.
func Setup(opts Options) io.Closer {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	switch {
	case opts.Verbose:
		log.SetOutput(os.Stderr)
		return nopCloser{}
	case !opts.File:
		log.SetOutput(io.Discard)
		return nopCloser{}
	}

	w, err := NewRotatingWriter(opts.Path, opts.MaxSize, opts.Archives)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		log.SetOutput(io.Discard)
		return nopCloser{}
	}
	log.SetOutput(w)
	return w
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// RotatingWriter appends to a file and shifts it to path.1, path.2, ...
// once it would grow past the size limit. The oldest archive is discarded.
type RotatingWriter struct {
	mu       sync.Mutex
	path     string
	maxSize  int64
	archives int
	f        *os.File
}

func NewRotatingWriter(path string, maxSize int64, archives int) (*RotatingWriter, error) {
	if path == "" {
		path = DefaultFileName
	}
	if maxSize <= 0 {
		maxSize = maxSizeBytes
	}
	if archives <= 0 {
		archives = maxArchives
	}
	w := &RotatingWriter{path: path, maxSize: maxSize, archives: archives}
	if st, err := os.Stat(path); err == nil && st.Size() > maxSize {
		w.rotate()
	}
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *RotatingWriter) open() error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		return err
	}
	w.f = f
	return nil
}

func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return 0, os.ErrClosed
	}
	if st, err := w.f.Stat(); err == nil && st.Size() > 0 && st.Size()+int64(len(p)) > w.maxSize {
		_ = w.f.Close()
		w.rotate()
		if err := w.open(); err != nil {
			w.f = nil
			return 0, err
		}
	}
	return w.f.Write(p)
}

func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f = nil
	return err
}

func (w *RotatingWriter) rotate() {
	_ = os.Remove(w.archiveName(w.archives))
	for i := w.archives - 1; i >= 1; i-- {
		_ = os.Rename(w.archiveName(i), w.archiveName(i+1))
	}
	_ = os.Rename(w.path, w.archiveName(1))
}

func (w *RotatingWriter) archiveName(n int) string {
	return filepath.Clean(fmt.Sprintf("%s.%d", w.path, n))
}

// RedactKey masks an API key, leaving first/last 4 chars: xxxx...yyyy
func RedactKey(k string) string {
	if len(k) <= 8 {
		return "********"
	}
	return fmt.Sprintf("%s...%s", k[:4], k[len(k)-4:])
}
