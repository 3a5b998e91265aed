// Package output crops a confirmed selection out of a snapshot and writes it
// as a PNG file. A write either produces the complete file or nothing.
package output

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"

	"screen-snip/src/geometry"
	"screen-snip/src/screenshot"
)

const (
	DefaultPrefix = "screenshot"
	timeLayout    = "20060102_150405"
	maxSuffix     = 1000
)

var ErrNameExhausted = errors.New("no free output name")

// WriteError reports a failed write. Path is the final path when it was
// already chosen.
type WriteError struct {
	Op   string
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("output %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("output %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

type Result struct {
	Path   string
	Bytes  int64
	Width  int
	Height int
}

type Writer struct {
	Dir    string
	Prefix string

	now    func() time.Time
	encode func(io.Writer, image.Image) error
	link   func(oldname, newname string) error
}

// NewWriter returns a writer for dir. An empty dir selects DefaultDir and an
// empty prefix selects DefaultPrefix.
func NewWriter(dir, prefix string) *Writer {
	if dir == "" {
		dir = DefaultDir()
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Writer{
		Dir:    dir,
		Prefix: prefix,
		now:    time.Now,
		encode: encodePNG,
		link:   os.Link,
	}
}

// DefaultDir is ~/Desktop when it exists, otherwise the home directory.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	desktop := filepath.Join(home, "Desktop")
	if info, err := os.Stat(desktop); err == nil && info.IsDir() {
		return desktop
	}
	return home
}

func encodePNG(w io.Writer, img image.Image) error {
	return imaging.Encode(w, img, imaging.PNG)
}

// Write crops r from snap and stores it under a timestamped name.
func (w *Writer) Write(snap *screenshot.Snapshot, r geometry.Rect) (Result, error) {
	img, err := snap.Crop(r.Image())
	if err != nil {
		return Result{}, &WriteError{Op: "crop", Err: err}
	}
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return Result{}, &WriteError{Op: "mkdir", Path: w.Dir, Err: err}
	}

	tmp, err := os.CreateTemp(w.Dir, "."+w.Prefix+"-*.tmp")
	if err != nil {
		return Result{}, &WriteError{Op: "create", Path: w.Dir, Err: err}
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			if rmErr := os.Remove(tmpPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				log.Printf("OUTPUT: failed to remove temp file %s: %v", tmpPath, rmErr)
			}
		}
	}()

	if err := w.encode(tmp, img); err != nil {
		return Result{}, &WriteError{Op: "encode", Err: err}
	}
	if err := tmp.Sync(); err != nil {
		return Result{}, &WriteError{Op: "sync", Path: tmpPath, Err: err}
	}
	info, err := tmp.Stat()
	if err != nil {
		return Result{}, &WriteError{Op: "stat", Path: tmpPath, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return Result{}, &WriteError{Op: "close", Path: tmpPath, Err: err}
	}

	path, err := w.commit(tmpPath)
	if err != nil {
		return Result{}, err
	}
	committed = true

	b := img.Bounds()
	log.Printf("OUTPUT: wrote %s (%dx%d, %d bytes)", path, b.Dx(), b.Dy(), info.Size())
	return Result{Path: path, Bytes: info.Size(), Width: b.Dx(), Height: b.Dy()}, nil
}

// commit moves the finished temp file to <prefix>_<timestamp>.png, adding
// _1, _2, ... when that name is taken. A name is claimed with a hard link,
// which fails instead of replacing a file that appeared in the meantime.
func (w *Writer) commit(tmpPath string) (string, error) {
	base := w.Prefix + "_" + w.now().Format(timeLayout)
	for n := 0; n < maxSuffix; n++ {
		name := base + ".png"
		if n > 0 {
			name = fmt.Sprintf("%s_%d.png", base, n)
		}
		path := filepath.Join(w.Dir, name)

		err := w.link(tmpPath, path)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			log.Printf("OUTPUT: hard link failed, reserving %s instead: %v", path, err)
			ok, err := reserveAndRename(tmpPath, path)
			if err != nil {
				return "", err
			}
			if !ok {
				continue
			}
			return path, nil
		}
		if rmErr := os.Remove(tmpPath); rmErr != nil {
			log.Printf("OUTPUT: failed to remove temp file %s: %v", tmpPath, rmErr)
		}
		return path, nil
	}
	return "", &WriteError{Op: "name", Path: w.Dir, Err: ErrNameExhausted}
}

// reserveAndRename claims path with an exclusive create and then renames
// tmpPath over the placeholder. It reports false when path already exists.
func reserveAndRename(tmpPath, path string) (bool, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, &WriteError{Op: "reserve", Path: path, Err: err}
	}
	f.Close()
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(path)
		return false, &WriteError{Op: "rename", Path: path, Err: err}
	}
	return true, nil
}
