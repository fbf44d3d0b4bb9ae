package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/aouyang1/pptmaker/outline"
	"github.com/aouyang1/pptmaker/util"
	"github.com/djherbis/times"
)

const (
	defaultBaseName = "Presentation"
	maxBaseNameLen  = 50
)

// ErrNoSidecar is returned when a file has no outline saved next to it.
var ErrNoSidecar = errors.New("no outline sidecar")

// LocalManager keeps rendered presentations and their outline sidecars in
// one documents directory.
type LocalManager struct {
	path string

	// Updated receives a value after every successful Save. Sends never
	// block; one pending signal covers any number of saves.
	Updated chan bool
}

func NewLocalManager(path string) (*LocalManager, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create documents directory: %w", err)
	}
	return &LocalManager{
		path:    path,
		Updated: make(chan bool, 1),
	}, nil
}

func (l *LocalManager) Dir() string {
	return l.path
}

// Save writes data as filename in the documents directory, replacing any
// file with the same name, and returns its path.
func (l *LocalManager) Save(data []byte, filename string) (string, error) {
	path := filepath.Join(l.path, filepath.Base(filename))
	if err := writeFileAtomic(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to save presentation: %w", err)
	}
	slog.Info("saved presentation", "path", path, "bytes", len(data))

	select {
	case l.Updated <- true:
	default:
		// a signal is already pending
	}
	return path, nil
}

// SaveOutlineSidecar writes o as indented JSON next to the file at forPath.
func (l *LocalManager) SaveOutlineSidecar(o *outline.Outline, forPath string) error {
	data, err := json.MarshalIndent(o, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode outline: %w", err)
	}
	if err := writeFileAtomic(SidecarPath(forPath), data, 0o644); err != nil {
		return fmt.Errorf("failed to save outline: %w", err)
	}
	return nil
}

// LoadOutlineSidecar reads the outline saved next to forPath. It returns
// ErrNoSidecar when there is none and a decode error when it is corrupt.
func (l *LocalManager) LoadOutlineSidecar(forPath string) (*outline.Outline, error) {
	path := SidecarPath(forPath)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoSidecar
		}
		return nil, fmt.Errorf("read sidecar %s: %w", path, err)
	}
	var o outline.Outline
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("decode sidecar %s: %w", path, err)
	}
	return &o, nil
}

// HasSidecar reports whether an outline is saved next to path.
func (l *LocalManager) HasSidecar(path string) bool {
	_, err := os.Stat(SidecarPath(path))
	return err == nil
}

type HistoryFile struct {
	Name      string
	Path      string
	CreatedAt time.Time
	Size      int64
}

// createdAt is the birth time when the filesystem records one and the
// modification time otherwise.
func createdAt(ts times.Timespec) time.Time {
	if ts.HasBirthTime() {
		return ts.BirthTime()
	}
	return ts.ModTime()
}

// List returns the saved presentations, newest first by creation time.
// Files whose time cannot be read sort last.
func (l *LocalManager) List() ([]HistoryFile, error) {
	entries, err := os.ReadDir(l.path)
	if err != nil {
		return nil, err
	}

	var files []HistoryFile
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if !util.SupportedExt.Contains(filepath.Ext(name)) {
			continue
		}

		f := HistoryFile{
			Name: name,
			Path: filepath.Join(l.path, name),
		}
		info, err := entry.Info()
		if err != nil {
			slog.Debug("unable to stat presentation", "name", name, "error", err)
		} else {
			f.CreatedAt = info.ModTime()
			f.Size = info.Size()
			if ts, err := times.Stat(f.Path); err == nil {
				f.CreatedAt = createdAt(ts)
			}
		}
		files = append(files, f)
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].CreatedAt.After(files[j].CreatedAt)
	})
	return files, nil
}

// Delete removes a presentation and, if present, its sidecar. A failure to
// remove the sidecar does not fail the delete.
func (l *LocalManager) Delete(path string) error {
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete presentation: %w", err)
	}
	if err := os.Remove(SidecarPath(path)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("unable to remove outline sidecar", "path", path, "error", err)
	}
	return nil
}

// Resolve maps a history entry name to its path. Only plain file names
// with the output extension are accepted.
func (l *LocalManager) Resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid presentation name %q", name)
	}
	if !util.SupportedExt.Contains(filepath.Ext(name)) {
		return "", fmt.Errorf("invalid presentation name %q", name)
	}
	return filepath.Join(l.path, name), nil
}

func (l *LocalManager) FilenameFrom(title string) string {
	return FilenameFrom(title)
}

// FilenameFrom turns a presentation title into a file name: runs of
// letters and digits joined by hyphens, cut to 50 characters, with the
// output extension.
func FilenameFrom(title string) string {
	words := strings.FieldsFunc(title, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsMark(r))
	})
	base := []rune(strings.Join(words, "-"))
	if len(base) > maxBaseNameLen {
		base = base[:maxBaseNameLen]
	}
	name := string(base)
	if name == "" {
		name = defaultBaseName
	}
	return name + util.OutputExt
}

// SidecarPath swaps the extension of path for the sidecar extension.
func SidecarPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + util.SidecarExt
}

// writeFileAtomic writes to a temporary file, syncs it and renames it over
// path so readers never see a partial file.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
