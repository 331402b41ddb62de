// Package files keeps uploaded photos on disk, outside the database.
package files

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// URLPrefix is the public path under which stored files are served.
const URLPrefix = "/uploads/"

// maxNameAttempts bounds the retries when a generated name is already taken.
const maxNameAttempts = 16

// ErrInvalidPath is returned for public paths that do not point into the
// uploads directory.
var ErrInvalidPath = errors.New("invalid upload path")

// Store writes and removes files in a single directory.
type Store struct {
	dir string
	// Now is the clock used for generated names.
	Now func() time.Time
}

// New returns a Store rooted at dir. The directory is created on first write.
func New(dir string) *Store {
	return &Store{dir: dir, Now: time.Now}
}

// Dir returns the directory files are stored in.
func (s *Store) Dir() string {
	return s.dir
}

// GenerateStoredName returns the on-disk name for an upload: the upload time
// in Unix milliseconds, a dash and the sanitized base of the original name.
func GenerateStoredName(originalName string, now time.Time) string {
	return fmt.Sprintf("%d-%s", now.UnixMilli(), sanitize(originalName))
}

func sanitize(name string) string {
	// Clients may send Windows paths.
	name = name[strings.LastIndexAny(name, `/\`)+1:]
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if strings.Trim(cleaned, ".") == "" {
		return "file"
	}
	return cleaned
}

// Save writes r under a freshly generated name and returns its public path.
func (s *Store) Save(r io.Reader, originalName string) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", errors.Wrap(err, "creating uploads directory")
	}

	now := s.Now()
	var (
		f    *os.File
		name string
		err  error
	)
	for range maxNameAttempts {
		name = GenerateStoredName(originalName, now)
		f, err = os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if !os.IsExist(err) {
			break
		}
		now = now.Add(time.Millisecond)
	}
	if err != nil {
		return "", errors.Wrap(err, "creating upload file")
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", errors.Wrap(err, "writing upload file")
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", errors.Wrap(err, "closing upload file")
	}

	return URLPrefix + name, nil
}

// Path maps a public path returned by Save to its location on disk.
func (s *Store) Path(publicPath string) (string, error) {
	name, ok := strings.CutPrefix(publicPath, URLPrefix)
	if !ok || name == "" || name != path.Base(name) || strings.ContainsAny(name, `/\`) || name == ".." {
		return "", errors.Wrapf(ErrInvalidPath, "%q", publicPath)
	}
	return filepath.Join(s.dir, name), nil
}

// Exists reports whether the file behind publicPath is present.
func (s *Store) Exists(publicPath string) bool {
	p, err := s.Path(publicPath)
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

// Delete removes the file behind publicPath. An empty path or a file that is
// already gone is not an error.
func (s *Store) Delete(publicPath string) error {
	if publicPath == "" {
		return nil
	}
	p, err := s.Path(publicPath)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "deleting upload file")
	}
	return nil
}
