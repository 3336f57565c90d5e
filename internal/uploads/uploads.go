// Package uploads stores leave attachments on local disk and serves them back under
// /uploads/.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"hrdesk/internal/clock"
)

const URLPrefix = "/uploads/"

var (
	whitespace = regexp.MustCompile(`\s+`)
	unsafeChar = regexp.MustCompile(`[^A-Za-z0-9._-]`)
)

type Store struct {
	dir   string
	clock clock.Clock
}

func New(dir string, clk clock.Clock) (*Store, error) {
	if dir == "" {
		return nil, errors.New("uploads: dir required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("uploads: create dir: %w", err)
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &Store{dir: dir, clock: clk}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// Save writes r to <unixMillis>-<name> and returns its public URL. A name collision
// within the same millisecond gets a random suffix instead of overwriting.
func (s *Store) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	base, ext := SanitizeName(filename)
	stamp := strconv.FormatInt(s.clock.Now().UnixMilli(), 10)

	name := stamp + "-" + base + ext
	file, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		name = stamp + "-" + base + "-" + uuid.NewString()[:8] + ext
		file, err = os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	}
	if err != nil {
		return "", fmt.Errorf("uploads: create %s: %w", name, err)
	}
	if _, err := io.Copy(file, r); err != nil {
		_ = file.Close()
		_ = os.Remove(file.Name())
		return "", fmt.Errorf("uploads: write %s: %w", name, err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(file.Name())
		return "", fmt.Errorf("uploads: close %s: %w", name, err)
	}
	return URLPrefix + name, nil
}

func (s *Store) Remove(_ context.Context, url string) error {
	name := strings.TrimPrefix(url, URLPrefix)
	if name == "" || name == url || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("uploads: invalid url %q", url)
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Handler serves stored files. Directory listings are not exposed.
func (s *Store) Handler() http.Handler {
	files := http.StripPrefix(strings.TrimSuffix(URLPrefix, "/"), http.FileServer(http.Dir(s.dir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}

// SanitizeName splits an uploaded file name into a safe base and its extension.
func SanitizeName(filename string) (string, string) {
	filename = strings.ReplaceAll(filename, `\`, "/")
	filename = filepath.Base(filename)
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	base = whitespace.ReplaceAllString(strings.TrimSpace(base), "_")
	base = unsafeChar.ReplaceAllString(base, "")
	base = strings.Trim(base, ".")
	if base == "" {
		base = "attachment"
	}
	ext = unsafeChar.ReplaceAllString(ext, "")
	if ext == "." {
		ext = ""
	}
	return base, ext
}
