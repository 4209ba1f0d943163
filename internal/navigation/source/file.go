package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/framenav/internal/infrastructure/logging"
	"github.com/GriffinCanCode/framenav/internal/navigation/address"
	"github.com/GriffinCanCode/framenav/internal/navigation/content"
	"github.com/GriffinCanCode/framenav/internal/navigation/loader"
)

// ErrOutsideRoot is returned for addresses that escape the content root
var ErrOutsideRoot = errors.New("address escapes content root")

// DefaultListingDepth bounds how deep directory listings recurse
const DefaultListingDepth = 2

// File loads file:// addresses from a directory tree. The address path is
// interpreted relative to the root, so file:///guide/intro.md is
// <root>/guide/intro.md.
type File struct {
	root     string
	maxBytes int64
	depth    int
	logger   *zap.Logger
}

// NewFile creates a loader rooted at root
func NewFile(root string, maxBytes int64, logger *zap.Logger) (*File, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("content root: %w", err)
	}
	if abs, err = filepath.EvalSymlinks(abs); err != nil {
		return nil, fmt.Errorf("content root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("content root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("content root %s is not a directory", abs)
	}

	return &File{
		root:     abs,
		maxBytes: maxBytes,
		depth:    DefaultListingDepth,
		logger:   logging.OrNop(logger),
	}, nil
}

// Root returns the absolute content root
func (f *File) Root() string { return f.root }

// Load reads the file or lists the directory at addr
func (f *File) Load(ctx context.Context, addr *url.URL) (any, error) {
	if addr == nil || addr.Scheme != "file" {
		return nil, fmt.Errorf("%w: %s", loader.ErrUnsupportedScheme, address.Key(addr))
	}

	full, err := f.resolve(addr.Path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", loader.ErrNotFound, address.Key(addr))
	}
	if err != nil {
		return nil, err
	}

	base := address.RemoveFragment(addr)
	if info.IsDir() {
		return f.list(ctx, base, full)
	}

	data, err := f.read(ctx, full)
	if err != nil {
		return nil, err
	}
	return content.Decode(base, data, "")
}

func (f *File) resolve(p string) (string, error) {
	clean := path.Clean("/" + p)
	full := filepath.Join(f.root, filepath.FromSlash(clean))

	if !f.within(full) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, p)
	}

	// symlinks under the root must not lead out of it
	resolved, err := filepath.EvalSymlinks(full)
	if errors.Is(err, fs.ErrNotExist) {
		return full, nil
	}
	if err != nil {
		return "", err
	}
	if !f.within(resolved) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, p)
	}
	return full, nil
}

func (f *File) within(full string) bool {
	rel, err := filepath.Rel(f.root, full)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (f *File) read(ctx context.Context, full string) ([]byte, error) {
	file, err := os.Open(full)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var r io.Reader = file
	switch strings.ToLower(filepath.Ext(full)) {
	case ".gz":
		gz, err := gzip.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer gz.Close()
		r = gz
	case ".zst":
		zr, err := zstd.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		defer zr.Close()
		r = zr
	}

	r = &ctxReader{ctx: ctx, r: r}
	if f.maxBytes <= 0 {
		return io.ReadAll(r)
	}

	data, err := io.ReadAll(io.LimitReader(r, f.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("%w: %s", loader.ErrTooLarge, full)
	}
	return data, nil
}

func (f *File) list(ctx context.Context, base *url.URL, dir string) (*content.Listing, error) {
	var (
		mu      sync.Mutex
		entries []content.Entry
	)

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, dir, func(p string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil || p == dir {
			return nil
		}

		rel, relErr := filepath.Rel(dir, p)
		if relErr != nil {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		entry := content.Entry{
			Path: filepath.ToSlash(rel),
			Dir:  d.IsDir(),
			URL:  base.JoinPath(filepath.ToSlash(rel)),
		}
		if info, err := d.Info(); err == nil && !d.IsDir() {
			entry.Size = info.Size()
		}

		mu.Lock()
		entries = append(entries, entry)
		mu.Unlock()

		if d.IsDir() && strings.Count(entry.Path, "/")+1 >= f.depth {
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(entries, func(a, b content.Entry) int { return strings.Compare(a.Path, b.Path) })
	f.logger.Debug("Directory listed", zap.String("dir", dir), zap.Int("entries", len(entries)))
	return &content.Listing{URL: base, Entries: entries}, nil
}

// ctxReader stops reading once ctx is done
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
