package source

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/framenav/internal/infrastructure/httpclient"
	"github.com/GriffinCanCode/framenav/internal/navigation/address"
	"github.com/GriffinCanCode/framenav/internal/navigation/content"
	"github.com/GriffinCanCode/framenav/internal/navigation/dispatch"
	"github.com/GriffinCanCode/framenav/internal/navigation/frame"
	"github.com/GriffinCanCode/framenav/internal/navigation/loader"
)

const guide = `<html><head><title>Guide</title></head>
<body><h1 id="start">Start here</h1><a href="/next">Next</a></body></html>`

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/guide", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(guide))
	})
	mux.HandleFunc("/private", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Header().Set("Cache-Control", "private, no-store")
		_, _ = w.Write([]byte(guide))
	})
	mux.HandleFunc("/config", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"mode":"dark"}`))
	})
	mux.HandleFunc("/forbidden", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newClient() *httpclient.Client {
	cfg := httpclient.DefaultConfig()
	cfg.Retries = 0
	cfg.Timeout = 5 * time.Second
	return httpclient.New(cfg, nil)
}

func TestHTTPLoad(t *testing.T) {
	srv := newServer(t)
	h := NewHTTP(newClient(), nil)
	ctx := context.Background()

	got, err := h.Load(ctx, address.MustParse(srv.URL+"/guide#start"))
	require.NoError(t, err)
	page, ok := got.(*content.Page)
	require.True(t, ok)
	assert.Equal(t, "Guide", page.Title)
	require.Len(t, page.Links, 1)
	assert.Equal(t, srv.URL+"/next", page.Links[0].URL.String())
	_, hinted := page.KeepAlive()
	assert.False(t, hinted)

	got, err = h.Load(ctx, address.MustParse(srv.URL+"/private"))
	require.NoError(t, err)
	keep, hinted := got.(*content.Page).KeepAlive()
	assert.True(t, hinted)
	assert.False(t, keep, "no-store pages are not cached")

	got, err = h.Load(ctx, address.MustParse(srv.URL+"/config"))
	require.NoError(t, err)
	mode, ok := got.(*content.Document).Lookup("mode")
	require.True(t, ok)
	assert.Equal(t, "dark", mode)
}

func TestHTTPLoadErrors(t *testing.T) {
	srv := newServer(t)
	h := NewHTTP(newClient(), nil)
	ctx := context.Background()

	_, err := h.Load(ctx, address.MustParse(srv.URL+"/missing"))
	assert.ErrorIs(t, err, loader.ErrNotFound)
	assert.ErrorIs(t, err, loader.ErrStatus)

	_, err = h.Load(ctx, address.MustParse(srv.URL+"/forbidden"))
	assert.ErrorIs(t, err, loader.ErrStatus)
	assert.NotErrorIs(t, err, loader.ErrNotFound)

	_, err = h.Load(ctx, address.MustParse(srv.URL+"/broken"))
	assert.ErrorIs(t, err, loader.ErrStatus)

	_, err = h.Load(ctx, address.MustParse("ftp://example.com/file"))
	assert.ErrorIs(t, err, loader.ErrUnsupportedScheme)
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func compress(t *testing.T, kind string, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	switch kind {
	case "gz":
		w := gzip.NewWriter(&buf)
		_, err := w.Write(data)
		require.NoError(t, err)
		require.NoError(t, w.Close())
	case "zst":
		w, err := zstd.NewWriter(&buf)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
		require.NoError(t, w.Close())
	}
	return buf.Bytes()
}

func newContentRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "index.html"), []byte(guide))
	writeFile(t, filepath.Join(root, "notes", "todo.txt"), []byte("buy milk"))
	writeFile(t, filepath.Join(root, "notes", "deep", "deeper", "hidden.txt"), []byte("x"))
	writeFile(t, filepath.Join(root, "notes", ".secret"), []byte("x"))
	writeFile(t, filepath.Join(root, "data", "settings.yaml.gz"), compress(t, "gz", []byte("theme: light\n")))
	writeFile(t, filepath.Join(root, "data", "app.toml.zst"), compress(t, "zst", []byte("[app]\nname = \"frames\"\n")))
	return root
}

func TestFileLoad(t *testing.T) {
	root := newContentRoot(t)
	f, err := NewFile(root, 1<<20, nil)
	require.NoError(t, err)
	ctx := context.Background()

	got, err := f.Load(ctx, address.MustParse("file:///index.html#start"))
	require.NoError(t, err)
	assert.Equal(t, "Guide", got.(*content.Page).Title)

	got, err = f.Load(ctx, address.MustParse("file:///notes/todo.txt"))
	require.NoError(t, err)
	assert.Equal(t, "buy milk", got.(*content.Text).Text())

	got, err = f.Load(ctx, address.MustParse("file:///data/settings.yaml.gz"))
	require.NoError(t, err)
	theme, ok := got.(*content.Document).Lookup("theme")
	require.True(t, ok)
	assert.Equal(t, "light", theme)

	got, err = f.Load(ctx, address.MustParse("file:///data/app.toml.zst"))
	require.NoError(t, err)
	name, ok := got.(*content.Document).Lookup("app.name")
	require.True(t, ok)
	assert.Equal(t, "frames", name)
}

func TestFileListing(t *testing.T) {
	f, err := NewFile(newContentRoot(t), 0, nil)
	require.NoError(t, err)

	got, err := f.Load(context.Background(), address.MustParse("file:///notes"))
	require.NoError(t, err)
	listing, ok := got.(*content.Listing)
	require.True(t, ok)

	var paths []string
	for _, e := range listing.Entries {
		paths = append(paths, e.Path)
	}
	assert.Equal(t, []string{"deep", "deep/deeper", "todo.txt"}, paths, "hidden files are skipped and depth is bounded")
	assert.Equal(t, "file:///notes/todo.txt", listing.Entries[2].URL.String())
	assert.EqualValues(t, len("buy milk"), listing.Entries[2].Size)
	assert.True(t, listing.Entries[0].Dir)
}

func TestFileLoadErrors(t *testing.T) {
	root := newContentRoot(t)
	f, err := NewFile(root, 4, nil)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = f.Load(ctx, address.MustParse("file:///nope.txt"))
	assert.ErrorIs(t, err, loader.ErrNotFound)

	_, err = f.Load(ctx, address.MustParse("file:///notes/todo.txt"))
	assert.ErrorIs(t, err, loader.ErrTooLarge)

	_, err = f.Load(ctx, address.MustParse("https://example.com/"))
	assert.ErrorIs(t, err, loader.ErrUnsupportedScheme)

	got, err := f.resolve("/../../etc/passwd")
	require.NoError(t, err, "cleaning keeps the path inside the root")
	assert.Equal(t, filepath.Join(f.Root(), "etc", "passwd"), got)

	_, err = NewFile(filepath.Join(root, "index.html"), 0, nil)
	assert.Error(t, err)
}

func TestFileSymlinks(t *testing.T) {
	root := newContentRoot(t)
	outside := t.TempDir()
	writeFile(t, filepath.Join(outside, "secret.txt"), []byte("secret"))

	if err := os.Symlink(filepath.Join(outside, "secret.txt"), filepath.Join(root, "leak.txt")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "elsewhere")))
	require.NoError(t, os.Symlink(filepath.Join(root, "notes", "todo.txt"), filepath.Join(root, "todo.txt")))

	f, err := NewFile(root, 0, nil)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = f.Load(ctx, address.MustParse("file:///leak.txt"))
	assert.ErrorIs(t, err, ErrOutsideRoot)

	_, err = f.Load(ctx, address.MustParse("file:///elsewhere/secret.txt"))
	assert.ErrorIs(t, err, ErrOutsideRoot)

	got, err := f.Load(ctx, address.MustParse("file:///todo.txt"))
	require.NoError(t, err, "links inside the root are followed")
	assert.Equal(t, "buy milk", got.(*content.Text).Text())
}

func TestDefaultRoutesByScheme(t *testing.T) {
	srv := newServer(t)
	router, err := Default(Options{
		ContentRoot: newContentRoot(t),
		Client:      newClient(),
		Static:      loader.NewStatic(map[string]any{"about:home": "Home"}),
	})
	require.NoError(t, err)
	ctx := context.Background()

	got, err := router.Load(ctx, address.MustParse("file:///notes/todo.txt"))
	require.NoError(t, err)
	assert.IsType(t, &content.Text{}, got)

	got, err = router.Load(ctx, address.MustParse(srv.URL+"/guide"))
	require.NoError(t, err)
	assert.IsType(t, &content.Page{}, got)

	got, err = router.Load(ctx, address.MustParse("about:home"))
	require.NoError(t, err)
	assert.Equal(t, "Home", got)
}

func TestFrameOverRemotePages(t *testing.T) {
	srv := newServer(t)
	d := dispatch.New()
	router, err := Default(Options{Client: newClient()})
	require.NoError(t, err)
	f, err := frame.New("main", d, router)
	require.NoError(t, err)

	require.NoError(t, f.Navigate(srv.URL+"/guide#start"))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, d.Drain(ctx))

	page, ok := f.Content().(*content.Page)
	require.True(t, ok)
	assert.True(t, page.Visible())
	assert.Equal(t, "start", page.Fragment())
	assert.Equal(t, "Start here", page.Anchor())
	assert.Equal(t, 1, f.Cache().Len())

	require.NoError(t, f.Navigate(srv.URL+"/private"))
	require.NoError(t, d.Drain(ctx))
	assert.False(t, page.Visible())
	assert.Equal(t, 1, f.Cache().Len(), "no-store page stays out of the cache")

	text, ok := f.CopyText()
	require.True(t, ok)
	assert.Contains(t, text, "# Start here")
}
