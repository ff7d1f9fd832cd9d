package engine

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bamsammich/cloudmig/internal/clock"
	"github.com/bamsammich/cloudmig/internal/platform"
)

// fakePlaceholders simulates a sync client. Files marked cloud-only stay
// that way until hydration is requested, then report CloudOnly for a set
// number of further State calls before turning Local.
type fakePlaceholders struct {
	mu         sync.Mutex
	cloud      map[string]int // path -> CloudOnly polls left after a request; < 0 never hydrates
	requested  map[string]bool
	requests   []string
	pins       []string
	dehydrated []string

	requestErr   error
	pinErr       error
	dehydrateErr error
}

var _ platform.Placeholders = (*fakePlaceholders)(nil)

func newFakePlaceholders() *fakePlaceholders {
	return &fakePlaceholders{
		cloud:     make(map[string]int),
		requested: make(map[string]bool),
	}
}

func (f *fakePlaceholders) setCloudOnly(path string, pollsUntilLocal int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cloud[path] = pollsUntilLocal
	delete(f.requested, path)
}

func (f *fakePlaceholders) Name() string { return "fake" }

func (f *fakePlaceholders) State(path string) (platform.State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.cloud[path]
	if !ok {
		return platform.Local, nil
	}
	if !f.requested[path] || n < 0 {
		return platform.CloudOnly, nil
	}
	if n == 0 {
		delete(f.cloud, path)
		return platform.Local, nil
	}
	f.cloud[path] = n - 1
	return platform.CloudOnly, nil
}

func (f *fakePlaceholders) RequestHydration(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, path)
	if f.requestErr != nil {
		return f.requestErr
	}
	f.requested[path] = true
	return nil
}

func (f *fakePlaceholders) Pin(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pins = append(f.pins, path)
	return f.pinErr
}

func (f *fakePlaceholders) Dehydrate(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dehydrateErr != nil {
		return f.dehydrateErr
	}
	f.dehydrated = append(f.dehydrated, path)
	return nil
}

func (f *fakePlaceholders) calls() (requests, pins, dehydrated []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...),
		append([]string(nil), f.pins...),
		append([]string(nil), f.dehydrated...)
}

func newTestClock() *clock.FakeClock {
	return clock.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
}

// writeFile creates root/rel with size bytes of deterministic content.
func writeFile(t *testing.T, root, rel string, size int) string {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	data := bytes.Repeat([]byte("0123456789abcdef"), size/16+1)[:size]
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// failingWriter passes through limit bytes and then fails every write.
type failingWriter struct {
	w     io.Writer
	limit int64
	n     int64
	err   error
}

func (fw *failingWriter) Write(p []byte) (int, error) {
	if fw.n+int64(len(p)) > fw.limit {
		keep := fw.limit - fw.n
		if keep > 0 {
			n, _ := fw.w.Write(p[:keep])
			fw.n += int64(n)
			return n, fw.err
		}
		return 0, fw.err
	}
	n, err := fw.w.Write(p)
	fw.n += int64(n)
	return n, err
}

// faultCopier delegates to a real copier except for one file, whose copy
// writes part of the data and then fails like a full disk would.
type faultCopier struct {
	inner  *StreamCopier
	failOn string // base name
	err    error
}

func (fc *faultCopier) Copy(ctx context.Context, src, dst string) (int64, error) {
	if filepath.Base(src) != fc.failOn {
		return fc.inner.Copy(ctx, src, dst)
	}
	c := *fc.inner
	c.wrapDst = func(w io.Writer) io.Writer {
		return &failingWriter{w: w, limit: 1024, err: fc.err}
	}
	return c.Copy(ctx, src, dst)
}

// shortCopier writes one byte less than the source and reports success.
type shortCopier struct{}

func (shortCopier) Copy(_ context.Context, src, dst string) (int64, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return 0, err
	}
	if len(data) > 0 {
		data = data[:len(data)-1]
	}
	return int64(len(data)), os.WriteFile(dst, data, 0o644)
}

var errDiskFull = errors.New("no space left on device")
