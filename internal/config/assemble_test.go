package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bamsammich/cloudmig/internal/config"
	"github.com/bamsammich/cloudmig/internal/engine"
	"github.com/bamsammich/cloudmig/internal/platform"
)

func roots(t *testing.T) (src, dst string) {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	src = filepath.Join(dir, "OneDrive")
	require.NoError(t, os.Mkdir(src, 0o755))
	return src, filepath.Join(dir, "Dropbox")
}

func TestAssemble_Defaults(t *testing.T) {
	src, dst := roots(t)

	run, err := config.Assemble(config.Options{Src: src, Dst: dst})
	require.NoError(t, err)

	assert.Equal(t, src, run.SrcRoot)
	assert.Equal(t, dst, run.DstRoot)
	assert.Equal(t, engine.HydratedOnly, run.Mode)
	assert.Equal(t, 260, run.MaxPath)
	assert.Equal(t, 1800*time.Second, run.HydrateTimeout)
	assert.Equal(t, 4<<20, run.BufferSize)
	assert.Zero(t, run.BWLimit)
	assert.Equal(t, platform.BackendAuto, run.Backend)
	assert.Equal(t, len(filterDefaults()), run.Filter.SkipNames())
	assert.False(t, run.Filter.Match("sub/Desktop.ini", false, 10))
	assert.True(t, run.Filter.Match("sub/report.docx", false, 10))
}

func filterDefaults() []string {
	return []string{"desktop.ini", "thumbs.db", ".ds_store", ".dropbox", ".dropbox.attr", "icon\r"}
}

func TestAssemble_RelativeRootsBecomeAbsolute(t *testing.T) {
	src, _ := roots(t)
	t.Chdir(filepath.Dir(src))

	run, err := config.Assemble(config.Options{Src: "OneDrive", Dst: "Dropbox"})
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(run.SrcRoot))
	assert.True(t, filepath.IsAbs(run.DstRoot))
}

func TestAssemble_AllOptions(t *testing.T) {
	src, dst := roots(t)
	skipFile := filepath.Join(t.TempDir(), "skips")
	require.NoError(t, os.WriteFile(skipFile, []byte("~lock\n- *.bak\n"), 0o644))

	run, err := config.Assemble(config.Options{
		Src:            src,
		Dst:            dst,
		Dehydrate:      "all",
		SkipNames:      []string{"Extra.TXT"},
		NoDefaultSkips: true,
		SkipFile:       skipFile,
		Exclude:        []string{"*.tmp"},
		MaxPath:        ptr(1024),
		HydrateTimeout: time.Minute,
		BufferSize:     "1MiB",
		BWLimit:        "10M",
		Placeholders:   "xattr",
		Journal:        "auto",
		DryRun:         true,
	})
	require.NoError(t, err)

	assert.Equal(t, engine.All, run.Mode)
	assert.Equal(t, 1024, run.MaxPath)
	assert.Equal(t, time.Minute, run.HydrateTimeout)
	assert.Equal(t, 1<<20, run.BufferSize)
	assert.Equal(t, int64(10<<20), run.BWLimit)
	assert.Equal(t, platform.BackendXattr, run.Backend)
	assert.Equal(t, "auto", run.JournalPath)
	assert.True(t, run.DryRun)

	assert.True(t, run.Filter.Match("desktop.ini", false, 1), "defaults disabled")
	assert.False(t, run.Filter.Match("extra.txt", false, 1))
	assert.False(t, run.Filter.Match("~lock", false, 1))
	assert.False(t, run.Filter.Match("old.bak", false, 1))
	assert.False(t, run.Filter.Match("x.tmp", false, 1))
}

func TestAssemble_Errors(t *testing.T) {
	src, dst := roots(t)
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	tests := []struct {
		name string
		opts config.Options
	}{
		{"missing source arg", config.Options{Dst: dst}},
		{"missing destination arg", config.Options{Src: src}},
		{"bad mode", config.Options{Src: src, Dst: dst, Dehydrate: "sometimes"}},
		{"negative max path", config.Options{Src: src, Dst: dst, MaxPath: ptr(-1)}},
		{"negative timeout", config.Options{Src: src, Dst: dst, HydrateTimeout: -time.Second}},
		{"bad buffer size", config.Options{Src: src, Dst: dst, BufferSize: "huge"}},
		{"zero buffer size", config.Options{Src: src, Dst: dst, BufferSize: "0"}},
		{"bad bwlimit", config.Options{Src: src, Dst: dst, BWLimit: "fast"}},
		{"bad backend", config.Options{Src: src, Dst: dst, Placeholders: "icloud"}},
		{"bad exclude", config.Options{Src: src, Dst: dst, Exclude: []string{"["}}},
		{"missing skip file", config.Options{Src: src, Dst: dst, SkipFile: filepath.Join(src, "nope")}},
		{"destination inside source", config.Options{Src: src, Dst: filepath.Join(src, "sub")}},
		{"source inside destination", config.Options{Src: src, Dst: filepath.Dir(src)}},
		{"same root", config.Options{Src: src, Dst: src}},
		{"source is a file", config.Options{Src: file, Dst: dst}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Assemble(tt.opts)
			require.Error(t, err)
		})
	}
}

func TestAssemble_MissingSourceIsRootError(t *testing.T) {
	_, dst := roots(t)
	_, err := config.Assemble(config.Options{Src: filepath.Join(t.TempDir(), "gone"), Dst: dst})
	require.ErrorIs(t, err, engine.ErrSourceRoot)
}

func ptr[T any](v T) *T { return &v }

func TestAssemble_ZeroMaxPathDisablesLimit(t *testing.T) {
	src, dst := roots(t)

	run, err := config.Assemble(config.Options{Src: src, Dst: dst, MaxPath: ptr(0)})
	require.NoError(t, err)
	assert.Zero(t, run.MaxPath)
	assert.False(t, engine.PathTooLong(filepath.Join(src, strings.Repeat("x", 400)), run.MaxPath))
}

func TestAssemble_ResolvesSymlinkedRoots(t *testing.T) {
	target, dst := roots(t)
	link := filepath.Join(filepath.Dir(target), "OneDriveLink")
	require.NoError(t, os.Symlink(target, link))

	run, err := config.Assemble(config.Options{Src: link, Dst: dst})
	require.NoError(t, err)
	assert.Equal(t, target, run.SrcRoot)
	assert.Equal(t, dst, run.DstRoot)

	// A destination reached through the link is still inside the source.
	_, err = config.Assemble(config.Options{Src: target, Dst: filepath.Join(link, "out")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must not be inside source")
}
