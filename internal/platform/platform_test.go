package platform

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackendSet(t *testing.T) {
	tests := []struct {
		in      string
		want    Backend
		wantErr bool
	}{
		{"auto", BackendAuto, false},
		{"XATTR", BackendXattr, false},
		{" windows ", BackendWindows, false},
		{"none", BackendNone, false},
		{"onedrive", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var b Backend
			err := b.Set(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, b)
			assert.Equal(t, string(tt.want), b.String())
		})
	}
}

func TestNewPlaceholdersNone(t *testing.T) {
	p, err := NewPlaceholders(BackendNone)
	require.NoError(t, err)
	assert.Equal(t, "none", p.Name())

	path := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	st, err := p.State(path)
	require.NoError(t, err)
	assert.Equal(t, Local, st)
	require.NoError(t, p.RequestHydration(path))
	require.NoError(t, p.Pin(path))
	require.NoError(t, p.Dehydrate(path))
}

func TestNewPlaceholdersAuto(t *testing.T) {
	p, err := NewPlaceholders(BackendAuto)
	require.NoError(t, err)
	if runtime.GOOS == "windows" {
		assert.Equal(t, "windows", p.Name())
	} else {
		assert.Equal(t, "none", p.Name())
	}
}

func TestNewPlaceholdersUnknown(t *testing.T) {
	_, err := NewPlaceholders(Backend("bogus"))
	require.Error(t, err)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "local", Local.String())
	assert.Equal(t, "cloud-only", CloudOnly.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestBufferPool(t *testing.T) {
	p := NewBufferPool(1024)
	assert.Equal(t, 1024, p.Size())

	b := p.Get()
	require.Len(t, *b, 1024)
	p.Put(b)

	// Foreign buffers are not recycled.
	odd := make([]byte, 10)
	p.Put(&odd)
	assert.Len(t, *p.Get(), 1024)
	p.Put(nil)
}

func TestBufferPoolDefault(t *testing.T) {
	assert.Equal(t, DefaultBufferSize, NewBufferPool(0).Size())
	assert.Equal(t, DefaultBufferSize, NewBufferPool(-5).Size())
}

func TestPreallocate(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "pre"))
	require.NoError(t, err)
	defer f.Close()

	// Advisory: some filesystems reject fallocate, which is fine.
	_ = Preallocate(f, 1<<16)
	require.NoError(t, Preallocate(f, 0))
}
