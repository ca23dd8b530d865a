package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "20250316", "sst", "b.nc"))
	touch(t, filepath.Join(root, "20250316", "sst", "a.nc"))
	touch(t, filepath.Join(root, "20250317", "sst", "c.nc"))
	touch(t, filepath.Join(root, "20250317", "sst", "notes.txt"))
	touch(t, filepath.Join(root, "20250317", "adt", "d.nc"))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "20250317", "sst", "dir.nc"), 0o755))

	pattern := filepath.Join(root, "*", "sst", "*.nc")
	got, err := Discover([]string{pattern, pattern})
	require.NoError(t, err)

	want := []string{
		filepath.Join(root, "20250316", "sst", "a.nc"),
		filepath.Join(root, "20250316", "sst", "b.nc"),
		filepath.Join(root, "20250317", "sst", "c.nc"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Discover mismatch (-want +got):\n%s", diff)
	}
}

func TestDiscover_MissingRoot(t *testing.T) {
	got, err := Discover([]string{filepath.Join(t.TempDir(), "nope", "*", "sst", "*.nc")})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDiscover_BadPattern(t *testing.T) {
	_, err := Discover([]string{"/tmp/[unterminated"})
	assert.Error(t, err)
}

func TestMatchesAny(t *testing.T) {
	patterns := []string{"/dcom/*/sst/*-OSPO-L3?_GHRSST-*.nc"}
	assert.True(t, MatchesAny("/dcom/20250316/sst/20250316120000-OSPO-L3U_GHRSST-SSTsubskin-AVHRRF_MB-ACSPO.nc", patterns))
	assert.False(t, MatchesAny("/dcom/20250316/sst/readme.txt", patterns))
	assert.False(t, MatchesAny("/dcom/20250316/adt/20250316120000-OSPO-L3U_GHRSST-x.nc", patterns))
}

func TestMatchesAny_RelativePath(t *testing.T) {
	t.Chdir(t.TempDir())

	assert.True(t, MatchesAny("dcom/20250316/sst/a.nc", []string{"dcom/*/sst/*.nc"}))
	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.True(t, MatchesAny("dcom/20250316/sst/a.nc", []string{filepath.Join(wd, "dcom", "*", "sst", "*.nc")}))
	assert.False(t, MatchesAny("dcom/20250316/adt/a.nc", []string{"dcom/*/sst/*.nc"}))
}

func TestDirPatterns(t *testing.T) {
	got := dirPatterns([]string{"/dcom/*/wgrdbul/adt", "/dcom/*/wgrdbul/IST", "/data/fixed"})
	want := []string{
		"/dcom",
		"/dcom/*",
		"/dcom/*/wgrdbul",
		"/dcom/*/wgrdbul/adt",
		"/dcom/*/wgrdbul/IST",
		"/data/fixed",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("dirPatterns mismatch (-want +got):\n%s", diff)
	}
}

func TestReceiptTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.nc")
	before := time.Now().Add(-time.Second)
	touch(t, path)

	got, err := ReceiptTime(path)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, got.Location())
	assert.WithinDuration(t, time.Now(), got, time.Minute)
	assert.True(t, got.After(before))

	_, err = ReceiptTime(filepath.Join(t.TempDir(), "missing.nc"))
	assert.Error(t, err)
}

func TestWatcher_TriggersOnArrival(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "20250316", "sst"), 0o755))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	fc := clockwork.NewFakeClock()
	fired := make(chan struct{}, 4)
	w := NewWatcher(
		[]string{filepath.Join(root, "*", "sst")},
		[]string{filepath.Join(root, "*", "sst", "*.nc")},
		func(context.Context) { fired <- struct{}{} },
		WithWatcherClock(fc),
		WithDebounce(time.Second),
	)

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	<-w.Ready()

	t.Run("matching file", func(t *testing.T) {
		touch(t, filepath.Join(root, "20250316", "sst", "a.nc"))
		require.NoError(t, fc.BlockUntilContext(ctx, 1))
		fc.Advance(time.Second)

		select {
		case <-fired:
		case <-ctx.Done():
			t.Fatal("watcher did not fire")
		}
	})

	t.Run("new dated directory", func(t *testing.T) {
		require.NoError(t, os.MkdirAll(filepath.Join(root, "20250317", "sst"), 0o755))
		require.NoError(t, fc.BlockUntilContext(ctx, 1))
		fc.Advance(time.Second)

		select {
		case <-fired:
		case <-ctx.Done():
			t.Fatal("watcher did not fire for new directory")
		}
	})

	cancel()
	require.NoError(t, <-done)
}

func TestWatcher_RelativeRoot(t *testing.T) {
	t.Chdir(t.TempDir())
	require.NoError(t, os.MkdirAll(filepath.Join("dcom", "20250316", "sst"), 0o755))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	fc := clockwork.NewFakeClock()
	fired := make(chan struct{}, 1)
	w := NewWatcher(
		[]string{filepath.Join("dcom", "*", "sst")},
		[]string{filepath.Join("dcom", "*", "sst", "*.nc")},
		func(context.Context) { fired <- struct{}{} },
		WithWatcherClock(fc),
		WithDebounce(time.Second),
	)

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	<-w.Ready()

	touch(t, filepath.Join("dcom", "20250316", "sst", "a.nc"))
	require.NoError(t, fc.BlockUntilContext(ctx, 1))
	fc.Advance(time.Second)

	select {
	case <-fired:
	case <-ctx.Done():
		t.Fatal("watcher did not fire under a relative root")
	}

	cancel()
	require.NoError(t, <-done)
}
