package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type recorder struct {
	mu      sync.Mutex
	batches [][]string
	err     error
	calls   chan struct{}
}

func newRecorder() *recorder {
	return &recorder{calls: make(chan struct{}, 16)}
}

func (r *recorder) reload(ctx context.Context, changed []string) error {
	r.mu.Lock()
	r.batches = append(r.batches, changed)
	err := r.err
	r.mu.Unlock()
	r.calls <- struct{}{}
	return err
}

func (r *recorder) snapshot() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.batches...)
}

func (r *recorder) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.calls:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func jsonOnly(rel string) bool {
	return strings.HasSuffix(rel, ".json")
}

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	rec := newRecorder()
	w, err := New(Options{Root: root, Debounce: 50 * time.Millisecond, Match: jsonOnly}, rec.reload, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())

	write(t, filepath.Join(root, "adhd.json"), `{"id":"condition-adhd"}`)
	rec.wait(t)

	require.NoError(t, w.Stop())

	batches := rec.snapshot()
	require.NotEmpty(t, batches)
	assert.Contains(t, batches[0], "adhd.json")

	st := w.Stats()
	assert.GreaterOrEqual(t, st.Reloads, int64(1))
	assert.GreaterOrEqual(t, st.Events, int64(1))
	assert.False(t, st.LastReload.IsZero())
}

func TestWatcher_CoalescesBurst(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	rec := newRecorder()
	w, err := New(Options{Root: root, Debounce: 200 * time.Millisecond, Match: jsonOnly}, rec.reload, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	for _, name := range []string{"a.json", "b.json", "c.json", "d.json", "e.json"} {
		write(t, filepath.Join(root, name), "{}")
	}
	rec.wait(t)
	time.Sleep(400 * time.Millisecond)

	batches := rec.snapshot()
	assert.LessOrEqual(t, len(batches), 2, "a burst of writes is debounced")

	seen := map[string]bool{}
	for _, b := range batches {
		for _, p := range b {
			seen[p] = true
		}
	}
	assert.Len(t, seen, 5)
}

func TestWatcher_IgnoresNonMatchingFiles(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	rec := newRecorder()
	w, err := New(Options{Root: root, Debounce: 20 * time.Millisecond, Match: jsonOnly}, rec.reload, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())

	write(t, filepath.Join(root, "notes.txt"), "scratch")
	time.Sleep(150 * time.Millisecond)
	require.NoError(t, w.Stop())

	assert.Empty(t, rec.snapshot())
}

func TestWatcher_NewSubdirectory(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	rec := newRecorder()
	w, err := New(Options{Root: root, Debounce: 50 * time.Millisecond, Match: jsonOnly}, rec.reload, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.Mkdir(filepath.Join(root, "cardiology"), 0o755))
	rec.wait(t)

	write(t, filepath.Join(root, "cardiology", "mi.json"), "{}")
	deadline := time.After(5 * time.Second)
	for {
		for _, b := range rec.snapshot() {
			for _, p := range b {
				if p == "cardiology/mi.json" {
					return
				}
			}
		}
		select {
		case <-rec.calls:
		case <-deadline:
			t.Fatal("change in new subdirectory was not seen")
		}
	}
}

func TestWatcher_DirectoryMovedOut(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	write(t, filepath.Join(root, "psychiatry", "adhd.json"), "{}")
	write(t, filepath.Join(root, "psychiatry", "child", "odd.json"), "{}")

	rec := newRecorder()
	w, err := New(Options{Root: root, Debounce: 50 * time.Millisecond, Match: jsonOnly}, rec.reload, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.Rename(filepath.Join(root, "psychiatry"), filepath.Join(t.TempDir(), "psychiatry")))
	rec.wait(t)

	batches := rec.snapshot()
	require.NotEmpty(t, batches)
	assert.Contains(t, batches[0], "psychiatry")

	w.dirsMu.Lock()
	defer w.dirsMu.Unlock()
	assert.Equal(t, map[string]bool{filepath.Clean(root): true}, w.dirs, "nested watches are forgotten")
}

func TestWatcher_DirectoryRemoved(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	write(t, filepath.Join(root, "dermatology", "eczema.json"), "{}")

	rec := newRecorder()
	w, err := New(Options{Root: root, Debounce: 50 * time.Millisecond, Match: jsonOnly}, rec.reload, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.RemoveAll(filepath.Join(root, "dermatology")))
	deadline := time.After(5 * time.Second)
	for {
		for _, b := range rec.snapshot() {
			for _, p := range b {
				if p == "dermatology" {
					return
				}
			}
		}
		select {
		case <-rec.calls:
		case <-deadline:
			t.Fatal("removed directory was not reported")
		}
	}
}

func TestWatcher_SkipDirs(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git", "objects"), 0o755))

	rec := newRecorder()
	w, err := New(Options{
		Root:     root,
		Debounce: 20 * time.Millisecond,
		Match:    jsonOnly,
		SkipDirs: []string{".git", ".git/**"},
	}, rec.reload, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())

	write(t, filepath.Join(root, ".git", "objects", "pack.json"), "{}")
	time.Sleep(150 * time.Millisecond)
	require.NoError(t, w.Stop())

	assert.Empty(t, rec.snapshot())
}

func TestWatcher_FailedReloadIsCounted(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	rec := newRecorder()
	rec.err = errors.New("invalid content")
	w, err := New(Options{Root: root, Debounce: 20 * time.Millisecond, Match: jsonOnly}, rec.reload, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())

	write(t, filepath.Join(root, "bad.json"), "{")
	rec.wait(t)
	require.NoError(t, w.Stop())

	st := w.Stats()
	assert.GreaterOrEqual(t, st.Failures, int64(1))
	assert.Equal(t, int64(0), st.Reloads)
}

func TestWatcher_Lifecycle(t *testing.T) {
	defer goleak.VerifyNone(t)

	_, err := New(Options{Root: t.TempDir()}, nil, nil)
	assert.Error(t, err)

	w, err := New(Options{Root: filepath.Join(t.TempDir(), "missing")}, newRecorder().reload, nil)
	require.NoError(t, err)
	assert.Error(t, w.Start())
	assert.Error(t, w.Start(), "second start is rejected")
	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop(), "stop is idempotent")
}
