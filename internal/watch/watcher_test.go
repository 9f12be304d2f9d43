// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package watch

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RequiresCallback(t *testing.T) {
	_, err := New("data.csv", Options{})
	assert.Error(t, err)
}

func TestWatcher_FiresOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sales.csv")
	require.NoError(t, os.WriteFile(path, []byte("a\n1\n"), 0o644))

	var calls atomic.Int32
	got := make(chan string, 4)
	w, err := New(path, Options{
		Debounce:    20 * time.Millisecond,
		MinInterval: 10 * time.Millisecond,
		OnChange: func(p string) {
			calls.Add(1)
			got <- p
		},
	})
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("a\n2\n"), 0o644))

	select {
	case p := <-got:
		assert.Equal(t, w.Path(), p)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sales.csv")
	require.NoError(t, os.WriteFile(path, []byte("a\n1\n"), 0o644))

	var calls atomic.Int32
	w, err := New(path, Options{
		Debounce: 10 * time.Millisecond,
		OnChange: func(string) { calls.Add(1) },
	})
	require.NoError(t, err)
	require.NoError(t, w.Start())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.csv"), []byte("x"), 0o644))
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, w.Close())

	assert.Zero(t, calls.Load())
}

func TestWatcher_ThrottlesBursts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sales.csv")
	require.NoError(t, os.WriteFile(path, []byte("a\n1\n"), 0o644))

	var calls atomic.Int32
	w, err := New(path, Options{
		Debounce:    5 * time.Millisecond,
		MinInterval: time.Hour,
		OnChange:    func(string) { calls.Add(1) },
	})
	require.NoError(t, err)
	require.NoError(t, w.Start())

	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte("a\n3\n"), 0o644))
		time.Sleep(80 * time.Millisecond)
	}
	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 5*time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, w.Close())

	assert.Equal(t, int32(1), calls.Load())
}
