package runner

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRunner(t *testing.T, timeout time.Duration) (*Runner, string) {
	t.Helper()
	dir := t.TempDir()
	return New(dir, timeout, nil).WithShell("/bin/sh"), dir
}

func TestRun_CapturesOutput(t *testing.T) {
	r, _ := newTestRunner(t, 5*time.Second)

	res, err := r.Run(context.Background(), "echo hello; echo oops >&2", "", false)
	require.NoError(t, err)

	assert.Equal(t, "hello\n", res.Stdout)
	assert.Equal(t, "oops\n", res.Stderr)
	assert.Equal(t, 0, res.ExitCode)
	assert.False(t, res.Cached)
}

func TestRun_SavesAndReusesOutput(t *testing.T) {
	r, dir := newTestRunner(t, 5*time.Second)
	ctx := context.Background()

	first, err := r.Run(ctx, "echo first", "out.txt", false)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	saved, err := os.ReadFile(filepath.Join(dir, "out.txt"))
	require.NoError(t, err)
	assert.Equal(t, "first\n", string(saved))

	second, err := r.Run(ctx, "echo second", "out.txt", false)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, "first\n", second.Stdout)
}

func TestRun_RecreateOverwrites(t *testing.T) {
	r, dir := newTestRunner(t, 5*time.Second)
	ctx := context.Background()

	_, err := r.Run(ctx, "echo a much longer first line", "out.txt", false)
	require.NoError(t, err)

	res, err := r.Run(ctx, "echo short", "out.txt", true)
	require.NoError(t, err)
	assert.False(t, res.Cached)

	saved, err := os.ReadFile(filepath.Join(dir, "out.txt"))
	require.NoError(t, err)
	assert.Equal(t, "short\n", string(saved))
}

func TestRun_FailureIsNotCached(t *testing.T) {
	r, dir := newTestRunner(t, 5*time.Second)

	res, err := r.Run(context.Background(), "echo partial; exit 3", "out.txt", false)
	require.Error(t, err)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "partial\n", res.Stdout)

	_, statErr := os.Stat(filepath.Join(dir, "out.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_Timeout(t *testing.T) {
	r, _ := newTestRunner(t, 100*time.Millisecond)

	start := time.Now()
	_, err := r.Run(context.Background(), "sleep 5", "", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
	assert.Less(t, time.Since(start), 4*time.Second)
}
