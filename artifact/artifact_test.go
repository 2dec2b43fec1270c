package artifact_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/sitecheck/artifact"
	"github.com/use-agent/sitecheck/browser/browsertest"
)

func TestCaptureWritesTimestampedFile(t *testing.T) {
	store := artifact.NewStore(t.TempDir(), "run-1")
	page := &browsertest.FakePage{ScreenshotData: []byte("image-bytes")}

	ref, err := store.Capture(context.Background(), page, "pre-submit")
	require.NoError(t, err)

	assert.Equal(t, "pre-submit", ref.Name)
	assert.False(t, ref.CapturedAt.IsZero())

	data, err := os.ReadFile(ref.Path)
	require.NoError(t, err)
	assert.Equal(t, []byte("image-bytes"), data)
}

func TestCaptureSameLogicalNameNeverCollides(t *testing.T) {
	store := artifact.NewStore(t.TempDir(), "run-1")
	page := &browsertest.FakePage{}

	first, err := store.Capture(context.Background(), page, "final")
	require.NoError(t, err)
	second, err := store.Capture(context.Background(), page, "final")
	require.NoError(t, err)

	assert.NotEqual(t, first.Path, second.Path)

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 2, "both artifacts must survive; nothing is overwritten")
}

func TestCaptureQuietSwallowsFailures(t *testing.T) {
	store := artifact.NewStore(t.TempDir(), "run-1")
	// Closed/invalid page: the screenshot fails.
	page := &browsertest.FakePage{ScreenshotErr: errors.New("page already closed")}

	path := store.CaptureQuiet(context.Background(), page, "post-error")
	assert.Empty(t, path)
}

func TestCaptureCreatesDirectoryIdempotently(t *testing.T) {
	root := t.TempDir()
	store := artifact.NewStore(root, "run-1")
	page := &browsertest.FakePage{}

	_, err := store.Capture(context.Background(), page, "a")
	require.NoError(t, err)
	// Directory exists now; the second capture must not treat that as an error.
	_, err = store.Capture(context.Background(), page, "b")
	require.NoError(t, err)
}
