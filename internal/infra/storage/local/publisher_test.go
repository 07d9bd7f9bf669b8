package local

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishWritesFile(t *testing.T) {
	dir := t.TempDir()
	p := Publisher{Dir: dir, BaseURL: "http://localhost:8080/exports/"}

	url, path, err := p.Publish(context.Background(), "property-p1.ics", strings.NewReader("BEGIN:VCALENDAR"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/exports/property-p1.ics", url)
	assert.Equal(t, filepath.Join(dir, "property-p1.ics"), path)
	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "BEGIN:VCALENDAR", string(body))
}

func TestPublishOverwritesExisting(t *testing.T) {
	dir := t.TempDir()
	p := Publisher{Dir: dir, BaseURL: "http://localhost:8080/exports"}
	ctx := context.Background()

	_, path, err := p.Publish(ctx, "property-p1.ics", strings.NewReader("old"))
	require.NoError(t, err)
	_, _, err = p.Publish(ctx, "property-p1.ics", strings.NewReader("new"))
	require.NoError(t, err)

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(body))
}

func TestPublishStripsPathTraversal(t *testing.T) {
	dir := t.TempDir()
	p := Publisher{Dir: dir, BaseURL: "http://localhost:8080/exports"}

	_, path, err := p.Publish(context.Background(), "../../etc/feed.ics", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "feed.ics"), path)
}

func TestPublishRequiresFilename(t *testing.T) {
	p := Publisher{Dir: t.TempDir(), BaseURL: "http://localhost:8080/exports"}
	_, _, err := p.Publish(context.Background(), "  ", strings.NewReader("x"))
	assert.Error(t, err)
}

func TestUnpublishRemovesFile(t *testing.T) {
	dir := t.TempDir()
	p := Publisher{Dir: dir, BaseURL: "http://localhost:8080/exports"}
	ctx := context.Background()

	_, path, err := p.Publish(ctx, "property-p1.ics", strings.NewReader("x"))
	require.NoError(t, err)

	require.NoError(t, p.Unpublish(ctx, path))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Removing an absent file is a no-op.
	assert.NoError(t, p.Unpublish(ctx, path))
	assert.NoError(t, p.Unpublish(ctx, ""))
}
