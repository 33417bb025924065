package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalProviderRoundTrip(t *testing.T) {
	dir := t.TempDir()
	provider := NewLocalProvider(dir)

	w, errChan := provider.StreamToFile(context.Background(), "exports/test.csv")
	require.NotNil(t, w)
	_, err := w.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, <-errChan)

	data, err := os.ReadFile(filepath.Join(dir, "exports", "test.csv"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	r, err := provider.OpenFile(context.Background(), "exports/test.csv")
	require.NoError(t, err)
	defer r.Close()
}

func TestLocalProviderLocation(t *testing.T) {
	provider := NewLocalProvider(t.TempDir())
	location := provider.Location("exports/test.csv")
	assert.True(t, strings.HasPrefix(location, "file://"), "location: %s", location)
	assert.True(t, strings.HasSuffix(location, filepath.Join("exports", "test.csv")))
}
