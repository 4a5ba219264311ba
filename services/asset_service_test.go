package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAssetServiceCreatesUploadsDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "clips", "uploads")

	svc := NewAssetService(nil, dir)

	assert.Equal(t, dir, svc.UploadsDir)
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
