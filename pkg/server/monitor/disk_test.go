package monitor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskMonitor_GetUsage(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "000001.vlog"), []byte("test data"), 0644))

	dm := NewDiskMonitor(tmpDir)
	usage, err := dm.GetUsage()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, usage, int64(9))
	assert.Equal(t, tmpDir, dm.Dir())
}

func TestDiskMonitor_Caching(t *testing.T) {
	tmpDir := t.TempDir()
	dm := NewDiskMonitor(tmpDir)

	usage1, err := dm.GetUsage()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "MANIFEST"), make([]byte, 64*1024), 0644))

	usage2, err := dm.GetUsage()
	require.NoError(t, err)
	assert.Equal(t, usage1, usage2)
}

func TestDiskMonitor_InvalidDir(t *testing.T) {
	dm := NewDiskMonitor("/nonexistent/path/12345")
	_, err := dm.GetUsage()
	assert.Error(t, err)
}
