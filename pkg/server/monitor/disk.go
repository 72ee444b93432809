package monitor

import (
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DiskMonitor reports how much disk the on-disk store uses. Results are
// cached so the storage endpoint can be polled without walking the tree
// on every request.
type DiskMonitor struct {
	dataDir       string
	cacheDuration time.Duration

	mu          sync.Mutex
	cachedUsage int64
	lastCheck   time.Time
}

// NewDiskMonitor creates a monitor for dataDir.
func NewDiskMonitor(dataDir string) *DiskMonitor {
	return &DiskMonitor{
		dataDir:       dataDir,
		cacheDuration: 10 * time.Second,
	}
}

// Dir returns the monitored directory.
func (dm *DiskMonitor) Dir() string {
	return dm.dataDir
}

// GetUsage returns current disk usage in bytes (cached).
func (dm *DiskMonitor) GetUsage() (int64, error) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if !dm.lastCheck.IsZero() && time.Since(dm.lastCheck) < dm.cacheDuration {
		return dm.cachedUsage, nil
	}

	usage, err := calculateDirSize(dm.dataDir)
	if err != nil {
		return 0, err
	}

	dm.cachedUsage = usage
	dm.lastCheck = time.Now()
	return usage, nil
}

// calculateDirSize sums allocated disk usage below path.
func calculateDirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(filePath string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += allocatedSize(filePath, info)
		}
		return nil
	})
	return size, err
}
