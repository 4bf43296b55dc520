// Package conditions checks host resources before a scheduled backup runs
package conditions

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
)

// Config defines the resource thresholds, zero value disables a check
type Config struct {
	DiskFreeAbove int    // minimal free disk space in percent
	DiskFreePath  string // path on the checked disk, the closest existing parent is used
	MemoryBelow   int    // maximal used memory in percent
}

// Checker verifies Config against the host metrics
type Checker struct {
	diskUsage     func(path string) (*disk.UsageStat, error)
	virtualMemory func() (*mem.VirtualMemoryStat, error)
}

// NewChecker makes Checker reading real host metrics
func NewChecker() *Checker {
	return &Checker{diskUsage: disk.Usage, virtualMemory: mem.VirtualMemory}
}

// Check returns true if all conditions are met, false with the reason otherwise
func (c *Checker) Check(cfg Config) (bool, string) {
	if cfg.DiskFreeAbove > 0 {
		if ok, reason := c.checkDiskFree(cfg.DiskFreeAbove, cfg.DiskFreePath); !ok {
			return false, reason
		}
	}
	if cfg.MemoryBelow > 0 {
		if ok, reason := c.checkMemory(cfg.MemoryBelow); !ok {
			return false, reason
		}
	}
	return true, ""
}

func (c *Checker) checkDiskFree(minFreePercent int, path string) (bool, string) {
	path = existingParent(path)
	usage, err := c.diskUsage(path)
	if err != nil {
		return false, fmt.Sprintf("failed to get disk usage for %s: %v", path, err)
	}
	freePercent := 100 - int(usage.UsedPercent)
	if freePercent < minFreePercent {
		return false, fmt.Sprintf("disk free at %d%%, need %d%% on %s", freePercent, minFreePercent, path)
	}
	return true, ""
}

func (c *Checker) checkMemory(threshold int) (bool, string) {
	v, err := c.virtualMemory()
	if err != nil {
		return false, fmt.Sprintf("failed to get memory: %v", err)
	}
	if current := int(v.UsedPercent); current >= threshold {
		return false, fmt.Sprintf("memory at %d%%, threshold %d%%", current, threshold)
	}
	return true, ""
}

// existingParent returns path or its closest existing parent, the backup dir may not exist yet
func existingParent(path string) string {
	if path == "" {
		return "."
	}
	p := filepath.Clean(path)
	for {
		if _, err := os.Stat(p); err == nil || !errors.Is(err, os.ErrNotExist) {
			return p
		}
		parent := filepath.Dir(p)
		if parent == p {
			return p
		}
		p = parent
	}
}
