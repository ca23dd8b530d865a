//go:build !linux

package fs

import (
	"os"
	"time"
)

// changeTime falls back to the modification time where ctime is not exposed.
func changeTime(info os.FileInfo) time.Time {
	return info.ModTime()
}
