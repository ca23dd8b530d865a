package fs

import (
	"fmt"
	"os"
	"time"
)

// ReceiptTime returns the time the file at path arrived on this filesystem,
// approximated by its inode change time, in UTC.
func ReceiptTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, fmt.Errorf("stat %s: %w", path, err)
	}
	return changeTime(info).UTC(), nil
}
