//go:build !windows

package diskspace

import "golang.org/x/sys/unix"

// Available returns the bytes available to the current user on dir's
// filesystem. ok is false when the filesystem cannot be queried.
func Available(dir string) (bytes int64, ok bool) {
	var stat unix.Statfs_t
	if err := unix.Statfs(dir, &stat); err != nil {
		return 0, false
	}
	return int64(stat.Bavail) * int64(stat.Bsize), true
}
