//go:build windows

package diskspace

import "golang.org/x/sys/windows"

// Available returns the bytes available to the current user on dir's volume.
// ok is false when the volume cannot be queried.
func Available(dir string) (bytes int64, ok bool) {
	ptr, err := windows.UTF16PtrFromString(dir)
	if err != nil {
		return 0, false
	}
	var free, total, totalFree uint64
	if err := windows.GetDiskFreeSpaceEx(ptr, &free, &total, &totalFree); err != nil {
		return 0, false
	}
	return int64(free), true
}
