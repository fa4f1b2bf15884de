// Package diskspace checks free space on the filesystem a download writes to.
package diskspace

import (
	"errors"
	"fmt"

	"github.com/rescale/pdrive/internal/util/format"
)

// SafetyMargin is applied to the requested size before comparing it with the
// free space.
const SafetyMargin = 1.05

// InsufficientSpaceError indicates that there is not enough disk space available.
type InsufficientSpaceError struct {
	Path           string
	RequiredBytes  int64
	AvailableBytes int64
}

func (e *InsufficientSpaceError) Error() string {
	return fmt.Sprintf("insufficient disk space in %s: need %s, have %s available",
		e.Path, format.FileSize(e.RequiredBytes), format.FileSize(e.AvailableBytes))
}

// Check returns an *InsufficientSpaceError when dir's filesystem cannot hold
// requiredBytes plus the safety margin. Filesystems that cannot be queried
// pass the check and fail on write instead.
func Check(dir string, requiredBytes int64) error {
	if requiredBytes <= 0 {
		return nil
	}
	available, ok := Available(dir)
	if !ok {
		return nil
	}
	return compare(dir, requiredBytes, available)
}

func compare(dir string, requiredBytes, available int64) error {
	required := int64(float64(requiredBytes) * SafetyMargin)
	if available < required {
		return &InsufficientSpaceError{Path: dir, RequiredBytes: required, AvailableBytes: available}
	}
	return nil
}

// IsInsufficientSpaceError checks if err wraps an InsufficientSpaceError.
func IsInsufficientSpaceError(err error) bool {
	var target *InsufficientSpaceError
	return errors.As(err, &target)
}
