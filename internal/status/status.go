// Package status maps the coarse, closed status-code vocabulary this project's
// on-disk synthesizer reports errors with onto github.com/containerd/errdefs,
// which implements the same classify-by-category idiom for the containerd/OCI
// ecosystem.
package status

import (
	"errors"
	"fmt"

	"github.com/containerd/errdefs"
)

// Cancelled and DeadlineExceeded are never produced by this synthesizer (it is
// strictly single-threaded and synchronous, with no timeouts or cancellation
// points) but are kept as sentinels so the status vocabulary stays a closed,
// nameable set.
var (
	ErrCancelled        = errors.New("efibootgen: cancelled")
	ErrDeadlineExceeded = errors.New("efibootgen: deadline exceeded")
)

func wrap(sentinel error, msg string) error {
	return fmt.Errorf("%s: %w", msg, sentinel)
}

// NotFound reports that the output file could not be opened or truncated.
func NotFound(msg string) error { return wrap(errdefs.ErrNotFound, msg) }

// Unavailable reports that an input file (e.g. a boot payload) was unreadable.
func Unavailable(msg string) error { return wrap(errdefs.ErrUnavailable, msg) }

// InvalidArgument reports a malformed caller input: conflicting flags, a
// BOOTX64.EFI payload whose name doesn't match, or a short name that cannot
// be represented in FAT 8.3 form.
func InvalidArgument(msg string) error { return wrap(errdefs.ErrInvalidArgument, msg) }

// FailedPrecondition reports that a formatter was invoked on a writer that is
// not good, or with a partition of zero sectors.
func FailedPrecondition(msg string) error { return wrap(errdefs.ErrFailedPrecondition, msg) }

// Internal reports an unexpected failure while writing a sector that must
// succeed for the image to be structurally valid (e.g. the boot sector).
func Internal(msg string) error { return wrap(errdefs.ErrInternal, msg) }

func IsNotFound(err error) bool           { return errdefs.IsNotFound(err) }
func IsUnavailable(err error) bool        { return errdefs.IsUnavailable(err) }
func IsInvalidArgument(err error) bool    { return errdefs.IsInvalidArgument(err) }
func IsFailedPrecondition(err error) bool { return errdefs.IsFailedPrecondition(err) }
func IsInternal(err error) bool           { return errdefs.IsInternal(err) }
