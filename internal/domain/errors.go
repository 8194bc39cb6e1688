package domain

import (
	"errors"
	"fmt"
)

var (
	ErrTypeMismatch      = errors.New("type mismatch")
	ErrPathConflict      = errors.New("path conflict")
	ErrUnsupportedFormat = errors.New("unsupported archive format")
	ErrExtractionFailed  = errors.New("extraction failed")
	ErrReleaseNotFound   = errors.New("release not found")
	ErrAssetNotFound     = errors.New("asset not found")
	ErrArtifactNotFound  = errors.New("artifact not found")
	ErrChecksumMismatch  = errors.New("checksum mismatch")
	ErrUnknownTool       = errors.New("unknown tool")
)

// PathConflictError is returned when a plain file occupies a path that must
// become a directory.
type PathConflictError struct {
	Path string
}

func (e *PathConflictError) Error() string {
	return fmt.Sprintf("path conflict: %s exists and is not a directory", e.Path)
}

func (e *PathConflictError) Is(target error) bool {
	return target == ErrPathConflict
}

// ExtractionError wraps any failure while unpacking an archive.
type ExtractionError struct {
	Archive string
	Err     error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed for %s: %v", e.Archive, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

func (e *ExtractionError) Is(target error) bool {
	return target == ErrExtractionFailed
}
