package editplan

import (
	"errors"
	"fmt"
)

// Sentinel errors for the core error taxonomy. Callers use errors.Is to
// classify a failure without depending on which phase produced it.
var (
	// ErrPathEscape: a supplied path resolves outside project_root.
	ErrPathEscape = errors.New("path escapes project root")

	// ErrInvalidLocation: a text edit's coordinates exceed the snapshot's dimensions.
	ErrInvalidLocation = errors.New("edit location out of range")

	// ErrEditSkipped: the transformer could not apply every edit (overlap).
	ErrEditSkipped = errors.New("one or more edits were skipped")

	// ErrFileIO: a read/write/rename/remove syscall failed.
	ErrFileIO = errors.New("file operation failed")

	// ErrParse: a dependency-update step required parsing invalid source.
	ErrParse = errors.New("source file failed to parse")

	// ErrRollbackPartial: rollback itself encountered errors.
	ErrRollbackPartial = errors.New("rollback partially failed")
)

// LocationError details an InvalidLocation failure.
type LocationError struct {
	Path     string
	Location Location
	Reason   string
}

func (e *LocationError) Error() string {
	return fmt.Sprintf("%s: invalid location %+v in %s: %s", ErrInvalidLocation, e.Location, e.Path, e.Reason)
}

func (e *LocationError) Unwrap() error { return ErrInvalidLocation }

// SkippedEdit pairs a TextEdit with the reason the Transformer refused to apply it.
type SkippedEdit struct {
	Edit   TextEdit
	Reason string
}

// SkippedEditsError is returned by the executor, which treats it as a
// hard failure, when the transformer skipped one or more edits.
type SkippedEditsError struct {
	Skipped []SkippedEdit
}

func (e *SkippedEditsError) Error() string {
	return fmt.Sprintf("%s: %d edit(s) skipped", ErrEditSkipped, len(e.Skipped))
}

func (e *SkippedEditsError) Unwrap() error { return ErrEditSkipped }

// FileIOError wraps an underlying OS error with the path and operation
// that failed.
type FileIOError struct {
	Op   string
	Path string
	Err  error
}

func (e *FileIOError) Error() string {
	return fmt.Sprintf("%s: %s %s: %v", ErrFileIO, e.Op, e.Path, e.Err)
}

func (e *FileIOError) Unwrap() error { return e.Err }

// Is allows errors.Is(err, ErrFileIO) to match any FileIOError regardless
// of the wrapped OS error.
func (e *FileIOError) Is(target error) bool { return target == ErrFileIO }

// RollbackPartialError is the only error the core surfaces without
// guaranteeing a clean filesystem state.
type RollbackPartialError struct {
	Original error
	RollbackErrors []error
}

func (e *RollbackPartialError) Error() string {
	return fmt.Sprintf("%s: original error %v, plus %d rollback error(s)", ErrRollbackPartial, e.Original, len(e.RollbackErrors))
}

func (e *RollbackPartialError) Unwrap() error { return ErrRollbackPartial }
