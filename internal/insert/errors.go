package insert

import (
	"errors"
	"fmt"
)

var (
	ErrNilDocument  = errors.New("insert: nil document")
	ErrNilStructure = errors.New("insert: nil template structure")

	// ErrParentFailed marks a zone skipped because its parent header could
	// not be written.
	ErrParentFailed = errors.New("parent zone was not written")
)

// ZoneError is a failure to write one zone. It never aborts a run.
type ZoneError struct {
	ZoneID    string
	Paragraph int
	Err       error
}

func (e *ZoneError) Error() string {
	return fmt.Sprintf("zone %s (paragraph %d): %v", e.ZoneID, e.Paragraph, e.Err)
}

func (e *ZoneError) Unwrap() error { return e.Err }
