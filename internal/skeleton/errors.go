package skeleton

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedChild = errors.New("malformed child")
	ErrDepthExceeded  = errors.New("max depth exceeded")
	ErrInvalidTag     = errors.New("invalid tag")
	ErrInvalidAttr    = errors.New("invalid attribute name")
	ErrPanic          = errors.New("panic during transform")
)

// Stage identifies where a recoverable failure happened.
type Stage int

const (
	StageChildren Stage = iota // mapping a node's children
	StageRebuild               // rebuilding a container node
)

func (s Stage) String() string {
	switch s {
	case StageChildren:
		return "children"
	case StageRebuild:
		return "rebuild"
	default:
		return "unknown"
	}
}

// TransformError records a failure that was absorbed by falling back to the
// original content. It never reaches callers of Render or Transform; it is
// only visible to loggers and observers.
type TransformError struct {
	Stage Stage
	Tag   string
	Err   error
}

func (e *TransformError) Error() string {
	if e.Tag == "" {
		return fmt.Sprintf("skeleton %s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("skeleton %s <%s>: %v", e.Stage, e.Tag, e.Err)
}

func (e *TransformError) Unwrap() error { return e.Err }
